//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package disasm

import "os/exec"

func signalName(*exec.ExitError) string { return "" }
