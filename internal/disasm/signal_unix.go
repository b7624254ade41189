//go:build linux || darwin || freebsd || netbsd || openbsd

package disasm

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func signalName(e *exec.ExitError) string {
	ws, ok := e.Sys().(syscall.WaitStatus)
	if !ok {
		return ""
	}
	if st := unix.WaitStatus(ws); st.Signaled() {
		return unix.SignalName(st.Signal())
	}
	return ""
}
