// Package disasm runs the external disassembler and streams its listing.
package disasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultArgs asks for a full disassembly of every section without
// collapsing runs of zero bytes, so small data symbols keep their octets.
var DefaultArgs = []string{"-z", "-D"}

// Config selects the disassembler binary and its arguments. The archive
// path is appended after Args.
type Config struct {
	Path string
	Args []string
}

// DefaultPath returns $OBJDUMP when set and "objdump" otherwise.
func DefaultPath() string {
	if p := os.Getenv("OBJDUMP"); p != "" {
		return p
	}
	return "objdump"
}

func (c Config) argv(archive string) (string, []string) {
	path := c.Path
	if path == "" {
		path = DefaultPath()
	}
	args := c.Args
	if args == nil {
		args = DefaultArgs
	}
	return path, append(append([]string(nil), args...), archive)
}

// Error reports a disassembler that could not be started or that did not
// exit cleanly.
type Error struct {
	Argv []string
	// Signal names the signal that killed the process, if any.
	Signal string
	Err    error
}

func (e *Error) Error() string {
	cmd := strings.Join(e.Argv, " ")
	if e.Signal != "" {
		return fmt.Sprintf("%s: killed by %s", cmd, e.Signal)
	}
	return fmt.Sprintf("%s: %v", cmd, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Process is a running disassembler. Reads return its standard output;
// Close waits for it to exit.
type Process struct {
	argv   []string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	log    zerolog.Logger

	waited bool
	err    error
}

// Start launches the disassembler on archive. Its standard error is passed
// through to ours.
func Start(ctx context.Context, cfg Config, archive string, log zerolog.Logger) (*Process, error) {
	path, args := cfg.argv(archive)
	argv := append([]string{path}, args...)

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = os.Stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Argv: argv, Err: err}
	}
	log.Debug().Strs("argv", argv).Msg("starting disassembler")
	if err := cmd.Start(); err != nil {
		return nil, &Error{Argv: argv, Err: err}
	}
	return &Process{argv: argv, cmd: cmd, stdout: stdout, log: log}, nil
}

func (p *Process) Read(b []byte) (int, error) { return p.stdout.Read(b) }

// Close discards any unread output and waits for the process. It returns an
// *Error if the process exited with a non-zero status or was killed. Later
// calls return the same result.
func (p *Process) Close() error {
	if p.waited {
		return p.err
	}
	p.waited = true

	// Wait must not run while the child can still block on a full pipe.
	_, _ = io.Copy(io.Discard, p.stdout)
	err := p.cmd.Wait()
	if err == nil {
		p.log.Debug().Int("pid", p.cmd.Process.Pid).Msg("disassembler exited")
		return nil
	}
	e := &Error{Argv: p.argv, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		e.Signal = signalName(exitErr)
	}
	p.err = e
	return e
}
