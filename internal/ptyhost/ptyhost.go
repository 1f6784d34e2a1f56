// Package ptyhost forks a shell under a PTY and owns its lifecycle:
// spawning, window-size propagation, foreground-process-group queries,
// and guaranteed termios restoration on every exit path. Grounded on the
// teacher's internal/virtualterminal.VT (StartPTY/Resize) and
// internal/overlay.Run (raw-mode setup, SIGWINCH plumbing), generalized
// from a TUI-overlay host to a transparent pass-through proxy host.
package ptyhost

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Host owns the live child: its PID, the PTY master fd, the saved termios
// of the parent stdin, and the configured geometry (spec.md §3
// PTYSession).
type Host struct {
	Cmd      *exec.Cmd
	Ptm      *os.File
	StdinFd  int
	Columns  int
	Lines    int
	restored bool
	saved    *term.State
}

// Spawn forks the given shell under a PTY sized to columns x lines. argv[0]
// is set to the shell's basename and an "-i" (interactive) flag is passed,
// matching the original betterhist/subshell.py:
//
//	shell_name = os.path.basename(self.shell_command)
//	self.pid, self.master_fd = pty.fork()
//	if self.pid == 0:
//	    os.execlp(self.shell_command, shell_name, "-i")
//
// extraEnv entries (in "KEY=VALUE" form) are appended to the inherited
// environment, so the child sees them from its very first instruction —
// setting them on Cmd.Env after Spawn returns would have no effect.
func Spawn(shellPath string, columns, lines int, stdinFd int, extraEnv ...string) (*Host, error) {
	cmd := &exec.Cmd{
		Path: shellPath,
		Args: []string{filepath.Base(shellPath), "-i"},
		Env:  append(os.Environ(), extraEnv...),
	}

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(lines),
		Cols: uint16(columns),
	})
	if err != nil {
		return nil, fmt.Errorf("spawn shell %q: %w", shellPath, err)
	}

	return &Host{
		Cmd:     cmd,
		Ptm:     ptm,
		StdinFd: stdinFd,
		Columns: columns,
		Lines:   lines,
	}, nil
}

// EnterRawMode puts the parent's stdin into raw mode and remembers the
// prior termios so RestoreTerminal can put it back. Safe to call at most
// once per Host.
func (h *Host) EnterRawMode() error {
	saved, err := term.MakeRaw(h.StdinFd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	h.saved = saved
	return nil
}

// RestoreTerminal restores the termios saved by EnterRawMode. It is
// idempotent and safe to call on every exit path (normal, error, or
// signal), per spec.md §4.B.
func (h *Host) RestoreTerminal() {
	if h.restored || h.saved == nil {
		return
	}
	h.restored = true
	_ = term.Restore(h.StdinFd, h.saved)
}

// SetWindowSize issues the platform window-size ioctl on the master fd.
func (h *Host) SetWindowSize(columns, lines int) error {
	h.Columns = columns
	h.Lines = lines
	return pty.Setsize(h.Ptm, &pty.Winsize{
		Rows: uint16(lines),
		Cols: uint16(columns),
	})
}

// PropagateResize reads the parent stdin's current geometry and applies
// it to the master fd, in response to SIGWINCH. Ioctl errors here are
// logged and non-fatal, per spec.md §7.
func (h *Host) PropagateResize() (columns, lines int, err error) {
	columns, lines, err = term.GetSize(h.StdinFd)
	if err != nil {
		return 0, 0, fmt.Errorf("get terminal size: %w", err)
	}
	if err := h.SetWindowSize(columns, lines); err != nil {
		return columns, lines, fmt.Errorf("set pty size: %w", err)
	}
	return columns, lines, nil
}

// IsShellForeground reports whether the shell (rather than a child
// command it launched) currently owns the PTY's foreground process
// group, via the TIOCGPGRP ioctl on the master fd.
func (h *Host) IsShellForeground() (bool, error) {
	pgrp, err := unix.IoctlGetInt(int(h.Ptm.Fd()), unix.TIOCGPGRP)
	if err != nil {
		return false, fmt.Errorf("get foreground pgrp: %w", err)
	}
	return pgrp == h.Cmd.Process.Pid, nil
}

// Close releases the master fd. It does not wait for the child; callers
// should call Cmd.Wait() (or rely on it already having returned) first.
func (h *Host) Close() error {
	return h.Ptm.Close()
}
