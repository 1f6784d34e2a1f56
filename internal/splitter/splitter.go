// Package splitter implements the two-state machine that partitions a
// proxied PTY byte stream into alternating user-input and command-output
// epochs, grounded on the original betterhist/termsplit.py TermSplit
// state machine.
package splitter

import "bytes"

// State is one of the splitter's two states.
type State int

const (
	// WaitForUser is the initial state: bytes from the master (such as the
	// shell's echo of typed input) join the user-input epoch, and stdin
	// bytes are either accumulated as more user input or trigger a
	// transition.
	WaitForUser State = iota
	// WaitForCommand: accumulated user input has been handed off; master
	// bytes are command output until the shell regains the foreground.
	WaitForCommand
)

// Tuple is one emitted (user_bytes, command_bytes) pair.
type Tuple struct {
	UserBytes    []byte
	CommandBytes []byte
}

// Splitter is the stream splitter state machine described in spec.md
// §4.D. It is not safe for concurrent use: all of on_master_data,
// on_stdin_data and on_idle must be called from a single goroutine (the
// proxy loop), matching spec.md §5's "splitter state is mutated only from
// the proxy loop" rule.
type Splitter struct {
	// IsShellForeground reports whether the shell (not a child command)
	// currently owns the PTY foreground process group. Implemented via
	// the PTY host's TIOCGPGRP ioctl.
	IsShellForeground func() bool

	state             State
	buffer            [][]byte
	pendingUserBuffer []byte
	hasPendingUser    bool

	out chan Tuple
}

// New constructs a Splitter. outCap bounds the emitted-tuple channel;
// spec.md treats the channel as unbounded in contract but allows an
// implementation to bound it if it also bounds memory, which a consumer
// that drains promptly satisfies.
func New(isShellForeground func() bool, outCap int) *Splitter {
	return &Splitter{
		IsShellForeground: isShellForeground,
		state:             WaitForUser,
		out:               make(chan Tuple, outCap),
	}
}

// Out is the channel tuples are emitted on.
func (s *Splitter) Out() <-chan Tuple {
	return s.out
}

// Close closes the emission channel. Callers must guarantee no further
// OnMasterData/OnStdinData/OnIdle calls occur afterward — in practice,
// once the proxy loop that drives them has returned.
func (s *Splitter) Close() {
	close(s.out)
}

// State returns the splitter's current state (for tests/introspection).
func (s *Splitter) State() State {
	return s.state
}

// OnMasterData handles a chunk of bytes read from the PTY master (shell
// output). Always appends to the active buffer; in WaitForCommand it
// checks whether the shell has regained the foreground and, if so, emits
// the completed tuple.
func (s *Splitter) OnMasterData(data []byte) {
	s.buffer = append(s.buffer, data)
	if s.state == WaitForCommand {
		s.edgeTriggerCommandToUser()
	}
}

// OnStdinData handles a chunk of bytes read from stdin (user input). The
// chunk is always appended to whichever buffer is currently active —
// matching spec.md §3's invariant that `buffer` accumulates every byte
// chunk of the active epoch regardless of source — in addition to any
// state transition it triggers.
func (s *Splitter) OnStdinData(data []byte) {
	if s.state == WaitForCommand {
		if s.IsShellForeground() {
			s.emit()
		}
		s.buffer = append(s.buffer, data)
		return
	}

	// WaitForUser
	s.buffer = append(s.buffer, data)
	if bytes.ContainsRune(data, '\r') {
		s.transitionUserToCommand()
	} else if !s.IsShellForeground() {
		s.transitionUserToCommand()
	}
}

// OnIdle is called periodically (about every 100ms) when no bytes have
// flowed. It lets a silent child-command exit close out its epoch
// promptly even without further I/O.
func (s *Splitter) OnIdle() {
	if s.state == WaitForCommand {
		s.edgeTriggerCommandToUser()
	}
}

func (s *Splitter) edgeTriggerCommandToUser() {
	if s.state == WaitForCommand && s.IsShellForeground() {
		s.emit()
	}
}

func (s *Splitter) transitionUserToCommand() {
	s.pendingUserBuffer = joinBuffer(s.buffer)
	s.hasPendingUser = true
	s.buffer = nil
	s.state = WaitForCommand
}

// emit closes out the current WaitForCommand epoch: the accumulated
// buffer becomes the command bytes, paired with the user bytes captured
// at the preceding user-to-command transition.
func (s *Splitter) emit() {
	commandBytes := joinBuffer(s.buffer)
	userBytes := s.pendingUserBuffer
	s.buffer = nil
	s.pendingUserBuffer = nil
	s.hasPendingUser = false
	s.state = WaitForUser

	s.out <- Tuple{UserBytes: userBytes, CommandBytes: commandBytes}
}

func joinBuffer(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
