// Package proxy implements the byte-proxy event loop: it forwards bytes
// bidirectionally between a controlling terminal and a PTY master while
// handing every chunk to an observer before it is forwarded. Grounded on
// the teacher's internal/overlay.Run/ReadInput/PipeOutput goroutine
// layout, generalized from a TUI overlay (which renders locally) to a
// transparent pass-through proxy (which forwards unmodified and reports
// to observers).
package proxy

import (
	"fmt"
	"io"
	"time"
)

// direction identifies which side an event came from.
type direction int

const (
	fromStdin direction = iota
	fromMaster
)

type event struct {
	dir  direction
	data []byte
	err  error
}

// Proxy wires a controlling terminal (Stdin/Stdout) to a PTY master
// (Master, read and write) through a pair of observers that are invoked
// with every chunk before it is forwarded, matching spec.md §4.C's
// observer-before-forward rule.
//
// OnStdin and OnMaster return false to request a clean shutdown of the
// loop (e.g. the splitter decided no more data should be accepted, which
// in practice never happens, but the hook exists so a future observer
// can veto forwarding without the proxy knowing why).
type Proxy struct {
	Stdin  io.Reader
	Stdout io.Writer
	Master io.ReadWriter

	OnStdin  func(data []byte) bool
	OnMaster func(data []byte) bool

	// IdleInterval, when positive, fires OnIdle on a ticker whenever
	// neither side has produced a chunk. Zero disables idle ticks.
	IdleInterval time.Duration
	OnIdle       func()
}

// readChunkBytes is the buffer size used for each Read call, matching
// the teacher's fixed-size read buffers in internal/virtualterminal.
const readChunkBytes = 4096

// Run drives the event loop until the master side reaches EOF (the child
// exited and closed the PTY), an observer returns false, a read from stdin
// fails (EOF included), or a write to either side fails. It returns the
// error that caused the loop to stop, or nil for a master-EOF or
// observer-veto shutdown.
//
// Read calls are issued from two dedicated goroutines — one per
// direction — so that reads never block each other, but every event is
// drained and its observer invoked from this single goroutine, preserving
// the splitter's single-writer invariant and strict per-direction FIFO
// order.
func (p *Proxy) Run() error {
	events := make(chan event, 64)

	go p.pump(fromStdin, p.Stdin, events)
	go p.pump(fromMaster, p.Master, events)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if p.IdleInterval > 0 && p.OnIdle != nil {
		ticker = time.NewTicker(p.IdleInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case ev := <-events:
			if ticker != nil {
				ticker.Reset(p.IdleInterval)
			}
			if ev.err != nil {
				if ev.dir == fromMaster {
					// Child exited and closed its side of the PTY: this is
					// the normal end of a session.
					return nil
				}
				return fmt.Errorf("read stdin: %w", ev.err)
			}

			switch ev.dir {
			case fromStdin:
				if !p.OnStdin(ev.data) {
					return nil
				}
				if _, err := p.Master.Write(ev.data); err != nil {
					return fmt.Errorf("write master: %w", err)
				}
			case fromMaster:
				if !p.OnMaster(ev.data) {
					return nil
				}
				if _, err := p.Stdout.Write(ev.data); err != nil {
					return fmt.Errorf("write stdout: %w", err)
				}
			}

		case <-tickC:
			p.OnIdle()
		}
	}
}

func (p *Proxy) pump(dir direction, r io.Reader, events chan<- event) {
	buf := make([]byte, readChunkBytes)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			events <- event{dir: dir, data: chunk}
		}
		if err != nil {
			events <- event{dir: dir, err: err}
			return
		}
	}
}
