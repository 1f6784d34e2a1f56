package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"betterhist/internal/auth"
	"betterhist/internal/bhconfig"
	"betterhist/internal/historyserver"
	"betterhist/internal/pipeline"
	"betterhist/internal/proxy"
	"betterhist/internal/ptyhost"
	"betterhist/internal/shellenv"
	"betterhist/internal/snapshot"
	"betterhist/internal/splitter"
)

type sessionOptions struct {
	dumpOnExit bool
}

// runDefault implements the original CLI's default/subshell behavior: if
// already running inside a wrapped shell (BETTERHIST_SERVER is set),
// print the most recently captured command instead of nesting another
// session; otherwise wrap the login shell.
func runDefault(cmd *cobra.Command, opts *sessionOptions) error {
	if _, ok := shellenv.ServerAddr(); ok {
		return runGet(cmd, -1)
	}
	return runSession(cmd, opts)
}

// geometry holds the terminal size the pipeline renders against,
// updated from the SIGWINCH handler without locking the render path.
type geometry struct {
	columns atomic.Int32
	lines   atomic.Int32
}

func (g *geometry) set(columns, lines int) {
	g.columns.Store(int32(columns))
	g.lines.Store(int32(lines))
}

func (g *geometry) get() (int, int) {
	return int(g.columns.Load()), int(g.lines.Load())
}

func runSession(cmd *cobra.Command, opts *sessionOptions) error {
	log := logrus.New()

	stdinFd := int(os.Stdin.Fd())
	if !isatty.IsTerminal(uintptr(stdinFd)) && !isatty.IsCygwinTerminal(uintptr(stdinFd)) {
		return fmt.Errorf("betterhist must be run from an interactive terminal")
	}

	cfg, err := bhconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	name := historyName(cfg)

	// The history list is created at proxy startup and destroyed at proxy
	// shutdown: it covers one wrapped shell, not a standing archive, so it
	// lives only as long as this process does.
	store, err := snapshot.InMemory()
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	token, err := auth.NewToken()
	if err != nil {
		return fmt.Errorf("generate auth token: %w", err)
	}

	columns, lines, err := term.GetSize(stdinFd)
	if err != nil {
		columns, lines = 80, 24
	}

	output := termenv.NewOutput(os.Stderr)
	banner := output.String(fmt.Sprintf("betterhist: recording session (history %q, auth token in $%s)", name, shellenv.Auth)).
		Foreground(output.Color("2"))
	fmt.Fprintln(os.Stderr, banner)

	server := historyserver.New(name, store, auth.NewChecker(token), cfg.SearchDefaultLimit, log)
	port, err := server.Start()
	if err != nil {
		return fmt.Errorf("start history server: %w", err)
	}
	serverAddr := fmt.Sprintf("127.0.0.1:%d", port)
	sessionID := uuid.New().String()
	log.WithField("session", sessionID).Debug("betterhist session starting")

	host, err := ptyhost.Spawn(shellenv.DefaultShell(), columns, lines, stdinFd,
		fmt.Sprintf("%s=%s", shellenv.Server, serverAddr),
		fmt.Sprintf("%s=%s", shellenv.Auth, token),
	)
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}
	if err := host.EnterRawMode(); err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer host.RestoreTerminal()

	geom := &geometry{}
	geom.set(columns, lines)

	split := splitter.New(func() bool {
		fg, err := host.IsShellForeground()
		if err != nil {
			log.WithError(err).Debug("foreground pgrp check failed")
			return true
		}
		return fg
	}, 64)

	pipe := pipeline.NewWithGeometry(store, geom.get, cfg.RenderWorkers)
	pipelineDone := make(chan error, 1)
	go func() { pipelineDone <- pipe.Run(split.Out()) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			cols, lns, err := host.PropagateResize()
			if err != nil {
				log.WithError(err).Debug("resize propagation failed")
				continue
			}
			geom.set(cols, lns)
		}
	}()

	idleInterval := time.Duration(cfg.IdleTickMS) * time.Millisecond
	p := &proxy.Proxy{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Master: host.Ptm,
		OnStdin: func(data []byte) bool {
			split.OnStdinData(data)
			return true
		},
		OnMaster: func(data []byte) bool {
			split.OnMasterData(data)
			return true
		},
		IdleInterval: idleInterval,
		OnIdle:       split.OnIdle,
	}

	proxyErr := p.Run()
	host.RestoreTerminal()
	_ = host.Cmd.Wait()
	exitCode := 0
	if state := host.Cmd.ProcessState; state != nil {
		exitCode = state.ExitCode()
	}
	_ = host.Close()

	split.Close()
	if err := <-pipelineDone; err != nil {
		log.WithError(err).Error("pipeline failed to persist a snapshot")
	}

	if err := server.Shutdown(cmd.Context()); err != nil {
		log.WithError(err).Debug("history server shutdown error")
	}

	if opts.dumpOnExit || cfg.DumpOnExit {
		dumpSession(cmd, store)
	}

	if proxyErr != nil {
		return proxyErr
	}
	if exitCode != 0 {
		return &ExitError{Code: exitCode}
	}
	return nil
}

// ExitError carries the wrapped shell's exit status through cobra's
// error-only RunE signature so main can propagate it with os.Exit after
// all deferred session cleanup has run.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// dumpSession prints every captured entry as the original CLI did on
// exit, labeled with its index and wall-clock timestamp.
func dumpSession(cmd *cobra.Command, store *snapshot.Store) {
	length, err := store.Len()
	if err != nil {
		fmt.Fprintf(os.Stderr, "betterhist: dump-on-exit: %v\n", err)
		return
	}
	for i := 0; i < length; i++ {
		snap, err := store.Get(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "betterhist: dump-on-exit: %v\n", err)
			return
		}
		ts := time.Unix(int64(snap.Timestamp), 0).Local().Format("2006-01-02 15:04:05")
		fmt.Fprintf(os.Stderr, "-------------- %d (%s) ---------------\n", i, ts)
		fmt.Fprintln(os.Stderr, renderMarkdown(snap.UserView, snap.CommandView))
	}
}
