// Package proc owns the single compiler subprocess: its stdio pipes, the
// write-serialized Send path, the background read loop, and graceful
// termination. There is exactly one subprocess per Channel and no pooling or
// restart, per the driver's own scope.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package proc

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sass-contrib/embedded-host-go/internal/cos"
	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/internal/nlog"
	"github.com/sass-contrib/embedded-host-go/wire"
)

// Channel is a framed, bidirectional byte-stream over a single compiler
// subprocess's stdin/stdout, with its stderr pumped to the host's logger.
type Channel struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	sendMu sync.Mutex // serializes writes; protowire frames must not interleave

	stopped *cos.StopCh
	exitErr error
	exitMu  sync.Mutex

	doneReading chan struct{}
}

// Start launches the compiler executable and wires its stdio. The caller
// owns the returned Channel's lifetime: call Recv in a loop until it returns
// errs.ErrTransportClosed, and Close when done.
func Start(ctx context.Context, path string, args []string) (*Channel, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errs.WrapHostError(err, "proc: stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errs.WrapHostError(err, "proc: stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errs.WrapHostError(err, "proc: stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, errs.WrapHostError(err, "proc: start compiler")
	}

	c := &Channel{
		cmd:         cmd,
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		stopped:     cos.NewStopCh(),
		doneReading: make(chan struct{}),
	}
	go c.pumpStderr()
	return c, nil
}

func (c *Channel) pumpStderr() {
	sc := bufio.NewScanner(c.stderr)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		nlog.Warningf("compiler stderr: %s", sc.Text())
	}
}

// Send writes one framed payload to the subprocess's stdin. Safe for
// concurrent use; frames are serialized so they never interleave on the
// wire.
func (c *Channel) Send(payload []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.stopped.IsClosed() {
		return errs.ErrTransportClosed
	}
	if err := wire.WriteFrame(c.stdin, payload); err != nil {
		return errs.WrapHostError(err, "proc: write frame")
	}
	return nil
}

// Recv blocks for the next framed payload from the subprocess's stdout. It
// returns errs.ErrTransportClosed once the subprocess closes stdout or the
// Channel is closed.
func (c *Channel) Recv() ([]byte, error) {
	b, err := wire.ReadFrame(c.stdout)
	if err != nil {
		if c.stopped.IsClosed() {
			return nil, errs.ErrTransportClosed
		}
		return nil, err
	}
	return b, nil
}

// Closed reports whether Close has been called. A subprocess that exits on
// its own, or a failed read or write, does not set it.
func (c *Channel) Closed() bool { return c.stopped.IsClosed() }

// Close asks the subprocess to exit by closing its stdin, waits up to grace
// for it to do so on its own, then sends SIGTERM and finally SIGKILL. A
// second Close returns the exit error recorded by the first.
func (c *Channel) Close(grace time.Duration) error {
	if c.stopped.IsClosed() {
		return c.ExitErr()
	}
	c.stopped.Close()
	_ = c.stdin.Close()

	waited := make(chan error, 1)
	go func() { waited <- c.cmd.Wait() }()

	select {
	case err := <-waited:
		return c.recordExit(err)
	case <-time.After(grace):
	}

	if c.cmd.Process != nil {
		_ = c.cmd.Process.Signal(unix.SIGTERM)
	}
	select {
	case err := <-waited:
		return c.recordExit(err)
	case <-time.After(grace):
	}

	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	return c.recordExit(<-waited)
}

func (c *Channel) recordExit(err error) error {
	c.exitMu.Lock()
	defer c.exitMu.Unlock()
	if err != nil {
		c.exitErr = errs.WrapHostError(err, "proc: compiler exited")
	}
	return c.exitErr
}

// ExitErr returns the recorded exit error, if any, after Close returns.
func (c *Channel) ExitErr() error {
	c.exitMu.Lock()
	defer c.exitMu.Unlock()
	return c.exitErr
}
