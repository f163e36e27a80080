// Package host is the façade applications construct: it owns the
// subprocess channel for its lifetime, runs the background read loop that
// feeds the dispatcher, performs the version handshake, and runs compile
// sessions against the shared channel.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package host

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sass-contrib/embedded-host-go/dispatch"
	"github.com/sass-contrib/embedded-host-go/embproto"
	"github.com/sass-contrib/embedded-host-go/hoststats"
	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/internal/nlog"
	"github.com/sass-contrib/embedded-host-go/proc"
	"github.com/sass-contrib/embedded-host-go/session"
)

// Host is one embedded-compiler instance: one subprocess, one channel, any
// number of concurrent compile sessions sharing it.
type Host struct {
	cfg       Config
	ch        *proc.Channel
	codec     embproto.Codec
	d         *dispatch.Dispatcher[session.Event]
	ids       *session.CompilationIDGenerator
	stats     *hoststats.Collector
	closed    atomic.Bool
	compiling sync.WaitGroup

	// version is the compiler's handshake response, set best-effort; nil if
	// the subprocess never answered within Config.LaunchTimeout. Written
	// from readLoop, read from handshake and Version — atomic.Pointer
	// guards the cross-goroutine handoff.
	version atomic.Pointer[embproto.VersionResponse]

	readLoopDone chan struct{}
}

// Version returns the compiler's version handshake response, or nil if the
// subprocess never answered within Config.LaunchTimeout.
func (h *Host) Version() *embproto.VersionResponse { return h.version.Load() }

// New launches the compiler subprocess, performs the version handshake
// (best-effort — see SPEC_FULL §4), and returns a ready-to-use Host.
func New(ctx context.Context, cfg Config, stats *hoststats.Collector) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ch, err := proc.Start(ctx, cfg.ExecPath, cfg.Args)
	if err != nil {
		return nil, err
	}

	h := &Host{
		cfg:          cfg,
		ch:           ch,
		codec:        embproto.NewCodec(),
		d:            dispatch.New[session.Event](),
		ids:          session.NewCompilationIDGenerator(),
		stats:        stats,
		readLoopDone: make(chan struct{}),
	}
	go h.readLoop()
	h.handshake(cfg.LaunchTimeout)
	return h, nil
}

// readLoop is the sole reader of the subprocess's stdout; it decodes each
// frame and fans the result out to every live session via the dispatcher,
// exiting once the channel reports a transport failure.
func (h *Host) readLoop() {
	defer close(h.readLoopDone)
	for {
		raw, err := h.ch.Recv()
		if err != nil {
			h.d.Notify(session.Event{Err: err})
			return
		}
		msg, err := h.codec.DecodeOutbound(raw)
		if err != nil {
			nlog.Errorf("host: malformed outbound message: %v", err)
			h.d.Notify(session.Event{Err: err})
			return
		}
		if msg.Kind == embproto.OutboundVersionResponse {
			h.version.Store(msg.VersionResponse)
			continue
		}
		h.d.Notify(session.Event{Msg: msg})
	}
}

// handshake sends a VersionRequest and waits up to timeout for readLoop to
// populate h.version. A missing response is logged, not fatal: the
// subprocess may simply not implement the handshake.
func (h *Host) handshake(timeout time.Duration) {
	in := &embproto.InboundMessage{Kind: embproto.InboundVersionRequest, VersionRequest: &embproto.VersionRequest{ID: 0}}
	if err := h.ch.Send(h.codec.EncodeInbound(in)); err != nil {
		nlog.Warningf("host: version handshake send failed: %v", err)
		return
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if v := h.version.Load(); v != nil {
			nlog.Infof("host: compiler version %s (%s)", v.CompilerVersion, v.ImplementationName)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	nlog.Warningf("host: no version handshake response within %s; continuing without it", timeout)
}

// Compile runs one compilation against the shared subprocess channel and
// blocks until it resolves.
func (h *Host) Compile(ctx context.Context, opts session.Options) (*session.Result, error) {
	if h.closed.Load() {
		return nil, errs.ErrTransportClosed
	}
	h.compiling.Add(1)
	defer h.compiling.Done()
	if h.stats != nil {
		h.stats.CompileStarted()
	}
	res, err := session.Run(ctx, h.ch, h.codec, h.d, h.ids, h.cfg.MaxConcurrentCallbacks, opts)
	if h.stats != nil {
		h.stats.CompileFinished(err != nil)
	}
	return res, err
}

// Close aborts every live session and tears down the subprocess. It is
// idempotent and safe to call from any goroutine. Close runs the session
// drain and the channel teardown concurrently, both bounded by
// Config.CloseGracePeriod; sessions still running once the grace period
// elapses are abandoned rather than awaited further.
func (h *Host) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.CloseGracePeriod)
	defer cancel()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		drained := make(chan struct{})
		go func() {
			h.compiling.Wait()
			close(drained)
		}()
		select {
		case <-drained:
			return nil
		case <-ctx.Done():
			nlog.Warningf("host: close grace period elapsed with sessions still in flight")
			return nil
		}
	})
	g.Go(func() error {
		return h.ch.Close(h.cfg.CloseGracePeriod)
	})

	var accum errs.Errs
	if err := g.Wait(); err != nil {
		accum.Add(err)
	}
	<-h.readLoopDone
	return accum.JoinErr()
}
