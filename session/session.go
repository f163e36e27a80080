// Package session implements the compilation session state machine: one
// compile request's lifetime against the shared subprocess channel, from
// compilation-id allocation through terminal resolution, including
// concurrent dispatch of every callback request the compiler issues back to
// host code along the way.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/sass-contrib/embedded-host-go/dispatch"
	"github.com/sass-contrib/embedded-host-go/embproto"
	"github.com/sass-contrib/embedded-host-go/internal/cos"
	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/internal/nlog"
)

// sender is the narrow slice of proc.Channel a session needs: one framed,
// mutex-serialized write. Kept as an interface so session logic can be
// exercised against a fake without spawning a real subprocess.
type sender interface {
	Send(payload []byte) error
}

// defaultFunctionShards spreads a session's function registry across a
// handful of buckets; compilations rarely register more than a few dozen
// custom functions. The registry takes no locks: every registration happens
// in Run before the compile request is sent, and callbacks only read it.
const defaultFunctionShards = 8

// CompilationIDGenerator allocates strictly increasing, never-reused
// compilation ids for the lifetime of one subprocess channel. Shared by all
// sessions run against that channel; owned by the host façade.
type CompilationIDGenerator struct{ next uint32 }

func NewCompilationIDGenerator() *CompilationIDGenerator {
	return &CompilationIDGenerator{next: 1}
}

func (g *CompilationIDGenerator) Next() uint32 {
	return atomic.AddUint32(&g.next, 1) - 1
}

// ImporterOption is one entry in a compile's ordered importer list or its
// per-entrypoint slot.
type ImporterOption struct {
	Importer     Importer
	FileImporter FileImporter
}

// Options describes one compile request: the entry point, output knobs, and
// the callback tables the compiler may invoke during compilation.
type Options struct {
	// entry: exactly one of Source (with Syntax/URL) or Path
	Source string
	Syntax string // "scss" | "indented" | "css"
	URL    string
	Path   string

	Style                   string
	SourceMap               bool
	SourceMapIncludeSources bool
	Charset                 bool
	QuietDeps               bool
	Verbose                 bool
	AlertAscii              bool
	AlertColor              bool

	LoadPaths []string

	// Functions maps a raw "name(params)" signature to its callback.
	Functions map[string]Function

	Importers          []ImporterOption
	EntrypointImporter *ImporterOption

	Logger Logger
}

// Result is a session's successful terminal state.
type Result struct {
	CSS        string
	SourceMap  string
	LoadedURLs []string
}

// Session drives one compile request against a shared subprocess channel.
type Session struct {
	id      uint32
	ch      sender
	codec   embproto.Codec
	obsID   int
	tie     string
	workers *semaphore.Weighted

	functions *signatureRegistry
	importers *importerTable
	logger    Logger

	pending sync.Map // request id (uint32) -> struct{}{}, present exactly while a response is owed

	done    chan struct{}
	doneSet atomic.Bool
	result  *Result
	err     error
	errMu   sync.Mutex
}

// Event is what the channel's dispatcher fans out: either a decoded
// outbound message or a fatal transport error.
type Event struct {
	Msg *embproto.OutboundMessage
	Err error
}

// Run allocates a compilation id, registers for routed traffic, sends the
// compile request, and blocks until the terminal message arrives, the
// channel reports a fatal error, or ctx is canceled.
func Run(ctx context.Context, ch sender, codec embproto.Codec, d *dispatch.Dispatcher[Event], ids *CompilationIDGenerator, maxConcurrentCallbacks int64, opts Options) (*Result, error) {
	s := &Session{
		id:        ids.Next(),
		ch:        ch,
		codec:     codec,
		tie:       cos.GenTie(),
		workers:   semaphore.NewWeighted(maxConcurrentCallbacks),
		functions: newSignatureRegistry(defaultFunctionShards),
		importers: newImporterTable(),
		logger:    opts.Logger,
		done:      make(chan struct{}),
	}

	for raw, fn := range opts.Functions {
		if err := s.functions.register(raw, fn); err != nil {
			return nil, err
		}
	}
	for i, imp := range opts.Importers {
		if err := s.importers.register(uint32(i+1), imp.Importer, imp.FileImporter); err != nil {
			return nil, err
		}
	}
	entrypointID := uint32(0)
	if opts.EntrypointImporter != nil {
		entrypointID = uint32(len(opts.Importers) + 1)
		if err := s.importers.register(entrypointID, opts.EntrypointImporter.Importer, opts.EntrypointImporter.FileImporter); err != nil {
			return nil, err
		}
	}

	s.obsID = d.Add(func(ev Event) { s.handle(ev) })
	defer d.Remove(s.obsID)

	req := s.buildCompileRequest(opts, entrypointID)
	in := &embproto.InboundMessage{Kind: embproto.InboundCompileRequest, CompileRequest: req}
	if err := ch.Send(codec.EncodeInbound(in)); err != nil {
		return nil, err
	}

	select {
	case <-s.done:
		return s.result, s.err
	case <-ctx.Done():
		s.resolve(nil, errs.NewAbortedError("context canceled", ctx.Err()))
		return s.result, s.err
	}
}

func (s *Session) buildCompileRequest(opts Options, entrypointID uint32) *embproto.CompileRequest {
	var sigs []string
	for raw := range opts.Functions {
		sigs = append(sigs, raw)
	}
	var importerEntries []embproto.ImporterEntry
	for i, imp := range opts.Importers {
		importerEntries = append(importerEntries, embproto.ImporterEntry{
			ID:           uint32(i + 1),
			FileImporter: imp.Importer == nil && imp.FileImporter != nil,
		})
	}
	req := &embproto.CompileRequest{
		CompilationID:           s.id,
		Source:                  opts.Source,
		Syntax:                  opts.Syntax,
		URL:                     opts.URL,
		Path:                    opts.Path,
		Style:                   opts.Style,
		SourceMap:               opts.SourceMap,
		SourceMapIncludeSources: opts.SourceMapIncludeSources,
		Charset:                 opts.Charset,
		QuietDeps:               opts.QuietDeps,
		Verbose:                 opts.Verbose,
		AlertAscii:              opts.AlertAscii,
		AlertColor:              opts.AlertColor,
		LoadPaths:               opts.LoadPaths,
		Importers:               importerEntries,
		FunctionSignatures:      sigs,
	}
	if entrypointID != 0 {
		id := entrypointID
		req.EntrypointImporterID = &id
	}
	return req
}

// handle is invoked by the dispatcher for every event on the shared
// channel; events for other compilations are ignored here.
func (s *Session) handle(ev Event) {
	if ev.Err != nil {
		s.resolve(nil, errs.NewAbortedError("transport", ev.Err))
		return
	}
	m := ev.Msg
	if m.Kind == embproto.OutboundError {
		if m.Error.ID == embproto.ProtocolErrorID || m.Error.ID == 0 {
			s.resolve(nil, errs.NewProtocolError(m.Error.Message))
			return
		}
	}
	if compID, ok := compilationIDOf(m); ok && compID != s.id {
		return // another session's traffic
	}

	switch m.Kind {
	case embproto.OutboundCompileResponse:
		s.onCompileResponse(m.CompileResponse)
	case embproto.OutboundLogEvent:
		s.onLogEvent(m.LogEvent)
	case embproto.OutboundFunctionCallRequest:
		s.pending.Store(m.FunctionCallRequest.ID, struct{}{})
		s.spawn(func() { s.onFunctionCall(m.FunctionCallRequest) })
	case embproto.OutboundCanonicalizeRequest:
		s.pending.Store(m.CanonicalizeRequest.ID, struct{}{})
		s.spawn(func() { s.onCanonicalize(m.CanonicalizeRequest) })
	case embproto.OutboundImportRequest:
		s.pending.Store(m.ImportRequest.ID, struct{}{})
		s.spawn(func() { s.onImport(m.ImportRequest) })
	case embproto.OutboundFileImportRequest:
		s.pending.Store(m.FileImportRequest.ID, struct{}{})
		s.spawn(func() { s.onFileImport(m.FileImportRequest) })
	}
}

func compilationIDOf(m *embproto.OutboundMessage) (uint32, bool) {
	switch m.Kind {
	case embproto.OutboundCompileResponse:
		return m.CompileResponse.CompilationID, true
	case embproto.OutboundLogEvent:
		return m.LogEvent.CompilationID, true
	case embproto.OutboundCanonicalizeRequest:
		return m.CanonicalizeRequest.CompilationID, true
	case embproto.OutboundImportRequest:
		return m.ImportRequest.CompilationID, true
	case embproto.OutboundFileImportRequest:
		return m.FileImportRequest.CompilationID, true
	case embproto.OutboundFunctionCallRequest:
		return m.FunctionCallRequest.CompilationID, true
	default:
		return 0, false
	}
}

// spawn runs fn on a fresh worker bounded by the session's semaphore, so a
// burst of callback requests never blocks the dispatcher's notify loop.
func (s *Session) spawn(fn func()) {
	go func() {
		if err := s.workers.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer s.workers.Release(1)
		fn()
	}()
}

func (s *Session) onCompileResponse(r *embproto.CompileResponse) {
	if r.Succeeded {
		s.resolve(&Result{CSS: r.CSS, SourceMap: r.SourceMap, LoadedURLs: r.LoadedURLs}, nil)
		return
	}
	var span *errs.SourceSpan
	if r.FailureSpan != nil {
		span = &errs.SourceSpan{
			URL: r.FailureSpan.URL, StartLine: r.FailureSpan.StartLine, StartColumn: r.FailureSpan.StartColumn,
			EndLine: r.FailureSpan.EndLine, EndColumn: r.FailureSpan.EndColumn, Context: r.FailureSpan.Context,
		}
	}
	s.resolve(nil, &errs.CompileError{Message: r.FailureMessage, Span: span, StackTrace: r.StackTrace})
}

func (s *Session) onLogEvent(ev *embproto.LogEvent) {
	if s.logger == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			nlog.Warningf("session %s: logger panicked: %v", s.tie, r)
		}
	}()
	opts := LogOptions{StackTrace: ev.StackTrace}
	if ev.Span != nil {
		opts.Span = &SourceSpan{
			URL: ev.Span.URL, StartLine: ev.Span.StartLine, StartColumn: ev.Span.StartColumn,
			EndLine: ev.Span.EndLine, EndColumn: ev.Span.EndColumn, Context: ev.Span.Context,
		}
	}
	switch ev.Type {
	case "debug":
		s.logger.Debug(ev.Message, opts)
	default:
		s.logger.Warn(ev.Message, opts)
	}
}

func (s *Session) onFunctionCall(req *embproto.FunctionCallRequest) {
	resp := &embproto.FunctionCallResponse{CompilationID: s.id, ID: req.ID}

	var fn Function
	var ok bool
	if req.FunctionID != nil {
		// compiler-builtin functions are echoed back, never dispatched to
		// the host; if one somehow reaches us as a call by id, that's a
		// host error since this driver never registers by id.
		resp.Error = "unknown compiler function id"
	} else if fn, ok = s.functions.lookup(req.Name); !ok {
		resp.Error = "unknown function: " + req.Name
	} else {
		result, err := fn(req.Arguments)
		if err != nil {
			resp.Error = err.Error()
		} else if result == nil {
			resp.Error = "function must return a value"
		} else {
			resp.Success = result
		}
	}

	s.sendInboundResponse(req.ID, &embproto.InboundMessage{Kind: embproto.InboundFunctionCallResponse, FunctionCallResponse: resp})
}

func (s *Session) onCanonicalize(req *embproto.CanonicalizeRequest) {
	resp := &embproto.CanonicalizeResponse{CompilationID: s.id, ID: req.ID}
	url, found, err := s.importers.canonicalize(req.ImporterID, req.URL, req.FromImport)
	switch {
	case err != nil:
		resp.Error = err.Error()
	case found:
		resp.URL = url
	}
	s.sendInboundResponse(req.ID, &embproto.InboundMessage{Kind: embproto.InboundCanonicalizeResponse, CanonicalizeResponse: resp})
}

func (s *Session) onImport(req *embproto.ImportRequest) {
	resp := &embproto.ImportResponse{CompilationID: s.id, ID: req.ID}
	result, err := s.importers.load(req.ImporterID, req.URL)
	switch {
	case err != nil:
		resp.Error = err.Error()
	case result == nil:
		resp.Found = false
	default:
		resp.Found = true
		resp.Contents = result.Contents
		resp.Syntax = result.Syntax
		resp.SourceMapURL = result.SourceMapURL
	}
	s.sendInboundResponse(req.ID, &embproto.InboundMessage{Kind: embproto.InboundImportResponse, ImportResponse: resp})
}

func (s *Session) onFileImport(req *embproto.FileImportRequest) {
	resp := &embproto.FileImportResponse{CompilationID: s.id, ID: req.ID}
	fileURL, err := s.importers.findFileURL(req.ImporterID, req.URL, req.FromImport)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.FileURL = fileURL
	}
	s.sendInboundResponse(req.ID, &embproto.InboundMessage{Kind: embproto.InboundFileImportResponse, FileImportResponse: resp})
}

// sendInboundResponse sends a callback response and clears its request id
// from the pending table: a request id is pending exactly while the
// compiler awaits its response.
func (s *Session) sendInboundResponse(reqID uint32, m *embproto.InboundMessage) {
	defer s.pending.Delete(reqID)
	if err := s.ch.Send(s.codec.EncodeInbound(m)); err != nil {
		nlog.Warningf("session %s: send failed after callback response: %v", s.tie, err)
	}
}

// resolve sets the terminal state exactly once; subsequent calls are no-ops,
// satisfying the "terminal singleness" property even under concurrent
// callback workers racing a channel-level abort.
func (s *Session) resolve(result *Result, err error) {
	if !s.doneSet.CompareAndSwap(false, true) {
		return
	}
	s.errMu.Lock()
	s.result, s.err = result, err
	s.errMu.Unlock()
	close(s.done)
}
