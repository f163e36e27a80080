// Package errs defines the error taxonomy at the host/compiler boundary:
// CompileError (the compiler rejected the stylesheet), HostError (a host
// precondition failed before or during dispatch), ProtocolError (the wire
// contract was violated), and the TransportClosed sentinel.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package errs

import (
	"errors"
	"fmt"
	"sync"

	pkgerrors "github.com/pkg/errors"
)

type (
	// CompileError is what a failed compile raises: the compiler's own
	// account of why the stylesheet could not be produced.
	CompileError struct {
		Message    string
		Span       *SourceSpan
		StackTrace string
	}

	// SourceSpan locates a CompileError (and may be nil: a message without
	// a location, e.g. a callback exception without the compiler's span
	// bookkeeping).
	SourceSpan struct {
		URL                    string
		StartLine, StartColumn int
		EndLine, EndColumn     int
		Context                string
	}

	// HostError is a host-side precondition failure: one that is detected
	// and raised without ever reaching the subprocess (ambiguous importer
	// registration, a malformed callback return value discovered while
	// encoding the response).
	HostError struct {
		Message string
		cause   error
	}

	// ProtocolError marks a violation of the wire contract: a malformed
	// frame, an unparseable envelope, an unsolicited response, or a
	// protocol-level error message from the compiler itself (reserved
	// compilation id). Every live session on the channel fails with it; it
	// does not close the channel.
	ProtocolError struct {
		Message string
		cause   error
	}

	// Errs accumulates independent errors encountered while a single
	// operation (e.g. Close aborting N live sessions) fans out; at most
	// maxErrs are retained, duplicates (by message) are folded.
	Errs struct {
		mu   sync.Mutex
		errs []error
	}

	// AbortedError marks a session torn down from outside its own compile
	// request: the subprocess died, the channel was closed, or a protocol
	// error fired against another compilation on the same channel.
	AbortedError struct {
		Reason string
		cause  error
	}
)

func NewAbortedError(reason string, cause error) *AbortedError {
	return &AbortedError{Reason: reason, cause: cause}
}

func (e *AbortedError) Error() string {
	if e.cause == nil {
		return "aborted: " + e.Reason
	}
	return "aborted: " + e.Reason + ": " + e.cause.Error()
}

func (e *AbortedError) Unwrap() error { return e.cause }

// ErrTransportClosed is returned by any operation attempted on (or that
// observes) a closed subprocess channel.
var ErrTransportClosed = errors.New("embedded host: transport closed")

func (e *CompileError) Error() string {
	if e.Span == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (%s:%d:%d)", e.Message, e.Span.URL, e.Span.StartLine+1, e.Span.StartColumn+1)
}

func NewHostError(format string, args ...any) *HostError {
	return &HostError{Message: fmt.Sprintf(format, args...)}
}

func WrapHostError(cause error, format string, args ...any) *HostError {
	return &HostError{Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *HostError) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *HostError) Unwrap() error { return e.cause }

func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Message: fmt.Sprintf(format, args...)}
}

func WrapProtocolError(cause error, format string, args ...any) *ProtocolError {
	return &ProtocolError{Message: fmt.Sprintf(format, args...), cause: pkgerrors.WithStack(cause)}
}

func (e *ProtocolError) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *ProtocolError) Unwrap() error { return e.cause }

const maxErrs = 8

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
	}
}

func (e *Errs) Cnt() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

// JoinErr folds the accumulated errors into a single error via errors.Join,
// or returns nil if nothing was ever added.
func (e *Errs) JoinErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return errors.Join(e.errs...)
}
