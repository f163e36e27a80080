package proc_test

import (
	"context"
	"testing"
	"time"

	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/proc"
)

// catPath echoes stdin back to stdout, standing in for a compiler
// subprocess well enough to exercise framing and shutdown.
const catPath = "/bin/cat"

func TestSendRecvRoundTrip(t *testing.T) {
	ch, err := proc.Start(context.Background(), catPath, nil)
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}
	defer ch.Close(time.Second)

	payload := []byte("hello compiler")
	if err := ch.Send(payload); err != nil {
		t.Fatal(err)
	}
	got, err := ch.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestCloseIsIdempotentAndUnblocksRecv(t *testing.T) {
	ch, err := proc.Start(context.Background(), catPath, nil)
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}
	if err := ch.Close(100 * time.Millisecond); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ch.Closed() {
		t.Fatal("expected Closed() true after Close")
	}
	if err := ch.Close(100 * time.Millisecond); err != nil {
		t.Fatalf("second close should be a no-op, got: %v", err)
	}
	if _, err := ch.Recv(); err == nil {
		t.Fatal("expected Recv to fail after close")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	ch, err := proc.Start(context.Background(), catPath, nil)
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}
	ch.Close(100 * time.Millisecond)
	if err := ch.Send([]byte("x")); err != errs.ErrTransportClosed {
		t.Fatalf("expected ErrTransportClosed, got %v", err)
	}
}
