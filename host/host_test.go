package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/sass-contrib/embedded-host-go/host"
	"github.com/sass-contrib/embedded-host-go/hoststats"
	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/session"
)

// catPath stands in for a compiler subprocess well enough to exercise
// launch and shutdown; it cannot answer the version handshake meaningfully,
// which is why the handshake is best-effort rather than fatal.
const catPath = "/bin/cat"

func newTestHost(t *testing.T) *host.Host {
	t.Helper()
	h, err := newHost()
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}
	return h
}

// newHost is the shared constructor behind newTestHost (plain testing.T)
// and the Ginkgo specs, which can't share a *testing.T-typed helper since
// GinkgoT() doesn't implement testing.TB.
func newHost() (*host.Host, error) {
	return host.New(context.Background(), host.Config{
		ExecPath:         catPath,
		LaunchTimeout:    20 * time.Millisecond,
		CloseGracePeriod: 100 * time.Millisecond,
	}, hoststats.NewCollector(nil))
}

func TestNewAndClose(t *testing.T) {
	h := newTestHost(t)
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got: %v", err)
	}
}

func TestCompileAfterCloseFails(t *testing.T) {
	h := newTestHost(t)
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err := h.Compile(context.Background(), session.Options{Source: "a{}"})
	if err != errs.ErrTransportClosed {
		t.Fatalf("expected ErrTransportClosed, got %v", err)
	}
}
