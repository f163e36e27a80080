package host_test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/sass-contrib/embedded-host-go/host"
	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/session"
)

var _ = Describe("Host lifecycle", func() {
	newSkippableHost := func() *host.Host {
		got, err := newHost()
		if err != nil {
			Skip("cat not available: " + err.Error())
		}
		return got
	}

	It("is idempotent to close twice", func() {
		h := newSkippableHost()
		Expect(h.Close()).To(Succeed())
		Expect(h.Close()).To(Succeed())
	})

	It("rejects Compile once closed", func() {
		h := newSkippableHost()
		Expect(h.Close()).To(Succeed())
		_, err := h.Compile(context.Background(), session.Options{Source: "a{}"})
		Expect(err).To(MatchError(errs.ErrTransportClosed))
	})
})
