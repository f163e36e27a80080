package proc_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/sass-contrib/embedded-host-go/internal/errs"
	"github.com/sass-contrib/embedded-host-go/proc"
)

var _ = Describe("Channel", func() {
	var skip bool

	BeforeEach(func() {
		if _, err := proc.Start(context.Background(), catPath, nil); err != nil {
			skip = true
			Skip("cat not available: " + err.Error())
		}
	})

	It("frames a round trip through the subprocess", func() {
		if skip {
			return
		}
		ch, err := proc.Start(context.Background(), catPath, nil)
		Expect(err).NotTo(HaveOccurred())
		defer ch.Close(time.Second)

		Expect(ch.Send([]byte("scss payload"))).To(Succeed())
		got, err := ch.Recv()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("scss payload"))
	})

	It("rejects sends after close", func() {
		if skip {
			return
		}
		ch, err := proc.Start(context.Background(), catPath, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ch.Close(100 * time.Millisecond)).To(Succeed())
		Expect(ch.Send([]byte("x"))).To(MatchError(errs.ErrTransportClosed))
	})
})
