package session

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/sass-contrib/embedded-host-go/dispatch"
	"github.com/sass-contrib/embedded-host-go/embproto"
)

var _ = Describe("importerTable", func() {
	It("canonicalizes a URL at most once per importer", func() {
		tbl := newImporterTable()
		calls := 0
		imp := fakeImporter{canon: func(url string, fromImport bool) (string, error) {
			calls++
			return "u:blue", nil
		}}
		Expect(tbl.register(1, imp, nil)).To(Succeed())

		for i := 0; i < 5; i++ {
			url, found, err := tbl.canonicalize(1, "orange", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(url).To(Equal("u:blue"))
		}
		Expect(calls).To(Equal(1))
	})

	It("collapses concurrent canonicalize calls for a cold cache entry", func() {
		tbl := newImporterTable()
		var calls int32
		release := make(chan struct{})
		imp := fakeImporter{canon: func(url string, fromImport bool) (string, error) {
			calls++
			<-release // hold the first caller here so the others arrive while it is in flight
			return "u:green", nil
		}}
		Expect(tbl.register(1, imp, nil)).To(Succeed())

		var wg sync.WaitGroup
		results := make([]string, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				url, _, err := tbl.canonicalize(1, "violet", false)
				Expect(err).NotTo(HaveOccurred())
				results[i] = url
			}(i)
		}
		time.Sleep(20 * time.Millisecond) // let every goroutine reach canonicalize while the first call is held
		close(release)
		wg.Wait()

		Expect(calls).To(Equal(int32(1)))
		for _, r := range results {
			Expect(r).To(Equal("u:green"))
		}
	})

	It("rejects an importer registered as both roles", func() {
		tbl := newImporterTable()
		err := tbl.register(1,
			fakeImporter{canon: func(string, bool) (string, error) { return "", nil }},
			fakeFileImporter{find: func(string, bool) (string, error) { return "", nil }},
		)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Session", func() {
	It("resolves successfully on a matching CompileResponse", func() {
		ch := &fakeChannel{}
		codec := newTestCodec()
		d := dispatch.New[Event]()
		ids := NewCompilationIDGenerator()

		go func() {
			deadline := time.After(time.Second)
			for {
				select {
				case <-deadline:
					return
				default:
				}
				if b := ch.lastSent(); b != nil {
					if in, err := parseSentInbound(b); err == nil && in != nil {
						d.Notify(Event{Msg: &embproto.OutboundMessage{
							Kind: embproto.OutboundCompileResponse,
							CompileResponse: &embproto.CompileResponse{
								CompilationID: in.CompilationID,
								Succeeded:     true,
								CSS:           "ginkgo{ok:1}",
							},
						}})
						return
					}
				}
				time.Sleep(time.Millisecond)
			}
		}()

		res, err := Run(context.Background(), ch, codec, d, ids, 4, Options{Source: ".a{b:c}", Syntax: "scss"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.CSS).To(Equal("ginkgo{ok:1}"))
	})

	It("aborts immediately on an already-canceled context", func() {
		ch := &fakeChannel{}
		codec := newTestCodec()
		d := dispatch.New[Event]()
		ids := NewCompilationIDGenerator()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Run(ctx, ch, codec, d, ids, 4, Options{Source: "a{}"})
		Expect(err).To(HaveOccurred())
	})
})
