package listener_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/listener"
)

type sink struct {
	mu      sync.Mutex
	headers []inbox.ChainHeader
	err     error
}

func (s *sink) OnHeader(_ context.Context, h inbox.ChainHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.headers = append(s.headers, h)
	return nil
}

func (s *sink) received() []inbox.ChainHeader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inbox.ChainHeader{}, s.headers...)
}

const feed = `{"hash":"BLa","level":1,"predecessor":"BL0","timestamp":"2023-01-01T00:00:00Z"}
this is not json
{"level":2}

{"hash":"BLb","level":2,"predecessor":"BLa"}
`

var _ = Describe("Listener", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("HTTPSource", func() {
		It("forwards every well formed head from the monitor stream", func() {
			var path string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				flusher := w.(http.Flusher)
				for _, line := range strings.SplitAfter(feed, "\n") {
					_, _ = w.Write([]byte(line))
					flusher.Flush()
				}
			}))
			defer server.Close()

			s := &sink{}
			l := listener.New(listener.NewHTTPSource(server.URL), s, zap.NewNop())
			Expect(l.Run(ctx)).To(Succeed())

			Expect(path).To(Equal("/monitor/heads/main"))
			Expect(s.received()).To(Equal([]inbox.ChainHeader{
				{Hash: "BLa", Level: 1, Predecessor: "BL0"},
				{Hash: "BLb", Level: 2, Predecessor: "BLa"},
			}))
		})

		It("fails when the monitor is unavailable", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			s := &sink{}
			err := listener.New(listener.NewHTTPSource(server.URL), s, zap.NewNop()).Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("status 404")))
			Expect(s.received()).To(BeEmpty())
		})

		It("stops when the context is cancelled", func() {
			release := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"hash":"BLa","level":1,"predecessor":"BL0"}` + "\n"))
				w.(http.Flusher).Flush()
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer server.Close()
			defer close(release)

			s := &sink{}
			runCtx, cancel := context.WithCancel(ctx)
			errc := make(chan error, 1)
			go func() {
				errc <- listener.New(listener.NewHTTPSource(server.URL), s, zap.NewNop()).Run(runCtx)
			}()

			Eventually(s.received).Should(HaveLen(1))
			cancel()
			Eventually(errc).Should(Receive(BeNil()))
		})
	})

	Describe("FileSource", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("reads a finished feed", func() {
			path := filepath.Join(dir, "heads.ndjson")
			Expect(os.WriteFile(path, []byte(feed), 0o644)).To(Succeed())

			s := &sink{}
			l := listener.New(&listener.FileSource{Path: path}, s, zap.NewNop())
			Expect(l.Run(ctx)).To(Succeed())
			Expect(s.received()).To(HaveLen(2))
		})

		It("fails for a missing file", func() {
			l := listener.New(&listener.FileSource{Path: filepath.Join(dir, "missing")}, &sink{}, zap.NewNop())
			Expect(l.Run(ctx)).To(HaveOccurred())
		})

		It("follows appended heads", func() {
			path := filepath.Join(dir, "heads.ndjson")
			Expect(os.WriteFile(path, nil, 0o644)).To(Succeed())

			s := &sink{}
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			errc := make(chan error, 1)
			go func() {
				errc <- listener.New(&listener.FileSource{Path: path, Follow: true}, s, zap.NewNop()).Run(runCtx)
			}()

			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			for level := 1; level <= 3; level++ {
				_, err := fmt.Fprintf(f, `{"hash":"BL%d","level":%d,"predecessor":"BL%d"}`+"\n", level, level, level-1)
				Expect(err).NotTo(HaveOccurred())
				time.Sleep(10 * time.Millisecond)
			}

			Eventually(s.received, 5*time.Second).Should(HaveLen(3))
			Expect(s.received()[2].Hash).To(Equal("BL3"))

			cancel()
			Eventually(errc, 5*time.Second).Should(Receive(BeNil()))
		})
	})

	It("stops when the sink refuses headers", func() {
		errStopped := errors.New("stopped")
		path := filepath.Join(GinkgoT().TempDir(), "heads.ndjson")
		Expect(os.WriteFile(path, []byte(feed), 0o644)).To(Succeed())

		err := listener.New(&listener.FileSource{Path: path}, &sink{err: errStopped}, zap.NewNop()).Run(ctx)
		Expect(err).To(MatchError(errStopped))
	})
})
