package submitcmder_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	submitcmder "github.com/papercomputeco/sequencer/cmd/sequencer/submit"
	"github.com/papercomputeco/sequencer/pkg/kernel/counter"
	"github.com/papercomputeco/sequencer/pkg/sequencertest"
)

var _ = Describe("Submit Command", func() {
	var (
		ctx    context.Context
		server *sequencertest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		server, err = sequencertest.Start(counter.Kernel{})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(server.Close)
	})

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := submitcmder.NewSubmitCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("submits every operation in order", func() {
		out, err := execute("--url", server.URL, "88", "0x8801")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("submitted 88\n"))
		Expect(out).To(ContainSubstring("submitted 8801\n"))
		Expect(out).To(ContainSubstring("Submitted 2 operation(s)"))

		value, ok, err := server.Node.GetState(ctx, counter.Path)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal([]byte{0, 0, 0, 0, 0, 0, 0, 2}))
		Expect(server.Node.Status().Operations).To(Equal(uint64(2)))
	})

	It("sends nothing when an operation is not hex", func() {
		_, err := execute("--url", server.URL, "88", "zz")
		Expect(err).To(MatchError(ContainSubstring(`operation 2 ("zz") is not valid hex`)))
		Expect(server.Node.Status().Operations).To(BeZero())
	})

	It("requires at least one operation", func() {
		_, err := execute("--url", server.URL)
		Expect(err).To(HaveOccurred())
	})

	It("fails when the sequencer is unreachable", func() {
		_, err := execute("--url", "http://127.0.0.1:1", "88")
		Expect(err).To(MatchError(ContainSubstring("operation 1 was not accepted")))
	})
})
