package statecmder_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	statecmder "github.com/papercomputeco/sequencer/cmd/sequencer/state"
	"github.com/papercomputeco/sequencer/pkg/sequencertest"
)

var _ = Describe("State Command", func() {
	var (
		ctx    context.Context
		server *sequencertest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		server, err = sequencertest.Start(sequencertest.KV)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(server.Close)

		Expect(server.Apply(ctx,
			sequencertest.Set("players/alice/x_pos", "10"),
			sequencertest.Set("players/bob", "7"),
			sequencertest.Set("config", "\x00\x01"),
		)).To(Succeed())
	})

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := statecmder.NewStateCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(append(args, "--url", server.URL))
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	Describe("get", func() {
		It("prints the value as hex", func() {
			out, err := execute("get", "/players/bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("37\n"))
		})

		It("prints the raw value with --text", func() {
			out, err := execute("get", "--text", "/players/alice/x_pos")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("10"))
		})

		It("fails for a path without a value", func() {
			_, err := execute("get", "/players")
			Expect(err).To(MatchError("no value at /players"))
		})

		It("fails for an invalid path", func() {
			_, err := execute("get", "players")
			Expect(err).To(MatchError(ContainSubstring("invalid path")))
		})
	})

	Describe("subkeys", func() {
		It("lists children in insertion order", func() {
			out, err := execute("subkeys", "/players")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("alice\nbob\n"))
		})

		It("defaults to the root", func() {
			out, err := execute("subkeys")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("players\nconfig\n"))
		})

		It("prints nothing for a leaf", func() {
			out, err := execute("subkeys", "/players/bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
		})
	})

	Describe("hash", func() {
		It("prints the hash the node reports", func() {
			want, err := server.Node.StateHash(ctx, "/players")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("hash", "/players")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(want + "\n"))
		})

		It("changes when the state changes", func() {
			before, err := execute("hash")
			Expect(err).NotTo(HaveOccurred())

			Expect(server.Apply(ctx, sequencertest.Set("players/carol", "1"))).To(Succeed())

			after, err := execute("hash")
			Expect(err).NotTo(HaveOccurred())
			Expect(after).NotTo(Equal(before))
		})
	})

	Describe("tree", func() {
		It("prints the subtree with values", func() {
			out, err := execute("tree", "/players")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(
				"/players\n" +
					"  alice\n" +
					"    x_pos = 3130 \"10\"\n" +
					"  bob = 37 \"7\"\n"))
		})

		It("honours --depth", func() {
			out, err := execute("tree", "--depth", "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("/\n  players\n  config = 0001\n"))
		})

		It("writes a markdown report", func() {
			out, err := execute("tree", "--report", "--markdown", "/players")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("# State report for `/players`\n"))
			Expect(out).To(ContainSubstring("Kernel `kv` at level 0 with 3 operation(s) applied"))
			Expect(out).To(ContainSubstring("- `/players` (2 subkeys)\n"))
			Expect(out).To(ContainSubstring("    - `/players/alice/x_pos` = `3130 \"10\"`\n"))
			Expect(out).To(ContainSubstring("4 path(s), 2 value(s)."))
		})

		It("renders the report for non terminals", func() {
			out, err := execute("tree", "--report", "/players")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("State report for"))
			Expect(out).To(ContainSubstring("/players/alice/x_pos"))
		})

		It("rejects invalid roots", func() {
			_, err := execute("tree", "players/")
			Expect(err).To(HaveOccurred())
		})
	})
})
