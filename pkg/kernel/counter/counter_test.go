package counter_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sequencer/pkg/host"
	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/kernel/counter"
	"github.com/papercomputeco/sequencer/pkg/pathtree"
	"github.com/papercomputeco/sequencer/pkg/storage/inmemory"
)

var _ = Describe("Counter kernel", func() {
	var h *host.NativeHost

	BeforeEach(func() {
		h = host.New(pathtree.New(inmemory.NewDriver()))
	})

	It("starts at zero", func() {
		Expect(counter.Read(h)).To(Equal(uint64(0)))
	})

	It("increments once per 0x88 external message", func() {
		h.AddInput(inbox.External([]byte{0x88, 0x01, 0x01, 0x01, 0x01}))
		h.AddInput(inbox.External([]byte{0x88}))
		Expect(counter.Kernel{}.Entry(h)).To(Succeed())

		Expect(counter.Read(h)).To(Equal(uint64(2)))
		value, err := h.StoreRead(counter.Path, 0, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal([]byte{0, 0, 0, 0, 0, 0, 0, 2}))
	})

	It("ignores other messages", func() {
		h.AddInput(inbox.External([]byte{0x01, 0x88}))
		h.AddInput(inbox.External(nil))
		h.AddInput(inbox.StartOfLevel())
		h.AddInput([]byte{0x00, 0x88})
		h.AddInput([]byte{})
		Expect(counter.Kernel{}.Entry(h)).To(Succeed())

		Expect(counter.Read(h)).To(Equal(uint64(0)))
	})

	It("keeps counting across rounds", func() {
		for i := 0; i < 3; i++ {
			h.AddInput(inbox.External([]byte{0x88}))
			Expect(counter.Kernel{}.Entry(h)).To(Succeed())
		}
		Expect(counter.Read(h)).To(Equal(uint64(3)))
	})

	It("fails on a corrupted counter", func() {
		Expect(h.StoreWrite(counter.Path, []byte{1, 2, 3}, 0)).To(Succeed())
		h.AddInput(inbox.External([]byte{0x88}))
		Expect(counter.Kernel{}.Entry(h)).To(MatchError(ContainSubstring("3 bytes")))
	})

	It("stops with the host error when the round is exhausted", func() {
		h.AddInput(inbox.External([]byte{0x88}))
		h.AddInput(inbox.External([]byte{0x88}))
		h.BeginRound(context.Background(), host.Budget{Ticks: 3})
		defer h.EndRound()

		Expect(counter.Kernel{}.Entry(h)).To(MatchError(host.ErrRoundBudgetExhausted))
	})
})
