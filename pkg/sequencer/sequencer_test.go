package sequencer_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sequencer/pkg/inbox"
	"github.com/papercomputeco/sequencer/pkg/sequencer"
)

var _ = Describe("Sequencer", func() {
	var s *sequencer.Sequencer

	BeforeEach(func() {
		s = sequencer.New()
	})

	It("numbers operations from the first external index", func() {
		first := s.OnOperation([]byte{0x88})
		second := s.OnOperation([]byte{0x89})

		Expect(first.Index).To(Equal(inbox.FirstExternalIndex))
		Expect(second.Index).To(Equal(inbox.FirstExternalIndex + 1))
		Expect(first.Level).To(Equal(uint32(0)))
	})

	It("frames operations as external messages", func() {
		msg := s.OnOperation([]byte{0x88, 0x01})
		Expect(msg.Payload).To(Equal([]byte{0x01, 0x88, 0x01}))
	})

	It("assigns strictly increasing indices", func() {
		var last uint32
		for i := 0; i < 100; i++ {
			msg := s.OnOperation([]byte{byte(i)})
			if i > 0 {
				Expect(msg.Index).To(BeNumerically(">", last))
			}
			last = msg.Index
		}
		Expect(s.Pending()).To(Equal(100))
	})

	It("drains the batch in order on a header", func() {
		s.OnOperation([]byte("a"))
		s.OnOperation([]byte("b"))

		batch := s.OnHeader(inbox.ChainHeader{Hash: "BLh", Level: 12, Predecessor: "BLp"})
		Expect(batch).To(Equal([][]byte{[]byte("a"), []byte("b")}))
		Expect(s.Pending()).To(Equal(0))
		Expect(s.Level()).To(Equal(uint32(12)))
	})

	It("resets indices and addresses the new level after a header", func() {
		s.OnOperation([]byte("a"))
		s.OnOperation([]byte("b"))
		s.OnHeader(inbox.ChainHeader{Level: 3})

		msg := s.OnOperation([]byte("c"))
		Expect(msg.Level).To(Equal(uint32(3)))
		Expect(msg.Index).To(Equal(inbox.FirstExternalIndex))
	})

	It("returns an empty batch for a level without operations", func() {
		Expect(s.OnHeader(inbox.ChainHeader{Level: 1})).To(BeEmpty())
	})

	It("does not alias the caller's buffer", func() {
		op := []byte{0x88}
		s.OnOperation(op)
		op[0] = 0x00
		Expect(s.OnHeader(inbox.ChainHeader{Level: 1})).To(Equal([][]byte{{0x88}}))
	})
})
