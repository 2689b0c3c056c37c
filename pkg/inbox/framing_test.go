package inbox_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sequencer/pkg/inbox"
)

var _ = Describe("Framing", func() {
	It("prefixes external operations with the external tag", func() {
		Expect(inbox.External([]byte{0x88, 0x01})).To(Equal([]byte{0x01, 0x88, 0x01}))

		kind, body, err := inbox.Parse([]byte{0x01, 0x88, 0x01})
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(inbox.KindExternal))
		Expect(body).To(Equal([]byte{0x88, 0x01}))
	})

	It("accepts an empty external operation", func() {
		kind, body, err := inbox.Parse(inbox.External(nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(kind).To(Equal(inbox.KindExternal))
		Expect(body).To(BeEmpty())
	})

	DescribeTable("parses internal markers",
		func(payload []byte, kind inbox.Kind) {
			got, _, err := inbox.Parse(payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(kind))
		},
		Entry("start of level", inbox.StartOfLevel(), inbox.KindStartOfLevel),
		Entry("end of level", inbox.EndOfLevel(), inbox.KindEndOfLevel),
		Entry("info per level", inbox.InfoPerLevel("BLpred"), inbox.KindInfoPerLevel),
		Entry("transfer", []byte{0x00, 0x00, 0xaa}, inbox.KindTransfer),
	)

	It("keeps the predecessor in the info per level body", func() {
		_, body, err := inbox.Parse(inbox.InfoPerLevel("BLpred"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(Equal("BLpred"))
	})

	DescribeTable("rejects malformed payloads",
		func(payload []byte) {
			_, _, err := inbox.Parse(payload)
			Expect(err).To(MatchError(inbox.ErrMalformedPayload))
		},
		Entry("empty", []byte{}),
		Entry("lone internal tag", []byte{0x00}),
		Entry("unknown internal tag", []byte{0x00, 0x09}),
		Entry("unknown tag", []byte{0x07, 0x01}),
	)

	It("copies the payload of new messages", func() {
		payload := []byte{1, 2, 3}
		msg := inbox.NewMessage(4, 2, payload)
		payload[0] = 9
		Expect(msg.Payload).To(Equal([]byte{1, 2, 3}))
		Expect(msg.String()).To(Equal("message(level=4, index=2, 3 bytes)"))
	})
})
