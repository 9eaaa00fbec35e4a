package sse

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Classify", func() {
	ginkgo.It("yields content for a well-formed delta line", func() {
		ev := Classify([]byte(`data: {"choices":[{"delta":{"content":"Hi"},"finish_reason":null}]}`))
		Expect(ev.Kind).To(Equal(Content))
		Expect(ev.Text).To(Equal("Hi"))
	})

	ginkgo.It("recognizes the [DONE] sentinel", func() {
		ev := Classify([]byte("data: [DONE]"))
		Expect(ev.Kind).To(Equal(Done))
	})

	ginkgo.It("trims surrounding whitespace before matching the sentinel", func() {
		ev := Classify([]byte("data:  [DONE] \r"))
		Expect(ev.Kind).To(Equal(Done))
	})

	ginkgo.It("skips blank lines", func() {
		Expect(Classify([]byte("")).Kind).To(Equal(Skip))
	})

	ginkgo.It("skips other SSE fields", func() {
		Expect(Classify([]byte("event: completion")).Kind).To(Equal(Skip))
		Expect(Classify([]byte("id: 42")).Kind).To(Equal(Skip))
		Expect(Classify([]byte(": keep-alive")).Kind).To(Equal(Skip))
	})

	ginkgo.It("requires the exact single-space prefix", func() {
		Expect(Classify([]byte(`data:{"choices":[{"delta":{"content":"x"}}]}`)).Kind).To(Equal(Skip))
	})

	ginkgo.It("skips invalid UTF-8 instead of failing", func() {
		Expect(Classify([]byte{'d', 'a', 't', 'a', ':', ' ', 0xff, 0xfe}).Kind).To(Equal(Skip))
	})

	ginkgo.It("skips malformed JSON payloads", func() {
		Expect(Classify([]byte("data: {not json")).Kind).To(Equal(Skip))
	})

	ginkgo.It("skips chunks with empty choices", func() {
		Expect(Classify([]byte(`data: {"choices":[]}`)).Kind).To(Equal(Skip))
	})

	ginkgo.It("skips role-only deltas with no content", func() {
		Expect(Classify([]byte(`data: {"choices":[{"delta":{"role":"assistant"}}]}`)).Kind).To(Equal(Skip))
	})

	ginkgo.It("filters empty-string content deltas", func() {
		Expect(Classify([]byte(`data: {"choices":[{"delta":{"content":""}}]}`)).Kind).To(Equal(Skip))
	})

	ginkgo.It("ignores finish_reason on content-bearing chunks", func() {
		ev := Classify([]byte(`data: {"choices":[{"delta":{"content":"end"},"finish_reason":"stop"}]}`))
		Expect(ev.Kind).To(Equal(Content))
		Expect(ev.Text).To(Equal("end"))
	})
})
