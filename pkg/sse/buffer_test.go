package sse

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("frameBuffer", func() {
	var buf frameBuffer

	ginkgo.BeforeEach(func() {
		buf = frameBuffer{}
	})

	ginkgo.It("extracts a single complete line", func() {
		buf.append([]byte("hello\n"))

		lines := buf.extractLines()
		Expect(lines).To(HaveLen(1))
		Expect(string(lines[0])).To(Equal("hello"))
		Expect(buf.len()).To(BeZero())
	})

	ginkgo.It("extracts multiple lines from one append", func() {
		buf.append([]byte("one\ntwo\nthree\n"))

		lines := buf.extractLines()
		Expect(lines).To(HaveLen(3))
		Expect(string(lines[0])).To(Equal("one"))
		Expect(string(lines[1])).To(Equal("two"))
		Expect(string(lines[2])).To(Equal("three"))
	})

	ginkgo.It("retains a trailing partial line across appends", func() {
		buf.append([]byte("comp"))
		Expect(buf.extractLines()).To(BeEmpty())
		Expect(buf.len()).To(Equal(4))

		buf.append([]byte("lete\nrest"))
		lines := buf.extractLines()
		Expect(lines).To(HaveLen(1))
		Expect(string(lines[0])).To(Equal("complete"))
		Expect(buf.len()).To(Equal(4))

		buf.append([]byte("\n"))
		lines = buf.extractLines()
		Expect(lines).To(HaveLen(1))
		Expect(string(lines[0])).To(Equal("rest"))
		Expect(buf.len()).To(BeZero())
	})

	ginkgo.It("returns empty lines for consecutive newlines", func() {
		buf.append([]byte("\n\n"))

		lines := buf.extractLines()
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(BeEmpty())
		Expect(lines[1]).To(BeEmpty())
	})

	ginkgo.It("keeps extracted lines valid after further appends", func() {
		buf.append([]byte("first\n"))
		lines := buf.extractLines()

		buf.append([]byte("overwrite attempt that reuses the backing array\n"))
		buf.extractLines()

		Expect(string(lines[0])).To(Equal("first"))
	})

	ginkgo.It("is a no-op when no newline is present", func() {
		buf.append([]byte("never terminated"))
		Expect(buf.extractLines()).To(BeEmpty())
		Expect(buf.extractLines()).To(BeEmpty())
		Expect(buf.len()).To(Equal(len("never terminated")))
	})
})
