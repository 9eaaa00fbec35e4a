package history_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quillhq/quill/pkg/history"
	"github.com/quillhq/quill/pkg/llm"
)

var _ = Describe("Store", func() {
	var store *history.Store

	BeforeEach(func() {
		var err error
		store, err = history.Open(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("Begin", func() {
		It("records a conversation with a fresh id", func() {
			conv, err := store.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())
			Expect(conv.ID).NotTo(BeEmpty())
			Expect(conv.Model).To(Equal("gpt-4.1"))

			other, err := store.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())
			Expect(other.ID).NotTo(Equal(conv.ID))
		})
	})

	Describe("Append and Get", func() {
		It("returns messages in turn order", func() {
			conv, err := store.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Append(conv.ID, llm.RoleUser, "translate this")).To(Succeed())
			Expect(store.Append(conv.ID, llm.RoleAssistant, "voici")).To(Succeed())
			Expect(store.Append(conv.ID, llm.RoleUser, "and this")).To(Succeed())

			loaded, err := store.Get(conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Model).To(Equal("gpt-4.1"))
			Expect(loaded.Messages).To(HaveLen(3))
			Expect(loaded.Messages[0].Role).To(Equal(llm.RoleUser))
			Expect(loaded.Messages[0].Content).To(Equal("translate this"))
			Expect(loaded.Messages[1].Role).To(Equal(llm.RoleAssistant))
			Expect(loaded.Messages[2].Content).To(Equal("and this"))
			Expect(loaded.Messages[0].Seq).To(BeNumerically("<", loaded.Messages[1].Seq))
		})

		It("resolves unique id prefixes", func() {
			conv, err := store.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())

			loaded, err := store.Get(conv.ID[:8])
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ID).To(Equal(conv.ID))
		})

		It("returns ErrNotFound for unknown ids", func() {
			_, err := store.Get("nope")
			Expect(err).To(MatchError(history.ErrNotFound))
		})

		It("rejects ambiguous prefixes", func() {
			_, err := store.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())

			_, err = store.Get("")
			Expect(err).To(MatchError(history.ErrAmbiguous))
		})
	})

	Describe("List", func() {
		It("returns conversations without messages", func() {
			conv, err := store.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Append(conv.ID, llm.RoleUser, "hi")).To(Succeed())

			convs, err := store.List(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(HaveLen(1))
			Expect(convs[0].ID).To(Equal(conv.ID))
			Expect(convs[0].Messages).To(BeEmpty())
		})

		It("respects the limit", func() {
			for i := 0; i < 5; i++ {
				_, err := store.Begin("gpt-4.1")
				Expect(err).NotTo(HaveOccurred())
			}

			convs, err := store.List(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(convs).To(HaveLen(3))
		})
	})

	Describe("Open", func() {
		It("persists across reopens", func() {
			path := filepath.Join(GinkgoT().TempDir(), "history.db")

			first, err := history.Open(path)
			Expect(err).NotTo(HaveOccurred())
			conv, err := first.Begin("gpt-4.1")
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Append(conv.ID, llm.RoleUser, "remember me")).To(Succeed())
			Expect(first.Close()).To(Succeed())

			second, err := history.Open(path)
			Expect(err).NotTo(HaveOccurred())
			defer second.Close()

			loaded, err := second.Get(conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Messages).To(HaveLen(1))
			Expect(loaded.Messages[0].Content).To(Equal("remember me"))
		})
	})
})
