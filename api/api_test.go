package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/logger"
)

// scriptedStream yields canned fragments, then io.EOF.
type scriptedStream struct {
	fragments []string
	closed    bool
}

func (s *scriptedStream) Recv() (string, error) {
	if len(s.fragments) == 0 {
		return "", io.EOF
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return f, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func askRequest(body any) *http.Request {
	payload, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var _ = Describe("Server", func() {
	var (
		server *Server
		appCfg *config.Config
	)

	BeforeEach(func() {
		appCfg = config.NewDefaultConfig()
		log := logger.New(logger.WithWriter(GinkgoWriter))
		server = NewServer(Config{ListenAddr: ":0"}, appCfg, log)
	})

	Describe("GET /ping", func() {
		It("responds with pong", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("pong"))
		})
	})

	Describe("GET /v1/models", func() {
		It("lists models and marks the active one", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/v1/models", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var models []ModelInfo
			Expect(json.NewDecoder(resp.Body).Decode(&models)).To(Succeed())
			Expect(models).To(HaveLen(len(appCfg.Models)))
			Expect(models[0].Active).To(BeTrue())
			Expect(models[0].Name).To(Equal(appCfg.Models[0].Name))
		})

		It("never exposes API keys", func() {
			appCfg.Models[0].APIKey = "sk-secret"

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/v1/models", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).NotTo(ContainSubstring("sk-secret"))
		})
	})

	Describe("GET /v1/templates", func() {
		It("lists configured templates", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/v1/templates", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var templates []config.Template
			Expect(json.NewDecoder(resp.Body).Decode(&templates)).To(Succeed())
			Expect(templates).To(HaveLen(len(appCfg.Templates)))
		})
	})

	Describe("POST /v1/ask", func() {
		It("relays upstream fragments as SSE with a [DONE] terminator", func() {
			stream := &scriptedStream{fragments: []string{"Hel", "lo"}}
			server.dial = func(context.Context, config.ModelConfig, []llm.Message) (answerStream, error) {
				return stream, nil
			}

			resp, err := server.app.Test(askRequest(AskRequest{Text: "hi"}))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/event-stream"))

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring(`data: {"content":"Hel"}`))
			Expect(string(body)).To(ContainSubstring(`data: {"content":"lo"}`))
			Expect(string(body)).To(HaveSuffix("data: [DONE]\n\n"))
			Expect(stream.closed).To(BeTrue())
		})

		It("passes the selected template prompt upstream", func() {
			var got []llm.Message
			server.dial = func(_ context.Context, _ config.ModelConfig, messages []llm.Message) (answerStream, error) {
				got = messages
				return &scriptedStream{}, nil
			}

			resp, err := server.app.Test(askRequest(AskRequest{Text: "bonjour", Template: "translate"}))
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(got).To(HaveLen(2))
			Expect(got[0].Role).To(Equal(llm.RoleSystem))
			Expect(got[1].Content).To(Equal("bonjour"))
		})

		It("rejects requests without text", func() {
			resp, err := server.app.Test(askRequest(AskRequest{}))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects unknown templates", func() {
			resp, err := server.app.Test(askRequest(AskRequest{Text: "hi", Template: "nope"}))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects unknown model names", func() {
			resp, err := server.app.Test(askRequest(AskRequest{Text: "hi", Model: "nope"}))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 502 when the upstream dial fails", func() {
			server.dial = func(context.Context, config.ModelConfig, []llm.Message) (answerStream, error) {
				return nil, errors.New("connection refused")
			}

			resp, err := server.app.Test(askRequest(AskRequest{Text: "hi"}))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("SetAppConfig", func() {
		It("swaps the snapshot used by later requests", func() {
			next := config.NewDefaultConfig()
			next.Models = []config.ModelConfig{{Name: "Local", ModelName: "llama3"}}
			server.SetAppConfig(next)

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/v1/models", nil))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var models []ModelInfo
			Expect(json.NewDecoder(resp.Body).Decode(&models)).To(Succeed())
			Expect(models).To(HaveLen(1))
			Expect(models[0].Name).To(Equal("Local"))
		})
	})
})

var _ = Describe("BuildMessages", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
	})

	It("asks plain text as a single user message", func() {
		messages, err := BuildMessages(cfg, "", "what is a goroutine?")
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(1))
		Expect(messages[0].Role).To(Equal(llm.RoleUser))
	})

	It("prepends the template prompt as a system message", func() {
		messages, err := BuildMessages(cfg, "summarize", "long text here")
		Expect(err).NotTo(HaveOccurred())
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].Role).To(Equal(llm.RoleSystem))
		Expect(messages[0].Content).NotTo(BeEmpty())
		Expect(messages[1].Content).To(Equal("long text here"))
	})

	It("errors on unknown template ids", func() {
		_, err := BuildMessages(cfg, "nope", "text")
		Expect(err).To(HaveOccurred())
	})
})
