package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quillhq/quill/pkg/llm"
)

// sseUpstream builds a test server that records the incoming request and
// writes the given SSE lines, flushing after each one.
func sseUpstream(lines []string, gotReq **http.Request, gotBody *[]byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotReq != nil {
			*gotReq = r.Clone(context.Background())
		}
		if gotBody != nil {
			*gotBody, _ = io.ReadAll(r.Body)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			flusher.Flush()
		}
	}))
}

func deltaLine(text string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q},"finish_reason":null}]}`, text)
}

var _ = Describe("Client", func() {
	It("streams fragments in order and ends with io.EOF", func() {
		upstream := sseUpstream([]string{
			deltaLine("Hello"),
			deltaLine(" there"),
			"data: [DONE]",
		}, nil, nil)
		defer upstream.Close()

		client := llm.NewClient(upstream.URL, "")
		stream, err := client.StreamChat(context.Background(), "gpt-4.1", []llm.Message{llm.UserMessage("hi")})
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		var got []string
		for {
			frag, err := stream.Recv()
			if err != nil {
				Expect(err).To(MatchError(io.EOF))
				break
			}
			got = append(got, frag)
		}
		Expect(strings.Join(got, "")).To(Equal("Hello there"))
	})

	It("sends a streaming chat request with bearer auth", func() {
		var gotReq *http.Request
		var gotBody []byte
		upstream := sseUpstream([]string{"data: [DONE]"}, &gotReq, &gotBody)
		defer upstream.Close()

		client := llm.NewClient(upstream.URL+"/", "sk-test")
		stream, err := client.StreamChat(context.Background(), "gpt-4.1", []llm.Message{llm.UserMessage("question")})
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		Expect(gotReq.Method).To(Equal(http.MethodPost))
		Expect(gotReq.URL.Path).To(Equal("/chat/completions"))
		Expect(gotReq.Header.Get("Authorization")).To(Equal("Bearer sk-test"))
		Expect(gotReq.Header.Get("Content-Type")).To(Equal("application/json"))

		var req llm.ChatRequest
		Expect(json.Unmarshal(gotBody, &req)).To(Succeed())
		Expect(req.Model).To(Equal("gpt-4.1"))
		Expect(req.Stream).To(BeTrue())
		Expect(req.Messages).To(HaveLen(1))
		Expect(req.Messages[0].Role).To(Equal(llm.RoleUser))
	})

	It("omits the Authorization header when no key is configured", func() {
		var gotReq *http.Request
		upstream := sseUpstream([]string{"data: [DONE]"}, &gotReq, nil)
		defer upstream.Close()

		client := llm.NewClient(upstream.URL, "")
		stream, err := client.StreamChat(context.Background(), "llama3", nil)
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		Expect(gotReq.Header.Get("Authorization")).To(BeEmpty())
	})

	It("rejects non-success statuses before any decoding", func() {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
		}))
		defer upstream.Close()

		client := llm.NewClient(upstream.URL, "bad-key")
		_, err := client.StreamChat(context.Background(), "gpt-4.1", []llm.Message{llm.UserMessage("hi")})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("status 401"))
		Expect(err.Error()).To(ContainSubstring("invalid api key"))
	})

	It("reports a fault when the request cannot be sent", func() {
		client := llm.NewClient("http://127.0.0.1:1", "")
		_, err := client.StreamChat(context.Background(), "gpt-4.1", []llm.Message{llm.UserMessage("hi")})
		Expect(err).To(HaveOccurred())
	})

	It("aborts an in-flight stream when the context is cancelled", func() {
		release := make(chan struct{})
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, deltaLine("first")+"\n")
			w.(http.Flusher).Flush()
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer upstream.Close()
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())
		client := llm.NewClient(upstream.URL, "")
		stream, err := client.StreamChat(ctx, "gpt-4.1", []llm.Message{llm.UserMessage("hi")})
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		frag, err := stream.Recv()
		Expect(err).NotTo(HaveOccurred())
		Expect(frag).To(Equal("first"))

		cancel()

		_, err = stream.Recv()
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(io.EOF))

		// The fault is terminal: subsequent reads yield io.EOF, not a
		// second error.
		_, err = stream.Recv()
		Expect(err).To(MatchError(io.EOF))
	})

	It("tolerates double Close", func() {
		upstream := sseUpstream([]string{"data: [DONE]"}, nil, nil)
		defer upstream.Close()

		client := llm.NewClient(upstream.URL, "")
		stream, err := client.StreamChat(context.Background(), "gpt-4.1", nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(stream.Close()).To(Succeed())
		Expect(stream.Close()).To(Succeed())
	})
})
