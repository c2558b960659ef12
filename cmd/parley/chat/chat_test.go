package chatcmder_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/parley/cmd/parley/chat"
)

// fakeAnthropic records each Messages request and answers from a script.
type fakeAnthropic struct {
	mu       sync.Mutex
	requests []map[string]any
	status   int
	replies  []string
}

func (f *fakeAnthropic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req map[string]any
	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
		return
	}

	reply := "hello"
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"content": []map[string]any{{"type": "text", "text": reply}},
	})
}

func (f *fakeAnthropic) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

var _ = Describe("Chat command", func() {
	var (
		tmpDir   string
		origDir  string
		upstream *fakeAnthropic
		server   *httptest.Server
		out      *bytes.Buffer
	)

	run := func(input string, args ...string) error {
		cmd := chatcmder.NewChatCmd()
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append([]string{"--plain"}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "parley-chat-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".parley"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		upstream = &fakeAnthropic{}
		server = httptest.NewServer(upstream)

		for _, env := range []string{"PALM_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "ANTHROPIC_API_KEY"} {
			GinkgoT().Setenv(env, "")
		}
		GinkgoT().Setenv("PARLEY_ANTHROPIC_ENDPOINT", server.URL)
		GinkgoT().Setenv("PARLEY_CHAT_PROVIDER", "anthropic")

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		server.Close()
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("shows the notice and makes no call without a key", func() {
		Expect(run("hi\n")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Please add your Anthropic API key to continue."))
		Expect(upstream.count()).To(BeZero())
	})

	It("reads the key from secrets.toml", func() {
		secrets := "[providers.anthropic]\napi_key = \"sk-file\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, ".parley", "secrets.toml"), []byte(secrets), 0o600)).To(Succeed())

		Expect(run("hi\n/exit\n")).To(Succeed())
		Expect(upstream.count()).To(Equal(1))
		Expect(out.String()).To(ContainSubstring("hello"))
	})

	Context("with a key in the environment", func() {
		BeforeEach(func() {
			GinkgoT().Setenv("ANTHROPIC_API_KEY", "sk-env")
		})

		It("prints the reply and sends the history on every call", func() {
			upstream.replies = []string{"first reply", "second reply"}

			Expect(run("one\ntwo\n/exit\n")).To(Succeed())

			Expect(out.String()).To(ContainSubstring("first reply"))
			Expect(out.String()).To(ContainSubstring("second reply"))
			Expect(upstream.count()).To(Equal(2))

			messages := upstream.requests[1]["messages"].([]any)
			Expect(messages).To(HaveLen(3))
			Expect(messages[1].(map[string]any)["content"]).To(Equal("first reply"))
		})

		It("uses the provider default model and generation settings", func() {
			Expect(run("hi\n")).To(Succeed())

			req := upstream.requests[0]
			Expect(req["model"]).To(Equal("claude-3-5-sonnet-latest"))
			Expect(req["max_tokens"]).To(BeNumerically("==", 512))
			Expect(req["temperature"]).To(BeNumerically("~", 0.2))
		})

		It("honors model and generation flags", func() {
			Expect(run("hi\n", "-m", "claude-3-5-haiku-latest", "--max-tokens", "64", "--temperature", "0")).To(Succeed())

			req := upstream.requests[0]
			Expect(req["model"]).To(Equal("claude-3-5-haiku-latest"))
			Expect(req["max_tokens"]).To(BeNumerically("==", 64))
			Expect(req["temperature"]).To(BeNumerically("==", 0))
		})

		It("rejects a model outside the catalog", func() {
			Expect(run("hi\n", "-m", "gpt-4")).To(MatchError(ContainSubstring("unknown model")))
			Expect(upstream.count()).To(BeZero())
		})

		It("shows vendor failures inline and keeps going", func() {
			upstream.status = http.StatusServiceUnavailable

			Expect(run("hi\nagain\n")).To(Succeed())

			Expect(strings.Count(out.String(), "API request failed:")).To(Equal(2))
			Expect(out.String()).To(ContainSubstring("503"))
			Expect(upstream.count()).To(Equal(2))
		})

		It("redraws the history", func() {
			Expect(run("hi\n/history\n")).To(Succeed())
			Expect(strings.Count(out.String(), "hello")).To(Equal(2))
		})

		It("starts over after /reset", func() {
			Expect(run("one\n/reset\ntwo\n")).To(Succeed())

			Expect(upstream.count()).To(Equal(2))
			Expect(upstream.requests[1]["messages"]).To(HaveLen(1))
		})

		It("ignores blank lines", func() {
			Expect(run("\n   \n/exit\n")).To(Succeed())
			Expect(upstream.count()).To(BeZero())
		})
	})
})
