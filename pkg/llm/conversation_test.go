package llm_test

import (
	"encoding/json"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/llm"
)

var _ = Describe("Conversation", func() {
	It("starts empty", func() {
		c := llm.NewConversation()
		Expect(c.Len()).To(Equal(0))
		Expect(c.Turns()).To(BeEmpty())

		_, ok := c.Last()
		Expect(ok).To(BeFalse())
	})

	It("keeps turns in append order", func() {
		c := llm.NewConversation()
		c.Append(llm.UserTurn("hi"))
		c.Append(llm.AssistantTurn("hello"))
		c.Append(llm.UserTurn("how are you?"))

		turns := c.Turns()
		Expect(turns).To(HaveLen(3))
		Expect(turns[0]).To(Equal(llm.Turn{Role: llm.RoleUser, Text: "hi"}))
		Expect(turns[1]).To(Equal(llm.Turn{Role: llm.RoleAssistant, Text: "hello"}))

		last, ok := c.Last()
		Expect(ok).To(BeTrue())
		Expect(last.Text).To(Equal("how are you?"))
	})

	It("does not enforce alternation", func() {
		c := llm.NewConversation()
		c.Append(llm.UserTurn("one"))
		c.Append(llm.UserTurn("two"))
		Expect(c.Len()).To(Equal(2))
	})

	It("returns a copy from Turns", func() {
		c := llm.NewConversation(llm.UserTurn("original"))
		turns := c.Turns()
		turns[0].Text = "mutated"
		Expect(c.Turns()[0].Text).To(Equal("original"))
	})

	It("does not alias the seed slice", func() {
		seed := []llm.Turn{llm.UserTurn("a")}
		c := llm.NewConversation(seed...)
		seed[0].Text = "b"
		Expect(c.Turns()[0].Text).To(Equal("a"))
	})

	It("tolerates concurrent readers and writers", func() {
		c := llm.NewConversation()
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				c.Append(llm.UserTurn("x"))
			}()
			go func() {
				defer wg.Done()
				_ = c.Turns()
			}()
		}
		wg.Wait()
		Expect(c.Len()).To(Equal(10))
	})
})

var _ = Describe("Turn", func() {
	It("serializes role and content", func() {
		data, err := json.Marshal(llm.AssistantTurn("hi there"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(MatchJSON(`{"role":"assistant","content":"hi there"}`))
	})

	It("validates roles", func() {
		Expect(llm.RoleUser.Valid()).To(BeTrue())
		Expect(llm.RoleAssistant.Valid()).To(BeTrue())
		Expect(llm.Role("model").Valid()).To(BeFalse())
	})
})

var _ = Describe("DefaultGenerationConfig", func() {
	It("uses a low temperature and a short reply budget", func() {
		g := llm.DefaultGenerationConfig()
		Expect(g.Temperature).To(Equal(0.2))
		Expect(g.MaxTokens).To(Equal(512))
	})
})
