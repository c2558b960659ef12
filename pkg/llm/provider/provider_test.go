package provider_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
)

var _ = Describe("New", func() {
	It("lists the three vendors", func() {
		Expect(provider.SupportedProviders()).To(Equal([]string{"palm", "gemini", "anthropic"}))
	})

	It("rejects unknown providers", func() {
		_, err := provider.New(context.Background(), "openai", provider.Options{APIKey: "k"})
		Expect(errors.Is(err, provider.ErrUnknownProvider)).To(BeTrue())
	})

	DescribeTable("refuses to build an adapter without a key",
		func(name string) {
			p, err := provider.New(context.Background(), name, provider.Options{})
			Expect(errors.Is(err, llm.ErrMissingCredential)).To(BeTrue())
			Expect(p).To(BeNil())
		},
		Entry("palm", provider.PaLM),
		Entry("gemini", provider.Gemini),
		Entry("anthropic", provider.Anthropic),
	)

	DescribeTable("builds the named adapter",
		func(name string) {
			p, err := provider.New(context.Background(), name, provider.Options{APIKey: "test-key"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name()).To(Equal(name))
		},
		Entry("palm", provider.PaLM),
		Entry("gemini", provider.Gemini),
		Entry("anthropic", provider.Anthropic),
	)
})

var _ = Describe("Model catalog", func() {
	It("offers the legacy chat model for palm", func() {
		Expect(provider.Models(provider.PaLM)).To(Equal([]string{"models/chat-bison-001"}))
	})

	It("defaults to the first model", func() {
		Expect(provider.DefaultModel(provider.Anthropic)).To(Equal("claude-3-5-sonnet-latest"))
		Expect(provider.DefaultModel("nope")).To(BeEmpty())
	})

	It("returns a copy of the catalog", func() {
		models := provider.Models(provider.Gemini)
		models[0] = "mutated"
		Expect(provider.DefaultModel(provider.Gemini)).To(Equal("gemini-1.5-flash"))
	})

	It("resolves an empty model to the default", func() {
		model, err := provider.ResolveModel(provider.Gemini, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(model).To(Equal("gemini-1.5-flash"))
	})

	It("rejects models outside the catalog", func() {
		_, err := provider.ResolveModel(provider.Anthropic, "gpt-4")
		Expect(errors.Is(err, provider.ErrUnknownModel)).To(BeTrue())
	})

	It("rejects unknown providers", func() {
		_, err := provider.ResolveModel("openai", "gpt-4")
		Expect(errors.Is(err, provider.ErrUnknownProvider)).To(BeTrue())
	})
})

var _ = Describe("NoticeForMissingCredential", func() {
	It("names the vendor", func() {
		Expect(provider.NoticeForMissingCredential(provider.Anthropic)).To(Equal("Please add your Anthropic API key to continue."))
		Expect(provider.NoticeForMissingCredential(provider.Gemini)).To(Equal("Please add your Gemini / Google API key to continue."))
	})
})
