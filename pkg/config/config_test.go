package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/llm/provider"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Chat.Provider).To(Equal(defaults.Chat.Provider))
			Expect(*cfg.Generation.Temperature).To(Equal(0.2))
			Expect(cfg.Generation.MaxTokens).To(Equal(512))
			Expect(cfg.HTTP.Timeout).To(Equal("60s"))
			Expect(cfg.Anthropic.Endpoint).To(Equal("https://api.anthropic.com/v1/messages"))
			Expect(cfg.Anthropic.Version).To(Equal("2023-06-01"))
			Expect(cfg.Server.Listen).To(Equal(":8501"))
			Expect(cfg.Server.SessionTTL).To(Equal("1h"))
		})

		It("loads a valid config file and fills the rest from defaults", func() {
			data := `version = 0

[chat]
provider = "gemini"
model = "gemini-1.5-pro"

[generation]
temperature = 0.0
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Chat.Provider).To(Equal("gemini"))
			Expect(cfg.Chat.Model).To(Equal("gemini-1.5-pro"))
			Expect(*cfg.Generation.Temperature).To(Equal(0.0))
			Expect(cfg.Generation.MaxTokens).To(Equal(512))
			Expect(cfg.Server.Listen).To(Equal(":8501"))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[chat\nprovider="), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("returns error for unsupported config version", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 99\n"), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version 99")))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Chat.Provider = "palm"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`provider = "palm"`))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(MatchError("cannot save nil config"))
		})
	})

	Describe("SetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets a string config key", func() {
			Expect(c.SetConfigValue("server.listen", ":9000")).To(Succeed())

			val, err := c.GetConfigValue("server.listen")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal(":9000"))
		})

		It("sets numeric keys", func() {
			Expect(c.SetConfigValue("generation.temperature", "0.7")).To(Succeed())
			Expect(c.SetConfigValue("generation.max_tokens", "1024")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(*cfg.Generation.Temperature).To(Equal(0.7))
			Expect(cfg.Generation.MaxTokens).To(Equal(1024))
		})

		It("keeps an explicit zero temperature", func() {
			Expect(c.SetConfigValue("generation.temperature", "0")).To(Succeed())

			val, err := c.GetConfigValue("generation.temperature")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("0"))
		})

		DescribeTable("rejects invalid values",
			func(key, value string) {
				Expect(c.SetConfigValue(key, value)).NotTo(Succeed())
			},
			Entry("non-numeric temperature", "generation.temperature", "warm"),
			Entry("temperature out of range", "generation.temperature", "3"),
			Entry("non-numeric max tokens", "generation.max_tokens", "many"),
			Entry("zero max tokens", "generation.max_tokens", "0"),
			Entry("bad timeout", "http.timeout", "soon"),
			Entry("negative session ttl", "server.session_ttl", "-1m"),
		)

		It("returns error for unknown key", func() {
			err := c.SetConfigValue("proxy.upstream", "x")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects unsupported providers", func() {
			err := c.SetConfigValue("chat.provider", "openai")
			Expect(errors.Is(err, provider.ErrUnknownProvider)).To(BeTrue())
		})

		It("rejects models outside the provider's catalog", func() {
			Expect(c.SetConfigValue("chat.provider", "gemini")).To(Succeed())
			err := c.SetConfigValue("chat.model", "claude-3-opus-latest")
			Expect(errors.Is(err, provider.ErrUnknownModel)).To(BeTrue())
		})

		It("clears a model that no longer matches the provider", func() {
			Expect(c.SetConfigValue("chat.provider", "anthropic")).To(Succeed())
			Expect(c.SetConfigValue("chat.model", "claude-3-opus-latest")).To(Succeed())
			Expect(c.SetConfigValue("chat.provider", "gemini")).To(Succeed())

			val, err := c.GetConfigValue("chat.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("anthropic.version", "2024-01-01")).To(Succeed())
			Expect(c.SetConfigValue("server.listen", ":7000")).To(Succeed())

			val, err := c.GetConfigValue("anthropic.version")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("2024-01-01"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("http.timeout")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(Equal("60s"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			val, err := c.GetConfigValue("gemini.endpoint")
			Expect(err).NotTo(HaveOccurred())
			Expect(val).To(BeEmpty())
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns every key in display order", func() {
		Expect(config.ValidConfigKeys()).To(Equal([]string{
			"chat.provider",
			"chat.model",
			"generation.temperature",
			"generation.max_tokens",
			"http.timeout",
			"palm.endpoint",
			"gemini.endpoint",
			"anthropic.endpoint",
			"anthropic.version",
			"server.listen",
			"server.session_ttl",
		}))
	})

	It("agrees with IsValidConfigKey", func() {
		for _, k := range config.ValidConfigKeys() {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
		Expect(config.IsValidConfigKey("anthropic.api_key")).To(BeFalse())
	})
})

var _ = Describe("PresetConfig", func() {
	It("preselects the provider and its default model", func() {
		cfg, err := config.PresetConfig("Gemini")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Chat.Provider).To(Equal("gemini"))
		Expect(cfg.Chat.Model).To(Equal("gemini-1.5-flash"))
		Expect(cfg.Server.Listen).To(Equal(":8501"))
	})

	It("returns error for unknown preset", func() {
		_, err := config.PresetConfig("openai")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})

	It("offers one preset per provider", func() {
		Expect(config.ValidPresetNames()).To(Equal(provider.SupportedProviders()))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("chat.provider")).To(Equal(provider.Anthropic))
		Expect(config.Generation(v).Temperature).To(Equal(0.2))
		Expect(config.Generation(v).MaxTokens).To(Equal(512))
		Expect(config.HTTPTimeout(v)).To(Equal(60 * time.Second))
		Expect(config.SessionTTL(v)).To(Equal(time.Hour))
	})

	It("reads config file values over defaults", func() {
		data := `[server]
listen = ":5555"

[http]
timeout = "5s"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("server.listen")).To(Equal(":5555"))
		Expect(config.HTTPTimeout(v)).To(Equal(5 * time.Second))
		Expect(v.GetString("anthropic.version")).To(Equal("2023-06-01"))
	})

	It("env vars take precedence over config file values", func() {
		data := `[chat]
provider = "anthropic"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		os.Setenv("PARLEY_CHAT_PROVIDER", "palm")
		defer os.Unsetenv("PARLEY_CHAT_PROVIDER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("chat.provider")).To(Equal("palm"))
	})

	It("falls back to the default timeout for a nonsense value", func() {
		os.Setenv("PARLEY_HTTP_TIMEOUT", "-3s")
		defer os.Unsetenv("PARLEY_HTTP_TIMEOUT")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.HTTPTimeout(v)).To(Equal(60 * time.Second))
	})
})

var _ = Describe("ChatSelection", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "selection-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("uses the provider default when no model is configured", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		v.Set("chat.provider", "gemini")

		name, model, err := config.ChatSelection(v, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("gemini"))
		Expect(model).To(Equal("gemini-1.5-flash"))
	})

	It("replaces an inherited model from another provider", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		v.Set("chat.provider", "palm")
		v.Set("chat.model", "claude-3-opus-latest")

		_, model, err := config.ChatSelection(v, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(model).To(Equal("models/chat-bison-001"))
	})

	It("rejects an explicit model from another provider", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		v.Set("chat.provider", "palm")
		v.Set("chat.model", "claude-3-opus-latest")

		_, _, err = config.ChatSelection(v, true)
		Expect(errors.Is(err, provider.ErrUnknownModel)).To(BeTrue())
	})

	It("rejects an unknown provider", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		v.Set("chat.provider", "openai")

		_, _, err = config.ChatSelection(v, false)
		Expect(errors.Is(err, provider.ErrUnknownProvider)).To(BeTrue())
	})
})

var _ = Describe("ProviderOptions", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "options-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("picks the anthropic endpoint and version", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		opts := config.ProviderOptions(v, provider.Anthropic, "sk")
		Expect(opts.APIKey).To(Equal("sk"))
		Expect(opts.Endpoint).To(Equal("https://api.anthropic.com/v1/messages"))
		Expect(opts.AnthropicVersion).To(Equal("2023-06-01"))
		Expect(opts.Timeout).To(Equal(60 * time.Second))
		Expect(opts.Generation.MaxTokens).To(Equal(512))
	})

	It("picks the palm endpoint", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		v.Set("palm.endpoint", "http://localhost:1234")

		opts := config.ProviderOptions(v, provider.PaLM, "k")
		Expect(opts.Endpoint).To(Equal("http://localhost:1234"))
		Expect(opts.AnthropicVersion).To(BeEmpty())
	})
})
