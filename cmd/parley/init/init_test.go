package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/parley/cmd/parley/init"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

var _ = Describe("Init command", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "parley-init-test-*")
		Expect(err).NotTo(HaveOccurred())
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	It("creates the local directory", func() {
		Expect(run()).To(Succeed())
		Expect(filepath.Join(tmpDir, ".parley")).To(BeADirectory())
		Expect(out.String()).To(ContainSubstring("Initialized"))
	})

	It("is idempotent", func() {
		Expect(run()).To(Succeed())
		out.Reset()
		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
	})

	It("writes a preset config", func() {
		Expect(run("--preset", "palm")).To(Succeed())

		cfg, err := config.NewConfiger(filepath.Join(tmpDir, ".parley"))
		Expect(err).NotTo(HaveOccurred())
		val, err := cfg.GetConfigValue("chat.model")
		Expect(err).NotTo(HaveOccurred())
		Expect(val).To(Equal("models/chat-bison-001"))

		Expect(out.String()).To(ContainSubstring(cliui.SuccessMark))
		Expect(out.String()).To(ContainSubstring("Writing palm preset to " + filepath.Join(tmpDir, ".parley", "config.toml")))
	})

	It("marks a failed preset write", func() {
		dir := filepath.Join(tmpDir, ".parley")
		Expect(os.MkdirAll(filepath.Join(dir, "config.toml"), 0o755)).To(Succeed())

		Expect(run("--preset", "gemini")).To(HaveOccurred())
		Expect(out.String()).To(ContainSubstring(cliui.FailMark))
	})

	It("rejects an unknown preset before touching the filesystem", func() {
		Expect(run("--preset", "ollama")).To(HaveOccurred())
		Expect(filepath.Join(tmpDir, ".parley")).NotTo(BeADirectory())
	})
})
