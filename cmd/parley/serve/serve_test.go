package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/papercomputeco/parley/cmd/parley/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("registers its flags with config defaults", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.Shorthand).To(Equal("l"))
		Expect(listen.DefValue).To(Equal(":8501"))

		Expect(cmd.Flags().Lookup("session-ttl").DefValue).To(Equal("1h"))
		Expect(cmd.Flags().Lookup("provider").DefValue).To(Equal("anthropic"))
		Expect(cmd.Flags().Lookup("log-file")).NotTo(BeNil())
	})

	It("rejects positional arguments", func() {
		cmd := servecmder.NewServeCmd()
		cmd.SetArgs([]string{"extra"})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
