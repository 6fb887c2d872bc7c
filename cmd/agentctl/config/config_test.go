package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/anemonelab/agenthub/cmd/agentctl/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("falls back to defaults when the file is missing", func() {
		cfg, err := config.Load(filepath.Join(dir, "missing.yaml"))
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg).To(Equal(config.Default()))
	})

	It("overlays the file on the defaults", func() {
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte("backend_url: http://backend:9000\ntimeout: 5s\n"), 0o600)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.BackendURL).To(Equal("http://backend:9000"))
		Expect(cfg.RPCURL).To(Equal(config.DefaultRPCURL))
		Expect(cfg.RequestTimeout()).To(Equal(5 * time.Second))
	})

	It("rejects a bad timeout", func() {
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte("timeout: soon\n"), 0o600)).To(Succeed())
		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("round trips through Save", func() {
		path := filepath.Join(dir, "nested", "config.yaml")
		cfg := config.Default()
		cfg.APIKey = "k"
		Expect(cfg.Save(path)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(loaded).To(Equal(cfg))
	})
})
