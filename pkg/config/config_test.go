package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/sequencer/pkg/config"
)

var _ = Describe("Config", func() {
	write := func(content string) string {
		path := filepath.Join(GinkgoT().TempDir(), "sequencer.toml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("has valid defaults", func() {
		Expect(config.Default().Validate()).To(Succeed())
	})

	It("decodes a file over the defaults", func() {
		cfg, err := config.Load(write(`
listen = "127.0.0.1:9000"

[storage]
driver = "sqlite"
path = "/var/lib/sequencer/state.db"

[kernel]
name = "echo"
tick_budget = 100000
round_timeout = "250ms"

[node]
ack_mode = "apply"

[listener]
enabled = true
source = "file"
path = "heads.ndjson"
`))
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Listen).To(Equal("127.0.0.1:9000"))
		Expect(cfg.Storage.Driver).To(Equal(config.DriverSQLite))
		Expect(cfg.Storage.CacheSize).To(Equal(8192))
		Expect(cfg.Kernel.Name).To(Equal("echo"))
		Expect(cfg.Kernel.TickBudget).To(Equal(uint64(100000)))
		Expect(cfg.Kernel.RoundTimeout).To(Equal(250 * time.Millisecond))
		Expect(cfg.Node.AckMode).To(Equal("apply"))
		Expect(cfg.Node.QueueSize).To(Equal(1024))
		Expect(cfg.Listener.Source).To(Equal(config.SourceFile))
		Expect(cfg.Listener.Follow).To(BeTrue())
		Expect(cfg.Injector.Enabled).To(BeFalse())
	})

	It("rejects unknown keys", func() {
		_, err := config.Load(write("[storage]\ndriver = \"memory\"\ncolour = \"blue\"\n"))
		Expect(err).To(MatchError(ContainSubstring("storage.colour")))
	})

	It("reports every invalid setting", func() {
		_, err := config.Load(write(`
[storage]
driver = "sqlite"

[node]
ack_mode = "someday"
queue_size = 0
`))
		Expect(err).To(MatchError(ContainSubstring("storage.path is required")))
		Expect(err).To(MatchError(ContainSubstring(`unknown node.ack_mode "someday"`)))
		Expect(err).To(MatchError(ContainSubstring("node.queue_size must be positive")))
	})

	It("fails on a missing file", func() {
		_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "nope.toml"))
		Expect(err).To(HaveOccurred())
	})

	It("checks listener and injector settings only when enabled", func() {
		cfg := config.Default()
		cfg.Listener.Source = "carrier-pigeon"
		cfg.Injector.Endpoint = ""
		Expect(cfg.Validate()).To(Succeed())

		cfg.Listener.Enabled = true
		cfg.Injector.Enabled = true
		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("unknown listener.source")))
		Expect(err).To(MatchError(ContainSubstring("injector.endpoint is required")))
	})
})
