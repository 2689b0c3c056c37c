package servecmder

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/papercomputeco/sequencer/pkg/config"
)

// envPrefix namespaces every setting in the environment, e.g.
// --kernel-name is read from SEQUENCER_KERNEL_NAME.
const envPrefix = "sequencer"

const (
	configKey         = "config"
	listenKey         = "listen"
	debugKey          = "debug"
	storageKey        = "storage"
	dbKey             = "db"
	cacheSizeKey      = "cache-size"
	kernelKey         = "kernel-name"
	tickBudgetKey     = "tick-budget"
	roundTimeoutKey   = "round-timeout"
	levelFramingKey   = "level-framing"
	maxValueSizeKey   = "max-value-size"
	queueSizeKey      = "queue-size"
	ackModeKey        = "ack-mode"
	submitTimeoutKey  = "submit-timeout"
	journalKey        = "journal-capacity"
	listenerKey       = "listener"
	listenerSourceKey = "listener-source"
	listenerURLKey    = "listener-endpoint"
	headFeedKey       = "head-feed"
	followKey         = "follow"
	injectorKey       = "injector"
	injectorURLKey    = "injector-endpoint"
	injectorQueueKey  = "injector-queue-size"
)

func addFlags(fs *pflag.FlagSet) {
	def := config.Default()

	fs.StringP(configKey, "c", "", "Path to a TOML configuration file")
	fs.String(listenKey, def.Listen, "Address the HTTP API listens on")
	fs.Bool(debugKey, def.Debug, "Enable debug logging")

	fs.String(storageKey, def.Storage.Driver, "Storage driver: memory or sqlite")
	fs.String(dbKey, def.Storage.Path, "Path to the SQLite database (sqlite driver)")
	fs.Int(cacheSizeKey, def.Storage.CacheSize, "Records kept in the SQLite read cache, 0 disables it")

	fs.StringP(kernelKey, "k", def.Kernel.Name, "Kernel to run: counter or echo")
	fs.Uint64(tickBudgetKey, def.Kernel.TickBudget, "Host calls allowed per kernel round, 0 for no limit")
	fs.Duration(roundTimeoutKey, def.Kernel.RoundTimeout, "Wall clock limit per kernel round, 0 for no limit")
	fs.Bool(levelFramingKey, def.Kernel.SimulateLevelFraming, "Feed start/info/end of level messages to the kernel on every header")
	fs.Int(maxValueSizeKey, def.Kernel.MaxValueSize, "Largest value a kernel may store in bytes, 0 for the host default")

	fs.Int(queueSizeKey, def.Node.QueueSize, "Capacity of the node work queue")
	fs.String(ackModeKey, def.Node.AckMode, "When submissions are acknowledged: dequeue or apply")
	fs.Duration(submitTimeoutKey, def.Node.SubmitTimeout, "How long POST /operations waits for an acknowledgement")
	fs.Int(journalKey, def.Node.JournalCapacity, "Debug lines and outbox messages retained")

	fs.Bool(listenerKey, def.Listener.Enabled, "Follow the chain head feed")
	fs.String(listenerSourceKey, def.Listener.Source, "Head feed source: http or file")
	fs.String(listenerURLKey, def.Listener.Endpoint, "Rollup node base URL (http source)")
	fs.String(headFeedKey, def.Listener.Path, "Newline delimited JSON head feed file (file source)")
	fs.Bool(followKey, def.Listener.Follow, "Keep reading the head feed file as it grows")

	fs.Bool(injectorKey, def.Injector.Enabled, "Forward closed batches to the rollup node batcher")
	fs.String(injectorURLKey, def.Injector.Endpoint, "Rollup node base URL for injection")
	fs.Int(injectorQueueKey, def.Injector.QueueSize, "Batches buffered ahead of the injector")
}

// loadConfig layers the environment and explicitly set flags over the
// configuration file, or over the defaults when there is none.
func loadConfig(fs *pflag.FlagSet) (config.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return config.Config{}, fmt.Errorf("could not bind flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := config.Default()
	if path := v.GetString(configKey); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}

	setString(v, listenKey, &cfg.Listen)
	setBool(v, debugKey, &cfg.Debug)

	setString(v, storageKey, &cfg.Storage.Driver)
	setString(v, dbKey, &cfg.Storage.Path)
	setInt(v, cacheSizeKey, &cfg.Storage.CacheSize)

	setString(v, kernelKey, &cfg.Kernel.Name)
	if v.IsSet(tickBudgetKey) {
		cfg.Kernel.TickBudget = v.GetUint64(tickBudgetKey)
	}
	if v.IsSet(roundTimeoutKey) {
		cfg.Kernel.RoundTimeout = v.GetDuration(roundTimeoutKey)
	}
	setBool(v, levelFramingKey, &cfg.Kernel.SimulateLevelFraming)
	setInt(v, maxValueSizeKey, &cfg.Kernel.MaxValueSize)

	setInt(v, queueSizeKey, &cfg.Node.QueueSize)
	setString(v, ackModeKey, &cfg.Node.AckMode)
	if v.IsSet(submitTimeoutKey) {
		cfg.Node.SubmitTimeout = v.GetDuration(submitTimeoutKey)
	}
	setInt(v, journalKey, &cfg.Node.JournalCapacity)

	setBool(v, listenerKey, &cfg.Listener.Enabled)
	setString(v, listenerSourceKey, &cfg.Listener.Source)
	setString(v, listenerURLKey, &cfg.Listener.Endpoint)
	if v.IsSet(headFeedKey) {
		cfg.Listener.Path = v.GetString(headFeedKey)
		if !v.IsSet(listenerSourceKey) {
			cfg.Listener.Source = config.SourceFile
		}
	}
	setBool(v, followKey, &cfg.Listener.Follow)

	setBool(v, injectorKey, &cfg.Injector.Enabled)
	setString(v, injectorURLKey, &cfg.Injector.Endpoint)
	setInt(v, injectorQueueKey, &cfg.Injector.QueueSize)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}
