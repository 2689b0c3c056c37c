// Package config loads the sequencer configuration from a TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Head feed sources.
const (
	SourceHTTP = "http"
	SourceFile = "file"
)

type Config struct {
	Listen string `toml:"listen"`
	Debug  bool   `toml:"debug"`

	Storage  StorageConfig  `toml:"storage"`
	Kernel   KernelConfig   `toml:"kernel"`
	Node     NodeConfig     `toml:"node"`
	Listener ListenerConfig `toml:"listener"`
	Injector InjectorConfig `toml:"injector"`
}

type StorageConfig struct {
	Driver    string `toml:"driver"`
	Path      string `toml:"path"`
	CacheSize int    `toml:"cache_size"`
}

type KernelConfig struct {
	Name                 string        `toml:"name"`
	MaxValueSize         int           `toml:"max_value_size"`
	TickBudget           uint64        `toml:"tick_budget"`
	RoundTimeout         time.Duration `toml:"round_timeout"`
	SimulateLevelFraming bool          `toml:"simulate_level_framing"`
}

type NodeConfig struct {
	QueueSize       int           `toml:"queue_size"`
	AckMode         string        `toml:"ack_mode"`
	SubmitTimeout   time.Duration `toml:"submit_timeout"`
	JournalCapacity int           `toml:"journal_capacity"`
}

type ListenerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Source   string `toml:"source"`
	Endpoint string `toml:"endpoint"`
	Path     string `toml:"path"`
	Follow   bool   `toml:"follow"`
}

type InjectorConfig struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	QueueSize int    `toml:"queue_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen: ":8080",
		Storage: StorageConfig{
			Driver:    DriverMemory,
			CacheSize: 8192,
		},
		Kernel: KernelConfig{
			Name: "counter",
		},
		Node: NodeConfig{
			QueueSize:       1024,
			AckMode:         "dequeue",
			SubmitTimeout:   30 * time.Second,
			JournalCapacity: 1024,
		},
		Listener: ListenerConfig{
			Source:   SourceHTTP,
			Endpoint: "http://localhost:18731",
			Follow:   true,
		},
		Injector: InjectorConfig{
			Endpoint:  "http://127.0.0.1:8932",
			QueueSize: 64,
		},
	}
}

// Load decodes the file at path over the defaults. Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.CacheSize < 0 {
		errs = append(errs, errors.New("storage.cache_size must not be negative"))
	}

	if c.Kernel.Name == "" {
		errs = append(errs, errors.New("kernel.name is empty"))
	}
	if c.Kernel.MaxValueSize < 0 || c.Kernel.RoundTimeout < 0 {
		errs = append(errs, errors.New("kernel limits must not be negative"))
	}

	if c.Node.QueueSize <= 0 {
		errs = append(errs, errors.New("node.queue_size must be positive"))
	}
	switch c.Node.AckMode {
	case "dequeue", "apply":
	default:
		errs = append(errs, fmt.Errorf("unknown node.ack_mode %q", c.Node.AckMode))
	}
	if c.Node.SubmitTimeout < 0 {
		errs = append(errs, errors.New("node.submit_timeout must not be negative"))
	}

	if c.Listener.Enabled {
		switch c.Listener.Source {
		case SourceHTTP:
			if c.Listener.Endpoint == "" {
				errs = append(errs, errors.New("listener.endpoint is required for the http source"))
			}
		case SourceFile:
			if c.Listener.Path == "" {
				errs = append(errs, errors.New("listener.path is required for the file source"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown listener.source %q", c.Listener.Source))
		}
	}

	if c.Injector.Enabled && c.Injector.Endpoint == "" {
		errs = append(errs, errors.New("injector.endpoint is required"))
	}
	return errors.Join(errs...)
}
