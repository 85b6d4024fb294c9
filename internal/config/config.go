// Package config loads and hot-reloads the engine's runtime settings via
// spf13/viper, watching the backing file with fsnotify for live updates.
// Its shape follows every call site that references it across this
// repository: hardware detection flags, audit sink settings, and backend
// selection.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// HardwareConfig toggles CPU-specific AES acceleration paths.
type HardwareConfig struct {
	EnableAESNI    bool `mapstructure:"enable_aesni"`
	EnableARMv8AES bool `mapstructure:"enable_armv8_aes"`
}

// SinkConfig configures where audit events are written.
type SinkConfig struct {
	Type          string            `mapstructure:"type"` // "stdout", "file", "http"
	Endpoint      string            `mapstructure:"endpoint"`
	Headers       map[string]string `mapstructure:"headers"`
	FilePath      string            `mapstructure:"file_path"`
	BatchSize     int               `mapstructure:"batch_size"`
	FlushInterval time.Duration     `mapstructure:"flush_interval"`
	RetryCount    int               `mapstructure:"retry_count"`
	RetryBackoff  time.Duration     `mapstructure:"retry_backoff"`
}

// AuditConfig controls the store/restore/delete audit trail.
type AuditConfig struct {
	Enabled            bool       `mapstructure:"enabled"`
	MaxEvents          int        `mapstructure:"max_events"`
	RedactMetadataKeys []string   `mapstructure:"redact_metadata_keys"`
	Sink               SinkConfig `mapstructure:"sink"`
}

// BackendConfig selects and configures the persistence port implementation.
type BackendConfig struct {
	Driver    string `mapstructure:"driver"` // "git-cli" or "memory"
	GitDir    string `mapstructure:"git_dir"`
	GitBinary string `mapstructure:"git_binary"`
}

// CacheConfig controls the optional Redis write-dedup decorator.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	DB      int    `mapstructure:"db"`
}

// EngineConfig holds the chunking and Merkle-split tunables.
type EngineConfig struct {
	ChunkSize          int `mapstructure:"chunk_size"`
	MerkleSplitThreshold int `mapstructure:"merkle_split_threshold"`
}

// KdfConfig holds default passphrase key-derivation tunables.
type KdfConfig struct {
	Algorithm       string `mapstructure:"algorithm"`
	Iterations      int    `mapstructure:"iterations"`
	Cost            int    `mapstructure:"cost"`
	BlockSize       int    `mapstructure:"block_size"`
	Parallelization int    `mapstructure:"parallelization"`
}

// Config is the top-level configuration document.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Kdf      KdfConfig      `mapstructure:"kdf"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("engine.chunk_size", 4*1024*1024)
	v.SetDefault("engine.merkle_split_threshold", 1024)
	v.SetDefault("hardware.enable_aesni", true)
	v.SetDefault("hardware.enable_armv8_aes", true)
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.max_events", 10000)
	v.SetDefault("audit.sink.type", "stdout")
	v.SetDefault("backend.driver", "memory")
	v.SetDefault("backend.git_binary", "git")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("kdf.algorithm", "scrypt")
	v.SetDefault("kdf.cost", 1<<15)
	v.SetDefault("kdf.block_size", 8)
	v.SetDefault("kdf.parallelization", 1)
	v.SetDefault("kdf.iterations", 600000)
}

// Loader reads Config from a file and keeps it current across fsnotify
// write events, handing updated snapshots to any registered callback.
type Loader struct {
	v *viper.Viper

	mu  sync.RWMutex
	cur Config

	onChange func(Config)
}

// NewLoader reads configPath (any format viper supports: yaml, json, toml)
// and returns a Loader primed with its first snapshot.
func NewLoader(configPath string) (*Loader, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	defaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	l := &Loader{v: v}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) reload() error {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	l.mu.Lock()
	l.cur = cfg
	l.mu.Unlock()
	if l.onChange != nil {
		l.onChange(cfg)
	}
	return nil
}

// Current returns the most recently loaded configuration snapshot.
func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

// Watch starts watching the config file for changes, invoking onChange with
// each successfully reloaded snapshot. Parse errors during a watched reload
// are dropped silently, leaving Current() at its last good value.
func (l *Loader) Watch(onChange func(Config)) {
	l.onChange = onChange
	l.v.OnConfigChange(func(e fsnotify.Event) {
		_ = l.reload()
	})
	l.v.WatchConfig()
}

// DefaultConfig returns a Config populated entirely from defaults, useful
// for tests and the demo CLI when no file is supplied.
func DefaultConfig() Config {
	v := viper.New()
	defaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
