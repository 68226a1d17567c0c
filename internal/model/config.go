package model

import "time"

// Config is the process-wide configuration, built once at startup and
// passed by value into the components that need it. Core logic never reads
// the environment directly.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BodyLimit    int           `yaml:"body_limit"`
}

// RetrievalConfig holds feature flags and tuning knobs for the retrieval
// layer
type RetrievalConfig struct {
	EnableClinVar     bool          `yaml:"enable_clinvar"`
	MaxRecords        int           `yaml:"max_records"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RetryWait         time.Duration `yaml:"retry_wait"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// CacheConfig controls the in-memory cache for raw retrieval payloads
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output_path"`
}

// DefaultConfig returns the built-in defaults. The retrieval rate limit
// stays under NCBI's 3 req/s ceiling for keyless eutils clients.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			BodyLimit:    1 << 20,
		},
		Retrieval: RetrievalConfig{
			EnableClinVar:     false,
			MaxRecords:        5,
			MaxAttempts:       3,
			RetryWait:         200 * time.Millisecond,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 3,
			Burst:             3,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             15 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
