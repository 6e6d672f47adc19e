package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/spf13/viper"
)

// Config represents the duplicate finder configuration
type Config struct {
	// Scan settings
	MinSize       string   `mapstructure:"min_size"`       // minimum file size to consider (e.g. "1M")
	Workers       int      `mapstructure:"workers"`        // number of hash worker goroutines
	ChunkSize     string   `mapstructure:"chunk_size"`     // read chunk size for hashing
	HashAlgorithm string   `mapstructure:"hash_algorithm"` // md5, sha1, sha256, blake2b, xxhash
	HashTimeout   int      `mapstructure:"hash_timeout"`   // per-file hash timeout (seconds)
	Exclude       []string `mapstructure:"exclude"`        // directory names to skip
	ProgressEvery int      `mapstructure:"progress_every"` // report progress every N entries

	// Priority settings
	PriorityPolicy      string  `mapstructure:"priority_policy"`      // newest, similar-name
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"` // name similarity ratio for similar-name

	// Report settings
	ReportFormat   string `mapstructure:"report_format"`    // text, json, md
	OutputFile     string `mapstructure:"output_file"`      // output file path
	MaxErrorsShown int    `mapstructure:"max_errors_shown"` // per-file errors printed after a batch

	// Session settings
	SessionFormat string `mapstructure:"session_format"` // json, yaml

	// Metrics settings
	MetricsFile string `mapstructure:"metrics_file"` // Prometheus textfile output

	// S3 settings for remote session archives
	S3 S3Config `mapstructure:"s3"`
}

// S3Config holds S3 connection settings
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PathStyle bool   `mapstructure:"path_style"`
}

// PriorityPolicy represents the retention rule
type PriorityPolicy int

const (
	PolicyNewest PriorityPolicy = iota
	PolicySimilarName
)

// Supported hash algorithms
var HashAlgorithms = []string{"md5", "sha1", "sha256", "blake2b", "xxhash"}

// DefaultWorkers returns the default hash worker count.
// Capped low so many large files are not read concurrently from one disk.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > 4 {
		n = 4
	}
	return n
}

// LoadConfig loads configuration from an optional file, environment variables and defaults
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("min_size", "1M")
	v.SetDefault("workers", DefaultWorkers())
	v.SetDefault("chunk_size", "64K")
	v.SetDefault("hash_algorithm", "sha256")
	v.SetDefault("hash_timeout", 60)
	v.SetDefault("exclude", []string{".git", ".svn", ".hg"})
	v.SetDefault("progress_every", 100)
	v.SetDefault("priority_policy", "newest")
	v.SetDefault("similarity_threshold", 0.8)
	v.SetDefault("report_format", "")
	v.SetDefault("max_errors_shown", 5)
	v.SetDefault("session_format", "json")
	v.SetDefault("metrics_file", "")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.path_style", true)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	// Read environment variables
	v.SetEnvPrefix("DUPEHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetPriorityPolicy returns the policy enum value
func (c *Config) GetPriorityPolicy() PriorityPolicy {
	switch c.PriorityPolicy {
	case "similar-name", "similar":
		return PolicySimilarName
	default:
		return PolicyNewest
	}
}

// Validate checks values that cannot be defaulted silently
func (c *Config) Validate() error {
	if !IsHashAlgorithm(c.HashAlgorithm) {
		return fmt.Errorf("hash_algorithm must be one of: %s (got: %s)", strings.Join(HashAlgorithms, ", "), c.HashAlgorithm)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be between 0 and 1 (got: %v)", c.SimilarityThreshold)
	}
	if _, err := filesystem.ParseSize(c.MinSize); err != nil {
		return fmt.Errorf("min_size: %w", err)
	}
	if _, err := filesystem.ParseSize(c.ChunkSize); err != nil {
		return fmt.Errorf("chunk_size: %w", err)
	}
	switch c.SessionFormat {
	case "", "json", "yaml", "yml":
	default:
		return fmt.Errorf("session_format must be json or yaml (got: %s)", c.SessionFormat)
	}
	return nil
}

// IsHashAlgorithm checks if name is a supported algorithm
func IsHashAlgorithm(name string) bool {
	for _, a := range HashAlgorithms {
		if a == name {
			return true
		}
	}
	return false
}
