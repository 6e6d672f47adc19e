package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetPriorityPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		expected PriorityPolicy
	}{
		{"Newest", "newest", PolicyNewest},
		{"Similar name", "similar-name", PolicySimilarName},
		{"Similar alias", "similar", PolicySimilarName},
		{"Default", "", PolicyNewest},
		{"Invalid", "oldest", PolicyNewest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{PriorityPolicy: tt.policy}
			if got := cfg.GetPriorityPolicy(); got != tt.expected {
				t.Errorf("GetPriorityPolicy() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Valid", Config{HashAlgorithm: "sha256", SimilarityThreshold: 0.8, SessionFormat: "json"}, false},
		{"YAML sessions", Config{HashAlgorithm: "xxhash", SessionFormat: "yaml"}, false},
		{"Unknown algorithm", Config{HashAlgorithm: "crc32"}, true},
		{"Threshold too high", Config{HashAlgorithm: "md5", SimilarityThreshold: 1.5}, true},
		{"Unknown session format", Config{HashAlgorithm: "md5", SessionFormat: "xml"}, true},
		{"Two-letter size units", Config{HashAlgorithm: "md5", MinSize: "10MB", ChunkSize: "64KB"}, false},
		{"Fractional min size", Config{HashAlgorithm: "md5", MinSize: "1.5G"}, true},
		{"Negative min size", Config{HashAlgorithm: "md5", MinSize: "-5"}, true},
		{"Garbage chunk size", Config{HashAlgorithm: "md5", ChunkSize: "abc"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultWorkers(t *testing.T) {
	n := DefaultWorkers()
	if n < 1 || n > 4 {
		t.Errorf("DefaultWorkers() = %d, want 1..4", n)
	}
}

func TestLoadConfig(t *testing.T) {
	// Test default config loading (without config file)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MinSize != "1M" {
		t.Errorf("Default min_size = %v, want %v", cfg.MinSize, "1M")
	}

	if cfg.HashAlgorithm != "sha256" {
		t.Errorf("Default hash_algorithm = %v, want %v", cfg.HashAlgorithm, "sha256")
	}

	if cfg.ChunkSize != "64K" {
		t.Errorf("Default chunk_size = %v, want %v", cfg.ChunkSize, "64K")
	}

	if cfg.HashTimeout != 60 {
		t.Errorf("Default hash_timeout = %v, want %v", cfg.HashTimeout, 60)
	}

	if cfg.SimilarityThreshold != 0.8 {
		t.Errorf("Default similarity_threshold = %v, want %v", cfg.SimilarityThreshold, 0.8)
	}

	if cfg.MaxErrorsShown != 5 {
		t.Errorf("Default max_errors_shown = %v, want %v", cfg.MaxErrorsShown, 5)
	}

	expectedExclude := []string{".git", ".svn", ".hg"}
	if len(cfg.Exclude) != len(expectedExclude) {
		t.Errorf("Default exclude count = %v, want %v", len(cfg.Exclude), len(expectedExclude))
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupehound.yaml")
	content := "min_size: 10K\nhash_algorithm: xxhash\npriority_policy: similar-name\ns3:\n  endpoint: http://localhost:9000\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.MinSize != "10K" {
		t.Errorf("min_size = %v, want 10K", cfg.MinSize)
	}
	if cfg.HashAlgorithm != "xxhash" {
		t.Errorf("hash_algorithm = %v, want xxhash", cfg.HashAlgorithm)
	}
	if cfg.GetPriorityPolicy() != PolicySimilarName {
		t.Errorf("priority policy = %v, want similar-name", cfg.PriorityPolicy)
	}
	if cfg.S3.Endpoint != "http://localhost:9000" {
		t.Errorf("s3.endpoint = %v", cfg.S3.Endpoint)
	}
	if cfg.S3.Region != "us-east-1" {
		t.Errorf("s3.region default = %v, want us-east-1", cfg.S3.Region)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DUPEHOUND_HASH_ALGORITHM", "md5")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.HashAlgorithm != "md5" {
		t.Errorf("hash_algorithm = %v, want md5 from environment", cfg.HashAlgorithm)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}
