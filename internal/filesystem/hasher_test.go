package filesystem

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/spf13/afero"
)

func newMemFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestHasher_KnownDigests(t *testing.T) {
	fs := afero.NewMemMapFs()
	newMemFile(t, fs, "/hello.txt", "hello")
	newMemFile(t, fs, "/empty.txt", "")

	tests := []struct {
		algorithm string
		path      string
		expected  string
	}{
		{"sha256", "/hello.txt", "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
		{"md5", "/hello.txt", "5d41402abc4b2a76b9719d911017c592"},
		{"sha256", "/empty.txt", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"md5", "/empty.txt", "d41d8cd98f00b204e9800998ecf8427e"},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm+tt.path, func(t *testing.T) {
			h, err := NewHasher(fs, tt.algorithm, 0)
			if err != nil {
				t.Fatalf("NewHasher() error = %v", err)
			}
			got, _, err := h.Hash(tt.path)
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Hash(%s) = %s, want %s", tt.path, got, tt.expected)
			}
		})
	}
}

func TestHasher_DigestLengths(t *testing.T) {
	fs := afero.NewMemMapFs()
	newMemFile(t, fs, "/f", "some content")

	tests := []struct {
		algorithm string
		hexLen    int
	}{
		{"md5", 32},
		{"sha1", 40},
		{"sha256", 64},
		{"blake2b", 64},
		{"xxhash", 16},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			h, err := NewHasher(fs, tt.algorithm, 0)
			if err != nil {
				t.Fatalf("NewHasher() error = %v", err)
			}
			got, n, err := h.Hash("/f")
			if err != nil {
				t.Fatalf("Hash() error = %v", err)
			}
			if len(got) != tt.hexLen {
				t.Errorf("digest length = %d, want %d", len(got), tt.hexLen)
			}
			if n != int64(len("some content")) {
				t.Errorf("bytes read = %d, want %d", n, len("some content"))
			}
		})
	}
}

func TestHasher_ChunkSizeDoesNotChangeDigest(t *testing.T) {
	fs := afero.NewMemMapFs()
	newMemFile(t, fs, "/big.bin", strings.Repeat("0123456789abcdef", 5000))

	var first string
	for _, chunk := range []int{1, 7, 4096, 1 << 20} {
		h, err := NewHasher(fs, "sha256", chunk)
		if err != nil {
			t.Fatalf("NewHasher() error = %v", err)
		}
		got, _, err := h.Hash("/big.bin")
		if err != nil {
			t.Fatalf("Hash() error = %v", err)
		}
		if first == "" {
			first = got
		} else if got != first {
			t.Errorf("chunk size %d digest = %s, want %s", chunk, got, first)
		}
	}
}

func TestHasher_UnknownAlgorithm(t *testing.T) {
	if _, err := NewHasher(afero.NewMemMapFs(), "crc32", 0); err == nil {
		t.Error("NewHasher() expected error for unknown algorithm")
	}
}

func TestHasher_NonExistent(t *testing.T) {
	h, _ := NewHasher(afero.NewMemMapFs(), "sha256", 0)

	_, _, err := h.Hash("/nonexistent/file.bin")
	if !errors.Is(err, models.ErrUnreadable) {
		t.Errorf("Hash() error = %v, want ErrUnreadable", err)
	}
}

func TestHasher_HashContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	newMemFile(t, fs, "/f", "content")
	h, _ := NewHasher(fs, "sha256", 0)

	t.Run("completes", func(t *testing.T) {
		got, _, err := h.HashContext(context.Background(), "/f")
		if err != nil {
			t.Fatalf("HashContext() error = %v", err)
		}
		want, _, _ := h.Hash("/f")
		if got != want {
			t.Errorf("HashContext() = %s, want %s", got, want)
		}
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		_, _, err := h.HashContext(ctx, "/f")
		if !errors.Is(err, models.ErrHashTimeout) {
			t.Errorf("HashContext() error = %v, want ErrHashTimeout", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := h.HashContext(ctx, "/f")
		if !errors.Is(err, models.ErrCancelled) {
			t.Errorf("HashContext() error = %v, want ErrCancelled", err)
		}
	})
}
