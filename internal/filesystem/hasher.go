package filesystem

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

// DefaultChunkSize is used when no chunk size is configured
const DefaultChunkSize = 64 * 1024

// NewDigest returns a fresh hash.Hash for the named algorithm
func NewDigest(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256", "":
		return sha256.New(), nil
	case "blake2b":
		return blake2b.New256(nil)
	case "xxhash":
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %s", algorithm)
	}
}

// Hasher streams files in fixed-size chunks into a digest.
// One Hasher uses one algorithm for its whole lifetime.
type Hasher struct {
	fs        afero.Fs
	algorithm string
	chunkSize int
}

// NewHasher creates a hasher; chunkSize <= 0 selects DefaultChunkSize
func NewHasher(fs afero.Fs, algorithm string, chunkSize int) (*Hasher, error) {
	if algorithm == "" {
		algorithm = "sha256"
	}
	if _, err := NewDigest(algorithm); err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Hasher{fs: fs, algorithm: algorithm, chunkSize: chunkSize}, nil
}

// Algorithm returns the digest name
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Hash computes the digest of path, returning the hex digest and bytes read
func (h *Hasher) Hash(path string) (string, int64, error) {
	return h.hash(context.Background(), path)
}

type hashOutcome struct {
	sum string
	n   int64
	err error
}

// HashContext computes the digest, giving up when ctx is done.
// A read blocked in the kernel keeps its goroutine until it returns,
// but the caller is released at the deadline.
func (h *Hasher) HashContext(ctx context.Context, path string) (string, int64, error) {
	done := make(chan hashOutcome, 1)
	go func() {
		sum, n, err := h.hash(ctx, path)
		done <- hashOutcome{sum: sum, n: n, err: err}
	}()

	select {
	case out := <-done:
		return out.sum, out.n, out.err
	case <-ctx.Done():
		return "", 0, contextError(ctx.Err(), path)
	}
}

// hash reads the file sequentially, checking ctx between chunks
func (h *Hasher) hash(ctx context.Context, path string) (string, int64, error) {
	digest, err := NewDigest(h.algorithm)
	if err != nil {
		return "", 0, err
	}

	file, err := h.fs.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", models.ErrUnreadable, err)
	}
	defer file.Close()

	buf := make([]byte, h.chunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return "", total, contextError(err, path)
		}

		n, readErr := file.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
			total += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", total, fmt.Errorf("%w: %w", models.ErrUnreadable, readErr)
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), total, nil
}

// contextError maps a context error onto the hashing taxonomy
func contextError(err error, path string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", models.ErrHashTimeout, path)
	}
	return fmt.Errorf("%w: %s", models.ErrCancelled, path)
}
