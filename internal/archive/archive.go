// Package archive stores session snapshots on local disk or in S3.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/IvanShishkin/dupehound/internal/config"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const s3Scheme = "s3://"

// Backend reads and writes one session blob
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Type() string
	Location() string
}

// IsRemote reports whether location names an S3 object
func IsRemote(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// ParseS3Location splits "s3://bucket/key" into bucket and key
func ParseS3Location(location string) (string, string, error) {
	if !IsRemote(location) {
		return "", "", fmt.Errorf("not an s3 location: %s", location)
	}
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid s3 location %s (expected s3://bucket/key)", location)
	}
	return bucket, key, nil
}

// Open returns the backend for location: an S3 object for s3:// locations,
// otherwise a file on fs.
func Open(ctx context.Context, location string, s3cfg config.S3Config, fs afero.Fs, logger *zap.Logger) (Backend, error) {
	if location == "" {
		return nil, fmt.Errorf("session location is required")
	}

	if IsRemote(location) {
		bucket, key, err := ParseS3Location(location)
		if err != nil {
			return nil, err
		}
		logger.Debug("Using S3 session archive",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.String("endpoint", s3cfg.Endpoint))
		return NewS3Backend(ctx, s3cfg, bucket, key)
	}

	logger.Debug("Using local session archive", zap.String("path", location))
	return NewLocalBackend(fs, location), nil
}
