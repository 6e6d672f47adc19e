package models

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ModTimeLayout is the human-readable rendering of FileRecord.ModifiedAt
const ModTimeLayout = "2006-01-02 15:04:05"

// FileID identifies one FileRecord across save/load cycles.
// It is derived from the content hash and the path, never from position.
type FileID string

// NewFileID builds the identifier for a hashed file
func NewFileID(hash, path string) FileID {
	return FileID(fmt.Sprintf("%016x", xxhash.Sum64String(hash+"\x00"+path)))
}

// FileRecord is one real file observed during a scan
type FileRecord struct {
	ID           FileID `json:"id,omitempty" yaml:"id,omitempty"`
	Path         string `json:"path" yaml:"path"`                   // Absolute path
	Size         int64  `json:"size" yaml:"size"`                   // Size in bytes
	ModifiedAt   int64  `json:"modified_at" yaml:"modified_at"`     // Modification time, Unix nanoseconds
	ModifiedText string `json:"modified_text" yaml:"modified_text"` // Modification time, human readable
	IsSymlink    bool   `json:"is_symlink" yaml:"is_symlink"`
	Hash         string `json:"hash,omitempty" yaml:"hash,omitempty"` // Set only after a successful hash
}

// NewFileRecord creates a record from walk metadata
func NewFileRecord(path string, size int64, modTime time.Time, isSymlink bool) *FileRecord {
	return &FileRecord{
		Path:         path,
		Size:         size,
		ModifiedAt:   modTime.UnixNano(),
		ModifiedText: modTime.Format(ModTimeLayout),
		IsSymlink:    isSymlink,
	}
}

// ModTime returns the modification time
func (f *FileRecord) ModTime() time.Time {
	return time.Unix(0, f.ModifiedAt)
}

// SetHash annotates the record with its digest and derives its ID
func (f *FileRecord) SetHash(hash string) {
	f.Hash = hash
	f.ID = NewFileID(hash, f.Path)
}

// SymlinkRecord is a symbolic link seen during the walk.
// Links are never hashed; they are kept for stale-reference decisions.
type SymlinkRecord struct {
	Path     string `json:"path" yaml:"path"`
	Target   string `json:"target" yaml:"target"`
	Dangling bool   `json:"dangling" yaml:"dangling"`
}
