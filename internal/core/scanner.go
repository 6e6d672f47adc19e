package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IvanShishkin/dupehound/internal/config"
	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/internal/metrics"
	"github.com/IvanShishkin/dupehound/internal/priority"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Scan phases
const (
	PhaseCounting = "counting"
	PhaseScanning = "scanning"
	PhaseHashing  = "hashing"
	PhaseComplete = "complete"
)

// Share of the overall percentage taken by the directory walk
const scanShare = 20.0

// Progress is one progress observation
type Progress struct {
	Phase   string
	Current int
	Total   int
	Percent float64 // overall, 0-100
	Message string
}

// ProgressCallback is called to report scan progress
type ProgressCallback func(p Progress)

// Scanner is the duplicate detection engine: walk, size filter, hash, group, elect.
// One Scanner runs one scan at a time.
type Scanner struct {
	config           *config.Config
	logger           *zap.Logger
	fs               afero.Fs
	policy           priority.Policy
	progressCallback ProgressCallback
	mu               sync.Mutex
	cancel           context.CancelFunc
}

// NewScanner creates a new scanner instance
func NewScanner(cfg *config.Config, fs afero.Fs, logger *zap.Logger) *Scanner {
	return &Scanner{
		config: cfg,
		logger: logger,
		fs:     fs,
		policy: priority.New(cfg),
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progressCallback = cb
}

// Cancel stops the running scan at its next checkpoint.
// It is safe to call more than once and when no scan is running.
func (s *Scanner) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// reportProgress calls the progress callback if set
func (s *Scanner) reportProgress(phase string, current, total int, percent float64, message string) {
	if s.progressCallback != nil {
		s.progressCallback(Progress{
			Phase:   phase,
			Current: current,
			Total:   total,
			Percent: percent,
			Message: message,
		})
	}
}

// Scan finds duplicate files of at least minSize bytes under root.
// It fails with ErrInvalidDirectory for a bad root and with ErrCancelled,
// and no result, when cancelled.
func (s *Scanner) Scan(ctx context.Context, root string, minSize int64) (*models.DetectionResult, error) {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	walker := filesystem.NewWalker(s.fs, s.config.Exclude, s.logger)
	root, err := walker.ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	if minSize < 0 {
		return nil, fmt.Errorf("minimum size must not be negative (got: %d)", minSize)
	}

	chunkSize, err := filesystem.ParseSize(s.config.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("chunk_size: %w", err)
	}

	hasher, err := filesystem.NewHasher(s.fs, s.config.HashAlgorithm, int(chunkSize))
	if err != nil {
		return nil, err
	}

	workers := s.config.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers()
	}

	s.logger.Info("Starting scan",
		zap.String("path", root),
		zap.Int64("min_size", minSize),
		zap.String("algorithm", hasher.Algorithm()),
		zap.String("policy", s.policy.Name()),
		zap.Int("workers", workers))

	// Count files first
	s.reportProgress(PhaseCounting, 0, 0, 0, "Counting files...")
	totalEntries, err := walker.Count(ctx, root)
	if err != nil {
		return nil, err
	}
	s.reportProgress(PhaseCounting, totalEntries, totalEntries, 0, fmt.Sprintf("Found %d files", totalEntries))

	// Walk and collect candidates
	walker.SetProgressFunc(s.config.ProgressEvery, func(processed int, path string) {
		s.reportProgress(PhaseScanning, processed, totalEntries, scanPercent(processed, totalEntries),
			fmt.Sprintf("Scanned %d/%d files", processed, totalEntries))
	})

	var records []*models.FileRecord
	walkStats, err := walker.Walk(ctx, root, minSize, func(rec *models.FileRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, models.ErrCancelled
	}
	metrics.RecordEntries(walkStats.Entries)

	stats := models.ScanStats{
		EntriesSeen:     walkStats.Entries,
		Candidates:      walkStats.Candidates,
		SkippedSmall:    walkStats.SkippedSmall,
		Symlinks:        len(walkStats.Symlinks),
		Unreadable:      walkStats.Unreadable,
		UnreadablePaths: walkStats.UnreadablePaths,
		WorkersUsed:     workers,
	}

	// Hash and group
	grouper := NewGrouper(hasher, s.policy, workers, time.Duration(s.config.HashTimeout)*time.Second, s.logger)
	hashStart := time.Now()
	grouper.SetProgressFunc(func(done, total int, path string) {
		s.reportProgress(PhaseHashing, done, total, hashPercent(done, total), hashMessage(done, total, time.Since(hashStart)))
	})

	result, err := grouper.Group(ctx, records, &stats)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, models.ErrCancelled
	}

	result.Root = root
	result.MinSize = minSize
	result.Algorithm = hasher.Algorithm()
	result.Policy = s.policy.Name()
	result.Symlinks = walkStats.Symlinks
	stats.Duration = time.Since(start)
	result.Stats = stats

	metrics.RecordScan(stats.Duration, result.TotalGroups, result.TotalWastedBytes)
	s.reportProgress(PhaseComplete, result.TotalGroups, result.TotalGroups, 100,
		fmt.Sprintf("Found %d duplicate groups", result.TotalGroups))

	s.logger.Info("Scan completed",
		zap.Duration("duration", stats.Duration),
		zap.Int("groups", result.TotalGroups),
		zap.Int64("wasted_bytes", result.TotalWastedBytes),
		zap.Int("files_hashed", stats.FilesHashed))

	return result, nil
}

// scanPercent maps walk progress onto 0..scanShare
func scanPercent(processed, total int) float64 {
	if total <= 0 {
		return scanShare
	}
	if processed > total {
		processed = total
	}
	return scanShare * float64(processed) / float64(total)
}

// hashPercent maps hashing progress onto scanShare..100
func hashPercent(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return scanShare + (100-scanShare)*float64(done)/float64(total)
}

// hashMessage renders a status line with rate and ETA
func hashMessage(done, total int, elapsed time.Duration) string {
	if done == 0 || elapsed <= 0 {
		return fmt.Sprintf("Hashing %d/%d files", done, total)
	}
	rate := float64(done) / elapsed.Seconds()
	eta := time.Duration(float64(total-done) / rate * float64(time.Second))
	return fmt.Sprintf("Hashing %d/%d files (%.1f files/s, ETA %s)", done, total, rate, eta.Round(time.Second))
}
