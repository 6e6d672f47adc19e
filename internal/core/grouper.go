package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/IvanShishkin/dupehound/internal/filesystem"
	"github.com/IvanShishkin/dupehound/internal/metrics"
	"github.com/IvanShishkin/dupehound/internal/priority"
	"github.com/IvanShishkin/dupehound/pkg/models"
	"go.uber.org/zap"
)

// HashProgressFunc is called while candidates are being hashed
type HashProgressFunc func(done, total int, path string)

type hashFunc func(ctx context.Context, path string) (string, int64, error)

// Grouper turns candidate records into duplicate groups
type Grouper struct {
	hash     hashFunc
	policy   priority.Policy
	workers  int
	timeout  time.Duration
	logger   *zap.Logger
	progress HashProgressFunc
}

// NewGrouper creates a grouper hashing with hasher on a pool of workers.
// timeout bounds each file; zero disables the per-file deadline.
func NewGrouper(hasher *filesystem.Hasher, policy priority.Policy, workers int, timeout time.Duration, logger *zap.Logger) *Grouper {
	if workers <= 0 {
		workers = 1
	}
	return &Grouper{
		hash:    hasher.HashContext,
		policy:  policy,
		workers: workers,
		timeout: timeout,
		logger:  logger,
	}
}

// SetProgressFunc sets the hashing progress callback
func (g *Grouper) SetProgressFunc(fn HashProgressFunc) {
	g.progress = fn
}

// hashResult represents the outcome of hashing a single file
type hashResult struct {
	record *models.FileRecord
	sum    string
	n      int64
	err    error
}

// Group partitions records by size, hashes every member of a shared size and
// builds one group per hash shared by at least two files. Symlink records are
// never hashed. Counters are added to stats. A cancelled context yields
// ErrCancelled and no result.
func (g *Grouper) Group(ctx context.Context, records []*models.FileRecord, stats *models.ScanStats) (*models.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrCancelled
	}

	sizes, bySize := partitionBySize(records)

	var candidates []*models.FileRecord
	for _, size := range sizes {
		candidates = append(candidates, bySize[size]...)
	}

	g.logger.Debug("Size partitioning complete",
		zap.Int("records", len(records)),
		zap.Int("partitions", len(sizes)),
		zap.Int("candidates", len(candidates)))

	if err := g.hashAll(ctx, candidates, stats); err != nil {
		return nil, err
	}

	result := &models.DetectionResult{Groups: []*models.DuplicateGroup{}}
	nextID := 1
	for _, size := range sizes {
		hashes, byHash := partitionByHash(bySize[size])
		for _, sum := range hashes {
			members := byHash[sum]
			priority.SortByModTime(members)
			keep, dups := g.policy.Elect(members)

			result.Groups = append(result.Groups, &models.DuplicateGroup{
				ID:          nextID,
				Hash:        sum,
				Size:        size,
				Priority:    keep,
				Duplicates:  dups,
				WastedBytes: size * int64(len(dups)),
			})
			nextID++
		}
	}
	result.Recompute()

	return result, nil
}

// hashAll hashes candidates on the worker pool and annotates each success
func (g *Grouper) hashAll(ctx context.Context, candidates []*models.FileRecord, stats *models.ScanStats) error {
	if len(candidates) == 0 {
		return nil
	}

	jobs := make(chan *models.FileRecord, g.workers*2)
	results := make(chan *hashResult, g.workers*2)

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < g.workers; i++ {
		wg.Add(1)
		go g.worker(ctx, &wg, jobs, results)
	}

	// Start results collector
	var collectWg sync.WaitGroup
	collectWg.Add(1)
	go g.collect(&collectWg, results, len(candidates), stats)

	// Dispatch, checking for cancellation between files
	cancelled := false
	for _, rec := range candidates {
		select {
		case <-ctx.Done():
			cancelled = true
		case jobs <- rec:
		}
		if cancelled {
			break
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	collectWg.Wait()

	if cancelled || ctx.Err() != nil {
		return models.ErrCancelled
	}
	return nil
}

// worker hashes files from the channel, each under its own deadline
func (g *Grouper) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan *models.FileRecord, results chan<- *hashResult) {
	defer wg.Done()

	for rec := range jobs {
		if ctx.Err() != nil {
			return
		}

		hashCtx, cancel := ctx, context.CancelFunc(func() {})
		if g.timeout > 0 {
			hashCtx, cancel = context.WithTimeout(ctx, g.timeout)
		}
		sum, n, err := g.hash(hashCtx, rec.Path)
		cancel()

		results <- &hashResult{record: rec, sum: sum, n: n, err: err}
	}
}

// collect applies hash results; it is the only writer of records and stats
func (g *Grouper) collect(wg *sync.WaitGroup, results <-chan *hashResult, total int, stats *models.ScanStats) {
	defer wg.Done()

	processed := 0
	lastReport := time.Now()

	for res := range results {
		processed++

		switch {
		case res.err == nil:
			res.record.SetHash(res.sum)
			stats.FilesHashed++
			stats.HashedBytes += res.n
			metrics.RecordHash(metrics.HashOK, res.n)
		case errors.Is(res.err, models.ErrCancelled):
			// the whole run is being discarded
		case errors.Is(res.err, models.ErrHashTimeout):
			stats.HashTimeouts++
			metrics.RecordHash(metrics.HashTimeout, 0)
			g.logger.Warn("Hash timed out, skipping file",
				zap.String("path", res.record.Path),
				zap.Duration("timeout", g.timeout))
		default:
			stats.Unreadable++
			stats.UnreadablePaths = append(stats.UnreadablePaths, res.record.Path)
			metrics.RecordHash(metrics.HashUnreadable, res.n)
			g.logger.Warn("Failed to hash file, skipping",
				zap.String("path", res.record.Path),
				zap.Error(res.err))
		}

		// Report progress every 100ms or every 100 files
		if g.progress != nil && (time.Since(lastReport) > 100*time.Millisecond || processed%100 == 0) {
			g.progress(processed, total, res.record.Path)
			lastReport = time.Now()
		}
	}

	if g.progress != nil {
		g.progress(processed, total, "")
	}
}

// partitionBySize buckets non-symlink records by size, dropping unique sizes.
// Sizes are returned largest first.
func partitionBySize(records []*models.FileRecord) ([]int64, map[int64][]*models.FileRecord) {
	bySize := make(map[int64][]*models.FileRecord)
	for _, rec := range records {
		if rec.IsSymlink {
			continue
		}
		bySize[rec.Size] = append(bySize[rec.Size], rec)
	}

	sizes := make([]int64, 0, len(bySize))
	for size, recs := range bySize {
		if len(recs) < 2 {
			delete(bySize, size)
			continue
		}
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] > sizes[j] })

	return sizes, bySize
}

// partitionByHash buckets hashed records by digest, dropping unique digests.
// Digests are returned in ascending order.
func partitionByHash(records []*models.FileRecord) ([]string, map[string][]*models.FileRecord) {
	byHash := make(map[string][]*models.FileRecord)
	for _, rec := range records {
		if rec.Hash == "" {
			continue
		}
		byHash[rec.Hash] = append(byHash[rec.Hash], rec)
	}

	hashes := make([]string, 0, len(byHash))
	for sum, recs := range byHash {
		if len(recs) < 2 {
			delete(byHash, sum)
			continue
		}
		hashes = append(hashes, sum)
	}
	sort.Strings(hashes)

	return hashes, byHash
}
