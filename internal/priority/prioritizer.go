package priority

import (
	"sort"

	"github.com/IvanShishkin/dupehound/internal/config"
	"github.com/IvanShishkin/dupehound/pkg/models"
)

// DefaultThreshold is the name similarity required by the similar-name policy
const DefaultThreshold = 0.8

// Policy elects the file to retain from a duplicate group.
// Members must already be ordered by SortByModTime.
type Policy interface {
	Name() string
	Elect(members []*models.FileRecord) (*models.FileRecord, []*models.FileRecord)
}

// New returns the policy selected by configuration
func New(cfg *config.Config) Policy {
	if cfg.GetPriorityPolicy() == config.PolicySimilarName {
		threshold := cfg.SimilarityThreshold
		if threshold <= 0 {
			threshold = DefaultThreshold
		}
		return &SimilarNamePolicy{Threshold: threshold}
	}
	return &NewestPolicy{}
}

// SortByModTime orders members newest first, ties broken by path
func SortByModTime(members []*models.FileRecord) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].ModifiedAt != members[j].ModifiedAt {
			return members[i].ModifiedAt > members[j].ModifiedAt
		}
		return members[i].Path < members[j].Path
	})
}

// NewestPolicy keeps the most recently modified non-symlink file
type NewestPolicy struct{}

func (p *NewestPolicy) Name() string { return "newest" }

func (p *NewestPolicy) Elect(members []*models.FileRecord) (*models.FileRecord, []*models.FileRecord) {
	if len(members) == 0 {
		return nil, nil
	}
	return split(members, eligible(members)[0])
}

// SimilarNamePolicy prefers, among files whose name resembles the newest
// file's normalized name, the most recently modified one. Candidate stems are
// compared as they are, not normalized, so the newest file itself may fall
// outside the similar set: a newest "report (1).pdf" loses to an older
// "report.pdf". The elected file is therefore not always the newest one.
type SimilarNamePolicy struct {
	Threshold float64
}

func (p *SimilarNamePolicy) Name() string { return "similar-name" }

func (p *SimilarNamePolicy) Elect(members []*models.FileRecord) (*models.FileRecord, []*models.FileRecord) {
	if len(members) == 0 {
		return nil, nil
	}

	candidates := eligible(members)
	reference := NormalizeName(Stem(candidates[0].Path))

	// candidates are newest first, so the first similar one is the most recent
	for _, f := range candidates {
		if Ratio(reference, Stem(f.Path)) > p.Threshold {
			return split(members, f)
		}
	}
	return split(members, candidates[0])
}

// eligible returns the non-symlink members, or all members if every one is a symlink
func eligible(members []*models.FileRecord) []*models.FileRecord {
	var physical []*models.FileRecord
	for _, f := range members {
		if !f.IsSymlink {
			physical = append(physical, f)
		}
	}
	if len(physical) == 0 {
		return members
	}
	return physical
}

// split separates the elected file from the rest, preserving order
func split(members []*models.FileRecord, priority *models.FileRecord) (*models.FileRecord, []*models.FileRecord) {
	duplicates := make([]*models.FileRecord, 0, len(members)-1)
	for _, f := range members {
		if f != priority {
			duplicates = append(duplicates, f)
		}
	}
	return priority, duplicates
}
