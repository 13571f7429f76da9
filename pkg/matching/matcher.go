package matching

import (
	"sort"

	"github.com/counselboard/roster/pkg/names"
)

// Matcher builds matching rows for a set of entities against a set of
// candidate files
type Matcher struct {
	scorer     *Scorer
	thresholds Thresholds
}

// NewMatcher creates a Matcher with the given classification thresholds
func NewMatcher(thresholds Thresholds) *Matcher {
	return &Matcher{
		scorer:     NewScorer(),
		thresholds: thresholds,
	}
}

// Match scores every candidate file against every entity and returns one
// classified Row per entity. Entity name variants and file stems are each
// normalized once per pass. No entity is dropped: with zero candidate files
// its options list is empty and it classifies unmatched.
func (m *Matcher) Match(entities []Entity, files []File) []Row {
	// Normalize every stem once up front
	stems := make([]string, len(files))
	for i, f := range files {
		stems[i] = names.NormalizeStem(f.Name)
	}

	rows := make([]Row, 0, len(entities))

	for _, entity := range entities {
		variants := names.Variants(names.Normalize(entity.Name))

		options := make([]ScoredOption, 0, len(files))
		for i, f := range files {
			best := 0.0
			for _, v := range variants {
				if score := m.scorer.JaroWinkler(stems[i], v); score > best {
					best = score
				}
			}
			options = append(options, ScoredOption{File: f, Stem: stems[i], Score: best})
		}

		// Descending by score, stable so ties keep original file order
		sort.SliceStable(options, func(i, j int) bool {
			return options[i].Score > options[j].Score
		})

		status, selection := Classify(options, m.thresholds)

		rows = append(rows, Row{
			EntityID:   entity.ID,
			EntityName: entity.Name,
			Options:    options,
			Selection:  selection,
			Status:     status,
			Upload:     UploadResult{State: UploadNone},
		})
	}

	return rows
}
