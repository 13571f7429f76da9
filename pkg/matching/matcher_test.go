package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchHighConfidenceInvertedFilename(t *testing.T) {
	matcher := NewMatcher(DefaultThresholds())

	entities := []Entity{{ID: "a1", Name: "Robert J. Smith Jr."}}
	files := []File{{Name: "smith_robert.jpg", Content: []byte("img")}}

	rows := matcher.Match(entities, files)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "a1", row.EntityID)
	assert.Equal(t, StatusReady, row.Status)
	require.NotNil(t, row.Selection)
	assert.Equal(t, "smith_robert.jpg", row.Selection.File.Name)
	assert.GreaterOrEqual(t, row.Selection.Score, 0.93)
	assert.Equal(t, UploadNone, row.Upload.State)
}

func TestMatchAmbiguousDuplicatesNeedReview(t *testing.T) {
	matcher := NewMatcher(DefaultThresholds())

	// Both stems score a perfect match against a name variant
	entities := []Entity{{ID: "a1", Name: "Jane Smith"}}
	files := []File{
		{Name: "jane_smith.png"},
		{Name: "smith_jane.png"},
	}

	rows := matcher.Match(entities, files)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, StatusReview, row.Status)
	assert.Nil(t, row.Selection)
	require.Len(t, row.Options, 2)
	assert.Equal(t, 1.0, row.Options[0].Score)
	assert.Equal(t, 1.0, row.Options[1].Score)
}

func TestMatchNoLexicalOverlapIsUnmatched(t *testing.T) {
	matcher := NewMatcher(DefaultThresholds())

	entities := []Entity{{ID: "a1", Name: "Jane Smith"}}
	files := []File{{Name: "zzz_unrelated.png"}}

	rows := matcher.Match(entities, files)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, StatusUnmatched, row.Status)
	assert.Nil(t, row.Selection)
	require.Len(t, row.Options, 1)
	assert.Less(t, row.Options[0].Score, 0.82)
}

func TestMatchNoFilesYieldsUnmatchedRows(t *testing.T) {
	matcher := NewMatcher(DefaultThresholds())

	entities := []Entity{
		{ID: "a1", Name: "Jane Smith"},
		{ID: "a2", Name: "Robert Smith"},
	}

	rows := matcher.Match(entities, nil)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Equal(t, StatusUnmatched, row.Status)
		assert.Nil(t, row.Selection)
		assert.Empty(t, row.Options)
	}
}

func TestMatchOptionsSortedDescending(t *testing.T) {
	matcher := NewMatcher(DefaultThresholds())

	entities := []Entity{{ID: "a1", Name: "Jane Smith"}}
	files := []File{
		{Name: "zzz_unrelated.png"},
		{Name: "jane_smith.png"},
		{Name: "j_smith.png"},
	}

	rows := matcher.Match(entities, files)
	require.Len(t, rows, 1)

	options := rows[0].Options
	require.Len(t, options, 3)
	for i := 1; i < len(options); i++ {
		assert.GreaterOrEqual(t, options[i-1].Score, options[i].Score)
	}
	assert.Equal(t, "jane_smith.png", options[0].File.Name)
}

func TestMatchEveryEntityGetsARow(t *testing.T) {
	matcher := NewMatcher(DefaultThresholds())

	entities := []Entity{
		{ID: "a1", Name: "Jane Smith"},
		{ID: "a2", Name: "Robert J. Smith"},
		{ID: "a3", Name: "Priya Natarajan"},
	}
	files := []File{
		{Name: "jane_smith.png"},
		{Name: "smith_robert.jpg"},
	}

	rows := matcher.Match(entities, files)
	require.Len(t, rows, 3)

	byID := make(map[string]Row, len(rows))
	for _, row := range rows {
		byID[row.EntityID] = row
	}

	assert.Equal(t, StatusReady, byID["a1"].Status)
	assert.Equal(t, StatusReady, byID["a2"].Status)
	assert.Equal(t, StatusUnmatched, byID["a3"].Status)
}

func TestRowOverride(t *testing.T) {
	matcher := NewMatcher(DefaultThresholds())

	entities := []Entity{{ID: "a1", Name: "Jane Smith"}}
	files := []File{
		{Name: "jane_smith.png"},
		{Name: "smith_jane.png"},
	}

	rows := matcher.Match(entities, files)
	require.Len(t, rows, 1)
	row := rows[0]
	require.Equal(t, StatusReview, row.Status)

	// Picking a concrete option forces ready
	row.Override(1)
	assert.Equal(t, StatusReady, row.Status)
	require.NotNil(t, row.Selection)
	assert.Equal(t, row.Options[1].File.Name, row.Selection.File.Name)

	// Out-of-range index clears the pairing
	row.Override(99)
	assert.Equal(t, StatusUnmatched, row.Status)
	assert.Nil(t, row.Selection)

	// Negative index also clears
	row.Override(0)
	require.NotNil(t, row.Selection)
	row.Override(-1)
	assert.Equal(t, StatusUnmatched, row.Status)
	assert.Nil(t, row.Selection)
}

func TestRowOverrideResetsUploadResult(t *testing.T) {
	row := Row{
		Options: []ScoredOption{
			{File: File{Name: "jane_smith.png"}, Stem: "jane smith", Score: 0.91},
		},
		Status: StatusReview,
		Upload: UploadResult{State: UploadError, Message: "failed"},
	}

	row.Override(0)
	assert.Equal(t, UploadNone, row.Upload.State)
	assert.Empty(t, row.Upload.Message)
}
