package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func option(name string, score float64) ScoredOption {
	return ScoredOption{
		File:  File{Name: name},
		Stem:  name,
		Score: score,
	}
}

func TestClassifyEmptyOptions(t *testing.T) {
	status, selection := Classify(nil, DefaultThresholds())
	assert.Equal(t, StatusUnmatched, status)
	assert.Nil(t, selection)
}

func TestClassifyBelowLowThreshold(t *testing.T) {
	options := []ScoredOption{option("zzz_unrelated.png", 0.41)}

	status, selection := Classify(options, DefaultThresholds())
	assert.Equal(t, StatusUnmatched, status)
	assert.Nil(t, selection)
}

func TestClassifyHighConfidenceSelectsTop(t *testing.T) {
	options := []ScoredOption{
		option("smith_robert.jpg", 0.97),
		option("jones_alice.jpg", 0.55),
	}

	status, selection := Classify(options, DefaultThresholds())
	assert.Equal(t, StatusReady, status)
	require.NotNil(t, selection)
	assert.Equal(t, "smith_robert.jpg", selection.File.Name)
	assert.Equal(t, 0.97, selection.Score)
}

func TestClassifyTwoHighScorersWithinMargin(t *testing.T) {
	options := []ScoredOption{
		option("jane smith.png", 0.97),
		option("jane_smith_alt.png", 0.95),
	}

	status, selection := Classify(options, DefaultThresholds())
	assert.Equal(t, StatusReview, status)
	assert.Nil(t, selection)
}

func TestClassifyTwoHighScorersOutsideMargin(t *testing.T) {
	options := []ScoredOption{
		option("jane smith.png", 1.0),
		option("jane doe.png", 0.94),
	}

	status, selection := Classify(options, DefaultThresholds())
	assert.Equal(t, StatusReady, status)
	require.NotNil(t, selection)
	assert.Equal(t, "jane smith.png", selection.File.Name)
}

func TestClassifySecondHighScorerBelowHigh(t *testing.T) {
	// The two-high rule only applies when both scores clear the high bar
	options := []ScoredOption{
		option("jane smith.png", 0.95),
		option("j smith.png", 0.91),
	}

	status, selection := Classify(options, DefaultThresholds())
	assert.Equal(t, StatusReady, status)
	require.NotNil(t, selection)
	assert.Equal(t, "jane smith.png", selection.File.Name)
}

func TestClassifyMidBandNeedsReview(t *testing.T) {
	options := []ScoredOption{option("j smith.png", 0.85)}

	status, selection := Classify(options, DefaultThresholds())
	assert.Equal(t, StatusReview, status)
	assert.Nil(t, selection)
}

func TestClassifyBoundaryScores(t *testing.T) {
	thresholds := DefaultThresholds()

	// Exactly at the low threshold counts as a candidate
	status, _ := Classify([]ScoredOption{option("a.png", thresholds.Low)}, thresholds)
	assert.Equal(t, StatusReview, status)

	// Exactly at the high threshold auto-selects
	status, selection := Classify([]ScoredOption{option("a.png", thresholds.High)}, thresholds)
	assert.Equal(t, StatusReady, status)
	assert.NotNil(t, selection)
}

func TestClassifySelectionIsCopy(t *testing.T) {
	options := []ScoredOption{option("smith_robert.jpg", 0.97)}

	_, selection := Classify(options, DefaultThresholds())
	require.NotNil(t, selection)

	options[0].Score = 0.1
	assert.Equal(t, 0.97, selection.Score)
}

func TestClassifyIsDeterministic(t *testing.T) {
	options := []ScoredOption{
		option("jane smith.png", 0.97),
		option("jane_smith_alt.png", 0.95),
	}

	first, _ := Classify(options, DefaultThresholds())
	for i := 0; i < 10; i++ {
		status, _ := Classify(options, DefaultThresholds())
		assert.Equal(t, first, status)
	}
}
