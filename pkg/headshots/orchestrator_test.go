package headshots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselboard/roster/pkg/matching"
)

type fakeUploader struct {
	results  []ItemResult
	err      error
	calls    int
	received []BatchItem
	project  string
}

func (f *fakeUploader) UploadBatch(_ context.Context, projectTitle string, items []BatchItem) ([]ItemResult, error) {
	f.calls++
	f.project = projectTitle
	f.received = items
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestOrchestrator(uploader BatchUploader, pruneDelay time.Duration) *Orchestrator {
	cfg := DefaultOrchestratorConfig()
	if pruneDelay > 0 {
		cfg.PruneDelay = pruneDelay
	}
	return NewOrchestrator(uploader, matching.NewMatcher(matching.DefaultThresholds()), cfg, testLogger())
}

func analyzeThreeReadyRows(t *testing.T, orch *Orchestrator) []matching.Row {
	t.Helper()

	entities := []matching.Entity{
		{ID: "a1", Name: "Jane Smith"},
		{ID: "a2", Name: "Robert Jones"},
		{ID: "a3", Name: "Priya Natarajan"},
	}
	files := []matching.File{
		{Name: "jane_smith.png", Content: []byte("one")},
		{Name: "robert_jones.jpg", Content: []byte("two")},
		{Name: "priya_natarajan.jpeg", Content: []byte("three")},
	}

	rows := orch.Analyze(context.Background(), entities, files)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Equal(t, matching.StatusReady, row.Status, "entity %s", row.EntityID)
	}
	return rows
}

func rowByID(t *testing.T, rows []matching.Row, id string) matching.Row {
	t.Helper()
	for _, row := range rows {
		if row.EntityID == id {
			return row
		}
	}
	t.Fatalf("no row for %s", id)
	return matching.Row{}
}

func TestSubmitBatchPositionalReconciliation(t *testing.T) {
	uploader := &fakeUploader{
		results: []ItemResult{
			{Status: "uploaded"},
			{Status: "error", Error: "corrupt image"},
			{Status: "skipped_existing"},
		},
	}
	orch := newTestOrchestrator(uploader, time.Hour)
	analyzeThreeReadyRows(t, orch)

	queue, changed, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.NoError(t, err)
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, "Acme Deal", uploader.project)
	require.Len(t, uploader.received, 3)
	assert.Len(t, changed, 3)

	first := rowByID(t, queue, uploader.received[0].AttorneyID)
	assert.Equal(t, matching.UploadSuccess, first.Upload.State)
	assert.Equal(t, "uploaded", first.Upload.Message)

	second := rowByID(t, queue, uploader.received[1].AttorneyID)
	assert.Equal(t, matching.UploadError, second.Upload.State)
	assert.Equal(t, "corrupt image", second.Upload.Message)

	third := rowByID(t, queue, uploader.received[2].AttorneyID)
	assert.Equal(t, matching.UploadSuccess, third.Upload.State)
	assert.Equal(t, "skipped_existing", third.Upload.Message)
}

func TestSubmitBatchTransportFailureMarksAllRows(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("connection refused")}
	orch := newTestOrchestrator(uploader, time.Hour)
	analyzeThreeReadyRows(t, orch)

	queue, changed, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.Error(t, err)
	assert.Len(t, changed, 3)

	for _, row := range queue {
		assert.Equal(t, matching.UploadError, row.Upload.State)
		assert.Equal(t, "failed", row.Upload.Message)
	}
}

func TestSubmitBatchRejectsDisallowedExtensions(t *testing.T) {
	uploader := &fakeUploader{
		results: []ItemResult{
			{Status: "uploaded"},
			{Status: "uploaded"},
		},
	}
	orch := newTestOrchestrator(uploader, time.Hour)

	entities := []matching.Entity{
		{ID: "a1", Name: "Jane Smith"},
		{ID: "a2", Name: "Robert Jones"},
		{ID: "a3", Name: "Priya Natarajan"},
	}
	files := []matching.File{
		{Name: "jane_smith.gif", Content: []byte("one")},
		{Name: "robert_jones.jpg", Content: []byte("two")},
		{Name: "priya_natarajan.jpeg", Content: []byte("three")},
	}
	rows := orch.Analyze(context.Background(), entities, files)
	for _, row := range rows {
		require.Equal(t, matching.StatusReady, row.Status)
	}

	queue, changed, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.NoError(t, err)
	assert.Len(t, changed, 3)

	// The gif never reaches the network
	require.Len(t, uploader.received, 2)
	for _, item := range uploader.received {
		assert.NotEqual(t, "a1", item.AttorneyID)
	}

	rejected := rowByID(t, queue, "a1")
	assert.Equal(t, matching.UploadError, rejected.Upload.State)
	assert.Equal(t, "unsupported file type", rejected.Upload.Message)
}

func TestSubmitBatchAllRejectedSkipsNetwork(t *testing.T) {
	uploader := &fakeUploader{}
	orch := newTestOrchestrator(uploader, time.Hour)

	entities := []matching.Entity{{ID: "a1", Name: "Jane Smith"}}
	files := []matching.File{{Name: "jane_smith.gif", Content: []byte("one")}}
	rows := orch.Analyze(context.Background(), entities, files)
	require.Equal(t, matching.StatusReady, rows[0].Status)

	queue, changed, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.NoError(t, err)
	assert.Equal(t, 0, uploader.calls)
	assert.Len(t, changed, 1)
	assert.Equal(t, matching.UploadError, queue[0].Upload.State)
}

func TestSubmitBatchSkipsNonReadyRows(t *testing.T) {
	uploader := &fakeUploader{results: []ItemResult{{Status: "uploaded"}}}
	orch := newTestOrchestrator(uploader, time.Hour)

	entities := []matching.Entity{
		{ID: "a1", Name: "Jane Smith"},
		{ID: "a2", Name: "Priya Natarajan"},
	}
	files := []matching.File{{Name: "jane_smith.png", Content: []byte("one")}}
	rows := orch.Analyze(context.Background(), entities, files)
	require.Equal(t, matching.StatusReady, rowByID(t, rows, "a1").Status)
	require.Equal(t, matching.StatusUnmatched, rowByID(t, rows, "a2").Status)

	_, changed, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.NoError(t, err)
	require.Len(t, uploader.received, 1)
	assert.Equal(t, "a1", uploader.received[0].AttorneyID)
	assert.Len(t, changed, 1)
}

func TestSubmitBatchMissingResultIsError(t *testing.T) {
	// Backend returned fewer results than items submitted
	uploader := &fakeUploader{results: []ItemResult{{Status: "uploaded"}}}
	orch := newTestOrchestrator(uploader, time.Hour)
	analyzeThreeReadyRows(t, orch)

	queue, _, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.NoError(t, err)

	errored := 0
	for _, row := range queue {
		if row.Upload.State == matching.UploadError {
			errored++
			assert.Equal(t, "no result returned for file", row.Upload.Message)
		}
	}
	assert.Equal(t, 2, errored)
}

func TestSuccessfulRowsPrunedAfterDelay(t *testing.T) {
	uploader := &fakeUploader{
		results: []ItemResult{
			{Status: "uploaded"},
			{Status: "error", Error: "corrupt image"},
			{Status: "uploaded"},
		},
	}
	orch := newTestOrchestrator(uploader, 20*time.Millisecond)
	analyzeThreeReadyRows(t, orch)

	queue, _, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.NoError(t, err)
	assert.Len(t, queue, 3)

	assert.Eventually(t, func() bool {
		return len(orch.Rows()) == 1
	}, time.Second, 10*time.Millisecond)

	remaining := orch.Rows()
	require.Len(t, remaining, 1)
	assert.Equal(t, matching.UploadError, remaining[0].Upload.State)
}

func TestReanalysisCancelsPendingPrunes(t *testing.T) {
	uploader := &fakeUploader{
		results: []ItemResult{
			{Status: "uploaded"},
			{Status: "uploaded"},
			{Status: "uploaded"},
		},
	}
	orch := newTestOrchestrator(uploader, 30*time.Millisecond)
	analyzeThreeReadyRows(t, orch)

	_, _, err := orch.SubmitBatch(context.Background(), "Acme Deal")
	require.NoError(t, err)

	// Re-analyzing replaces the queue before the prune fires; the stale
	// timers must not touch the new rows
	analyzeThreeReadyRows(t, orch)
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, orch.Rows(), 3)
}

// gatedUploader holds the upload open until the test releases it, so a test
// can interleave other calls with an in-flight batch.
type gatedUploader struct {
	started chan struct{}
	release chan struct{}
	results []ItemResult
}

func (g *gatedUploader) UploadBatch(_ context.Context, _ string, _ []BatchItem) ([]ItemResult, error) {
	close(g.started)
	<-g.release
	return g.results, nil
}

func newGatedUploader(results []ItemResult) *gatedUploader {
	return &gatedUploader{
		started: make(chan struct{}),
		release: make(chan struct{}),
		results: results,
	}
}

func TestReanalysisDuringInFlightBatchDiscardsResults(t *testing.T) {
	uploader := newGatedUploader([]ItemResult{
		{Status: "uploaded"},
		{Status: "uploaded"},
		{Status: "uploaded"},
	})
	orch := newTestOrchestrator(uploader, time.Hour)
	analyzeThreeReadyRows(t, orch)

	var (
		queue     []matching.Row
		changed   []matching.Row
		submitErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		queue, changed, submitErr = orch.SubmitBatch(context.Background(), "Acme Deal")
	}()
	<-uploader.started

	// A smaller roster replaces the queue while the upload is in flight
	rows := orch.Analyze(context.Background(),
		[]matching.Entity{{ID: "b1", Name: "Jane Smith"}},
		[]matching.File{{Name: "jane_smith.png", Content: []byte("one")}})
	require.Len(t, rows, 1)

	close(uploader.release)
	<-done

	// The stale results never land on the replacement queue
	require.NoError(t, submitErr)
	assert.Empty(t, changed)
	require.Len(t, queue, 1)
	assert.Equal(t, "b1", queue[0].EntityID)
	assert.Equal(t, matching.UploadNone, queue[0].Upload.State)

	current := orch.Rows()
	require.Len(t, current, 1)
	assert.Equal(t, matching.UploadNone, current[0].Upload.State)
}

func TestOverrideRejectedWhileBatchInFlight(t *testing.T) {
	uploader := newGatedUploader([]ItemResult{
		{Status: "uploaded"},
		{Status: "uploaded"},
		{Status: "uploaded"},
	})
	orch := newTestOrchestrator(uploader, time.Hour)
	analyzeThreeReadyRows(t, orch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = orch.SubmitBatch(context.Background(), "Acme Deal")
	}()
	<-uploader.started

	_, err := orch.Override("a1", -1)
	assert.ErrorIs(t, err, ErrBatchInFlight)

	_, _, err = orch.SubmitBatch(context.Background(), "Acme Deal")
	assert.ErrorIs(t, err, ErrBatchInFlight)

	close(uploader.release)
	<-done

	// Once the batch lands the override goes through
	row, err := orch.Override("a1", -1)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusUnmatched, row.Status)
}

func TestOverrideUnknownAttorney(t *testing.T) {
	orch := newTestOrchestrator(&fakeUploader{}, time.Hour)
	analyzeThreeReadyRows(t, orch)

	_, err := orch.Override("missing", 0)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestOverrideUpdatesQueueRow(t *testing.T) {
	orch := newTestOrchestrator(&fakeUploader{}, time.Hour)
	analyzeThreeReadyRows(t, orch)

	row, err := orch.Override("a1", -1)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusUnmatched, row.Status)

	stored := rowByID(t, orch.Rows(), "a1")
	assert.Equal(t, matching.StatusUnmatched, stored.Status)
}
