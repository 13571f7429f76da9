package headshots

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/counselboard/roster/pkg/matching"
	"github.com/counselboard/roster/pkg/tracing"
)

// ErrBatchInFlight is returned when a submission or an override arrives while a
// previous submission for the same queue has not completed.
var ErrBatchInFlight = errors.New("a batch upload is already in progress")

// ErrRowNotFound is returned when an override targets an attorney that is not
// in the pending queue.
var ErrRowNotFound = errors.New("no pending row for attorney")

const failedBatchMessage = "failed"

// BatchUploader submits a batch of paired files and returns per-item results
// in submission order.
type BatchUploader interface {
	UploadBatch(ctx context.Context, projectTitle string, items []BatchItem) ([]ItemResult, error)
}

// OrchestratorConfig holds orchestrator tunables
type OrchestratorConfig struct {
	// AllowedExtensions are the accepted image file extensions, lowercase,
	// without the leading dot.
	AllowedExtensions []string
	// PruneDelay is how long a successfully uploaded row remains visible in
	// the pending queue before it is removed.
	PruneDelay time.Duration
}

// DefaultOrchestratorConfig returns the standard allow-list and prune delay
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		AllowedExtensions: []string{"jpg", "jpeg", "png"},
		PruneDelay:        3 * time.Second,
	}
}

// Orchestrator owns the pending queue produced by an analysis pass and
// coordinates batch submission against the image backend. All methods are
// safe for concurrent use; at most one batch submission runs at a time.
type Orchestrator struct {
	uploader BatchUploader
	matcher  *matching.Matcher
	logger   ectologger.Logger

	allowedExts map[string]struct{}
	pruneDelay  time.Duration

	mu         sync.Mutex
	rows       []matching.Row
	inFlight   bool
	generation int
}

// NewOrchestrator creates an orchestrator with an empty pending queue
func NewOrchestrator(uploader BatchUploader, matcher *matching.Matcher, cfg OrchestratorConfig, logger ectologger.Logger) *Orchestrator {
	exts := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return &Orchestrator{
		uploader:    uploader,
		matcher:     matcher,
		logger:      logger,
		allowedExts: exts,
		pruneDelay:  cfg.PruneDelay,
	}
}

// Analyze matches the given files against the roster and replaces the pending
// queue with the resulting rows. Rows from any previous analysis, including
// ones awaiting prune, are discarded.
func (o *Orchestrator) Analyze(ctx context.Context, entities []matching.Entity, files []matching.File) []matching.Row {
	ctx, span := tracing.StartSpan(ctx, "headshots.Orchestrator.Analyze")
	defer span.End()

	rows := o.matcher.Match(entities, files)

	o.mu.Lock()
	o.rows = rows
	o.generation++
	o.mu.Unlock()

	o.logger.WithContext(ctx).WithFields(map[string]any{
		"entities": len(entities),
		"files":    len(files),
		"rows":     len(rows),
	}).Info("Analyzed headshot batch")

	return cloneRows(rows)
}

// Rows returns a snapshot of the pending queue
func (o *Orchestrator) Rows() []matching.Row {
	o.mu.Lock()
	defer o.mu.Unlock()
	return cloneRows(o.rows)
}

// Override replaces the pairing for one attorney with the operator's choice.
// A negative optionIndex clears the pairing and marks the row unmatched. Any
// prior upload outcome on the row is reset. Rejected while a batch is in
// flight: the submission already captured the row's selection, and letting an
// override land mid-flight would let a stale result overwrite it.
func (o *Orchestrator) Override(attorneyID string, optionIndex int) (matching.Row, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return matching.Row{}, ErrBatchInFlight
	}

	for i := range o.rows {
		if o.rows[i].EntityID != attorneyID {
			continue
		}
		o.rows[i].Override(optionIndex)
		return o.rows[i], nil
	}

	return matching.Row{}, ErrRowNotFound
}

// SubmitBatch uploads every ready row's selected file as a single batch and
// reconciles the backend's per-item results back onto the queue. Rows whose
// selected file has a disallowed extension are marked failed without being
// submitted. Successful rows are pruned from the queue after the configured
// delay; failed rows stay for the operator to retry. Returns the
// post-reconciliation state of the full queue plus the rows whose upload
// outcome changed in this submission.
func (o *Orchestrator) SubmitBatch(ctx context.Context, projectTitle string) ([]matching.Row, []matching.Row, error) {
	ctx, span := tracing.StartSpan(ctx, "headshots.Orchestrator.SubmitBatch")
	defer span.End()

	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, nil, ErrBatchInFlight
	}
	o.inFlight = true

	generation := o.generation
	submitted := make([]int, 0, len(o.rows))
	touched := make([]int, 0, len(o.rows))
	items := make([]BatchItem, 0, len(o.rows))

	for i := range o.rows {
		row := &o.rows[i]
		if row.Status != matching.StatusReady || row.Selection == nil {
			continue
		}
		if row.Upload.State == matching.UploadSuccess {
			continue
		}

		if !o.extensionAllowed(row.Selection.File.Name) {
			row.Upload = matching.UploadResult{
				State:   matching.UploadError,
				Message: "unsupported file type",
			}
			touched = append(touched, i)
			continue
		}

		submitted = append(submitted, i)
		touched = append(touched, i)
		items = append(items, BatchItem{
			AttorneyID: row.EntityID,
			FileName:   row.Selection.File.Name,
			Content:    row.Selection.File.Content,
		})
	}

	if len(items) == 0 {
		o.inFlight = false
		rows := cloneRows(o.rows)
		changed := o.rowsAt(touched)
		o.mu.Unlock()
		return rows, changed, nil
	}
	o.mu.Unlock()

	results, err := o.uploader.UploadBatch(ctx, projectTitle, items)

	o.mu.Lock()
	defer func() {
		o.inFlight = false
		o.mu.Unlock()
	}()

	if o.generation != generation {
		// A newer analysis replaced the queue while the upload was in
		// flight. The captured indexes refer to rows that no longer
		// exist, so drop the results instead of writing them through.
		o.logger.WithContext(ctx).Warn("Pending queue replaced during batch upload, discarding results")
		return cloneRows(o.rows), nil, err
	}

	if err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("Batch upload failed")
		for _, idx := range submitted {
			o.rows[idx].Upload = matching.UploadResult{
				State:   matching.UploadError,
				Message: failedBatchMessage,
			}
		}
		return cloneRows(o.rows), o.rowsAt(touched), err
	}

	for pos, idx := range submitted {
		row := &o.rows[idx]
		if pos >= len(results) {
			row.Upload = matching.UploadResult{
				State:   matching.UploadError,
				Message: "no result returned for file",
			}
			continue
		}

		result := results[pos]
		switch result.Status {
		case "uploaded", "skipped_existing":
			row.Upload = matching.UploadResult{State: matching.UploadSuccess, Message: result.Status}
			o.schedulePrune(row.EntityID, generation)
		default:
			message := result.Error
			if message == "" {
				message = "upload failed"
			}
			row.Upload = matching.UploadResult{State: matching.UploadError, Message: message}
		}
	}

	return cloneRows(o.rows), o.rowsAt(touched), nil
}

// rowsAt copies the rows at the given indexes. Caller must hold the mutex.
func (o *Orchestrator) rowsAt(indexes []int) []matching.Row {
	out := make([]matching.Row, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, o.rows[idx])
	}
	return out
}

// schedulePrune removes a row from the queue after the prune delay. The
// generation check keeps a stale timer from touching rows created by a later
// analysis pass. Caller must hold the mutex.
func (o *Orchestrator) schedulePrune(attorneyID string, generation int) {
	time.AfterFunc(o.pruneDelay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		if o.generation != generation {
			return
		}

		for i := range o.rows {
			if o.rows[i].EntityID == attorneyID {
				o.rows = append(o.rows[:i], o.rows[i+1:]...)
				return
			}
		}
	})
}

func (o *Orchestrator) extensionAllowed(fileName string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	_, ok := o.allowedExts[ext]
	return ok
}

func cloneRows(rows []matching.Row) []matching.Row {
	out := make([]matching.Row, len(rows))
	copy(out, rows)
	return out
}
