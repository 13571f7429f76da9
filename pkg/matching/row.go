// Package matching pairs headshot files with attorney records using
// normalized-name similarity, and classifies each pairing as ready for
// upload, needing operator review, or unmatched.
package matching

// Entity is an attorney record subject to matching. Immutable during a
// matching pass.
type Entity struct {
	ID   string `json:"attorney_id"`
	Name string `json:"name"`
}

// File is a candidate headshot file: its name plus the payload the
// orchestrator submits later. Matching never inspects the payload, only the
// filename.
type File struct {
	Name    string `json:"name"`
	Content []byte `json:"-"`
}

// ScoredOption is one candidate file scored against an entity
type ScoredOption struct {
	File  File    `json:"file"`
	Stem  string  `json:"stem"`
	Score float64 `json:"score"`
}

// RowStatus is the classification of an entity-to-file pairing
type RowStatus string

const (
	StatusReady     RowStatus = "ready"
	StatusReview    RowStatus = "review"
	StatusUnmatched RowStatus = "unmatched"
)

// UploadState tracks the per-row outcome of a batch submission
type UploadState string

const (
	UploadNone    UploadState = "none"
	UploadSuccess UploadState = "success"
	UploadError   UploadState = "error"
)

// UploadResult is set when a batch response is reconciled, and cleared when
// the operator overrides the row or re-runs the analysis.
type UploadResult struct {
	State   UploadState `json:"state"`
	Message string      `json:"message,omitempty"`
}

// Row is the matching state for one entity within a single analysis pass.
// Selection is non-nil iff Status is ready.
type Row struct {
	EntityID   string         `json:"attorney_id"`
	EntityName string         `json:"attorney_name"`
	Options    []ScoredOption `json:"options"`
	Selection  *ScoredOption  `json:"selection,omitempty"`
	Status     RowStatus      `json:"status"`
	Upload     UploadResult   `json:"upload_result"`
}

// Override applies an operator's explicit choice of option. Picking a concrete
// option always forces the row to ready regardless of its score, and clears
// any prior upload result. An out-of-range index is treated as choosing "no
// file", which forces unmatched and clears the selection. The override is
// row-local.
func (r *Row) Override(optionIndex int) {
	r.Upload = UploadResult{State: UploadNone}

	if optionIndex < 0 || optionIndex >= len(r.Options) {
		r.Selection = nil
		r.Status = StatusUnmatched
		return
	}

	opt := r.Options[optionIndex]
	r.Selection = &opt
	r.Status = StatusReady
}
