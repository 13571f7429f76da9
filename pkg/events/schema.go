package events

import "time"

// EventType defines the type of event
type EventType string

const (
	// Headshot events
	EventTypeHeadshotUploaded     EventType = "headshot.uploaded"
	EventTypeHeadshotUploadFailed EventType = "headshot.upload_failed"

	// Roster events
	EventTypeRosterImported EventType = "roster.imported"
)

// HeadshotUploadedEvent is emitted when an attorney's headshot lands in the
// image backend, including when the backend reports it already had the file
type HeadshotUploadedEvent struct {
	SchemaVersion string    `json:"schema_version"`
	AttorneyID    string    `json:"attorney_id"`
	FileName      string    `json:"file_name"`
	Outcome       string    `json:"outcome"` // uploaded, skipped_existing
	MatchScore    float64   `json:"match_score,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// HeadshotUploadFailedEvent is emitted when an upload attempt fails
type HeadshotUploadFailedEvent struct {
	SchemaVersion string    `json:"schema_version"`
	AttorneyID    string    `json:"attorney_id"`
	FileName      string    `json:"file_name"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// RosterImportedEvent is emitted after a roster file is imported into a
// project
type RosterImportedEvent struct {
	SchemaVersion string    `json:"schema_version"`
	ProjectTitle  string    `json:"project_title"`
	Imported      int       `json:"imported"`
	Skipped       int       `json:"skipped"`
	Timestamp     time.Time `json:"timestamp"`
}
