// Package events handles event emission for roster and headshot lifecycle
// changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/counselboard/roster/pkg/kafka"
	"github.com/counselboard/roster/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

type rosterPublisher interface {
	PublishRosterEvent(ctx context.Context, event *kafka.RosterEvent) error
	PublishRosterEvents(ctx context.Context, events []*kafka.RosterEvent) error
}

// Emitter handles event emission for the roster service
type Emitter struct {
	producer rosterPublisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitHeadshotUploaded emits a headshot uploaded event
func (e *Emitter) EmitHeadshotUploaded(ctx context.Context, projectID string, payload HeadshotUploadedEvent) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitHeadshotUploaded")
	defer span.End()

	payload.SchemaVersion = SchemaVersion
	data, _ := json.Marshal(payload)

	event := &kafka.RosterEvent{
		EventType:  string(EventTypeHeadshotUploaded),
		ProjectID:  projectID,
		AttorneyID: payload.AttorneyID,
		Data:       data,
	}

	if err := e.producer.PublishRosterEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit headshot.uploaded event")
		return err
	}

	return nil
}

// EmitHeadshotUploadFailed emits a headshot upload failed event
func (e *Emitter) EmitHeadshotUploadFailed(ctx context.Context, projectID string, payload HeadshotUploadFailedEvent) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitHeadshotUploadFailed")
	defer span.End()

	payload.SchemaVersion = SchemaVersion
	data, _ := json.Marshal(payload)

	event := &kafka.RosterEvent{
		EventType:  string(EventTypeHeadshotUploadFailed),
		ProjectID:  projectID,
		AttorneyID: payload.AttorneyID,
		Data:       data,
	}

	if err := e.producer.PublishRosterEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit headshot.upload_failed event")
		return err
	}

	return nil
}

// EmitRosterImported emits a roster imported event
func (e *Emitter) EmitRosterImported(ctx context.Context, projectID string, payload RosterImportedEvent) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRosterImported")
	defer span.End()

	payload.SchemaVersion = SchemaVersion
	data, _ := json.Marshal(payload)

	event := &kafka.RosterEvent{
		EventType: string(EventTypeRosterImported),
		ProjectID: projectID,
		Data:      data,
	}

	if err := e.producer.PublishRosterEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit roster.imported event")
		return err
	}

	return nil
}

// EmitHeadshotOutcomes emits the per-row outcome events of one reconciled
// batch as a single publish
func (e *Emitter) EmitHeadshotOutcomes(ctx context.Context, projectID string, uploaded []HeadshotUploadedEvent, failed []HeadshotUploadFailedEvent) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitHeadshotOutcomes")
	defer span.End()

	batch := make([]*kafka.RosterEvent, 0, len(uploaded)+len(failed))
	for _, payload := range uploaded {
		payload.SchemaVersion = SchemaVersion
		data, _ := json.Marshal(payload)
		batch = append(batch, &kafka.RosterEvent{
			EventType:  string(EventTypeHeadshotUploaded),
			ProjectID:  projectID,
			AttorneyID: payload.AttorneyID,
			Data:       data,
		})
	}
	for _, payload := range failed {
		payload.SchemaVersion = SchemaVersion
		data, _ := json.Marshal(payload)
		batch = append(batch, &kafka.RosterEvent{
			EventType:  string(EventTypeHeadshotUploadFailed),
			ProjectID:  projectID,
			AttorneyID: payload.AttorneyID,
			Data:       data,
		})
	}

	if len(batch) == 0 {
		return nil
	}

	if err := e.producer.PublishRosterEvents(ctx, batch); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit headshot outcome events")
		return err
	}

	return nil
}
