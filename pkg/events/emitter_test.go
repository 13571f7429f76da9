package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counselboard/roster/pkg/kafka"
)

type capturingPublisher struct {
	single  []*kafka.RosterEvent
	batches [][]*kafka.RosterEvent
}

func (c *capturingPublisher) PublishRosterEvent(_ context.Context, event *kafka.RosterEvent) error {
	c.single = append(c.single, event)
	return nil
}

func (c *capturingPublisher) PublishRosterEvents(_ context.Context, events []*kafka.RosterEvent) error {
	c.batches = append(c.batches, events)
	return nil
}

func newTestEmitter(publisher rosterPublisher) *Emitter {
	return &Emitter{
		producer: publisher,
		logger:   ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}),
	}
}

func TestEmitHeadshotOutcomesPublishesOneBatch(t *testing.T) {
	publisher := &capturingPublisher{}
	emitter := newTestEmitter(publisher)

	err := emitter.EmitHeadshotOutcomes(context.Background(), "p1",
		[]HeadshotUploadedEvent{
			{AttorneyID: "a1", FileName: "jane_smith.png", Outcome: "uploaded", MatchScore: 0.97},
			{AttorneyID: "a3", FileName: "priya_natarajan.jpeg", Outcome: "skipped_existing", MatchScore: 1},
		},
		[]HeadshotUploadFailedEvent{
			{AttorneyID: "a2", FileName: "robert_jones.jpg", Reason: "corrupt image"},
		})
	require.NoError(t, err)

	assert.Empty(t, publisher.single)
	require.Len(t, publisher.batches, 1)
	batch := publisher.batches[0]
	require.Len(t, batch, 3)

	assert.Equal(t, string(EventTypeHeadshotUploaded), batch[0].EventType)
	assert.Equal(t, string(EventTypeHeadshotUploaded), batch[1].EventType)
	assert.Equal(t, string(EventTypeHeadshotUploadFailed), batch[2].EventType)
	assert.Equal(t, "a2", batch[2].AttorneyID)
	for _, event := range batch {
		assert.Equal(t, "p1", event.ProjectID)
	}

	var payload HeadshotUploadedEvent
	require.NoError(t, json.Unmarshal(batch[0].Data, &payload))
	assert.Equal(t, SchemaVersion, payload.SchemaVersion)
	assert.Equal(t, "jane_smith.png", payload.FileName)
	assert.InDelta(t, 0.97, payload.MatchScore, 1e-9)

	var failure HeadshotUploadFailedEvent
	require.NoError(t, json.Unmarshal(batch[2].Data, &failure))
	assert.Equal(t, SchemaVersion, failure.SchemaVersion)
	assert.Equal(t, "corrupt image", failure.Reason)
}

func TestEmitHeadshotOutcomesSkipsEmptyBatch(t *testing.T) {
	publisher := &capturingPublisher{}
	emitter := newTestEmitter(publisher)

	err := emitter.EmitHeadshotOutcomes(context.Background(), "p1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, publisher.batches)
}

func TestEmitRosterImportedStampsSchemaVersion(t *testing.T) {
	publisher := &capturingPublisher{}
	emitter := newTestEmitter(publisher)

	err := emitter.EmitRosterImported(context.Background(), "p1", RosterImportedEvent{
		ProjectTitle: "Acme Deal",
		Imported:     12,
		Skipped:      2,
	})
	require.NoError(t, err)

	require.Len(t, publisher.single, 1)
	event := publisher.single[0]
	assert.Equal(t, string(EventTypeRosterImported), event.EventType)

	var payload RosterImportedEvent
	require.NoError(t, json.Unmarshal(event.Data, &payload))
	assert.Equal(t, SchemaVersion, payload.SchemaVersion)
	assert.Equal(t, 12, payload.Imported)
}
