package headshots

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/counselboard/roster/internal/repositories/attorney"
	"github.com/counselboard/roster/internal/repositories/project"
	"github.com/counselboard/roster/internal/repositories/upload"
	"github.com/counselboard/roster/pkg/events"
	"github.com/counselboard/roster/pkg/matching"
	"github.com/counselboard/roster/pkg/models"
	"github.com/counselboard/roster/pkg/tracing"
)

// Service coordinates headshot analysis and submission for projects. Each
// project gets its own pending queue; queues are created on first analysis
// and replaced on the next one.
type Service struct {
	client    *Client
	matcher   *matching.Matcher
	attorneys *attorney.Repository
	projects  *project.Repository
	uploads   *upload.Repository
	emitter   *events.Emitter
	cfg       OrchestratorConfig
	logger    ectologger.Logger

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

// NewService creates a headshot service
func NewService(
	client *Client,
	matcher *matching.Matcher,
	attorneys *attorney.Repository,
	projects *project.Repository,
	uploads *upload.Repository,
	emitter *events.Emitter,
	cfg OrchestratorConfig,
	logger ectologger.Logger,
) *Service {
	return &Service{
		client:    client,
		matcher:   matcher,
		attorneys: attorneys,
		projects:  projects,
		uploads:   uploads,
		emitter:   emitter,
		cfg:       cfg,
		logger:    logger,
		sessions:  make(map[string]*Orchestrator),
	}
}

// Analyze matches the dropped files against the project's attorneys that are
// still missing headshots and returns the resulting pending queue
func (s *Service) Analyze(ctx context.Context, projectTitle string, files []matching.File) ([]matching.Row, error) {
	ctx, span := tracing.StartSpan(ctx, "headshots.Service.Analyze")
	defer span.End()

	proj, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return nil, err
	}

	missing, err := s.attorneys.ListMissingHeadshots(ctx, proj.ID)
	if err != nil {
		return nil, err
	}

	entities := make([]matching.Entity, len(missing))
	for i, att := range missing {
		entities[i] = matching.Entity{ID: att.ID, Name: att.Name}
	}

	orch := s.session(proj.ID)
	return orch.Analyze(ctx, entities, files), nil
}

// Rows returns the current pending queue for a project
func (s *Service) Rows(ctx context.Context, projectTitle string) ([]matching.Row, error) {
	proj, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return nil, err
	}

	return s.session(proj.ID).Rows(), nil
}

// Override replaces one row's pairing with the operator's choice
func (s *Service) Override(ctx context.Context, projectTitle, attorneyID string, optionIndex int) (matching.Row, error) {
	ctx, span := tracing.StartSpan(ctx, "headshots.Service.Override")
	defer span.End()

	proj, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return matching.Row{}, err
	}

	return s.session(proj.ID).Override(attorneyID, optionIndex)
}

// SubmitBatch submits the project's ready rows as one batch, records the
// per-row outcomes, flags attorneys whose headshot landed, and emits
// lifecycle events. The returned queue reflects the reconciled state even
// when the batch as a whole failed in transit.
func (s *Service) SubmitBatch(ctx context.Context, projectTitle string) ([]matching.Row, error) {
	ctx, span := tracing.StartSpan(ctx, "headshots.Service.SubmitBatch")
	defer span.End()

	proj, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return nil, err
	}

	orch := s.session(proj.ID)
	queue, changed, submitErr := orch.SubmitBatch(ctx, projectTitle)
	if submitErr == ErrBatchInFlight {
		return nil, submitErr
	}

	s.recordOutcomes(ctx, proj.ID, changed)

	return queue, nil
}

// UploadSingle uploads one file for one attorney outside batch mode
func (s *Service) UploadSingle(ctx context.Context, projectTitle, attorneyID, fileName string, content []byte) error {
	ctx, span := tracing.StartSpan(ctx, "headshots.Service.UploadSingle")
	defer span.End()

	proj, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return err
	}

	att, err := s.attorneys.Get(ctx, attorneyID)
	if err != nil {
		return err
	}

	if err := s.client.UploadSingle(ctx, projectTitle, att.ID, fileName, content); err != nil {
		s.emitFailure(ctx, proj.ID, att.ID, fileName, err.Error())
		return err
	}

	if err := s.attorneys.SetHasHeadshot(ctx, att.ID, true); err != nil {
		return err
	}

	record := &models.HeadshotUpload{
		ProjectID:  proj.ID,
		AttorneyID: att.ID,
		FileName:   fileName,
		Outcome:    models.HeadshotOutcomeUploaded,
	}
	if err := s.uploads.RecordBatch(ctx, []*models.HeadshotUpload{record}); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to record single upload")
	}

	if err := s.emitter.EmitHeadshotUploaded(ctx, proj.ID, events.HeadshotUploadedEvent{
		AttorneyID: att.ID,
		FileName:   fileName,
		Outcome:    models.HeadshotOutcomeUploaded,
	}); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit upload event")
	}

	return nil
}

// History returns recent upload outcomes for a project
func (s *Service) History(ctx context.Context, projectTitle string, limit int) ([]models.HeadshotUpload, error) {
	proj, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return nil, err
	}

	return s.uploads.ListByProject(ctx, proj.ID, limit)
}

func (s *Service) session(projectID string) *Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	orch, ok := s.sessions[projectID]
	if !ok {
		orch = NewOrchestrator(s.client, s.matcher, s.cfg, s.logger)
		s.sessions[projectID] = orch
	}
	return orch
}

// recordOutcomes persists audit rows and emits events for the rows touched by
// one submission. Failures here are logged, not returned; the reconciled
// queue is already the source of truth for the operator.
func (s *Service) recordOutcomes(ctx context.Context, projectID string, changed []matching.Row) {
	if len(changed) == 0 {
		return
	}

	records := make([]*models.HeadshotUpload, 0, len(changed))
	uploaded := make([]events.HeadshotUploadedEvent, 0, len(changed))
	failed := make([]events.HeadshotUploadFailedEvent, 0, len(changed))
	for _, row := range changed {
		fileName := ""
		score := 0.0
		if row.Selection != nil {
			fileName = row.Selection.File.Name
			score = row.Selection.Score
		}

		if row.Upload.State == matching.UploadSuccess {
			records = append(records, &models.HeadshotUpload{
				ProjectID:  projectID,
				AttorneyID: row.EntityID,
				FileName:   fileName,
				Outcome:    row.Upload.Message,
				MatchScore: score,
			})

			if err := s.attorneys.SetHasHeadshot(ctx, row.EntityID, true); err != nil {
				s.logger.WithContext(ctx).WithError(err).Warn("Failed to flag attorney headshot")
			}

			uploaded = append(uploaded, events.HeadshotUploadedEvent{
				AttorneyID: row.EntityID,
				FileName:   fileName,
				Outcome:    row.Upload.Message,
				MatchScore: score,
			})
			continue
		}

		records = append(records, &models.HeadshotUpload{
			ProjectID:  projectID,
			AttorneyID: row.EntityID,
			FileName:   fileName,
			Outcome:    models.HeadshotOutcomeError,
			Message:    row.Upload.Message,
			MatchScore: score,
		})
		failed = append(failed, events.HeadshotUploadFailedEvent{
			AttorneyID: row.EntityID,
			FileName:   fileName,
			Reason:     row.Upload.Message,
		})
	}

	if err := s.emitter.EmitHeadshotOutcomes(ctx, projectID, uploaded, failed); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit upload outcome events")
	}

	if err := s.uploads.RecordBatch(ctx, records); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to record upload outcomes")
	}
}

func (s *Service) emitFailure(ctx context.Context, projectID, attorneyID, fileName, reason string) {
	if err := s.emitter.EmitHeadshotUploadFailed(ctx, projectID, events.HeadshotUploadFailedEvent{
		AttorneyID: attorneyID,
		FileName:   fileName,
		Reason:     reason,
	}); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit upload failure event")
	}
}
