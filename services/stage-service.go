package services

import (
	"context"
	"fmt"
	"time"

	"estate-crm/microservices/deals-service/interfaces"
	"estate-crm/microservices/deals-service/logging"
	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StageService owns the persisted stages of every deal: bulk creation from
// the catalog, reads, metadata edits and the advance transition.
type StageService struct {
	stages interfaces.StageStore

	// Now is the clock used for completion stamps; overridable in tests.
	Now func() time.Time
}

func NewStageService(stages interfaces.StageStore) *StageService {
	return &StageService{
		stages: stages,
		Now:    time.Now,
	}
}

// CreateStagesForDeal instantiates one stage per catalog entry for the
// deal. The first stage starts in_progress, the rest pending. Fails if the
// deal already has stages.
func (s *StageService) CreateStagesForDeal(ctx context.Context, dealID primitive.ObjectID, category models.DealCategory) ([]models.Stage, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown deal category %q: %w", category, models.ErrValidation)
	}

	count, err := s.stages.CountByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("deal %s already has stages: %w", dealID.Hex(), models.ErrPreconditionFailed)
	}

	entries := StageCatalog(category)
	stages := make([]models.Stage, len(entries))
	for i, entry := range entries {
		status := models.StagePending
		if entry.Order == 1 {
			status = models.StageInProgress
		}
		stages[i] = models.Stage{
			ID:       primitive.NewObjectID(),
			DealID:   dealID,
			Name:     entry.Name,
			Order:    entry.Order,
			Status:   status,
			Priority: models.PriorityMedium,
		}
	}

	if err := s.stages.InsertStages(ctx, stages); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: STAGES_CREATED, Description: Created %d stages for deal %s (%s)", len(stages), dealID.Hex(), category)
	return stages, nil
}

// ListStages returns the deal's stages ordered ascending by order.
func (s *StageService) ListStages(ctx context.Context, dealID primitive.ObjectID) ([]models.Stage, error) {
	return s.stages.ListByDeal(ctx, dealID)
}

// UpdateStageMetadata applies a partial edit of the stage's editable
// fields. Status and actual date are never touched here.
func (s *StageService) UpdateStageMetadata(ctx context.Context, stageID primitive.ObjectID, update models.StageMetadataUpdate) error {
	if update.Priority != nil {
		switch *update.Priority {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		default:
			return fmt.Errorf("unknown priority %q: %w", *update.Priority, models.ErrValidation)
		}
	}
	return s.stages.UpdateMetadata(ctx, stageID, update)
}

// SetStageDate is the narrow fast path for inline date edits, independent
// of UpdateStageMetadata so concurrent metadata edits are not clobbered.
func (s *StageService) SetStageDate(ctx context.Context, stageID primitive.ObjectID, date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("estimated date must not be zero: %w", models.ErrValidation)
	}
	return s.stages.SetEstimatedDate(ctx, stageID, date)
}

// AdvanceStage completes an in_progress stage, stamping the actual date,
// and activates the next pending stage if one exists. The only path that
// changes which stage is active. Returns the completed stage.
//
// The completion carries its precondition into the store, so a concurrent
// completion of the same stage makes the second caller fail with
// ErrPreconditionFailed instead of double-advancing the workflow.
func (s *StageService) AdvanceStage(ctx context.Context, stageID primitive.ObjectID) (*models.Stage, error) {
	stage, err := s.stages.GetStage(ctx, stageID)
	if err != nil {
		return nil, err
	}

	completedAt := s.Now()
	ok, err := s.stages.CompleteIfInProgress(ctx, stageID, completedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("stage %s is not in progress: %w", stageID.Hex(), models.ErrPreconditionFailed)
	}

	siblings, err := s.stages.ListByDeal(ctx, stage.DealID)
	if err != nil {
		return nil, err
	}
	for _, next := range siblings {
		if next.Order <= stage.Order {
			continue
		}
		// skipped stages are terminal and count as finished
		if next.Status.Done() {
			continue
		}
		if next.Status == models.StagePending {
			started, err := s.stages.StartIfPending(ctx, stage.DealID, next.Order)
			if err != nil {
				return nil, err
			}
			if started {
				logging.Logger.Infof("Event ID: STAGE_ACTIVATED, Description: Stage %d of deal %s is now in progress", next.Order, stage.DealID.Hex())
			}
		}
		break
	}

	stage.Status = models.StageCompleted
	stage.ActualDate = &completedAt
	logging.Logger.Infof("Event ID: STAGE_COMPLETED, Description: Stage %q (order %d) of deal %s completed", stage.Name, stage.Order, stage.DealID.Hex())
	return stage, nil
}

// EstimateStageDates evenly distributes the deal's calendar span across the
// stage count: stage i receives start + i*ceil(totalDays/count) days. A
// display default only; it is never persisted and an explicitly set
// estimated date always wins.
func EstimateStageDates(start, end time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	totalDays := int(end.Sub(start).Hours() / 24)
	if totalDays < 0 {
		totalDays = 0
	}
	perStageDays := (totalDays + count - 1) / count

	dates := make([]time.Time, count)
	for i := 0; i < count; i++ {
		dates[i] = start.AddDate(0, 0, i*perStageDays)
	}
	return dates
}
