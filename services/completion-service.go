package services

import (
	"context"
	"errors"

	"estate-crm/microservices/deals-service/interfaces"
	"estate-crm/microservices/deals-service/logging"
	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionService decides whether a stage's generated work is done and
// auto-advances the stage when it is.
type CompletionService struct {
	stageService *StageService
	workItems    interfaces.WorkItemStore
}

func NewCompletionService(stageService *StageService, workItems interfaces.WorkItemStore) *CompletionService {
	return &CompletionService{
		stageService: stageService,
		workItems:    workItems,
	}
}

// EvaluateStage fetches every work item tagged with the stage and advances
// the stage when the set is non-empty and fully completed. A stage with no
// generated work is never auto-completed; it needs an explicit manual
// completion. Returns the completed stage when it advanced, nil otherwise.
//
// Idempotent: re-evaluating an already-completed stage hits the advance
// precondition, which is swallowed here as a benign no-op.
func (s *CompletionService) EvaluateStage(ctx context.Context, stageID primitive.ObjectID) (*models.Stage, error) {
	items, err := s.workItems.ListByTag(ctx, models.StageTag(stageID))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	for _, item := range items {
		if item.Status != models.WorkItemCompleted {
			return nil, nil
		}
	}

	stage, err := s.stageService.AdvanceStage(ctx, stageID)
	if errors.Is(err, models.ErrPreconditionFailed) {
		logging.Logger.Infof("Event ID: STAGE_ALREADY_ADVANCED, Description: Stage %s was not in progress during completion evaluation, skipping", stageID.Hex())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stage, nil
}
