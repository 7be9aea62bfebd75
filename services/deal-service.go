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

// DealService is the progression controller: it orchestrates stage
// completion, next-stage activation and the deal's current-stage pointer.
// All pointer mutations go through here.
type DealService struct {
	deals        interfaces.DealStore
	stages       interfaces.StageStore
	workItems    interfaces.WorkItemStore
	stageService *StageService
	completion   *CompletionService
}

func NewDealService(deals interfaces.DealStore, stages interfaces.StageStore, workItems interfaces.WorkItemStore, stageService *StageService, completion *CompletionService) *DealService {
	return &DealService{
		deals:        deals,
		stages:       stages,
		workItems:    workItems,
		stageService: stageService,
		completion:   completion,
	}
}

type CreateDealOptions struct {
	Name        string
	Category    models.DealCategory
	ClientName  string
	OwnerName   string
	PropertyRef string
	ProjectID   primitive.ObjectID
	StartDate   time.Time
	EndDate     time.Time
}

// CreateDeal inserts the deal with the current-stage pointer at 1 and
// creates its stage workflow from the catalog. Validation happens before
// any write.
func (s *DealService) CreateDeal(ctx context.Context, opts CreateDealOptions) (*models.Deal, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("deal name is required: %w", models.ErrValidation)
	}
	if !opts.Category.IsValid() {
		return nil, fmt.Errorf("unknown deal category %q: %w", opts.Category, models.ErrValidation)
	}
	if opts.StartDate.IsZero() || opts.EndDate.IsZero() || opts.EndDate.Before(opts.StartDate) {
		return nil, fmt.Errorf("invalid deal date range: %w", models.ErrValidation)
	}

	deal := &models.Deal{
		ID:           primitive.NewObjectID(),
		Name:         opts.Name,
		Category:     opts.Category,
		ClientName:   opts.ClientName,
		OwnerName:    opts.OwnerName,
		PropertyRef:  opts.PropertyRef,
		ProjectID:    opts.ProjectID,
		CurrentStage: 1,
		StartDate:    opts.StartDate,
		EndDate:      opts.EndDate,
	}
	if err := s.deals.InsertDeal(ctx, deal); err != nil {
		return nil, err
	}

	if _, err := s.stageService.CreateStagesForDeal(ctx, deal.ID, deal.Category); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: DEAL_CREATED, Description: Deal %q (%s) created with ID %s", deal.Name, deal.Category, deal.ID.Hex())
	return deal, nil
}

// GetDeal returns one deal by ID.
func (s *DealService) GetDeal(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, error) {
	return s.deals.GetDeal(ctx, dealID)
}

// MarkStageComplete is the explicit manual completion path, used when a
// stage has no generated work or an operator overrides. The stage
// transition is applied durably before the pointer update; a concurrent
// completion surfaces as ErrPreconditionFailed so the operator learns the
// action had no effect.
func (s *DealService) MarkStageComplete(ctx context.Context, stageID primitive.ObjectID) (*models.Stage, error) {
	stage, err := s.stageService.AdvanceStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if err := s.updateCurrentStage(ctx, stage.DealID); err != nil {
		return nil, err
	}
	return stage, nil
}

// OnWorkItemStatusChanged re-checks the owning stage of a changed work
// item and moves the deal pointer when the evaluation advanced the stage.
func (s *DealService) OnWorkItemStatusChanged(ctx context.Context, workItemID primitive.ObjectID) error {
	item, err := s.workItems.GetWorkItem(ctx, workItemID)
	if err != nil {
		return err
	}

	stageID, ok := models.StageIDFromTags(item.Tags)
	if !ok {
		// Not a stage-generated item; nothing to evaluate.
		return nil
	}

	stage, err := s.completion.EvaluateStage(ctx, stageID)
	if err != nil {
		return err
	}
	if stage == nil {
		return nil
	}
	return s.updateCurrentStage(ctx, stage.DealID)
}

// ChangeWorkItemStatus persists the new status and immediately re-checks
// the owning stage (pull-based path; external writers are covered by the
// change stream).
func (s *DealService) ChangeWorkItemStatus(ctx context.Context, workItemID primitive.ObjectID, status models.WorkItemStatus) error {
	switch status {
	case models.WorkItemPending, models.WorkItemInProgress, models.WorkItemCompleted:
	default:
		return fmt.Errorf("unknown work item status %q: %w", status, models.ErrValidation)
	}
	if err := s.workItems.UpdateStatus(ctx, workItemID, status); err != nil {
		return err
	}
	return s.OnWorkItemStatusChanged(ctx, workItemID)
}

// RunWorkItemWatcher pumps the project's work item change feed into
// OnWorkItemStatusChanged until ctx is cancelled. Evaluation errors are
// logged and the loop keeps running; each event is re-checkable later.
func (s *DealService) RunWorkItemWatcher(ctx context.Context, projectID primitive.ObjectID) error {
	events, err := s.workItems.WatchStatusChanges(ctx, projectID)
	if err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: WATCHER_STARTED, Description: Watching work item changes for project %s", projectID.Hex())

	for itemID := range events {
		if err := s.OnWorkItemStatusChanged(ctx, itemID); err != nil {
			logging.Logger.Errorf("Event ID: WATCHER_EVALUATION_ERROR, Description: Failed to evaluate work item %s: %v", itemID.Hex(), err)
		}
	}
	return ctx.Err()
}

// updateCurrentStage recomputes the pointer from the stage list: the order
// of the in_progress stage, or the last finished stage +1 clamped to the
// stage count. Issued strictly after the stage transition so a crash
// between the two leaves a retryable state, never an inconsistent pointer
// ahead of the workflow.
func (s *DealService) updateCurrentStage(ctx context.Context, dealID primitive.ObjectID) error {
	stages, err := s.stages.ListByDeal(ctx, dealID)
	if err != nil {
		return err
	}

	current := 1
	for _, stage := range stages {
		if stage.Status == models.StageInProgress {
			current = stage.Order
			break
		}
		if stage.Status.Done() {
			current = stage.Order + 1
		}
	}
	if current > len(stages) {
		current = len(stages)
	}

	if err := s.deals.SetCurrentStage(ctx, dealID, current); err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: DEAL_POINTER_UPDATED, Description: Deal %s current stage set to %d", dealID.Hex(), current)
	return nil
}
