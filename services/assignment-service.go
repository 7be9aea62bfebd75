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

// AssignmentService maps team members to stages and generates the work
// item each assignment batch collaborates on.
type AssignmentService struct {
	stages      interfaces.StageStore
	deals       interfaces.DealStore
	assignments interfaces.AssignmentStore
	workItems   interfaces.WorkItemStore
	notifier    interfaces.Notifier

	Now func() time.Time
}

func NewAssignmentService(stages interfaces.StageStore, deals interfaces.DealStore, assignments interfaces.AssignmentStore, workItems interfaces.WorkItemStore, notifier interfaces.Notifier) *AssignmentService {
	return &AssignmentService{
		stages:      stages,
		deals:       deals,
		assignments: assignments,
		workItems:   workItems,
		notifier:    notifier,
		Now:         time.Now,
	}
}

// AssignmentOptions carries the stage metadata persisted together with an
// assignment edit.
type AssignmentOptions struct {
	Priority    models.Priority
	DueDate     *time.Time
	Attachments []string
	Comment     string
}

// AssignMembers reconciles the stage's assignments against memberIDs.
// Members no longer listed are unassigned (their work items stay, for
// audit history). Newly added members get one shared work item for the
// whole batch and one assignment record referencing it, with the first
// added member as primary holder. The work item is created before the
// assignment so a failed item creation never leaves a dangling assignment.
// An empty memberIDs list is a pure removal.
func (s *AssignmentService) AssignMembers(ctx context.Context, stageID primitive.ObjectID, memberIDs []primitive.ObjectID, opts AssignmentOptions) error {
	stage, err := s.stages.GetStage(ctx, stageID)
	if err != nil {
		return err
	}
	deal, err := s.deals.GetDeal(ctx, stage.DealID)
	if err != nil {
		return err
	}

	existing, err := s.assignments.ListByStage(ctx, stageID)
	if err != nil {
		return err
	}

	current := map[primitive.ObjectID]bool{}
	for _, a := range existing {
		for _, m := range a.Members {
			current[m] = true
		}
	}
	requested := map[primitive.ObjectID]bool{}
	for _, m := range memberIDs {
		requested[m] = true
	}

	var toAdd []primitive.ObjectID
	for _, m := range memberIDs {
		if !current[m] && !containsID(toAdd, m) {
			toAdd = append(toAdd, m)
		}
	}
	var toRemove []primitive.ObjectID
	for m := range current {
		if !requested[m] {
			toRemove = append(toRemove, m)
		}
	}

	if err := s.assignments.RemoveMembers(ctx, stageID, toRemove); err != nil {
		return err
	}

	if len(toAdd) > 0 {
		item := &models.WorkItem{
			ID:          primitive.NewObjectID(),
			Title:       fmt.Sprintf("%s: %s", deal.Name, stage.Name),
			Description: workItemDescription(deal, stage),
			DueDate:     opts.DueDate,
			Priority:    opts.Priority,
			Status:      models.WorkItemPending,
			Assignees:   toAdd,
			Tags:        []string{models.StageTag(stageID)},
			ProjectID:   deal.ProjectID,
		}
		if item.Priority == "" {
			item.Priority = models.PriorityMedium
		}
		if err := s.workItems.InsertWorkItem(ctx, item); err != nil {
			return err
		}

		assignment := &models.Assignment{
			ID:          primitive.NewObjectID(),
			StageID:     stageID,
			MemberID:    toAdd[0],
			Members:     toAdd,
			WorkItemID:  &item.ID,
			Priority:    item.Priority,
			Attachments: opts.Attachments,
			CreatedAt:   s.Now(),
		}
		if err := s.assignments.InsertAssignment(ctx, assignment); err != nil {
			return err
		}

		for _, memberID := range toAdd {
			s.notifier.Notify(ctx, memberID, fmt.Sprintf("You were assigned to stage %q of deal %q", stage.Name, deal.Name))
		}
	}

	update := models.StageMetadataUpdate{
		EstimatedDate: opts.DueDate,
		Attachments:   opts.Attachments,
	}
	if opts.Priority != "" {
		update.Priority = &opts.Priority
	}
	if opts.Comment != "" {
		update.Comment = &opts.Comment
	}
	if err := s.stages.UpdateMetadata(ctx, stageID, update); err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: MEMBERS_ASSIGNED, Description: Stage %s of deal %s: %d added, %d removed", stageID.Hex(), deal.ID.Hex(), len(toAdd), len(toRemove))
	return nil
}

func workItemDescription(deal *models.Deal, stage *models.Stage) string {
	return fmt.Sprintf("Deal %q, stage %q. Client: %s, owner: %s, property: %s.",
		deal.Name, stage.Name, deal.ClientName, deal.OwnerName, deal.PropertyRef)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
