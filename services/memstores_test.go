package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"estate-crm/microservices/deals-service/interfaces"
	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory implementation of every store interface plus
// the notifier, mirroring the Mongo repositories' semantics (including the
// status-qualified preconditions) closely enough to test the services.
type memStore struct {
	deals       map[primitive.ObjectID]*models.Deal
	stages      map[primitive.ObjectID]*models.Stage
	assignments map[primitive.ObjectID]*models.Assignment
	workItems   map[primitive.ObjectID]*models.WorkItem

	notifications []string
	events        chan primitive.ObjectID

	failWorkItemInsert bool
}

var (
	_ interfaces.DealStore       = (*memStore)(nil)
	_ interfaces.StageStore      = (*memStore)(nil)
	_ interfaces.AssignmentStore = (*memStore)(nil)
	_ interfaces.WorkItemStore   = (*memStore)(nil)
	_ interfaces.Notifier        = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		deals:       map[primitive.ObjectID]*models.Deal{},
		stages:      map[primitive.ObjectID]*models.Stage{},
		assignments: map[primitive.ObjectID]*models.Assignment{},
		workItems:   map[primitive.ObjectID]*models.WorkItem{},
		events:      make(chan primitive.ObjectID, 16),
	}
}

func (m *memStore) InsertDeal(ctx context.Context, deal *models.Deal) error {
	copied := *deal
	m.deals[deal.ID] = &copied
	return nil
}

func (m *memStore) GetDeal(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, error) {
	deal, ok := m.deals[dealID]
	if !ok {
		return nil, fmt.Errorf("deal %s: %w", dealID.Hex(), models.ErrNotFound)
	}
	copied := *deal
	return &copied, nil
}

func (m *memStore) SetCurrentStage(ctx context.Context, dealID primitive.ObjectID, current int) error {
	deal, ok := m.deals[dealID]
	if !ok {
		return fmt.Errorf("deal %s: %w", dealID.Hex(), models.ErrNotFound)
	}
	deal.CurrentStage = current
	return nil
}

func (m *memStore) InsertStages(ctx context.Context, stages []models.Stage) error {
	for i := range stages {
		copied := stages[i]
		m.stages[copied.ID] = &copied
	}
	return nil
}

func (m *memStore) CountByDeal(ctx context.Context, dealID primitive.ObjectID) (int64, error) {
	var count int64
	for _, stage := range m.stages {
		if stage.DealID == dealID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) GetStage(ctx context.Context, stageID primitive.ObjectID) (*models.Stage, error) {
	stage, ok := m.stages[stageID]
	if !ok {
		return nil, fmt.Errorf("stage %s: %w", stageID.Hex(), models.ErrNotFound)
	}
	copied := *stage
	return &copied, nil
}

func (m *memStore) ListByDeal(ctx context.Context, dealID primitive.ObjectID) ([]models.Stage, error) {
	var stages []models.Stage
	for _, stage := range m.stages {
		if stage.DealID == dealID {
			stages = append(stages, *stage)
		}
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].Order < stages[j].Order })
	return stages, nil
}

func (m *memStore) UpdateMetadata(ctx context.Context, stageID primitive.ObjectID, update models.StageMetadataUpdate) error {
	stage, ok := m.stages[stageID]
	if !ok {
		return fmt.Errorf("stage %s: %w", stageID.Hex(), models.ErrNotFound)
	}
	if update.EstimatedDate != nil {
		date := *update.EstimatedDate
		stage.EstimatedDate = &date
	}
	if update.Priority != nil {
		stage.Priority = *update.Priority
	}
	if update.Comment != nil {
		stage.Comment = *update.Comment
	}
	if update.Attachments != nil {
		stage.Attachments = update.Attachments
	}
	return nil
}

func (m *memStore) SetEstimatedDate(ctx context.Context, stageID primitive.ObjectID, date time.Time) error {
	stage, ok := m.stages[stageID]
	if !ok {
		return fmt.Errorf("stage %s: %w", stageID.Hex(), models.ErrNotFound)
	}
	stage.EstimatedDate = &date
	return nil
}

func (m *memStore) CompleteIfInProgress(ctx context.Context, stageID primitive.ObjectID, completedAt time.Time) (bool, error) {
	stage, ok := m.stages[stageID]
	if !ok || stage.Status != models.StageInProgress {
		return false, nil
	}
	stage.Status = models.StageCompleted
	stage.ActualDate = &completedAt
	return true, nil
}

func (m *memStore) StartIfPending(ctx context.Context, dealID primitive.ObjectID, order int) (bool, error) {
	for _, stage := range m.stages {
		if stage.DealID == dealID && stage.Order == order && stage.Status == models.StagePending {
			stage.Status = models.StageInProgress
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertAssignment(ctx context.Context, assignment *models.Assignment) error {
	copied := *assignment
	m.assignments[assignment.ID] = &copied
	return nil
}

func (m *memStore) ListByStage(ctx context.Context, stageID primitive.ObjectID) ([]models.Assignment, error) {
	var assignments []models.Assignment
	for _, a := range m.assignments {
		if a.StageID == stageID {
			assignments = append(assignments, *a)
		}
	}
	return assignments, nil
}

func (m *memStore) RemoveMembers(ctx context.Context, stageID primitive.ObjectID, memberIDs []primitive.ObjectID) error {
	if len(memberIDs) == 0 {
		return nil
	}
	removed := map[primitive.ObjectID]bool{}
	for _, id := range memberIDs {
		removed[id] = true
	}
	for id, a := range m.assignments {
		if a.StageID != stageID {
			continue
		}
		var kept []primitive.ObjectID
		for _, member := range a.Members {
			if !removed[member] {
				kept = append(kept, member)
			}
		}
		a.Members = kept
		if len(kept) == 0 {
			delete(m.assignments, id)
		}
	}
	return nil
}

func (m *memStore) InsertWorkItem(ctx context.Context, item *models.WorkItem) error {
	if m.failWorkItemInsert {
		return fmt.Errorf("work item insert rejected: %w", models.ErrPersistence)
	}
	copied := *item
	m.workItems[item.ID] = &copied
	return nil
}

func (m *memStore) GetWorkItem(ctx context.Context, itemID primitive.ObjectID) (*models.WorkItem, error) {
	item, ok := m.workItems[itemID]
	if !ok {
		return nil, fmt.Errorf("work item %s: %w", itemID.Hex(), models.ErrNotFound)
	}
	copied := *item
	return &copied, nil
}

func (m *memStore) ListByTag(ctx context.Context, tag string) ([]models.WorkItem, error) {
	var items []models.WorkItem
	for _, item := range m.workItems {
		for _, t := range item.Tags {
			if t == tag {
				items = append(items, *item)
				break
			}
		}
	}
	return items, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, itemID primitive.ObjectID, status models.WorkItemStatus) error {
	item, ok := m.workItems[itemID]
	if !ok {
		return fmt.Errorf("work item %s: %w", itemID.Hex(), models.ErrNotFound)
	}
	item.Status = status
	return nil
}

func (m *memStore) WatchStatusChanges(ctx context.Context, projectID primitive.ObjectID) (<-chan primitive.ObjectID, error) {
	return m.events, nil
}

func (m *memStore) Notify(ctx context.Context, memberID primitive.ObjectID, message string) {
	m.notifications = append(m.notifications, memberID.Hex()+": "+message)
}
