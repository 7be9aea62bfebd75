package interfaces

import (
	"context"
	"time"

	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DealStore owns the deal records. SetCurrentStage is the only mutation the
// progression flow needs after creation.
type DealStore interface {
	InsertDeal(ctx context.Context, deal *models.Deal) error
	GetDeal(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, error)
	SetCurrentStage(ctx context.Context, dealID primitive.ObjectID, current int) error
}

// StageStore owns the stage records of all deals. The two transition
// methods carry their precondition in the store call itself so that
// concurrent writers race on the record, not in this process: each returns
// false when the record was not in the expected state.
type StageStore interface {
	InsertStages(ctx context.Context, stages []models.Stage) error
	CountByDeal(ctx context.Context, dealID primitive.ObjectID) (int64, error)
	GetStage(ctx context.Context, stageID primitive.ObjectID) (*models.Stage, error)
	ListByDeal(ctx context.Context, dealID primitive.ObjectID) ([]models.Stage, error)
	UpdateMetadata(ctx context.Context, stageID primitive.ObjectID, update models.StageMetadataUpdate) error
	SetEstimatedDate(ctx context.Context, stageID primitive.ObjectID, date time.Time) error
	CompleteIfInProgress(ctx context.Context, stageID primitive.ObjectID, completedAt time.Time) (bool, error)
	StartIfPending(ctx context.Context, dealID primitive.ObjectID, order int) (bool, error)
}

// AssignmentStore owns the assignment batches per stage.
type AssignmentStore interface {
	InsertAssignment(ctx context.Context, assignment *models.Assignment) error
	ListByStage(ctx context.Context, stageID primitive.ObjectID) ([]models.Assignment, error)
	RemoveMembers(ctx context.Context, stageID primitive.ObjectID, memberIDs []primitive.ObjectID) error
}

// WorkItemStore owns the generated work items. WatchStatusChanges delivers
// the IDs of work items within a project whose records change, until ctx is
// cancelled; the channel is closed when the subscription ends.
type WorkItemStore interface {
	InsertWorkItem(ctx context.Context, item *models.WorkItem) error
	GetWorkItem(ctx context.Context, itemID primitive.ObjectID) (*models.WorkItem, error)
	ListByTag(ctx context.Context, tag string) ([]models.WorkItem, error)
	UpdateStatus(ctx context.Context, itemID primitive.ObjectID, status models.WorkItemStatus) error
	WatchStatusChanges(ctx context.Context, projectID primitive.ObjectID) (<-chan primitive.ObjectID, error)
}

// Notifier delivers user-facing outcome notifications. Fire and forget: the
// core never depends on delivery.
type Notifier interface {
	Notify(ctx context.Context, memberID primitive.ObjectID, message string)
}
