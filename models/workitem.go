package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkItemStatus string

const (
	WorkItemPending    WorkItemStatus = "pending"
	WorkItemInProgress WorkItemStatus = "in_progress"
	WorkItemCompleted  WorkItemStatus = "completed"
)

// WorkItem is the actionable task generated for an assignment batch. Tags
// carry the hex ID of the originating stage so completion checks can find
// every item belonging to a stage.
type WorkItem struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title       string               `json:"title" bson:"title"`
	Description string               `json:"description" bson:"description"`
	DueDate     *time.Time           `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Priority    Priority             `json:"priority" bson:"priority"`
	Status      WorkItemStatus       `json:"status" bson:"status"`
	Assignees   []primitive.ObjectID `json:"assignees" bson:"assignees"`
	Tags        []string             `json:"tags" bson:"tags"`
	ProjectID   primitive.ObjectID   `json:"projectId" bson:"projectId"`
}

const stageTagPrefix = "stage:"

// StageTag returns the correlation tag for a stage.
func StageTag(stageID primitive.ObjectID) string {
	return stageTagPrefix + stageID.Hex()
}

// StageIDFromTags extracts the originating stage ID from a work item's tag
// set. The second return value is false when no valid stage tag is present.
func StageIDFromTags(tags []string) (primitive.ObjectID, bool) {
	for _, tag := range tags {
		if !strings.HasPrefix(tag, stageTagPrefix) {
			continue
		}
		id, err := primitive.ObjectIDFromHex(strings.TrimPrefix(tag, stageTagPrefix))
		if err == nil {
			return id, true
		}
	}
	return primitive.NilObjectID, false
}
