package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment binds an assignment batch to a stage and to the work item
// generated for it. MemberID is the primary holder (the first member added
// in the batch); Members lists every co-holder so re-assignments can be
// diffed against the full set.
type Assignment struct {
	ID          primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	StageID     primitive.ObjectID   `json:"stageId" bson:"stageId"`
	MemberID    primitive.ObjectID   `json:"memberId" bson:"memberId"`
	Members     []primitive.ObjectID `json:"members" bson:"members"`
	WorkItemID  *primitive.ObjectID  `json:"workItemId,omitempty" bson:"workItemId,omitempty"`
	Priority    Priority             `json:"priority" bson:"priority"`
	Attachments []string             `json:"attachments" bson:"attachments"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
}
