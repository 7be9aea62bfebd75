package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageSkipped    StageStatus = "skipped"
)

// Done reports whether the stage counts as finished for progression
// purposes. Skipped stages are terminal and treated like completed ones.
func (s StageStatus) Done() bool {
	return s == StageCompleted || s == StageSkipped
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Stage is one ordered step of a deal's workflow. Order is contiguous and
// 1-based per deal; at most one stage per deal is in_progress at a time.
type Stage struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DealID        primitive.ObjectID `json:"dealId" bson:"dealId"`
	Name          string             `json:"name" bson:"name"`
	Order         int                `json:"order" bson:"order"`
	Status        StageStatus        `json:"status" bson:"status"`
	EstimatedDate *time.Time         `json:"estimatedDate,omitempty" bson:"estimatedDate,omitempty"`
	ActualDate    *time.Time         `json:"actualDate,omitempty" bson:"actualDate,omitempty"`
	Priority      Priority           `json:"priority" bson:"priority"`
	Comment       string             `json:"comment" bson:"comment"`
	Attachments   []string           `json:"attachments" bson:"attachments"`
}

// StageMetadataUpdate is a partial update of a stage's editable fields.
// Status and actual date are owned by the progression flow and cannot be
// changed through metadata edits.
type StageMetadataUpdate struct {
	EstimatedDate *time.Time `json:"estimatedDate,omitempty"`
	Priority      *Priority  `json:"priority,omitempty"`
	Comment       *string    `json:"comment,omitempty"`
	Attachments   []string   `json:"attachments,omitempty"`
}
