package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DealCategory string

const (
	CategoryResidentialRental DealCategory = "residential-rental"
	CategoryCommercialRental  DealCategory = "commercial-rental"
	CategoryBuilder           DealCategory = "builder"
)

// IsValid reports whether the category is one of the known deal categories.
func (c DealCategory) IsValid() bool {
	switch c {
	case CategoryResidentialRental, CategoryCommercialRental, CategoryBuilder:
		return true
	}
	return false
}

// Deal is one real-estate transaction tracked through a fixed stage workflow.
// CurrentStage is 1-based and always points at the active stage, or at
// stageCount once every stage is completed.
type Deal struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Category     DealCategory       `json:"category" bson:"category"`
	ClientName   string             `json:"clientName" bson:"clientName"`
	OwnerName    string             `json:"ownerName" bson:"ownerName"`
	PropertyRef  string             `json:"propertyRef" bson:"propertyRef"`
	ProjectID    primitive.ObjectID `json:"projectId" bson:"projectId"`
	CurrentStage int                `json:"currentStage" bson:"currentStage"`
	StartDate    time.Time          `json:"startDate" bson:"startDate"`
	EndDate      time.Time          `json:"endDate" bson:"endDate"`
}
