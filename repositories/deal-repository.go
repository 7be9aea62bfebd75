package repositories

import (
	"context"
	"fmt"

	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type DealRepo struct {
	collection *mongo.Collection
}

func NewDealRepo(collection *mongo.Collection) *DealRepo {
	return &DealRepo{collection: collection}
}

func (r *DealRepo) InsertDeal(ctx context.Context, deal *models.Deal) error {
	result, err := r.collection.InsertOne(ctx, deal)
	if err != nil {
		return fmt.Errorf("failed to insert deal: %v: %w", err, models.ErrPersistence)
	}
	deal.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *DealRepo) GetDeal(ctx context.Context, dealID primitive.ObjectID) (*models.Deal, error) {
	var deal models.Deal
	err := r.collection.FindOne(ctx, bson.M{"_id": dealID}).Decode(&deal)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("deal %s: %w", dealID.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal: %v: %w", err, models.ErrPersistence)
	}
	return &deal, nil
}

func (r *DealRepo) SetCurrentStage(ctx context.Context, dealID primitive.ObjectID, current int) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": dealID},
		bson.M{"$set": bson.M{"currentStage": current}},
	)
	if err != nil {
		return fmt.Errorf("failed to update current stage: %v: %w", err, models.ErrPersistence)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("deal %s: %w", dealID.Hex(), models.ErrNotFound)
	}
	return nil
}
