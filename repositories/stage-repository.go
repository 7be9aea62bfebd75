package repositories

import (
	"context"
	"fmt"
	"time"

	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StageRepo struct {
	collection *mongo.Collection
}

func NewStageRepo(collection *mongo.Collection) *StageRepo {
	return &StageRepo{collection: collection}
}

func (r *StageRepo) InsertStages(ctx context.Context, stages []models.Stage) error {
	docs := make([]interface{}, len(stages))
	for i := range stages {
		docs[i] = stages[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert stages: %v: %w", err, models.ErrPersistence)
	}
	return nil
}

func (r *StageRepo) CountByDeal(ctx context.Context, dealID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"dealId": dealID})
	if err != nil {
		return 0, fmt.Errorf("failed to count stages: %v: %w", err, models.ErrPersistence)
	}
	return count, nil
}

func (r *StageRepo) GetStage(ctx context.Context, stageID primitive.ObjectID) (*models.Stage, error) {
	var stage models.Stage
	err := r.collection.FindOne(ctx, bson.M{"_id": stageID}).Decode(&stage)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("stage %s: %w", stageID.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stage: %v: %w", err, models.ErrPersistence)
	}
	return &stage, nil
}

func (r *StageRepo) ListByDeal(ctx context.Context, dealID primitive.ObjectID) ([]models.Stage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"dealId": dealID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %v: %w", err, models.ErrPersistence)
	}
	defer cursor.Close(ctx)

	var stages []models.Stage
	if err := cursor.All(ctx, &stages); err != nil {
		return nil, fmt.Errorf("failed to decode stages: %v: %w", err, models.ErrPersistence)
	}
	return stages, nil
}

func (r *StageRepo) UpdateMetadata(ctx context.Context, stageID primitive.ObjectID, update models.StageMetadataUpdate) error {
	set := bson.M{}
	if update.EstimatedDate != nil {
		set["estimatedDate"] = *update.EstimatedDate
	}
	if update.Priority != nil {
		set["priority"] = *update.Priority
	}
	if update.Comment != nil {
		set["comment"] = *update.Comment
	}
	if update.Attachments != nil {
		set["attachments"] = update.Attachments
	}
	if len(set) == 0 {
		return nil
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": stageID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update stage metadata: %v: %w", err, models.ErrPersistence)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("stage %s: %w", stageID.Hex(), models.ErrNotFound)
	}
	return nil
}

func (r *StageRepo) SetEstimatedDate(ctx context.Context, stageID primitive.ObjectID, date time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": stageID},
		bson.M{"$set": bson.M{"estimatedDate": date}},
	)
	if err != nil {
		return fmt.Errorf("failed to set stage date: %v: %w", err, models.ErrPersistence)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("stage %s: %w", stageID.Hex(), models.ErrNotFound)
	}
	return nil
}

// CompleteIfInProgress transitions the stage to completed only if it is
// currently in_progress. The status filter is the optimistic precondition:
// a concurrent completion makes the second writer match zero documents.
func (r *StageRepo) CompleteIfInProgress(ctx context.Context, stageID primitive.ObjectID, completedAt time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": stageID, "status": models.StageInProgress},
		bson.M{"$set": bson.M{"status": models.StageCompleted, "actualDate": completedAt}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete stage: %v: %w", err, models.ErrPersistence)
	}
	return result.MatchedCount > 0, nil
}

// StartIfPending activates the stage with the given order only if it is
// still pending.
func (r *StageRepo) StartIfPending(ctx context.Context, dealID primitive.ObjectID, order int) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"dealId": dealID, "order": order, "status": models.StagePending},
		bson.M{"$set": bson.M{"status": models.StageInProgress}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to start stage: %v: %w", err, models.ErrPersistence)
	}
	return result.MatchedCount > 0, nil
}
