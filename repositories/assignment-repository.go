package repositories

import (
	"context"
	"fmt"

	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AssignmentRepo struct {
	collection *mongo.Collection
}

func NewAssignmentRepo(collection *mongo.Collection) *AssignmentRepo {
	return &AssignmentRepo{collection: collection}
}

func (r *AssignmentRepo) InsertAssignment(ctx context.Context, assignment *models.Assignment) error {
	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %v: %w", err, models.ErrPersistence)
	}
	assignment.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *AssignmentRepo) ListByStage(ctx context.Context, stageID primitive.ObjectID) ([]models.Assignment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"stageId": stageID})
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %v: %w", err, models.ErrPersistence)
	}
	defer cursor.Close(ctx)

	var assignments []models.Assignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("failed to decode assignments: %v: %w", err, models.ErrPersistence)
	}
	return assignments, nil
}

// RemoveMembers pulls the members out of every assignment batch on the
// stage, then drops batches left with no members. Work items referenced by
// removed batches are kept for audit history.
func (r *AssignmentRepo) RemoveMembers(ctx context.Context, stageID primitive.ObjectID, memberIDs []primitive.ObjectID) error {
	if len(memberIDs) == 0 {
		return nil
	}

	_, err := r.collection.UpdateMany(ctx,
		bson.M{"stageId": stageID},
		bson.M{"$pull": bson.M{"members": bson.M{"$in": memberIDs}}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove members from assignments: %v: %w", err, models.ErrPersistence)
	}

	_, err = r.collection.DeleteMany(ctx, bson.M{
		"stageId": stageID,
		"members": bson.M{"$size": 0},
	})
	if err != nil {
		return fmt.Errorf("failed to delete empty assignments: %v: %w", err, models.ErrPersistence)
	}
	return nil
}
