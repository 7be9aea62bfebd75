package repositories

import (
	"context"
	"fmt"

	"estate-crm/microservices/deals-service/logging"
	"estate-crm/microservices/deals-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WorkItemRepo struct {
	collection *mongo.Collection
}

func NewWorkItemRepo(collection *mongo.Collection) *WorkItemRepo {
	return &WorkItemRepo{collection: collection}
}

func (r *WorkItemRepo) InsertWorkItem(ctx context.Context, item *models.WorkItem) error {
	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to insert work item: %v: %w", err, models.ErrPersistence)
	}
	item.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *WorkItemRepo) GetWorkItem(ctx context.Context, itemID primitive.ObjectID) (*models.WorkItem, error) {
	var item models.WorkItem
	err := r.collection.FindOne(ctx, bson.M{"_id": itemID}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("work item %s: %w", itemID.Hex(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch work item: %v: %w", err, models.ErrPersistence)
	}
	return &item, nil
}

func (r *WorkItemRepo) ListByTag(ctx context.Context, tag string) ([]models.WorkItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"tags": tag})
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %v: %w", err, models.ErrPersistence)
	}
	defer cursor.Close(ctx)

	var items []models.WorkItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode work items: %v: %w", err, models.ErrPersistence)
	}
	return items, nil
}

func (r *WorkItemRepo) UpdateStatus(ctx context.Context, itemID primitive.ObjectID, status models.WorkItemStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": itemID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update work item status: %v: %w", err, models.ErrPersistence)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("work item %s: %w", itemID.Hex(), models.ErrNotFound)
	}
	return nil
}

// WatchStatusChanges opens a change stream over the project's work items
// and forwards the ID of every changed document. The stream runs until ctx
// is cancelled; the returned channel is closed when the stream ends.
func (r *WorkItemRepo) WatchStatusChanges(ctx context.Context, projectID primitive.ObjectID) (<-chan primitive.ObjectID, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType":          bson.M{"$in": bson.A{"insert", "update", "replace"}},
			"fullDocument.projectId": projectID,
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open work item change stream: %v: %w", err, models.ErrPersistence)
	}

	out := make(chan primitive.ObjectID)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var event struct {
				FullDocument models.WorkItem `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				logging.Logger.Errorf("Event ID: CHANGE_STREAM_DECODE_ERROR, Description: Failed to decode work item change event: %v", err)
				continue
			}
			select {
			case out <- event.FullDocument.ID:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logging.Logger.Errorf("Event ID: CHANGE_STREAM_ERROR, Description: Work item change stream ended: %v", err)
		}
	}()
	return out, nil
}
