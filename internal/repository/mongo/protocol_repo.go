package mongo

import (
	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const protocolCollectionName = "protocols"

// mongoProtocolRepository implements repository.ProtocolRepository
type mongoProtocolRepository struct {
	collection *mongo.Collection
}

// NewMongoProtocolRepository creates a new Protocol repository backed by MongoDB.
func NewMongoProtocolRepository(db *mongo.Database) repository.ProtocolRepository {
	return &mongoProtocolRepository{
		collection: db.Collection(protocolCollectionName),
	}
}

// GetByID retrieves a protocol template by its ID.
func (r *mongoProtocolRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Protocol, error) {
	var protocol domain.Protocol
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&protocol)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &protocol, nil
}

// ListAvailable returns public protocols plus the ones the user created, sorted by name.
func (r *mongoProtocolRepository) ListAvailable(ctx context.Context, userID primitive.ObjectID) ([]domain.Protocol, error) {
	var protocols []domain.Protocol
	filter := bson.M{
		"$or": bson.A{
			bson.M{"isPublic": true},
			bson.M{"createdBy": userID},
		},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &protocols); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return protocols, nil
}

// UpsertBySlug creates or refreshes a curated protocol identified by its slug.
// The slug comes from the filter on insert; visibility and creation time are only set then.
func (r *mongoProtocolRepository) UpsertBySlug(ctx context.Context, protocol *domain.Protocol) error {
	if protocol.Slug == "" {
		return errors.New("protocol slug is required for upsert")
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":            protocol.Name,
			"summary":         protocol.Summary,
			"goal":            protocol.Goal,
			"level":           protocol.Level,
			"schemaVersion":   protocol.SchemaVersion,
			"durationWeeks":   protocol.DurationWeeks,
			"sessionsPerWeek": protocol.SessionsPerWeek,
			"tags":            protocol.Tags,
			"focusAreas":      protocol.FocusAreas,
			"equipment":       protocol.Equipment,
			"readinessNotes":  protocol.ReadinessNotes,
			"phases":          protocol.Phases,
			"updatedAt":       now,
		},
		"$setOnInsert": bson.M{
			"isPublic":  protocol.IsPublic,
			"createdAt": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, bson.M{"slug": protocol.Slug}, update, opts)
	return err
}

// EnsureProtocolIndexes creates necessary indexes for the protocols collection.
func EnsureProtocolIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "isPublic", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
