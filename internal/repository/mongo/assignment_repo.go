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

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment into the database.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.UserID == primitive.NilObjectID || assignment.ProtocolID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires userId and protocolId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	assignment.Version = 1
	if assignment.Status == "" {
		assignment.Status = domain.AssignmentActive
	}
	if assignment.Plan.Sessions == nil {
		assignment.Plan.Sessions = []domain.PlanSession{}
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByIDForUser retrieves an assignment only if it belongs to the user.
func (r *mongoAssignmentRepository) GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Assignment, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (r *mongoAssignmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	// Older documents may lack a sessions array
	if assignment.Plan.Sessions == nil {
		assignment.Plan.Sessions = []domain.PlanSession{}
	}
	return &assignment, nil
}

// ListByUser retrieves all assignments of a user, newest first.
func (r *mongoAssignmentRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// UpdatePlan writes the plan, progress snapshot and cursor guarded by the version field.
func (r *mongoAssignmentRepository) UpdatePlan(ctx context.Context, assignment *domain.Assignment) error {
	if assignment.ID == primitive.NilObjectID {
		return errors.New("assignment ID is required for update")
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": assignment.ID, "version": assignment.Version}
	update := bson.M{
		"$set": bson.M{
			"plan": assignment.Plan,
			// Progress is written field by field so readiness data from check-ins survives
			"progress.totalSessions":     assignment.Progress.TotalSessions,
			"progress.completedSessions": assignment.Progress.CompletedSessions,
			"progress.skippedSessions":   assignment.Progress.SkippedSessions,
			"progress.completionRate":    assignment.Progress.CompletionRate,
			"progress.nextSession":       assignment.Progress.NextSession,
			"currentSessionIndex":        assignment.CurrentSessionIndex,
			"updatedAt":                  now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish a missing document from a concurrent writer
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": assignment.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}

	assignment.Version++
	assignment.UpdatedAt = now
	return nil
}

// UpdateStatus sets the assignment status and returns the updated document.
func (r *mongoAssignmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus) (*domain.Assignment, error) {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var assignment domain.Assignment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// RecordCheckIn stores the latest readiness data on the assignment progress.
// It does not bump the version since UpdatePlan never writes these fields.
func (r *mongoAssignmentRepository) RecordCheckIn(ctx context.Context, id primitive.ObjectID, readinessScore *int, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"progress.lastReadinessScore": readinessScore,
			"progress.lastCheckInAt":      at,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Listing a user's enrollments, newest first
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "protocolId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
