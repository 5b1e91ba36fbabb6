package repository

import (
	"alcyxob/wellness-app/internal/domain" // Import our defined domain models
	"context"                              // Standard for request-scoped deadlines, cancellation signals, etc.
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound        = RepositoryError("not found")
	ErrUpdateFailed    = RepositoryError("update failed")
	ErrDeleteFailed    = RepositoryError("delete failed")
	ErrDuplicate       = RepositoryError("duplicate key")
	ErrVersionConflict = RepositoryError("version conflict") // Document changed since it was read
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ProtocolRepository reads protocol templates. Authoring happens elsewhere;
// UpsertBySlug only exists for seeding the curated library.
type ProtocolRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Protocol, error)
	ListAvailable(ctx context.Context, userID primitive.ObjectID) ([]domain.Protocol, error)
	UpsertBySlug(ctx context.Context, protocol *domain.Protocol) error
}

// AssignmentRepository stores enrollments and their plans.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	GetByIDForUser(ctx context.Context, id, userID primitive.ObjectID) (*domain.Assignment, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error)
	// UpdatePlan writes plan, progress and cursor when the stored version still equals
	// assignment.Version, then bumps the version. Returns ErrVersionConflict otherwise.
	UpdatePlan(ctx context.Context, assignment *domain.Assignment) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus) (*domain.Assignment, error)
	RecordCheckIn(ctx context.Context, id primitive.ObjectID, readinessScore *int, at time.Time) error
}

// HistoryRepository stores workout history records.
type HistoryRepository interface {
	// Upsert replaces the record with the same ID, so retries never duplicate history.
	Upsert(ctx context.Context, record *domain.HistoryRecord) error
	Get(ctx context.Context, id string) (*domain.HistoryRecord, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// CheckInRepository stores readiness check-ins.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error)
	ListRecentByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.CheckIn, error)
}
