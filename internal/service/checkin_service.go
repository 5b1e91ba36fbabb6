package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecentCheckInLimit is how many check-ins ListRecent returns.
const RecentCheckInLimit = 20

// CheckInInput is a readiness check-in as submitted by the user.
type CheckInInput struct {
	AssignmentID   *primitive.ObjectID
	ReadinessScore *int
	EnergyLevel    *int
	SorenessLevel  *int
	SleepHours     *float64
	StressLevel    *int
	Mood           string
	Notes          string
	Tags           []string
}

type CheckInService interface {
	Create(ctx context.Context, userID primitive.ObjectID, input CheckInInput) (*domain.CheckIn, error)
	ListRecent(ctx context.Context, userID primitive.ObjectID) ([]domain.CheckIn, error)
}

type checkInService struct {
	checkInRepo    repository.CheckInRepository
	assignmentRepo repository.AssignmentRepository
	now            func() time.Time
}

// NewCheckInService creates a new instance of checkInService.
func NewCheckInService(checkInRepo repository.CheckInRepository, assignmentRepo repository.AssignmentRepository) CheckInService {
	return &checkInService{
		checkInRepo:    checkInRepo,
		assignmentRepo: assignmentRepo,
		now:            time.Now,
	}
}

// Create stores the check-in and, when it names an assignment, records the
// readiness score on that assignment's progress.
func (s *checkInService) Create(ctx context.Context, userID primitive.ObjectID, input CheckInInput) (*domain.CheckIn, error) {
	// 1. The referenced assignment must belong to the user
	if input.AssignmentID != nil {
		if _, err := s.assignmentRepo.GetByIDForUser(ctx, *input.AssignmentID, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &planner.ValidationError{Field: "assignmentId", Reason: "invalid assignment"}
			}
			return nil, err
		}
	}

	// 2. Stamp local date and time of the server
	now := s.now()
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	checkIn := &domain.CheckIn{
		UserID:         userID,
		AssignmentID:   input.AssignmentID,
		ReadinessScore: input.ReadinessScore,
		EnergyLevel:    input.EnergyLevel,
		SorenessLevel:  input.SorenessLevel,
		SleepHours:     input.SleepHours,
		StressLevel:    input.StressLevel,
		Mood:           input.Mood,
		Notes:          input.Notes,
		Tags:           tags,
		LocalDate:      now.Format(time.DateOnly),
		LocalTime:      now.Format(time.TimeOnly),
		CreatedAt:      now.UTC(),
	}

	// 3. Persist
	id, err := s.checkInRepo.Create(ctx, checkIn)
	if err != nil {
		return nil, err
	}
	checkIn.ID = id

	// 4. Mirror readiness onto the assignment
	if input.AssignmentID != nil {
		if err := s.assignmentRepo.RecordCheckIn(ctx, *input.AssignmentID, input.ReadinessScore, checkIn.CreatedAt); err != nil {
			// The check-in itself is stored; the progress field is a convenience copy
			logrus.WithFields(logrus.Fields{
				"assignment": input.AssignmentID.Hex(),
				"checkIn":    id.Hex(),
			}).Warnf("failed to record check-in on assignment: %s", err)
		}
	}

	return checkIn, nil
}

// ListRecent returns the newest check-ins of the user.
func (s *checkInService) ListRecent(ctx context.Context, userID primitive.ObjectID) ([]domain.CheckIn, error) {
	checkIns, err := s.checkInRepo.ListRecentByUser(ctx, userID, RecentCheckInLimit)
	if err != nil {
		return nil, err
	}
	if checkIns == nil {
		checkIns = []domain.CheckIn{}
	}
	return checkIns, nil
}
