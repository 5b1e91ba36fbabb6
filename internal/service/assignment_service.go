package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/metrics"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/repository"
	"alcyxob/wellness-app/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// --- Error Definitions ---
var (
	ErrConcurrentUpdate  = errors.New("assignment was modified concurrently, reload and retry")
	ErrExportUnavailable = errors.New("plan export storage is not configured")
)

// EnrollInput carries the enrollment request.
type EnrollInput struct {
	ProtocolID      primitive.ObjectID
	StartDate       *time.Time // Nil means now
	Personalization *domain.Personalization
	ReadinessRules  map[string]any
}

// ActionRequest is a PATCH against an assignment.
type ActionRequest struct {
	Action    planner.Action
	SessionID string
	Status    domain.AssignmentStatus // Only for update-status
	Notes     *string
}

// PlanExport is the JSON document written to object storage.
type PlanExport struct {
	AssignmentID string                  `json:"assignmentId"`
	ProtocolID   string                  `json:"protocolId"`
	Status       domain.AssignmentStatus `json:"status"`
	ExportedAt   time.Time               `json:"exportedAt"`
	Plan         domain.AssignmentPlan   `json:"plan"`
	Progress     domain.ProgressSummary  `json:"progress"`
}

type AssignmentService interface {
	Enroll(ctx context.Context, userID primitive.ObjectID, input EnrollInput) (*domain.Assignment, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error)
	Get(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error)
	Apply(ctx context.Context, userID, assignmentID primitive.ObjectID, req ActionRequest) (*domain.Assignment, error)
	Archive(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error)
	ExportPlan(ctx context.Context, userID, assignmentID primitive.ObjectID) (string, error)
	// ReconcileHistory re-logs completed sessions that have no history record.
	ReconcileHistory(ctx context.Context, assignmentID primitive.ObjectID) (int, error)
}

// AssignmentServiceConfig holds the tunables of the assignment service.
type AssignmentServiceConfig struct {
	DefaultSessionsPerWeek int
	ExportURLExpiry        time.Duration
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	protocolRepo   repository.ProtocolRepository
	completion     *CompletionHandler
	fileStorage    storage.FileStorage // May be nil, exports are then rejected
	metrics        *metrics.Manager
	cfg            AssignmentServiceConfig
	now            func() time.Time
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	protocolRepo repository.ProtocolRepository,
	completion *CompletionHandler,
	fileStorage storage.FileStorage,
	metricsManager *metrics.Manager,
	cfg AssignmentServiceConfig,
) AssignmentService {
	if cfg.ExportURLExpiry <= 0 {
		cfg.ExportURLExpiry = storage.DefaultPresignedURLExpiry
	}
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		protocolRepo:   protocolRepo,
		completion:     completion,
		fileStorage:    fileStorage,
		metrics:        metricsManager,
		cfg:            cfg,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Enroll generates a plan from the protocol and stores a new active assignment.
func (s *assignmentService) Enroll(ctx context.Context, userID primitive.ObjectID, input EnrollInput) (*domain.Assignment, error) {
	// 1. Validate input
	if input.ProtocolID == primitive.NilObjectID {
		return nil, &planner.ValidationError{Field: "protocolId", Reason: "missing"}
	}
	if p := input.Personalization; p != nil && p.SessionsPerWeek != nil && *p.SessionsPerWeek < 0 {
		return nil, &planner.ValidationError{Field: "personalization.sessionsPerWeek", Reason: "must not be negative"}
	}

	// 2. Load the protocol the user may see
	protocol, err := s.protocolRepo.GetByID(ctx, input.ProtocolID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &planner.NotFoundError{Kind: "protocol", ID: input.ProtocolID.Hex()}
		}
		return nil, err
	}
	if !protocolVisibleTo(protocol, userID) {
		return nil, &planner.NotFoundError{Kind: "protocol", ID: input.ProtocolID.Hex()}
	}
	if err := protocol.Validate(); err != nil {
		return nil, err
	}

	// 3. Generate the plan
	now := s.now()
	start := now
	if input.StartDate != nil && !input.StartDate.IsZero() {
		start = input.StartDate.UTC()
	}
	plan := planner.Generate(protocol, planner.GenerateOptions{
		StartDate:               start,
		Personalization:         input.Personalization,
		Now:                     now,
		FallbackSessionsPerWeek: s.cfg.DefaultSessionsPerWeek,
	})

	// 4. Persist
	assignment := &domain.Assignment{
		UserID:              userID,
		ProtocolID:          protocol.ID,
		Status:              domain.AssignmentActive,
		StartDate:           start,
		Personalization:     input.Personalization,
		ReadinessRules:      input.ReadinessRules,
		Plan:                plan,
		CurrentSessionIndex: 0,
		Progress:            planner.Summarize(&plan),
	}
	id, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		return nil, err
	}
	assignment.ID = id
	s.metrics.CounterEnrollments.Inc()

	logrus.WithFields(logrus.Fields{
		"user":       userID.Hex(),
		"assignment": id.Hex(),
		"protocol":   protocol.Slug,
		"sessions":   len(plan.Sessions),
	}).Info("user enrolled in protocol")

	return assignment, nil
}

// ListForUser returns the user's assignments, newest first.
func (s *assignmentService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	assignments, err := s.assignmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if assignments == nil {
		assignments = []domain.Assignment{}
	}
	return assignments, nil
}

// Get returns the assignment with a freshly derived progress summary.
func (s *assignmentService) Get(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.load(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}
	refreshProgress(assignment)
	return assignment, nil
}

// Apply runs a PATCH action against the assignment.
func (s *assignmentService) Apply(ctx context.Context, userID, assignmentID primitive.ObjectID, req ActionRequest) (*domain.Assignment, error) {
	if req.Action == "" {
		return nil, &planner.ValidationError{Field: "action", Reason: "missing"}
	}

	assignment, err := s.load(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}

	if req.Action == planner.ActionUpdateStatus {
		return s.changeStatus(ctx, assignment, req.Status)
	}
	if !req.Action.SessionScoped() {
		return nil, &planner.ValidationError{Field: "action", Reason: "unsupported action " + string(req.Action)}
	}
	if err := planner.EnsureWritable(assignment.Status); err != nil {
		return nil, err
	}

	result, err := planner.Transition(&assignment.Plan, req.SessionID, req.Action, req.Notes, s.now())
	if err != nil {
		return nil, err
	}

	updated := *assignment
	updated.Plan = result.Plan
	refreshProgress(&updated)

	if req.Action == planner.ActionCompleteSession {
		err = s.persistCompletion(ctx, &updated, result)
	} else {
		err = s.persistPlan(ctx, &updated)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.CounterSessionTransitions.WithLabelValues(string(req.Action)).Inc()
	logrus.WithFields(logrus.Fields{
		"assignment": assignmentID.Hex(),
		"session":    result.Session.ID,
		"action":     req.Action,
		"completed":  updated.Progress.CompletedSessions,
		"total":      updated.Progress.TotalSessions,
	}).Debug("session transition persisted")

	return &updated, nil
}

// persistCompletion writes the history record first and the plan second. A
// failed plan write undoes the record write unless the stored plan shows the
// session completed by someone else; if undoing fails the caller gets a
// *PartialCompletionError.
func (s *assignmentService) persistCompletion(ctx context.Context, updated *domain.Assignment, result planner.TransitionResult) error {
	receipt, err := s.completion.LogCompletion(ctx, planner.CompletionInput{
		AssignmentID: updated.ID,
		UserID:       updated.UserID,
		ProtocolID:   updated.ProtocolID,
		Session:      result.Snapshot,
		Notes:        result.Session.SessionNotes,
		CompletedAt:  *result.Session.UpdatedAt,
	})
	if err != nil {
		return err
	}

	planErr := s.persistPlan(ctx, updated)
	if planErr == nil {
		return nil
	}

	fields := logrus.Fields{
		"assignment": updated.ID.Hex(),
		"session":    result.Session.ID,
		"record":     receipt.RecordID,
	}

	// A concurrent request may have completed the same session after our
	// lookup. Its plan is stored, so the record now belongs to it.
	var compErr error
	stored, readErr := s.assignmentRepo.GetByID(ctx, updated.ID)
	switch {
	case readErr != nil && !errors.Is(readErr, repository.ErrNotFound):
		compErr = fmt.Errorf("reload assignment before compensation: %w", readErr)
	case !receipt.Replaced() && sessionCompleted(stored, result.Session.ID):
		logrus.WithFields(fields).Info("session completed by a concurrent request, keeping history record")
		return planErr
	default:
		compErr = s.completion.Compensate(ctx, receipt)
	}

	if compErr != nil {
		logrus.WithFields(fields).Errorf("history record left without plan update: %s; %s", planErr, compErr)
		return &PartialCompletionError{
			AssignmentID:    updated.ID.Hex(),
			SessionID:       result.Session.ID,
			HistoryRecordID: receipt.RecordID,
			Err:             multierr.Combine(planErr, compErr),
		}
	}
	return planErr
}

func sessionCompleted(a *domain.Assignment, sessionID string) bool {
	if a == nil {
		return false
	}
	for i := range a.Plan.Sessions {
		if a.Plan.Sessions[i].ID == sessionID {
			return a.Plan.Sessions[i].Status == domain.SessionCompleted
		}
	}
	return false
}

func (s *assignmentService) persistPlan(ctx context.Context, updated *domain.Assignment) error {
	err := s.assignmentRepo.UpdatePlan(ctx, updated)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		s.metrics.CounterVersionConflicts.Inc()
		return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	case errors.Is(err, repository.ErrNotFound):
		return &planner.NotFoundError{Kind: "assignment", ID: updated.ID.Hex()}
	default:
		return err
	}
}

func (s *assignmentService) changeStatus(ctx context.Context, assignment *domain.Assignment, target domain.AssignmentStatus) (*domain.Assignment, error) {
	if err := planner.ChangeAssignmentStatus(assignment.Status, target); err != nil {
		return nil, err
	}
	updated, err := s.assignmentRepo.UpdateStatus(ctx, assignment.ID, target)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &planner.NotFoundError{Kind: "assignment", ID: assignment.ID.Hex()}
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"assignment": assignment.ID.Hex(),
		"from":       assignment.Status,
		"to":         target,
	}).Info("assignment status changed")

	refreshProgress(updated)
	return updated, nil
}

// Archive moves the assignment to the terminal archived status.
func (s *assignmentService) Archive(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.load(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.changeStatus(ctx, assignment, domain.AssignmentArchived)
}

// ExportPlan uploads a JSON snapshot of the plan and returns a temporary download URL.
func (s *assignmentService) ExportPlan(ctx context.Context, userID, assignmentID primitive.ObjectID) (string, error) {
	if s.fileStorage == nil {
		return "", ErrExportUnavailable
	}
	assignment, err := s.Get(ctx, userID, assignmentID)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(PlanExport{
		AssignmentID: assignment.ID.Hex(),
		ProtocolID:   assignment.ProtocolID.Hex(),
		Status:       assignment.Status,
		ExportedAt:   s.now(),
		Plan:         assignment.Plan,
		Progress:     assignment.Progress,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode plan export: %w", err)
	}

	objectKey := fmt.Sprintf("exports/%s/%s/%s.json", userID.Hex(), assignmentID.Hex(), uuid.NewString())
	if err := s.fileStorage.PutObject(ctx, objectKey, "application/json", body); err != nil {
		return "", fmt.Errorf("upload plan export: %w", err)
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, s.cfg.ExportURLExpiry)
	if err != nil {
		if delErr := s.fileStorage.DeleteObject(ctx, objectKey); delErr != nil {
			logrus.Warnf("failed to remove unreachable export %s: %s", objectKey, delErr)
		}
		return "", fmt.Errorf("presign plan export: %w", err)
	}
	return url, nil
}

// ReconcileHistory logs history for every completed session lacking a record.
// Running it again after success is a no-op.
func (s *assignmentService) ReconcileHistory(ctx context.Context, assignmentID primitive.ObjectID) (int, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, &planner.NotFoundError{Kind: "assignment", ID: assignmentID.Hex()}
		}
		return 0, err
	}

	created := 0
	for i := range assignment.Plan.Sessions {
		session := assignment.Plan.Sessions[i]
		if session.Status != domain.SessionCompleted {
			continue
		}

		exists, err := s.completion.HasRecord(ctx, assignment.ID, session.ID)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		completedAt := assignment.UpdatedAt
		if session.UpdatedAt != nil {
			completedAt = *session.UpdatedAt
		}
		_, err = s.completion.LogCompletion(ctx, planner.CompletionInput{
			AssignmentID: assignment.ID,
			UserID:       assignment.UserID,
			ProtocolID:   assignment.ProtocolID,
			Session:      session,
			Notes:        session.SessionNotes,
			CompletedAt:  completedAt,
		})
		if err != nil {
			return created, err
		}
		created++
	}

	if created > 0 {
		s.metrics.CounterHistoryReconciled.Add(float64(created))
		logrus.WithFields(logrus.Fields{
			"assignment": assignmentID.Hex(),
			"created":    created,
		}).Warn("reconciled missing history records")
	}
	return created, nil
}

func (s *assignmentService) load(ctx context.Context, userID, assignmentID primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByIDForUser(ctx, assignmentID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &planner.NotFoundError{Kind: "assignment", ID: assignmentID.Hex()}
		}
		return nil, err
	}
	return assignment, nil
}

// refreshProgress recomputes counts and cursor while keeping check-in data.
func refreshProgress(a *domain.Assignment) {
	summary := planner.Summarize(&a.Plan)
	summary.LastReadinessScore = a.Progress.LastReadinessScore
	summary.LastCheckInAt = a.Progress.LastCheckInAt
	a.Progress = summary
	a.CurrentSessionIndex = planner.NextIndex(&a.Plan)
}

func protocolVisibleTo(p *domain.Protocol, userID primitive.ObjectID) bool {
	return p.IsPublic || (p.CreatedBy != nil && *p.CreatedBy == userID)
}
