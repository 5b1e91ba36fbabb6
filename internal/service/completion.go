package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/metrics"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartialCompletionError reports a completed session whose history record was
// written but whose plan update was not, and the record could not be removed
// again. The record is left for ReconcileHistory or manual cleanup.
type PartialCompletionError struct {
	AssignmentID    string
	SessionID       string
	HistoryRecordID string
	Err             error // Plan write failure combined with the compensation failure
}

func (e *PartialCompletionError) Error() string {
	return fmt.Sprintf("partial completion of session %s on assignment %s (history record %s): %v",
		e.SessionID, e.AssignmentID, e.HistoryRecordID, e.Err)
}

func (e *PartialCompletionError) Unwrap() error {
	return e.Err
}

// CompletionReceipt identifies a history write so it can be compensated.
type CompletionReceipt struct {
	RecordID string
	Previous *domain.HistoryRecord // Record overwritten by the write, nil if there was none
}

// Replaced reports whether the write overwrote an earlier completion.
func (r CompletionReceipt) Replaced() bool {
	return r.Previous != nil
}

// CompletionHandler persists history records for completed plan sessions.
type CompletionHandler struct {
	historyRepo repository.HistoryRepository
	metrics     *metrics.Manager
}

func NewCompletionHandler(historyRepo repository.HistoryRepository, metricsManager *metrics.Manager) *CompletionHandler {
	return &CompletionHandler{
		historyRepo: historyRepo,
		metrics:     metricsManager,
	}
}

// LogCompletion synthesizes the history record from the session snapshot and
// upserts it under its deterministic id.
func (h *CompletionHandler) LogCompletion(ctx context.Context, in planner.CompletionInput) (CompletionReceipt, error) {
	record := planner.BuildHistoryRecord(in)

	previous, err := h.historyRepo.Get(ctx, record.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.metrics.CounterHistoryFailures.WithLabelValues("lookup").Inc()
		return CompletionReceipt{}, fmt.Errorf("check history record %s: %w", record.ID, err)
	}

	if err := h.historyRepo.Upsert(ctx, &record); err != nil {
		h.metrics.CounterHistoryFailures.WithLabelValues("write").Inc()
		return CompletionReceipt{}, fmt.Errorf("write history record %s: %w", record.ID, err)
	}

	logrus.WithFields(logrus.Fields{
		"assignment": in.AssignmentID.Hex(),
		"session":    in.Session.ID,
		"record":     record.ID,
		"exercises":  len(record.Exercises),
		"replaced":   previous != nil,
	}).Debug("history record written")

	return CompletionReceipt{RecordID: record.ID, Previous: previous}, nil
}

// HasRecord reports whether the session already has its history record.
func (h *CompletionHandler) HasRecord(ctx context.Context, assignmentID primitive.ObjectID, sessionID string) (bool, error) {
	return h.historyRepo.Exists(ctx, planner.HistoryRecordID(assignmentID, sessionID))
}

// Compensate undoes a LogCompletion whose plan write failed. An overwritten
// record is put back as it was; a new record is deleted.
func (h *CompletionHandler) Compensate(ctx context.Context, receipt CompletionReceipt) error {
	var err error
	if receipt.Previous != nil {
		err = h.historyRepo.Upsert(ctx, receipt.Previous)
	} else {
		err = h.historyRepo.Delete(ctx, receipt.RecordID)
	}
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	h.metrics.CounterHistoryFailures.WithLabelValues("compensate").Inc()
	return fmt.Errorf("compensate history record %s: %w", receipt.RecordID, err)
}
