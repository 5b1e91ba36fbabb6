package planner

import (
	"fmt"
	"time"

	"alcyxob/wellness-app/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSessionMinutes is logged when a completed session has no duration.
const DefaultSessionMinutes = 40

// CompletionInput identifies a completed session and its owner.
type CompletionInput struct {
	AssignmentID primitive.ObjectID
	UserID       primitive.ObjectID
	ProtocolID   primitive.ObjectID
	Session      domain.PlanSession // Frozen snapshot from the plan, never re-read from the template
	Notes        *string
	CompletedAt  time.Time
}

// HistoryRecordID is the deterministic id of the record logged for a plan session.
func HistoryRecordID(assignmentID primitive.ObjectID, sessionID string) string {
	return assignmentID.Hex() + "-" + sessionID
}

// BuildHistoryRecord converts a completed session into a workout history record.
// Every prescribed set is logged as completed; per-set results are not tracked.
func BuildHistoryRecord(in CompletionInput) domain.HistoryRecord {
	recordID := HistoryRecordID(in.AssignmentID, in.Session.ID)

	exercises := []domain.HistoryExercise{}
	index := 0
	for _, block := range in.Session.Blocks {
		for _, ex := range block.Exercises {
			sets := make([]domain.HistorySet, 0, len(ex.Sets))
			for _, set := range ex.Sets {
				sets = append(sets, domain.HistorySet{
					Reps:        clonePtr(set.Reps),
					Weight:      clonePtr(set.Weight),
					Tempo:       clonePtr(set.Tempo),
					RestSeconds: clonePtr(set.RestSeconds),
					Completed:   true,
				})
			}
			exercises = append(exercises, domain.HistoryExercise{
				ID:        fmt.Sprintf("%s-%d", recordID, index),
				Name:      ex.Name,
				Category:  ex.Pattern,
				Intensity: in.Session.Intensity,
				Notes:     ex.Description,
				Sets:      sets,
				Source:    domain.HistorySourceProtocolPlan,
			})
			index++
		}
	}

	minutes := in.Session.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultSessionMinutes
	}

	notes := in.Session.Summary
	if in.Notes != nil && *in.Notes != "" {
		notes = *in.Notes
	}

	completedAt := in.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	return domain.HistoryRecord{
		ID:              recordID,
		UserID:          in.UserID,
		ProtocolID:      in.ProtocolID,
		AssignmentID:    in.AssignmentID,
		PlanSessionID:   in.Session.ID,
		Exercises:       exercises,
		DurationSeconds: minutes * 60,
		Notes:           notes,
		CompletedAt:     completedAt,
	}
}
