package planner

import (
	"time"

	"alcyxob/wellness-app/internal/domain"
)

// Action is a requested change against an assignment.
type Action string

const (
	ActionCompleteSession Action = "complete-session"
	ActionSkipSession     Action = "skip-session"
	ActionStartSession    Action = "start-session"
	ActionUpdateStatus    Action = "update-status" // Assignment scoped, sessions untouched
)

// SessionScoped reports whether the action targets a single plan session.
func (a Action) SessionScoped() bool {
	switch a {
	case ActionCompleteSession, ActionSkipSession, ActionStartSession:
		return true
	}
	return false
}

func (a Action) targetStatus() (domain.SessionStatus, bool) {
	switch a {
	case ActionCompleteSession:
		return domain.SessionCompleted, true
	case ActionSkipSession:
		return domain.SessionSkipped, true
	case ActionStartSession:
		return domain.SessionInProgress, true
	}
	return "", false
}

// TransitionResult carries the updated plan alongside the touched session.
type TransitionResult struct {
	Plan     domain.AssignmentPlan
	Index    int
	Session  domain.PlanSession // After the transition
	Snapshot domain.PlanSession // Before the transition, used for history synthesis
}

// EnsureWritable rejects session transitions on archived assignments.
func EnsureWritable(status domain.AssignmentStatus) error {
	if status == domain.AssignmentArchived {
		return ErrAssignmentArchived
	}
	return nil
}

// Transition applies a session-scoped action to a copy of plan.
//
// Completing or skipping has no precondition on the current status, so a
// misclicked session can be corrected by re-issuing the other action.
// Starting is only possible from planned or in-progress.
func Transition(plan *domain.AssignmentPlan, sessionID string, action Action, notes *string, now time.Time) (TransitionResult, error) {
	target, ok := action.targetStatus()
	if !ok {
		return TransitionResult{}, &ValidationError{Field: "action", Reason: "unsupported session action " + string(action)}
	}
	if sessionID == "" {
		return TransitionResult{}, &ValidationError{Field: "sessionId", Reason: "missing"}
	}

	updated := ClonePlan(plan)
	idx := -1
	for i := range updated.Sessions {
		if updated.Sessions[i].ID == sessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return TransitionResult{}, &NotFoundError{Kind: "session", ID: sessionID}
	}

	session := &updated.Sessions[idx]
	if target == domain.SessionInProgress && !session.Status.Actionable() {
		return TransitionResult{}, ErrInvalidTransition
	}

	snapshot := CloneSession(session)
	if now.IsZero() {
		now = time.Now().UTC()
	}
	session.Status = target
	session.UpdatedAt = &now
	session.SessionNotes = clonePtr(notes)

	return TransitionResult{
		Plan:     updated,
		Index:    idx,
		Session:  CloneSession(session),
		Snapshot: snapshot,
	}, nil
}

// ChangeAssignmentStatus validates an assignment status change.
// Archiving is always allowed; leaving the archived state never is.
func ChangeAssignmentStatus(current, target domain.AssignmentStatus) error {
	if target == "" {
		return &ValidationError{Field: "status", Reason: "missing"}
	}
	if !target.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown assignment status " + string(target)}
	}
	if target == domain.AssignmentArchived {
		return nil
	}
	if current == domain.AssignmentArchived {
		return ErrAssignmentArchived
	}
	return nil
}
