package planner

import "alcyxob/wellness-app/internal/domain"

// Summarize derives progress counts from a plan. A nil or empty plan yields zeros.
func Summarize(plan *domain.AssignmentPlan) domain.ProgressSummary {
	var summary domain.ProgressSummary
	if plan == nil {
		return summary
	}

	summary.TotalSessions = len(plan.Sessions)
	for i := range plan.Sessions {
		switch plan.Sessions[i].Status {
		case domain.SessionCompleted:
			summary.CompletedSessions++
		case domain.SessionSkipped:
			summary.SkippedSessions++
		}
	}
	if summary.TotalSessions > 0 {
		summary.CompletionRate = float64(summary.CompletedSessions) / float64(summary.TotalSessions)
	}
	if idx := NextIndex(plan); idx < summary.TotalSessions {
		next := CloneSession(&plan.Sessions[idx])
		summary.NextSession = &next
	}
	return summary
}

// NextIndex returns the index of the first planned or in-progress session,
// or len(sessions) when every session is done.
func NextIndex(plan *domain.AssignmentPlan) int {
	if plan == nil {
		return 0
	}
	for i := range plan.Sessions {
		if plan.Sessions[i].Status.Actionable() {
			return i
		}
	}
	return len(plan.Sessions)
}
