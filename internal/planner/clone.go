package planner

import (
	"slices"

	"alcyxob/wellness-app/internal/domain"
)

// ClonePlan returns a deep copy so callers can mutate it without touching the original.
// A nil plan yields an empty one.
func ClonePlan(plan *domain.AssignmentPlan) domain.AssignmentPlan {
	if plan == nil {
		return domain.AssignmentPlan{Sessions: []domain.PlanSession{}}
	}
	out := domain.AssignmentPlan{
		CreatedAt:       plan.CreatedAt,
		Personalization: clonePersonalization(plan.Personalization),
		Sessions:        make([]domain.PlanSession, 0, len(plan.Sessions)),
	}
	for i := range plan.Sessions {
		out.Sessions = append(out.Sessions, CloneSession(&plan.Sessions[i]))
	}
	return out
}

// CloneSession deep-copies a single plan session.
func CloneSession(s *domain.PlanSession) domain.PlanSession {
	out := *s
	out.ReadinessTips = cloneStrings(s.ReadinessTips)
	out.SessionNotes = clonePtr(s.SessionNotes)
	out.UpdatedAt = clonePtr(s.UpdatedAt)
	out.Blocks = make([]domain.PlanBlock, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		b.Exercises = cloneExercises(b.Exercises)
		out.Blocks = append(out.Blocks, b)
	}
	return out
}

func cloneExercises(in []domain.Exercise) []domain.Exercise {
	if in == nil {
		return []domain.Exercise{}
	}
	out := make([]domain.Exercise, 0, len(in))
	for _, ex := range in {
		ex.Equipment = cloneStrings(ex.Equipment)
		ex.Cues = cloneStrings(ex.Cues)
		sets := make([]domain.ExerciseSet, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			sets = append(sets, domain.ExerciseSet{
				Reps:            clonePtr(set.Reps),
				Weight:          clonePtr(set.Weight),
				DurationSeconds: clonePtr(set.DurationSeconds),
				Tempo:           clonePtr(set.Tempo),
				RestSeconds:     clonePtr(set.RestSeconds),
			})
		}
		ex.Sets = sets
		out = append(out, ex)
	}
	return out
}

func clonePersonalization(p *domain.Personalization) *domain.Personalization {
	if p == nil {
		return nil
	}
	out := *p
	out.AvailableEquipment = cloneStrings(p.AvailableEquipment)
	out.MobilityConstraints = cloneStrings(p.MobilityConstraints)
	out.SessionsPerWeek = clonePtr(p.SessionsPerWeek)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return slices.Clone(in)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
