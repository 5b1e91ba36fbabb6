// Package planner expands protocol templates into dated plans and moves plan
// sessions through their lifecycle. Everything here is pure; persistence and
// history writes live in the service layer.
package planner

import (
	"fmt"
	"strings"
	"time"

	"alcyxob/wellness-app/internal/domain"
)

// DefaultSessionsPerWeek applies when neither the caller, the personalization
// nor the protocol specify a cadence.
const DefaultSessionsPerWeek = 3

// GenerateOptions tune a single plan generation.
type GenerateOptions struct {
	StartDate       time.Time // Zero means Now
	SessionsPerWeek int       // <= 0 falls back to personalization, then protocol, then DefaultSessionsPerWeek
	Personalization *domain.Personalization
	Now             time.Time // Zero means time.Now().UTC()

	// FallbackSessionsPerWeek replaces DefaultSessionsPerWeek when > 0.
	FallbackSessionsPerWeek int
}

// CadenceDays returns the number of days between consecutive sessions.
func CadenceDays(sessionsPerWeek int) int {
	return max(1, 7/max(1, sessionsPerWeek))
}

// ResolveSessionsPerWeek picks the effective weekly frequency, clamped to at least 1.
// A personalization or protocol value that is set, even to 0, wins over the
// defaults below it.
func ResolveSessionsPerWeek(protocol *domain.Protocol, opts GenerateOptions) int {
	if opts.SessionsPerWeek > 0 {
		return opts.SessionsPerWeek
	}
	if opts.Personalization != nil && opts.Personalization.SessionsPerWeek != nil {
		return max(1, *opts.Personalization.SessionsPerWeek)
	}
	if protocol != nil && protocol.SessionsPerWeek != nil {
		return max(1, *protocol.SessionsPerWeek)
	}
	if opts.FallbackSessionsPerWeek > 0 {
		return opts.FallbackSessionsPerWeek
	}
	return DefaultSessionsPerWeek
}

// Generate expands the protocol into an ordered, dated list of planned sessions.
// The protocol is expected to have passed Validate.
func Generate(protocol *domain.Protocol, opts GenerateOptions) domain.AssignmentPlan {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	start := opts.StartDate
	if start.IsZero() {
		start = now
	}

	cadence := CadenceDays(ResolveSessionsPerWeek(protocol, opts))

	plan := domain.AssignmentPlan{
		CreatedAt:       now,
		Personalization: clonePersonalization(opts.Personalization),
		Sessions:        []domain.PlanSession{},
	}
	if protocol == nil {
		return plan
	}

	cursor := start
	sequence := 0
	for _, phase := range protocol.Phases {
		weeks := max(1, phase.DurationWeeks)
		for week := 1; week <= weeks; week++ {
			for _, tmpl := range phase.Sessions {
				sequence++
				plan.Sessions = append(plan.Sessions, domain.PlanSession{
					ID:              SessionID(phase.Key, week, tmpl.Key, sequence),
					PhaseKey:        phase.Key,
					Week:            week,
					Sequence:        sequence,
					SessionKey:      tmpl.Key,
					Title:           tmpl.Title,
					Summary:         summarizeBlocks(tmpl.Blocks),
					ScheduledDate:   cursor,
					Intensity:       tmpl.Intensity,
					DurationMinutes: tmpl.DurationMinutes,
					Status:          domain.SessionPlanned,
					ReadinessTips:   cloneStrings(tmpl.ReadinessTips),
					Blocks:          freezeBlocks(tmpl.Blocks),
				})
				cursor = cursor.AddDate(0, 0, cadence)
			}
		}
	}
	return plan
}

// SessionID builds the stable id of a plan session. The sequence keeps it
// unique when templates in different phases share a key.
func SessionID(phaseKey string, week int, sessionKey string, sequence int) string {
	return fmt.Sprintf("%s-w%d-%s-%d", phaseKey, week, sessionKey, sequence)
}

func summarizeBlocks(blocks []domain.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		names := make([]string, 0, len(block.Exercises))
		for _, ex := range block.Exercises {
			names = append(names, ex.Name)
		}
		parts = append(parts, block.Label+": "+strings.Join(names, ", "))
	}
	return strings.Join(parts, " | ")
}

func freezeBlocks(blocks []domain.Block) []domain.PlanBlock {
	frozen := make([]domain.PlanBlock, 0, len(blocks))
	for _, block := range blocks {
		frozen = append(frozen, domain.PlanBlock{
			Label:     block.Label,
			Focus:     block.Focus,
			Notes:     block.Notes,
			Exercises: cloneExercises(block.Exercises),
		})
	}
	return frozen
}
