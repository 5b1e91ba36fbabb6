package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for the enrollment lifecycle
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentPaused    AssignmentStatus = "paused"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentArchived  AssignmentStatus = "archived" // Terminal, plan becomes read-only
)

// Valid reports whether s is one of the known assignment statuses.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentActive, AssignmentPaused, AssignmentCompleted, AssignmentArchived:
		return true
	}
	return false
}

// SessionStatus tracks a single plan session.
type SessionStatus string

const (
	SessionPlanned    SessionStatus = "planned"
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
	SessionSkipped    SessionStatus = "skipped"
)

// Actionable reports whether the session still needs to be done.
func (s SessionStatus) Actionable() bool {
	return s == SessionPlanned || s == SessionInProgress
}

// Personalization holds per-user tuning captured at enrollment.
type Personalization struct {
	AvailableEquipment    []string `bson:"availableEquipment,omitempty" json:"availableEquipment,omitempty"`
	SessionTimePreference string   `bson:"sessionTimePreference,omitempty" json:"sessionTimePreference,omitempty"` // morning | midday | evening
	GoalPriority          string   `bson:"goalPriority,omitempty" json:"goalPriority,omitempty"`
	MobilityConstraints   []string `bson:"mobilityConstraints,omitempty" json:"mobilityConstraints,omitempty"`
	RecoveryFocus         string   `bson:"recoveryFocus,omitempty" json:"recoveryFocus,omitempty"`
	SessionsPerWeek       *int     `bson:"sessionsPerWeek,omitempty" json:"sessionsPerWeek,omitempty"` // Cadence override
}

// PlanBlock is the frozen copy of a template block inside a plan session.
type PlanBlock struct {
	Label     string     `bson:"label" json:"label"`
	Focus     string     `bson:"focus" json:"focus"`
	Notes     string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// PlanSession is one dated occurrence of a session template.
// Template-derived fields are copies taken at generation time.
type PlanSession struct {
	ID              string        `bson:"id" json:"id"`
	PhaseKey        string        `bson:"phaseKey" json:"phaseKey"`
	Week            int           `bson:"week" json:"week"`
	Sequence        int           `bson:"sequence" json:"sequence"`
	SessionKey      string        `bson:"sessionKey" json:"sessionKey"`
	Title           string        `bson:"title" json:"title"`
	Summary         string        `bson:"summary" json:"summary"`
	ScheduledDate   time.Time     `bson:"scheduledDate" json:"scheduledDate"`
	Intensity       Intensity     `bson:"intensity" json:"intensity"`
	DurationMinutes int           `bson:"durationMinutes" json:"durationMinutes"`
	Status          SessionStatus `bson:"status" json:"status"`
	ReadinessTips   []string      `bson:"readinessTips,omitempty" json:"readinessTips,omitempty"`
	Blocks          []PlanBlock   `bson:"blocks" json:"blocks"`
	SessionNotes    *string       `bson:"sessionNotes" json:"sessionNotes"`
	UpdatedAt       *time.Time    `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// AssignmentPlan is the concrete schedule for one enrollment.
// Its session list is fixed in length and order once generated.
type AssignmentPlan struct {
	CreatedAt       time.Time        `bson:"createdAt" json:"createdAt"`
	Personalization *Personalization `bson:"personalization,omitempty" json:"personalization,omitempty"`
	Sessions        []PlanSession    `bson:"sessions" json:"sessions"`
}

// ProgressSummary is derived from a plan. The readiness fields are written by check-ins.
type ProgressSummary struct {
	TotalSessions      int          `bson:"totalSessions" json:"totalSessions"`
	CompletedSessions  int          `bson:"completedSessions" json:"completedSessions"`
	SkippedSessions    int          `bson:"skippedSessions" json:"skippedSessions"`
	CompletionRate     float64      `bson:"completionRate" json:"completionRate"`
	NextSession        *PlanSession `bson:"nextSession,omitempty" json:"nextSession"`
	LastReadinessScore *int         `bson:"lastReadinessScore,omitempty" json:"lastReadinessScore,omitempty"`
	LastCheckInAt      *time.Time   `bson:"lastCheckInAt,omitempty" json:"lastCheckInAt,omitempty"`
}

// Assignment enrolls a user in a protocol and owns the generated plan.
type Assignment struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID              primitive.ObjectID `bson:"userId" json:"userId"`
	ProtocolID          primitive.ObjectID `bson:"protocolId" json:"protocolId"`
	Status              AssignmentStatus   `bson:"status" json:"status"`
	StartDate           time.Time          `bson:"startDate" json:"startDate"`
	Personalization     *Personalization   `bson:"personalization,omitempty" json:"personalization,omitempty"`
	ReadinessRules      map[string]any     `bson:"readinessRules,omitempty" json:"readinessRules,omitempty"`
	Plan                AssignmentPlan     `bson:"plan" json:"plan"`
	CurrentSessionIndex int                `bson:"currentSessionIndex" json:"currentSessionIndex"`
	Progress            ProgressSummary    `bson:"progress" json:"progress"`
	Version             int64              `bson:"version" json:"version"` // Optimistic concurrency token
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}
