// internal/domain/protocol.go
package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CurrentSchemaVersion is the newest protocol template layout this build understands.
// Version 0 is what legacy documents without a version field decode to and is read as 1.
const CurrentSchemaVersion = 1

// Intensity describes how demanding a session template is.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// ErrInvalidProtocol is returned (wrapped) by Protocol.Validate.
var ErrInvalidProtocol = errors.New("invalid protocol template")

// Protocol is a reusable multi-phase program. It is authored elsewhere and treated as immutable here.
type Protocol struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id" yaml:"-"`
	Slug            string              `bson:"slug" json:"slug" yaml:"slug"`
	Name            string              `bson:"name" json:"name" yaml:"name"`
	Summary         string              `bson:"summary,omitempty" json:"summary,omitempty" yaml:"summary"`
	Goal            string              `bson:"goal,omitempty" json:"goal,omitempty" yaml:"goal"`
	Level           string              `bson:"level,omitempty" json:"level,omitempty" yaml:"trainingLevel"`
	SchemaVersion   int                 `bson:"schemaVersion" json:"schemaVersion" yaml:"schemaVersion"`
	DurationWeeks   int                 `bson:"durationWeeks,omitempty" json:"durationWeeks,omitempty" yaml:"durationWeeks"`
	SessionsPerWeek *int                `bson:"sessionsPerWeek,omitempty" json:"sessionsPerWeek,omitempty" yaml:"sessionsPerWeek"`
	Tags            []string            `bson:"tags,omitempty" json:"tags,omitempty" yaml:"tags"`
	FocusAreas      []string            `bson:"focusAreas,omitempty" json:"focusAreas,omitempty" yaml:"focusAreas"`
	Equipment       []string            `bson:"equipment,omitempty" json:"equipment,omitempty" yaml:"equipment"`
	ReadinessNotes  []string            `bson:"readinessNotes,omitempty" json:"readinessNotes,omitempty" yaml:"readinessGuidelines"`
	IsPublic        bool                `bson:"isPublic" json:"isPublic" yaml:"isPublic"`
	CreatedBy       *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty" yaml:"-"`
	Phases          []Phase             `bson:"phases" json:"phases" yaml:"phases"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt" yaml:"-"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

// Phase is a named stage of a protocol. Its session templates repeat once per week.
type Phase struct {
	Key           string            `bson:"key" json:"key" yaml:"key"`
	Name          string            `bson:"name,omitempty" json:"name,omitempty" yaml:"name"`
	Focus         []string          `bson:"focus,omitempty" json:"focus,omitempty" yaml:"focus"`
	DurationWeeks int               `bson:"durationWeeks" json:"durationWeeks" yaml:"durationWeeks"`
	Notes         string            `bson:"notes,omitempty" json:"notes,omitempty" yaml:"notes"`
	Sessions      []SessionTemplate `bson:"sessions" json:"sessions" yaml:"sessions"`
}

type SessionTemplate struct {
	Key             string    `bson:"key" json:"key" yaml:"key"`
	Title           string    `bson:"title" json:"title" yaml:"title"`
	Goal            string    `bson:"goal,omitempty" json:"goal,omitempty" yaml:"goal"`
	Description     string    `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes" yaml:"durationMinutes"`
	Intensity       Intensity `bson:"intensity" json:"intensity" yaml:"intensity"`
	ReadinessTips   []string  `bson:"readinessTips,omitempty" json:"readinessTips,omitempty" yaml:"readinessTips"`
	Blocks          []Block   `bson:"blocks" json:"blocks" yaml:"blocks"`
}

type Block struct {
	Key       string     `bson:"key,omitempty" json:"key,omitempty" yaml:"key"`
	Label     string     `bson:"label" json:"label" yaml:"label"`
	Focus     string     `bson:"focus" json:"focus" yaml:"focus"`
	Notes     string     `bson:"notes,omitempty" json:"notes,omitempty" yaml:"notes"`
	Exercises []Exercise `bson:"exercises" json:"exercises" yaml:"exercises"`
}

type Exercise struct {
	Key         string        `bson:"key,omitempty" json:"key,omitempty" yaml:"key"`
	Name        string        `bson:"name" json:"name" yaml:"name"`
	Pattern     string        `bson:"pattern" json:"pattern" yaml:"pattern"`
	Description string        `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
	Equipment   []string      `bson:"equipment,omitempty" json:"equipment,omitempty" yaml:"equipment"`
	Cues        []string      `bson:"cues,omitempty" json:"cues,omitempty" yaml:"cues"`
	Sets        []ExerciseSet `bson:"sets" json:"sets" yaml:"sets"`
}

// ExerciseSet is one prescribed set. Every field is optional.
type ExerciseSet struct {
	Reps            *int     `bson:"reps,omitempty" json:"reps" yaml:"reps"`
	Weight          *float64 `bson:"weight,omitempty" json:"weight" yaml:"weight"`
	DurationSeconds *int     `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty" yaml:"durationSeconds"`
	Tempo           *string  `bson:"tempo,omitempty" json:"tempo" yaml:"tempo"`
	RestSeconds     *int     `bson:"restSeconds,omitempty" json:"restSeconds" yaml:"restSeconds"`
}

// Validate checks the template before it is handed to the plan generator.
// Empty phase lists and phases without sessions are allowed; they simply generate nothing.
func (p *Protocol) Validate() error {
	if p.SchemaVersion < 0 || p.SchemaVersion > CurrentSchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %d", ErrInvalidProtocol, p.SchemaVersion)
	}
	if p.SessionsPerWeek != nil && *p.SessionsPerWeek < 0 {
		return fmt.Errorf("%w: sessionsPerWeek must not be negative", ErrInvalidProtocol)
	}

	seenPhases := make(map[string]struct{}, len(p.Phases))
	for i, phase := range p.Phases {
		if phase.Key == "" {
			return fmt.Errorf("%w: phase %d has no key", ErrInvalidProtocol, i)
		}
		if _, dup := seenPhases[phase.Key]; dup {
			return fmt.Errorf("%w: duplicate phase key %q", ErrInvalidProtocol, phase.Key)
		}
		seenPhases[phase.Key] = struct{}{}

		for j, session := range phase.Sessions {
			if session.Key == "" {
				return fmt.Errorf("%w: phase %q session %d has no key", ErrInvalidProtocol, phase.Key, j)
			}
			if !session.Intensity.valid() {
				return fmt.Errorf("%w: session %q has unknown intensity %q", ErrInvalidProtocol, session.Key, session.Intensity)
			}
			for _, block := range session.Blocks {
				for k, exercise := range block.Exercises {
					if exercise.Name == "" {
						return fmt.Errorf("%w: session %q block %q exercise %d has no name", ErrInvalidProtocol, session.Key, block.Label, k)
					}
				}
			}
		}
	}
	return nil
}

func (i Intensity) valid() bool {
	switch i {
	case "", IntensityLow, IntensityModerate, IntensityHigh:
		return true
	}
	return false
}
