package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckIn is a self-reported readiness snapshot, optionally tied to an assignment.
type CheckIn struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	AssignmentID   *primitive.ObjectID `bson:"assignmentId,omitempty" json:"assignmentId,omitempty"`
	ReadinessScore *int                `bson:"readinessScore,omitempty" json:"readinessScore,omitempty"`
	EnergyLevel    *int                `bson:"energyLevel,omitempty" json:"energyLevel,omitempty"`
	SorenessLevel  *int                `bson:"sorenessLevel,omitempty" json:"sorenessLevel,omitempty"`
	SleepHours     *float64            `bson:"sleepHours,omitempty" json:"sleepHours,omitempty"`
	StressLevel    *int                `bson:"stressLevel,omitempty" json:"stressLevel,omitempty"`
	Mood           string              `bson:"mood,omitempty" json:"mood,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Tags           []string            `bson:"tags" json:"tags"`
	LocalDate      string              `bson:"localDate" json:"localDate"` // YYYY-MM-DD in server local time
	LocalTime      string              `bson:"localTime" json:"localTime"` // HH:MM:SS
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}
