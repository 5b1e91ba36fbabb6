package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistorySourceProtocolPlan marks history entries synthesized from a completed plan session.
const HistorySourceProtocolPlan = "protocol-plan"

// HistorySet is a performed set in a workout history record.
type HistorySet struct {
	Reps        *int     `bson:"reps" json:"reps"`
	Weight      *float64 `bson:"weight" json:"weight"`
	Tempo       *string  `bson:"tempo,omitempty" json:"tempo,omitempty"`
	RestSeconds *int     `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	Completed   bool     `bson:"completed" json:"completed"`
}

// HistoryExercise is one exercise inside a workout history record.
type HistoryExercise struct {
	ID        string       `bson:"id" json:"id"`
	Name      string       `bson:"name" json:"name"`
	Category  string       `bson:"category" json:"category"`
	Intensity Intensity    `bson:"intensity" json:"intensity"`
	Notes     string       `bson:"notes,omitempty" json:"notes,omitempty"`
	Sets      []HistorySet `bson:"sets" json:"sets"`
	Source    string       `bson:"source" json:"source"`
}

// HistoryRecord is a permanent log of a performed workout.
// Records created from plan sessions use "{assignmentId}-{sessionId}" as ID.
type HistoryRecord struct {
	ID              string             `bson:"_id" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	ProtocolID      primitive.ObjectID `bson:"protocolId" json:"protocolId"`
	AssignmentID    primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	PlanSessionID   string             `bson:"planSessionId" json:"planSessionId"`
	Exercises       []HistoryExercise  `bson:"exercises" json:"exercises"`
	DurationSeconds int                `bson:"durationSeconds" json:"durationSeconds"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt     time.Time          `bson:"completedAt" json:"completedAt"`
}
