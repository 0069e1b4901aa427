package workouts

import (
	"context"
	"time"
)

// WorkoutType categorizes a logged workout.
type WorkoutType string

const (
	TypeStrength     WorkoutType = "Strength"
	TypeCardio       WorkoutType = "Cardio"
	TypeFlexibility  WorkoutType = "Flexibility"
	TypeCalisthenics WorkoutType = "Calisthenics"
	TypeCrossFit     WorkoutType = "CrossFit"
	TypeOther        WorkoutType = "Other"
)

// Types lists every known workout type.
var Types = []WorkoutType{
	TypeStrength, TypeCardio, TypeFlexibility, TypeCalisthenics, TypeCrossFit, TypeOther,
}

// Valid reports whether t is a known workout type.
func (t WorkoutType) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// WorkoutLog is one logged workout owned by a single user. Logs have an
// independent create/update/delete lifecycle with no status machine.
type WorkoutLog struct {
	ID     string      `json:"id"`
	UserID string      `json:"userId"`
	Date   time.Time   `json:"date"`
	Name   string      `json:"workoutName"`
	Type   WorkoutType `json:"type"`
	Sets   int         `json:"sets"`
	Reps   int         `json:"reps"`
	Notes  string      `json:"notes,omitempty"`
}

// Store is the persistence boundary for the flat workout list. Reads fail
// open to an empty list on missing or corrupt data.
type Store interface {
	GetWorkouts(ctx context.Context) []WorkoutLog
	SaveWorkouts(ctx context.Context, logs []WorkoutLog) error
}
