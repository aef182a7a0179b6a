package types

import (
	"fmt"
	"strconv"
	"strings"
)

// MuscleGroup is the enum index stored on an exercise.
type MuscleGroup int

const (
	Chest MuscleGroup = iota
	Back
	Biceps
	Triceps
	FrontDelts
	SideDelts
	RearDelts
	Abs
	Quads
	Hamstrings
	Calves
	Forearms
)

var muscleGroupNames = [...]string{
	"chest", "back", "biceps", "triceps", "front delts", "side delts",
	"rear delts", "abs", "quads", "hamstrings", "calves", "forearms",
}

// MuscleGroupCount is the number of defined muscle groups.
const MuscleGroupCount = len(muscleGroupNames)

func (m MuscleGroup) String() string {
	if !m.Valid() {
		return fmt.Sprintf("MuscleGroup(%d)", int(m))
	}
	return muscleGroupNames[m]
}

// Valid reports whether m is a defined group.
func (m MuscleGroup) Valid() bool {
	return m >= 0 && int(m) < MuscleGroupCount
}

// ParseMuscleGroup accepts either the enum index or a group name ("side delts",
// "side-delts").
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if g := MuscleGroup(n); g.Valid() {
			return g, nil
		}
		return 0, fmt.Errorf("muscle group %d out of range 0-%d", n, MuscleGroupCount-1)
	}
	name := strings.ToLower(strings.ReplaceAll(s, "-", " "))
	for i, candidate := range muscleGroupNames {
		if candidate == name {
			return MuscleGroup(i), nil
		}
	}
	return 0, fmt.Errorf("unknown muscle group %q", s)
}

// SetEntry is one set of an exercise.
type SetEntry struct {
	Reps      int     `json:"Reps" validate:"gte=0"`
	Weight    float64 `json:"Weight" validate:"gte=0"`
	IsDropSet bool    `json:"IsDropSet"`
	IsWarmUp  bool    `json:"IsWarmUp"`
}

// ExerciseEntry is one exercise of a workout.
type ExerciseEntry struct {
	ExerciseName string      `json:"ExerciseName"`
	MuscleGroup  MuscleGroup `json:"MuscleGroup" validate:"gte=0,lte=11"`
	Sets         []SetEntry  `json:"Sets" validate:"dive"`
}

// WorkoutEntry is one workout of a routine.
type WorkoutEntry struct {
	WorkoutName string          `json:"WorkoutName"`
	Exercises   []ExerciseEntry `json:"Exercises" validate:"dive"`
}

// RoutineDocument is an ordered collection of workouts. Workouts, exercises and sets
// have no identity besides their position.
type RoutineDocument struct {
	RoutineName string         `json:"RoutineName" validate:"required,max=100"`
	UID         string         `json:"UID"`
	CreatedAt   string         `json:"CreatedAt"`
	RefID       string         `json:"RefId"`
	Workouts    []WorkoutEntry `json:"Workouts" validate:"dive"`
}

// Validate checks field ranges of the whole routine tree.
func (r *RoutineDocument) Validate() error {
	return validate.Struct(r)
}

// CreatedDisplay truncates CreatedAt to its date part.
func (r RoutineDocument) CreatedDisplay() string {
	if len(r.CreatedAt) >= 10 {
		return r.CreatedAt[:10]
	}
	return r.CreatedAt
}

// Clone deep-copies r. Nil sequences come back empty so the clone always marshals
// arrays rather than null.
func (r RoutineDocument) Clone() RoutineDocument {
	out := r
	out.Workouts = make([]WorkoutEntry, len(r.Workouts))
	for i, w := range r.Workouts {
		out.Workouts[i] = w.Clone()
	}
	return out
}

// Clone deep-copies w.
func (w WorkoutEntry) Clone() WorkoutEntry {
	out := w
	out.Exercises = make([]ExerciseEntry, len(w.Exercises))
	for i, e := range w.Exercises {
		out.Exercises[i] = e.Clone()
	}
	return out
}

// Clone deep-copies e.
func (e ExerciseEntry) Clone() ExerciseEntry {
	out := e
	out.Sets = make([]SetEntry, len(e.Sets))
	copy(out.Sets, e.Sets)
	return out
}

// RoutineListResponse is the body of a routine list read.
type RoutineListResponse struct {
	Data []RoutineDocument `json:"data"`
}

// RoutineResponse is the body of a single routine read.
type RoutineResponse struct {
	Data RoutineDocument `json:"data"`
}
