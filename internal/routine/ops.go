// Package routine edits one routine document locally and saves it as a whole-document
// replace. Workouts, exercises and sets are addressed by position only, so every
// insertion or removal renumbers the later siblings; callers re-derive indices after
// each structural change.
package routine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/fittrack/internal/types"
)

// Defaults for newly added entries.
const (
	NewWorkoutName  = "New Workout"
	NewExerciseName = "New Exercise"
)

// SetField names an editable field of a set.
type SetField string

const (
	FieldReps      SetField = "Reps"
	FieldWeight    SetField = "Weight"
	FieldIsDropSet SetField = "IsDropSet"
	FieldIsWarmUp  SetField = "IsWarmUp"
)

// IndexError reports a position that does not exist in the document.
type IndexError struct {
	Level string // "workout", "exercise" or "set"
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range (have %d)", e.Level, e.Index, e.Len)
}

// ValueError reports a set value that cannot be applied to its field.
type ValueError struct {
	Field SetField
	Value any
	Cause error
}

func (e *ValueError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid value %v for %s: %v", e.Value, e.Field, e.Cause)
	}
	return fmt.Sprintf("invalid value %v for %s", e.Value, e.Field)
}

func (e *ValueError) Unwrap() error {
	return e.Cause
}

// The functions below never modify their input. Each returns a new document whose
// sequences are freshly allocated along the edited path only; untouched workouts,
// exercises and sets are shared with the input.

func checkIndex(level string, i, n int) error {
	if i < 0 || i >= n {
		return &IndexError{Level: level, Index: i, Len: n}
	}
	return nil
}

func withWorkout(doc types.RoutineDocument, w int, fn func(types.WorkoutEntry) (types.WorkoutEntry, error)) (types.RoutineDocument, error) {
	if err := checkIndex("workout", w, len(doc.Workouts)); err != nil {
		return doc, err
	}
	updated, err := fn(doc.Workouts[w])
	if err != nil {
		return doc, err
	}
	workouts := make([]types.WorkoutEntry, len(doc.Workouts))
	copy(workouts, doc.Workouts)
	workouts[w] = updated
	doc.Workouts = workouts
	return doc, nil
}

func withExercise(doc types.RoutineDocument, w, e int, fn func(types.ExerciseEntry) (types.ExerciseEntry, error)) (types.RoutineDocument, error) {
	return withWorkout(doc, w, func(wo types.WorkoutEntry) (types.WorkoutEntry, error) {
		if err := checkIndex("exercise", e, len(wo.Exercises)); err != nil {
			return wo, err
		}
		updated, err := fn(wo.Exercises[e])
		if err != nil {
			return wo, err
		}
		exercises := make([]types.ExerciseEntry, len(wo.Exercises))
		copy(exercises, wo.Exercises)
		exercises[e] = updated
		wo.Exercises = exercises
		return wo, nil
	})
}

func withSet(doc types.RoutineDocument, w, e, s int, fn func(types.SetEntry) (types.SetEntry, error)) (types.RoutineDocument, error) {
	return withExercise(doc, w, e, func(ex types.ExerciseEntry) (types.ExerciseEntry, error) {
		if err := checkIndex("set", s, len(ex.Sets)); err != nil {
			return ex, err
		}
		updated, err := fn(ex.Sets[s])
		if err != nil {
			return ex, err
		}
		sets := make([]types.SetEntry, len(ex.Sets))
		copy(sets, ex.Sets)
		sets[s] = updated
		ex.Sets = sets
		return ex, nil
	})
}

// insertAt returns a new slice with v placed at index i (0 <= i <= len(in)).
func insertAt[T any](in []T, i int, v T) []T {
	out := make([]T, 0, len(in)+1)
	out = append(out, in[:i]...)
	out = append(out, v)
	return append(out, in[i:]...)
}

// removeAt returns a new slice without index i.
func removeAt[T any](in []T, i int) []T {
	out := make([]T, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}

// AddWorkout appends an empty workout.
func AddWorkout(doc types.RoutineDocument) types.RoutineDocument {
	doc.Workouts = insertAt(doc.Workouts, len(doc.Workouts), types.WorkoutEntry{
		WorkoutName: NewWorkoutName,
		Exercises:   []types.ExerciseEntry{},
	})
	return doc
}

// RemoveWorkout drops workout w; later workouts shift down by one.
func RemoveWorkout(doc types.RoutineDocument, w int) (types.RoutineDocument, error) {
	if err := checkIndex("workout", w, len(doc.Workouts)); err != nil {
		return doc, err
	}
	doc.Workouts = removeAt(doc.Workouts, w)
	return doc, nil
}

// UpdateWorkoutName renames workout w.
func UpdateWorkoutName(doc types.RoutineDocument, w int, name string) (types.RoutineDocument, error) {
	return withWorkout(doc, w, func(wo types.WorkoutEntry) (types.WorkoutEntry, error) {
		wo.WorkoutName = name
		return wo, nil
	})
}

// AddExercise appends an empty exercise to workout w.
func AddExercise(doc types.RoutineDocument, w int) (types.RoutineDocument, error) {
	return withWorkout(doc, w, func(wo types.WorkoutEntry) (types.WorkoutEntry, error) {
		wo.Exercises = insertAt(wo.Exercises, len(wo.Exercises), types.ExerciseEntry{
			ExerciseName: NewExerciseName,
			MuscleGroup:  types.Chest,
			Sets:         []types.SetEntry{},
		})
		return wo, nil
	})
}

// RemoveExercise drops exercise e of workout w.
func RemoveExercise(doc types.RoutineDocument, w, e int) (types.RoutineDocument, error) {
	return withWorkout(doc, w, func(wo types.WorkoutEntry) (types.WorkoutEntry, error) {
		if err := checkIndex("exercise", e, len(wo.Exercises)); err != nil {
			return wo, err
		}
		wo.Exercises = removeAt(wo.Exercises, e)
		return wo, nil
	})
}

// UpdateExerciseName renames exercise e of workout w.
func UpdateExerciseName(doc types.RoutineDocument, w, e int, name string) (types.RoutineDocument, error) {
	return withExercise(doc, w, e, func(ex types.ExerciseEntry) (types.ExerciseEntry, error) {
		ex.ExerciseName = name
		return ex, nil
	})
}

// UpdateMuscleGroup sets the muscle group of exercise e of workout w.
func UpdateMuscleGroup(doc types.RoutineDocument, w, e int, group types.MuscleGroup) (types.RoutineDocument, error) {
	if !group.Valid() {
		return doc, fmt.Errorf("muscle group %d out of range 0-%d", int(group), types.MuscleGroupCount-1)
	}
	return withExercise(doc, w, e, func(ex types.ExerciseEntry) (types.ExerciseEntry, error) {
		ex.MuscleGroup = group
		return ex, nil
	})
}

// AddSet appends a zeroed set to exercise e of workout w.
func AddSet(doc types.RoutineDocument, w, e int) (types.RoutineDocument, error) {
	return withExercise(doc, w, e, func(ex types.ExerciseEntry) (types.ExerciseEntry, error) {
		ex.Sets = insertAt(ex.Sets, len(ex.Sets), types.SetEntry{})
		return ex, nil
	})
}

// InsertSet places set at position s (0..len) of exercise e of workout w.
func InsertSet(doc types.RoutineDocument, w, e, s int, set types.SetEntry) (types.RoutineDocument, error) {
	return withExercise(doc, w, e, func(ex types.ExerciseEntry) (types.ExerciseEntry, error) {
		if err := checkIndex("set", s, len(ex.Sets)+1); err != nil {
			return ex, err
		}
		ex.Sets = insertAt(ex.Sets, s, set)
		return ex, nil
	})
}

// RemoveSet drops set s of exercise e of workout w.
func RemoveSet(doc types.RoutineDocument, w, e, s int) (types.RoutineDocument, error) {
	return withExercise(doc, w, e, func(ex types.ExerciseEntry) (types.ExerciseEntry, error) {
		if err := checkIndex("set", s, len(ex.Sets)); err != nil {
			return ex, err
		}
		ex.Sets = removeAt(ex.Sets, s)
		return ex, nil
	})
}

// UpdateSet changes one field of a set. Reps and Weight accept numbers or numeric
// text; IsDropSet and IsWarmUp take a bool as-is.
func UpdateSet(doc types.RoutineDocument, w, e, s int, field SetField, value any) (types.RoutineDocument, error) {
	apply, err := setter(field, value)
	if err != nil {
		return doc, err
	}
	return withSet(doc, w, e, s, func(set types.SetEntry) (types.SetEntry, error) {
		apply(&set)
		return set, nil
	})
}

// setter validates value for field before any index is touched.
func setter(field SetField, value any) (func(*types.SetEntry), error) {
	switch field {
	case FieldReps:
		n, err := toFloat(value)
		if err != nil {
			return nil, &ValueError{Field: field, Value: value, Cause: err}
		}
		if n != math.Trunc(n) || n < 0 || n > math.MaxInt32 {
			return nil, &ValueError{Field: field, Value: value, Cause: fmt.Errorf("reps must be a whole number >= 0")}
		}
		reps := int(n)
		return func(s *types.SetEntry) { s.Reps = reps }, nil
	case FieldWeight:
		n, err := toFloat(value)
		if err != nil {
			return nil, &ValueError{Field: field, Value: value, Cause: err}
		}
		if n < 0 {
			return nil, &ValueError{Field: field, Value: value, Cause: fmt.Errorf("weight must be >= 0")}
		}
		return func(s *types.SetEntry) { s.Weight = n }, nil
	case FieldIsDropSet, FieldIsWarmUp:
		b, ok := value.(bool)
		if !ok {
			return nil, &ValueError{Field: field, Value: value, Cause: fmt.Errorf("want a bool, got %T", value)}
		}
		if field == FieldIsDropSet {
			return func(s *types.SetEntry) { s.IsDropSet = b }, nil
		}
		return func(s *types.SetEntry) { s.IsWarmUp = b }, nil
	default:
		return nil, fmt.Errorf("unknown set field %q", field)
	}
}

// toFloat parses numeric input. Non-finite values are rejected.
func toFloat(value any) (float64, error) {
	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case float32:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("want a number, got %T", value)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return n, nil
}

// ParseSetField accepts the field names case-insensitively.
func ParseSetField(s string) (SetField, error) {
	for _, f := range []SetField{FieldReps, FieldWeight, FieldIsDropSet, FieldIsWarmUp} {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown set field %q (want Reps, Weight, IsDropSet or IsWarmUp)", s)
}
