package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/jonathan/fittrack/internal/routine"
	"github.com/jonathan/fittrack/internal/types"
)

// editOp is one parsed --op, applied to a loaded editor.
type editOp struct {
	text  string
	apply func(*routine.Editor) error
}

// opSpec describes an op name: its index arguments and whether a trailing value follows.
type opSpec struct {
	indexes int
	value   bool
	usage   string
	build   func(idx []int, value string) (func(*routine.Editor) error, error)
}

var opSpecs = map[string]opSpec{
	"add-workout": {
		usage: "add-workout",
		build: func([]int, string) (func(*routine.Editor) error, error) {
			return (*routine.Editor).AddWorkout, nil
		},
	},
	"remove-workout": {
		indexes: 1, usage: "remove-workout <w>",
		build: func(idx []int, _ string) (func(*routine.Editor) error, error) {
			return func(e *routine.Editor) error { return e.RemoveWorkout(idx[0]) }, nil
		},
	},
	"rename-workout": {
		indexes: 1, value: true, usage: "rename-workout <w> <name>",
		build: func(idx []int, name string) (func(*routine.Editor) error, error) {
			return func(e *routine.Editor) error { return e.UpdateWorkoutName(idx[0], name) }, nil
		},
	},
	"add-exercise": {
		indexes: 1, usage: "add-exercise <w>",
		build: func(idx []int, _ string) (func(*routine.Editor) error, error) {
			return func(e *routine.Editor) error { return e.AddExercise(idx[0]) }, nil
		},
	},
	"remove-exercise": {
		indexes: 2, usage: "remove-exercise <w> <e>",
		build: func(idx []int, _ string) (func(*routine.Editor) error, error) {
			return func(e *routine.Editor) error { return e.RemoveExercise(idx[0], idx[1]) }, nil
		},
	},
	"rename-exercise": {
		indexes: 2, value: true, usage: "rename-exercise <w> <e> <name>",
		build: func(idx []int, name string) (func(*routine.Editor) error, error) {
			return func(e *routine.Editor) error { return e.UpdateExerciseName(idx[0], idx[1], name) }, nil
		},
	},
	"muscle": {
		indexes: 2, value: true, usage: "muscle <w> <e> <group>",
		build: func(idx []int, value string) (func(*routine.Editor) error, error) {
			group, err := types.ParseMuscleGroup(value)
			if err != nil {
				return nil, err
			}
			return func(e *routine.Editor) error { return e.UpdateMuscleGroup(idx[0], idx[1], group) }, nil
		},
	},
	"add-set": {
		indexes: 2, usage: "add-set <w> <e>",
		build: func(idx []int, _ string) (func(*routine.Editor) error, error) {
			return func(e *routine.Editor) error { return e.AddSet(idx[0], idx[1]) }, nil
		},
	},
	"remove-set": {
		indexes: 3, usage: "remove-set <w> <e> <s>",
		build: func(idx []int, _ string) (func(*routine.Editor) error, error) {
			return func(e *routine.Editor) error { return e.RemoveSet(idx[0], idx[1], idx[2]) }, nil
		},
	},
	"set": {
		indexes: 3, value: true, usage: "set <w> <e> <s> <Reps|Weight|IsDropSet|IsWarmUp> <value>",
		build: buildSetOp,
	},
}

// buildSetOp splits "<field> <value>" and types the value for the field.
func buildSetOp(idx []int, rest string) (func(*routine.Editor) error, error) {
	fieldName, raw, ok := strings.Cut(rest, " ")
	if !ok {
		return nil, fmt.Errorf("set needs a field and a value")
	}
	field, err := routine.ParseSetField(fieldName)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)

	var value any = raw
	if field == routine.FieldIsDropSet || field == routine.FieldIsWarmUp {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s wants true or false, got %q", field, raw)
		}
		value = b
	}
	return func(e *routine.Editor) error { return e.UpdateSet(idx[0], idx[1], idx[2], field, value) }, nil
}

// parseOp parses one --op value such as `rename-workout 0 "Push Day"`. Indexes are
// zero-based.
func parseOp(text string) (editOp, error) {
	words, err := splitWords(text)
	if err != nil {
		return editOp{}, fmt.Errorf("op %q: %w", text, err)
	}
	if len(words) == 0 {
		return editOp{}, fmt.Errorf("empty op")
	}

	def, ok := opSpecs[strings.ToLower(words[0])]
	if !ok {
		return editOp{}, fmt.Errorf("unknown op %q", words[0])
	}
	args := words[1:]
	if len(args) < def.indexes || (!def.value && len(args) != def.indexes) || (def.value && len(args) == def.indexes) {
		return editOp{}, fmt.Errorf("op %q: usage: %s", text, def.usage)
	}

	idx := make([]int, def.indexes)
	for i := range idx {
		n, err := strconv.Atoi(args[i])
		if err != nil || n < 0 {
			return editOp{}, fmt.Errorf("op %q: index %q is not a non-negative integer", text, args[i])
		}
		idx[i] = n
	}

	apply, err := def.build(idx, strings.Join(args[def.indexes:], " "))
	if err != nil {
		return editOp{}, fmt.Errorf("op %q: %w", text, err)
	}
	return editOp{text: text, apply: apply}, nil
}

// splitWords splits an op into shell-style words. Quotes group words; shell operators
// must be quoted.
func splitWords(s string) ([]string, error) {
	parser := shellwords.NewParser()
	words, err := parser.Parse(s)
	if err != nil {
		return nil, err
	}
	if parser.Position >= 0 {
		return nil, fmt.Errorf("unquoted shell operator; quote values containing ; & | < >")
	}
	return words, nil
}
