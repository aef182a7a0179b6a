package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fittrack/internal/config"
	"github.com/jonathan/fittrack/internal/fetch"
	"github.com/jonathan/fittrack/internal/profile"
	"github.com/jonathan/fittrack/internal/session"
	"github.com/jonathan/fittrack/internal/types"
	"github.com/jonathan/fittrack/internal/units"
)

func TestLoadClientConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fittrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: https://fit.example.com\ntimeout: 5s\n"), 0o600))

	got, err := loadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://fit.example.com", got.ServerURL)
	assert.Equal(t, "5s", got.Timeout)
	assert.Equal(t, "follow", got.UnitsPolicy)

	serverURLFlag = "http://localhost:9999"
	t.Cleanup(func() { serverURLFlag = "" })
	got, err = loadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", got.ServerURL)

	got, err = loadClientConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTimeout, got.TimeoutDuration())
}

func TestLoadClientConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"units_policy": "sometimes"}`), 0o600))

	_, err := loadClientConfig(path)
	assert.Error(t, err)
}

func TestDescribeError(t *testing.T) {
	assert.Contains(t, describeError(fmt.Errorf("load: %w", session.ErrUnauthenticated)), "please log in")

	remote := fmt.Errorf("failed: %w", &fetch.RemoteError{URL: "u", StatusCode: 403, Message: "Free tier user cannot make more than 3 routines"})
	assert.Equal(t, "Free tier user cannot make more than 3 routines (status 403)", describeError(remote))

	chained := &fetch.RemoteError{StatusCode: 400, Message: "error while trying to update routine: error decoding body"}
	assert.Equal(t, "error decoding body (status 400)", describeError(chained))

	assert.Equal(t, "boom", describeError(errors.New("boom")))
}

func TestFormatNumber(t *testing.T) {
	for in, want := range map[float64]string{0: "0", 185: "185", 100: "100", 83.91: "83.91", 5.9: "5.9", 2.5: "2.5"} {
		assert.Equal(t, want, formatNumber(in), "%v", in)
	}
}

func TestRenderRoutine(t *testing.T) {
	doc := types.RoutineDocument{
		RoutineName: "PPL",
		RefID:       "ref-1",
		CreatedAt:   "2026-02-03T10:00:00Z",
		Workouts: []types.WorkoutEntry{{
			WorkoutName: "Push",
			Exercises: []types.ExerciseEntry{{
				ExerciseName: "Bench Press",
				MuscleGroup:  types.Chest,
				Sets: []types.SetEntry{
					{Reps: 10, Weight: 135, IsWarmUp: true},
					{Reps: 5, Weight: 225},
				},
			}},
		}},
	}

	var buf bytes.Buffer
	renderRoutine(&buf, doc, units.Imperial)
	assert.Equal(t, `PPL  (ref-1, created 2026-02-03)
  [0] Push
    [0] Bench Press (chest)
      [0] 10 x 135 lbs  warm-up
      [1] 5 x 225 lbs
`, buf.String())

	buf.Reset()
	renderRoutine(&buf, types.RoutineDocument{RoutineName: "Empty", RefID: "r"}, units.Metric)
	assert.Contains(t, buf.String(), "no workouts")
}

func TestRenderRoutineList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderRoutineList(&buf, []types.RoutineDocument{
		{RefID: "ref-1", RoutineName: "PPL", CreatedAt: "2026-02-03T10:00:00Z", Workouts: make([]types.WorkoutEntry, 3)},
	}))
	assert.Contains(t, buf.String(), "REF ID")
	assert.Contains(t, buf.String(), "ref-1")
	assert.Contains(t, buf.String(), "2026-02-03")
}

func TestRenderProfile(t *testing.T) {
	doc := types.NewProfileDocument("2026-01-15T09:00:00Z")
	doc.Metrics.Weight = 83.91
	doc.Settings.UnitsPreference = units.Metric

	var buf bytes.Buffer
	require.NoError(t, renderProfile(&buf, profile.Snapshot{
		Profile:     doc,
		DisplayName: "Sam",
		JoinDate:    "2026-01-15",
		WeightLabel: units.Metric.WeightLabel(),
		HeightLabel: units.Metric.HeightLabel(),
		Stale:       []profile.Field{profile.FieldHeight},
	}))
	out := buf.String()
	assert.Contains(t, out, "Sam")
	assert.Contains(t, out, "83.91 "+units.Metric.WeightLabel())
	assert.Contains(t, out, "Free")
	assert.Contains(t, out, "Not yet converted")
}
