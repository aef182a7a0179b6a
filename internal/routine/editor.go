package routine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/fetch"
	"github.com/jonathan/fittrack/internal/loadstate"
	"github.com/jonathan/fittrack/internal/logging"
	"github.com/jonathan/fittrack/internal/schemas"
	"github.com/jonathan/fittrack/internal/session"
	"github.com/jonathan/fittrack/internal/types"
	"github.com/jonathan/fittrack/internal/units"
)

// StorageSystem is the unit system set weights are persisted in.
const StorageSystem = units.Imperial

// SavedMessage is shown after a successful save.
const SavedMessage = "Routine saved"

var (
	// ErrSaveInProgress rejects a save while another is outstanding.
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrNotLoaded means no routine has been loaded into the editor.
	ErrNotLoaded = errors.New("no routine loaded")
)

// Client is the subset of the fetch client the editor needs.
type Client interface {
	GetRoutine(ctx context.Context, refID, idToken string) (*types.RoutineDocument, error)
	ReplaceRoutine(ctx context.Context, refID, idToken string, doc types.RoutineDocument) error
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.logger = logging.OrNop(l) }
}

// WithDisplaySystem sets the system set weights are entered and shown in.
func WithDisplaySystem(s units.System) Option {
	return func(e *Editor) {
		if s.Valid() {
			e.display = s
		}
	}
}

// Editor holds a private working copy of one routine. Nothing is written remotely
// except by Save.
type Editor struct {
	client   Client
	sessions session.Accessor
	logger   *zap.Logger
	display  units.System

	mu      sync.Mutex
	status  loadstate.Status
	base    types.RoutineDocument
	doc     types.RoutineDocument
	loaded  bool
	saving  bool
	message string
}

// NewEditor creates an idle editor.
func NewEditor(client Client, sessions session.Accessor, opts ...Option) *Editor {
	e := &Editor{
		client:   client,
		sessions: sessions,
		logger:   zap.NewNop(),
		display:  StorageSystem,
		status:   loadstate.Idle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the routine and makes it the working copy. A failed load leaves the
// editor without a document and records the error as its message.
func (e *Editor) Load(ctx context.Context, refID string) (types.RoutineDocument, error) {
	e.mu.Lock()
	e.status = loadstate.Loading
	e.mu.Unlock()

	sess, err := e.sessions.Current(ctx)
	if err != nil {
		e.failLoad(loadstate.Unauthenticated, err)
		return types.RoutineDocument{}, err
	}

	doc, err := e.client.GetRoutine(ctx, refID, sess.IDToken)
	if err != nil {
		e.logger.Debug("routine load failed", zap.String("ref_id", refID), zap.Bool("remote", fetch.IsRemote(err)), zap.Error(err))
		if fetch.IsUnauthorized(err) {
			e.failLoad(loadstate.Unauthenticated, err)
			return types.RoutineDocument{}, fmt.Errorf("%w: failed to load routine %s: %w", session.ErrUnauthenticated, refID, err)
		}
		e.failLoad(loadstate.Failed, err)
		return types.RoutineDocument{}, fmt.Errorf("failed to load routine %s: %w", refID, err)
	}

	loaded := doc.Clone()
	if loaded.RefID == "" {
		loaded.RefID = refID
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.base = loaded
	e.doc = loaded
	e.loaded = true
	e.status = loadstate.Ready
	e.message = ""
	e.logger.Debug("routine loaded", zap.String("ref_id", refID), zap.Int("workouts", len(loaded.Workouts)))
	return loaded.Clone(), nil
}

func (e *Editor) failLoad(status loadstate.Status, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.base = types.RoutineDocument{}
	e.doc = types.RoutineDocument{}
	e.loaded = false
	e.status = status
	e.message = fetch.FinalMessage(err)
}

// LoadAsync runs Load in the background.
func (e *Editor) LoadAsync(ctx context.Context, refID string) <-chan loadstate.Result[types.RoutineDocument] {
	return loadstate.Async(ctx, func(ctx context.Context) (types.RoutineDocument, error) {
		return e.Load(ctx, refID)
	})
}

// Document returns a deep copy of the working copy.
func (e *Editor) Document() types.RoutineDocument {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// Loaded reports whether a routine is loaded.
func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Status returns the editor's lifecycle status.
func (e *Editor) Status() loadstate.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Message returns the last success or error message.
func (e *Editor) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// Saving reports whether a save is outstanding.
func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// DisplaySystem returns the system weights are shown in.
func (e *Editor) DisplaySystem() units.System {
	return e.display
}

// Dirty reports whether the working copy differs from the last loaded or saved one.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !cmp.Equal(e.base, e.doc, cmpopts.EquateEmpty())
}

// Diff describes unsaved changes, empty when there are none.
func (e *Editor) Diff() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cmp.Diff(e.base, e.doc, cmpopts.EquateEmpty())
}

// Discard drops local edits.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = e.base
}

// Reset is Discard that also clears the message.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = e.base
	e.message = ""
}

// apply swaps in the result of a copy-on-write operation.
func (e *Editor) apply(op func(types.RoutineDocument) (types.RoutineDocument, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}
	next, err := op(e.doc)
	if err != nil {
		return err
	}
	e.doc = next
	return nil
}

func (e *Editor) AddWorkout() error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return AddWorkout(d), nil
	})
}

func (e *Editor) RemoveWorkout(w int) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return RemoveWorkout(d, w)
	})
}

func (e *Editor) UpdateWorkoutName(w int, name string) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return UpdateWorkoutName(d, w, name)
	})
}

func (e *Editor) AddExercise(w int) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return AddExercise(d, w)
	})
}

func (e *Editor) RemoveExercise(w, ex int) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return RemoveExercise(d, w, ex)
	})
}

func (e *Editor) UpdateExerciseName(w, ex int, name string) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return UpdateExerciseName(d, w, ex, name)
	})
}

func (e *Editor) UpdateMuscleGroup(w, ex int, group types.MuscleGroup) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return UpdateMuscleGroup(d, w, ex, group)
	})
}

func (e *Editor) AddSet(w, ex int) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return AddSet(d, w, ex)
	})
}

func (e *Editor) RemoveSet(w, ex, s int) error {
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return RemoveSet(d, w, ex, s)
	})
}

// InsertSet places set at position s. set.Weight is in the display system.
func (e *Editor) InsertSet(w, ex, s int, set types.SetEntry) error {
	set.Weight = units.ConvertWeight(set.Weight, e.display, StorageSystem)
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return InsertSet(d, w, ex, s, set)
	})
}

// UpdateSet changes one field of a set. Weight values are taken in the display
// system and stored in StorageSystem.
func (e *Editor) UpdateSet(w, ex, s int, field SetField, value any) error {
	if field == FieldWeight && e.display != StorageSystem {
		n, err := toFloat(value)
		if err != nil {
			return &ValueError{Field: field, Value: value, Cause: err}
		}
		value = units.ConvertWeight(n, e.display, StorageSystem)
	}
	return e.apply(func(d types.RoutineDocument) (types.RoutineDocument, error) {
		return UpdateSet(d, w, ex, s, field, value)
	})
}

// DisplayWeight returns a set's weight in the display system.
func (e *Editor) DisplayWeight(w, ex, s int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := checkIndex("workout", w, len(e.doc.Workouts)); err != nil {
		return 0, err
	}
	exercises := e.doc.Workouts[w].Exercises
	if err := checkIndex("exercise", ex, len(exercises)); err != nil {
		return 0, err
	}
	sets := exercises[ex].Sets
	if err := checkIndex("set", s, len(sets)); err != nil {
		return 0, err
	}
	return units.ConvertWeight(sets[s].Weight, StorageSystem, e.display), nil
}

// Save validates the working copy and replaces the remote document with it. On
// failure the working copy is kept so the user can retry.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.saving {
		e.mu.Unlock()
		return ErrSaveInProgress
	}
	e.saving = true
	e.status = loadstate.Saving
	snapshot := e.doc.Clone()
	e.mu.Unlock()

	err := e.save(ctx, snapshot)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	e.status = loadstate.Ready
	if err != nil {
		e.message = fetch.FinalMessage(err)
		e.logger.Debug("routine save failed", zap.String("ref_id", snapshot.RefID), zap.Bool("remote", fetch.IsRemote(err)), zap.Error(err))
		return err
	}
	e.base = snapshot
	e.message = SavedMessage
	e.logger.Debug("routine saved", zap.String("ref_id", snapshot.RefID))
	return nil
}

func (e *Editor) save(ctx context.Context, doc types.RoutineDocument) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid routine: %w", err)
	}
	if err := schemas.Validate(schemas.Routine, doc); err != nil {
		return err
	}
	sess, err := e.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if err := e.client.ReplaceRoutine(ctx, doc.RefID, sess.IDToken, doc); err != nil {
		return fmt.Errorf("failed to save routine: %w", err)
	}
	return nil
}
