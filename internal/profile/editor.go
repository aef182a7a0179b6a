// Package profile edits the signed-in user's profile one field at a time. Each commit
// is a single partial-path patch; the local copy only changes once the server accepts
// it.
package profile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/fetch"
	"github.com/jonathan/fittrack/internal/loadstate"
	"github.com/jonathan/fittrack/internal/logging"
	"github.com/jonathan/fittrack/internal/session"
	"github.com/jonathan/fittrack/internal/types"
	"github.com/jonathan/fittrack/internal/units"
)

// Messages shown after successful commits.
const (
	UpdatedMessage     = "Profile updated"
	NameUpdatedMessage = "Display name updated"
)

var (
	// ErrInvalidNumber rejects metric text that is not a finite number >= 0.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrNotEditing means the field being committed or typed into is not open.
	ErrNotEditing = errors.New("field is not being edited")
	// ErrReadOnlyField rejects edits of JoinDate and SubscriptionTier.
	ErrReadOnlyField = errors.New("field is read-only")
	// ErrNotLoaded means Load has not succeeded yet.
	ErrNotLoaded = errors.New("profile not loaded")
	// ErrSaveInProgress rejects a commit while another is outstanding.
	ErrSaveInProgress = errors.New("save already in progress")
)

// Client is the subset of the fetch client the editor needs.
type Client interface {
	GetProfile(ctx context.Context, uid, idToken string) (*types.ProfileResponse, error)
	PatchProfile(ctx context.Context, uid, idToken string, patch types.ProfilePatch) error
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.logger = logging.OrNop(l) }
}

// WithPolicy sets the canonical unit policy used for both load and save.
func WithPolicy(p units.Policy) Option {
	return func(e *Editor) {
		if p != nil {
			e.policy = p
		}
	}
}

// Snapshot is a read-only copy of the editor state for display.
type Snapshot struct {
	// Profile holds metrics expressed in the user's unit preference.
	Profile      types.ProfileDocument
	DisplayName  string
	JoinDate     string
	WeightLabel  string
	HeightLabel  string
	EditingField Field
	Pending      string
	Status       loadstate.Status
	Message      string
	// Stale lists metrics whose stored value is still in a previous unit system.
	Stale []Field
}

// Editor is the profile editing session of one user.
type Editor struct {
	client   Client
	sessions session.Accessor
	identity session.Identity
	policy   units.Policy
	logger   *zap.Logger

	mu          sync.Mutex
	loaded      bool
	status      loadstate.Status
	profile     types.ProfileDocument
	displayName string
	editing     Field
	pending     string
	message     string
	// lastApplied is the system the local metric values are expressed in.
	lastApplied units.System
	// persisted records the system each metric was last written in remotely.
	persisted map[Field]units.System
}

// NewEditor creates an idle editor. identity may be nil when display names are not
// editable.
func NewEditor(client Client, sessions session.Accessor, identity session.Identity, opts ...Option) *Editor {
	e := &Editor{
		client:    client,
		sessions:  sessions,
		identity:  identity,
		policy:    units.FollowPreference{},
		logger:    zap.NewNop(),
		status:    loadstate.Idle,
		persisted: make(map[Field]units.System),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func preference(doc types.ProfileDocument) units.System {
	if doc.Settings.UnitsPreference.Valid() {
		return doc.Settings.UnitsPreference
	}
	return units.Imperial
}

func convert(f Field, v float64, from, to units.System) float64 {
	if from == to {
		return v
	}
	if f == FieldHeight {
		return units.ConvertHeight(v, from, to)
	}
	return units.ConvertWeight(v, from, to)
}

// Load reads the profile. Every failure, remote or local, is reported as
// ErrUnauthenticated so the caller sends the user back to log in.
func (e *Editor) Load(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	e.status = loadstate.Loading
	e.mu.Unlock()

	sess, err := e.sessions.Current(ctx)
	if err != nil {
		return e.failLoad(err)
	}
	resp, err := e.client.GetProfile(ctx, sess.UID, sess.IDToken)
	if err != nil {
		e.logger.Debug("profile load failed", zap.String("uid", sess.UID), zap.Bool("remote", fetch.IsRemote(err)), zap.Error(err))
		return e.failLoad(fmt.Errorf("%w: failed to load profile: %w", session.ErrUnauthenticated, err))
	}

	doc := resp.Data.Clone()
	pref := preference(doc)
	storage := e.policy.StorageSystem(pref)
	doc.Settings.UnitsPreference = pref
	doc.Metrics.Weight = convert(FieldWeight, doc.Metrics.Weight, storage, pref)
	doc.Metrics.Height = convert(FieldHeight, doc.Metrics.Height, storage, pref)

	name := resp.DisplayName
	if name == "" {
		name = sess.DisplayName
	}

	e.mu.Lock()
	e.profile = doc
	e.displayName = name
	e.lastApplied = pref
	for _, f := range metricFields {
		e.persisted[f] = storage
	}
	e.editing = ""
	e.pending = ""
	e.message = ""
	e.loaded = true
	e.status = loadstate.Ready
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Debug("profile loaded", zap.String("uid", sess.UID), zap.String("units", string(pref)))
	return snap, nil
}

func (e *Editor) failLoad(err error) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	e.status = loadstate.Unauthenticated
	e.message = fetch.FinalMessage(err)
	return Snapshot{}, err
}

// LoadAsync runs Load in the background.
func (e *Editor) LoadAsync(ctx context.Context) <-chan loadstate.Result[Snapshot] {
	return loadstate.Async(ctx, e.Load)
}

// Snapshot returns the current state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Editor) snapshotLocked() Snapshot {
	pref := preference(e.profile)
	return Snapshot{
		Profile:      e.profile.Clone(),
		DisplayName:  e.displayName,
		JoinDate:     e.profile.JoinDateDisplay(),
		WeightLabel:  pref.WeightLabel(),
		HeightLabel:  pref.HeightLabel(),
		EditingField: e.editing,
		Pending:      e.pending,
		Status:       e.status,
		Message:      e.message,
		Stale:        e.staleLocked(),
	}
}

func (e *Editor) staleLocked() []Field {
	if !e.loaded {
		return nil
	}
	storage := e.policy.StorageSystem(preference(e.profile))
	var stale []Field
	for _, f := range metricFields {
		if e.persisted[f] != storage {
			stale = append(stale, f)
		}
	}
	return stale
}

func (e *Editor) valueText(f Field) string {
	switch f {
	case FieldDisplayName:
		return e.displayName
	case FieldCurrentGoal:
		return e.profile.CurrentGoal
	case FieldWeight:
		return strconv.FormatFloat(e.profile.Metrics.Weight, 'f', -1, 64)
	case FieldHeight:
		return strconv.FormatFloat(e.profile.Metrics.Height, 'f', -1, 64)
	case FieldUnitsPreference:
		return string(preference(e.profile))
	}
	return ""
}

// StartEdit opens field for editing with its current value as pending text. Only one
// field is open at a time: while another field is open it does nothing and returns
// false.
func (e *Editor) StartEdit(field Field) (bool, error) {
	if !field.Editable() {
		if field == FieldJoinDate || field == FieldSubscriptionTier {
			return false, ErrReadOnlyField
		}
		return false, fmt.Errorf("unknown profile field %q", field)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return false, ErrNotLoaded
	}
	if e.editing != "" {
		return e.editing == field, nil
	}
	e.editing = field
	e.pending = e.valueText(field)
	e.status = loadstate.Editing
	return true, nil
}

// SetPending replaces the text typed into the open field.
func (e *Editor) SetPending(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing == "" {
		return ErrNotEditing
	}
	e.pending = text
	return nil
}

// CancelEdit closes the open field without saving.
func (e *Editor) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeEditLocked()
}

func (e *Editor) closeEditLocked() {
	e.editing = ""
	e.pending = ""
	if e.loaded {
		e.status = loadstate.Ready
	}
}

// parseMetric accepts finite numbers >= 0.
func parseMetric(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return v, nil
}

// CommitEdit saves the pending text of the open field. On failure the local profile
// is unchanged and the field stays open so the user can retry.
func (e *Editor) CommitEdit(ctx context.Context, field Field) error {
	e.mu.Lock()
	if e.editing != field || field == "" {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if e.status == loadstate.Saving {
		e.mu.Unlock()
		return ErrSaveInProgress
	}
	text := e.pending
	pref := preference(e.profile)
	storage := e.policy.StorageSystem(pref)

	// Local validation happens before the editor enters Saving.
	var (
		patch   types.ProfilePatch
		metric  float64
		newPref units.System
		name    string
		err     error
	)
	switch {
	case field == FieldDisplayName:
		name = strings.TrimSpace(text)
		if name == "" {
			err = errors.New("display name must not be empty")
		} else if e.identity == nil {
			err = errors.New("display name cannot be changed")
		}
	case field.metric():
		metric, err = parseMetric(text)
		if err == nil {
			patch = types.NewProfilePatch(field.Path(), convert(field, metric, pref, storage))
		}
	case field == FieldUnitsPreference:
		newPref, err = units.ParseSystem(text)
		if err == nil {
			patch = types.NewProfilePatch(field.Path(), newPref)
		}
	default:
		patch = types.NewProfilePatch(field.Path(), text)
	}
	if err != nil {
		e.message = err.Error()
		e.mu.Unlock()
		return err
	}
	e.status = loadstate.Saving
	e.mu.Unlock()

	if field == FieldDisplayName {
		err = e.identity.UpdateDisplayName(ctx, name)
	} else {
		err = e.patch(ctx, patch)
	}

	e.mu.Lock()
	if err != nil {
		e.status = loadstate.Editing
		e.message = fetch.FinalMessage(err)
		e.mu.Unlock()
		e.logger.Debug("profile commit failed", zap.String("field", string(field)), zap.Bool("remote", fetch.IsRemote(err)), zap.Error(err))
		return fmt.Errorf("failed to save %s: %w", field, err)
	}

	e.message = UpdatedMessage
	switch {
	case field == FieldDisplayName:
		e.displayName = name
		e.message = NameUpdatedMessage
	case field == FieldCurrentGoal:
		e.profile.CurrentGoal = text
	case field == FieldWeight:
		e.profile.Metrics.Weight = metric
		e.persisted[field] = storage
	case field == FieldHeight:
		e.profile.Metrics.Height = metric
		e.persisted[field] = storage
	case field == FieldUnitsPreference:
		e.applyPreferenceLocked(newPref)
	}
	e.closeEditLocked()
	e.mu.Unlock()
	e.logger.Debug("profile field saved", zap.String("field", string(field)))

	if field == FieldUnitsPreference {
		if err := e.Reexpress(ctx); err != nil {
			return fmt.Errorf("units preference saved but stored metrics were not converted: %w", err)
		}
	}
	return nil
}

// applyPreferenceLocked switches the local metric values to the new system.
func (e *Editor) applyPreferenceLocked(next units.System) {
	e.profile.Settings.UnitsPreference = next
	if e.lastApplied != next {
		e.profile.Metrics.Weight = units.ConvertWeight(e.profile.Metrics.Weight, e.lastApplied, next)
		e.profile.Metrics.Height = units.ConvertHeight(e.profile.Metrics.Height, e.lastApplied, next)
		e.lastApplied = next
	}
}

func (e *Editor) patch(ctx context.Context, patch types.ProfilePatch) error {
	sess, err := e.sessions.Current(ctx)
	if err != nil {
		return err
	}
	return e.client.PatchProfile(ctx, sess.UID, sess.IDToken, patch)
}

// Reexpress rewrites every stale metric in the policy's storage system, one patch per
// metric. Metrics that fail stay stale.
func (e *Editor) Reexpress(ctx context.Context) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	stale := e.staleLocked()
	e.mu.Unlock()

	var errs []error
	for _, f := range stale {
		e.mu.Lock()
		pref := preference(e.profile)
		storage := e.policy.StorageSystem(pref)
		value := e.profile.Metrics.Weight
		if f == FieldHeight {
			value = e.profile.Metrics.Height
		}
		e.mu.Unlock()

		if err := e.patch(ctx, types.NewProfilePatch(f.Path(), convert(f, value, pref, storage))); err != nil {
			e.logger.Debug("metric re-expression failed", zap.String("field", string(f)), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
			continue
		}
		e.mu.Lock()
		e.persisted[f] = storage
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}
