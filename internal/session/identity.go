package session

import (
	"context"
	"fmt"
)

// Identity owns the display name; the profile document does not.
type Identity interface {
	UpdateDisplayName(ctx context.Context, name string) error
}

// NameUpdater is the remote call behind RemoteIdentity (fetch.Client satisfies it).
type NameUpdater interface {
	UpdateDisplayName(ctx context.Context, uid, idToken, name string) error
}

// Saver persists an updated session.
type Saver interface {
	Save(s *Session) error
}

// RemoteIdentity updates the display name on the server and then in the stored session.
type RemoteIdentity struct {
	Accessor Accessor
	Remote   NameUpdater
	// Store is optional; when set the saved session picks up the new name.
	Store Saver
}

// UpdateDisplayName implements Identity.
func (r *RemoteIdentity) UpdateDisplayName(ctx context.Context, name string) error {
	s, err := r.Accessor.Current(ctx)
	if err != nil {
		return err
	}
	if err := r.Remote.UpdateDisplayName(ctx, s.UID, s.IDToken, name); err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	if r.Store != nil {
		s.DisplayName = name
		if err := r.Store.Save(s); err != nil {
			return fmt.Errorf("display name updated but session not saved: %w", err)
		}
	}
	return nil
}
