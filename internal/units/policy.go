package units

import "fmt"

// Policy decides which system persisted measurements are stored in. The same policy
// must be used when loading and when saving, otherwise values are reinterpreted in the
// wrong system.
type Policy interface {
	// StorageSystem returns the system stored values are expressed in while the user's
	// preference is pref.
	StorageSystem(pref System) System
}

// FollowPreference stores measurements in whatever system the user prefers.
type FollowPreference struct{}

// StorageSystem implements Policy.
func (FollowPreference) StorageSystem(pref System) System {
	if !pref.Valid() {
		return Imperial
	}
	return pref
}

// Fixed stores measurements in one system regardless of preference.
type Fixed struct {
	System System
}

// StorageSystem implements Policy.
func (f Fixed) StorageSystem(System) System {
	return f.System
}

// PolicyByName builds a policy from its config name: "follow" (or empty) or "fixed".
// fixedSystem is only read for "fixed".
func PolicyByName(name, fixedSystem string) (Policy, error) {
	switch name {
	case "", "follow", "follow-preference":
		return FollowPreference{}, nil
	case "fixed":
		sys, err := ParseSystem(fixedSystem)
		if err != nil {
			return nil, fmt.Errorf("fixed units policy: %w", err)
		}
		return Fixed{System: sys}, nil
	default:
		return nil, fmt.Errorf("unknown units policy %q", name)
	}
}
