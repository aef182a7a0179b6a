// Package types provides the document model and API payloads shared by the fittrack
// client, editors and server.
package types

import (
	"github.com/jonathan/fittrack/internal/units"
)

// SubscriptionTier is the user's plan. A nil tier marshals as JSON null.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "Free"
	TierPro  SubscriptionTier = "Pro"
)

// Dotted paths addressable by a profile patch.
const (
	PathWeight          = "Metrics.Weight"
	PathHeight          = "Metrics.Height"
	PathUnitsPreference = "Settings.UnitsPreference"
	PathCurrentGoal     = "CurrentGoal"
)

// PatchablePaths lists every path a client may patch, one per request.
var PatchablePaths = []string{PathWeight, PathHeight, PathUnitsPreference, PathCurrentGoal}

// ProfileMetrics holds body measurements. Weight and Height are only meaningful
// together with the unit system they were stored in.
type ProfileMetrics struct {
	Weight   float64 `json:"Weight" validate:"gte=0"`
	Height   float64 `json:"Height" validate:"gte=0"`
	JoinDate string  `json:"JoinDate"`
}

// ProfileSettings holds user preferences.
type ProfileSettings struct {
	UnitsPreference  units.System      `json:"UnitsPreference" validate:"required,oneof=Imperial Metric"`
	SubscriptionTier *SubscriptionTier `json:"SubscriptionTier"`
}

// ProfileDocument is the user's profile as stored remotely.
type ProfileDocument struct {
	Metrics     ProfileMetrics  `json:"Metrics"`
	Settings    ProfileSettings `json:"Settings"`
	CurrentGoal string          `json:"CurrentGoal"`
}

// Validate checks the profile's metric ranges and unit preference.
func (p *ProfileDocument) Validate() error {
	return validate.Struct(p)
}

// NewProfileDocument returns the document created for a freshly registered user.
func NewProfileDocument(joinDate string) ProfileDocument {
	tier := TierFree
	return ProfileDocument{
		Metrics:  ProfileMetrics{JoinDate: joinDate},
		Settings: ProfileSettings{UnitsPreference: units.Imperial, SubscriptionTier: &tier},
	}
}

// JoinDateDisplay truncates the ISO join date to its YYYY-MM-DD prefix.
func (p ProfileDocument) JoinDateDisplay() string {
	if len(p.Metrics.JoinDate) >= 10 {
		return p.Metrics.JoinDate[:10]
	}
	return p.Metrics.JoinDate
}

// Tier returns the subscription tier, or "" when unset.
func (p ProfileDocument) Tier() SubscriptionTier {
	if p.Settings.SubscriptionTier == nil {
		return ""
	}
	return *p.Settings.SubscriptionTier
}

// Clone returns a copy that shares no pointers with p.
func (p ProfileDocument) Clone() ProfileDocument {
	out := p
	if p.Settings.SubscriptionTier != nil {
		tier := *p.Settings.SubscriptionTier
		out.Settings.SubscriptionTier = &tier
	}
	return out
}

// ProfilePatch is a partial-path write: dotted path to new value.
type ProfilePatch map[string]any

// NewProfilePatch builds a single-field patch.
func NewProfilePatch(path string, value any) ProfilePatch {
	return ProfilePatch{path: value}
}

// ProfileResponse is the body of a profile read.
type ProfileResponse struct {
	Data        ProfileDocument `json:"data"`
	Message     string          `json:"message"`
	DisplayName string          `json:"displayName"`
}
