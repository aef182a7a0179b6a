package profile

import (
	"fmt"
	"strings"

	"github.com/jonathan/fittrack/internal/types"
)

// Field names a profile value shown to the user.
type Field string

const (
	FieldDisplayName      Field = "displayName"
	FieldCurrentGoal      Field = "CurrentGoal"
	FieldWeight           Field = "Weight"
	FieldHeight           Field = "Height"
	FieldUnitsPreference  Field = "UnitsPreference"
	FieldJoinDate         Field = "JoinDate"
	FieldSubscriptionTier Field = "SubscriptionTier"
)

var allFields = []Field{
	FieldDisplayName, FieldCurrentGoal, FieldWeight, FieldHeight,
	FieldUnitsPreference, FieldJoinDate, FieldSubscriptionTier,
}

// metricFields are re-expressed when the unit preference changes.
var metricFields = []Field{FieldWeight, FieldHeight}

// ParseField matches a field name case-insensitively. "goal", "units" and "name"
// are accepted as short forms.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "displayname", "display-name":
		return FieldDisplayName, nil
	case "goal", "currentgoal":
		return FieldCurrentGoal, nil
	case "units", "unitspreference":
		return FieldUnitsPreference, nil
	}
	for _, f := range allFields {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown profile field %q", s)
}

// Path returns the dotted document path a patch of f writes, or "" for fields that
// are not stored in the profile document.
func (f Field) Path() string {
	switch f {
	case FieldCurrentGoal:
		return types.PathCurrentGoal
	case FieldWeight:
		return types.PathWeight
	case FieldHeight:
		return types.PathHeight
	case FieldUnitsPreference:
		return types.PathUnitsPreference
	}
	return ""
}

// Editable reports whether the user may change f.
func (f Field) Editable() bool {
	return f == FieldDisplayName || f.Path() != ""
}

func (f Field) metric() bool {
	return f == FieldWeight || f == FieldHeight
}
