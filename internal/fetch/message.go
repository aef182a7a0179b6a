package fetch

import (
	"errors"
	"strings"
)

// FinalMessage trims a chain of wrapped error messages to the innermost one, which
// starts at the last occurrence of "error ". Messages without that marker are
// returned unchanged.
func FinalMessage(err error) string {
	if err == nil {
		return ""
	}
	full := err.Error()
	var re *RemoteError
	if errors.As(err, &re) {
		full = re.Message
	}
	idx := strings.LastIndex(full, "error ")
	if idx == -1 {
		return full
	}
	return strings.TrimSpace(full[idx:])
}
