package ids

import "github.com/google/uuid"

// New returns a fresh opaque identifier in canonical UUID-128 textual form.
func New() string {
	return uuid.NewString()
}
