package domain

import "github.com/google/uuid"

// IsID reports whether s is a uuid in the hyphenated form Postgres accepts.
func IsID(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}
