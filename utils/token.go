package utils

import (
	"strings"

	"github.com/google/uuid"
)

// CreateToken returns 64 hex characters drawn from two random UUIDs.
func CreateToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
