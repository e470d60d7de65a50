package resource

import (
	"strings"

	"github.com/Iron-Ham/transferwindow/internal/errors"
)

// Status is the availability of a resource.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusClaimed   Status = "Claimed"
)

// HolderNone is the holder of an available resource.
const HolderNone = ""

// legacyStatuses maps status values written by the legacy MySQL schema.
var legacyStatuses = map[string]Status{
	"tersedia":  StatusAvailable,
	"dikontrak": StatusClaimed,
}

// ParseStatus converts a persisted status string. Matching is
// case-insensitive and also accepts the legacy Indonesian values.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "available":
		return StatusAvailable, nil
	case "claimed":
		return StatusClaimed, nil
	}
	if st, ok := legacyStatuses[key]; ok {
		return st, nil
	}
	return "", errors.NewValidationError("unknown status").
		WithField("status").
		WithValue(s).
		WithCause(errors.ErrInvalidRecord)
}

func (s Status) String() string { return string(s) }
