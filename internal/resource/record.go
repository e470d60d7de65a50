package resource

import (
	"strings"

	"github.com/Iron-Ham/transferwindow/internal/errors"
)

// Record is the persisted shape of a resource. Holder is empty when the
// resource is available; backends store that as NULL or omit the field.
type Record struct {
	ID          string `json:"id" bson:"_id"`
	DisplayName string `json:"display_name" bson:"display_name"`
	Status      Status `json:"status" bson:"status"`
	Holder      string `json:"holder,omitempty" bson:"holder,omitempty"`
}

// Normalize returns r with a canonical status and a holder consistent with
// it. An available record that still names a holder loses the holder. A
// claimed record without one is rejected.
func (r Record) Normalize() (Record, error) {
	if strings.TrimSpace(r.ID) == "" {
		return Record{}, errors.NewValidationError("record has no id").
			WithField("id").
			WithCause(errors.ErrInvalidRecord)
	}

	status, err := ParseStatus(string(r.Status))
	if err != nil {
		return Record{}, err
	}
	r.Status = status
	r.Holder = strings.TrimSpace(r.Holder)

	switch status {
	case StatusAvailable:
		r.Holder = HolderNone
	case StatusClaimed:
		if r.Holder == HolderNone {
			return Record{}, errors.NewValidationError("claimed record has no holder").
				WithField("holder").
				WithValue(r.Holder).
				WithCause(errors.ErrInvalidRecord)
		}
	}
	return r, nil
}

// Snapshot is a point-in-time copy of a resource's state.
type Snapshot struct {
	ID          string
	DisplayName string
	Status      Status
	Holder      string
}

// Snapshot returns the record as a Snapshot. It does not normalize.
func (r Record) Snapshot() Snapshot {
	return Snapshot{ID: r.ID, DisplayName: r.DisplayName, Status: r.Status, Holder: r.Holder}
}

// StatusText renders the status display: "Claimed (by PSG)" or "Available".
func (s Snapshot) StatusText() string {
	if s.Status == StatusClaimed {
		return string(s.Status) + " (by " + s.Holder + ")"
	}
	return string(s.Status)
}

// Consistent reports whether status and holder agree.
func (s Snapshot) Consistent() bool {
	switch s.Status {
	case StatusAvailable:
		return s.Holder == HolderNone
	case StatusClaimed:
		return s.Holder != HolderNone
	default:
		return false
	}
}
