package resource

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Type names a reviewable resource kind.
type Type string

const (
	TypeSitio   Type = "sitio"
	TypeProject Type = "project"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSitio, TypeProject:
		return true
	}
	return false
}

// Reader provides read-only access to the current live state of a resource.
// The conflict detector compares this against the baseline captured at
// submission time.
type Reader interface {
	CurrentState(ctx context.Context, resourceType Type, resourceID uuid.UUID) (json.RawMessage, error)
}
