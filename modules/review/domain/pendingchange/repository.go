package pendingchange

import (
	"context"

	"github.com/google/uuid"

	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
)

// FindParams filters pending change listings. Zero values mean "any".
type FindParams struct {
	SubmittedByUserID uuid.UUID
	ResourceType      resource.Type
	ResourceID        uuid.UUID
	Status            Status
	Limit             int
	Offset            int
}

type Repository interface {
	Create(ctx context.Context, pc *PendingChange) (*PendingChange, error)
	GetByID(ctx context.Context, id uuid.UUID) (*PendingChange, error)
	Update(ctx context.Context, pc *PendingChange) (*PendingChange, error)
	// Delete removes the record; only withdrawal of a pending submission may
	// reach this.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *FindParams) ([]*PendingChange, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
}
