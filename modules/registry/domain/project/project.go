package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

var ErrNotFound = serrors.NewError("PROJECT_NOT_FOUND", "project not found", "Projects.Errors.NotFound")

// Status is a project's delivery state, as published on the portal.
type Status string

const (
	StatusPlanned   Status = "planned"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusOngoing, StatusCompleted, StatusSuspended:
		return true
	}
	return false
}

// Project is a public-works or livelihood project tied to a sitio.
type Project struct {
	ID          uuid.UUID       `json:"id"`
	SitioID     uuid.UUID       `json:"sitioId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
	FundSource  string          `json:"fundSource,omitempty"`
	Status      Status          `json:"status"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	EncodedBy   string          `json:"encodedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FindParams filters project listings. Zero values mean "any".
type FindParams struct {
	SitioID uuid.UUID
	Status  Status
	Limit   int
	Offset  int
}

type Repository interface {
	Create(ctx context.Context, p *Project) (*Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, p *Project) (*Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *FindParams) ([]*Project, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
}
