package sitio

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

var ErrNotFound = serrors.NewError("SITIO_NOT_FOUND", "sitio not found", "Sitios.Errors.NotFound")

// YearRecord is one year's slice of a sitio's statistics. The portal keeps
// every surveyed year side by side so trends stay visible.
type YearRecord struct {
	Population         int             `json:"population"`
	Households         int             `json:"households"`
	AverageDailyIncome decimal.Decimal `json:"averageDailyIncome"`
	HasElectricity     bool            `json:"hasElectricity"`
	HasWaterSupply     bool            `json:"hasWaterSupply"`
	Notes              string          `json:"notes,omitempty"`
}

// Sitio is a geographic community record. YearlyData is keyed by four-digit
// year; YearsWithData is derived and never compared during review.
type Sitio struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Barangay      string                `json:"barangay"`
	Municipality  string                `json:"municipality"`
	Province      string                `json:"province"`
	PSGCCode      string                `json:"psgcCode"`
	EncodedBy     string                `json:"encodedBy"`
	YearlyData    map[string]YearRecord `json:"yearlyData"`
	YearsWithData []string              `json:"yearsWithData"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// FindParams filters sitio listings. Zero values mean "any".
type FindParams struct {
	Municipality string
	Province     string
	Limit        int
	Offset       int
}

type Repository interface {
	Create(ctx context.Context, s *Sitio) (*Sitio, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Sitio, error)
	Update(ctx context.Context, s *Sitio) (*Sitio, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *FindParams) ([]*Sitio, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
}
