package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/msu-projects/sitio-portal/modules/registry/domain/sitio"
	"github.com/msu-projects/sitio-portal/pkg/composables"
	"github.com/msu-projects/sitio-portal/pkg/eventbus"
	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

var validate = validator.New()

type SitioService struct {
	repo      sitio.Repository
	publisher eventbus.EventBus
}

func NewSitioService(repo sitio.Repository, publisher eventbus.EventBus) *SitioService {
	return &SitioService{repo: repo, publisher: publisher}
}

type CreateSitioParams struct {
	Name         string `validate:"required"`
	Barangay     string `validate:"required"`
	Municipality string `validate:"required"`
	Province     string `validate:"required"`
	PSGCCode     string
	EncodedBy    string
	YearlyData   map[string]sitio.YearRecord
}

func (s *SitioService) Create(ctx context.Context, params CreateSitioParams) (*sitio.Sitio, error) {
	if err := validate.Struct(params); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return nil, serrors.NewFieldRequiredError(verrs[0].Field(), "Sitios.Fields."+verrs[0].Field())
		}
		return nil, err
	}

	now := time.Now()
	entity := &sitio.Sitio{
		ID:           uuid.New(),
		Name:         params.Name,
		Barangay:     params.Barangay,
		Municipality: params.Municipality,
		Province:     params.Province,
		PSGCCode:     params.PSGCCode,
		EncodedBy:    params.EncodedBy,
		YearlyData:   params.YearlyData,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var created *sitio.Sitio
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&sitio.CreatedEvent{Sitio: created})
	return created, nil
}

func (s *SitioService) Update(ctx context.Context, entity *sitio.Sitio) (*sitio.Sitio, error) {
	entity.UpdatedAt = time.Now()

	var updated *sitio.Sitio
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.repo.Update(txCtx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&sitio.UpdatedEvent{Sitio: updated})
	return updated, nil
}

func (s *SitioService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

func (s *SitioService) GetByID(ctx context.Context, id uuid.UUID) (*sitio.Sitio, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SitioService) List(ctx context.Context, params *sitio.FindParams) ([]*sitio.Sitio, error) {
	if params == nil {
		params = &sitio.FindParams{}
	}
	return s.repo.List(ctx, params)
}

func (s *SitioService) Count(ctx context.Context, params *sitio.FindParams) (int64, error) {
	if params == nil {
		params = &sitio.FindParams{}
	}
	return s.repo.Count(ctx, params)
}
