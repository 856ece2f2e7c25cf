package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/msu-projects/sitio-portal/modules/registry/domain/project"
	"github.com/msu-projects/sitio-portal/pkg/composables"
	"github.com/msu-projects/sitio-portal/pkg/eventbus"
	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

type ProjectService struct {
	repo      project.Repository
	publisher eventbus.EventBus
}

func NewProjectService(repo project.Repository, publisher eventbus.EventBus) *ProjectService {
	return &ProjectService{repo: repo, publisher: publisher}
}

type CreateProjectParams struct {
	SitioID     uuid.UUID `validate:"required"`
	Name        string    `validate:"required"`
	Description string
	Budget      decimal.Decimal
	FundSource  string
	Status      project.Status `validate:"required"`
	StartDate   *time.Time
	EndDate     *time.Time
	EncodedBy   string
}

func (s *ProjectService) Create(ctx context.Context, params CreateProjectParams) (*project.Project, error) {
	if err := validate.Struct(params); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return nil, serrors.NewFieldRequiredError(verrs[0].Field(), "Projects.Fields."+verrs[0].Field())
		}
		return nil, err
	}
	if !params.Status.Valid() {
		return nil, serrors.NewError("PROJECT_INVALID_STATUS", "invalid project status", "Projects.Errors.InvalidStatus")
	}

	now := time.Now()
	entity := &project.Project{
		ID:          uuid.New(),
		SitioID:     params.SitioID,
		Name:        params.Name,
		Description: params.Description,
		Budget:      params.Budget,
		FundSource:  params.FundSource,
		Status:      params.Status,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		EncodedBy:   params.EncodedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var created *project.Project
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&project.CreatedEvent{Project: created})
	return created, nil
}

func (s *ProjectService) Update(ctx context.Context, entity *project.Project) (*project.Project, error) {
	entity.UpdatedAt = time.Now()

	var updated *project.Project
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.repo.Update(txCtx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&project.UpdatedEvent{Project: updated})
	return updated, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context, params *project.FindParams) ([]*project.Project, error) {
	if params == nil {
		params = &project.FindParams{}
	}
	return s.repo.List(ctx, params)
}

func (s *ProjectService) Count(ctx context.Context, params *project.FindParams) (int64, error) {
	if params == nil {
		params = &project.FindParams{}
	}
	return s.repo.Count(ctx, params)
}
