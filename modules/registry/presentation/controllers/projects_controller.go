package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/msu-projects/sitio-portal/modules/registry/domain/project"
	"github.com/msu-projects/sitio-portal/modules/registry/services"
	"github.com/msu-projects/sitio-portal/pkg/application"
	"github.com/msu-projects/sitio-portal/pkg/configuration"
	"github.com/msu-projects/sitio-portal/pkg/httpapi"
	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

type ProjectsController struct {
	app      application.Application
	service  *services.ProjectService
	basePath string
}

func NewProjectsController(app application.Application) application.Controller {
	return &ProjectsController{
		app:      app,
		service:  app.Service(services.ProjectService{}).(*services.ProjectService),
		basePath: "/api/projects",
	}
}

func (c *ProjectsController) Key() string {
	return c.basePath
}

func (c *ProjectsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

type createProjectDTO struct {
	SitioID     uuid.UUID       `json:"sitioId" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	FundSource  string          `json:"fundSource"`
	Status      string          `json:"status" validate:"required"`
	StartDate   *time.Time      `json:"startDate"`
	EndDate     *time.Time      `json:"endDate"`
	EncodedBy   string          `json:"encodedBy"`
}

func (c *ProjectsController) Create(w http.ResponseWriter, r *http.Request) {
	var dto createProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeRegistryError(w, serrors.NewError("BAD_REQUEST", "invalid request body", "Errors.BadRequest"))
		return
	}

	created, err := c.service.Create(r.Context(), services.CreateProjectParams{
		SitioID:     dto.SitioID,
		Name:        dto.Name,
		Description: dto.Description,
		Budget:      dto.Budget,
		FundSource:  dto.FundSource,
		Status:      project.Status(dto.Status),
		StartDate:   dto.StartDate,
		EndDate:     dto.EndDate,
		EncodedBy:   dto.EncodedBy,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *ProjectsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeRegistryError(w, project.ErrNotFound)
		return
	}

	p, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, p)
}

func (c *ProjectsController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeRegistryError(w, project.ErrNotFound)
		return
	}

	existing, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeRegistryError(w, serrors.NewError("BAD_REQUEST", "invalid request body", "Errors.BadRequest"))
		return
	}
	existing.ID = id

	updated, err := c.service.Update(r.Context(), existing)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, updated)
}

func (c *ProjectsController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeRegistryError(w, project.ErrNotFound)
		return
	}

	if err := c.service.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *ProjectsController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &project.FindParams{Limit: conf.PageSize}

	q := r.URL.Query()
	if v := q.Get("sitioId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeRegistryError(w, serrors.NewError("BAD_REQUEST", "invalid sitio id", "Errors.BadRequest"))
			return
		}
		params.SitioID = id
	}
	if v := q.Get("status"); v != "" {
		params.Status = project.Status(v)
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 && limit <= conf.MaxPageSize {
			params.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			params.Offset = offset
		}
	}

	items, err := c.service.List(r.Context(), params)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	total, err := c.service.Count(r.Context(), params)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}
