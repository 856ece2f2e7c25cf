package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/msu-projects/sitio-portal/modules/registry/domain/sitio"
	"github.com/msu-projects/sitio-portal/modules/registry/services"
	"github.com/msu-projects/sitio-portal/pkg/application"
	"github.com/msu-projects/sitio-portal/pkg/configuration"
	"github.com/msu-projects/sitio-portal/pkg/httpapi"
	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

type SitiosController struct {
	app      application.Application
	service  *services.SitioService
	basePath string
}

func NewSitiosController(app application.Application) application.Controller {
	return &SitiosController{
		app:      app,
		service:  app.Service(services.SitioService{}).(*services.SitioService),
		basePath: "/api/sitios",
	}
}

func (c *SitiosController) Key() string {
	return c.basePath
}

func (c *SitiosController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

type createSitioDTO struct {
	Name         string                      `json:"name" validate:"required"`
	Barangay     string                      `json:"barangay" validate:"required"`
	Municipality string                      `json:"municipality" validate:"required"`
	Province     string                      `json:"province" validate:"required"`
	PSGCCode     string                      `json:"psgcCode"`
	EncodedBy    string                      `json:"encodedBy"`
	YearlyData   map[string]sitio.YearRecord `json:"yearlyData"`
}

func (c *SitiosController) Create(w http.ResponseWriter, r *http.Request) {
	var dto createSitioDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeRegistryError(w, serrors.NewError("BAD_REQUEST", "invalid request body", "Errors.BadRequest"))
		return
	}

	created, err := c.service.Create(r.Context(), services.CreateSitioParams{
		Name:         dto.Name,
		Barangay:     dto.Barangay,
		Municipality: dto.Municipality,
		Province:     dto.Province,
		PSGCCode:     dto.PSGCCode,
		EncodedBy:    dto.EncodedBy,
		YearlyData:   dto.YearlyData,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

func (c *SitiosController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeRegistryError(w, sitio.ErrNotFound)
		return
	}

	s, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, s)
}

func (c *SitiosController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeRegistryError(w, sitio.ErrNotFound)
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

func (c *SitiosController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeRegistryError(w, sitio.ErrNotFound)
		return
	}

	if err := c.service.Delete(r.Context(), id); err != nil {
		writeRegistryError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *SitiosController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &sitio.FindParams{Limit: conf.PageSize}

	q := r.URL.Query()
	params.Municipality = q.Get("municipality")
	params.Province = q.Get("province")
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

func writeRegistryError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var be *serrors.BaseError
	if errors.As(err, &be) {
		switch be.Code {
		case "SITIO_NOT_FOUND", "PROJECT_NOT_FOUND", "NOT_FOUND":
			status = http.StatusNotFound
		case "FIELD_REQUIRED", "BAD_REQUEST", "PROJECT_INVALID_STATUS":
			status = http.StatusBadRequest
		}
		_ = httpapi.WriteError(w, status, be.Code, be.Message, map[string]string{"localeKey": be.LocaleKey})
		return
	}
	_ = httpapi.WriteError(w, status, "INTERNAL", err.Error(), nil)
}
