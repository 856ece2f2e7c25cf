package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
	"github.com/msu-projects/sitio-portal/modules/review/services"
	"github.com/msu-projects/sitio-portal/pkg/application"
	"github.com/msu-projects/sitio-portal/pkg/composables"
	"github.com/msu-projects/sitio-portal/pkg/configuration"
	"github.com/msu-projects/sitio-portal/pkg/httpapi"
	"github.com/msu-projects/sitio-portal/pkg/serrors"
)

type PendingChangesController struct {
	app      application.Application
	service  *services.ReviewService
	basePath string
}

func NewPendingChangesController(app application.Application) application.Controller {
	return &PendingChangesController{
		app:      app,
		service:  app.Service(services.ReviewService{}).(*services.ReviewService),
		basePath: "/api/pending-changes",
	}
}

func (c *PendingChangesController) Key() string {
	return c.basePath
}

func (c *PendingChangesController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/diff", c.DiffPreview).Methods(http.MethodPost)
	router.HandleFunc("/seen", c.MarkAllSeen).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Update).Methods(http.MethodPut)
	router.HandleFunc("/{id}", c.Withdraw).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/review", c.Review).Methods(http.MethodPost)
	router.HandleFunc("/{id}/conflicts", c.DetectConflicts).Methods(http.MethodPost)
	router.HandleFunc("/{id}/seen", c.MarkSeen).Methods(http.MethodPost)
}

type createSubmissionDTO struct {
	ResourceType string          `json:"resourceType" validate:"required"`
	ResourceID   uuid.UUID       `json:"resourceId" validate:"required"`
	ResourceName string          `json:"resourceName" validate:"required"`
	ProposedData json.RawMessage `json:"proposedData" validate:"required"`
	OriginalData json.RawMessage `json:"originalData"`
	Comment      string          `json:"comment"`
}

func (c *PendingChangesController) Create(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var dto createSubmissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, pendingchange.ErrMalformedPayload)
		return
	}

	created, err := c.service.CreateSubmission(r.Context(), services.CreateSubmissionParams{
		ResourceType:  resource.Type(dto.ResourceType),
		ResourceID:    dto.ResourceID,
		ResourceName:  dto.ResourceName,
		SubmitterID:   u.ID,
		SubmitterName: u.Name,
		ProposedData:  dto.ProposedData,
		OriginalData:  dto.OriginalData,
		Comment:       dto.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, created)
}

type updateSubmissionDTO struct {
	ProposedData json.RawMessage `json:"proposedData" validate:"required"`
	Comment      string          `json:"comment"`
}

func (c *PendingChangesController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var dto updateSubmissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, pendingchange.ErrMalformedPayload)
		return
	}

	updated, err := c.service.UpdatePendingSubmission(r.Context(), id, services.UpdateSubmissionParams{
		ProposedData:     dto.ProposedData,
		SubmitterComment: dto.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, updated)
}

func (c *PendingChangesController) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.service.WithdrawSubmission(r.Context(), id, r.URL.Query().Get("reason")); err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

type reviewDTO struct {
	Decision string `json:"decision" validate:"required"`
	Comment  string `json:"comment"`
}

func (c *PendingChangesController) Review(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if u.Role != composables.RoleReviewer {
		writeError(w, pendingchange.ErrInvalidTransition)
		return
	}

	var dto reviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, pendingchange.ErrMalformedPayload)
		return
	}

	reviewed, err := c.service.ReviewSubmission(r.Context(), id, pendingchange.Decision(dto.Decision), u.ID, u.Name, dto.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, reviewed)
}

func (c *PendingChangesController) DetectConflicts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	details, err := c.service.DetectConflicts(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"conflictDetails": details,
		"hasConflicts":    len(details) > 0,
	})
}

type diffPreviewDTO struct {
	OriginalData json.RawMessage `json:"originalData"`
	ProposedData json.RawMessage `json:"proposedData" validate:"required"`
}

func (c *PendingChangesController) DiffPreview(w http.ResponseWriter, r *http.Request) {
	var dto diffPreviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, pendingchange.ErrMalformedPayload)
		return
	}

	diffs, err := c.service.FieldDifferences(dto.OriginalData, dto.ProposedData)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"differences": diffs})
}

func (c *PendingChangesController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pc, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, pc)
}

func (c *PendingChangesController) List(w http.ResponseWriter, r *http.Request) {
	conf := configuration.Use()
	params := &pendingchange.FindParams{Limit: conf.PageSize}

	q := r.URL.Query()
	if q.Get("mine") == "true" {
		u, err := composables.UseUser(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		params.SubmittedByUserID = u.ID
	}
	if v := q.Get("resourceType"); v != "" {
		params.ResourceType = resource.Type(v)
	}
	if v := q.Get("resourceId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, pendingchange.ErrMalformedPayload)
			return
		}
		params.ResourceID = id
	}
	if v := q.Get("status"); v != "" {
		params.Status = pendingchange.Status(v)
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err == nil && limit > 0 && limit <= conf.MaxPageSize {
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
		writeError(w, err)
		return
	}
	total, err := c.service.Count(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

func (c *PendingChangesController) MarkSeen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := c.service.MarkStatusChangeAsSeen(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *PendingChangesController) MarkAllSeen(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := c.service.MarkAllStatusChangesAsSeen(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"acknowledged": count})
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, pendingchange.ErrNotFound
	}
	return id, nil
}

// writeError maps domain errors onto HTTP statuses. Coded errors carry their
// code into the envelope so clients can branch without parsing messages.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pendingchange.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pendingchange.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, pendingchange.ErrMalformedPayload):
		status = http.StatusBadRequest
	case errors.Is(err, pendingchange.ErrNotSubmitter):
		status = http.StatusForbidden
	case errors.Is(err, composables.ErrNoUser):
		status = http.StatusUnauthorized
	}

	var be *serrors.BaseError
	if errors.As(err, &be) {
		if status == http.StatusInternalServerError && be.Code == "FIELD_REQUIRED" {
			status = http.StatusBadRequest
		}
		_ = httpapi.WriteError(w, status, be.Code, be.Message, map[string]string{"localeKey": be.LocaleKey})
		return
	}
	_ = httpapi.WriteError(w, status, "INTERNAL", err.Error(), nil)
}
