package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/msu-projects/sitio-portal/modules/logging/domain/auditlog"
	"github.com/msu-projects/sitio-portal/pkg/composables"
)

// AuditService writes the immutable action trail. Entries are best-effort
// from the caller's perspective: the review transaction has already committed
// when handlers invoke this, so failures are logged, never propagated back
// into the workflow.
type AuditService struct {
	repo auditlog.Repository
}

func NewAuditService(repo auditlog.Repository) *AuditService {
	return &AuditService{repo: repo}
}

type LogActionParams struct {
	ActorID      uuid.UUID
	ActorName    string
	Action       auditlog.Action
	ResourceKind string
	ResourceID   uuid.UUID
	ResourceName string
	Description  string
	Changes      json.RawMessage
}

func (s *AuditService) LogAuditAction(ctx context.Context, params LogActionParams) (*auditlog.AuditLog, error) {
	entry := &auditlog.AuditLog{
		ID:           uuid.New(),
		ActorID:      params.ActorID,
		ActorName:    params.ActorName,
		Action:       params.Action,
		ResourceKind: params.ResourceKind,
		ResourceID:   params.ResourceID,
		ResourceName: params.ResourceName,
		Description:  params.Description,
		Changes:      params.Changes,
		CreatedAt:    time.Now(),
	}

	var created *auditlog.AuditLog
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *AuditService) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	if params == nil {
		params = &auditlog.FindParams{}
	}
	return s.repo.List(ctx, params)
}

func (s *AuditService) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	if params == nil {
		params = &auditlog.FindParams{}
	}
	return s.repo.Count(ctx, params)
}
