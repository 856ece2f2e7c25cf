package persistence

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"

	"github.com/msu-projects/sitio-portal/modules/logging/domain/auditlog"
	"github.com/msu-projects/sitio-portal/pkg/composables"
)

const auditLogColumns = `
	id, actor_id, actor_name, action, resource_kind, resource_id,
	resource_name, description, changes, created_at`

type AuditLogRepository struct{}

func NewAuditLogRepository() auditlog.Repository {
	return &AuditLogRepository{}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func asUUID(v pgtype.UUID) uuid.UUID {
	if !v.Valid {
		return uuid.Nil
	}
	return uuid.UUID(v.Bytes)
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *auditlog.AuditLog) (*auditlog.AuditLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	changes := []byte(entry.Changes)
	if len(changes) == 0 {
		changes = nil
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO audit_logs (`+auditLogColumns+`)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		pgUUID(entry.ID), pgUUID(entry.ActorID), entry.ActorName, string(entry.Action),
		entry.ResourceKind, pgUUID(entry.ResourceID), entry.ResourceName,
		entry.Description, changes, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert audit log")
	}
	return entry, nil
}

func (r *AuditLogRepository) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := auditFilter(params)
	query := `
	SELECT ` + auditLogColumns + `
	FROM audit_logs` + where + `
	ORDER BY created_at DESC, id DESC`
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list audit logs")
	}
	defer rows.Close()

	var out []*auditlog.AuditLog
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan audit log")
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *AuditLogRepository) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	where, args := auditFilter(params)
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count audit logs")
	}
	return count, nil
}

func auditFilter(params *auditlog.FindParams) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}

	if params.ActorID != uuid.Nil {
		add("actor_id =", pgUUID(params.ActorID))
	}
	if params.Action != "" {
		add("action =", string(params.Action))
	}
	if params.ResourceKind != "" {
		add("resource_kind =", params.ResourceKind)
	}
	if params.ResourceID != uuid.Nil {
		add("resource_id =", pgUUID(params.ResourceID))
	}

	if len(conds) == 0 {
		return "", nil
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}

func scanAuditLog(row pgx.Row) (*auditlog.AuditLog, error) {
	var (
		entry      auditlog.AuditLog
		id         pgtype.UUID
		actorID    pgtype.UUID
		action     string
		resourceID pgtype.UUID
		changes    []byte
	)
	err := row.Scan(
		&id, &actorID, &entry.ActorName, &action, &entry.ResourceKind, &resourceID,
		&entry.ResourceName, &entry.Description, &changes, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ID = asUUID(id)
	entry.ActorID = asUUID(actorID)
	entry.Action = auditlog.Action(action)
	entry.ResourceID = asUUID(resourceID)
	if len(changes) > 0 {
		entry.Changes = changes
	}
	return &entry, nil
}
