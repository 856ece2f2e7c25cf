package persistence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"

	"github.com/msu-projects/sitio-portal/modules/review/domain/pendingchange"
	"github.com/msu-projects/sitio-portal/modules/review/domain/resource"
	"github.com/msu-projects/sitio-portal/pkg/composables"
)

const pendingChangeColumns = `
	id, resource_type, resource_id, resource_name,
	submitted_by_user_id, submitted_by_user_name, submitted_at,
	status, original_data, proposed_data,
	reviewed_by_user_id, reviewed_by_user_name, reviewed_at,
	reviewer_comment, submitter_comment,
	conflict_details, revision_history, status_seen_by_submitter,
	created_at, updated_at`

type PendingChangeRepository struct{}

func NewPendingChangeRepository() pendingchange.Repository {
	return &PendingChangeRepository{}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgNullableUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func asUUID(v pgtype.UUID) uuid.UUID {
	if !v.Valid {
		return uuid.Nil
	}
	return uuid.UUID(v.Bytes)
}

func pgTimePtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func asTimePtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func (r *PendingChangeRepository) Create(ctx context.Context, pc *pendingchange.PendingChange) (*pendingchange.PendingChange, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	conflicts, history, err := marshalDocs(pc)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO pending_changes (`+pendingChangeColumns+`)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		pgUUID(pc.ID), string(pc.ResourceType), pgUUID(pc.ResourceID), pc.ResourceName,
		pgUUID(pc.SubmittedByUserID), pc.SubmittedByUserName, pc.SubmittedAt.UTC(),
		string(pc.Status), []byte(pc.OriginalData), []byte(pc.ProposedData),
		pgNullableUUID(pc.ReviewedByUserID), pc.ReviewedByUserName, pgTimePtr(pc.ReviewedAt),
		pc.ReviewerComment, pc.SubmitterComment,
		conflicts, history, pc.StatusChangeSeenBySubmitter,
		pc.CreatedAt.UTC(), pc.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert pending change")
	}
	return r.GetByID(ctx, pc.ID)
}

func (r *PendingChangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*pendingchange.PendingChange, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
	SELECT `+pendingChangeColumns+`
	FROM pending_changes
	WHERE id = $1
	`, pgUUID(id))

	pc, err := scanPendingChange(row)
	if err == pgx.ErrNoRows {
		return nil, pendingchange.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get pending change")
	}
	return pc, nil
}

func (r *PendingChangeRepository) Update(ctx context.Context, pc *pendingchange.PendingChange) (*pendingchange.PendingChange, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	conflicts, history, err := marshalDocs(pc)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE pending_changes SET
		status = $2,
		proposed_data = $3,
		reviewed_by_user_id = $4,
		reviewed_by_user_name = $5,
		reviewed_at = $6,
		reviewer_comment = $7,
		submitter_comment = $8,
		conflict_details = $9,
		revision_history = $10,
		status_seen_by_submitter = $11,
		updated_at = $12
	WHERE id = $1
	`,
		pgUUID(pc.ID),
		string(pc.Status),
		[]byte(pc.ProposedData),
		pgNullableUUID(pc.ReviewedByUserID),
		pc.ReviewedByUserName,
		pgTimePtr(pc.ReviewedAt),
		pc.ReviewerComment,
		pc.SubmitterComment,
		conflicts,
		history,
		pc.StatusChangeSeenBySubmitter,
		pc.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "update pending change")
	}
	if tag.RowsAffected() == 0 {
		return nil, pendingchange.ErrNotFound
	}
	return r.GetByID(ctx, pc.ID)
}

func (r *PendingChangeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM pending_changes WHERE id = $1`, pgUUID(id))
	if err != nil {
		return errors.Wrap(err, "delete pending change")
	}
	if tag.RowsAffected() == 0 {
		return pendingchange.ErrNotFound
	}
	return nil
}

func (r *PendingChangeRepository) List(ctx context.Context, params *pendingchange.FindParams) ([]*pendingchange.PendingChange, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildFilter(params)
	query := `
	SELECT ` + pendingChangeColumns + `
	FROM pending_changes` + where + `
	ORDER BY submitted_at DESC, id DESC`
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
		return nil, errors.Wrap(err, "list pending changes")
	}
	defer rows.Close()

	var out []*pendingchange.PendingChange
	for rows.Next() {
		pc, err := scanPendingChange(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan pending change")
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (r *PendingChangeRepository) Count(ctx context.Context, params *pendingchange.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	where, args := buildFilter(params)
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM pending_changes`+where, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count pending changes")
	}
	return count, nil
}

func buildFilter(params *pendingchange.FindParams) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}

	if params.SubmittedByUserID != uuid.Nil {
		add("submitted_by_user_id =", pgUUID(params.SubmittedByUserID))
	}
	if params.ResourceType != "" {
		add("resource_type =", string(params.ResourceType))
	}
	if params.ResourceID != uuid.Nil {
		add("resource_id =", pgUUID(params.ResourceID))
	}
	if params.Status != "" {
		add("status =", string(params.Status))
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

func marshalDocs(pc *pendingchange.PendingChange) ([]byte, []byte, error) {
	conflicts, err := json.Marshal(pc.ConflictDetails)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal conflict details")
	}
	history, err := json.Marshal(pc.RevisionHistory)
	if err != nil {
		return nil, nil, errors.Wrap(err, "marshal revision history")
	}
	return conflicts, history, nil
}

func scanPendingChange(row pgx.Row) (*pendingchange.PendingChange, error) {
	var (
		pc            pendingchange.PendingChange
		id            pgtype.UUID
		resourceType  string
		resourceID    pgtype.UUID
		submitterID   pgtype.UUID
		status        string
		originalData  []byte
		proposedData  []byte
		reviewerID    pgtype.UUID
		reviewedAt    pgtype.Timestamptz
		conflictsDoc  []byte
		historyDoc    []byte
	)
	err := row.Scan(
		&id, &resourceType, &resourceID, &pc.ResourceName,
		&submitterID, &pc.SubmittedByUserName, &pc.SubmittedAt,
		&status, &originalData, &proposedData,
		&reviewerID, &pc.ReviewedByUserName, &reviewedAt,
		&pc.ReviewerComment, &pc.SubmitterComment,
		&conflictsDoc, &historyDoc, &pc.StatusChangeSeenBySubmitter,
		&pc.CreatedAt, &pc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	pc.ID = asUUID(id)
	pc.ResourceType = resource.Type(resourceType)
	pc.ResourceID = asUUID(resourceID)
	pc.SubmittedByUserID = asUUID(submitterID)
	pc.Status = pendingchange.Status(status)
	pc.OriginalData = json.RawMessage(originalData)
	pc.ProposedData = json.RawMessage(proposedData)
	pc.ReviewedByUserID = asUUID(reviewerID)
	pc.ReviewedAt = asTimePtr(reviewedAt)
	if len(conflictsDoc) > 0 {
		if err := json.Unmarshal(conflictsDoc, &pc.ConflictDetails); err != nil {
			return nil, errors.Wrap(err, "unmarshal conflict details")
		}
	}
	if len(historyDoc) > 0 {
		if err := json.Unmarshal(historyDoc, &pc.RevisionHistory); err != nil {
			return nil, errors.Wrap(err, "unmarshal revision history")
		}
	}
	return &pc, nil
}
