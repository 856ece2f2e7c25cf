package persistence

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/msu-projects/sitio-portal/modules/registry/domain/project"
	"github.com/msu-projects/sitio-portal/pkg/composables"
)

const projectColumns = `
	id, sitio_id, name, description, budget, fund_source, status,
	start_date, end_date, encoded_by, created_at, updated_at`

type ProjectRepository struct{}

func NewProjectRepository() project.Repository {
	return &ProjectRepository{}
}

func pgDatePtr(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func asDatePtr(v pgtype.Date) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO projects (`+projectColumns+`)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		pgUUID(p.ID), pgUUID(p.SitioID), p.Name, p.Description,
		p.Budget.String(), p.FundSource, string(p.Status),
		pgDatePtr(p.StartDate), pgDatePtr(p.EndDate), p.EncodedBy,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert project")
	}
	return r.GetByID(ctx, p.ID)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
	SELECT `+projectColumns+`
	FROM projects
	WHERE id = $1
	`, pgUUID(id))

	p, err := scanProject(row)
	if err == pgx.ErrNoRows {
		return nil, project.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get project")
	}
	return p, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE projects SET
		sitio_id = $2,
		name = $3,
		description = $4,
		budget = $5,
		fund_source = $6,
		status = $7,
		start_date = $8,
		end_date = $9,
		encoded_by = $10,
		updated_at = $11
	WHERE id = $1
	`,
		pgUUID(p.ID), pgUUID(p.SitioID), p.Name, p.Description,
		p.Budget.String(), p.FundSource, string(p.Status),
		pgDatePtr(p.StartDate), pgDatePtr(p.EndDate), p.EncodedBy,
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "update project")
	}
	if tag.RowsAffected() == 0 {
		return nil, project.ErrNotFound
	}
	return r.GetByID(ctx, p.ID)
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, pgUUID(id))
	if err != nil {
		return errors.Wrap(err, "delete project")
	}
	if tag.RowsAffected() == 0 {
		return project.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) List(ctx context.Context, params *project.FindParams) ([]*project.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := projectFilter(params)
	query := `
	SELECT ` + projectColumns + `
	FROM projects` + where + `
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
		return nil, errors.Wrap(err, "list projects")
	}
	defer rows.Close()

	var out []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan project")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) Count(ctx context.Context, params *project.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	where, args := projectFilter(params)
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count projects")
	}
	return count, nil
}

func projectFilter(params *project.FindParams) (string, []any) {
	var conds []string
	var args []any

	if params.SitioID != uuid.Nil {
		args = append(args, pgUUID(params.SitioID))
		conds = append(conds, "sitio_id = $"+strconv.Itoa(len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
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

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		p         project.Project
		id        pgtype.UUID
		sitioID   pgtype.UUID
		budget    string
		status    string
		startDate pgtype.Date
		endDate   pgtype.Date
	)
	err := row.Scan(
		&id, &sitioID, &p.Name, &p.Description, &budget, &p.FundSource, &status,
		&startDate, &endDate, &p.EncodedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ID = asUUID(id)
	p.SitioID = asUUID(sitioID)
	p.Status = project.Status(status)
	p.StartDate = asDatePtr(startDate)
	p.EndDate = asDatePtr(endDate)
	p.Budget, err = decimal.NewFromString(budget)
	if err != nil {
		return nil, errors.Wrap(err, "parse budget")
	}
	return &p, nil
}
