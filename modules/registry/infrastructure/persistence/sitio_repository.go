package persistence

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"

	"github.com/msu-projects/sitio-portal/modules/registry/domain/sitio"
	"github.com/msu-projects/sitio-portal/pkg/composables"
)

const sitioColumns = `
	id, name, barangay, municipality, province, psgc_code, encoded_by,
	yearly_data, created_at, updated_at`

type SitioRepository struct{}

func NewSitioRepository() sitio.Repository {
	return &SitioRepository{}
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

func (r *SitioRepository) Create(ctx context.Context, s *sitio.Sitio) (*sitio.Sitio, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	yearly, err := json.Marshal(s.YearlyData)
	if err != nil {
		return nil, errors.Wrap(err, "marshal yearly data")
	}

	_, err = tx.Exec(ctx, `
	INSERT INTO sitios (`+sitioColumns+`)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		pgUUID(s.ID), s.Name, s.Barangay, s.Municipality, s.Province, s.PSGCCode, s.EncodedBy,
		yearly, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert sitio")
	}
	return r.GetByID(ctx, s.ID)
}

func (r *SitioRepository) GetByID(ctx context.Context, id uuid.UUID) (*sitio.Sitio, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
	SELECT `+sitioColumns+`
	FROM sitios
	WHERE id = $1
	`, pgUUID(id))

	s, err := scanSitio(row)
	if err == pgx.ErrNoRows {
		return nil, sitio.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get sitio")
	}
	return s, nil
}

func (r *SitioRepository) Update(ctx context.Context, s *sitio.Sitio) (*sitio.Sitio, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	yearly, err := json.Marshal(s.YearlyData)
	if err != nil {
		return nil, errors.Wrap(err, "marshal yearly data")
	}

	tag, err := tx.Exec(ctx, `
	UPDATE sitios SET
		name = $2,
		barangay = $3,
		municipality = $4,
		province = $5,
		psgc_code = $6,
		encoded_by = $7,
		yearly_data = $8,
		updated_at = $9
	WHERE id = $1
	`,
		pgUUID(s.ID), s.Name, s.Barangay, s.Municipality, s.Province, s.PSGCCode, s.EncodedBy,
		yearly, s.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "update sitio")
	}
	if tag.RowsAffected() == 0 {
		return nil, sitio.ErrNotFound
	}
	return r.GetByID(ctx, s.ID)
}

func (r *SitioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM sitios WHERE id = $1`, pgUUID(id))
	if err != nil {
		return errors.Wrap(err, "delete sitio")
	}
	if tag.RowsAffected() == 0 {
		return sitio.ErrNotFound
	}
	return nil
}

func (r *SitioRepository) List(ctx context.Context, params *sitio.FindParams) ([]*sitio.Sitio, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := sitioFilter(params)
	query := `
	SELECT ` + sitioColumns + `
	FROM sitios` + where + `
	ORDER BY province, municipality, name`
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
		return nil, errors.Wrap(err, "list sitios")
	}
	defer rows.Close()

	var out []*sitio.Sitio
	for rows.Next() {
		s, err := scanSitio(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan sitio")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SitioRepository) Count(ctx context.Context, params *sitio.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	where, args := sitioFilter(params)
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM sitios`+where, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count sitios")
	}
	return count, nil
}

func sitioFilter(params *sitio.FindParams) (string, []any) {
	var conds []string
	var args []any

	if params.Municipality != "" {
		args = append(args, params.Municipality)
		conds = append(conds, "municipality = $"+strconv.Itoa(len(args)))
	}
	if params.Province != "" {
		args = append(args, params.Province)
		conds = append(conds, "province = $"+strconv.Itoa(len(args)))
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

func scanSitio(row pgx.Row) (*sitio.Sitio, error) {
	var (
		s      sitio.Sitio
		id     pgtype.UUID
		yearly []byte
	)
	err := row.Scan(
		&id, &s.Name, &s.Barangay, &s.Municipality, &s.Province, &s.PSGCCode, &s.EncodedBy,
		&yearly, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ID = asUUID(id)
	if len(yearly) > 0 {
		if err := json.Unmarshal(yearly, &s.YearlyData); err != nil {
			return nil, errors.Wrap(err, "unmarshal yearly data")
		}
	}
	s.YearsWithData = yearKeys(s.YearlyData)
	return &s, nil
}

func yearKeys(data map[string]sitio.YearRecord) []string {
	if len(data) == 0 {
		return nil
	}
	years := make([]string, 0, len(data))
	for y := range data {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}
