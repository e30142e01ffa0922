package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/model"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the vehicles and content_items tables if needed.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS vehicles (
	id TEXT PRIMARY KEY,
	vin TEXT NOT NULL,
	make TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	model_year INTEGER NOT NULL DEFAULT 0,
	reviewer_user_id TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS content_items (
	id TEXT NOT NULL,
	vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	position TEXT NOT NULL,
	sort_order INTEGER NOT NULL,
	uri TEXT NOT NULL DEFAULT '',
	qc_status TEXT,
	qc_is_quality_good BOOLEAN NOT NULL DEFAULT FALSE,
	qc_issues TEXT[] NOT NULL DEFAULT '{}',
	qc_comments TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (vehicle_id, id)
);
CREATE INDEX IF NOT EXISTS idx_content_items_vehicle ON content_items(vehicle_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_vehicles_reviewer ON vehicles(reviewer_user_id);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PostgresStore implements backend.Backend on PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a store on an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var (
	_ backend.Backend = (*PostgresStore)(nil)
	_ Loader          = (*PostgresStore)(nil)
)

// Put inserts a vehicle with its content items. A vehicle that already
// exists is left untouched, so a re-seed keeps saved verdicts and the
// reviewer.
func (s *PostgresStore) Put(ctx context.Context, d model.VehicleDetail) error {
	if d.Vehicle.ID == "" {
		return fmt.Errorf("%w: vehicle id is required", backend.ErrInvalid)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	v := d.Vehicle
	tag, err := tx.Exec(ctx, `
		INSERT INTO vehicles (id, vin, make, model, model_year, reviewer_user_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING
	`, v.ID, v.VIN, v.Make, v.Model, v.ModelYear, v.ReviewerUserID, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, it := range d.ContentItems {
		var (
			status *string
			good   bool
			issues = []string{}
			notes  string
		)
		if qc := it.QualityCheck; qc != nil {
			st := string(model.DeriveStatus(qc.IsQualityGood, qc.Issues))
			status = &st
			good = qc.IsQualityGood
			issues = issueStrings(qc.Issues)
			notes = qc.Comments
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO content_items (id, vehicle_id, position, sort_order, uri, qc_status, qc_is_quality_good, qc_issues, qc_comments, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`, it.ID, v.ID, string(it.Position), it.SortOrder, it.URI, status, good, issues, notes, now)
		if err != nil {
			return fmt.Errorf("insert content item %s: %w", it.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetVehicleDetail implements backend.Backend.
func (s *PostgresStore) GetVehicleDetail(ctx context.Context, vehicleID string) (*model.VehicleDetail, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, vin, make, model, model_year, reviewer_user_id, created_at
		FROM vehicles WHERE id=$1
	`, vehicleID)
	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", vehicleID, backend.ErrNotFound)
		}
		return nil, fmt.Errorf("select vehicle: %w", err)
	}

	items, err := s.items(ctx, []string{vehicleID})
	if err != nil {
		return nil, err
	}
	d := &model.VehicleDetail{Vehicle: v, ContentItems: items[vehicleID]}
	if d.ContentItems == nil {
		d.ContentItems = []model.ContentItem{}
	}
	d.Vehicle.QualityCheckStatus = model.AggregateStatus(d.Vehicle, d.ContentItems)
	return d, nil
}

func (s *PostgresStore) items(ctx context.Context, vehicleIDs []string) (map[string][]model.ContentItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, vehicle_id, position, sort_order, uri, qc_status, qc_is_quality_good, qc_issues, qc_comments
		FROM content_items WHERE vehicle_id = ANY($1)
		ORDER BY vehicle_id, sort_order, id
	`, vehicleIDs)
	if err != nil {
		return nil, fmt.Errorf("select content items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.ContentItem)
	for rows.Next() {
		var (
			it     model.ContentItem
			pos    string
			status sql.NullString
			good   bool
			issues []string
			notes  string
		)
		if err := rows.Scan(&it.ID, &it.VehicleID, &pos, &it.SortOrder, &it.URI, &status, &good, &issues, &notes); err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		it.Position = model.Position(pos)
		if status.Valid {
			codes := make([]model.IssueCode, 0, len(issues))
			for _, c := range issues {
				codes = append(codes, model.IssueCode(c))
			}
			it.QualityCheck = &model.QualityCheck{
				IsQualityGood: good,
				Issues:        codes,
				Comments:      notes,
				Status:        model.VerdictStatus(status.String),
			}
		}
		out[it.VehicleID] = append(out[it.VehicleID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}
	return out, nil
}

// SaveQualityCheck implements backend.Backend. The last write wins.
func (s *PostgresStore) SaveQualityCheck(ctx context.Context, in model.QualityCheckInput) error {
	if err := ValidateQualityCheck(in); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE content_items
		SET qc_status=$1, qc_is_quality_good=$2, qc_issues=$3, qc_comments=$4, updated_at=$5
		WHERE id=$6 AND vehicle_id=$7
	`, string(in.Status), in.IsQualityGood, issueStrings(in.Issues), in.Comment, time.Now().UTC(), in.VehicleImageID, in.VehicleID)
	if err != nil {
		return fmt.Errorf("update quality check: %w", err)
	}
	return requireRow(tag, "content item", in.VehicleImageID)
}

// AssignQualityCheckUser implements backend.Backend. There is no
// compare-and-set; a later assignment overwrites an earlier one.
func (s *PostgresStore) AssignQualityCheckUser(ctx context.Context, in model.AssignInput) error {
	if err := ValidateAssign(in); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE vehicles SET reviewer_user_id=$1 WHERE id=$2`, in.UserID, in.VehicleID)
	if err != nil {
		return fmt.Errorf("assign reviewer: %w", err)
	}
	return requireRow(tag, "vehicle", in.VehicleID)
}

// UpdateVehicleImageType implements backend.Backend.
func (s *PostgresStore) UpdateVehicleImageType(ctx context.Context, in model.ImageTypeInput) error {
	if err := ValidateImageType(in); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE content_items SET position=$1, updated_at=$2 WHERE id=$3 AND vehicle_id=$4
	`, string(in.Type), time.Now().UTC(), in.VehicleImageID, in.VehicleID)
	if err != nil {
		return fmt.Errorf("update content type: %w", err)
	}
	return requireRow(tag, "content item", in.VehicleImageID)
}

// ListQualityCheckerVehicles implements backend.Backend. Reviewer and VIN
// filters run in SQL; the aggregate status needs the items and is filtered
// afterwards.
func (s *PostgresStore) ListQualityCheckerVehicles(ctx context.Context, f model.VehicleFilter) (*model.VehiclePage, error) {
	var (
		where []string
		args  []any
	)
	if f.ReviewerUserID != "" {
		args = append(args, f.ReviewerUserID)
		where = append(where, fmt.Sprintf("reviewer_user_id = $%d", len(args)))
	}
	if f.VIN != "" {
		args = append(args, "%"+strings.ToUpper(f.VIN)+"%")
		where = append(where, fmt.Sprintf("UPPER(vin) LIKE $%d", len(args)))
	}
	q := `SELECT id, vin, make, model, model_year, reviewer_user_id, created_at FROM vehicles`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select vehicles: %w", err)
	}
	var vehicles []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}

	ids := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}
	items, err := s.items(ctx, ids)
	if err != nil {
		return nil, err
	}

	var summaries []model.VehicleSummary
	for _, v := range vehicles {
		d := model.VehicleDetail{Vehicle: v, ContentItems: items[v.ID]}
		d.Vehicle.QualityCheckStatus = model.AggregateStatus(d.Vehicle, d.ContentItems)
		if matches(f, d.Vehicle) {
			summaries = append(summaries, model.Summarize(d))
		}
	}
	return paginate(summaries, f), nil
}

func scanVehicle(row pgx.Row) (model.Vehicle, error) {
	var (
		v        model.Vehicle
		reviewer sql.NullString
	)
	if err := row.Scan(&v.ID, &v.VIN, &v.Make, &v.Model, &v.ModelYear, &reviewer, &v.CreatedAt); err != nil {
		return model.Vehicle{}, err
	}
	if reviewer.Valid {
		r := reviewer.String
		v.ReviewerUserID = &r
	}
	return v, nil
}

func requireRow(tag pgconn.CommandTag, what, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", what, id, backend.ErrNotFound)
	}
	return nil
}

func issueStrings(codes []model.IssueCode) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, string(c))
	}
	return out
}
