package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pipeline/internal/models"
)

type StageRepository struct {
	db Querier
}

func NewStageRepository(db Querier) *StageRepository {
	return &StageRepository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *StageRepository) WithTx(q Querier) *StageRepository {
	return &StageRepository{db: q}
}

const stageColumns = `id, tenant_id, name, color, position, created_at, updated_at`

func scanStage(row interface{ Scan(...any) error }) (*models.Stage, error) {
	var s models.Stage
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Color, &s.Position, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *StageRepository) ListByTenant(ctx context.Context, tenantID int64) ([]models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tenant_id = $1 ORDER BY position ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	stages := []models.Stage{}
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return stages, nil
}

func (r *StageRepository) GetByID(ctx context.Context, tenantID, id int64) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tenant_id = $1 AND id = $2`
	s, err := scanStage(r.db.QueryRowContext(ctx, query, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stage: %w", err)
	}
	return s, nil
}

// Create inserts the stage and fills in its id.
func (r *StageRepository) Create(ctx context.Context, s *models.Stage) error {
	query := `
		INSERT INTO stages (tenant_id, name, color, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		s.TenantID, s.Name, s.Color, s.Position, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create stage: %w", err)
	}
	return nil
}

// Update writes name, color and position of an existing stage.
func (r *StageRepository) Update(ctx context.Context, s *models.Stage) error {
	query := `
		UPDATE stages SET name = $1, color = $2, position = $3, updated_at = $4
		WHERE tenant_id = $5 AND id = $6
	`
	res, err := r.db.ExecContext(ctx, query, s.Name, s.Color, s.Position, s.UpdatedAt, s.TenantID, s.ID)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return expectAffected(res)
}

func (r *StageRepository) Delete(ctx context.Context, tenantID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	return expectAffected(res)
}

func (r *StageRepository) CountByTenant(ctx context.Context, tenantID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stages WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stages: %w", err)
	}
	return n, nil
}

// LockBootstrap upserts the tenant's bootstrap row. Inside a transaction the
// row lock it takes serialises concurrent bootstraps of the same tenant.
func (r *StageRepository) LockBootstrap(ctx context.Context, tenantID int64, at time.Time) error {
	query := `
		INSERT INTO stage_bootstraps (tenant_id, bootstrapped_at) VALUES ($1, $2)
		ON CONFLICT (tenant_id) DO UPDATE SET bootstrapped_at = excluded.bootstrapped_at
	`
	if _, err := r.db.ExecContext(ctx, query, tenantID, at); err != nil {
		return fmt.Errorf("lock stage bootstrap: %w", err)
	}
	return nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
