package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pipeline/internal/models"
)

type DealRepository struct {
	db Querier
}

func NewDealRepository(db Querier) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) WithTx(q Querier) *DealRepository {
	return &DealRepository{db: q}
}

const dealColumns = `id, tenant_id, client_id, product_id, title, negotiated_value, expected_close_date,
	status, current_stage_id, lost_reason, notes, created_at, updated_at, closed_at`

func scanDeal(row interface{ Scan(...any) error }) (*models.Deal, error) {
	var (
		d          models.Deal
		productID  sql.NullInt64
		value      decimal.NullDecimal
		expected   sql.NullTime
		status     string
		stageID    sql.NullInt64
		lostReason sql.NullString
		notes      sql.NullString
		closedAt   sql.NullTime
	)
	err := row.Scan(&d.ID, &d.TenantID, &d.ClientID, &productID, &d.Title, &value, &expected,
		&status, &stageID, &lostReason, &notes, &d.CreatedAt, &d.UpdatedAt, &closedAt)
	if err != nil {
		return nil, err
	}
	d.ProductID = nullInt64Ptr(productID)
	if value.Valid {
		v := value.Decimal
		d.NegotiatedValue = &v
	}
	d.ExpectedCloseDate = nullTimePtr(expected)
	d.Status = models.DealStatus(status)
	d.CurrentStageID = nullInt64Ptr(stageID)
	d.LostReason = nullStringPtr(lostReason)
	d.Notes = nullStringPtr(notes)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	d.ClosedAt = nullTimePtr(closedAt)
	return &d, nil
}

// Create inserts the deal and fills in its id.
func (r *DealRepository) Create(ctx context.Context, d *models.Deal) error {
	query := `
		INSERT INTO deals (tenant_id, client_id, product_id, title, negotiated_value, expected_close_date,
			status, current_stage_id, lost_reason, notes, created_at, updated_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		d.TenantID,
		d.ClientID,
		d.ProductID,
		d.Title,
		d.NegotiatedValue,
		d.ExpectedCloseDate,
		string(d.Status),
		d.CurrentStageID,
		d.LostReason,
		d.Notes,
		d.CreatedAt,
		d.UpdatedAt,
		d.ClosedAt,
	).Scan(&d.ID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("create deal: %w", ErrMissingReference)
	}
	if err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

func (r *DealRepository) GetByID(ctx context.Context, tenantID, id int64) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE tenant_id = $1 AND id = $2`
	d, err := scanDeal(r.db.QueryRowContext(ctx, query, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get deal: %w", err)
	}
	return d, nil
}

var allowedDealSort = map[string]string{
	"created_at":          "created_at",
	"updated_at":          "updated_at",
	"title":               "title",
	"status":              "status",
	"expected_close_date": "expected_close_date",
}

// Filter lists a tenant's deals. Unknown sort keys fall back to created_at.
func (r *DealRepository) Filter(ctx context.Context, tenantID int64, f models.DealFilter) ([]models.Deal, error) {
	sortBy, ok := allowedDealSort[f.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	order := "DESC"
	if f.Order == "asc" {
		order = "ASC"
	}

	query := `SELECT ` + dealColumns + ` FROM deals WHERE tenant_id = $1`
	args := []any{tenantID}
	i := 2

	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", i)
		args = append(args, string(f.Status))
		i++
	}
	if f.StageID > 0 {
		query += fmt.Sprintf(" AND current_stage_id = $%d", i)
		args = append(args, f.StageID)
		i++
	}
	if f.ClientID > 0 {
		query += fmt.Sprintf(" AND client_id = $%d", i)
		args = append(args, f.ClientID)
		i++
	}
	query, args, i = whereCreatedIn(query, args, i, models.DateRange{Start: f.From, End: f.To})

	query += fmt.Sprintf(" ORDER BY %s %s, id %s", sortBy, order, order)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", i, i+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("filter deals: %w", err)
	}
	return deals, nil
}

// UpdateFields writes the non-structural fields only.
func (r *DealRepository) UpdateFields(ctx context.Context, d *models.Deal) error {
	query := `
		UPDATE deals SET title = $1, negotiated_value = $2, expected_close_date = $3, notes = $4, updated_at = $5
		WHERE tenant_id = $6 AND id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		d.Title, d.NegotiatedValue, d.ExpectedCloseDate, d.Notes, d.UpdatedAt, d.TenantID, d.ID)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	return expectAffected(res)
}

func (r *DealRepository) UpdateStage(ctx context.Context, tenantID, id, stageID int64, at time.Time) error {
	query := `UPDATE deals SET current_stage_id = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`
	res, err := r.db.ExecContext(ctx, query, stageID, at, tenantID, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("update deal stage: %w", ErrMissingReference)
	}
	if err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}
	return expectAffected(res)
}

func (r *DealRepository) UpdateStatus(ctx context.Context, d *models.Deal) error {
	query := `
		UPDATE deals SET status = $1, lost_reason = $2, closed_at = $3, updated_at = $4
		WHERE tenant_id = $5 AND id = $6
	`
	res, err := r.db.ExecContext(ctx, query,
		string(d.Status), d.LostReason, d.ClosedAt, d.UpdatedAt, d.TenantID, d.ID)
	if err != nil {
		return fmt.Errorf("update deal status: %w", err)
	}
	return expectAffected(res)
}

// DetachStage clears current_stage_id on every tenant deal in the stage and
// returns how many deals were touched.
func (r *DealRepository) DetachStage(ctx context.Context, tenantID, stageID int64, at time.Time) (int64, error) {
	query := `UPDATE deals SET current_stage_id = NULL, updated_at = $1 WHERE tenant_id = $2 AND current_stage_id = $3`
	res, err := r.db.ExecContext(ctx, query, at, tenantID, stageID)
	if err != nil {
		return 0, fmt.Errorf("detach stage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("detach stage: %w", err)
	}
	return n, nil
}

// CountByStatus counts a tenant's deals per status with one grouped query.
func (r *DealRepository) CountByStatus(ctx context.Context, tenantID int64, rng models.DateRange) (map[models.DealStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM deals WHERE tenant_id = $1`
	query, args, _ := whereCreatedIn(query, []any{tenantID}, 2, rng)
	query += ` GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count deals: %w", err)
	}
	defer rows.Close()

	counts := map[models.DealStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan deal count: %w", err)
		}
		counts[models.DealStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count deals: %w", err)
	}
	return counts, nil
}

// ValueRows returns status, stage and value of every tenant deal in range.
// Sums are left to the caller so they stay exact on every dialect.
func (r *DealRepository) ValueRows(ctx context.Context, tenantID int64, rng models.DateRange) ([]models.DealValueRow, error) {
	query := `SELECT status, current_stage_id, negotiated_value FROM deals WHERE tenant_id = $1`
	query, args, _ := whereCreatedIn(query, []any{tenantID}, 2, rng)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("deal values: %w", err)
	}
	defer rows.Close()

	out := []models.DealValueRow{}
	for rows.Next() {
		var (
			row     models.DealValueRow
			status  string
			stageID sql.NullInt64
		)
		if err := rows.Scan(&status, &stageID, &row.Value); err != nil {
			return nil, fmt.Errorf("scan deal value: %w", err)
		}
		row.Status = models.DealStatus(status)
		row.CurrentStageID = nullInt64Ptr(stageID)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("deal values: %w", err)
	}
	return out, nil
}

func whereCreatedIn(query string, args []any, i int, rng models.DateRange) (string, []any, int) {
	if rng.Start != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", i)
		args = append(args, rng.Start.UTC())
		i++
	}
	if rng.End != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", i)
		args = append(args, rng.End.UTC())
		i++
	}
	return query, args, i
}
