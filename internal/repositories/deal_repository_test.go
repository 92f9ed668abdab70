package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeline/internal/models"
)

func TestDealRepositoryRoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	ctx := context.Background()

	stage := seedStage(t, db, 1, "Lead", 1)
	value := decimal.RequireFromString("1500.50")
	productID := int64(9)
	notes := "call back"
	expected := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := Now()

	d := &models.Deal{
		TenantID:          1,
		ClientID:          7,
		ProductID:         &productID,
		Title:             "Wedding shoot",
		NegotiatedValue:   &value,
		ExpectedCloseDate: &expected,
		Status:            models.DealOpen,
		CurrentStageID:    &stage.ID,
		Notes:             &notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, repo.Create(ctx, d))
	require.NotZero(t, d.ID)

	got, err := repo.GetByID(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wedding shoot", got.Title)
	assert.Equal(t, int64(7), got.ClientID)
	require.NotNil(t, got.ProductID)
	assert.Equal(t, productID, *got.ProductID)
	require.NotNil(t, got.NegotiatedValue)
	assert.True(t, value.Equal(*got.NegotiatedValue), "value %s", got.NegotiatedValue)
	require.NotNil(t, got.ExpectedCloseDate)
	assert.True(t, expected.Equal(*got.ExpectedCloseDate))
	require.NotNil(t, got.CurrentStageID)
	assert.Equal(t, stage.ID, *got.CurrentStageID)
	assert.Equal(t, models.DealOpen, got.Status)
	assert.Nil(t, got.LostReason)
	assert.Nil(t, got.ClosedAt)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = repo.GetByID(ctx, 2, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDealRepositoryNullableFields(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	ctx := context.Background()

	d := seedDeal(t, db, 1, "Bare", nil)
	got, err := repo.GetByID(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProductID)
	assert.Nil(t, got.NegotiatedValue)
	assert.Nil(t, got.ExpectedCloseDate)
	assert.Nil(t, got.CurrentStageID)
	assert.Nil(t, got.Notes)
}

func TestDealRepositoryFilter(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	ctx := context.Background()

	stage := seedStage(t, db, 1, "Lead", 1)
	a := seedDeal(t, db, 1, "A", &stage.ID)
	b := seedDeal(t, db, 1, "B", nil)
	seedDeal(t, db, 2, "Foreign", nil)

	b.Status = models.DealWon
	closed := Now()
	b.ClosedAt = &closed
	b.UpdatedAt = closed
	require.NoError(t, repo.UpdateStatus(ctx, b))

	all, err := repo.Filter(ctx, 1, models.DealFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	won, err := repo.Filter(ctx, 1, models.DealFilter{Status: models.DealWon})
	require.NoError(t, err)
	require.Len(t, won, 1)
	assert.Equal(t, b.ID, won[0].ID)

	inStage, err := repo.Filter(ctx, 1, models.DealFilter{StageID: stage.ID})
	require.NoError(t, err)
	require.Len(t, inStage, 1)
	assert.Equal(t, a.ID, inStage[0].ID)

	byTitle, err := repo.Filter(ctx, 1, models.DealFilter{SortBy: "title", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, byTitle, 2)
	assert.Equal(t, "A", byTitle[0].Title)

	paged, err := repo.Filter(ctx, 1, models.DealFilter{SortBy: "title; DROP TABLE deals", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	future := Now().Add(time.Hour)
	none, err := repo.Filter(ctx, 1, models.DealFilter{From: &future})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDealRepositoryDetachStage(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	ctx := context.Background()

	stage := seedStage(t, db, 1, "Lead", 1)
	other := seedStage(t, db, 1, "Won", 2)
	seedDeal(t, db, 1, "A", &stage.ID)
	seedDeal(t, db, 1, "B", &stage.ID)
	kept := seedDeal(t, db, 1, "C", &other.ID)

	n, err := repo.DetachStage(ctx, 1, stage.ID, Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repo.GetByID(ctx, 1, kept.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentStageID)
	assert.Equal(t, other.ID, *got.CurrentStageID)

	n, err = repo.DetachStage(ctx, 2, other.ID, Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDealRepositoryUpdateStage(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	ctx := context.Background()

	stage := seedStage(t, db, 1, "Lead", 1)
	d := seedDeal(t, db, 1, "A", nil)

	require.NoError(t, repo.UpdateStage(ctx, 1, d.ID, stage.ID, Now()))
	got, err := repo.GetByID(ctx, 1, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentStageID)
	assert.Equal(t, stage.ID, *got.CurrentStageID)

	assert.ErrorIs(t, repo.UpdateStage(ctx, 2, d.ID, stage.ID, Now()), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStage(ctx, 1, d.ID, 9999, Now()), ErrMissingReference)
}

func TestDealRepositoryCreateWithMissingStage(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	missing := int64(9999)
	now := Now()

	err := repo.Create(context.Background(), &models.Deal{
		TenantID:       1,
		ClientID:       1,
		Title:          "Orphan",
		Status:         models.DealOpen,
		CurrentStageID: &missing,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestDealRepositoryCountByStatus(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	ctx := context.Background()

	for i, status := range []models.DealStatus{models.DealOpen, models.DealOpen, models.DealWon, models.DealLost} {
		d := seedDeal(t, db, 1, "deal", nil)
		if status != models.DealOpen {
			d.Status = status
			at := Now()
			d.ClosedAt = &at
			d.UpdatedAt = at
			require.NoError(t, repo.UpdateStatus(ctx, d), "deal %d", i)
		}
	}
	seedDeal(t, db, 2, "foreign", nil)

	counts, err := repo.CountByStatus(ctx, 1, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.DealOpen])
	assert.Equal(t, 1, counts[models.DealWon])
	assert.Equal(t, 1, counts[models.DealLost])

	past := Now().Add(-time.Hour)
	counts, err = repo.CountByStatus(ctx, 1, models.DateRange{End: &past})
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestDealRepositoryValueRows(t *testing.T) {
	db := setupDB(t)
	repo := NewDealRepository(db)
	ctx := context.Background()

	d := seedDeal(t, db, 1, "A", nil)
	v := decimal.RequireFromString("0.10")
	d.NegotiatedValue = &v
	d.UpdatedAt = Now()
	require.NoError(t, repo.UpdateFields(ctx, d))
	seedDeal(t, db, 1, "B", nil)

	rows, err := repo.ValueRows(ctx, 1, models.DateRange{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var total decimal.Decimal
	for _, r := range rows {
		if r.Value.Valid {
			total = total.Add(r.Value.Decimal)
		}
	}
	assert.True(t, total.Equal(v))
}
