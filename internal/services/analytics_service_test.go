package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeline/internal/models"
)

func TestDealStatsScenario(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	won := f.deal(t, tenantA, "won", "1000", nil)
	lost := f.deal(t, tenantA, "lost", "500", nil)
	f.deal(t, tenantA, "open", "", nil)
	f.deal(t, tenantB, "foreign", "", nil)

	_, err := f.deals.UpdateStatus(ctx, tenantA, won.ID, models.DealWon, nil)
	require.NoError(t, err)
	_, err = f.deals.UpdateStatus(ctx, tenantA, lost.ID, models.DealLost, strPtr("budget"))
	require.NoError(t, err)

	stats, err := f.analytics.DealStats(ctx, tenantA, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Won)
	assert.Equal(t, 1, stats.Lost)
	assert.Equal(t, 1, stats.Opportunities)
	assert.InDelta(t, 33.3, stats.ConversionRate, 0.05)
}

func TestDealStatsEmptyTenant(t *testing.T) {
	f := setupServices(t)

	stats, err := f.analytics.DealStats(context.Background(), tenantA, models.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.ConversionRate)
}

func TestDealStatsWindowIsInclusive(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	first := f.deal(t, tenantA, "first", "", nil)
	second := f.deal(t, tenantA, "second", "", nil)
	f.deal(t, tenantA, "third", "", nil)

	rng := models.DateRange{Start: &first.CreatedAt, End: &second.CreatedAt}
	stats, err := f.analytics.DealStats(ctx, tenantA, rng)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)

	after := second.CreatedAt.Add(time.Millisecond)
	stats, err = f.analytics.DealStats(ctx, tenantA, models.DateRange{Start: &after})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestDealStatsRejectsInvertedRange(t *testing.T) {
	f := setupServices(t)
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	_, err := f.analytics.DealStats(context.Background(), tenantA, models.DateRange{Start: &start, End: &end})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestRevenueIsExact(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	for _, v := range []string{"0.10", "0.20", "100.05"} {
		d := f.deal(t, tenantA, "won", v, nil)
		_, err := f.deals.UpdateStatus(ctx, tenantA, d.ID, models.DealWon, nil)
		require.NoError(t, err)
	}
	lost := f.deal(t, tenantA, "lost", "40", nil)
	_, err := f.deals.UpdateStatus(ctx, tenantA, lost.ID, models.DealLost, nil)
	require.NoError(t, err)
	f.deal(t, tenantA, "open", "9.99", nil)
	f.deal(t, tenantA, "open no value", "", nil)

	rev, err := f.analytics.Revenue(ctx, tenantA, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "100.35", rev.Won.String())
	assert.Equal(t, "40", rev.Lost.String())
	assert.Equal(t, "9.99", rev.Open.String())
	assert.True(t, decimal.RequireFromString("33.45").Equal(rev.AverageWon), "average %s", rev.AverageWon)
}

func TestRevenueWithoutWins(t *testing.T) {
	f := setupServices(t)
	f.deal(t, tenantA, "open", "10", nil)

	rev, err := f.analytics.Revenue(context.Background(), tenantA, models.DateRange{})
	require.NoError(t, err)
	assert.True(t, rev.AverageWon.IsZero())
	assert.True(t, rev.Won.IsZero())
}

func TestStageBreakdown(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	a := f.stage(t, tenantA, "A", 1)
	b := f.stage(t, tenantA, "B", 2)
	f.deal(t, tenantA, "a1", "10", &a.ID)
	f.deal(t, tenantA, "a2", "5.5", &a.ID)
	closed := f.deal(t, tenantA, "a3", "1000", &a.ID)
	f.deal(t, tenantA, "loose", "1", nil)
	_, err := f.deals.UpdateStatus(ctx, tenantA, closed.ID, models.DealWon, nil)
	require.NoError(t, err)

	loads, err := f.analytics.StageBreakdown(ctx, tenantA)
	require.NoError(t, err)
	require.Len(t, loads, 3)

	assert.Equal(t, a.ID, *loads[0].StageID)
	assert.Equal(t, 2, loads[0].OpenDeals)
	assert.Equal(t, "15.5", loads[0].OpenValue.String())
	assert.Equal(t, b.ID, *loads[1].StageID)
	assert.Zero(t, loads[1].OpenDeals)
	assert.Nil(t, loads[2].StageID)
	assert.Equal(t, 1, loads[2].OpenDeals)
}

func TestActivityLogLimit(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.stage(t, tenantA, "s", i)
	}

	entries, err := f.analytics.ActivityLog(ctx, tenantA, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = f.analytics.ActivityLog(ctx, tenantA, 10_000)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, err = f.analytics.ActivityLog(ctx, tenantB, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReportRendersPDF(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	_, _, err := f.stages.BootstrapDefaults(ctx, tenantA)
	require.NoError(t, err)
	f.deal(t, tenantA, "Shoot", "300", nil)

	var buf bytes.Buffer
	require.NoError(t, f.analytics.Report(ctx, tenantA, models.DateRange{}, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
