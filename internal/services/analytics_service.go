package services

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"pipeline/internal/metrics"
	"pipeline/internal/models"
	"pipeline/internal/pdf"
	"pipeline/internal/repositories"
)

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

type AnalyticsService struct {
	DealRepo     *repositories.DealRepository
	StageRepo    *repositories.StageRepository
	ActivityRepo *repositories.ActivityRepository
	Reports      pdf.Generator
	now          func() time.Time
}

func NewAnalyticsService(
	dealRepo *repositories.DealRepository,
	stageRepo *repositories.StageRepository,
	activityRepo *repositories.ActivityRepository,
	reports pdf.Generator,
) *AnalyticsService {
	return &AnalyticsService{
		DealRepo:     dealRepo,
		StageRepo:    stageRepo,
		ActivityRepo: activityRepo,
		Reports:      reports,
		now:          repositories.Now,
	}
}

func checkRange(rng models.DateRange) error {
	if rng.Start != nil && rng.End != nil && rng.End.Before(*rng.Start) {
		return invalid("end date is before start date")
	}
	return nil
}

// DealStats counts deals created in the window. Conversion rate is the
// share of won deals, in percent, and 0 for a tenant with no deals.
func (s *AnalyticsService) DealStats(ctx context.Context, tenant models.Tenant, rng models.DateRange) (*models.DealStats, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}
	counts, err := s.DealRepo.CountByStatus(ctx, tenant.ID, rng)
	if err != nil {
		metrics.RecordStorageError("analytics.deals")
		return nil, storageFailure("deal stats", err)
	}

	stats := &models.DealStats{
		Won:           counts[models.DealWon],
		Lost:          counts[models.DealLost],
		Opportunities: counts[models.DealOpen],
	}
	stats.Total = stats.Won + stats.Lost + stats.Opportunities
	if stats.Total > 0 {
		stats.ConversionRate = float64(stats.Won) / float64(stats.Total) * 100
	}
	return stats, nil
}

// Revenue sums negotiated values per status exactly. Deals without a value
// count as zero.
func (s *AnalyticsService) Revenue(ctx context.Context, tenant models.Tenant, rng models.DateRange) (*models.RevenueSummary, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}
	rows, err := s.DealRepo.ValueRows(ctx, tenant.ID, rng)
	if err != nil {
		metrics.RecordStorageError("analytics.revenue")
		return nil, storageFailure("revenue", err)
	}

	sum := &models.RevenueSummary{}
	won := 0
	for _, r := range rows {
		v := decimal.Zero
		if r.Value.Valid {
			v = r.Value.Decimal
		}
		switch r.Status {
		case models.DealWon:
			sum.Won = sum.Won.Add(v)
			won++
		case models.DealLost:
			sum.Lost = sum.Lost.Add(v)
		default:
			sum.Open = sum.Open.Add(v)
		}
	}
	if won > 0 {
		sum.AverageWon = sum.Won.DivRound(decimal.NewFromInt(int64(won)), 2)
	}
	return sum, nil
}

// StageBreakdown reports open deals and value per stage, in pipeline order,
// followed by a bucket for open deals with no stage.
func (s *AnalyticsService) StageBreakdown(ctx context.Context, tenant models.Tenant) ([]models.StageLoad, error) {
	stages, err := s.StageRepo.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, storageFailure("stage breakdown", err)
	}
	rows, err := s.DealRepo.ValueRows(ctx, tenant.ID, models.DateRange{})
	if err != nil {
		return nil, storageFailure("stage breakdown", err)
	}

	loads := make([]models.StageLoad, 0, len(stages)+1)
	index := make(map[int64]int, len(stages))
	for i, st := range stages {
		id := st.ID
		loads = append(loads, models.StageLoad{StageID: &id, Name: st.Name, Position: st.Position})
		index[st.ID] = i
	}
	unassigned := models.StageLoad{Name: "Unassigned"}

	for _, r := range rows {
		if r.Status != models.DealOpen {
			continue
		}
		target := &unassigned
		if r.CurrentStageID != nil {
			if i, ok := index[*r.CurrentStageID]; ok {
				target = &loads[i]
			}
		}
		target.OpenDeals++
		if r.Value.Valid {
			target.OpenValue = target.OpenValue.Add(r.Value.Decimal)
		}
	}
	return append(loads, unassigned), nil
}

func (s *AnalyticsService) ActivityLog(ctx context.Context, tenant models.Tenant, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	entries, err := s.ActivityRepo.ListByTenant(ctx, tenant.ID, limit)
	if err != nil {
		metrics.RecordStorageError("analytics.activity")
		return nil, storageFailure("activity log", err)
	}
	return entries, nil
}

// Report renders the pipeline summary for the window as a PDF into w.
func (s *AnalyticsService) Report(ctx context.Context, tenant models.Tenant, rng models.DateRange, w io.Writer) error {
	stats, err := s.DealStats(ctx, tenant, rng)
	if err != nil {
		return err
	}
	revenue, err := s.Revenue(ctx, tenant, rng)
	if err != nil {
		return err
	}
	stages, err := s.StageBreakdown(ctx, tenant)
	if err != nil {
		return err
	}

	data := pdf.PipelineReportData{
		TenantID:    tenant.ID,
		GeneratedAt: s.now(),
		From:        rng.Start,
		To:          rng.End,
		Stats:       *stats,
		Revenue:     *revenue,
		Stages:      stages,
	}
	if err := s.Reports.WritePipelineReport(w, data); err != nil {
		log.Printf("[analytics][report][error] tenant=%d err=%v", tenant.ID, err)
		return err
	}
	return nil
}
