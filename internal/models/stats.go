package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds are inclusive; nil means unbounded.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

type DealStats struct {
	Total          int     `json:"total"`
	Won            int     `json:"won"`
	Lost           int     `json:"lost"`
	Opportunities  int     `json:"opportunities"`
	ConversionRate float64 `json:"conversion_rate"`
}

type RevenueSummary struct {
	Won        decimal.Decimal `json:"won"`
	Lost       decimal.Decimal `json:"lost"`
	Open       decimal.Decimal `json:"open"`
	AverageWon decimal.Decimal `json:"average_won"`
}

// StageLoad is the open pipeline sitting in one stage. StageID is nil for
// deals that are not in any stage.
type StageLoad struct {
	StageID   *int64          `json:"stage_id"`
	Name      string          `json:"name"`
	Position  int             `json:"position"`
	OpenDeals int             `json:"open_deals"`
	OpenValue decimal.Decimal `json:"open_value"`
}

// DealValueRow is the minimal projection analytics needs per deal.
type DealValueRow struct {
	Status         DealStatus
	CurrentStageID *int64
	Value          decimal.NullDecimal
}
