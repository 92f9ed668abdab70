package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DealStatus string

const (
	DealOpen DealStatus = "open"
	DealWon  DealStatus = "won"
	DealLost DealStatus = "lost"
)

func (s DealStatus) Valid() bool {
	switch s {
	case DealOpen, DealWon, DealLost:
		return true
	}
	return false
}

type Deal struct {
	ID                int64            `json:"id"`
	TenantID          int64            `json:"tenant_id"`
	ClientID          int64            `json:"client_id"`
	ProductID         *int64           `json:"product_id,omitempty"`
	Title             string           `json:"title"`
	NegotiatedValue   *decimal.Decimal `json:"negotiated_value,omitempty"`
	ExpectedCloseDate *time.Time       `json:"expected_close_date,omitempty"`
	Status            DealStatus       `json:"status"`
	CurrentStageID    *int64           `json:"current_stage_id"`
	LostReason        *string          `json:"lost_reason,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	ClosedAt          *time.Time       `json:"closed_at"`
}

// DealFilter narrows a tenant's deal listing. Zero values mean "any".
type DealFilter struct {
	Status   DealStatus
	StageID  int64
	ClientID int64
	From     *time.Time
	To       *time.Time
	SortBy   string
	Order    string
	Limit    int
	Offset   int
}
