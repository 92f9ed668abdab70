package models

import "time"

// TransitionRecord is one immutable stage move in a deal's history.
type TransitionRecord struct {
	ID          int64     `json:"id"`
	DealID      int64     `json:"deal_id"`
	TenantID    int64     `json:"tenant_id"`
	FromStageID *int64    `json:"from_stage_id"`
	ToStageID   int64     `json:"to_stage_id"`
	MovedAt     time.Time `json:"moved_at"`
	MovedBy     int64     `json:"moved_by"`
}
