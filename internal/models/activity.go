package models

import "time"

const (
	EntityDeal  = "deal"
	EntityStage = "stage"
)

type ActivityEntry struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	UserID     int64     `json:"user_id"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
