package models

import "time"

const DefaultStageColor = "#6B7280"

type Stage struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StageTemplate describes one entry of the default pipeline.
type StageTemplate struct {
	Name     string
	Color    string
	Position int
}

// DefaultStages is the pipeline every tenant starts with.
var DefaultStages = []StageTemplate{
	{Name: "New Lead", Color: "#6B7280", Position: 1},
	{Name: "Initial Contact", Color: "#3B82F6", Position: 2},
	{Name: "Proposal Sent", Color: "#F59E0B", Position: 3},
	{Name: "Negotiation", Color: "#8B5CF6", Position: 4},
	{Name: "Session Scheduled", Color: "#10B981", Position: 5},
	{Name: "Session Done", Color: "#06B6D4", Position: 6},
	{Name: "Editing", Color: "#EC4899", Position: 7},
	{Name: "Delivery", Color: "#14B8A6", Position: 8},
}
