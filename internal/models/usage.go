package models

import (
	"time"

	"gorm.io/datatypes"
)

// UsageRecord is one LLM/embedding call's telemetry. Append-only, immutable;
// the ledger aggregates over these rows but never rewrites them.
type UsageRecord struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID        string         `gorm:"column:org_id;type:text;index" json:"org_id"`
	UserID       string         `gorm:"column:user_id;type:text;index" json:"user_id"`
	Provider     string         `gorm:"column:provider;type:text" json:"provider"`
	Model        string         `gorm:"column:model;type:text;index" json:"model"`
	InputTokens  int            `gorm:"column:input_tokens" json:"input_tokens"`
	OutputTokens int            `gorm:"column:output_tokens" json:"output_tokens"`
	CostUSD      float64        `gorm:"column:cost_usd" json:"cost_usd"`
	LatencyMS    int64          `gorm:"column:latency_ms" json:"latency_ms"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Timestamp    time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
}

func (UsageRecord) TableName() string { return "usage_records" }
