package models

import "time"

// BudgetConfig holds spend limits for a scope (org or user). Thresholds are
// percentages in [0,100].
type BudgetConfig struct {
	DailyLimitUSD     float64 `json:"daily_limit_usd"`
	MonthlyLimitUSD   float64 `json:"monthly_limit_usd"`
	WarningThreshold  float64 `json:"warning_threshold"`
	CriticalThreshold float64 `json:"critical_threshold"`
}

// DefaultBudget applies when a scope has no explicit configuration.
func DefaultBudget() BudgetConfig {
	return BudgetConfig{
		DailyLimitUSD:     50,
		MonthlyLimitUSD:   1000,
		WarningThreshold:  75,
		CriticalThreshold: 90,
	}
}

type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// BudgetAlert is ephemeral: computed from the ledger, never persisted as a
// source of truth.
type BudgetAlert struct {
	Level          AlertLevel `json:"level"`
	Period         string     `json:"period"` // daily|monthly
	CurrentSpend   float64    `json:"current_spend"`
	Threshold      float64    `json:"threshold"`
	PercentageUsed float64    `json:"percentage_used"`
	Recommendation string     `json:"recommendation"`
	Timestamp      time.Time  `json:"timestamp"`
}

// CostSummary is a deterministic aggregation over usage records in a range.
type CostSummary struct {
	From          time.Time          `json:"from"`
	To            time.Time          `json:"to"`
	TotalCostUSD  float64            `json:"total_cost_usd"`
	TotalRequests int64              `json:"total_requests"`
	InputTokens   int64              `json:"input_tokens"`
	OutputTokens  int64              `json:"output_tokens"`
	ByProvider    map[string]float64 `json:"by_provider"`
	ByModel       map[string]float64 `json:"by_model"`
	ByDay         map[string]float64 `json:"by_day"` // YYYY-MM-DD → spend
}

// ModelSpend is one row of the dashboard's top-models table.
type ModelSpend struct {
	Model   string  `json:"model"`
	CostUSD float64 `json:"cost_usd"`
}

// DashboardMetrics composes several summaries plus the budget check into one
// read-only view. WeekOverWeek is the spend ratio against the prior week
// (1.0 = flat); it is nil when the prior week had no spend to baseline
// against.
type DashboardMetrics struct {
	Today        CostSummary  `json:"today"`
	Yesterday    CostSummary  `json:"yesterday"`
	MonthToDate  CostSummary  `json:"month_to_date"`
	Week         CostSummary  `json:"week"`
	TopModels    []ModelSpend `json:"top_models"`
	WeekOverWeek *float64     `json:"week_over_week,omitempty"`
	Budget       *BudgetAlert `json:"budget,omitempty"`
	GeneratedAt  time.Time    `json:"generated_at"`
}
