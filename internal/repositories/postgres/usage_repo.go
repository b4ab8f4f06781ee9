package postgres

import (
	"context"
	"time"

	"github.com/hirelane/aicore/internal/models"
	"gorm.io/gorm"
)

// UsageRepository persists the append-only usage ledger and computes the
// deterministic aggregates the cost layer exposes. Rows are never updated.
type UsageRepository interface {
	Insert(ctx context.Context, rec *models.UsageRecord) error
	Summarize(ctx context.Context, orgID, userID string, from, to time.Time) (*models.CostSummary, error)
	SpendBetween(ctx context.Context, orgID, userID string, from, to time.Time) (float64, error)
	TopModels(ctx context.Context, orgID, userID string, from, to time.Time, n int) ([]models.ModelSpend, error)
}

type usageRepo struct {
	db *gorm.DB
}

func NewUsageRepo(db *gorm.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) scoped(ctx context.Context, orgID, userID string, from, to time.Time) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("timestamp >= ? AND timestamp < ?", from.UTC(), to.UTC())
	if orgID != "" {
		q = q.Where("org_id = ?", orgID)
	}
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	return q
}

func (r *usageRepo) Insert(ctx context.Context, rec *models.UsageRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *usageRepo) Summarize(ctx context.Context, orgID, userID string, from, to time.Time) (*models.CostSummary, error) {
	out := &models.CostSummary{
		From:       from.UTC(),
		To:         to.UTC(),
		ByProvider: map[string]float64{},
		ByModel:    map[string]float64{},
		ByDay:      map[string]float64{},
	}

	var totals struct {
		Cost      float64
		Requests  int64
		InputSum  int64
		OutputSum int64
	}
	err := r.scoped(ctx, orgID, userID, from, to).
		Select("COALESCE(SUM(cost_usd),0) AS cost, COUNT(*) AS requests, COALESCE(SUM(input_tokens),0) AS input_sum, COALESCE(SUM(output_tokens),0) AS output_sum").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	out.TotalCostUSD = totals.Cost
	out.TotalRequests = totals.Requests
	out.InputTokens = totals.InputSum
	out.OutputTokens = totals.OutputSum

	type bucket struct {
		Key  string
		Cost float64
	}

	var byProvider []bucket
	err = r.scoped(ctx, orgID, userID, from, to).
		Select("provider AS key, COALESCE(SUM(cost_usd),0) AS cost").
		Group("provider").
		Scan(&byProvider).Error
	if err != nil {
		return nil, err
	}
	for _, b := range byProvider {
		out.ByProvider[b.Key] = b.Cost
	}

	var byModel []bucket
	err = r.scoped(ctx, orgID, userID, from, to).
		Select("model AS key, COALESCE(SUM(cost_usd),0) AS cost").
		Group("model").
		Scan(&byModel).Error
	if err != nil {
		return nil, err
	}
	for _, b := range byModel {
		out.ByModel[b.Key] = b.Cost
	}

	var byDay []bucket
	err = r.scoped(ctx, orgID, userID, from, to).
		Select("to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS key, COALESCE(SUM(cost_usd),0) AS cost").
		Group("key").
		Scan(&byDay).Error
	if err != nil {
		return nil, err
	}
	for _, b := range byDay {
		out.ByDay[b.Key] = b.Cost
	}

	return out, nil
}

func (r *usageRepo) SpendBetween(ctx context.Context, orgID, userID string, from, to time.Time) (float64, error) {
	var spend float64
	err := r.scoped(ctx, orgID, userID, from, to).
		Select("COALESCE(SUM(cost_usd),0)").
		Scan(&spend).Error
	return spend, err
}

func (r *usageRepo) TopModels(ctx context.Context, orgID, userID string, from, to time.Time, n int) ([]models.ModelSpend, error) {
	if n <= 0 {
		n = 5
	}
	var rows []models.ModelSpend
	err := r.scoped(ctx, orgID, userID, from, to).
		Select("model, COALESCE(SUM(cost_usd),0) AS cost_usd").
		Group("model").
		Order("cost_usd DESC").
		Limit(n).
		Scan(&rows).Error
	return rows, err
}
