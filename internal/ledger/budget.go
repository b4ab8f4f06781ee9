package ledger

import (
	"fmt"
	"time"

	"github.com/hirelane/aicore/internal/models"
)

// evaluateBudget grades current spend against one scope's limits and returns
// the single highest-severity alert, or nil when under every threshold.
// Daily is evaluated before monthly at equal severity.
func evaluateBudget(cfg models.BudgetConfig, dailySpend, monthlySpend float64, now time.Time) *models.BudgetAlert {
	type candidate struct {
		period string
		spend  float64
		limit  float64
	}
	candidates := []candidate{
		{"daily", dailySpend, cfg.DailyLimitUSD},
		{"monthly", monthlySpend, cfg.MonthlyLimitUSD},
	}

	build := func(c candidate, level models.AlertLevel) *models.BudgetAlert {
		pct := c.spend / c.limit * 100
		rec := fmt.Sprintf("%s spend is at %.0f%% of the %s limit; consider routing simple tasks to cheaper models", c.period, pct, c.period)
		if level == models.AlertCritical {
			rec = fmt.Sprintf("%s spend is at %.0f%% of the %s limit; pause non-essential agent traffic or raise the limit", c.period, pct, c.period)
		}
		return &models.BudgetAlert{
			Level:          level,
			Period:         c.period,
			CurrentSpend:   c.spend,
			Threshold:      c.limit,
			PercentageUsed: pct,
			Recommendation: rec,
			Timestamp:      now.UTC(),
		}
	}

	for _, c := range candidates {
		if c.limit > 0 && c.spend/c.limit*100 >= cfg.CriticalThreshold {
			return build(c, models.AlertCritical)
		}
	}
	for _, c := range candidates {
		if c.limit > 0 && c.spend/c.limit*100 >= cfg.WarningThreshold {
			return build(c, models.AlertWarning)
		}
	}
	return nil
}

// Day and month boundaries are computed in UTC to match the ledger's
// timestamptz aggregation.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
