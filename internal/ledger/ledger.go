package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hirelane/aicore/internal/models"
	pgrepo "github.com/hirelane/aicore/internal/repositories/postgres"
	"github.com/hirelane/aicore/internal/utils"
)

// Scope selects whose spend is being examined. Empty fields widen the scope.
type Scope struct {
	OrgID  string `json:"org_id,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

func (s Scope) key() string { return s.OrgID + "|" + s.UserID }

// Ledger ingests usage records and serves spend aggregates and budget
// checks. Writes are telemetry: a failed TrackRequest logs and returns,
// it never breaks the primary call path.
type Ledger struct {
	repo   pgrepo.UsageRepository
	log    *logrus.Entry
	now    func() time.Time
	budget models.BudgetConfig

	mu     sync.RWMutex
	scoped map[string]models.BudgetConfig
}

func New(repo pgrepo.UsageRepository, budget models.BudgetConfig, log *logrus.Logger) *Ledger {
	if log == nil {
		log = logrus.New()
	}
	if budget == (models.BudgetConfig{}) {
		budget = models.DefaultBudget()
	}
	return &Ledger{
		repo:   repo,
		log:    log.WithField("component", "ledger"),
		now:    time.Now,
		budget: budget,
		scoped: map[string]models.BudgetConfig{},
	}
}

// SetScopeBudget overrides the limits for one scope. Safe to call while
// budget checks are running.
func (l *Ledger) SetScopeBudget(scope Scope, cfg models.BudgetConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scoped[scope.key()] = cfg
}

func (l *Ledger) budgetFor(scope Scope) models.BudgetConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if cfg, ok := l.scoped[scope.key()]; ok {
		return cfg
	}
	return l.budget
}

// TrackRequest appends one usage record. Fire-and-forget: failures are
// logged, never propagated.
func (l *Ledger) TrackRequest(ctx context.Context, rec models.UsageRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}
	if err := l.repo.Insert(ctx, &rec); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"provider": rec.Provider,
			"model":    rec.Model,
		}).Warn("usage record write failed")
	}
}

// GetCostSummary aggregates stored records for a date range. Deterministic:
// the same range over the same rows always produces the same summary.
func (l *Ledger) GetCostSummary(ctx context.Context, scope Scope, from, to time.Time) (*models.CostSummary, error) {
	const op = "Ledger.GetCostSummary"

	if !to.After(from) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "range end must be after range start", nil)
	}
	out, err := l.repo.Summarize(ctx, scope.OrgID, scope.UserID, from, to)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to aggregate usage", err)
	}
	return out, nil
}

// CheckBudget computes day-to-date and month-to-date spend against the
// scope's limits and returns the single highest-severity alert, or nil.
func (l *Ledger) CheckBudget(ctx context.Context, scope Scope) (*models.BudgetAlert, error) {
	const op = "Ledger.CheckBudget"

	now := l.now().UTC()

	daily, err := l.repo.SpendBetween(ctx, scope.OrgID, scope.UserID, startOfDay(now), now)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to compute daily spend", err)
	}
	monthly, err := l.repo.SpendBetween(ctx, scope.OrgID, scope.UserID, startOfMonth(now), now)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to compute monthly spend", err)
	}

	return evaluateBudget(l.budgetFor(scope), daily, monthly, now), nil
}

// GetDashboardMetrics composes several summaries plus the budget check into
// one read-only view.
func (l *Ledger) GetDashboardMetrics(ctx context.Context, scope Scope) (*models.DashboardMetrics, error) {
	const op = "Ledger.GetDashboardMetrics"

	now := l.now().UTC()
	today := startOfDay(now)

	summaries := []struct {
		from time.Time
		to   time.Time
	}{
		{from: today, to: now},                     // today
		{from: today.AddDate(0, 0, -1), to: today}, // yesterday
		{from: startOfMonth(now), to: now},         // month to date
		{from: now.AddDate(0, 0, -7), to: now},     // trailing week
	}
	results := make([]*models.CostSummary, len(summaries))
	for i, s := range summaries {
		sum, err := l.GetCostSummary(ctx, scope, s.from, s.to)
		if err != nil {
			return nil, err
		}
		results[i] = sum
	}

	priorWeek, err := l.GetCostSummary(ctx, scope, now.AddDate(0, 0, -14), now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	topModels, err := l.repo.TopModels(ctx, scope.OrgID, scope.UserID, startOfMonth(now), now, 5)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to rank models", err)
	}

	alert, err := l.CheckBudget(ctx, scope)
	if err != nil {
		return nil, err
	}

	// No prior-week spend means no baseline; the trend is omitted rather
	// than mislabeling new spend as flat.
	var trend *float64
	if priorWeek.TotalCostUSD > 0 {
		ratio := results[3].TotalCostUSD / priorWeek.TotalCostUSD
		trend = &ratio
	}

	return &models.DashboardMetrics{
		Today:        *results[0],
		Yesterday:    *results[1],
		MonthToDate:  *results[2],
		Week:         *results[3],
		TopModels:    topModels,
		WeekOverWeek: trend,
		Budget:       alert,
		GeneratedAt:  now,
	}, nil
}
