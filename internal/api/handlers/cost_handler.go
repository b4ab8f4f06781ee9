package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hirelane/aicore/internal/ledger"
	"github.com/hirelane/aicore/internal/utils"
)

type CostHandler struct {
	ledger *ledger.Ledger
}

func NewCostHandler(l *ledger.Ledger) *CostHandler {
	return &CostHandler{ledger: l}
}

func scopeFrom(c *gin.Context) ledger.Scope {
	return ledger.Scope{
		OrgID:  c.Query("org_id"),
		UserID: c.Query("user_id"),
	}
}

// Summary serves spend aggregates for an explicit date range. Dates are
// RFC 3339 or plain YYYY-MM-DD; a missing range defaults to the last 30 days.
func (h *CostHandler) Summary(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -30), now

	var err error
	if s := c.Query("from"); s != "" {
		if from, err = parseDate(s); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "CostHandler.Summary", "invalid from date", err))
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = parseDate(s); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "CostHandler.Summary", "invalid to date", err))
			return
		}
	}

	summary, err := h.ledger.GetCostSummary(c.Request.Context(), scopeFrom(c), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *CostHandler) Budget(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	alert, err := h.ledger.CheckBudget(c.Request.Context(), scopeFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if alert == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alert", "alert": alert})
}

func (h *CostHandler) Dashboard(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}

	metrics, err := h.ledger.GetDashboardMetrics(c.Request.Context(), scopeFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
