package router

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// TaskType is the routing key. The table is exhaustive over these values;
// anything else is a programming error at the call site.
type TaskType string

const (
	TaskSimple    TaskType = "simple"
	TaskReasoning TaskType = "reasoning"
	TaskComplex   TaskType = "complex"
	TaskVision    TaskType = "vision"
)

// Decision is the routing outcome: a fixed provider/model pair with known
// per-million-token pricing.
type Decision struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	Reasoning        string  `json:"reasoning"`
	InputPricePerM   float64 `json:"input_price_per_m"`
	OutputPricePerM  float64 `json:"output_price_per_m"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// decisionSLA is advisory only; a breach logs, it never aborts.
const decisionSLA = 100 * time.Millisecond

var table = map[TaskType]Decision{
	TaskSimple: {
		Provider:        "vertex",
		Model:           "gemini-1.5-flash",
		Reasoning:       "cheap fast model for classification, short answers, formatting",
		InputPricePerM:  0.075,
		OutputPricePerM: 0.30,
	},
	TaskReasoning: {
		Provider:        "openai",
		Model:           "gpt-4o",
		Reasoning:       "multi-step reasoning over candidate and job data",
		InputPricePerM:  2.50,
		OutputPricePerM: 10.00,
	},
	TaskComplex: {
		Provider:        "openai",
		Model:           "o1",
		Reasoning:       "long-horizon planning and analysis where quality dominates cost",
		InputPricePerM:  15.00,
		OutputPricePerM: 60.00,
	},
	TaskVision: {
		Provider:        "vertex",
		Model:           "gemini-1.5-pro",
		Reasoning:       "multimodal input: resumes as images, screenshots, scanned docs",
		InputPricePerM:  1.25,
		OutputPricePerM: 5.00,
	},
}

// ModelRouter is a pure decision table. Construct one per process and pass it
// down; it holds no mutable state beyond the logger.
type ModelRouter struct {
	log *logrus.Entry
}

func New(log *logrus.Logger) *ModelRouter {
	if log == nil {
		log = logrus.New()
	}
	return &ModelRouter{log: log.WithField("component", "router")}
}

// Route maps a task type to its provider/model decision. Deterministic: the
// same task type always yields the same decision. Unknown task types panic —
// an exhaustive-match failure is a bug, not a recoverable condition.
func (r *ModelRouter) Route(task TaskType) Decision {
	start := time.Now()

	d, ok := table[task]
	if !ok {
		panic(fmt.Sprintf("router: unknown task type %q", task))
	}

	if elapsed := time.Since(start); elapsed > decisionSLA {
		r.log.WithFields(logrus.Fields{
			"task":       string(task),
			"elapsed_ms": elapsed.Milliseconds(),
			"sla_ms":     decisionSLA.Milliseconds(),
		}).Warn("routing decision exceeded advisory SLA")
	}
	return d
}

// EstimateCost prices a call against the routed model's per-million rates.
func (r *ModelRouter) EstimateCost(task TaskType, inputTokens, outputTokens int) float64 {
	d := r.Route(task)
	return float64(inputTokens)/1e6*d.InputPricePerM +
		float64(outputTokens)/1e6*d.OutputPricePerM
}

// RouteWithEstimate bundles the decision with a cost estimate for callers
// that report both.
func (r *ModelRouter) RouteWithEstimate(task TaskType, inputTokens, outputTokens int) Decision {
	d := r.Route(task)
	d.EstimatedCostUSD = r.EstimateCost(task, inputTokens, outputTokens)
	return d
}
