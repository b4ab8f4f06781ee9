package models

// Intent categories form the fixed taxonomy the orchestrator classifies into.
// Each category maps to at most one registered specialist handler.
const (
	IntentCoding          = "coding"
	IntentResume          = "resume"
	IntentInterview       = "interview"
	IntentProjectPlanning = "project_planning"
	IntentDataQuery       = "data_query"
	IntentGeneral         = "general"
)

// IntentCategories lists the taxonomy in the order presented to the
// classifier model.
func IntentCategories() []string {
	return []string{
		IntentCoding,
		IntentResume,
		IntentInterview,
		IntentProjectPlanning,
		IntentDataQuery,
		IntentGeneral,
	}
}

// IntentClassification is produced per query and not persisted beyond logging.
type IntentClassification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"` // 0..1
	Reasoning  string  `json:"reasoning"`
}
