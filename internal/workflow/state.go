// Package workflow runs the six-stage report pipeline: fetch, pattern
// analysis, context enrichment, narrative generation, validation, and
// atomic persistence, with one hash-chained audit record per stage.
package workflow

import "github.com/yash-7575/luminasar/internal/domain"

// State is the workflow progress marker. Transitions are strictly
// forward; any fatal stage error moves the run to StateFailed and the
// run is never resumed.
type State string

const (
	StateInit             State = "INIT"
	StateFetched          State = "FETCHED"
	StatePatternsAnalyzed State = "PATTERNS_ANALYZED"
	StateContextEnriched  State = "CONTEXT_ENRICHED"
	StateNarrativeDrafted State = "NARRATIVE_DRAFTED"
	StateValidated        State = "VALIDATED"
	StateSaved            State = "SAVED"
	StateFailed           State = "FAILED"
)

// runState accumulates each stage's output. A stage only writes its own
// fields and reads earlier ones; nothing is mutated after being set.
type runState struct {
	state State

	caseID       string
	customerID   string
	jurisdiction string

	customer     *domain.Customer
	transactions []domain.Transaction

	patterns domain.PatternResult

	context      domain.TypologyContext
	relationship domain.RelationshipAnalysis
	templates    []string
	similarCases []string
	degraded     []string

	prompt    string
	narrative string

	validation domain.ValidationResult

	narrativeID string
}
