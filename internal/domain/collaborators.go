package domain

import (
	"context"
)

// NarrativeGenerator is the external text-generation collaborator. The
// pipeline hands it one opaque, evidence-bearing prompt; a timeout or
// connection failure is fatal to the run (the core does not retry).
type NarrativeGenerator interface {
	Generate(ctx context.Context, prompt string, jurisdiction string) (string, error)
}

// NarrativeValidator cross-checks generated text against source data.
// Its findings are advisory: they are recorded in the audit trail and
// never abort the run.
type NarrativeValidator interface {
	Validate(narrative string, transactions []Transaction, customer *Customer) ValidationResult
}

// TemplateStore retrieves regulatory template snippets and similar
// historical cases for grounding. Empty or failed retrievals degrade to
// built-in default text, never to an error the pipeline has to handle.
type TemplateStore interface {
	RetrieveTemplates(ctx context.Context, typologies []string) []string
	RetrieveSimilarCases(ctx context.Context, query string) []string
}
