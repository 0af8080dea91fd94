package domain

import "time"

// Case status values.
const (
	CaseStatusPending  = "pending"
	CaseStatusDrafted  = "drafted"
	CaseStatusApproved = "approved"
)

// SARCase is an open suspicious-activity case awaiting a narrative.
type SARCase struct {
	ID         string    `json:"caseId"`
	CustomerID string    `json:"customerId"`
	Status     string    `json:"status"`
	RiskScore  float64   `json:"riskScore"`
	Typologies []string  `json:"typologies"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Narrative is a generated SAR narrative persisted for a case.
type Narrative struct {
	ID             string    `json:"narrativeId"`
	CaseID         string    `json:"caseId"`
	Text           string    `json:"narrativeText"`
	GeneratedAt    time.Time `json:"generatedAt"`
	GenerationSecs int       `json:"generationTimeSeconds"`
}

// Report bundles everything a completed workflow run produced.
// It is what the caller of the orchestrator receives on success.
type Report struct {
	NarrativeID string             `json:"narrativeId"`
	CaseID      string             `json:"caseId"`
	Narrative   string             `json:"narrativeText"`
	RiskScore   float64            `json:"riskScore"`
	Typologies  []string           `json:"typologies"`
	AuditSteps  int                `json:"auditSteps"`
	Warnings    []string           `json:"warnings,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
	Attribution []SentenceEvidence `json:"attribution,omitempty"`
}

// ValidationResult is the outcome of structural narrative validation.
// Validation never blocks the pipeline; errors here are advisory and are
// recorded in the audit trail for the human reviewer.
type ValidationResult struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	WordCount     int      `json:"wordCount"`
	SectionsFound int      `json:"sectionsFound"`
}
