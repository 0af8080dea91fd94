package domain

// GenesisHash anchors the first record of every audit chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// AuditRecord is one hash-chained step of the decision pipeline.
//
// CurrentHash is a SHA-256 digest over a canonical, key-sorted JSON
// encoding of every other field; PreviousHash equals the prior record's
// CurrentHash (or GenesisHash for the first record). The persisted shape
// must stay stable so any reader can re-verify the chain.
type AuditRecord struct {
	StepName         string         `json:"step_name"`
	DataSources      map[string]any `json:"data_sources"`
	Reasoning        map[string]any `json:"reasoning"`
	ConfidenceScores map[string]any `json:"confidence_scores"`
	LoggedAt         string         `json:"logged_at"` // ISO-8601 UTC
	PreviousHash     string         `json:"previous_hash"`
	CurrentHash      string         `json:"current_hash"`
}

// SentenceEvidence maps one narrative sentence back to the source data it
// cites. Matching is literal substring search, not semantic: a paraphrased
// figure will simply show up as HasDataReference == false.
type SentenceEvidence struct {
	Position         int       `json:"position"`
	Text             string    `json:"text"`
	TransactionIDs   []string  `json:"transactionIds"`
	Amounts          []float64 `json:"amounts"`
	Accounts         []string  `json:"accounts"`
	HasDataReference bool      `json:"hasDataReference"`
}
