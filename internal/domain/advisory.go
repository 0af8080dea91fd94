package domain

// JurisdictionGlobal tags advisories that apply in every regulatory regime.
const JurisdictionGlobal = "Global"

// RegulatoryAdvisory is a static reference linking a typology to a
// regulator-issued note. The registry of advisories is loaded once at
// process start and never mutated.
type RegulatoryAdvisory struct {
	ID           string  `json:"advisoryId"`
	Title        string  `json:"title"`
	Issuer       string  `json:"issuer"`
	Typology     string  `json:"typology"`
	Jurisdiction string  `json:"jurisdiction"`
	Description  string  `json:"description"`
	RiskWeight   float64 `json:"riskWeight"` // 0.0-1.0
}

// TypologyContext is the regulatory evidence assembled for a set of
// detected typologies in one jurisdiction.
type TypologyContext struct {
	Advisories   []RegulatoryAdvisory `json:"advisories"`
	EvidenceText string               `json:"evidenceText"`
	InsightText  string               `json:"insightText"`
	Confidence   float64              `json:"confidenceScore"`
}

// RelationshipAnalysis is the graph-topology view around a focus account.
// When the account is absent from the graph, or analysis fails, the neutral
// result (centrality 0, amplification 1.0) is returned instead of an error.
type RelationshipAnalysis struct {
	Summary                 string  `json:"relationshipSummary"`
	CentralityScore         float64 `json:"centralityScore"`
	NumNodes                int     `json:"numNodes"`
	NumEdges                int     `json:"numEdges"`
	NumComponents           int     `json:"numComponents"`
	CyclesDetected          int     `json:"cyclesDetected"`
	RiskAmplificationFactor float64 `json:"riskAmplificationFactor"`
}
