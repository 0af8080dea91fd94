package domain

// Money laundering typology labels produced by the pattern detector.
// A non-empty transaction set always carries at least one label:
// TypologyGeneralSuspicious is appended when nothing else matched.
const (
	TypologyLayering          = "layering"
	TypologyStructuring       = "structuring"
	TypologySmurfing          = "smurfing"
	TypologyIntegration       = "integration"
	TypologyRoundTripping     = "round_tripping"
	TypologyFunnelAccount     = "funnel_account"
	TypologyGeneralSuspicious = "general_suspicious"
)

// Velocity risk tiers. Tier is span-first: a long observation window is LOW
// regardless of the per-day rate.
const (
	VelocityRiskHigh   = "HIGH"
	VelocityRiskMedium = "MEDIUM"
	VelocityRiskLow    = "LOW"
)

// VelocityPattern describes how quickly money moved.
type VelocityPattern struct {
	TimeSpanDays       int     `json:"timeSpanDays"`
	TransactionsPerDay float64 `json:"transactionsPerDay"`
	Risk               string  `json:"risk"`
}

// VolumePattern describes aggregate amounts.
type VolumePattern struct {
	TotalAmount     float64 `json:"totalAmount"`
	AvgAmount       float64 `json:"avgAmount"`
	MaxAmount       float64 `json:"maxAmount"`
	NumTransactions int     `json:"numTransactions"`
}

// StructuringPattern describes clustering just below the reporting threshold.
type StructuringPattern struct {
	NearThresholdCount int     `json:"nearThresholdCount"`
	Likelihood         float64 `json:"structuringLikelihood"`
	Suspicious         bool    `json:"suspicious"`
}

// NetworkPattern describes the shape of the transaction graph.
type NetworkPattern struct {
	UniqueSources      int  `json:"uniqueSources"`
	UniqueDestinations int  `json:"uniqueDestinations"`
	FanInHigh          bool `json:"fanInHigh"`
	FanOutHigh         bool `json:"fanOutHigh"`
	HubDetected        bool `json:"hubDetected"`
	TotalNodes         int  `json:"totalNodes"`
	TotalEdges         int  `json:"totalEdges"`
}

// PatternResult is the full signal bundle computed per request.
// It is derived fresh on every run and never persisted on its own;
// RiskScore is deterministic given identical input.
type PatternResult struct {
	Velocity    VelocityPattern    `json:"velocity"`
	Volume      VolumePattern      `json:"volume"`
	Structuring StructuringPattern `json:"structuring"`
	Network     NetworkPattern     `json:"network"`
	Typologies  []string           `json:"typologies"`
	RiskScore   float64            `json:"riskScore"`
}
