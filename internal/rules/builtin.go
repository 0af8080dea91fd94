package rules

// BuiltinRules returns the default screening rule set. Deployments can
// extend or replace these without recompiling; the expressions only see
// signal-bundle variables, so they stay advisory by construction.
func BuiltinRules() []ScreeningRule {
	return []ScreeningRule{
		{
			ID:          "screen-velocity-burst",
			Name:        "Velocity burst",
			Description: "High transaction rate compressed into under a week",
			Expression:  `velocity_risk == "HIGH" && transactions_per_day > 3.0`,
			Severity:    SeverityReview,
			Enabled:     true,
		},
		{
			ID:          "screen-near-threshold-cluster",
			Name:        "Near-threshold clustering",
			Description: "Majority of amounts sit just below the reporting threshold",
			Expression:  `structuring_likelihood > 0.5`,
			Severity:    SeverityReview,
			Enabled:     true,
		},
		{
			ID:          "screen-single-counterparty-funnel",
			Name:        "Single-counterparty funnel",
			Description: "Many sources feeding one destination",
			Expression:  `unique_sources > 5 && unique_destinations == 1`,
			Severity:    SeverityWarning,
			Enabled:     true,
		},
		{
			ID:          "screen-income-scale-mismatch",
			Name:        "Large aggregate movement",
			Description: "Total movement above one million currency units",
			Expression:  `total_amount > 1000000.0`,
			Severity:    SeverityInfo,
			Enabled:     true,
		},
	}
}
