// Package knowledge maps detected typologies to regulatory references and
// performs graph-topology analysis over the transaction network.
package knowledge

import (
	"github.com/yash-7575/luminasar/internal/domain"
)

// FallbackJurisdiction is tried when the requested jurisdiction has no
// matching advisories.
const FallbackJurisdiction = "IN"

// defaultRegistry returns the static advisory registry. Loaded once at
// process start; never mutated afterwards.
func defaultRegistry() []domain.RegulatoryAdvisory {
	return []domain.RegulatoryAdvisory{
		// Layering
		{ID: "ADV-LAY-001", Title: "Placement to Layering Transition", Issuer: "FATF", Typology: "Layering", Jurisdiction: domain.JurisdictionGlobal, Description: "Detecting movement into complex layers per FATF standards.", RiskWeight: 0.68},
		{ID: "ADV-LAY-002", Title: "Shell Company Layering", Issuer: "FIU-IND", Typology: "Layering", Jurisdiction: "IN", Description: "Multiple rapid circular transfers between shell companies per FIU-IND 2023 Note.", RiskWeight: 0.82},
		{ID: "ADV-LAY-003", Title: "Inter-Account Transfers", Issuer: "FinCEN", Typology: "Layering", Jurisdiction: "US", Description: "Rapid fund movement between multiple accounts per FinCEN Advisory FIN-2023-A001.", RiskWeight: 0.59},
		{ID: "ADV-LAY-004", Title: "UK Layering via Intermediaries", Issuer: "NCA", Typology: "Layering", Jurisdiction: "UK", Description: "Rapid multi-hop fund movements through intermediary accounts per JMLSG Guidance.", RiskWeight: 0.77},

		// Structuring
		{ID: "ADV-STR-001", Title: "Sub-Threshold Cash Deposits", Issuer: "FIU-IND", Typology: "Structuring", Jurisdiction: "IN", Description: "Intentional breaking of cash transactions per PMLA Section 3.", RiskWeight: 0.91},
		{ID: "ADV-STR-002", Title: "Currency Transaction Structuring", Issuer: "FinCEN", Typology: "Structuring", Jurisdiction: "US", Description: "Pattern designed to evade CTR filing requirements under 31 CFR 1010.314.", RiskWeight: 0.86},
		{ID: "ADV-STR-003", Title: "Structured Wire Transfers", Issuer: "AUSTRAC", Typology: "Structuring", Jurisdiction: "AU", Description: "Multiple small international wire transfers per AUSTRAC SMR guidelines.", RiskWeight: 0.77},

		// Hawala / informal value transfer
		{ID: "ADV-HAW-001", Title: "Informal Value Transfer Systems", Issuer: "RBI / FIU-IND", Typology: "Hawala", Jurisdiction: "IN", Description: "Informal channels bypassing standard banking rails per RBI IVTS 2023.", RiskWeight: 0.95},

		// Smurfing
		{ID: "ADV-SMU-001", Title: "Cuckoo Smurfing", Issuer: "NCA", Typology: "Smurfing", Jurisdiction: "UK", Description: "UK smurfing indicators per NCA-2023-SAR-012.", RiskWeight: 1.0},
		{ID: "ADV-SMU-002", Title: "Multi-Source Fan-In", Issuer: "MAS", Typology: "Smurfing", Jurisdiction: "SG", Description: "SG smurfing patterns per MAS STRO guidance.", RiskWeight: 0.73},

		// Integration
		{ID: "ADV-INT-001", Title: "Real Estate Integration", Issuer: "AMLA", Typology: "Integration", Jurisdiction: "EU", Description: "EU integration patterns per AMLA 6AMLD.", RiskWeight: 0.64},

		// Global fallbacks for the remaining detector labels
		{ID: "ADV-SMU-003", Title: "Smurfing Network Indicators", Issuer: "FATF", Typology: "Smurfing", Jurisdiction: domain.JurisdictionGlobal, Description: "Coordinated small-value deposits across multiple parties per FATF typology report.", RiskWeight: 0.70},
		{ID: "ADV-STR-004", Title: "Threshold Avoidance Patterns", Issuer: "FATF", Typology: "Structuring", Jurisdiction: domain.JurisdictionGlobal, Description: "Repeated amounts marginally below reporting thresholds per FATF guidance.", RiskWeight: 0.72},
		{ID: "ADV-RTR-001", Title: "Round-Tripping Flows", Issuer: "FATF", Typology: "Round_Tripping", Jurisdiction: domain.JurisdictionGlobal, Description: "Funds returning to origin through intermediary hops per FATF trade-based ML study.", RiskWeight: 0.66},
		{ID: "ADV-FUN-001", Title: "Funnel Account Activity", Issuer: "FinCEN", Typology: "Funnel_Account", Jurisdiction: domain.JurisdictionGlobal, Description: "Geographically dispersed deposits with rapid consolidated withdrawals per FIN-2014-A005.", RiskWeight: 0.69},
	}
}
