package knowledge

// Jurisdiction describes one supported regulatory regime: the report form
// it expects, the regulator that receives it, and presentation details
// used when assembling evidence for the narrative generator.
type Jurisdiction struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	Regulator       string   `json:"regulator"`
	ReportName      string   `json:"reportName"`
	CurrencySymbol  string   `json:"currencySymbol"`
	FilingThreshold string   `json:"filingThreshold"`
	LegalFramework  string   `json:"legalFramework"`
	Sections        []string `json:"sections"`
}

var jurisdictions = map[string]Jurisdiction{
	"IN": {
		Code:            "IN",
		Name:            "India",
		Regulator:       "FIU-IND",
		ReportName:      "Suspicious Transaction Report (STR)",
		CurrencySymbol:  "₹",
		FilingThreshold: "₹1,000,000",
		LegalFramework:  "Prevention of Money Laundering Act (PMLA)",
		Sections:        []string{"Introduction", "Account Background", "Suspicious Activity Description", "Transaction Analysis", "Conclusion"},
	},
	"US": {
		Code:            "US",
		Name:            "United States",
		Regulator:       "FinCEN",
		ReportName:      "Suspicious Activity Report (SAR)",
		CurrencySymbol:  "$",
		FilingThreshold: "$10,000",
		LegalFramework:  "Bank Secrecy Act (BSA)",
		Sections:        []string{"Introduction", "Subject Information", "Suspicious Activity Narrative", "Transaction Detail", "Conclusion"},
	},
	"UK": {
		Code:            "UK",
		Name:            "United Kingdom",
		Regulator:       "NCA",
		ReportName:      "Suspicious Activity Report (SAR)",
		CurrencySymbol:  "£",
		FilingThreshold: "£10,000",
		LegalFramework:  "Proceeds of Crime Act 2002 (POCA)",
		Sections:        []string{"Introduction", "Subject Background", "Reason for Suspicion", "Transaction Analysis", "Conclusion"},
	},
	"AU": {
		Code:            "AU",
		Name:            "Australia",
		Regulator:       "AUSTRAC",
		ReportName:      "Suspicious Matter Report (SMR)",
		CurrencySymbol:  "A$",
		FilingThreshold: "A$10,000",
		LegalFramework:  "AML/CTF Act 2006",
		Sections:        []string{"Introduction", "Customer Profile", "Grounds for Suspicion", "Transaction Analysis", "Conclusion"},
	},
	"SG": {
		Code:            "SG",
		Name:            "Singapore",
		Regulator:       "STRO",
		ReportName:      "Suspicious Transaction Report (STR)",
		CurrencySymbol:  "S$",
		FilingThreshold: "S$20,000",
		LegalFramework:  "Corruption, Drug Trafficking and Other Serious Crimes Act (CDSA)",
		Sections:        []string{"Introduction", "Customer Profile", "Basis of Suspicion", "Transaction Analysis", "Conclusion"},
	},
	"EU": {
		Code:            "EU",
		Name:            "European Union",
		Regulator:       "AMLA",
		ReportName:      "Suspicious Transaction Report (STR)",
		CurrencySymbol:  "€",
		FilingThreshold: "€15,000",
		LegalFramework:  "EU 6th Anti-Money Laundering Directive (6AMLD)",
		Sections:        []string{"Introduction", "Subject Background", "Suspicious Activity Description", "Transaction Analysis", "Conclusion"},
	},
}

// SupportedJurisdictions lists the supported jurisdiction codes.
func SupportedJurisdictions() []string {
	return []string{"IN", "US", "UK", "AU", "SG", "EU"}
}

// ResolveJurisdiction returns the jurisdiction for code, falling back to
// the default regime when the code is unknown or empty.
func ResolveJurisdiction(code string) Jurisdiction {
	if j, ok := jurisdictions[code]; ok {
		return j
	}
	return jurisdictions[FallbackJurisdiction]
}
