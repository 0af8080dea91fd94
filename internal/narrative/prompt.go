package narrative

import (
	"fmt"
	"strings"

	"github.com/yash-7575/luminasar/internal/audit"
	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/knowledge"
)

// maxPromptTransactions caps the transaction listing inside the prompt;
// beyond this the listing is summarized with a remainder line.
const maxPromptTransactions = 25

// PromptInput carries everything the prompt builder embeds. All figures
// come from upstream pipeline stages; the builder only formats.
type PromptInput struct {
	Customer      *domain.Customer
	Transactions  []domain.Transaction
	Patterns      domain.PatternResult
	Context       domain.TypologyContext
	Relationship  domain.RelationshipAnalysis
	Templates     []string
	SimilarCases  []string
	Jurisdiction  knowledge.Jurisdiction
	DeploymentEnv string
}

// BuildPrompt assembles the grounded generation prompt. Every number in
// the prompt is taken verbatim from the source data so the generator has
// nothing to invent.
func BuildPrompt(in PromptInput) string {
	j := in.Jurisdiction
	cur := j.CurrencySymbol

	var b strings.Builder

	fmt.Fprintf(&b, "You are a senior bank compliance analyst writing a %s for regulatory submission to %s in a %s environment.\n\n",
		j.ReportName, j.Regulator, deploymentEnv(in.DeploymentEnv))

	b.WriteString("**CRITICAL INSTRUCTIONS:**\n")
	b.WriteString("- Use ONLY the data provided below. DO NOT invent any amounts, dates, or account numbers.\n")
	b.WriteString("- Every number you write MUST appear in the source data.\n")
	fmt.Fprintf(&b, "- Follow the regulatory format strictly for the %s jurisdiction.\n", j.Code)
	b.WriteString("- Cite specific transaction details when describing activity.\n")
	fmt.Fprintf(&b, "- Write in formal regulatory language compliant with the %s.\n", j.LegalFramework)
	fmt.Fprintf(&b, "- Use %s for all financial amounts.\n", cur)
	fmt.Fprintf(&b, "- This report will be filed as a %s.\n\n", j.ReportName)

	b.WriteString("**CUSTOMER INFORMATION:**\n")
	writeCustomer(&b, in.Customer, cur)
	b.WriteString("\n")

	fmt.Fprintf(&b, "**TRANSACTION SUMMARY (%d transactions):**\n", len(in.Transactions))
	writeTransactions(&b, in.Transactions, cur)
	b.WriteString("\n")

	p := in.Patterns
	b.WriteString("**DETECTED PATTERNS:**\n")
	fmt.Fprintf(&b, "- Risk Score: %.1f/10\n", p.RiskScore)
	fmt.Fprintf(&b, "- Detected Typologies: %s\n", strings.Join(p.Typologies, ", "))
	fmt.Fprintf(&b, "- Velocity: %d days span, %.2f transactions/day (%s risk)\n",
		p.Velocity.TimeSpanDays, p.Velocity.TransactionsPerDay, p.Velocity.Risk)
	fmt.Fprintf(&b, "- Total Amount: %s%s\n", cur, audit.GroupedAmount(p.Volume.TotalAmount))
	fmt.Fprintf(&b, "- Average Amount: %s%s\n", cur, audit.GroupedAmount(p.Volume.AvgAmount))
	fmt.Fprintf(&b, "- Unique Source Accounts: %d\n", p.Network.UniqueSources)
	fmt.Fprintf(&b, "- Unique Destination Accounts: %d\n", p.Network.UniqueDestinations)
	fmt.Fprintf(&b, "- Structuring Likelihood: %.1f%%\n", p.Structuring.Likelihood*100)
	fmt.Fprintf(&b, "- Near-Threshold Transactions: %d (Filing threshold: %s)\n\n",
		p.Structuring.NearThresholdCount, j.FilingThreshold)

	b.WriteString("**REGULATORY EVIDENCE:**\n")
	b.WriteString(in.Context.EvidenceText)
	b.WriteString("\n\n")

	b.WriteString("**KNOWLEDGE GRAPH EVIDENCE:**\n")
	writeRelationship(&b, in.Relationship)
	b.WriteString("\n")

	b.WriteString("**REFERENCE TEMPLATES:**\n")
	writeList(&b, in.Templates, "No templates available.")
	b.WriteString("\n")

	b.WriteString("**SIMILAR HISTORICAL CASES:**\n")
	writeList(&b, in.SimilarCases, "No similar cases found.")
	b.WriteString("\n")

	b.WriteString("**YOUR TASK:**\n")
	fmt.Fprintf(&b, "Write a complete %s narrative formatted with these jurisdictional sections required by %s:\n\n", j.ReportName, j.Regulator)
	for _, section := range j.Sections {
		fmt.Fprintf(&b, "- %s\n", section)
	}
	b.WriteString("\n")

	b.WriteString("**NARRATIVE REQUIREMENTS:**\n")
	b.WriteString("- Length: 3-4 paragraphs, 400-600 words.\n")
	fmt.Fprintf(&b, "- Tone: Formal, professional regulatory language compliant with the %s.\n", j.LegalFramework)
	b.WriteString("- Suspicion: Explain why the activity is suspicious based on the source data.\n")
	fmt.Fprintf(&b, "- Knowledge Graph Insight: %s Must be integrated into the relevant section.\n", in.Context.InsightText)
	fmt.Fprintf(&b, "- Thresholds: Reference the %s limit when discussing structuring.\n\n", j.FilingThreshold)

	b.WriteString("Write in a factual and specific manner. Reference actual data points.")

	return b.String()
}

func writeCustomer(b *strings.Builder, c *domain.Customer, cur string) {
	if c == nil {
		b.WriteString("Name: Unknown\nAccount Number: N/A\n")
		return
	}
	fmt.Fprintf(b, "Name: %s\n", orNA(c.Name))
	fmt.Fprintf(b, "Account Number: %s\n", orNA(c.AccountNumber))
	fmt.Fprintf(b, "Occupation: %s\n", orNA(c.Occupation))
	if c.CustomerSince != nil {
		fmt.Fprintf(b, "Customer Since: %s\n", c.CustomerSince.Format("2006-01-02"))
	} else {
		b.WriteString("Customer Since: N/A\n")
	}
	if c.StatedIncome > 0 {
		fmt.Fprintf(b, "Stated Income: %s%s\n", cur, audit.GroupedAmount(c.StatedIncome))
	} else {
		b.WriteString("Stated Income: N/A\n")
	}
}

func writeTransactions(b *strings.Builder, txns []domain.Transaction, cur string) {
	limit := len(txns)
	if limit > maxPromptTransactions {
		limit = maxPromptTransactions
	}
	for _, t := range txns[:limit] {
		date := "N/A"
		if !t.Timestamp.IsZero() {
			date = t.Timestamp.Format("2006-01-02")
		}
		txType := t.Type
		if txType == "" {
			txType = "unknown"
		}
		fmt.Fprintf(b, "  - %s%s on %s from %s to %s (%s)\n",
			cur, audit.GroupedAmount(t.Amount), date,
			orNA(t.SourceAccount), orNA(t.DestinationAccount), txType)
	}
	if len(txns) > maxPromptTransactions {
		fmt.Fprintf(b, "  ... and %d more transactions\n", len(txns)-maxPromptTransactions)
	}
}

func writeRelationship(b *strings.Builder, r domain.RelationshipAnalysis) {
	if r.Summary != "" {
		b.WriteString(r.Summary)
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "Centrality: %.3f across %d nodes and %d edges.\n", r.CentralityScore, r.NumNodes, r.NumEdges)
	if r.CyclesDetected > 0 {
		fmt.Fprintf(b, "Circular flows detected: %d (risk amplification %.2fx).\n", r.CyclesDetected, r.RiskAmplificationFactor)
	}
}

func writeList(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		b.WriteString(empty)
		b.WriteString("\n")
		return
	}
	for _, item := range items {
		b.WriteString(item)
		b.WriteString("\n")
	}
}

func deploymentEnv(env string) string {
	if env == "" {
		return "production"
	}
	return env
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
