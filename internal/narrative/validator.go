package narrative

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/yash-7575/luminasar/internal/domain"
)

// genericPhrases are assistant-style refusals that indicate the generator
// produced boilerplate instead of a report. Any of them is a hard error.
var genericPhrases = []string{"I cannot", "I'm sorry", "As an AI"}

// requiredSections are the structural keywords a usable report mentions.
// Fewer than two present is only a warning: validation is advisory.
var requiredSections = []string{"activity", "transaction", "suspicious"}

// groupedAmountPattern matches currency-grouped figures like 48,000.00.
// Plain small integers are deliberately not matched; cross-checking every
// bare number would drown the result in false positives.
var groupedAmountPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?`)

const minNarrativeWords = 100

// Validator performs structural and grounding checks on generated text.
// It implements domain.NarrativeValidator.
type Validator struct{}

// NewValidator returns the default narrative validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate cross-checks the narrative against its source data. Errors
// mean the text is unusable (too short, generator refusal); warnings
// flag weaker grounding issues. The caller records both and proceeds.
func (v *Validator) Validate(narrative string, transactions []domain.Transaction, customer *domain.Customer) domain.ValidationResult {
	var errors, warnings []string

	if customer != nil {
		if customer.Name != "" && !strings.Contains(narrative, customer.Name) {
			warnings = append(warnings, fmt.Sprintf("customer name %q not found in narrative", customer.Name))
		}
		if customer.AccountNumber != "" && !strings.Contains(narrative, customer.AccountNumber) {
			warnings = append(warnings, "customer account number not referenced in narrative")
		}
	}

	wordCount := len(strings.Fields(narrative))
	if wordCount < minNarrativeWords {
		errors = append(errors, fmt.Sprintf("narrative too short (%d words, minimum %d)", wordCount, minNarrativeWords))
	}

	lower := strings.ToLower(narrative)
	for _, phrase := range genericPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			errors = append(errors, fmt.Sprintf("narrative contains generic AI response: %q", phrase))
		}
	}

	sectionsFound := 0
	for _, section := range requiredSections {
		if strings.Contains(lower, section) {
			sectionsFound++
		}
	}
	if sectionsFound < 2 {
		warnings = append(warnings, "narrative may be missing key report sections")
	}

	warnings = append(warnings, v.checkAmounts(narrative, transactions)...)

	return domain.ValidationResult{
		Valid:         len(errors) == 0,
		Errors:        errors,
		Warnings:      warnings,
		WordCount:     wordCount,
		SectionsFound: sectionsFound,
	}
}

// checkAmounts flags grouped figures in the narrative that match neither
// an individual transaction nor the running total. Matching uses a one
// currency-unit tolerance; figures at or below 1000 are ignored.
func (v *Validator) checkAmounts(narrative string, transactions []domain.Transaction) []string {
	if len(transactions) == 0 {
		return nil
	}

	source := make([]float64, 0, len(transactions)+1)
	var total float64
	for _, t := range transactions {
		source = append(source, t.Amount)
		total += t.Amount
	}
	source = append(source, total)

	var warnings []string
	for _, match := range groupedAmountPattern.FindAllString(narrative, -1) {
		value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
		if err != nil || value <= 1000 {
			continue
		}
		matched := false
		for _, src := range source {
			if math.Abs(value-src) < 1.0 {
				matched = true
				break
			}
		}
		if !matched {
			warnings = append(warnings, fmt.Sprintf("amount %s not found in source data", match))
		}
	}
	return warnings
}
