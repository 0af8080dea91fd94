package audit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yash-7575/luminasar/internal/domain"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// CreateSentenceAttribution maps each narrative sentence back to the
// transactions it cites. The narrative splits on sentence-ending
// punctuation; each sentence is scanned for a transaction ID prefix
// (first 8 characters), a verbatim formatted amount, or either account
// identifier. Matching is purely literal, so paraphrased figures are
// expected to show up without evidence.
func CreateSentenceAttribution(narrative string, transactions []domain.Transaction) []domain.SentenceEvidence {
	var sentences []string
	for _, frag := range sentenceSplit.Split(narrative, -1) {
		if s := strings.TrimSpace(frag); s != "" {
			sentences = append(sentences, s)
		}
	}

	attribution := make([]domain.SentenceEvidence, 0, len(sentences))

	for i, sentence := range sentences {
		evidence := domain.SentenceEvidence{
			Position:       i,
			Text:           sentence,
			TransactionIDs: []string{},
			Amounts:        []float64{},
			Accounts:       []string{},
		}

		for _, tx := range transactions {
			if len(tx.ID) >= 8 && strings.Contains(sentence, tx.ID[:8]) {
				evidence.TransactionIDs = append(evidence.TransactionIDs, tx.ID)
			}

			if amountMentioned(sentence, tx.Amount) {
				evidence.Amounts = append(evidence.Amounts, tx.Amount)
			}

			if tx.SourceAccount != "" && strings.Contains(sentence, tx.SourceAccount) {
				evidence.Accounts = append(evidence.Accounts, tx.SourceAccount)
			}
			if tx.DestinationAccount != "" && strings.Contains(sentence, tx.DestinationAccount) {
				evidence.Accounts = append(evidence.Accounts, tx.DestinationAccount)
			}
		}

		evidence.HasDataReference = len(evidence.TransactionIDs) > 0 ||
			len(evidence.Amounts) > 0 ||
			len(evidence.Accounts) > 0

		attribution = append(attribution, evidence)
	}

	return attribution
}

// amountMentioned checks both the plain decimal rendering ("48000") and
// the grouped two-decimal rendering ("48,000.00") the prompt uses.
func amountMentioned(sentence string, amount float64) bool {
	if amount == 0 {
		return false
	}
	plain := strconv.FormatFloat(amount, 'f', -1, 64)
	if strings.Contains(sentence, plain) {
		return true
	}
	return strings.Contains(sentence, GroupedAmount(amount))
}

// GroupedAmount renders an amount with thousands separators and two
// decimals, matching the transaction lines embedded in the prompt.
func GroupedAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)

	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	grouped := b.String() + frac
	if neg {
		return "-" + grouped
	}
	return grouped
}
