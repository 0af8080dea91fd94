package narrative

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/yash-7575/luminasar/internal/domain"
)

// templateCacheTTL bounds how long retrieved template sets stay cached.
const templateCacheTTL = 30 * time.Minute

// StaticTemplateStore serves built-in regulatory phrasing templates keyed
// by typology, plus a small corpus of anonymized exemplar cases. It is
// the default store; a retrieval-augmented backend can replace it behind
// the same interface.
type StaticTemplateStore struct{}

// NewStaticTemplateStore returns the built-in template store.
func NewStaticTemplateStore() *StaticTemplateStore {
	return &StaticTemplateStore{}
}

var typologyTemplates = map[string]string{
	domain.TypologyStructuring:   "Template (structuring): The subject conducted multiple transactions in amounts just below the regulatory reporting threshold, a pattern consistent with deliberate structuring to evade detection.",
	domain.TypologyLayering:      "Template (layering): Funds were moved rapidly through a series of accounts with no apparent business purpose, consistent with the layering stage of money laundering.",
	domain.TypologySmurfing:      "Template (smurfing): Numerous small-value deposits from multiple originators were aggregated into a single account, consistent with the use of money mules.",
	domain.TypologyIntegration:   "Template (integration): Large consolidated transfers followed a period of fragmented activity, consistent with re-introducing illicit funds into the legitimate economy.",
	domain.TypologyRoundTripping: "Template (round-tripping): Funds returned to their originating account after passing through intermediary accounts, a circular flow with no economic rationale.",
	domain.TypologyFunnelAccount: "Template (funnel account): Deposits from geographically or relationally diverse sources were rapidly withdrawn or forwarded, consistent with funnel account activity.",
}

var exemplarCases = []string{
	"Exemplar: A retail customer received 18 transfers of 48,500 each over six days from unrelated counterparties; filed as structuring with funnel characteristics.",
	"Exemplar: A shell entity cycled funds through three accounts and back within 48 hours; filed as layering with round-tripping indicators.",
	"Exemplar: A salaried individual with stated income of 600,000 annually moved 4,100,000 in one month; filed on income-activity mismatch.",
}

// RetrieveTemplates returns the phrasing templates for the detected
// typologies. Unknown labels are skipped; an empty result is valid and
// the prompt builder substitutes default text.
func (s *StaticTemplateStore) RetrieveTemplates(ctx context.Context, typologies []string) []string {
	var out []string
	for _, typology := range typologies {
		if tpl, ok := typologyTemplates[strings.ToLower(typology)]; ok {
			out = append(out, tpl)
		}
	}
	return out
}

// RetrieveSimilarCases returns exemplar case summaries ranked by naive
// keyword overlap with the query. Retrieval quality is best-effort;
// grounding correctness comes from the prompt's source data, not from
// these exemplars.
func (s *StaticTemplateStore) RetrieveSimilarCases(ctx context.Context, query string) []string {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return nil
	}

	type scored struct {
		text  string
		score int
	}
	var matches []scored
	for _, exemplar := range exemplarCases {
		lower := strings.ToLower(exemplar)
		score := 0
		for _, term := range queryTerms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{exemplar, score})
		}
	}

	// Insertion sort by score desc; the corpus is tiny.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].score > matches[j-1].score; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.text)
	}
	return out
}

// CachedTemplateStore wraps a TemplateStore with a cache layer so
// repeated runs over the same typology set skip retrieval. Cache
// failures fall through to the inner store.
type CachedTemplateStore struct {
	inner domain.TemplateStore
	cache domain.Cache
}

// NewCachedTemplateStore wraps inner with cache.
func NewCachedTemplateStore(inner domain.TemplateStore, cache domain.Cache) *CachedTemplateStore {
	return &CachedTemplateStore{inner: inner, cache: cache}
}

func (s *CachedTemplateStore) RetrieveTemplates(ctx context.Context, typologies []string) []string {
	key := "templates:" + strings.Join(typologies, ",")
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != nil {
		var out []string
		if json.Unmarshal(cached, &out) == nil {
			return out
		}
	}

	out := s.inner.RetrieveTemplates(ctx, typologies)
	if raw, err := json.Marshal(out); err == nil {
		_ = s.cache.Set(ctx, key, raw, templateCacheTTL)
	}
	return out
}

func (s *CachedTemplateStore) RetrieveSimilarCases(ctx context.Context, query string) []string {
	return s.inner.RetrieveSimilarCases(ctx, query)
}
