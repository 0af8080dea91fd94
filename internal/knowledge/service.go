package knowledge

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/yash-7575/luminasar/internal/domain"
)

// Fallback texts used when no advisory matches.
const (
	noAdvisoryEvidence = "No specific regulatory advisories matched for these typologies."
	noAdvisoryInsight  = "No specific graph-mapped typologies detected beyond flat vector similarity."
)

// Service resolves typology labels to regulatory context and analyzes the
// transaction network around a focus account. The advisory registry is
// immutable after construction, so a single Service is safe to share
// across concurrent workflow runs.
type Service struct {
	registry []domain.RegulatoryAdvisory
}

// NewService creates a knowledge service with the built-in registry.
func NewService() *Service {
	return &Service{registry: defaultRegistry()}
}

// NewServiceWithRegistry creates a knowledge service over a custom registry.
func NewServiceWithRegistry(registry []domain.RegulatoryAdvisory) *Service {
	return &Service{registry: registry}
}

// GetTypologyContext returns ranked advisories and rendered evidence for
// the given typologies. Matching policy, in priority order:
//
//  1. advisories in the requested jurisdiction,
//  2. if none and the request wasn't the fallback jurisdiction, retry
//     against the fallback,
//  3. always append Global advisories for the requested typologies,
//     deduplicated.
//
// The final list sorts descending by risk weight; prose renders the top
// three, while confidence scales with the full matched set.
func (s *Service) GetTypologyContext(typologies []string, jurisdiction string) domain.TypologyContext {
	wanted := make(map[string]bool, len(typologies))
	for _, t := range typologies {
		wanted[strings.ToLower(t)] = true
	}

	var matched []domain.RegulatoryAdvisory
	seen := make(map[string]bool)

	appendMatches := func(jur string) {
		for _, adv := range s.registry {
			if !wanted[strings.ToLower(adv.Typology)] || seen[adv.ID] {
				continue
			}
			if adv.Jurisdiction == jur {
				matched = append(matched, adv)
				seen[adv.ID] = true
			}
		}
	}

	appendMatches(jurisdiction)
	if len(matched) == 0 && jurisdiction != FallbackJurisdiction {
		appendMatches(FallbackJurisdiction)
	}
	appendMatches(domain.JurisdictionGlobal)

	// Stable sort, descending by risk weight.
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j].RiskWeight > matched[j-1].RiskWeight; j-- {
			matched[j], matched[j-1] = matched[j-1], matched[j]
		}
	}

	if len(matched) == 0 {
		return domain.TypologyContext{
			Advisories:   []domain.RegulatoryAdvisory{},
			EvidenceText: noAdvisoryEvidence,
			InsightText:  noAdvisoryInsight,
			Confidence:   0.3,
		}
	}

	top := matched
	if len(top) > 3 {
		top = top[:3]
	}

	lines := make([]string, 0, len(top))
	for _, adv := range top {
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s", adv.ID, adv.Typology, adv.Description))
	}

	confidence := math.Min(0.6+float64(len(matched))*0.1, 0.95)

	return domain.TypologyContext{
		Advisories:   top,
		EvidenceText: strings.Join(lines, "\n"),
		InsightText:  fmt.Sprintf("Found %d regulatory pattern matches.", len(matched)),
		Confidence:   math.Round(confidence*100) / 100,
	}
}

// AnalyzeRelationships builds the directed account graph and inspects the
// topology around the focus account. A focus absent from the graph, an
// empty transaction set, or any internal failure (including a blown cycle
// enumeration budget) yields the neutral result rather than an error.
func (s *Service) AnalyzeRelationships(focusAccount string, transactions []domain.Transaction) domain.RelationshipAnalysis {
	if len(transactions) == 0 {
		return neutralAnalysis(focusAccount)
	}

	g := NewDiGraph()
	for _, tx := range transactions {
		src := tx.SourceAccount
		dst := tx.DestinationAccount
		if src == "" {
			src = "unknown"
		}
		if dst == "" {
			dst = "unknown"
		}
		g.AddEdge(src, dst, tx.Amount)
	}

	if !g.HasNode(focusAccount) {
		return neutralAnalysis(focusAccount)
	}

	centrality := g.DegreeCentrality(focusAccount)
	components := g.WeaklyConnectedComponents()

	cycles, err := g.CyclesThrough(focusAccount, 8, 64)
	if err != nil {
		slog.Warn("graph analysis degraded to neutral result",
			"account", focusAccount,
			"error", err,
		)
		return neutralAnalysis(focusAccount)
	}

	amplification := 1.0
	if cycles > 0 {
		amplification += 0.15 * float64(min(cycles, 5))
	}
	if centrality >= 0.6 {
		amplification += 0.1
	}

	summary := fmt.Sprintf("Node %s has centrality %.3f across %d nodes.", focusAccount, centrality, g.NodeCount())
	if cycles > 0 {
		summary += fmt.Sprintf(" Detected %d transaction cycle(s) involving this account.", cycles)
	} else {
		summary += " No direct transaction cycles detected for this account."
	}

	return domain.RelationshipAnalysis{
		Summary:                 summary,
		CentralityScore:         math.Round(centrality*1000) / 1000,
		NumNodes:                g.NodeCount(),
		NumEdges:                g.EdgeCount(),
		NumComponents:           components,
		CyclesDetected:          cycles,
		RiskAmplificationFactor: math.Round(amplification*100) / 100,
	}
}

func neutralAnalysis(focusAccount string) domain.RelationshipAnalysis {
	return domain.RelationshipAnalysis{
		Summary:                 fmt.Sprintf("Node %s shows default connectivity.", focusAccount),
		CentralityScore:         0.0,
		RiskAmplificationFactor: 1.0,
	}
}
