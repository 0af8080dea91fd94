// Package detector converts a raw transaction history into quantitative
// risk signals, typology labels, and a 0-10 risk score.
//
// Analyze is a pure function of its input: identical transaction sets
// produce bit-identical results. Malformed rows (bad amounts, missing
// timestamps) are dropped, never fatal, and any internal failure degrades
// to the all-zero bundle.
package detector

import (
	"log/slog"
	"math"

	"github.com/yash-7575/luminasar/internal/domain"
)

// Config holds the detection constants. The defaults mirror the original
// regulatory calibration; none of them have a documented derivation, so
// they stay configurable rather than inferred.
type Config struct {
	// StructuringThreshold is the CTR reporting threshold in currency units.
	StructuringThreshold float64

	// NearThresholdRatio defines the lower bound of the near-threshold band
	// as a fraction of StructuringThreshold.
	NearThresholdRatio float64

	// SuspicionLikelihood is the structuring likelihood above which the
	// structuring flag trips.
	SuspicionLikelihood float64

	// FanInThreshold / FanOutThreshold are unique-counterparty cutoffs.
	FanInThreshold  int
	FanOutThreshold int

	// HubCentralityThreshold flags hub nodes by normalized degree centrality.
	HubCentralityThreshold float64
}

// DefaultConfig returns the standard detection constants.
func DefaultConfig() Config {
	return Config{
		StructuringThreshold:   50000,
		NearThresholdRatio:     0.90,
		SuspicionLikelihood:    0.30,
		FanInThreshold:         20,
		FanOutThreshold:        20,
		HubCentralityThreshold: 0.5,
	}
}

// Detector runs all pattern detection algorithms over a transaction set.
type Detector struct {
	cfg Config
}

// New creates a detector with the given configuration. Zero-valued fields
// fall back to defaults.
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.StructuringThreshold <= 0 {
		cfg.StructuringThreshold = def.StructuringThreshold
	}
	if cfg.NearThresholdRatio <= 0 {
		cfg.NearThresholdRatio = def.NearThresholdRatio
	}
	if cfg.SuspicionLikelihood <= 0 {
		cfg.SuspicionLikelihood = def.SuspicionLikelihood
	}
	if cfg.FanInThreshold <= 0 {
		cfg.FanInThreshold = def.FanInThreshold
	}
	if cfg.FanOutThreshold <= 0 {
		cfg.FanOutThreshold = def.FanOutThreshold
	}
	if cfg.HubCentralityThreshold <= 0 {
		cfg.HubCentralityThreshold = def.HubCentralityThreshold
	}
	return &Detector{cfg: cfg}
}

// Analyze runs every detection algorithm and assembles the signal bundle.
// An empty input returns the all-zero bundle with no typology labels; the
// general_suspicious fallback applies only to non-empty input.
func (d *Detector) Analyze(transactions []domain.Transaction) (result domain.PatternResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pattern analysis panicked, degrading to zero bundle", "panic", r)
			result = emptyResult()
		}
	}()

	if len(transactions) == 0 {
		return emptyResult()
	}

	result = domain.PatternResult{
		Velocity:    d.analyzeVelocity(transactions),
		Volume:      d.analyzeVolume(transactions),
		Structuring: d.detectStructuring(transactions),
		Network:     d.analyzeNetwork(transactions),
	}
	result.Typologies = d.matchTypologies(result)
	result.RiskScore = d.calculateRiskScore(result)

	slog.Info("pattern analysis complete",
		"risk_score", result.RiskScore,
		"typologies", result.Typologies,
	)

	return result
}

func emptyResult() domain.PatternResult {
	return domain.PatternResult{
		Velocity:   domain.VelocityPattern{Risk: domain.VelocityRiskLow},
		Typologies: []string{},
	}
}

// analyzeVelocity measures how fast money moved. Rows with missing
// timestamps are dropped before the span computation.
func (d *Detector) analyzeVelocity(transactions []domain.Transaction) domain.VelocityPattern {
	var minTS, maxTS int64
	dated := 0
	for _, tx := range transactions {
		if tx.Timestamp.IsZero() {
			continue
		}
		ts := tx.Timestamp.Unix()
		if dated == 0 || ts < minTS {
			minTS = ts
		}
		if dated == 0 || ts > maxTS {
			maxTS = ts
		}
		dated++
	}

	if dated == 0 {
		return domain.VelocityPattern{Risk: domain.VelocityRiskLow}
	}

	spanDays := int((maxTS - minTS) / 86400)
	perDay := float64(len(transactions)) / float64(max(spanDays, 1))

	risk := domain.VelocityRiskLow
	switch {
	case spanDays < 7:
		risk = domain.VelocityRiskHigh
	case spanDays < 30:
		risk = domain.VelocityRiskMedium
	}

	return domain.VelocityPattern{
		TimeSpanDays:       spanDays,
		TransactionsPerDay: round2(perDay),
		Risk:               risk,
	}
}

// analyzeVolume aggregates amounts. Non-finite amounts are excluded.
func (d *Detector) analyzeVolume(transactions []domain.Transaction) domain.VolumePattern {
	var total, maxAmt float64
	valid := 0
	for _, tx := range transactions {
		if !validAmount(tx.Amount) {
			continue
		}
		total += tx.Amount
		if tx.Amount > maxAmt {
			maxAmt = tx.Amount
		}
		valid++
	}

	if valid == 0 {
		return domain.VolumePattern{}
	}

	return domain.VolumePattern{
		TotalAmount:     round2(total),
		AvgAmount:       round2(total / float64(valid)),
		MaxAmount:       round2(maxAmt),
		NumTransactions: len(transactions),
	}
}

// detectStructuring counts amounts deliberately kept just below the
// reporting threshold.
func (d *Detector) detectStructuring(transactions []domain.Transaction) domain.StructuringPattern {
	lower := d.cfg.StructuringThreshold * d.cfg.NearThresholdRatio

	near := 0
	valid := 0
	for _, tx := range transactions {
		if !validAmount(tx.Amount) {
			continue
		}
		valid++
		if tx.Amount >= lower && tx.Amount < d.cfg.StructuringThreshold {
			near++
		}
	}

	if valid == 0 {
		return domain.StructuringPattern{}
	}

	likelihood := float64(near) / float64(valid)

	return domain.StructuringPattern{
		NearThresholdCount: near,
		Likelihood:         round3(likelihood),
		Suspicious:         likelihood > d.cfg.SuspicionLikelihood,
	}
}

// analyzeNetwork builds the directed account graph and inspects its shape.
// Degree centrality of a node is (in-neighbors + out-neighbors) / (n - 1).
func (d *Detector) analyzeNetwork(transactions []domain.Transaction) domain.NetworkPattern {
	out := make(map[string]map[string]bool)
	in := make(map[string]map[string]bool)
	sources := make(map[string]bool)
	destinations := make(map[string]bool)
	edges := 0

	for _, tx := range transactions {
		src := tx.SourceAccount
		dst := tx.DestinationAccount
		if src == "" {
			src = "unknown"
		} else {
			sources[tx.SourceAccount] = true
		}
		if dst == "" {
			dst = "unknown"
		} else {
			destinations[tx.DestinationAccount] = true
		}

		if out[src] == nil {
			out[src] = make(map[string]bool)
		}
		if !out[src][dst] {
			out[src][dst] = true
			edges++
		}
		if in[dst] == nil {
			in[dst] = make(map[string]bool)
		}
		in[dst][src] = true
		if out[dst] == nil {
			out[dst] = make(map[string]bool)
		}
		if in[src] == nil {
			in[src] = make(map[string]bool)
		}
	}

	nodes := len(out)
	hub := false
	if nodes > 1 {
		for node := range out {
			degree := float64(len(out[node]) + len(in[node]))
			if degree/float64(nodes-1) > d.cfg.HubCentralityThreshold {
				hub = true
				break
			}
		}
	}

	return domain.NetworkPattern{
		UniqueSources:      len(sources),
		UniqueDestinations: len(destinations),
		FanInHigh:          len(sources) > d.cfg.FanInThreshold,
		FanOutHigh:         len(destinations) > d.cfg.FanOutThreshold,
		HubDetected:        hub,
		TotalNodes:         nodes,
		TotalEdges:         edges,
	}
}

// matchTypologies maps the signal bundle to typology labels. Checks are
// independent and may co-occur; the order below is fixed and matters only
// for how the labels render, not for scoring.
func (d *Detector) matchTypologies(p domain.PatternResult) []string {
	typologies := []string{}

	// Layering: rapid movement through many distinct sources.
	if p.Velocity.TimeSpanDays < 7 && p.Network.UniqueSources > 5 {
		typologies = append(typologies, domain.TypologyLayering)
	}

	// Structuring: clustering just below the reporting threshold.
	if p.Structuring.Suspicious {
		typologies = append(typologies, domain.TypologyStructuring)
	}

	// Smurfing: many unique sources feeding in.
	if p.Network.UniqueSources > 15 {
		typologies = append(typologies, domain.TypologySmurfing)
	}

	// Integration: large volume moved in a short window.
	if p.Volume.TotalAmount > 5000000 && p.Velocity.TimeSpanDays < 14 {
		typologies = append(typologies, domain.TypologyIntegration)
	}

	// Round-tripping: high fan-in and fan-out together.
	if p.Network.FanInHigh && p.Network.FanOutHigh {
		typologies = append(typologies, domain.TypologyRoundTripping)
	}

	// Funnel account: a hub node dominates the graph.
	if p.Network.HubDetected {
		typologies = append(typologies, domain.TypologyFunnelAccount)
	}

	if len(typologies) == 0 {
		typologies = append(typologies, domain.TypologyGeneralSuspicious)
	}

	return typologies
}

// calculateRiskScore sums the four weighted point components, divides by
// ten, rounds to one decimal, and clamps to [0, 10].
func (d *Detector) calculateRiskScore(p domain.PatternResult) float64 {
	var score float64

	// Velocity (0-30 points), first matching branch wins.
	switch {
	case p.Velocity.TimeSpanDays < 7:
		score += 30
	case p.Velocity.TimeSpanDays < 30:
		score += 15
	case p.Velocity.TransactionsPerDay > 5:
		score += 10
	}

	// Volume (0-25 points).
	switch {
	case p.Volume.TotalAmount > 10000000:
		score += 25
	case p.Volume.TotalAmount > 5000000:
		score += 18
	case p.Volume.TotalAmount > 1000000:
		score += 10
	}

	// Structuring (0-25 points).
	score += p.Structuring.Likelihood * 25

	// Network (0-20 points).
	if p.Network.FanInHigh || p.Network.FanOutHigh {
		score += 15
	}
	if p.Network.HubDetected {
		score += 5
	}

	return math.Min(round1(score/10), 10.0)
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
