package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yash-7575/luminasar/internal/audit"
	"github.com/yash-7575/luminasar/internal/detector"
	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/knowledge"
	"github.com/yash-7575/luminasar/internal/narrative"
	"github.com/yash-7575/luminasar/internal/rules"
)

var tracer = otel.Tracer("luminasar-workflow")

// Request identifies one report generation run.
type Request struct {
	CaseID     string `json:"caseId"`
	CustomerID string `json:"customerId,omitempty"`

	// Jurisdiction overrides the process default for this run.
	Jurisdiction string `json:"jurisdiction,omitempty"`

	// Force regenerates even when the case already has a narrative.
	Force bool `json:"force,omitempty"`
}

// Orchestrator drives the pipeline stages in fixed order. Fetch,
// generation, and persistence failures are fatal; enrichment failures
// degrade the run; validation findings are advisory.
type Orchestrator struct {
	repo      domain.Repository
	detector  *detector.Detector
	knowledge *knowledge.Service
	screening *rules.Engine
	generator domain.NarrativeGenerator
	validator domain.NarrativeValidator
	templates domain.TemplateStore

	defaultJurisdiction string
	deploymentEnv       string
	generatorModel      string
}

// Options configures an Orchestrator.
type Options struct {
	Repository domain.Repository
	Detector   *detector.Detector
	Knowledge  *knowledge.Service

	// Screening is optional; a nil engine disables advisory screening.
	Screening *rules.Engine

	Generator domain.NarrativeGenerator
	Validator domain.NarrativeValidator
	Templates domain.TemplateStore

	DefaultJurisdiction string
	DeploymentEnv       string
	GeneratorModel      string
}

// New assembles an orchestrator from its collaborators.
func New(opts Options) *Orchestrator {
	if opts.DefaultJurisdiction == "" {
		opts.DefaultJurisdiction = knowledge.FallbackJurisdiction
	}
	return &Orchestrator{
		repo:                opts.Repository,
		detector:            opts.Detector,
		knowledge:           opts.Knowledge,
		screening:           opts.Screening,
		generator:           opts.Generator,
		validator:           opts.Validator,
		templates:           opts.Templates,
		defaultJurisdiction: opts.DefaultJurisdiction,
		deploymentEnv:       opts.DeploymentEnv,
		generatorModel:      opts.GeneratorModel,
	}
}

// Run executes the full pipeline for one case and returns the completed
// report. Each run gets a fresh audit ledger; the chain is persisted
// atomically with the narrative.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*domain.Report, error) {
	ctx, span := tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(
			attribute.String("case.id", req.CaseID),
			attribute.String("jurisdiction", req.Jurisdiction),
		),
	)
	defer span.End()

	start := time.Now()
	ledger := audit.NewLedger()

	st := &runState{
		state:        StateInit,
		caseID:       req.CaseID,
		customerID:   req.CustomerID,
		jurisdiction: req.Jurisdiction,
	}
	if st.jurisdiction == "" {
		st.jurisdiction = o.defaultJurisdiction
	}

	slog.Info("workflow started", "case_id", req.CaseID, "jurisdiction", st.jurisdiction)

	if !req.Force {
		if report, ok := o.reuseExisting(ctx, st); ok {
			slog.Info("workflow reused existing narrative", "case_id", req.CaseID, "narrative_id", report.NarrativeID)
			return report, nil
		}
	}

	if err := o.fetchData(ctx, st, ledger); err != nil {
		st.state = StateFailed
		return nil, err
	}

	o.analyzePatterns(ctx, st, ledger)

	o.enrichContext(ctx, st, ledger)

	if err := o.generateNarrative(ctx, st, ledger); err != nil {
		st.state = StateFailed
		return nil, err
	}

	o.validateNarrative(ctx, st, ledger)

	if err := o.saveResults(ctx, st, ledger, start); err != nil {
		st.state = StateFailed
		return nil, err
	}

	attribution := audit.CreateSentenceAttribution(st.narrative, st.transactions)

	slog.Info("workflow complete",
		"case_id", st.caseID,
		"narrative_id", st.narrativeID,
		"risk_score", st.patterns.RiskScore,
		"duration_secs", int(time.Since(start).Seconds()),
	)

	return &domain.Report{
		NarrativeID: st.narrativeID,
		CaseID:      st.caseID,
		Narrative:   st.narrative,
		RiskScore:   st.patterns.RiskScore,
		Typologies:  st.patterns.Typologies,
		AuditSteps:  ledger.Len(),
		Warnings:    st.validation.Warnings,
		Errors:      st.validation.Errors,
		Attribution: attribution,
	}, nil
}

// reuseExisting returns the stored report when the case already carries
// a narrative. Regeneration requires an explicit Force.
func (o *Orchestrator) reuseExisting(ctx context.Context, st *runState) (*domain.Report, bool) {
	existing, err := o.repo.FindNarrativeByCase(ctx, st.caseID)
	if err != nil || existing == nil {
		return nil, false
	}

	sarCase, err := o.repo.FindCase(ctx, st.caseID)
	if err != nil {
		return nil, false
	}

	records, _ := o.repo.GetAuditTrail(ctx, existing.ID)

	return &domain.Report{
		NarrativeID: existing.ID,
		CaseID:      st.caseID,
		Narrative:   existing.Text,
		RiskScore:   sarCase.RiskScore,
		Typologies:  sarCase.Typologies,
		AuditSteps:  len(records),
	}, true
}

func (o *Orchestrator) fetchData(ctx context.Context, st *runState, ledger *audit.Ledger) error {
	ctx, span := tracer.Start(ctx, "workflow.fetch_data")
	defer span.End()

	sarCase, err := o.repo.FindCase(ctx, st.caseID)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	if st.customerID == "" {
		st.customerID = sarCase.CustomerID
	}

	customer, err := o.repo.FindCustomer(ctx, st.customerID)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	st.customer = customer

	transactions, err := o.repo.FindTransactions(ctx, st.customerID)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	st.transactions = transactions

	ledger.LogStep("fetch_data",
		map[string]any{"database": "repository"},
		map[string]any{"customer_name": customer.Name},
		map[string]any{"transaction_count": len(transactions)},
		1.0,
	)

	st.state = StateFetched
	return nil
}

func (o *Orchestrator) analyzePatterns(ctx context.Context, st *runState, ledger *audit.Ledger) {
	_, span := tracer.Start(ctx, "workflow.analyze_patterns")
	defer span.End()

	st.patterns = o.detector.Analyze(st.transactions)

	reasoning := map[string]any{"typologies": st.patterns.Typologies}
	if o.screening != nil {
		flags := o.screening.Evaluate(st.patterns)
		if len(flags) > 0 {
			names := make([]string, 0, len(flags))
			for _, f := range flags {
				names = append(names, f.RuleID)
			}
			reasoning["screening_flags"] = names
		}
	}

	ledger.LogStep("analyze_patterns",
		map[string]any{"algorithm": "pattern_detector"},
		reasoning,
		map[string]any{"risk_score": st.patterns.RiskScore},
		0.9,
	)

	st.state = StatePatternsAnalyzed
}

// enrichContext gathers regulatory advisories, graph topology, and
// template snippets. Failure here degrades the run instead of killing
// it: the narrative is generated from pattern data alone and the
// degradation is noted in the generation step's audit record.
func (o *Orchestrator) enrichContext(ctx context.Context, st *runState, ledger *audit.Ledger) {
	ctx, span := tracer.Start(ctx, "workflow.enrich_context")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("context enrichment failed, continuing degraded", "case_id", st.caseID, "error", r)
			st.degraded = append(st.degraded, fmt.Sprintf("enrichment panic: %v", r))
			st.context = domain.TypologyContext{Confidence: 0.3}
			st.state = StateContextEnriched
		}
	}()

	st.context = o.knowledge.GetTypologyContext(st.patterns.Typologies, st.jurisdiction)

	focus := ""
	if st.customer != nil {
		focus = st.customer.AccountNumber
	}
	st.relationship = o.knowledge.AnalyzeRelationships(focus, st.transactions)

	if o.templates != nil {
		st.templates = o.templates.RetrieveTemplates(ctx, st.patterns.Typologies)
		query := fmt.Sprintf("%v risk %.1f", st.patterns.Typologies, st.patterns.RiskScore)
		st.similarCases = o.templates.RetrieveSimilarCases(ctx, query)
	}

	ledger.LogStep("enrich_context",
		map[string]any{"sources": []string{"advisory_registry", "transaction_graph", "template_store"}},
		map[string]any{
			"advisories_matched": len(st.context.Advisories),
			"templates_found":    len(st.templates),
			"similar_cases":      len(st.similarCases),
			"cycles_detected":    st.relationship.CyclesDetected,
		},
		map[string]any{"context_confidence": st.context.Confidence},
		st.context.Confidence,
	)

	st.state = StateContextEnriched
}

func (o *Orchestrator) generateNarrative(ctx context.Context, st *runState, ledger *audit.Ledger) error {
	ctx, span := tracer.Start(ctx, "workflow.generate_narrative")
	defer span.End()

	st.prompt = narrative.BuildPrompt(narrative.PromptInput{
		Customer:      st.customer,
		Transactions:  st.transactions,
		Patterns:      st.patterns,
		Context:       st.context,
		Relationship:  st.relationship,
		Templates:     st.templates,
		SimilarCases:  st.similarCases,
		Jurisdiction:  knowledge.ResolveJurisdiction(st.jurisdiction),
		DeploymentEnv: o.deploymentEnv,
	})

	text, err := o.generator.Generate(ctx, st.prompt, st.jurisdiction)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	st.narrative = text

	reasoning := map[string]any{"context_enriched": len(st.degraded) == 0}
	if len(st.degraded) > 0 {
		reasoning["degraded"] = st.degraded
	}

	ledger.LogStep("generate_narrative",
		map[string]any{"model": o.generatorModel},
		reasoning,
		map[string]any{"narrative_length": len(text)},
		0.85,
	)

	st.state = StateNarrativeDrafted
	return nil
}

func (o *Orchestrator) validateNarrative(ctx context.Context, st *runState, ledger *audit.Ledger) {
	_, span := tracer.Start(ctx, "workflow.validate_narrative")
	defer span.End()

	st.validation = o.validator.Validate(st.narrative, st.transactions, st.customer)

	confidence := 0.95
	if !st.validation.Valid {
		confidence = 0.5
		slog.Warn("narrative validation failed", "case_id", st.caseID, "errors", st.validation.Errors)
	}

	ledger.LogStep("validate_narrative",
		map[string]any{"validator": "rule_based"},
		map[string]any{"valid": st.validation.Valid, "word_count": st.validation.WordCount},
		map[string]any{"errors": st.validation.Errors, "warnings": st.validation.Warnings},
		confidence,
	)

	st.state = StateValidated
}

func (o *Orchestrator) saveResults(ctx context.Context, st *runState, ledger *audit.Ledger, start time.Time) error {
	ctx, span := tracer.Start(ctx, "workflow.save_results")
	defer span.End()

	attribution := audit.CreateSentenceAttribution(st.narrative, st.transactions)
	grounded := 0
	for _, s := range attribution {
		if s.HasDataReference {
			grounded++
		}
	}

	// The save step is logged before persisting so the stored chain
	// includes its own closing record.
	ledger.LogStep("save_results",
		map[string]any{"storage": "repository"},
		map[string]any{
			"chain_valid":        ledger.VerifyChain(),
			"sentences_total":    len(attribution),
			"sentences_grounded": grounded,
		},
		map[string]any{"audit_steps": ledger.Len() + 1},
		1.0,
	)

	record := &domain.Narrative{
		CaseID:         st.caseID,
		Text:           st.narrative,
		GeneratedAt:    time.Now().UTC(),
		GenerationSecs: int(time.Since(start).Seconds()),
	}

	narrativeID, err := o.repo.SaveReport(ctx, st.caseID, record, st.patterns.RiskScore, st.patterns.Typologies, ledger.Records())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	st.narrativeID = narrativeID
	st.state = StateSaved
	return nil
}
