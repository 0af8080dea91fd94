package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yash-7575/luminasar/internal/audit"
	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/knowledge"
	"github.com/yash-7575/luminasar/internal/workflow"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo         domain.Repository
	cache        domain.Cache
	bus          domain.EventBus
	orchestrator *workflow.Orchestrator
	config       *domain.Config
	version      string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, orchestrator *workflow.Orchestrator, cfg *domain.Config, version string) *Handler {
	return &Handler{
		repo:         repo,
		cache:        cache,
		bus:          bus,
		orchestrator: orchestrator,
		config:       cfg,
		version:      version,
	}
}

// GenerateRequest is the request body for POST /sar/generate.
type GenerateRequest struct {
	CaseID       string `json:"caseId"`
	CustomerID   string `json:"customerId,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`

	// ForceRegenerate bypasses narrative reuse.
	ForceRegenerate bool `json:"forceRegenerate,omitempty"`

	// Async queues the run on the event bus instead of blocking.
	Async bool `json:"async,omitempty"`
}

// GenerateResponse is the response for a completed synchronous run.
type GenerateResponse struct {
	NarrativeID    string   `json:"narrativeId"`
	CaseID         string   `json:"caseId"`
	NarrativeText  string   `json:"narrativeText"`
	RiskScore      float64  `json:"riskScore"`
	Typologies     []string `json:"typologies"`
	GenerationSecs int      `json:"generationTimeSeconds"`
	AuditSteps     int      `json:"auditSteps"`
	Warnings       []string `json:"warnings,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}

// GenerateSAR handles POST /sar/generate requests.
func (h *Handler) GenerateSAR(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.CaseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "caseId is required",
		})
		return
	}

	run := workflow.Request{
		CaseID:       req.CaseID,
		CustomerID:   req.CustomerID,
		Jurisdiction: req.Jurisdiction,
		Force:        req.ForceRegenerate,
	}

	if req.Async {
		payload, _ := json.Marshal(run)
		if err := h.bus.Publish(ctx, domain.TopicReportRequested, payload); err != nil {
			slog.Error("failed to queue report request", "case_id", req.CaseID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to queue report request",
			})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "queued",
			"caseId": req.CaseID,
		})
		return
	}

	report, err := h.orchestrator.Run(ctx, run)
	if err != nil {
		if errors.Is(err, domain.ErrCaseNotFound) || errors.Is(err, domain.ErrCustomerNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": err.Error(),
			})
			return
		}
		slog.Error("report generation failed", "case_id", req.CaseID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "report generation failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		NarrativeID:    report.NarrativeID,
		CaseID:         report.CaseID,
		NarrativeText:  report.Narrative,
		RiskScore:      report.RiskScore,
		Typologies:     report.Typologies,
		GenerationSecs: int(time.Since(start).Seconds()),
		AuditSteps:     report.AuditSteps,
		Warnings:       report.Warnings,
		Errors:         report.Errors,
	})
}

// NarrativeResponse is the response for GET /sar/{id}.
type NarrativeResponse struct {
	NarrativeID     string   `json:"narrativeId"`
	CaseID          string   `json:"caseId"`
	NarrativeText   string   `json:"narrativeText"`
	RiskScore       float64  `json:"riskScore"`
	Typologies      []string `json:"typologies"`
	GeneratedAt     string   `json:"generatedAt"`
	GenerationSecs  int      `json:"generationTimeSeconds"`
	CustomerName    string   `json:"customerName,omitempty"`
	CustomerAccount string   `json:"customerAccount,omitempty"`
	Status          string   `json:"status,omitempty"`
}

// GetNarrative retrieves a narrative by ID with its case and customer context.
func (h *Handler) GetNarrative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	narrativeID := chi.URLParam(r, "id")

	n, err := h.repo.GetNarrative(ctx, narrativeID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "narrative not found",
		})
		return
	}

	resp := NarrativeResponse{
		NarrativeID:    n.ID,
		CaseID:         n.CaseID,
		NarrativeText:  n.Text,
		GeneratedAt:    n.GeneratedAt.UTC().Format(time.RFC3339),
		GenerationSecs: n.GenerationSecs,
	}

	if sarCase, err := h.repo.FindCase(ctx, n.CaseID); err == nil {
		resp.RiskScore = sarCase.RiskScore
		resp.Typologies = sarCase.Typologies
		resp.Status = sarCase.Status

		if customer, err := h.repo.FindCustomer(ctx, sarCase.CustomerID); err == nil {
			resp.CustomerName = customer.Name
			resp.CustomerAccount = customer.AccountNumber
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// AuditTrailResponse is the response for GET /sar/{id}/audit.
type AuditTrailResponse struct {
	NarrativeID string               `json:"narrativeId"`
	ChainValid  bool                 `json:"chainValid"`
	Steps       []domain.AuditRecord `json:"steps"`
}

// GetAuditTrail returns the hash-chained audit trail for a narrative,
// re-verifying chain integrity on every read.
func (h *Handler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	narrativeID := chi.URLParam(r, "id")

	records, err := h.repo.GetAuditTrail(ctx, narrativeID)
	if err != nil || len(records) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "audit trail not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, AuditTrailResponse{
		NarrativeID: narrativeID,
		ChainValid:  audit.VerifyRecords(records),
		Steps:       records,
	})
}

// ApproveRequest is the request body for POST /sar/{id}/approve.
type ApproveRequest struct {
	AnalystName string `json:"analystName"`
}

// ApproveSAR marks a narrative's case as approved for filing.
func (h *Handler) ApproveSAR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	narrativeID := chi.URLParam(r, "id")

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	n, err := h.repo.GetNarrative(ctx, narrativeID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "narrative not found",
		})
		return
	}

	sarCase, err := h.repo.FindCase(ctx, n.CaseID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "case not found",
		})
		return
	}

	sarCase.Status = domain.CaseStatusApproved
	if err := h.repo.SaveCase(ctx, sarCase); err != nil {
		slog.Error("failed to approve case", "case_id", sarCase.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to approve case",
		})
		return
	}

	slog.Info("narrative approved", "narrative_id", narrativeID, "case_id", sarCase.ID, "analyst", req.AnalystName)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "SAR approved successfully",
		"narrativeId": narrativeID,
		"status":      domain.CaseStatusApproved,
		"approvedBy":  req.AnalystName,
	})
}

// CaseSummary is one entry in the GET /cases listing.
type CaseSummary struct {
	CaseID          string   `json:"caseId"`
	CustomerName    string   `json:"customerName"`
	CustomerAccount string   `json:"customerAccount"`
	Status          string   `json:"status"`
	RiskScore       float64  `json:"riskScore"`
	Typologies      []string `json:"typologies"`
	CreatedAt       string   `json:"createdAt"`
	HasNarrative    bool     `json:"hasNarrative"`
}

// ListCases returns recent cases enriched with customer details.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	cases, err := h.repo.ListCases(ctx)
	if err != nil {
		slog.Error("failed to list cases", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list cases",
		})
		return
	}

	if len(cases) > limit {
		cases = cases[:limit]
	}

	summaries := make([]CaseSummary, 0, len(cases))
	for _, c := range cases {
		summary := CaseSummary{
			CaseID:          c.ID,
			CustomerName:    "Unknown",
			CustomerAccount: "N/A",
			Status:          c.Status,
			RiskScore:       c.RiskScore,
			Typologies:      c.Typologies,
			CreatedAt:       c.CreatedAt.UTC().Format(time.RFC3339),
		}

		if customer, err := h.repo.FindCustomer(ctx, c.CustomerID); err == nil {
			summary.CustomerName = customer.Name
			summary.CustomerAccount = customer.AccountNumber
		}
		if _, err := h.repo.FindNarrativeByCase(ctx, c.ID); err == nil {
			summary.HasNarrative = true
		}

		summaries = append(summaries, summary)
	}

	writeJSON(w, http.StatusOK, summaries)
}

// StatsResponse is the dashboard overview for GET /stats/overview.
type StatsResponse struct {
	TotalSARs     int     `json:"totalSars"`
	PendingCases  int     `json:"pendingCases"`
	HighRiskCases int     `json:"highRiskCases"`
	AvgGenSeconds float64 `json:"avgGenerationTime"`
}

// GetStats returns aggregate counts over cases and narratives.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cases, err := h.repo.ListCases(ctx)
	if err != nil {
		slog.Error("failed to list cases for stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to compute stats",
		})
		return
	}

	var stats StatsResponse
	var totalSecs int
	for _, c := range cases {
		if c.Status == domain.CaseStatusPending {
			stats.PendingCases++
		}
		if c.RiskScore > 7 {
			stats.HighRiskCases++
		}
		if n, err := h.repo.FindNarrativeByCase(ctx, c.ID); err == nil {
			stats.TotalSARs++
			totalSecs += n.GenerationSecs
		}
	}
	if stats.TotalSARs > 0 {
		stats.AvgGenSeconds = float64(totalSecs) / float64(stats.TotalSARs)
	}

	writeJSON(w, http.StatusOK, stats)
}

// ConfigResponse exposes deployment and jurisdiction settings.
type ConfigResponse struct {
	Jurisdiction           string   `json:"jurisdiction"`
	DeploymentEnv          string   `json:"deploymentEnv"`
	Tier                   string   `json:"tier"`
	SupportedJurisdictions []string `json:"supportedJurisdictions"`
}

// GetConfig returns the active deployment configuration.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{
		Jurisdiction:           h.config.Jurisdiction,
		DeploymentEnv:          h.config.DeploymentEnv,
		Tier:                   string(h.config.Tier),
		SupportedJurisdictions: knowledge.SupportedJurisdictions(),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
