package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yash-7575/luminasar/internal/bus"
	"github.com/yash-7575/luminasar/internal/cache"
	"github.com/yash-7575/luminasar/internal/detector"
	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/knowledge"
	"github.com/yash-7575/luminasar/internal/narrative"
	"github.com/yash-7575/luminasar/internal/workflow"
)

// apiRepo is an in-memory domain.Repository for handler tests.
type apiRepo struct {
	customers  map[string]*domain.Customer
	txns       map[string][]domain.Transaction
	cases      map[string]*domain.SARCase
	narratives map[string]*domain.Narrative
	trails     map[string][]domain.AuditRecord
	saves      int
}

func newAPIRepo() *apiRepo {
	return &apiRepo{
		customers:  make(map[string]*domain.Customer),
		txns:       make(map[string][]domain.Transaction),
		cases:      make(map[string]*domain.SARCase),
		narratives: make(map[string]*domain.Narrative),
		trails:     make(map[string][]domain.AuditRecord),
	}
}

func (r *apiRepo) FindCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	if c, ok := r.customers[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *apiRepo) FindTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	return r.txns[customerID], nil
}

func (r *apiRepo) FindCase(ctx context.Context, id string) (*domain.SARCase, error) {
	if c, ok := r.cases[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCaseNotFound
}

func (r *apiRepo) ListCases(ctx context.Context) ([]domain.SARCase, error) {
	out := make([]domain.SARCase, 0, len(r.cases))
	for _, c := range r.cases {
		out = append(out, *c)
	}
	return out, nil
}

func (r *apiRepo) FindNarrativeByCase(ctx context.Context, caseID string) (*domain.Narrative, error) {
	for _, n := range r.narratives {
		if n.CaseID == caseID {
			return n, nil
		}
	}
	return nil, domain.ErrNarrativeNotFound
}

func (r *apiRepo) GetNarrative(ctx context.Context, id string) (*domain.Narrative, error) {
	if n, ok := r.narratives[id]; ok {
		return n, nil
	}
	return nil, domain.ErrNarrativeNotFound
}

func (r *apiRepo) GetAuditTrail(ctx context.Context, narrativeID string) ([]domain.AuditRecord, error) {
	return r.trails[narrativeID], nil
}

func (r *apiRepo) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *apiRepo) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	r.txns[tx.CustomerID] = append(r.txns[tx.CustomerID], *tx)
	return nil
}

func (r *apiRepo) SaveCase(ctx context.Context, c *domain.SARCase) error {
	r.cases[c.ID] = c
	return nil
}

func (r *apiRepo) SaveReport(ctx context.Context, caseID string, n *domain.Narrative, riskScore float64, typologies []string, records []domain.AuditRecord) (string, error) {
	r.saves++
	id := fmt.Sprintf("narr-%d", r.saves)
	n.ID = id
	r.narratives[id] = n
	r.trails[id] = records
	if c, ok := r.cases[caseID]; ok {
		c.RiskScore = riskScore
		c.Typologies = typologies
		c.Status = domain.CaseStatusDrafted
	}
	return id, nil
}

func (r *apiRepo) Ping(ctx context.Context) error { return nil }
func (r *apiRepo) Close() error                   { return nil }

type cannedGenerator struct{ text string }

func (g *cannedGenerator) Generate(ctx context.Context, prompt, jurisdiction string) (string, error) {
	return g.text, nil
}

func testNarrativeText() string {
	base := "Rajesh Kumar, holder of account ACC-778899, conducted suspicious transaction activity totaling 960,000.00 across twenty transfers. "
	return base + strings.Repeat("The activity pattern was reviewed against the customer profile and historical transaction records in detail. ", 10)
}

func seedRepo(repo *apiRepo) {
	repo.customers["CUST-001"] = &domain.Customer{
		ID:            "CUST-001",
		Name:          "Rajesh Kumar",
		AccountNumber: "ACC-778899",
	}
	repo.cases["CASE-001"] = &domain.SARCase{
		ID:         "CASE-001",
		CustomerID: "CUST-001",
		Status:     domain.CaseStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	var txns []domain.Transaction
	for i := 0; i < 20; i++ {
		txns = append(txns, domain.Transaction{
			ID:                 fmt.Sprintf("tx-%04d", i),
			CustomerID:         "CUST-001",
			Amount:             48000,
			Timestamp:          base.Add(time.Duration(i%5) * 24 * time.Hour),
			SourceAccount:      fmt.Sprintf("SRC-%d", i%6),
			DestinationAccount: "ACC-778899",
			Type:               "transfer",
		})
	}
	repo.txns["CUST-001"] = txns
}

// createTestServer builds a server over in-memory backing services.
func createTestServer(repo *apiRepo, eventBus domain.EventBus) *Server {
	cfg := domain.DefaultConfig()
	cfg.DeploymentEnv = "test"

	memCache := cache.NewLRUCache(100)

	orchestrator := workflow.New(workflow.Options{
		Repository:          repo,
		Detector:            detector.New(detector.Config{}),
		Knowledge:           knowledge.NewService(),
		Generator:           &cannedGenerator{text: testNarrativeText()},
		Validator:           narrative.NewValidator(),
		Templates:           narrative.NewStaticTemplateStore(),
		DefaultJurisdiction: cfg.Jurisdiction,
		DeploymentEnv:       cfg.DeploymentEnv,
		GeneratorModel:      "llama3.2",
	})

	return NewServer(cfg, repo, memCache, eventBus, orchestrator, "test-v1")
}

func TestGenerateEndpoint(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	t.Run("SuccessfulGeneration", func(t *testing.T) {
		repo := newAPIRepo()
		seedRepo(repo)
		server := createTestServer(repo, eventBus)

		body, _ := json.Marshal(GenerateRequest{CaseID: "CASE-001"})
		req := httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp GenerateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.NarrativeID == "" {
			t.Error("expected narrativeId in response")
		}
		if resp.CaseID != "CASE-001" {
			t.Errorf("expected caseId CASE-001, got %s", resp.CaseID)
		}
		if resp.RiskScore < 6.0 {
			t.Errorf("expected risk score >= 6.0, got %v", resp.RiskScore)
		}
		if resp.AuditSteps != 6 {
			t.Errorf("expected 6 audit steps, got %d", resp.AuditSteps)
		}
		if rr.Header().Get(RequestIDHeader) == "" {
			t.Error("expected request ID response header")
		}
	})

	t.Run("CaseNotFound", func(t *testing.T) {
		repo := newAPIRepo()
		server := createTestServer(repo, eventBus)

		body, _ := json.Marshal(GenerateRequest{CaseID: "missing"})
		req := httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBuffer(body))

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("MissingCaseID", func(t *testing.T) {
		repo := newAPIRepo()
		server := createTestServer(repo, eventBus)

		req := httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBufferString("{}"))

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		repo := newAPIRepo()
		server := createTestServer(repo, eventBus)

		req := httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBufferString("not-json"))

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("AsyncQueuesRequest", func(t *testing.T) {
		repo := newAPIRepo()
		seedRepo(repo)
		server := createTestServer(repo, eventBus)

		var queued atomic.Bool
		var payload []byte
		eventBus.Subscribe(context.Background(), domain.TopicReportRequested, func(ctx context.Context, msg *domain.Message) error {
			payload = msg.Payload
			queued.Store(true)
			return nil
		})
		time.Sleep(10 * time.Millisecond)

		body, _ := json.Marshal(GenerateRequest{CaseID: "CASE-001", Async: true})
		req := httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBuffer(body))

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d", rr.Code)
		}
		if repo.saves != 0 {
			t.Error("async request must not run synchronously")
		}

		deadline := time.Now().Add(time.Second)
		for !queued.Load() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if !queued.Load() {
			t.Fatal("expected request on the bus")
		}

		var run workflow.Request
		if err := json.Unmarshal(payload, &run); err != nil {
			t.Fatalf("failed to parse queued request: %v", err)
		}
		if run.CaseID != "CASE-001" {
			t.Errorf("expected queued caseId CASE-001, got %s", run.CaseID)
		}
	})
}

func TestNarrativeEndpoints(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	repo := newAPIRepo()
	seedRepo(repo)
	server := createTestServer(repo, eventBus)

	// Generate once so retrieval endpoints have data.
	body, _ := json.Marshal(GenerateRequest{CaseID: "CASE-001"})
	req := httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("setup generation failed: %d %s", rr.Code, rr.Body.String())
	}
	var gen GenerateResponse
	json.Unmarshal(rr.Body.Bytes(), &gen)

	t.Run("GetNarrative", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sar/"+gen.NarrativeID, nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp NarrativeResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.CustomerName != "Rajesh Kumar" {
			t.Errorf("expected customer name, got %q", resp.CustomerName)
		}
		if resp.Status != domain.CaseStatusDrafted {
			t.Errorf("expected drafted status, got %q", resp.Status)
		}
	})

	t.Run("GetNarrativeNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sar/unknown", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("GetAuditTrail", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sar/"+gen.NarrativeID+"/audit", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp AuditTrailResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if !resp.ChainValid {
			t.Error("expected a valid audit chain")
		}
		if len(resp.Steps) != 6 {
			t.Errorf("expected 6 steps, got %d", len(resp.Steps))
		}
		if resp.Steps[0].StepName != "fetch_data" {
			t.Errorf("expected first step fetch_data, got %s", resp.Steps[0].StepName)
		}
	})

	t.Run("AuditTrailNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sar/unknown/audit", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("ApproveSAR", func(t *testing.T) {
		body, _ := json.Marshal(ApproveRequest{AnalystName: "A. Mehta"})
		req := httptest.NewRequest(http.MethodPost, "/sar/"+gen.NarrativeID+"/approve", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
		if repo.cases["CASE-001"].Status != domain.CaseStatusApproved {
			t.Errorf("expected approved status, got %s", repo.cases["CASE-001"].Status)
		}
	})

	t.Run("ListCases", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cases", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var summaries []CaseSummary
		if err := json.Unmarshal(rr.Body.Bytes(), &summaries); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(summaries) != 1 {
			t.Fatalf("expected 1 case, got %d", len(summaries))
		}
		if !summaries[0].HasNarrative {
			t.Error("expected hasNarrative true")
		}
		if summaries[0].CustomerName != "Rajesh Kumar" {
			t.Errorf("expected customer name, got %q", summaries[0].CustomerName)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stats/overview", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var stats StatsResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if stats.TotalSARs != 1 {
			t.Errorf("expected 1 SAR, got %d", stats.TotalSARs)
		}
	})
}

func TestConfigEndpoint(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	server := createTestServer(newAPIRepo(), eventBus)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp ConfigResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Jurisdiction != "IN" {
		t.Errorf("expected default jurisdiction IN, got %s", resp.Jurisdiction)
	}
	if resp.DeploymentEnv != "test" {
		t.Errorf("expected deploymentEnv test, got %s", resp.DeploymentEnv)
	}

	found := false
	for _, j := range resp.SupportedJurisdictions {
		if j == "US" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected US in supported jurisdictions, got %v", resp.SupportedJurisdictions)
	}
}

func TestHealthEndpoints(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	server := createTestServer(newAPIRepo(), eventBus)

	t.Run("Health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["status"] != "healthy" {
			t.Errorf("expected healthy, got %s", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version test-v1, got %s", resp["version"])
		}
	})

	t.Run("Ready", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("CORSPreflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/sar/generate", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rr.Code)
		}
		if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
			t.Error("expected CORS origin header")
		}
	})
}
