package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/yash-7575/luminasar/internal/bus"
	"github.com/yash-7575/luminasar/internal/cache"
	"github.com/yash-7575/luminasar/internal/detector"
	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/knowledge"
	"github.com/yash-7575/luminasar/internal/narrative"
	"github.com/yash-7575/luminasar/internal/repository"
	"github.com/yash-7575/luminasar/internal/rules"
	"github.com/yash-7575/luminasar/internal/worker"
	"github.com/yash-7575/luminasar/internal/workflow"
)

// TestEndToEndSQLite drives the whole stack: SQLite repository, LRU
// cache, channel bus, async worker, and the HTTP surface.
func TestEndToEndSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "luminasar-test.db")
	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: dbPath,
	})
	if err != nil {
		t.Fatalf("failed to open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()

	// Seed the structuring scenario through the real repository.
	customer := &domain.Customer{
		ID:            "CUST-E2E",
		Name:          "Rajesh Kumar",
		AccountNumber: "ACC-778899",
		Occupation:    "Shop Owner",
		StatedIncome:  600000,
	}
	if err := repo.SaveCustomer(ctx, customer); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		tx := &domain.Transaction{
			ID:                 fmt.Sprintf("tx-e2e-%04d", i),
			CustomerID:         "CUST-E2E",
			Amount:             48000,
			Timestamp:          base.Add(time.Duration(i%5) * 24 * time.Hour),
			SourceAccount:      fmt.Sprintf("SRC-%d", i%6),
			DestinationAccount: "ACC-778899",
			Type:               "transfer",
		}
		if err := repo.SaveTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.SaveCase(ctx, &domain.SARCase{
		ID:         "CASE-E2E",
		CustomerID: "CUST-E2E",
	}); err != nil {
		t.Fatal(err)
	}

	memCache := cache.NewLRUCache(100)
	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	screening, err := rules.NewEngine()
	if err != nil {
		t.Fatalf("failed to build screening engine: %v", err)
	}
	if err := screening.LoadRules(rules.BuiltinRules()); err != nil {
		t.Fatalf("failed to load screening rules: %v", err)
	}

	orchestrator := workflow.New(workflow.Options{
		Repository:          repo,
		Detector:            detector.New(detector.DefaultConfig()),
		Knowledge:           knowledge.NewService(),
		Screening:           screening,
		Generator:           &cannedGenerator{text: testNarrativeText()},
		Validator:           narrative.NewValidator(),
		Templates:           narrative.NewCachedTemplateStore(narrative.NewStaticTemplateStore(), memCache),
		DefaultJurisdiction: "IN",
		DeploymentEnv:       "test",
		GeneratorModel:      "llama3.2",
	})

	asyncWorker := worker.NewWorker(eventBus, orchestrator)
	if err := asyncWorker.Start(); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	t.Cleanup(func() { asyncWorker.Stop() })

	cfg := domain.DefaultConfig()
	cfg.DeploymentEnv = "test"
	server := NewServer(cfg, repo, memCache, eventBus, orchestrator, "e2e")

	// Queue the run through the async path and wait for completion.
	var completed bool
	done := make(chan struct{})
	eventBus.Subscribe(ctx, domain.TopicReportCompleted, func(ctx context.Context, msg *domain.Message) error {
		if !completed {
			completed = true
			close(done)
		}
		return nil
	})
	time.Sleep(20 * time.Millisecond)

	body, _ := json.Marshal(GenerateRequest{CaseID: "CASE-E2E", Async: true})
	req := httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for async completion")
	}

	// The narrative is now persisted; fetch it through the API.
	n, err := repo.FindNarrativeByCase(ctx, "CASE-E2E")
	if err != nil {
		t.Fatalf("narrative not persisted: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/sar/"+n.ID, nil)
	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var narrResp NarrativeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &narrResp); err != nil {
		t.Fatal(err)
	}
	if narrResp.RiskScore < 6.0 {
		t.Errorf("expected risk score >= 6.0, got %v", narrResp.RiskScore)
	}
	if narrResp.Status != domain.CaseStatusDrafted {
		t.Errorf("expected drafted case, got %s", narrResp.Status)
	}

	// The persisted audit chain must verify after the SQL round-trip.
	req = httptest.NewRequest(http.MethodGet, "/sar/"+n.ID+"/audit", nil)
	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var trail AuditTrailResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &trail); err != nil {
		t.Fatal(err)
	}
	if !trail.ChainValid {
		t.Error("expected the persisted audit chain to verify")
	}
	if len(trail.Steps) != 6 {
		t.Errorf("expected 6 audit steps, got %d", len(trail.Steps))
	}
	if trail.Steps[0].PreviousHash != domain.GenesisHash {
		t.Error("first step must anchor at the genesis hash")
	}

	// A second synchronous generate reuses the stored narrative.
	body, _ = json.Marshal(GenerateRequest{CaseID: "CASE-E2E"})
	req = httptest.NewRequest(http.MethodPost, "/sar/generate", bytes.NewBuffer(body))
	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var gen GenerateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &gen); err != nil {
		t.Fatal(err)
	}
	if gen.NarrativeID != n.ID {
		t.Errorf("expected reuse of %s, got %s", n.ID, gen.NarrativeID)
	}
}
