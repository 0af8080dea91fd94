package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/yash-7575/luminasar/internal/audit"
	"github.com/yash-7575/luminasar/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "luminasar-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndFindCustomer", func(t *testing.T) {
		since := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
		customer := &domain.Customer{
			ID:            "CUST-001",
			Name:          "Rajesh Kumar",
			AccountNumber: "ACC-778899",
			Occupation:    "Shop Owner",
			StatedIncome:  600000,
			CustomerSince: &since,
		}

		if err := repo.SaveCustomer(ctx, customer); err != nil {
			t.Fatalf("SaveCustomer failed: %v", err)
		}

		retrieved, err := repo.FindCustomer(ctx, "CUST-001")
		if err != nil {
			t.Fatalf("FindCustomer failed: %v", err)
		}
		if retrieved.Name != customer.Name {
			t.Errorf("expected name %s, got %s", customer.Name, retrieved.Name)
		}
		if retrieved.CustomerSince == nil || !retrieved.CustomerSince.Equal(since) {
			t.Errorf("expected customer_since %v, got %v", since, retrieved.CustomerSince)
		}
	})

	t.Run("FindCustomerNotFound", func(t *testing.T) {
		_, err := repo.FindCustomer(ctx, "nobody")
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			t.Errorf("expected ErrCustomerNotFound, got %v", err)
		}
	})

	t.Run("SaveAndFindTransactions", func(t *testing.T) {
		base := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			tx := &domain.Transaction{
				ID:                 "tx-00" + string(rune('1'+i)),
				CustomerID:         "CUST-001",
				Amount:             48000,
				Timestamp:          base.Add(time.Duration(i) * 24 * time.Hour),
				SourceAccount:      "SRC-1",
				DestinationAccount: "ACC-778899",
				Type:               "transfer",
			}
			if err := repo.SaveTransaction(ctx, tx); err != nil {
				t.Fatalf("SaveTransaction failed: %v", err)
			}
		}

		txns, err := repo.FindTransactions(ctx, "CUST-001")
		if err != nil {
			t.Fatalf("FindTransactions failed: %v", err)
		}
		if len(txns) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(txns))
		}
		if !txns[0].Timestamp.Equal(base) {
			t.Errorf("transactions must be ordered oldest first, got %v", txns[0].Timestamp)
		}
	})

	t.Run("SaveAndFindCase", func(t *testing.T) {
		sarCase := &domain.SARCase{
			ID:         "CASE-001",
			CustomerID: "CUST-001",
		}

		if err := repo.SaveCase(ctx, sarCase); err != nil {
			t.Fatalf("SaveCase failed: %v", err)
		}

		retrieved, err := repo.FindCase(ctx, "CASE-001")
		if err != nil {
			t.Fatalf("FindCase failed: %v", err)
		}
		if retrieved.Status != domain.CaseStatusPending {
			t.Errorf("expected default status pending, got %s", retrieved.Status)
		}

		cases, err := repo.ListCases(ctx)
		if err != nil {
			t.Fatalf("ListCases failed: %v", err)
		}
		if len(cases) != 1 {
			t.Errorf("expected 1 case, got %d", len(cases))
		}
	})

	t.Run("FindCaseNotFound", func(t *testing.T) {
		_, err := repo.FindCase(ctx, "missing")
		if !errors.Is(err, domain.ErrCaseNotFound) {
			t.Errorf("expected ErrCaseNotFound, got %v", err)
		}
	})
}

func TestSaveReportAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveCustomer(ctx, &domain.Customer{ID: "CUST-001", Name: "Rajesh Kumar", AccountNumber: "ACC-1"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveCase(ctx, &domain.SARCase{ID: "CASE-001", CustomerID: "CUST-001"}); err != nil {
		t.Fatal(err)
	}

	ledger := audit.NewLedger()
	ledger.LogStep("fetch_data", map[string]any{"database": "repository"}, map[string]any{"customer_name": "Rajesh Kumar"}, map[string]any{"transaction_count": 0}, 1.0)
	ledger.LogStep("analyze_patterns", map[string]any{"algorithm": "pattern_detector"}, map[string]any{"typologies": []string{"structuring"}}, map[string]any{"risk_score": 6.0}, 0.9)

	narrative := &domain.Narrative{
		CaseID:      "CASE-001",
		Text:        "Generated report text.",
		GeneratedAt: time.Now().UTC(),
	}

	id, err := repo.SaveReport(ctx, "CASE-001", narrative, 6.0, []string{"structuring", "layering"}, ledger.Records())
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a narrative ID")
	}

	t.Run("NarrativePersisted", func(t *testing.T) {
		stored, err := repo.GetNarrative(ctx, id)
		if err != nil {
			t.Fatalf("GetNarrative failed: %v", err)
		}
		if stored.Text != narrative.Text {
			t.Errorf("expected text %q, got %q", narrative.Text, stored.Text)
		}

		byCase, err := repo.FindNarrativeByCase(ctx, "CASE-001")
		if err != nil {
			t.Fatalf("FindNarrativeByCase failed: %v", err)
		}
		if byCase.ID != id {
			t.Errorf("expected narrative %s, got %s", id, byCase.ID)
		}
	})

	t.Run("CaseUpdated", func(t *testing.T) {
		sarCase, err := repo.FindCase(ctx, "CASE-001")
		if err != nil {
			t.Fatal(err)
		}
		if sarCase.Status != domain.CaseStatusDrafted {
			t.Errorf("expected status drafted, got %s", sarCase.Status)
		}
		if sarCase.RiskScore != 6.0 {
			t.Errorf("expected risk 6.0, got %v", sarCase.RiskScore)
		}
		if len(sarCase.Typologies) != 2 {
			t.Errorf("expected 2 typologies, got %v", sarCase.Typologies)
		}
	})

	t.Run("AuditChainSurvivesRoundTrip", func(t *testing.T) {
		records, err := repo.GetAuditTrail(ctx, id)
		if err != nil {
			t.Fatalf("GetAuditTrail failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 audit records, got %d", len(records))
		}
		if records[0].PreviousHash != domain.GenesisHash {
			t.Error("first record must anchor at genesis")
		}
		if !audit.VerifyRecords(records) {
			t.Error("stored chain must verify after a round trip")
		}
	})
}

func TestSaveReportUnknownCaseRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	narrative := &domain.Narrative{CaseID: "ghost", Text: "text", GeneratedAt: time.Now().UTC()}

	_, err := repo.SaveReport(ctx, "ghost", narrative, 1.0, nil, nil)
	if !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}

	// The narrative insert must have rolled back with the case update.
	if _, err := repo.FindNarrativeByCase(ctx, "ghost"); !errors.Is(err, domain.ErrNarrativeNotFound) {
		t.Errorf("expected no narrative after rollback, got %v", err)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := New(domain.RepositoryConfig{Driver: "oracle"})
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebindPostgres(t *testing.T) {
	r := &SQLRepository{driver: "postgres"}
	got := r.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	want := "INSERT INTO t (a, b) VALUES ($1, $2)"
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	r.driver = "sqlite"
	if got := r.rebind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("sqlite rebind must be a no-op, got %q", got)
	}
}
