package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors surfaced by collaborators. The workflow treats
// ErrCustomerNotFound and ErrCaseNotFound as fatal (no retry).
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrCaseNotFound      = errors.New("case not found")
	ErrNarrativeNotFound = errors.New("narrative not found")

	// ErrGenerationFailed and ErrPersistenceFailed mark the two other
	// fatal stage outcomes; degraded and advisory conditions are values.
	ErrGenerationFailed  = errors.New("narrative generation failed")
	ErrPersistenceFailed = errors.New("report persistence failed")
)

// Repository is the persistence collaborator consumed by the pipeline.
// SaveReport must be atomic: narrative, case updates, and audit rows are
// committed as one logical unit or not at all.
type Repository interface {
	FindCustomer(ctx context.Context, customerID string) (*Customer, error)
	FindTransactions(ctx context.Context, customerID string) ([]Transaction, error)

	FindCase(ctx context.Context, caseID string) (*SARCase, error)
	ListCases(ctx context.Context) ([]SARCase, error)
	FindNarrativeByCase(ctx context.Context, caseID string) (*Narrative, error)
	GetNarrative(ctx context.Context, narrativeID string) (*Narrative, error)
	GetAuditTrail(ctx context.Context, narrativeID string) ([]AuditRecord, error)

	// Seeding and ingestion (used by cmd/datagen and tests).
	SaveCustomer(ctx context.Context, c *Customer) error
	SaveTransaction(ctx context.Context, tx *Transaction) error
	SaveCase(ctx context.Context, c *SARCase) error

	// SaveReport persists the narrative, updates the case risk/typology
	// fields, and appends the full audit record sequence in one transaction.
	// It returns the new narrative ID. Any failure rolls the unit back.
	SaveReport(ctx context.Context, caseID string, narrative *Narrative, riskScore float64, typologies []string, records []AuditRecord) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
