// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yash-7575/luminasar/internal/domain"
)

var ErrInvalidInput = errors.New("invalid input")

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// FindCustomer retrieves a customer by ID.
func (r *SQLRepository) FindCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customerID is required", ErrInvalidInput)
	}

	query := `
		SELECT customer_id, name, account_number, occupation, stated_income, customer_since
		FROM customers
		WHERE customer_id = ?
	`

	var c domain.Customer
	var occupation sql.NullString
	var statedIncome sql.NullFloat64
	var customerSince sql.NullTime

	err := r.db.QueryRowContext(ctx, r.rebind(query), customerID).Scan(
		&c.ID, &c.Name, &c.AccountNumber, &occupation, &statedIncome, &customerSince,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	c.Occupation = occupation.String
	c.StatedIncome = statedIncome.Float64
	if customerSince.Valid {
		t := customerSince.Time
		c.CustomerSince = &t
	}

	return &c, nil
}

// FindTransactions retrieves all transactions for a customer, oldest first.
func (r *SQLRepository) FindTransactions(ctx context.Context, customerID string) ([]domain.Transaction, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customerID is required", ErrInvalidInput)
	}

	query := `
		SELECT transaction_id, customer_id, amount, date, source_account, destination_account, transaction_type
		FROM transactions
		WHERE customer_id = ?
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var date sql.NullTime
		var source, dest, txType sql.NullString

		if err := rows.Scan(
			&tx.ID, &tx.CustomerID, &tx.Amount, &date, &source, &dest, &txType,
		); err != nil {
			return nil, err
		}

		if date.Valid {
			tx.Timestamp = date.Time
		}
		tx.SourceAccount = source.String
		tx.DestinationAccount = dest.String
		tx.Type = txType.String

		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

// FindCase retrieves a case by ID.
func (r *SQLRepository) FindCase(ctx context.Context, caseID string) (*domain.SARCase, error) {
	if caseID == "" {
		return nil, fmt.Errorf("%w: caseID is required", ErrInvalidInput)
	}

	query := `
		SELECT case_id, customer_id, status, risk_score, typologies, created_at, updated_at
		FROM sar_cases
		WHERE case_id = ?
	`

	c, err := scanCase(r.db.QueryRowContext(ctx, r.rebind(query), caseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCaseNotFound
	}
	return c, err
}

// ListCases retrieves all cases, newest first.
func (r *SQLRepository) ListCases(ctx context.Context) ([]domain.SARCase, error) {
	query := `
		SELECT case_id, customer_id, status, risk_score, typologies, created_at, updated_at
		FROM sar_cases
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []domain.SARCase
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}

	return cases, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.SARCase, error) {
	var c domain.SARCase
	var typologies sql.NullString

	if err := row.Scan(
		&c.ID, &c.CustomerID, &c.Status, &c.RiskScore, &typologies, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if typologies.Valid && typologies.String != "" {
		json.Unmarshal([]byte(typologies.String), &c.Typologies)
	}

	return &c, nil
}

// FindNarrativeByCase retrieves the most recent narrative for a case.
func (r *SQLRepository) FindNarrativeByCase(ctx context.Context, caseID string) (*domain.Narrative, error) {
	query := `
		SELECT narrative_id, case_id, narrative_text, generated_at, generation_time_seconds
		FROM sar_narratives
		WHERE case_id = ?
		ORDER BY generated_at DESC
		LIMIT 1
	`
	return r.scanNarrative(r.db.QueryRowContext(ctx, r.rebind(query), caseID))
}

// GetNarrative retrieves a narrative by ID.
func (r *SQLRepository) GetNarrative(ctx context.Context, narrativeID string) (*domain.Narrative, error) {
	query := `
		SELECT narrative_id, case_id, narrative_text, generated_at, generation_time_seconds
		FROM sar_narratives
		WHERE narrative_id = ?
	`
	return r.scanNarrative(r.db.QueryRowContext(ctx, r.rebind(query), narrativeID))
}

func (r *SQLRepository) scanNarrative(row rowScanner) (*domain.Narrative, error) {
	var n domain.Narrative
	err := row.Scan(&n.ID, &n.CaseID, &n.Text, &n.GeneratedAt, &n.GenerationSecs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNarrativeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetAuditTrail retrieves the audit records for a narrative in append order.
func (r *SQLRepository) GetAuditTrail(ctx context.Context, narrativeID string) ([]domain.AuditRecord, error) {
	query := `
		SELECT step_name, data_sources, reasoning, confidence_scores, logged_at, previous_hash, current_hash
		FROM audit_trail
		WHERE narrative_id = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), narrativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var dataSources, reasoning, confidence string

		if err := rows.Scan(
			&rec.StepName, &dataSources, &reasoning, &confidence,
			&rec.LoggedAt, &rec.PreviousHash, &rec.CurrentHash,
		); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(dataSources), &rec.DataSources); err != nil {
			return nil, fmt.Errorf("failed to parse audit record: %w", err)
		}
		if err := json.Unmarshal([]byte(reasoning), &rec.Reasoning); err != nil {
			return nil, fmt.Errorf("failed to parse audit record: %w", err)
		}
		if err := json.Unmarshal([]byte(confidence), &rec.ConfidenceScores); err != nil {
			return nil, fmt.Errorf("failed to parse audit record: %w", err)
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

// SaveCustomer stores or replaces a customer.
func (r *SQLRepository) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	if c.ID == "" {
		return fmt.Errorf("%w: customer ID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO customers (customer_id, name, account_number, occupation, stated_income, customer_since)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			name = excluded.name,
			account_number = excluded.account_number,
			occupation = excluded.occupation,
			stated_income = excluded.stated_income,
			customer_since = excluded.customer_since
	`

	var since any
	if c.CustomerSince != nil {
		since = *c.CustomerSince
	}

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, c.Name, c.AccountNumber, c.Occupation, c.StatedIncome, since,
	)
	return err
}

// SaveTransaction stores a transaction.
func (r *SQLRepository) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("%w: transaction ID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO transactions (transaction_id, customer_id, amount, date, source_account, destination_account, transaction_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var date any
	if !tx.Timestamp.IsZero() {
		date = tx.Timestamp
	}

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tx.ID, tx.CustomerID, tx.Amount, date,
		tx.SourceAccount, tx.DestinationAccount, tx.Type,
	)
	return err
}

// SaveCase stores or replaces a case.
func (r *SQLRepository) SaveCase(ctx context.Context, c *domain.SARCase) error {
	if c.ID == "" {
		return fmt.Errorf("%w: case ID is required", ErrInvalidInput)
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = domain.CaseStatusPending
	}

	typologies, _ := json.Marshal(c.Typologies)

	query := `
		INSERT INTO sar_cases (case_id, customer_id, status, risk_score, typologies, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_id) DO UPDATE SET
			status = excluded.status,
			risk_score = excluded.risk_score,
			typologies = excluded.typologies,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, c.CustomerID, c.Status, c.RiskScore, string(typologies),
		c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// SaveReport persists the narrative, the case update, and the audit
// chain in one transaction. Any failure rolls the whole unit back.
func (r *SQLRepository) SaveReport(ctx context.Context, caseID string, narrative *domain.Narrative, riskScore float64, typologies []string, records []domain.AuditRecord) (string, error) {
	if caseID == "" {
		return "", fmt.Errorf("%w: caseID is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	narrativeID := narrative.ID
	if narrativeID == "" {
		narrativeID = uuid.New().String()
	}

	insertNarrative := `
		INSERT INTO sar_narratives (narrative_id, case_id, narrative_text, generated_at, generation_time_seconds)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, r.rebind(insertNarrative),
		narrativeID, caseID, narrative.Text, narrative.GeneratedAt, narrative.GenerationSecs,
	); err != nil {
		return "", fmt.Errorf("failed to save narrative: %w", err)
	}

	typologiesJSON, _ := json.Marshal(typologies)
	updateCase := `
		UPDATE sar_cases
		SET status = ?, risk_score = ?, typologies = ?, updated_at = ?
		WHERE case_id = ?
	`
	result, err := tx.ExecContext(ctx, r.rebind(updateCase),
		domain.CaseStatusDrafted, riskScore, string(typologiesJSON), time.Now().UTC(), caseID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update case: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return "", domain.ErrCaseNotFound
	}

	insertAudit := `
		INSERT INTO audit_trail (narrative_id, seq, step_name, data_sources, reasoning, confidence_scores, logged_at, previous_hash, current_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, rec := range records {
		dataSources, _ := json.Marshal(rec.DataSources)
		reasoning, _ := json.Marshal(rec.Reasoning)
		confidence, _ := json.Marshal(rec.ConfidenceScores)

		if _, err := tx.ExecContext(ctx, r.rebind(insertAudit),
			narrativeID, i, rec.StepName,
			string(dataSources), string(reasoning), string(confidence),
			rec.LoggedAt, rec.PreviousHash, rec.CurrentHash,
		); err != nil {
			return "", fmt.Errorf("failed to save audit record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit report: %w", err)
	}

	narrative.ID = narrativeID
	return narrativeID, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
