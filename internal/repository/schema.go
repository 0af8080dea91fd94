package repository

// Schema definitions for LuminaSAR.
// Compatible with both SQLite and PostgreSQL.

const schemaCustomers = `
CREATE TABLE IF NOT EXISTS customers (
    customer_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    account_number TEXT NOT NULL,
    occupation TEXT,
    stated_income REAL,
    customer_since TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_customers_account ON customers(account_number);
`

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    transaction_id TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    amount REAL NOT NULL,
    date TIMESTAMP,
    source_account TEXT,
    destination_account TEXT,
    transaction_type TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(customer_id, date);
`

const schemaCases = `
CREATE TABLE IF NOT EXISTS sar_cases (
    case_id TEXT PRIMARY KEY,
    customer_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    risk_score REAL NOT NULL DEFAULT 0,
    typologies TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_customer ON sar_cases(customer_id);
CREATE INDEX IF NOT EXISTS idx_cases_status ON sar_cases(status);
`

const schemaNarratives = `
CREATE TABLE IF NOT EXISTS sar_narratives (
    narrative_id TEXT PRIMARY KEY,
    case_id TEXT NOT NULL,
    narrative_text TEXT NOT NULL,
    generated_at TIMESTAMP NOT NULL,
    generation_time_seconds INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_narratives_case ON sar_narratives(case_id);
`

// audit_trail stores the hash chain exactly as logged; seq preserves
// append order so the chain can be re-verified after a round trip.
const schemaAuditTrail = `
CREATE TABLE IF NOT EXISTS audit_trail (
    narrative_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    step_name TEXT NOT NULL,
    data_sources TEXT NOT NULL,
    reasoning TEXT NOT NULL,
    confidence_scores TEXT NOT NULL,
    logged_at TEXT NOT NULL,
    previous_hash TEXT NOT NULL,
    current_hash TEXT NOT NULL,
    PRIMARY KEY (narrative_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_audit_narrative ON audit_trail(narrative_id);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaCustomers,
		schemaTransactions,
		schemaCases,
		schemaNarratives,
		schemaAuditTrail,
	}
}
