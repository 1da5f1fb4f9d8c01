package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_matching_indexes",
		Up:      migration002AddMatchingIndexes,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// migration001InitialSchema creates the core tables.
//
// Dates on plans and transactions are stored as epoch milliseconds to
// match the import collaborator's wire format; created_at columns use
// SQLite timestamps.
func migration001InitialSchema(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_id TEXT NOT NULL,
			amount REAL NOT NULL,
			date INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			transfer_pair_id TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS allocation_rules (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_id TEXT NOT NULL,
			category TEXT NOT NULL,
			rule_type TEXT NOT NULL,
			value REAL NOT NULL,
			priority INTEGER NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// One active rule per (user, account) pair, enforced at the
		// schema level in addition to the service check.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rules_active_account
			ON allocation_rules(user_id, account_id) WHERE active = 1`,

		`CREATE TABLE IF NOT EXISTS income_plans (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			label TEXT NOT NULL,
			expected_date INTEGER NOT NULL,
			expected_amount REAL NOT NULL,
			recurrence TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'planned',
			actual_amount REAL,
			matched_transaction_id TEXT,
			date_received INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS allocation_records (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL REFERENCES income_plans(id) ON DELETE CASCADE,
			account_id TEXT NOT NULL,
			category TEXT NOT NULL,
			amount REAL NOT NULL,
			is_forecast INTEGER NOT NULL DEFAULT 1,
			manually_completed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS allocation_matches (
			id TEXT PRIMARY KEY,
			record_id TEXT NOT NULL REFERENCES allocation_records(id) ON DELETE CASCADE,
			transaction_id TEXT NOT NULL,
			amount REAL NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS ignored_transfer_pairs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			outgoing_transaction_id TEXT NOT NULL,
			incoming_transaction_id TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, outgoing_transaction_id, incoming_transaction_id)
		)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// migration002AddMatchingIndexes adds lookup indexes for the hot match
// and suggestion queries.
func migration002AddMatchingIndexes(tx *sql.Tx) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date
			ON transactions(user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_pair
			ON transactions(transfer_pair_id) WHERE transfer_pair_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_records_plan
			ON allocation_records(plan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_record
			ON allocation_matches(record_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_transaction
			ON allocation_matches(transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_user
			ON income_plans(user_id, expected_date)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
