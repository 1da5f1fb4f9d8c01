package storage

import (
	"database/sql"
	"time"
)

// GetTransaction retrieves a transaction by ID.
func (s *Storage) GetTransaction(id string) (*Transaction, error) {
	row := s.db.QueryRow(txSelect+` WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// ListTransactions returns transactions matching the filters, newest first.
func (s *Storage) ListTransactions(filters TransactionFilters) ([]*Transaction, error) {
	query := txSelect + ` WHERE user_id = ?`
	args := []any{filters.UserID}

	if filters.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, filters.AccountID)
	}
	if filters.From != nil {
		query += ` AND date >= ?`
		args = append(args, filters.From.UnixMilli())
	}
	if filters.To != nil {
		query += ` AND date <= ?`
		args = append(args, filters.To.UnixMilli())
	}
	if filters.Unpaired {
		query += ` AND transfer_pair_id IS NULL`
	}
	if filters.Unconsumed {
		// A cent of slack, matching the match-amount tolerance.
		query += ` AND ABS(amount) - IFNULL((
			SELECT SUM(m.amount) FROM allocation_matches m
			WHERE m.transaction_id = transactions.id
		), 0) > 0.01`
	}

	query += ` ORDER BY date DESC, id ASC`
	if filters.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filters.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var txs []*Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SaveTransaction upserts a transaction row.
func (s *Storage) SaveTransaction(tx *Transaction) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO transactions
		(id, user_id, account_id, amount, date, description, transfer_pair_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.UserID, tx.AccountID, tx.Amount, tx.Date.UnixMilli(), tx.Description, tx.TransferPairID)
	return err
}

// GetAccount retrieves an account by ID.
func (s *Storage) GetAccount(id string) (*Account, error) {
	account := &Account{}
	err := s.db.QueryRow(`
		SELECT id, user_id, name FROM accounts WHERE id = ?
	`, id).Scan(&account.ID, &account.UserID, &account.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns the user's accounts by name.
func (s *Storage) ListAccounts(userID string) ([]*Account, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name FROM accounts WHERE user_id = ? ORDER BY name ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []*Account
	for rows.Next() {
		account := &Account{}
		if err := rows.Scan(&account.ID, &account.UserID, &account.Name); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// SaveAccount upserts an account row.
func (s *Storage) SaveAccount(account *Account) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO accounts (id, user_id, name) VALUES (?, ?, ?)
	`, account.ID, account.UserID, account.Name)
	return err
}

const txSelect = `
	SELECT id, user_id, account_id, amount, date, description, transfer_pair_id
	FROM transactions`

func scanTransaction(row rowScanner) (*Transaction, error) {
	tx := &Transaction{}
	var dateMs int64
	var pairID sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.AccountID,
		&tx.Amount,
		&dateMs,
		&tx.Description,
		&pairID,
	)
	if err != nil {
		return nil, err
	}

	tx.Date = time.UnixMilli(dateMs).UTC()
	if pairID.Valid {
		tx.TransferPairID = &pairID.String
	}
	return tx, nil
}
