package storage

import (
	"database/sql"
	"time"
)

// ReplaceRecordsForPlan swaps the plan's entire record set in one
// transaction. Prior records and their matches are destroyed; this is
// the "reset to rules" write and callers present it as destructive.
func (s *Storage) ReplaceRecordsForPlan(planID string, records []*AllocationRecord) error {
	return s.inTx(func(tx *sql.Tx) error {
		return replaceRecordsTx(tx, planID, records)
	})
}

func replaceRecordsTx(tx *sql.Tx, planID string, records []*AllocationRecord) error {
	// Matches cascade with their records.
	if _, err := tx.Exec(`DELETE FROM allocation_records WHERE plan_id = ?`, planID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, record := range records {
		record.PlanID = planID
		record.CreatedAt = now
		_, err := tx.Exec(recordInsert,
			record.ID,
			record.PlanID,
			record.AccountID,
			record.Category,
			record.Amount,
			record.IsForecast,
			record.ManuallyCompleted,
			record.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateRecord inserts a single manually-added allocation record.
func (s *Storage) CreateRecord(record *AllocationRecord) error {
	record.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(recordInsert,
		record.ID,
		record.PlanID,
		record.AccountID,
		record.Category,
		record.Amount,
		record.IsForecast,
		record.ManuallyCompleted,
		record.CreatedAt,
	)
	return err
}

// GetRecord retrieves an allocation record by ID.
func (s *Storage) GetRecord(id string) (*AllocationRecord, error) {
	query := recordSelect + ` WHERE id = ?`

	record := &AllocationRecord{}
	err := s.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.PlanID,
		&record.AccountID,
		&record.Category,
		&record.Amount,
		&record.IsForecast,
		&record.ManuallyCompleted,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecordsForPlan returns the plan's records in insertion order.
func (s *Storage) ListRecordsForPlan(planID string) ([]*AllocationRecord, error) {
	query := recordSelect + ` WHERE plan_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(query, planID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*AllocationRecord
	for rows.Next() {
		record := &AllocationRecord{}
		err := rows.Scan(
			&record.ID,
			&record.PlanID,
			&record.AccountID,
			&record.Category,
			&record.Amount,
			&record.IsForecast,
			&record.ManuallyCompleted,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpdateRecordAmount sets a record's amount. A direct user edit also
// clears the forecast flag.
func (s *Storage) UpdateRecordAmount(id string, amount float64) error {
	result, err := s.db.Exec(`
		UPDATE allocation_records SET amount = ?, is_forecast = 0 WHERE id = ?
	`, amount, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "allocation record", id)
}

// SetRecordCompleted toggles the manual completion override. Matches are
// untouched.
func (s *Storage) SetRecordCompleted(id string, completed bool) error {
	result, err := s.db.Exec(`
		UPDATE allocation_records SET manually_completed = ? WHERE id = ?
	`, completed, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "allocation record", id)
}

// DeleteRecord removes a record; its matches cascade.
func (s *Storage) DeleteRecord(id string) error {
	result, err := s.db.Exec(`DELETE FROM allocation_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "allocation record", id)
}

// CreateMatch inserts an allocation match.
func (s *Storage) CreateMatch(match *AllocationMatch) error {
	match.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO allocation_matches (id, record_id, transaction_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, match.ID, match.RecordID, match.TransactionID, match.Amount, match.CreatedAt)
	return err
}

// GetMatch retrieves a match by ID.
func (s *Storage) GetMatch(id string) (*AllocationMatch, error) {
	match := &AllocationMatch{}
	err := s.db.QueryRow(matchSelect+` WHERE id = ?`, id).Scan(
		&match.ID,
		&match.RecordID,
		&match.TransactionID,
		&match.Amount,
		&match.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return match, nil
}

// DeleteMatch removes a match. The record's amount is never adjusted.
func (s *Storage) DeleteMatch(id string) error {
	result, err := s.db.Exec(`DELETE FROM allocation_matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "match", id)
}

// ListMatchesForRecord returns a record's matches in creation order.
func (s *Storage) ListMatchesForRecord(recordID string) ([]*AllocationMatch, error) {
	return s.listMatches(matchSelect+` WHERE record_id = ? ORDER BY created_at ASC, id ASC`, recordID)
}

// ListMatchesForTransaction returns every match consuming a transaction,
// across all records.
func (s *Storage) ListMatchesForTransaction(transactionID string) ([]*AllocationMatch, error) {
	return s.listMatches(matchSelect+` WHERE transaction_id = ? ORDER BY created_at ASC, id ASC`, transactionID)
}

func (s *Storage) listMatches(query string, arg any) ([]*AllocationMatch, error) {
	rows, err := s.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var matches []*AllocationMatch
	for rows.Next() {
		match := &AllocationMatch{}
		err := rows.Scan(
			&match.ID,
			&match.RecordID,
			&match.TransactionID,
			&match.Amount,
			&match.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

const recordInsert = `
	INSERT INTO allocation_records
	(id, plan_id, account_id, category, amount, is_forecast, manually_completed, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const recordSelect = `
	SELECT id, plan_id, account_id, category, amount, is_forecast, manually_completed, created_at
	FROM allocation_records`

const matchSelect = `
	SELECT id, record_id, transaction_id, amount, created_at
	FROM allocation_matches`
