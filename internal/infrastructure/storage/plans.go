package storage

import (
	"database/sql"
	"time"
)

// CreatePlan inserts a new income plan.
func (s *Storage) CreatePlan(plan *IncomePlan) error {
	plan.CreatedAt = time.Now().UTC()
	if plan.Status == "" {
		plan.Status = PlanStatusPlanned
	}

	query := `
	INSERT INTO income_plans
	(id, user_id, label, expected_date, expected_amount, recurrence, status,
	 actual_amount, matched_transaction_id, date_received, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		plan.ID,
		plan.UserID,
		plan.Label,
		plan.ExpectedDate.UnixMilli(),
		plan.ExpectedAmount,
		plan.Recurrence,
		plan.Status,
		plan.ActualAmount,
		plan.MatchedTransactionID,
		msOrNil(plan.DateReceived),
		plan.CreatedAt,
	)
	return err
}

// GetPlan retrieves a plan by ID.
func (s *Storage) GetPlan(id string) (*IncomePlan, error) {
	query := planSelect + ` WHERE id = ?`

	row := s.db.QueryRow(query, id)
	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns the user's plans ordered by expected date.
func (s *Storage) ListPlans(userID string) ([]*IncomePlan, error) {
	query := planSelect + ` WHERE user_id = ? ORDER BY expected_date ASC, id ASC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var plans []*IncomePlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// UpdatePlan persists all mutable fields of a plan.
func (s *Storage) UpdatePlan(plan *IncomePlan) error {
	result, err := s.db.Exec(planUpdate,
		plan.Label,
		plan.ExpectedDate.UnixMilli(),
		plan.ExpectedAmount,
		plan.Recurrence,
		plan.Status,
		plan.ActualAmount,
		plan.MatchedTransactionID,
		msOrNil(plan.DateReceived),
		plan.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "plan", plan.ID)
}

// DeletePlan removes a plan; records and matches go with it via the
// foreign key cascade.
func (s *Storage) DeletePlan(id string) error {
	result, err := s.db.Exec(`DELETE FROM income_plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "plan", id)
}

// UpdatePlanAndReplaceRecords applies a plan update and a record-set
// replacement atomically. Used by match-and-reallocate so readers never
// observe the plan matched but the forecast stale.
func (s *Storage) UpdatePlanAndReplaceRecords(plan *IncomePlan, records []*AllocationRecord) error {
	return s.inTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(planUpdate,
			plan.Label,
			plan.ExpectedDate.UnixMilli(),
			plan.ExpectedAmount,
			plan.Recurrence,
			plan.Status,
			plan.ActualAmount,
			plan.MatchedTransactionID,
			msOrNil(plan.DateReceived),
			plan.ID,
		)
		if err != nil {
			return err
		}
		if err := requireRowAffected(result, "plan", plan.ID); err != nil {
			return err
		}
		return replaceRecordsTx(tx, plan.ID, records)
	})
}

const planSelect = `
	SELECT id, user_id, label, expected_date, expected_amount, recurrence, status,
	       actual_amount, matched_transaction_id, date_received, created_at
	FROM income_plans`

const planUpdate = `
	UPDATE income_plans
	SET label = ?, expected_date = ?, expected_amount = ?, recurrence = ?, status = ?,
	    actual_amount = ?, matched_transaction_id = ?, date_received = ?
	WHERE id = ?`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*IncomePlan, error) {
	plan := &IncomePlan{}
	var expectedDateMs int64
	var actualAmount sql.NullFloat64
	var matchedTxID sql.NullString
	var dateReceivedMs sql.NullInt64

	err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Label,
		&expectedDateMs,
		&plan.ExpectedAmount,
		&plan.Recurrence,
		&plan.Status,
		&actualAmount,
		&matchedTxID,
		&dateReceivedMs,
		&plan.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.ExpectedDate = time.UnixMilli(expectedDateMs).UTC()
	if actualAmount.Valid {
		plan.ActualAmount = &actualAmount.Float64
	}
	if matchedTxID.Valid {
		plan.MatchedTransactionID = &matchedTxID.String
	}
	if dateReceivedMs.Valid {
		received := time.UnixMilli(dateReceivedMs.Int64).UTC()
		plan.DateReceived = &received
	}
	return plan, nil
}

// msOrNil converts an optional time to epoch milliseconds for storage.
func msOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
