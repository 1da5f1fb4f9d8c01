package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateRule inserts a new allocation rule.
func (s *Storage) CreateRule(rule *AllocationRule) error {
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
	INSERT INTO allocation_rules
	(id, user_id, account_id, category, rule_type, value, priority, active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		rule.ID,
		rule.UserID,
		rule.AccountID,
		rule.Category,
		rule.RuleType,
		rule.Value,
		rule.Priority,
		rule.Active,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	return err
}

// GetRule retrieves a rule by ID.
func (s *Storage) GetRule(id string) (*AllocationRule, error) {
	query := `
	SELECT id, user_id, account_id, category, rule_type, value, priority, active, created_at, updated_at
	FROM allocation_rules WHERE id = ?
	`

	rule := &AllocationRule{}
	err := s.db.QueryRow(query, id).Scan(
		&rule.ID,
		&rule.UserID,
		&rule.AccountID,
		&rule.Category,
		&rule.RuleType,
		&rule.Value,
		&rule.Priority,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// ListRules returns a user's rules in waterfall order.
func (s *Storage) ListRules(userID string, activeOnly bool) ([]*AllocationRule, error) {
	query := `
	SELECT id, user_id, account_id, category, rule_type, value, priority, active, created_at, updated_at
	FROM allocation_rules
	WHERE user_id = ?
	`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY priority ASC, id ASC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rules []*AllocationRule
	for rows.Next() {
		rule := &AllocationRule{}
		err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&rule.AccountID,
			&rule.Category,
			&rule.RuleType,
			&rule.Value,
			&rule.Priority,
			&rule.Active,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpdateRule persists all mutable fields of a rule.
func (s *Storage) UpdateRule(rule *AllocationRule) error {
	rule.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE allocation_rules
	SET account_id = ?, category = ?, rule_type = ?, value = ?, priority = ?, active = ?, updated_at = ?
	WHERE id = ?
	`

	result, err := s.db.Exec(query,
		rule.AccountID,
		rule.Category,
		rule.RuleType,
		rule.Value,
		rule.Priority,
		rule.Active,
		rule.UpdatedAt,
		rule.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "rule", rule.ID)
}

// DeleteRule removes a rule. Existing allocation records are untouched;
// deletion never retroactively alters past waterfall runs.
func (s *Storage) DeleteRule(id string) error {
	result, err := s.db.Exec(`DELETE FROM allocation_rules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "rule", id)
}

// ReorderRules rewrites the user's rule priorities to match orderedIDs.
func (s *Storage) ReorderRules(userID string, orderedIDs []string) error {
	return s.inTx(func(tx *sql.Tx) error {
		now := time.Now().UTC()
		for i, id := range orderedIDs {
			result, err := tx.Exec(`
				UPDATE allocation_rules SET priority = ?, updated_at = ?
				WHERE id = ? AND user_id = ?
			`, i, now, id, userID)
			if err != nil {
				return err
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("rule %s not found for user %s", id, userID)
			}
		}
		return nil
	})
}

// HasActiveRuleForAccount reports whether an active rule already targets
// the account for this user.
func (s *Storage) HasActiveRuleForAccount(userID, accountID, excludeRuleID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM allocation_rules
		WHERE user_id = ? AND account_id = ? AND active = 1 AND id != ?
	`, userID, accountID, excludeRuleID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// requireRowAffected converts a zero-row UPDATE/DELETE into an error so
// callers can distinguish "missing" from "succeeded".
func requireRowAffected(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", entity, id)
	}
	return nil
}
