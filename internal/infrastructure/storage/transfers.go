package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SetTransferPair stamps both legs with the same pair ID in one
// transaction.
func (s *Storage) SetTransferPair(outgoingID, incomingID, pairID string) error {
	return s.inTx(func(tx *sql.Tx) error {
		for _, id := range []string{outgoingID, incomingID} {
			result, err := tx.Exec(`
				UPDATE transactions SET transfer_pair_id = ? WHERE id = ?
			`, pairID, id)
			if err != nil {
				return err
			}
			n, err := result.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("transaction %s not found", id)
			}
		}
		return nil
	})
}

// ClearTransferPair removes the pair ID from every transaction carrying it.
func (s *Storage) ClearTransferPair(pairID string) error {
	result, err := s.db.Exec(`
		UPDATE transactions SET transfer_pair_id = NULL WHERE transfer_pair_id = ?
	`, pairID)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "transfer pair", pairID)
}

// CreateIgnoredPair persists a dismissed transfer suggestion.
func (s *Storage) CreateIgnoredPair(pair *IgnoredTransferPair) error {
	pair.CreatedAt = time.Now().UTC()
	// Re-dismissing an already-dismissed pair is a no-op.
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO ignored_transfer_pairs
		(id, user_id, outgoing_transaction_id, incoming_transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, pair.ID, pair.UserID, pair.OutgoingTransactionID, pair.IncomingTransactionID, pair.CreatedAt)
	return err
}

// DeleteIgnoredPair removes a dismissal so the pair can be suggested again.
func (s *Storage) DeleteIgnoredPair(userID, outgoingID, incomingID string) error {
	result, err := s.db.Exec(`
		DELETE FROM ignored_transfer_pairs
		WHERE user_id = ? AND outgoing_transaction_id = ? AND incoming_transaction_id = ?
	`, userID, outgoingID, incomingID)
	if err != nil {
		return err
	}
	return requireRowAffected(result, "ignored pair", outgoingID+"/"+incomingID)
}

// ListIgnoredPairs returns the user's dismissed suggestions.
func (s *Storage) ListIgnoredPairs(userID string) ([]*IgnoredTransferPair, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, outgoing_transaction_id, incoming_transaction_id, created_at
		FROM ignored_transfer_pairs
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var pairs []*IgnoredTransferPair
	for rows.Next() {
		pair := &IgnoredTransferPair{}
		err := rows.Scan(
			&pair.ID,
			&pair.UserID,
			&pair.OutgoingTransactionID,
			&pair.IncomingTransactionID,
			&pair.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}
