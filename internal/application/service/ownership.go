package service

import (
	"fmt"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// planOwned loads a plan and verifies the caller owns it.
func planOwned(store storage.Repository, userID, planID string) (*storage.IncomePlan, error) {
	plan, err := store.GetPlan(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, &NotFoundError{Entity: "plan", ID: planID}
	}
	if plan.UserID != userID {
		return nil, &OwnershipError{Entity: "plan", ID: planID}
	}
	return plan, nil
}

// recordOwned loads an allocation record along with its parent plan and
// verifies ownership through the plan.
func recordOwned(store storage.Repository, userID, recordID string) (*storage.AllocationRecord, *storage.IncomePlan, error) {
	record, err := store.GetRecord(recordID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return nil, nil, &NotFoundError{Entity: "allocation record", ID: recordID}
	}

	plan, err := store.GetPlan(record.PlanID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, nil, &NotFoundError{Entity: "plan", ID: record.PlanID}
	}
	if plan.UserID != userID {
		return nil, nil, &OwnershipError{Entity: "allocation record", ID: recordID}
	}

	return record, plan, nil
}

// transactionOwned loads a transaction and verifies the caller owns it.
func transactionOwned(store storage.Repository, userID, txID string) (*storage.Transaction, error) {
	tx, err := store.GetTransaction(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil {
		return nil, &NotFoundError{Entity: "transaction", ID: txID}
	}
	if tx.UserID != userID {
		return nil, &OwnershipError{Entity: "transaction", ID: txID}
	}
	return tx, nil
}
