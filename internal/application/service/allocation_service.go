package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ren-perez/saldo-backend/internal/domain/waterfall"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// AllocationService runs the waterfall against income plans and manages
// the resulting allocation records.
type AllocationService struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewAllocationService creates a new allocation service.
func NewAllocationService(store storage.Repository, logger *slog.Logger) *AllocationService {
	return &AllocationService{storage: store, logger: logger}
}

// Preview runs the user's active rules against a hypothetical income
// amount without persisting anything.
func (s *AllocationService) Preview(userID string, incomeAmount float64) (*waterfall.Result, error) {
	rules, err := activeWaterfallRules(s.storage, userID)
	if err != nil {
		return nil, err
	}

	result := waterfall.Allocate(rules, incomeAmount)
	return &result, nil
}

// RunForPlan generates the plan's allocation records from the user's
// active rules. This is destructive: any existing records for the plan,
// along with their matches, are replaced in a single transaction.
func (s *AllocationService) RunForPlan(userID, planID string) ([]*storage.AllocationRecord, float64, error) {
	plan, err := planOwned(s.storage, userID, planID)
	if err != nil {
		return nil, 0, err
	}

	rules, err := activeWaterfallRules(s.storage, userID)
	if err != nil {
		return nil, 0, err
	}

	result := waterfall.Allocate(rules, plan.Amount())
	records := buildRecords(plan, result)

	if err := s.storage.ReplaceRecordsForPlan(planID, records); err != nil {
		return nil, 0, fmt.Errorf("failed to replace records: %w", err)
	}

	s.logger.Info("allocations generated",
		"plan_id", planID,
		"records", len(records),
		"unallocated", result.Unallocated,
	)

	return records, result.Unallocated, nil
}

// ListForPlan returns the plan's allocation records.
func (s *AllocationService) ListForPlan(userID, planID string) ([]*storage.AllocationRecord, error) {
	if _, err := planOwned(s.storage, userID, planID); err != nil {
		return nil, err
	}
	return s.storage.ListRecordsForPlan(planID)
}

// AddRecord appends a manual allocation record to a plan. A plan carries
// at most one record per account.
func (s *AllocationService) AddRecord(userID, planID, accountID, category string, amount float64) (*storage.AllocationRecord, error) {
	plan, err := planOwned(s.storage, userID, planID)
	if err != nil {
		return nil, err
	}

	if accountID == "" {
		return nil, NewValidationError("account_id is required")
	}
	if !waterfall.ValidCategory(waterfall.Category(category)) {
		return nil, NewValidationError("invalid category: %s", category)
	}
	if amount < 0 {
		return nil, NewValidationError("amount cannot be negative, got %v", amount)
	}

	existing, err := s.storage.ListRecordsForPlan(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	for _, r := range existing {
		if r.AccountID == accountID {
			return nil, NewValidationError("plan already has an allocation for account %s", accountID)
		}
	}

	record := &storage.AllocationRecord{
		ID:         uuid.NewString(),
		PlanID:     plan.ID,
		AccountID:  accountID,
		Category:   category,
		Amount:     amount,
		IsForecast: plan.Status != storage.PlanStatusMatched,
		CreatedAt:  time.Now(),
	}

	if err := s.storage.CreateRecord(record); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	s.logger.Info("allocation record added",
		"plan_id", planID,
		"record_id", record.ID,
		"account_id", accountID,
		"amount", amount,
	)

	return record, nil
}

// UpdateAmount overrides a record's amount. The edit survives until the
// next explicit waterfall run for the plan.
func (s *AllocationService) UpdateAmount(userID, recordID string, amount float64) (*storage.AllocationRecord, error) {
	record, _, err := recordOwned(s.storage, userID, recordID)
	if err != nil {
		return nil, err
	}

	if amount < 0 {
		return nil, NewValidationError("amount cannot be negative, got %v", amount)
	}

	if err := s.storage.UpdateRecordAmount(recordID, amount); err != nil {
		return nil, fmt.Errorf("failed to update record amount: %w", err)
	}

	record.Amount = amount
	record.IsForecast = false

	s.logger.Info("allocation amount updated", "record_id", recordID, "amount", amount)
	return record, nil
}

// SetCompleted sets or clears the manual completion override on a record.
func (s *AllocationService) SetCompleted(userID, recordID string, completed bool) error {
	if _, _, err := recordOwned(s.storage, userID, recordID); err != nil {
		return err
	}

	if err := s.storage.SetRecordCompleted(recordID, completed); err != nil {
		return fmt.Errorf("failed to set completion: %w", err)
	}

	s.logger.Info("allocation completion set", "record_id", recordID, "completed", completed)
	return nil
}

// DeleteRecord removes a record and cascades its matches.
func (s *AllocationService) DeleteRecord(userID, recordID string) error {
	if _, _, err := recordOwned(s.storage, userID, recordID); err != nil {
		return err
	}

	if err := s.storage.DeleteRecord(recordID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	s.logger.Info("allocation record deleted", "record_id", recordID)
	return nil
}

// activeWaterfallRules loads the user's active rules in priority order
// as waterfall inputs.
func activeWaterfallRules(store storage.Repository, userID string) ([]waterfall.Rule, error) {
	stored, err := store.ListRules(userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	rules := make([]waterfall.Rule, 0, len(stored))
	for _, r := range stored {
		rules = append(rules, waterfall.Rule{
			ID:        r.ID,
			AccountID: r.AccountID,
			Category:  waterfall.Category(r.Category),
			Type:      waterfall.RuleType(r.RuleType),
			Value:     r.Value,
			Priority:  r.Priority,
			Active:    r.Active,
		})
	}
	return rules, nil
}

// buildRecords converts a waterfall result into persistable records for
// the plan. Records for an unmatched plan are forecasts.
func buildRecords(plan *storage.IncomePlan, result waterfall.Result) []*storage.AllocationRecord {
	now := time.Now()
	records := make([]*storage.AllocationRecord, 0, len(result.Items))
	for _, item := range result.Items {
		records = append(records, &storage.AllocationRecord{
			ID:         uuid.NewString(),
			PlanID:     plan.ID,
			AccountID:  item.AccountID,
			Category:   string(item.Category),
			Amount:     item.Amount,
			IsForecast: plan.Status != storage.PlanStatusMatched,
			CreatedAt:  now,
		})
	}
	return records
}
