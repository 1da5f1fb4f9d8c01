package service

import (
	"fmt"
	"log/slog"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// Allocation record reconciliation statuses.
const (
	RecordStatusPending  = "pending"
	RecordStatusPartial  = "partial"
	RecordStatusComplete = "complete"
)

// Completion sources. Manual flags always win over derived state.
const (
	CompletionManual  = "manual"
	CompletionDerived = "derived"
)

// ChecklistItem is the reconciliation view of one allocation record.
type ChecklistItem struct {
	Record           *storage.AllocationRecord  `json:"record"`
	Matches          []*storage.AllocationMatch `json:"matches"`
	MatchedAmount    float64                    `json:"matched_amount"`
	RemainingAmount  float64                    `json:"remaining_amount"`
	Status           string                     `json:"status"`
	CompletionSource string                     `json:"completion_source,omitempty"`
}

// Checklist is the full distribution checklist for one income plan.
type Checklist struct {
	Plan           *storage.IncomePlan `json:"plan"`
	Items          []ChecklistItem     `json:"items"`
	TotalItems     int                 `json:"total_items"`
	CompletedCount int                 `json:"completed_count"`
	TotalAllocated float64             `json:"total_allocated"`
	TotalMatched   float64             `json:"total_matched"`
	Unallocated    float64             `json:"unallocated"`
	// IsComplete requires every record complete and the full plan amount
	// allocated across records.
	IsComplete bool `json:"is_complete"`
}

// ReconciliationService derives the distribution checklist. It is a pure
// read model: nothing here is persisted, everything is recomputed from
// records and matches on each call.
type ReconciliationService struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(store storage.Repository, logger *slog.Logger) *ReconciliationService {
	return &ReconciliationService{storage: store, logger: logger}
}

// DistributionChecklist reports, per allocation record, how much of the
// planned amount has been matched to real transactions and whether the
// record counts as done. A manual completion flag overrides the derived
// status in both directions.
func (s *ReconciliationService) DistributionChecklist(userID, planID string) (*Checklist, error) {
	plan, err := planOwned(s.storage, userID, planID)
	if err != nil {
		return nil, err
	}

	records, err := s.storage.ListRecordsForPlan(planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	checklist := &Checklist{
		Plan:       plan,
		Items:      make([]ChecklistItem, 0, len(records)),
		TotalItems: len(records),
	}

	for _, record := range records {
		matches, err := s.storage.ListMatchesForRecord(record.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list matches: %w", err)
		}

		var matched float64
		for _, m := range matches {
			matched += m.Amount
		}

		remaining := record.Amount - matched
		if remaining < 0 {
			remaining = 0
		}

		item := ChecklistItem{
			Record:          record,
			Matches:         matches,
			MatchedAmount:   matched,
			RemainingAmount: remaining,
		}
		item.Status, item.CompletionSource = classifyRecord(record, matched)

		if item.Status == RecordStatusComplete {
			checklist.CompletedCount++
		}
		checklist.TotalAllocated += record.Amount
		checklist.TotalMatched += matched
		checklist.Items = append(checklist.Items, item)
	}

	checklist.Unallocated = plan.Amount() - checklist.TotalAllocated
	if checklist.Unallocated < 0 {
		checklist.Unallocated = 0
	}
	checklist.IsComplete = checklist.TotalItems > 0 &&
		checklist.CompletedCount == checklist.TotalItems &&
		checklist.Unallocated <= amountEpsilon

	return checklist, nil
}

// classifyRecord resolves a record's reconciliation status. The manual
// flag takes precedence; otherwise the status derives from the matched
// amount against the planned amount, with a cent of tolerance.
func classifyRecord(record *storage.AllocationRecord, matched float64) (status, source string) {
	if record.ManuallyCompleted {
		return RecordStatusComplete, CompletionManual
	}

	switch {
	case matched >= record.Amount-amountEpsilon:
		return RecordStatusComplete, CompletionDerived
	case matched > amountEpsilon:
		return RecordStatusPartial, ""
	default:
		return RecordStatusPending, ""
	}
}
