package service

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ren-perez/saldo-backend/internal/domain/matcher"
	"github.com/ren-perez/saldo-backend/internal/domain/waterfall"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/config"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// amountEpsilon absorbs float rounding when comparing currency amounts.
const amountEpsilon = 0.01

// Suggestion pairs a matcher score with the transaction it refers to.
type Suggestion struct {
	Match       matcher.Match        `json:"match"`
	Transaction *storage.Transaction `json:"transaction"`
}

// MatchService links income plans and allocation records to observed
// transactions, and produces ranked suggestions for both.
type MatchService struct {
	storage  storage.Repository
	matching config.MatchingConfig
	logger   *slog.Logger
}

// NewMatchService creates a new match service.
func NewMatchService(store storage.Repository, matching config.MatchingConfig, logger *slog.Logger) *MatchService {
	return &MatchService{storage: store, matching: matching, logger: logger}
}

// MatchAllocation records that amount of the transaction funded the
// allocation record. The amount may not exceed the record's remaining
// unfunded amount, nor push the transaction's total consumption across
// all records past its own magnitude.
func (s *MatchService) MatchAllocation(userID, recordID, txID string, amount float64) (*storage.AllocationMatch, error) {
	if amount <= 0 {
		return nil, NewValidationError("match amount must be positive, got %v", amount)
	}

	record, _, err := recordOwned(s.storage, userID, recordID)
	if err != nil {
		return nil, err
	}

	tx, err := transactionOwned(s.storage, userID, txID)
	if err != nil {
		return nil, err
	}

	matched, err := s.matchedAmountForRecord(recordID)
	if err != nil {
		return nil, err
	}
	if matched+amount > record.Amount+amountEpsilon {
		return nil, NewValidationError(
			"match of %v exceeds remaining %v on record %s",
			amount, record.Amount-matched, recordID,
		)
	}

	consumed, err := s.consumedAmountForTransaction(txID)
	if err != nil {
		return nil, err
	}
	if consumed+amount > math.Abs(tx.Amount)+amountEpsilon {
		return nil, NewValidationError(
			"match of %v exceeds remaining %v on transaction %s",
			amount, math.Abs(tx.Amount)-consumed, txID,
		)
	}

	match := &storage.AllocationMatch{
		ID:            uuid.NewString(),
		RecordID:      recordID,
		TransactionID: txID,
		Amount:        amount,
		CreatedAt:     time.Now(),
	}

	if err := s.storage.CreateMatch(match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.logger.Info("allocation matched",
		"record_id", recordID,
		"transaction_id", txID,
		"amount", amount,
	)

	return match, nil
}

// UnmatchAllocation removes a match. Removing a match that no longer
// exists is a no-op, so retried unmatches are safe.
func (s *MatchService) UnmatchAllocation(userID, matchID string) error {
	match, err := s.storage.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil
	}

	if _, _, err := recordOwned(s.storage, userID, match.RecordID); err != nil {
		return err
	}

	if err := s.storage.DeleteMatch(matchID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	s.logger.Info("allocation unmatched", "match_id", matchID, "record_id", match.RecordID)
	return nil
}

// SuggestForAllocation ranks candidate transactions that could fund the
// record's remaining amount. Transactions already fully consumed by other
// matches are excluded; partially consumed ones remain candidates.
func (s *MatchService) SuggestForAllocation(userID, recordID string) ([]Suggestion, error) {
	record, plan, err := recordOwned(s.storage, userID, recordID)
	if err != nil {
		return nil, err
	}

	matched, err := s.matchedAmountForRecord(recordID)
	if err != nil {
		return nil, err
	}
	remaining := record.Amount - matched
	if remaining <= amountEpsilon {
		return []Suggestion{}, nil
	}

	txs, err := s.storage.ListTransactions(storage.TransactionFilters{
		UserID:    userID,
		AccountID: record.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	pool := make([]matcher.Candidate, 0, len(txs))
	byID := make(map[string]*storage.Transaction, len(txs))
	excluded := make(map[string]bool)
	for _, tx := range txs {
		consumed, err := s.consumedAmountForTransaction(tx.ID)
		if err != nil {
			return nil, err
		}
		if consumed >= math.Abs(tx.Amount)-amountEpsilon {
			excluded[tx.ID] = true
		}
		pool = append(pool, candidateFor(tx))
		byID[tx.ID] = tx
	}

	profile := matcher.Profile{
		WindowDays:   s.matching.AllocationWindowDays,
		MaxRatio:     s.matching.AllocationMaxRatio,
		AllowPartial: true,
	}

	matches := matcher.FindCandidates(remaining, expectedDateFor(plan), pool, profile, excluded)
	return s.enrich(matches, byID), nil
}

// MatchPlan links an income plan to the deposit that realized it. The
// plan's actual amount and received date come from the transaction. When
// reallocate is set, the plan's allocation records are regenerated from
// the actual amount in the same storage transaction as the plan update.
func (s *MatchService) MatchPlan(userID, planID, txID string, reallocate bool) (*storage.IncomePlan, error) {
	plan, err := planOwned(s.storage, userID, planID)
	if err != nil {
		return nil, err
	}

	if plan.Status == storage.PlanStatusMatched {
		return nil, NewStateConflictError("plan %s is already matched", planID)
	}

	tx, err := transactionOwned(s.storage, userID, txID)
	if err != nil {
		return nil, err
	}

	actual := tx.Amount
	received := tx.Date
	plan.Status = storage.PlanStatusMatched
	plan.ActualAmount = &actual
	plan.MatchedTransactionID = &tx.ID
	plan.DateReceived = &received

	if !reallocate {
		if err := s.storage.UpdatePlan(plan); err != nil {
			return nil, fmt.Errorf("failed to update plan: %w", err)
		}
		s.logger.Info("plan matched", "plan_id", planID, "transaction_id", txID)
		return plan, nil
	}

	rules, err := activeWaterfallRules(s.storage, userID)
	if err != nil {
		return nil, err
	}
	result := waterfall.Allocate(rules, plan.Amount())
	records := buildRecords(plan, result)

	if err := s.storage.UpdatePlanAndReplaceRecords(plan, records); err != nil {
		return nil, fmt.Errorf("failed to match and reallocate: %w", err)
	}

	s.logger.Info("plan matched and reallocated",
		"plan_id", planID,
		"transaction_id", txID,
		"records", len(records),
		"unallocated", result.Unallocated,
	)

	return plan, nil
}

// UnmatchPlan reverts a matched plan to planned. Allocation records keep
// their current amounts; re-run the waterfall to return to forecasts.
func (s *MatchService) UnmatchPlan(userID, planID string) (*storage.IncomePlan, error) {
	plan, err := planOwned(s.storage, userID, planID)
	if err != nil {
		return nil, err
	}

	if plan.Status != storage.PlanStatusMatched {
		return nil, NewStateConflictError("plan %s is not matched", planID)
	}

	plan.Status = storage.PlanStatusPlanned
	plan.ActualAmount = nil
	plan.MatchedTransactionID = nil
	plan.DateReceived = nil

	if err := s.storage.UpdatePlan(plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info("plan unmatched", "plan_id", planID)
	return plan, nil
}

// SuggestForPlan ranks candidate deposits for an unmatched plan.
// Transactions already matched to another plan are excluded.
func (s *MatchService) SuggestForPlan(userID, planID string) ([]Suggestion, error) {
	plan, err := planOwned(s.storage, userID, planID)
	if err != nil {
		return nil, err
	}

	if plan.Status == storage.PlanStatusMatched {
		return []Suggestion{}, nil
	}

	txs, err := s.storage.ListTransactions(storage.TransactionFilters{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	excluded, err := s.transactionsMatchedToPlans(userID)
	if err != nil {
		return nil, err
	}

	pool := make([]matcher.Candidate, 0, len(txs))
	byID := make(map[string]*storage.Transaction, len(txs))
	for _, tx := range txs {
		// Income realizes as a deposit.
		if tx.Amount <= 0 {
			continue
		}
		pool = append(pool, candidateFor(tx))
		byID[tx.ID] = tx
	}

	profile := matcher.Profile{
		WindowDays: s.matching.IncomeWindowDays,
		MaxRatio:   s.matching.IncomeMaxRatio,
	}

	matches := matcher.FindCandidates(plan.ExpectedAmount, plan.ExpectedDate, pool, profile, excluded)
	return s.enrich(matches, byID), nil
}

// PlansForTransaction is the reverse lookup: which of the user's plans
// were realized by this transaction.
func (s *MatchService) PlansForTransaction(userID, txID string) ([]*storage.IncomePlan, error) {
	if _, err := transactionOwned(s.storage, userID, txID); err != nil {
		return nil, err
	}

	plans, err := s.storage.ListPlans(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	matched := make([]*storage.IncomePlan, 0)
	for _, p := range plans {
		if p.MatchedTransactionID != nil && *p.MatchedTransactionID == txID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (s *MatchService) matchedAmountForRecord(recordID string) (float64, error) {
	matches, err := s.storage.ListMatchesForRecord(recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to list matches: %w", err)
	}
	var total float64
	for _, m := range matches {
		total += m.Amount
	}
	return total, nil
}

func (s *MatchService) consumedAmountForTransaction(txID string) (float64, error) {
	matches, err := s.storage.ListMatchesForTransaction(txID)
	if err != nil {
		return 0, fmt.Errorf("failed to list transaction matches: %w", err)
	}
	var total float64
	for _, m := range matches {
		total += m.Amount
	}
	return total, nil
}

func (s *MatchService) transactionsMatchedToPlans(userID string) (map[string]bool, error) {
	plans, err := s.storage.ListPlans(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	taken := make(map[string]bool)
	for _, p := range plans {
		if p.MatchedTransactionID != nil {
			taken[*p.MatchedTransactionID] = true
		}
	}
	return taken, nil
}

func (s *MatchService) enrich(matches []matcher.Match, byID map[string]*storage.Transaction) []Suggestion {
	suggestions := make([]Suggestion, 0, len(matches))
	for _, m := range matches {
		suggestions = append(suggestions, Suggestion{Match: m, Transaction: byID[m.TransactionID]})
	}
	return suggestions
}

func candidateFor(tx *storage.Transaction) matcher.Candidate {
	return matcher.Candidate{
		ID:        tx.ID,
		AccountID: tx.AccountID,
		Amount:    tx.Amount,
		Date:      tx.Date,
	}
}

// expectedDateFor prefers the realized date once the plan is matched.
func expectedDateFor(plan *storage.IncomePlan) time.Time {
	if plan.DateReceived != nil {
		return *plan.DateReceived
	}
	return plan.ExpectedDate
}
