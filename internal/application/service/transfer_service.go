package service

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ren-perez/saldo-backend/internal/domain/matcher"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/config"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// PotentialTransfer is one suggested (outgoing, incoming) pairing.
type PotentialTransfer struct {
	Outgoing   *storage.Transaction `json:"outgoing"`
	Incoming   *storage.Transaction `json:"incoming"`
	AmountDiff float64              `json:"amount_diff"`
	DaysDiff   float64              `json:"days_diff"`
	Confidence matcher.Confidence   `json:"confidence"`
}

// TransferService detects and manages transfer pairs between the user's
// own accounts, so inter-account moves are not mistaken for income or
// spending.
type TransferService struct {
	storage  storage.Repository
	matching config.MatchingConfig
	logger   *slog.Logger
}

// NewTransferService creates a new transfer service.
func NewTransferService(store storage.Repository, matching config.MatchingConfig, logger *slog.Logger) *TransferService {
	return &TransferService{storage: store, matching: matching, logger: logger}
}

// PotentialTransfers scans the user's unpaired transactions for likely
// transfer pairs: opposite signs, different accounts, close in amount and
// date. Suggestions are ordered best match first across all outgoing
// legs. maxDays and maxRatio override the configured tolerances when
// positive. Previously ignored pairs are never re-suggested.
func (s *TransferService) PotentialTransfers(userID string, maxDays, maxRatio float64) ([]PotentialTransfer, error) {
	if maxDays <= 0 {
		maxDays = s.matching.TransferMaxDays
	}
	if maxRatio <= 0 {
		maxRatio = s.matching.TransferMaxRatio
	}

	txs, err := s.storage.ListTransactions(storage.TransactionFilters{
		UserID:   userID,
		Unpaired: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	ignored, err := s.ignoredSet(userID)
	if err != nil {
		return nil, err
	}

	profile := matcher.Profile{
		WindowDays: maxDays,
		MaxRatio:   maxRatio,
		Sign:       matcher.SignOpposite,
	}

	type scored struct {
		suggestion PotentialTransfer
		distance   float64
	}

	ranked := make([]scored, 0)
	for _, out := range txs {
		if out.Amount >= 0 {
			continue
		}

		pool := make([]matcher.Candidate, 0, len(txs))
		byID := make(map[string]*storage.Transaction, len(txs))
		for _, in := range txs {
			if in.ID == out.ID || in.AccountID == out.AccountID {
				continue
			}
			if ignored[ignoredKey(out.ID, in.ID)] {
				continue
			}
			pool = append(pool, matcher.Candidate{
				ID:        in.ID,
				AccountID: in.AccountID,
				Amount:    in.Amount,
				Date:      in.Date,
			})
			byID[in.ID] = in
		}

		for _, m := range matcher.FindCandidates(out.Amount, out.Date, pool, profile, nil) {
			ranked = append(ranked, scored{
				suggestion: PotentialTransfer{
					Outgoing:   out,
					Incoming:   byID[m.TransactionID],
					AmountDiff: m.AmountDiff,
					DaysDiff:   m.DaysDiff,
					Confidence: m.Confidence,
				},
				distance: m.Distance,
			})
		}
	}

	// Rank across all outgoing legs, not just within each leg's candidates.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		if ranked[i].suggestion.Outgoing.ID != ranked[j].suggestion.Outgoing.ID {
			return ranked[i].suggestion.Outgoing.ID < ranked[j].suggestion.Outgoing.ID
		}
		return ranked[i].suggestion.Incoming.ID < ranked[j].suggestion.Incoming.ID
	})

	suggestions := make([]PotentialTransfer, len(ranked))
	for i, r := range ranked {
		suggestions[i] = r.suggestion
	}
	return suggestions, nil
}

// PairTransfer marks two transactions as the legs of one transfer. The
// legs must belong to the user, carry opposite signs, sit in different
// accounts, and not already be paired.
func (s *TransferService) PairTransfer(userID, outgoingID, incomingID string) (string, error) {
	out, err := transactionOwned(s.storage, userID, outgoingID)
	if err != nil {
		return "", err
	}
	in, err := transactionOwned(s.storage, userID, incomingID)
	if err != nil {
		return "", err
	}

	if out.AccountID == in.AccountID {
		return "", NewValidationError("transfer legs must be in different accounts")
	}
	if out.Amount >= 0 || in.Amount <= 0 {
		return "", NewValidationError("transfer requires an outgoing (negative) and incoming (positive) leg")
	}
	if out.TransferPairID != nil {
		return "", NewStateConflictError("transaction %s is already part of a transfer pair", outgoingID)
	}
	if in.TransferPairID != nil {
		return "", NewStateConflictError("transaction %s is already part of a transfer pair", incomingID)
	}

	pairID := uuid.NewString()
	if err := s.storage.SetTransferPair(outgoingID, incomingID, pairID); err != nil {
		return "", fmt.Errorf("failed to pair transfer: %w", err)
	}

	s.logger.Info("transfer paired",
		"pair_id", pairID,
		"outgoing_id", outgoingID,
		"incoming_id", incomingID,
	)

	return pairID, nil
}

// UnpairTransfer dissolves the transfer pair the transaction belongs to,
// clearing both legs.
func (s *TransferService) UnpairTransfer(userID, transactionID string) error {
	tx, err := transactionOwned(s.storage, userID, transactionID)
	if err != nil {
		return err
	}

	if tx.TransferPairID == nil {
		return NewStateConflictError("transaction %s is not part of a transfer pair", transactionID)
	}

	pairID := *tx.TransferPairID
	if err := s.storage.ClearTransferPair(pairID); err != nil {
		return fmt.Errorf("failed to unpair transfer: %w", err)
	}

	s.logger.Info("transfer unpaired", "pair_id", pairID, "transaction_id", transactionID)
	return nil
}

// IgnorePair dismisses a suggestion so the pair is never surfaced again.
func (s *TransferService) IgnorePair(userID, outgoingID, incomingID string) error {
	if _, err := transactionOwned(s.storage, userID, outgoingID); err != nil {
		return err
	}
	if _, err := transactionOwned(s.storage, userID, incomingID); err != nil {
		return err
	}

	pair := &storage.IgnoredTransferPair{
		ID:                    uuid.NewString(),
		UserID:                userID,
		OutgoingTransactionID: outgoingID,
		IncomingTransactionID: incomingID,
		CreatedAt:             time.Now(),
	}

	if err := s.storage.CreateIgnoredPair(pair); err != nil {
		return fmt.Errorf("failed to ignore pair: %w", err)
	}

	s.logger.Info("transfer pair ignored", "outgoing_id", outgoingID, "incoming_id", incomingID)
	return nil
}

// UnignorePair restores a dismissed suggestion.
func (s *TransferService) UnignorePair(userID, outgoingID, incomingID string) error {
	if err := s.storage.DeleteIgnoredPair(userID, outgoingID, incomingID); err != nil {
		return fmt.Errorf("failed to unignore pair: %w", err)
	}

	s.logger.Info("transfer pair unignored", "outgoing_id", outgoingID, "incoming_id", incomingID)
	return nil
}

// ListIgnoredPairs returns the user's dismissed suggestions.
func (s *TransferService) ListIgnoredPairs(userID string) ([]*storage.IgnoredTransferPair, error) {
	return s.storage.ListIgnoredPairs(userID)
}

func (s *TransferService) ignoredSet(userID string) (map[string]bool, error) {
	pairs, err := s.storage.ListIgnoredPairs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ignored pairs: %w", err)
	}
	set := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		set[ignoredKey(p.OutgoingTransactionID, p.IncomingTransactionID)] = true
	}
	return set, nil
}

func ignoredKey(outgoingID, incomingID string) string {
	return outgoingID + "|" + incomingID
}
