package dto

import (
	"time"

	"github.com/ren-perez/saldo-backend/internal/application/service"
	"github.com/ren-perez/saldo-backend/internal/domain/waterfall"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Service:   "saldo-backend",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// PreviewResponse is a dry-run waterfall result.
type PreviewResponse struct {
	Items       []waterfall.LineItem `json:"items"`
	Unallocated float64              `json:"unallocated"`
}

// RunAllocationsResponse is the persisted result of a waterfall run.
type RunAllocationsResponse struct {
	Records     []*storage.AllocationRecord `json:"records"`
	Unallocated float64                     `json:"unallocated"`
}

// RecordListResponse lists a plan's allocation records.
type RecordListResponse struct {
	Records []*storage.AllocationRecord `json:"records"`
	Count   int                         `json:"count"`
}

// RuleListResponse lists a user's allocation rules.
type RuleListResponse struct {
	Rules []*storage.AllocationRule `json:"rules"`
	Count int                       `json:"count"`
}

// PlanListResponse lists a user's income plans.
type PlanListResponse struct {
	Plans []*storage.IncomePlan `json:"plans"`
	Count int                   `json:"count"`
}

// SuggestionListResponse lists ranked match suggestions.
type SuggestionListResponse struct {
	Suggestions []service.Suggestion `json:"suggestions"`
	Count       int                  `json:"count"`
}

// PotentialTransferListResponse lists detected transfer pairs.
type PotentialTransferListResponse struct {
	Transfers []service.PotentialTransfer `json:"transfers"`
	Count     int                         `json:"count"`
}

// PairTransferResponse returns the pair ID stamped on both legs.
type PairTransferResponse struct {
	PairID string `json:"pair_id"`
}

// IgnoredPairListResponse lists dismissed transfer suggestions.
type IgnoredPairListResponse struct {
	Pairs []*storage.IgnoredTransferPair `json:"pairs"`
	Count int                            `json:"count"`
}

// TransactionListResponse lists transactions.
type TransactionListResponse struct {
	Transactions []*storage.Transaction `json:"transactions"`
	Count        int                    `json:"count"`
}

// AccountListResponse lists accounts.
type AccountListResponse struct {
	Accounts []*storage.Account `json:"accounts"`
	Count    int                `json:"count"`
}
