package storage

import "time"

// Rule statuses and types live in the waterfall package; storage keeps
// them as plain strings so the schema stays decoupled from domain enums.

// AllocationRule defines one step of a user's income waterfall. At most
// one active rule may exist per (user, account) pair.
type AllocationRule struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AccountID string    `json:"account_id"`
	Category  string    `json:"category"`
	RuleType  string    `json:"rule_type"`
	Value     float64   `json:"value"`
	Priority  int       `json:"priority"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Income plan statuses.
const (
	PlanStatusPlanned = "planned"
	PlanStatusMatched = "matched"
	PlanStatusMissed  = "missed"
)

// IncomePlan is one expected or realized income event.
//
// Invariant: Status == matched iff MatchedTransactionID is set, and
// ActualAmount/DateReceived are set only when matched.
type IncomePlan struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	Label                string     `json:"label"`
	ExpectedDate         time.Time  `json:"expected_date"`
	ExpectedAmount       float64    `json:"expected_amount"`
	Recurrence           string     `json:"recurrence,omitempty"`
	Status               string     `json:"status"`
	ActualAmount         *float64   `json:"actual_amount,omitempty"`
	MatchedTransactionID *string    `json:"matched_transaction_id,omitempty"`
	DateReceived         *time.Time `json:"date_received,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Amount returns the amount allocations should be computed against:
// the actual amount once matched, the expected amount before that.
func (p *IncomePlan) Amount() float64 {
	if p.ActualAmount != nil {
		return *p.ActualAmount
	}
	return p.ExpectedAmount
}

// AllocationRecord is one waterfall line item for an income plan. Records
// are created in bulk by a waterfall run and individually editable
// afterwards; user edits survive until an explicit re-run replaces the
// whole set.
type AllocationRecord struct {
	ID                string    `json:"id"`
	PlanID            string    `json:"plan_id"`
	AccountID         string    `json:"account_id"`
	Category          string    `json:"category"`
	Amount            float64   `json:"amount"`
	IsForecast        bool      `json:"is_forecast"`
	ManuallyCompleted bool      `json:"manually_completed"`
	CreatedAt         time.Time `json:"created_at"`
}

// AllocationMatch is a partial link between an allocation record and a
// transaction. Many matches may reference the same record (split funding)
// or the same transaction (split spending).
type AllocationMatch struct {
	ID            string    `json:"id"`
	RecordID      string    `json:"record_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transaction is an observed bank transaction. The engine treats these as
// read-only collaborator data except for TransferPairID.
type Transaction struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	AccountID      string    `json:"account_id"`
	Amount         float64   `json:"amount"` // signed; negative = outflow
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	TransferPairID *string   `json:"transfer_pair_id,omitempty"`
}

// Account is collaborator data used for display labeling only.
type Account struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// IgnoredTransferPair records a dismissed transfer suggestion so the
// matcher never re-suggests that (outgoing, incoming) pair.
type IgnoredTransferPair struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	OutgoingTransactionID string    `json:"outgoing_transaction_id"`
	IncomingTransactionID string    `json:"incoming_transaction_id"`
	CreatedAt             time.Time `json:"created_at"`
}

// TransactionFilters narrows ListTransactions results.
type TransactionFilters struct {
	UserID     string
	AccountID  string     // empty = all accounts
	From       *time.Time // inclusive lower bound on date
	To         *time.Time // inclusive upper bound on date
	Unpaired   bool       // only transactions without a transfer pair
	Unconsumed bool       // only transactions not fully consumed by allocation matches
	Limit      int        // 0 = no limit
}
