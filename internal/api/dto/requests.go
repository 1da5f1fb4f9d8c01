package dto

// PreviewAllocationRequest asks for a dry-run of the waterfall against a
// hypothetical income amount.
type PreviewAllocationRequest struct {
	IncomeAmount float64 `json:"income_amount"`
}

// CreateRuleRequest creates or updates an allocation rule. Active
// defaults to true when omitted on create.
type CreateRuleRequest struct {
	AccountID string  `json:"account_id"`
	Category  string  `json:"category"`
	RuleType  string  `json:"rule_type"`
	Value     float64 `json:"value"`
	Active    *bool   `json:"active,omitempty"`
}

// ReorderRulesRequest rewrites rule priorities to match the given order.
type ReorderRulesRequest struct {
	RuleIDs []string `json:"rule_ids"`
}

// CreatePlanRequest creates an income plan. ExpectedDate is YYYY-MM-DD.
type CreatePlanRequest struct {
	Label          string  `json:"label"`
	ExpectedDate   string  `json:"expected_date"`
	ExpectedAmount float64 `json:"expected_amount"`
	Recurrence     string  `json:"recurrence,omitempty"`
}

// AddAllocationRequest appends a manual allocation record to a plan.
type AddAllocationRequest struct {
	AccountID string  `json:"account_id"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
}

// UpdateAllocationAmountRequest overrides a record's amount.
type UpdateAllocationAmountRequest struct {
	Amount float64 `json:"amount"`
}

// MatchAllocationRequest links part of a transaction to a record.
type MatchAllocationRequest struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

// MatchPlanRequest links a plan to the deposit that realized it.
// Reallocate regenerates the plan's records from the actual amount in
// the same storage transaction.
type MatchPlanRequest struct {
	TransactionID string `json:"transaction_id"`
	Reallocate    bool   `json:"reallocate"`
}

// PairTransferRequest marks two transactions as one transfer.
type PairTransferRequest struct {
	OutgoingID string `json:"outgoing_id"`
	IncomingID string `json:"incoming_id"`
}

// UnpairTransferRequest dissolves the pair a transaction belongs to.
type UnpairTransferRequest struct {
	TransactionID string `json:"transaction_id"`
}

// IgnorePairRequest dismisses (or restores) a transfer suggestion.
type IgnorePairRequest struct {
	OutgoingID string `json:"outgoing_id"`
	IncomingID string `json:"incoming_id"`
}
