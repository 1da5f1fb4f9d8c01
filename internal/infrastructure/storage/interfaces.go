package storage

// Repository defines the complete storage interface. Splitting it per
// entity keeps service constructors honest about what they touch and
// makes testing with the in-memory mock straightforward.
type Repository interface {
	RuleRepository
	PlanRepository
	AllocationRepository
	TransferRepository
	TransactionRepository
	AccountRepository
	Close() error
}

// RuleRepository manages allocation rules.
type RuleRepository interface {
	// CreateRule inserts a new rule.
	CreateRule(rule *AllocationRule) error

	// GetRule retrieves a rule by ID, or (nil, nil) if absent.
	GetRule(id string) (*AllocationRule, error)

	// ListRules returns a user's rules ordered by priority (ties by ID).
	ListRules(userID string, activeOnly bool) ([]*AllocationRule, error)

	// UpdateRule persists all mutable fields of the rule.
	UpdateRule(rule *AllocationRule) error

	// DeleteRule removes a rule. Past allocation records are unaffected.
	DeleteRule(id string) error

	// ReorderRules rewrites priorities to match the given ID order, in
	// one transaction.
	ReorderRules(userID string, orderedIDs []string) error

	// HasActiveRuleForAccount reports whether the user already has an
	// active rule targeting the account, excluding excludeRuleID.
	HasActiveRuleForAccount(userID, accountID, excludeRuleID string) (bool, error)
}

// PlanRepository manages income plans.
type PlanRepository interface {
	CreatePlan(plan *IncomePlan) error

	// GetPlan retrieves a plan by ID, or (nil, nil) if absent.
	GetPlan(id string) (*IncomePlan, error)

	// ListPlans returns a user's plans ordered by expected date.
	ListPlans(userID string) ([]*IncomePlan, error)

	UpdatePlan(plan *IncomePlan) error

	// DeletePlan removes a plan and cascades to its allocation records
	// and their matches.
	DeletePlan(id string) error

	// UpdatePlanAndReplaceRecords applies a plan update and a full record
	// replacement in a single transaction, so a match-then-reallocate
	// never exposes a half-applied state.
	UpdatePlanAndReplaceRecords(plan *IncomePlan, records []*AllocationRecord) error
}

// AllocationRepository manages allocation records and their matches.
type AllocationRepository interface {
	// ReplaceRecordsForPlan deletes the plan's existing records (and,
	// by cascade, their matches) and inserts the new set in one
	// transaction. This is the destructive "reset to rules" write.
	ReplaceRecordsForPlan(planID string, records []*AllocationRecord) error

	CreateRecord(record *AllocationRecord) error

	// GetRecord retrieves a record by ID, or (nil, nil) if absent.
	GetRecord(id string) (*AllocationRecord, error)

	// ListRecordsForPlan returns the plan's records in insertion order.
	ListRecordsForPlan(planID string) ([]*AllocationRecord, error)

	UpdateRecordAmount(id string, amount float64) error

	SetRecordCompleted(id string, completed bool) error

	// DeleteRecord removes a record and cascades to its matches.
	DeleteRecord(id string) error

	CreateMatch(match *AllocationMatch) error

	// GetMatch retrieves a match by ID, or (nil, nil) if absent.
	GetMatch(id string) (*AllocationMatch, error)

	DeleteMatch(id string) error

	ListMatchesForRecord(recordID string) ([]*AllocationMatch, error)

	// ListMatchesForTransaction returns every match consuming the given
	// transaction, across all records and plans.
	ListMatchesForTransaction(transactionID string) ([]*AllocationMatch, error)
}

// TransferRepository manages transfer pairing and dismissed suggestions.
type TransferRepository interface {
	// SetTransferPair stamps both legs with the same pair ID in one
	// transaction.
	SetTransferPair(outgoingID, incomingID, pairID string) error

	// ClearTransferPair removes the pair ID from every transaction
	// carrying it.
	ClearTransferPair(pairID string) error

	CreateIgnoredPair(pair *IgnoredTransferPair) error

	DeleteIgnoredPair(userID, outgoingID, incomingID string) error

	ListIgnoredPairs(userID string) ([]*IgnoredTransferPair, error)
}

// TransactionRepository reads collaborator transaction data.
type TransactionRepository interface {
	// GetTransaction retrieves a transaction by ID, or (nil, nil) if absent.
	GetTransaction(id string) (*Transaction, error)

	ListTransactions(filters TransactionFilters) ([]*Transaction, error)

	// SaveTransaction upserts a transaction. The engine itself only
	// writes transfer_pair_id; full writes exist for the import
	// collaborator and tests.
	SaveTransaction(tx *Transaction) error
}

// AccountRepository reads collaborator account data.
type AccountRepository interface {
	// GetAccount retrieves an account by ID, or (nil, nil) if absent.
	GetAccount(id string) (*Account, error)

	ListAccounts(userID string) ([]*Account, error)

	SaveAccount(account *Account) error
}
