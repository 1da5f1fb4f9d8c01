package storage

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, keeping tests fast and isolated.
type MockRepository struct {
	rules        map[string]*AllocationRule
	plans        map[string]*IncomePlan
	records      map[string]*AllocationRecord
	matches      map[string]*AllocationMatch
	transactions map[string]*Transaction
	accounts     map[string]*Account
	ignoredPairs map[string]*IgnoredTransferPair

	// Hooks for test assertions
	ReplaceRecordsCalled bool
	LastReplacedPlanID   string
	CreateMatchCalled    bool
	LastCreatedMatch     *AllocationMatch

	// Error injection for testing failure paths
	CreateRuleErr     error
	ReplaceRecordsErr error
	CreateMatchErr    error
	UpdatePlanErr     error
	SetTransferErr    error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates an empty mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		rules:        make(map[string]*AllocationRule),
		plans:        make(map[string]*IncomePlan),
		records:      make(map[string]*AllocationRecord),
		matches:      make(map[string]*AllocationMatch),
		transactions: make(map[string]*Transaction),
		accounts:     make(map[string]*Account),
		ignoredPairs: make(map[string]*IgnoredTransferPair),
	}
}

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// --- rules ---

func (m *MockRepository) CreateRule(rule *AllocationRule) error {
	if m.CreateRuleErr != nil {
		return m.CreateRuleErr
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	copied := *rule
	m.rules[rule.ID] = &copied
	return nil
}

func (m *MockRepository) GetRule(id string) (*AllocationRule, error) {
	rule, ok := m.rules[id]
	if !ok {
		return nil, nil
	}
	copied := *rule
	return &copied, nil
}

func (m *MockRepository) ListRules(userID string, activeOnly bool) ([]*AllocationRule, error) {
	var rules []*AllocationRule
	for _, rule := range m.rules {
		if rule.UserID != userID {
			continue
		}
		if activeOnly && !rule.Active {
			continue
		}
		copied := *rule
		rules = append(rules, &copied)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
	return rules, nil
}

func (m *MockRepository) UpdateRule(rule *AllocationRule) error {
	if _, ok := m.rules[rule.ID]; !ok {
		return fmt.Errorf("rule %s not found", rule.ID)
	}
	rule.UpdatedAt = time.Now().UTC()
	copied := *rule
	m.rules[rule.ID] = &copied
	return nil
}

func (m *MockRepository) DeleteRule(id string) error {
	if _, ok := m.rules[id]; !ok {
		return fmt.Errorf("rule %s not found", id)
	}
	delete(m.rules, id)
	return nil
}

func (m *MockRepository) ReorderRules(userID string, orderedIDs []string) error {
	for i, id := range orderedIDs {
		rule, ok := m.rules[id]
		if !ok || rule.UserID != userID {
			return fmt.Errorf("rule %s not found for user %s", id, userID)
		}
		rule.Priority = i
	}
	return nil
}

func (m *MockRepository) HasActiveRuleForAccount(userID, accountID, excludeRuleID string) (bool, error) {
	for _, rule := range m.rules {
		if rule.UserID == userID && rule.AccountID == accountID && rule.Active && rule.ID != excludeRuleID {
			return true, nil
		}
	}
	return false, nil
}

// --- plans ---

func (m *MockRepository) CreatePlan(plan *IncomePlan) error {
	plan.CreatedAt = time.Now().UTC()
	if plan.Status == "" {
		plan.Status = PlanStatusPlanned
	}
	copied := *plan
	m.plans[plan.ID] = &copied
	return nil
}

func (m *MockRepository) GetPlan(id string) (*IncomePlan, error) {
	plan, ok := m.plans[id]
	if !ok {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

func (m *MockRepository) ListPlans(userID string) ([]*IncomePlan, error) {
	var plans []*IncomePlan
	for _, plan := range m.plans {
		if plan.UserID == userID {
			copied := *plan
			plans = append(plans, &copied)
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		if !plans[i].ExpectedDate.Equal(plans[j].ExpectedDate) {
			return plans[i].ExpectedDate.Before(plans[j].ExpectedDate)
		}
		return plans[i].ID < plans[j].ID
	})
	return plans, nil
}

func (m *MockRepository) UpdatePlan(plan *IncomePlan) error {
	if m.UpdatePlanErr != nil {
		return m.UpdatePlanErr
	}
	if _, ok := m.plans[plan.ID]; !ok {
		return fmt.Errorf("plan %s not found", plan.ID)
	}
	copied := *plan
	m.plans[plan.ID] = &copied
	return nil
}

func (m *MockRepository) DeletePlan(id string) error {
	if _, ok := m.plans[id]; !ok {
		return fmt.Errorf("plan %s not found", id)
	}
	delete(m.plans, id)
	for recordID, record := range m.records {
		if record.PlanID == id {
			m.deleteRecordCascade(recordID)
		}
	}
	return nil
}

func (m *MockRepository) UpdatePlanAndReplaceRecords(plan *IncomePlan, records []*AllocationRecord) error {
	if err := m.UpdatePlan(plan); err != nil {
		return err
	}
	return m.ReplaceRecordsForPlan(plan.ID, records)
}

// --- allocation records and matches ---

func (m *MockRepository) ReplaceRecordsForPlan(planID string, records []*AllocationRecord) error {
	m.ReplaceRecordsCalled = true
	m.LastReplacedPlanID = planID
	if m.ReplaceRecordsErr != nil {
		return m.ReplaceRecordsErr
	}
	for recordID, record := range m.records {
		if record.PlanID == planID {
			m.deleteRecordCascade(recordID)
		}
	}
	now := time.Now().UTC()
	for _, record := range records {
		record.PlanID = planID
		record.CreatedAt = now
		copied := *record
		m.records[record.ID] = &copied
	}
	return nil
}

func (m *MockRepository) deleteRecordCascade(recordID string) {
	delete(m.records, recordID)
	for matchID, match := range m.matches {
		if match.RecordID == recordID {
			delete(m.matches, matchID)
		}
	}
}

func (m *MockRepository) CreateRecord(record *AllocationRecord) error {
	record.CreatedAt = time.Now().UTC()
	copied := *record
	m.records[record.ID] = &copied
	return nil
}

func (m *MockRepository) GetRecord(id string) (*AllocationRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (m *MockRepository) ListRecordsForPlan(planID string) ([]*AllocationRecord, error) {
	var records []*AllocationRecord
	for _, record := range m.records {
		if record.PlanID == planID {
			copied := *record
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (m *MockRepository) UpdateRecordAmount(id string, amount float64) error {
	record, ok := m.records[id]
	if !ok {
		return fmt.Errorf("allocation record %s not found", id)
	}
	record.Amount = amount
	record.IsForecast = false
	return nil
}

func (m *MockRepository) SetRecordCompleted(id string, completed bool) error {
	record, ok := m.records[id]
	if !ok {
		return fmt.Errorf("allocation record %s not found", id)
	}
	record.ManuallyCompleted = completed
	return nil
}

func (m *MockRepository) DeleteRecord(id string) error {
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("allocation record %s not found", id)
	}
	m.deleteRecordCascade(id)
	return nil
}

func (m *MockRepository) CreateMatch(match *AllocationMatch) error {
	m.CreateMatchCalled = true
	m.LastCreatedMatch = match
	if m.CreateMatchErr != nil {
		return m.CreateMatchErr
	}
	match.CreatedAt = time.Now().UTC()
	copied := *match
	m.matches[match.ID] = &copied
	return nil
}

func (m *MockRepository) GetMatch(id string) (*AllocationMatch, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, nil
	}
	copied := *match
	return &copied, nil
}

func (m *MockRepository) DeleteMatch(id string) error {
	if _, ok := m.matches[id]; !ok {
		return fmt.Errorf("match %s not found", id)
	}
	delete(m.matches, id)
	return nil
}

func (m *MockRepository) ListMatchesForRecord(recordID string) ([]*AllocationMatch, error) {
	return m.listMatchesWhere(func(match *AllocationMatch) bool {
		return match.RecordID == recordID
	})
}

func (m *MockRepository) ListMatchesForTransaction(transactionID string) ([]*AllocationMatch, error) {
	return m.listMatchesWhere(func(match *AllocationMatch) bool {
		return match.TransactionID == transactionID
	})
}

func (m *MockRepository) listMatchesWhere(keep func(*AllocationMatch) bool) ([]*AllocationMatch, error) {
	var matches []*AllocationMatch
	for _, match := range m.matches {
		if keep(match) {
			copied := *match
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// --- transfers ---

func (m *MockRepository) SetTransferPair(outgoingID, incomingID, pairID string) error {
	if m.SetTransferErr != nil {
		return m.SetTransferErr
	}
	for _, id := range []string{outgoingID, incomingID} {
		tx, ok := m.transactions[id]
		if !ok {
			return fmt.Errorf("transaction %s not found", id)
		}
		pid := pairID
		tx.TransferPairID = &pid
	}
	return nil
}

func (m *MockRepository) ClearTransferPair(pairID string) error {
	cleared := false
	for _, tx := range m.transactions {
		if tx.TransferPairID != nil && *tx.TransferPairID == pairID {
			tx.TransferPairID = nil
			cleared = true
		}
	}
	if !cleared {
		return fmt.Errorf("transfer pair %s not found", pairID)
	}
	return nil
}

func ignoredKey(userID, outgoingID, incomingID string) string {
	return userID + "|" + outgoingID + "|" + incomingID
}

func (m *MockRepository) CreateIgnoredPair(pair *IgnoredTransferPair) error {
	pair.CreatedAt = time.Now().UTC()
	key := ignoredKey(pair.UserID, pair.OutgoingTransactionID, pair.IncomingTransactionID)
	if _, ok := m.ignoredPairs[key]; ok {
		return nil
	}
	copied := *pair
	m.ignoredPairs[key] = &copied
	return nil
}

func (m *MockRepository) DeleteIgnoredPair(userID, outgoingID, incomingID string) error {
	key := ignoredKey(userID, outgoingID, incomingID)
	if _, ok := m.ignoredPairs[key]; !ok {
		return fmt.Errorf("ignored pair %s/%s not found", outgoingID, incomingID)
	}
	delete(m.ignoredPairs, key)
	return nil
}

func (m *MockRepository) ListIgnoredPairs(userID string) ([]*IgnoredTransferPair, error) {
	var pairs []*IgnoredTransferPair
	for _, pair := range m.ignoredPairs {
		if pair.UserID == userID {
			copied := *pair
			pairs = append(pairs, &copied)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].OutgoingTransactionID+pairs[i].IncomingTransactionID <
			pairs[j].OutgoingTransactionID+pairs[j].IncomingTransactionID
	})
	return pairs, nil
}

// --- transactions and accounts ---

func (m *MockRepository) GetTransaction(id string) (*Transaction, error) {
	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (m *MockRepository) ListTransactions(filters TransactionFilters) ([]*Transaction, error) {
	var txs []*Transaction
	for _, tx := range m.transactions {
		if tx.UserID != filters.UserID {
			continue
		}
		if filters.AccountID != "" && tx.AccountID != filters.AccountID {
			continue
		}
		if filters.From != nil && tx.Date.Before(*filters.From) {
			continue
		}
		if filters.To != nil && tx.Date.After(*filters.To) {
			continue
		}
		if filters.Unpaired && tx.TransferPairID != nil {
			continue
		}
		if filters.Unconsumed {
			var consumed float64
			for _, match := range m.matches {
				if match.TransactionID == tx.ID {
					consumed += match.Amount
				}
			}
			if math.Abs(tx.Amount)-consumed <= 0.01 {
				continue
			}
		}
		copied := *tx
		txs = append(txs, &copied)
	}
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	if filters.Limit > 0 && len(txs) > filters.Limit {
		txs = txs[:filters.Limit]
	}
	return txs, nil
}

func (m *MockRepository) SaveTransaction(tx *Transaction) error {
	copied := *tx
	m.transactions[tx.ID] = &copied
	return nil
}

func (m *MockRepository) GetAccount(id string) (*Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (m *MockRepository) ListAccounts(userID string) ([]*Account, error) {
	var accounts []*Account
	for _, account := range m.accounts {
		if account.UserID == userID {
			copied := *account
			accounts = append(accounts, &copied)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name != accounts[j].Name {
			return accounts[i].Name < accounts[j].Name
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (m *MockRepository) SaveAccount(account *Account) error {
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}
