package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ren-perez/saldo-backend/internal/domain/waterfall"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// RuleInput holds the caller-supplied fields of an allocation rule.
type RuleInput struct {
	AccountID string
	Category  string
	RuleType  string
	Value     float64
	Active    bool
}

// RuleService manages the allocation rule lifecycle.
type RuleService struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewRuleService creates a new rule service.
func NewRuleService(store storage.Repository, logger *slog.Logger) *RuleService {
	return &RuleService{storage: store, logger: logger}
}

// CreateRule validates and persists a new rule at the end of the user's
// priority order.
func (s *RuleService) CreateRule(userID string, input RuleInput) (*storage.AllocationRule, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	if input.Active {
		if err := s.checkDuplicateActive(userID, input.AccountID, ""); err != nil {
			return nil, err
		}
	}

	existing, err := s.storage.ListRules(userID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	priority := 1
	for _, r := range existing {
		if r.Priority >= priority {
			priority = r.Priority + 1
		}
	}

	now := time.Now()
	rule := &storage.AllocationRule{
		ID:        uuid.NewString(),
		UserID:    userID,
		AccountID: input.AccountID,
		Category:  input.Category,
		RuleType:  input.RuleType,
		Value:     input.Value,
		Priority:  priority,
		Active:    input.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.storage.CreateRule(rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	s.logger.Info("rule created",
		"rule_id", rule.ID,
		"account_id", rule.AccountID,
		"type", rule.RuleType,
		"priority", rule.Priority,
	)

	return rule, nil
}

// ListRules returns the user's rules ordered by priority.
func (s *RuleService) ListRules(userID string, activeOnly bool) ([]*storage.AllocationRule, error) {
	return s.storage.ListRules(userID, activeOnly)
}

// UpdateRule replaces the mutable fields of an existing rule.
func (s *RuleService) UpdateRule(userID, ruleID string, input RuleInput) (*storage.AllocationRule, error) {
	rule, err := s.getOwnedRule(userID, ruleID)
	if err != nil {
		return nil, err
	}

	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	if input.Active {
		if err := s.checkDuplicateActive(userID, input.AccountID, ruleID); err != nil {
			return nil, err
		}
	}

	rule.AccountID = input.AccountID
	rule.Category = input.Category
	rule.RuleType = input.RuleType
	rule.Value = input.Value
	rule.Active = input.Active
	rule.UpdatedAt = time.Now()

	if err := s.storage.UpdateRule(rule); err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}

	s.logger.Info("rule updated", "rule_id", rule.ID)
	return rule, nil
}

// ToggleRule flips a rule's active flag. Activation re-checks the
// one-active-rule-per-account constraint.
func (s *RuleService) ToggleRule(userID, ruleID string) (*storage.AllocationRule, error) {
	rule, err := s.getOwnedRule(userID, ruleID)
	if err != nil {
		return nil, err
	}

	if !rule.Active {
		if err := s.checkDuplicateActive(userID, rule.AccountID, ruleID); err != nil {
			return nil, err
		}
	}

	rule.Active = !rule.Active
	rule.UpdatedAt = time.Now()

	if err := s.storage.UpdateRule(rule); err != nil {
		return nil, fmt.Errorf("failed to toggle rule: %w", err)
	}

	s.logger.Info("rule toggled", "rule_id", rule.ID, "active", rule.Active)
	return rule, nil
}

// DeleteRule removes a rule. Allocation records produced by past runs
// are untouched.
func (s *RuleService) DeleteRule(userID, ruleID string) error {
	if _, err := s.getOwnedRule(userID, ruleID); err != nil {
		return err
	}

	if err := s.storage.DeleteRule(ruleID); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	s.logger.Info("rule deleted", "rule_id", ruleID)
	return nil
}

// ReorderRules rewrites the user's rule priorities to match orderedIDs.
// The list must contain every rule the user owns exactly once.
func (s *RuleService) ReorderRules(userID string, orderedIDs []string) error {
	existing, err := s.storage.ListRules(userID, false)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	if len(orderedIDs) != len(existing) {
		return NewValidationError("reorder requires all %d rules, got %d", len(existing), len(orderedIDs))
	}

	owned := make(map[string]bool, len(existing))
	for _, r := range existing {
		owned[r.ID] = true
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !owned[id] {
			return NewValidationError("unknown rule in reorder: %s", id)
		}
		if seen[id] {
			return NewValidationError("duplicate rule in reorder: %s", id)
		}
		seen[id] = true
	}

	if err := s.storage.ReorderRules(userID, orderedIDs); err != nil {
		return fmt.Errorf("failed to reorder rules: %w", err)
	}

	s.logger.Info("rules reordered", "user_id", userID, "count", len(orderedIDs))
	return nil
}

func (s *RuleService) getOwnedRule(userID, ruleID string) (*storage.AllocationRule, error) {
	rule, err := s.storage.GetRule(ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	if rule == nil {
		return nil, &NotFoundError{Entity: "rule", ID: ruleID}
	}
	if rule.UserID != userID {
		return nil, &OwnershipError{Entity: "rule", ID: ruleID}
	}
	return rule, nil
}

func (s *RuleService) validateInput(input RuleInput) error {
	if input.AccountID == "" {
		return NewValidationError("account_id is required")
	}
	if !waterfall.ValidCategory(waterfall.Category(input.Category)) {
		return NewValidationError("invalid category: %s", input.Category)
	}
	if !waterfall.ValidRuleType(waterfall.RuleType(input.RuleType)) {
		return NewValidationError("invalid rule type: %s", input.RuleType)
	}
	if input.RuleType == string(waterfall.RuleTypePercent) && input.Value > 100 {
		return NewValidationError("percent value cannot exceed 100, got %v", input.Value)
	}
	return nil
}

func (s *RuleService) checkDuplicateActive(userID, accountID, excludeRuleID string) error {
	exists, err := s.storage.HasActiveRuleForAccount(userID, accountID, excludeRuleID)
	if err != nil {
		return fmt.Errorf("failed to check active rules: %w", err)
	}
	if exists {
		return NewValidationError("an active rule already targets account %s", accountID)
	}
	return nil
}
