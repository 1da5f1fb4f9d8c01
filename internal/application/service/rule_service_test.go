package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

func newRuleService() (*RuleService, *storage.MockRepository) {
	repo := storage.NewMockRepository()
	return NewRuleService(repo, testLogger()), repo
}

func TestCreateRule_AssignsNextPriority(t *testing.T) {
	svc, _ := newRuleService()

	first, err := svc.CreateRule("user-1", RuleInput{
		AccountID: "acct-savings",
		Category:  "savings",
		RuleType:  "percent",
		Value:     20,
		Active:    true,
	})
	require.NoError(t, err)

	second, err := svc.CreateRule("user-1", RuleInput{
		AccountID: "acct-invest",
		Category:  "investing",
		RuleType:  "fixed",
		Value:     500,
		Active:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, 2, second.Priority)
}

func TestCreateRule_RejectsSecondActiveRuleForAccount(t *testing.T) {
	svc, _ := newRuleService()

	_, err := svc.CreateRule("user-1", RuleInput{
		AccountID: "acct-savings",
		Category:  "savings",
		RuleType:  "percent",
		Value:     20,
		Active:    true,
	})
	require.NoError(t, err)

	_, err = svc.CreateRule("user-1", RuleInput{
		AccountID: "acct-savings",
		Category:  "savings",
		RuleType:  "fixed",
		Value:     100,
		Active:    true,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateRule_AllowsInactiveDuplicate(t *testing.T) {
	svc, _ := newRuleService()

	_, err := svc.CreateRule("user-1", RuleInput{
		AccountID: "acct-savings",
		Category:  "savings",
		RuleType:  "percent",
		Value:     20,
		Active:    true,
	})
	require.NoError(t, err)

	_, err = svc.CreateRule("user-1", RuleInput{
		AccountID: "acct-savings",
		Category:  "savings",
		RuleType:  "fixed",
		Value:     100,
		Active:    false,
	})
	assert.NoError(t, err)
}

func TestCreateRule_ValidatesInput(t *testing.T) {
	svc, _ := newRuleService()

	cases := []struct {
		name  string
		input RuleInput
	}{
		{"missing account", RuleInput{Category: "savings", RuleType: "percent", Value: 10}},
		{"bad category", RuleInput{AccountID: "a", Category: "gambling", RuleType: "percent", Value: 10}},
		{"bad rule type", RuleInput{AccountID: "a", Category: "savings", RuleType: "ratio", Value: 10}},
		{"percent over 100", RuleInput{AccountID: "a", Category: "savings", RuleType: "percent", Value: 120}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRule("user-1", tc.input)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestToggleRule_ActivationRechecksAccountConstraint(t *testing.T) {
	svc, repo := newRuleService()
	active := seedRule(t, repo, "rule-a", "user-1", "acct-savings", "percent", 20, 1, true)
	inactive := seedRule(t, repo, "rule-b", "user-1", "acct-savings", "fixed", 100, 2, false)

	_, err := svc.ToggleRule("user-1", inactive.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Deactivate the blocker, then activation succeeds.
	_, err = svc.ToggleRule("user-1", active.ID)
	require.NoError(t, err)

	toggled, err := svc.ToggleRule("user-1", inactive.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Active)
}

func TestUpdateRule_OwnershipEnforced(t *testing.T) {
	svc, repo := newRuleService()
	seedRule(t, repo, "rule-a", "user-1", "acct-savings", "percent", 20, 1, true)

	_, err := svc.UpdateRule("user-2", "rule-a", RuleInput{
		AccountID: "acct-savings",
		Category:  "savings",
		RuleType:  "percent",
		Value:     30,
		Active:    true,
	})

	var oerr *OwnershipError
	require.ErrorAs(t, err, &oerr)
}

func TestDeleteRule_NotFound(t *testing.T) {
	svc, _ := newRuleService()

	err := svc.DeleteRule("user-1", "missing")

	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestReorderRules_RequiresCompleteSet(t *testing.T) {
	svc, repo := newRuleService()
	seedRule(t, repo, "rule-a", "user-1", "acct-1", "percent", 20, 1, true)
	seedRule(t, repo, "rule-b", "user-1", "acct-2", "fixed", 100, 2, true)

	var verr *ValidationError
	assert.ErrorAs(t, svc.ReorderRules("user-1", []string{"rule-a"}), &verr)
	assert.ErrorAs(t, svc.ReorderRules("user-1", []string{"rule-a", "rule-a"}), &verr)
	assert.ErrorAs(t, svc.ReorderRules("user-1", []string{"rule-a", "rule-x"}), &verr)

	require.NoError(t, svc.ReorderRules("user-1", []string{"rule-b", "rule-a"}))

	rules, err := svc.ListRules("user-1", false)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "rule-b", rules[0].ID)
}
