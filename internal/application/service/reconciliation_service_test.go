package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

func newReconciliationService() (*ReconciliationService, *MatchService, *storage.MockRepository) {
	repo := storage.NewMockRepository()
	return NewReconciliationService(repo, testLogger()),
		NewMatchService(repo, testMatchingConfig(), testLogger()),
		repo
}

func TestChecklist_ProgressesFromPendingToComplete(t *testing.T) {
	recon, match, repo := newReconciliationService()
	seedPlan(t, repo, "plan-1", "user-1", 300, day(2024, time.March, 1))
	seedRecord(t, repo, "rec-1", "plan-1", "acct-savings", 300)
	seedTransaction(t, repo, "tx-1", "user-1", "acct-savings", 100, day(2024, time.March, 2))
	seedTransaction(t, repo, "tx-2", "user-1", "acct-savings", 150, day(2024, time.March, 3))
	seedTransaction(t, repo, "tx-3", "user-1", "acct-savings", 50, day(2024, time.March, 4))

	checklist, err := recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)
	require.Len(t, checklist.Items, 1)
	assert.Equal(t, RecordStatusPending, checklist.Items[0].Status)
	assert.Equal(t, 300.0, checklist.Items[0].RemainingAmount)
	assert.False(t, checklist.IsComplete)

	_, err = match.MatchAllocation("user-1", "rec-1", "tx-1", 100)
	require.NoError(t, err)
	_, err = match.MatchAllocation("user-1", "rec-1", "tx-2", 150)
	require.NoError(t, err)

	checklist, err = recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)
	item := checklist.Items[0]
	assert.Equal(t, RecordStatusPartial, item.Status)
	assert.InDelta(t, 250, item.MatchedAmount, 0.001)
	assert.InDelta(t, 50, item.RemainingAmount, 0.001)
	assert.Len(t, item.Matches, 2)

	_, err = match.MatchAllocation("user-1", "rec-1", "tx-3", 50)
	require.NoError(t, err)

	checklist, err = recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)
	item = checklist.Items[0]
	assert.Equal(t, RecordStatusComplete, item.Status)
	assert.Equal(t, CompletionDerived, item.CompletionSource)
	assert.InDelta(t, 0, item.RemainingAmount, 0.001)
	assert.Equal(t, 1, checklist.CompletedCount)
	assert.True(t, checklist.IsComplete)
}

func TestChecklist_ManualCompletionWinsOverDerived(t *testing.T) {
	recon, _, repo := newReconciliationService()
	seedPlan(t, repo, "plan-1", "user-1", 300, day(2024, time.March, 1))
	record := seedRecord(t, repo, "rec-1", "plan-1", "acct-savings", 300)
	require.NoError(t, repo.SetRecordCompleted(record.ID, true))

	checklist, err := recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)

	item := checklist.Items[0]
	assert.Equal(t, RecordStatusComplete, item.Status)
	assert.Equal(t, CompletionManual, item.CompletionSource)
	// Nothing was actually matched; remaining still reflects reality.
	assert.Equal(t, 300.0, item.RemainingAmount)
	assert.True(t, checklist.IsComplete)
}

func TestChecklist_UnallocatedAmountBlocksCompletion(t *testing.T) {
	recon, match, repo := newReconciliationService()
	seedPlan(t, repo, "plan-1", "user-1", 1000, day(2024, time.March, 1))
	seedRecord(t, repo, "rec-1", "plan-1", "acct-savings", 300)
	seedTransaction(t, repo, "tx-1", "user-1", "acct-savings", 300, day(2024, time.March, 2))

	_, err := match.MatchAllocation("user-1", "rec-1", "tx-1", 300)
	require.NoError(t, err)

	checklist, err := recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)

	// Every record is complete, but 700 of the plan was never allocated
	// to any record, so the plan as a whole is not reconciled.
	assert.Equal(t, 1, checklist.CompletedCount)
	assert.Equal(t, checklist.TotalItems, checklist.CompletedCount)
	assert.InDelta(t, 700, checklist.Unallocated, 0.001)
	assert.False(t, checklist.IsComplete)
}

func TestChecklist_PlanTotalsAndUnallocated(t *testing.T) {
	recon, match, repo := newReconciliationService()
	seedPlan(t, repo, "plan-1", "user-1", 1000, day(2024, time.March, 1))
	seedRecord(t, repo, "rec-a", "plan-1", "acct-savings", 400)
	seedRecord(t, repo, "rec-b", "plan-1", "acct-invest", 350)
	seedTransaction(t, repo, "tx-1", "user-1", "acct-savings", 400, day(2024, time.March, 2))

	_, err := match.MatchAllocation("user-1", "rec-a", "tx-1", 400)
	require.NoError(t, err)

	checklist, err := recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)

	assert.Equal(t, 2, checklist.TotalItems)
	assert.Equal(t, 1, checklist.CompletedCount)
	assert.InDelta(t, 750, checklist.TotalAllocated, 0.001)
	assert.InDelta(t, 400, checklist.TotalMatched, 0.001)
	assert.InDelta(t, 250, checklist.Unallocated, 0.001)
	assert.False(t, checklist.IsComplete)
}

func TestChecklist_UsesActualAmountForUnallocated(t *testing.T) {
	recon, _, repo := newReconciliationService()
	plan := seedPlan(t, repo, "plan-1", "user-1", 1000, day(2024, time.March, 1))
	actual := 900.0
	plan.Status = storage.PlanStatusMatched
	plan.ActualAmount = &actual
	require.NoError(t, repo.UpdatePlan(plan))
	seedRecord(t, repo, "rec-a", "plan-1", "acct-savings", 400)

	checklist, err := recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)

	assert.InDelta(t, 500, checklist.Unallocated, 0.001)
}

func TestChecklist_EmptyPlanIsNotComplete(t *testing.T) {
	recon, _, repo := newReconciliationService()
	seedPlan(t, repo, "plan-1", "user-1", 1000, day(2024, time.March, 1))

	checklist, err := recon.DistributionChecklist("user-1", "plan-1")
	require.NoError(t, err)

	assert.Zero(t, checklist.TotalItems)
	assert.False(t, checklist.IsComplete)
	assert.Equal(t, 1000.0, checklist.Unallocated)
}

func TestChecklist_OwnershipEnforced(t *testing.T) {
	recon, _, repo := newReconciliationService()
	seedPlan(t, repo, "plan-1", "user-1", 1000, day(2024, time.March, 1))

	_, err := recon.DistributionChecklist("user-2", "plan-1")

	var oerr *OwnershipError
	require.ErrorAs(t, err, &oerr)
}
