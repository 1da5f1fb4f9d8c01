package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

func newPlanService() (*PlanService, *storage.MockRepository) {
	repo := storage.NewMockRepository()
	return NewPlanService(repo, testLogger()), repo
}

func TestCreatePlan_Validation(t *testing.T) {
	svc, _ := newPlanService()

	var verr *ValidationError

	_, err := svc.CreatePlan("user-1", PlanInput{ExpectedDate: day(2024, time.March, 1), ExpectedAmount: 100})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.CreatePlan("user-1", PlanInput{Label: "paycheck", ExpectedDate: day(2024, time.March, 1), ExpectedAmount: 0})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.CreatePlan("user-1", PlanInput{Label: "paycheck", ExpectedAmount: 100})
	assert.ErrorAs(t, err, &verr)
}

func TestCreatePlan_StartsPlanned(t *testing.T) {
	svc, _ := newPlanService()

	plan, err := svc.CreatePlan("user-1", PlanInput{
		Label:          "paycheck",
		ExpectedDate:   day(2024, time.March, 1),
		ExpectedAmount: 2500,
		Recurrence:     "biweekly",
	})
	require.NoError(t, err)

	assert.Equal(t, storage.PlanStatusPlanned, plan.Status)
	assert.Nil(t, plan.ActualAmount)
	assert.Nil(t, plan.MatchedTransactionID)
}

func TestMarkMissed_RejectsMatchedPlan(t *testing.T) {
	svc, repo := newPlanService()
	plan := seedPlan(t, repo, "plan-1", "user-1", 2500, day(2024, time.March, 1))
	plan.Status = storage.PlanStatusMatched
	require.NoError(t, repo.UpdatePlan(plan))

	_, err := svc.MarkMissed("user-1", "plan-1")

	var serr *StateConflictError
	require.ErrorAs(t, err, &serr)
}

func TestMarkMissed_ThenRevert(t *testing.T) {
	svc, repo := newPlanService()
	seedPlan(t, repo, "plan-1", "user-1", 2500, day(2024, time.March, 1))

	missed, err := svc.MarkMissed("user-1", "plan-1")
	require.NoError(t, err)
	assert.Equal(t, storage.PlanStatusMissed, missed.Status)

	reverted, err := svc.RevertMissed("user-1", "plan-1")
	require.NoError(t, err)
	assert.Equal(t, storage.PlanStatusPlanned, reverted.Status)

	// Reverting a plan that is not missed conflicts.
	_, err = svc.RevertMissed("user-1", "plan-1")
	var serr *StateConflictError
	require.ErrorAs(t, err, &serr)
}

func TestDeletePlan_OwnershipEnforced(t *testing.T) {
	svc, repo := newPlanService()
	seedPlan(t, repo, "plan-1", "user-1", 2500, day(2024, time.March, 1))

	var oerr *OwnershipError
	require.ErrorAs(t, svc.DeletePlan("user-2", "plan-1"), &oerr)

	require.NoError(t, svc.DeletePlan("user-1", "plan-1"))

	var nferr *NotFoundError
	require.ErrorAs(t, svc.DeletePlan("user-1", "plan-1"), &nferr)
}

func TestAmount_PrefersActualOnceMatched(t *testing.T) {
	actual := 2300.0
	plan := &storage.IncomePlan{ExpectedAmount: 2500}

	assert.Equal(t, 2500.0, plan.Amount())

	plan.ActualAmount = &actual
	assert.Equal(t, 2300.0, plan.Amount())
}
