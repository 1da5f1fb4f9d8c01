package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ren-perez/saldo-backend/internal/infrastructure/config"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		IncomeWindowDays:     7,
		IncomeMaxRatio:       0.20,
		AllocationWindowDays: 30,
		AllocationMaxRatio:   0.20,
		TransferMaxDays:      2,
		TransferMaxRatio:     0.05,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func seedTransaction(t *testing.T, repo *storage.MockRepository, id, userID, accountID string, amount float64, date time.Time) *storage.Transaction {
	t.Helper()
	tx := &storage.Transaction{
		ID:        id,
		UserID:    userID,
		AccountID: accountID,
		Amount:    amount,
		Date:      date,
	}
	require.NoError(t, repo.SaveTransaction(tx))
	return tx
}

func seedPlan(t *testing.T, repo *storage.MockRepository, id, userID string, amount float64, date time.Time) *storage.IncomePlan {
	t.Helper()
	plan := &storage.IncomePlan{
		ID:             id,
		UserID:         userID,
		Label:          "paycheck",
		ExpectedDate:   date,
		ExpectedAmount: amount,
		Status:         storage.PlanStatusPlanned,
	}
	require.NoError(t, repo.CreatePlan(plan))
	return plan
}

func seedRecord(t *testing.T, repo *storage.MockRepository, id, planID, accountID string, amount float64) *storage.AllocationRecord {
	t.Helper()
	record := &storage.AllocationRecord{
		ID:        id,
		PlanID:    planID,
		AccountID: accountID,
		Category:  "savings",
		Amount:    amount,
	}
	require.NoError(t, repo.CreateRecord(record))
	return record
}

func seedRule(t *testing.T, repo *storage.MockRepository, id, userID, accountID, ruleType string, value float64, priority int, active bool) *storage.AllocationRule {
	t.Helper()
	rule := &storage.AllocationRule{
		ID:        id,
		UserID:    userID,
		AccountID: accountID,
		Category:  "savings",
		RuleType:  ruleType,
		Value:     value,
		Priority:  priority,
		Active:    active,
	}
	require.NoError(t, repo.CreateRule(rule))
	return rule
}
