package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseDate = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func makeCandidate(id string, amount float64, daysOffset int) Candidate {
	return Candidate{
		ID:        id,
		AccountID: "acct-1",
		Amount:    amount,
		Date:      baseDate.AddDate(0, 0, daysOffset),
	}
}

func TestScore_ExactMatch(t *testing.T) {
	m, ok := Score(1500.00, baseDate, makeCandidate("tx1", 1500.00, 0), IncomeProfile())

	require.True(t, ok)
	assert.Equal(t, TierExact, m.Tier)
	assert.Equal(t, ConfidenceHigh, m.Confidence)
	assert.InDelta(t, 0.0, m.AmountDiff, 0.001)
	assert.InDelta(t, 0.0, m.DaysDiff, 0.001)
}

func TestScore_CloseMatch_SameDay_HighConfidence(t *testing.T) {
	// 1% off, same day
	m, ok := Score(1000.00, baseDate, makeCandidate("tx1", 990.00, 0), IncomeProfile())

	require.True(t, ok)
	assert.Equal(t, TierClose, m.Tier)
	assert.Equal(t, ConfidenceHigh, m.Confidence)
}

func TestScore_CloseMatch_DistantDay_MediumConfidence(t *testing.T) {
	// 1% off, 4 days away
	m, ok := Score(1000.00, baseDate, makeCandidate("tx1", 990.00, 4), IncomeProfile())

	require.True(t, ok)
	assert.Equal(t, TierClose, m.Tier)
	assert.Equal(t, ConfidenceMedium, m.Confidence)
}

func TestScore_LooseMatch(t *testing.T) {
	// 10% off, 2 days away: loose/medium
	m, ok := Score(1000.00, baseDate, makeCandidate("tx1", 900.00, 2), IncomeProfile())
	require.True(t, ok)
	assert.Equal(t, TierLoose, m.Tier)
	assert.Equal(t, ConfidenceMedium, m.Confidence)

	// 10% off, 6 days away: loose/low
	m, ok = Score(1000.00, baseDate, makeCandidate("tx2", 900.00, 6), IncomeProfile())
	require.True(t, ok)
	assert.Equal(t, TierLoose, m.Tier)
	assert.Equal(t, ConfidenceLow, m.Confidence)
}

func TestScore_OutsideWindowExcluded(t *testing.T) {
	// 10 days from expected with a 7-day window must never match.
	_, ok := Score(1000.00, baseDate, makeCandidate("tx1", 1000.00, 10), IncomeProfile())
	assert.False(t, ok)

	_, ok = Score(1000.00, baseDate, makeCandidate("tx2", 1000.00, -10), IncomeProfile())
	assert.False(t, ok)
}

func TestScore_RatioBoundExcluded(t *testing.T) {
	// 30% off exceeds the income profile's 20% bound.
	_, ok := Score(1000.00, baseDate, makeCandidate("tx1", 1300.00, 0), IncomeProfile())
	assert.False(t, ok)
}

func TestScore_PartialFundingBypassesRatio(t *testing.T) {
	// A $100 transaction can part-fund a $500 record.
	m, ok := Score(500.00, baseDate, makeCandidate("tx1", -100.00, 1), AllocationProfile())
	require.True(t, ok)
	assert.Equal(t, TierLoose, m.Tier)

	// But a $700 transaction overshoots and is excluded.
	_, ok = Score(500.00, baseDate, makeCandidate("tx2", -700.00, 1), AllocationProfile())
	assert.False(t, ok)
}

func TestScore_OppositeSignConstraint(t *testing.T) {
	p := TransferProfile()

	// Outgoing leg expects an incoming (positive) candidate.
	_, ok := Score(-250.00, baseDate, makeCandidate("tx1", -250.00, 0), p)
	assert.False(t, ok)

	m, ok := Score(-250.00, baseDate, makeCandidate("tx2", 250.00, 0), p)
	require.True(t, ok)
	assert.Equal(t, TierExact, m.Tier)
}

func TestScore_TransferScenario(t *testing.T) {
	// Outgoing -$250.00 on Jan 5, incoming $248.75 on Jan 6:
	// ratio = 0.5% <= 5%, 1 day <= 2 days -> close/high.
	outDate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	incoming := Candidate{
		ID:        "tx-in",
		AccountID: "acct-2",
		Amount:    248.75,
		Date:      time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
	}

	m, ok := Score(-250.00, outDate, incoming, TransferProfile())

	require.True(t, ok)
	assert.Equal(t, TierClose, m.Tier)
	assert.Equal(t, ConfidenceHigh, m.Confidence)
	assert.InDelta(t, 0.005, m.Ratio, 0.0001)
	assert.InDelta(t, 1.0, m.DaysDiff, 0.001)
}

func TestScore_ZeroExpectedAmount(t *testing.T) {
	m, ok := Score(0, baseDate, makeCandidate("tx1", 0, 0), IncomeProfile())
	require.True(t, ok)
	assert.Equal(t, TierExact, m.Tier)

	// Non-zero candidate against zero expected: ratio saturates.
	_, ok = Score(0, baseDate, makeCandidate("tx2", 100, 0), IncomeProfile())
	assert.False(t, ok)
}

func TestFindCandidates_RankedByDistance(t *testing.T) {
	pool := []Candidate{
		makeCandidate("tx-far", 1000.00, 5),
		makeCandidate("tx-near", 1000.00, 1),
		makeCandidate("tx-off", 950.00, 1), // 5% off
	}

	matches := FindCandidates(1000.00, baseDate, pool, IncomeProfile(), nil)

	require.Len(t, matches, 3)
	assert.Equal(t, "tx-near", matches[0].TransactionID)
	assert.Equal(t, 1, matches[0].Rank)
	assert.Equal(t, "tx-off", matches[1].TransactionID)
	assert.Equal(t, "tx-far", matches[2].TransactionID)
	assert.Equal(t, 3, matches[2].Rank)
}

func TestFindCandidates_Monotonic(t *testing.T) {
	// A candidate strictly closer in both dimensions never ranks worse.
	pool := []Candidate{
		makeCandidate("worse", 940.00, 4),
		makeCandidate("better", 980.00, 2),
	}

	matches := FindCandidates(1000.00, baseDate, pool, IncomeProfile(), nil)

	require.Len(t, matches, 2)
	assert.Equal(t, "better", matches[0].TransactionID)
}

func TestFindCandidates_StableTieBreak(t *testing.T) {
	pool := []Candidate{
		makeCandidate("tx-b", 1000.00, 1),
		makeCandidate("tx-a", 1000.00, 1),
	}

	matches := FindCandidates(1000.00, baseDate, pool, IncomeProfile(), nil)

	require.Len(t, matches, 2)
	assert.Equal(t, "tx-a", matches[0].TransactionID)
	assert.Equal(t, "tx-b", matches[1].TransactionID)
}

func TestFindCandidates_ExcludedSkipped(t *testing.T) {
	pool := []Candidate{
		makeCandidate("tx1", 1000.00, 0),
		makeCandidate("tx2", 1000.00, 1),
	}

	matches := FindCandidates(1000.00, baseDate, pool, IncomeProfile(), map[string]bool{"tx1": true})

	require.Len(t, matches, 1)
	assert.Equal(t, "tx2", matches[0].TransactionID)
}

func TestFindCandidates_EmptyPool(t *testing.T) {
	matches := FindCandidates(1000.00, baseDate, nil, IncomeProfile(), nil)
	assert.Empty(t, matches)
}
