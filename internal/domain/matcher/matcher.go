// Package matcher provides the shared fuzzy-matching heuristic that links
// forecasted money movements to observed bank transactions.
//
// The same scoring function backs three features: matching an income plan
// to the deposit that realized it, matching allocation records to the
// transfers that funded them, and detecting transfer pairs between
// accounts. The call sites differ only in their Profile (window size,
// ratio bound, partial-amount handling, sign constraint).
//
// Example usage:
//
//	matches := matcher.FindCandidates(plan.ExpectedAmount, plan.ExpectedDate,
//		pool, matcher.IncomeProfile(), excludedIDs)
//	if len(matches) > 0 {
//		best := matches[0]
//	}
package matcher

import (
	"math"
	"sort"
	"time"
)

// Tier classifies how closely a candidate's amount tracks the expected one.
type Tier string

const (
	TierExact Tier = "exact"
	TierClose Tier = "close"
	TierLoose Tier = "loose"
)

// Confidence is the suggestion strength surfaced to the user.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SignConstraint restricts which candidate signs are admissible.
type SignConstraint int

const (
	// SignAny matches on magnitudes and ignores direction.
	SignAny SignConstraint = iota
	// SignOpposite requires the candidate's sign to oppose the expected
	// amount's sign (transfer legs).
	SignOpposite
)

// Profile parameterizes the heuristic for one call site.
type Profile struct {
	// WindowDays is the maximum date distance, in days, for a candidate
	// to be considered at all.
	WindowDays float64
	// MaxRatio is the maximum relative amount difference.
	MaxRatio float64
	// AllowPartial keeps candidates whose magnitude is below the expected
	// amount regardless of MaxRatio, so small transactions can part-fund
	// a larger record. Overshooting candidates still respect MaxRatio.
	AllowPartial bool
	// Sign constrains candidate direction relative to the expected amount.
	Sign SignConstraint
}

// IncomeProfile matches income plans to single whole-amount deposits.
func IncomeProfile() Profile {
	return Profile{WindowDays: 7, MaxRatio: 0.20}
}

// AllocationProfile matches allocation records to funding transactions,
// allowing partial amounts.
func AllocationProfile() Profile {
	return Profile{WindowDays: 30, MaxRatio: 0.20, AllowPartial: true}
}

// TransferProfile detects opposite-signed transfer legs across accounts.
func TransferProfile() Profile {
	return Profile{WindowDays: 2, MaxRatio: 0.05, Sign: SignOpposite}
}

// Candidate is the minimal transaction view the matcher scores against.
type Candidate struct {
	ID        string
	AccountID string
	Amount    float64
	Date      time.Time
}

// Match is one scored candidate.
type Match struct {
	TransactionID string
	AmountDiff    float64
	Ratio         float64
	DaysDiff      float64
	Tier          Tier
	Confidence    Confidence
	// Distance is the ranking score; lower is better. It is monotonic in
	// both DaysDiff and Ratio.
	Distance float64
	// Rank is the 1-based position after sorting, set by FindCandidates.
	Rank int
}

// ratioDayWeight normalizes ratio against date distance so that a 2%
// amount difference weighs the same as one day. Tunable policy, not a
// correctness requirement.
const ratioDayWeight = 50.0

const hoursPerDay = 24.0

// Score evaluates a single candidate against an expected amount and date.
// The second return value is false when the candidate is outside the
// profile's window, ratio bound, or sign constraint.
func Score(expectedAmount float64, expectedDate time.Time, c Candidate, p Profile) (Match, bool) {
	if p.Sign == SignOpposite {
		if expectedAmount == 0 || c.Amount == 0 {
			return Match{}, false
		}
		if (expectedAmount < 0) == (c.Amount < 0) {
			return Match{}, false
		}
	}

	daysDiff := math.Abs(expectedDate.Sub(c.Date).Hours() / hoursPerDay)
	if daysDiff > p.WindowDays {
		return Match{}, false
	}

	absExpected := math.Abs(expectedAmount)
	amountDiff := math.Abs(absExpected - math.Abs(c.Amount))

	var ratio float64
	switch {
	case absExpected > 0:
		ratio = amountDiff / absExpected
	case amountDiff > 0:
		ratio = 1
	}

	// Partial funding: an undershooting candidate is always admissible
	// when the profile allows it.
	partial := p.AllowPartial && math.Abs(c.Amount) <= absExpected
	if !partial && ratio > p.MaxRatio {
		return Match{}, false
	}

	m := Match{
		TransactionID: c.ID,
		AmountDiff:    amountDiff,
		Ratio:         ratio,
		DaysDiff:      daysDiff,
		Distance:      daysDiff + ratio*ratioDayWeight,
	}
	m.Tier, m.Confidence = classify(amountDiff, ratio, daysDiff)

	return m, true
}

// classify assigns tier and confidence from the scored dimensions.
func classify(amountDiff, ratio, daysDiff float64) (Tier, Confidence) {
	switch {
	case amountDiff < 0.01:
		return TierExact, ConfidenceHigh
	case ratio <= 0.02:
		if daysDiff <= 1 {
			return TierClose, ConfidenceHigh
		}
		return TierClose, ConfidenceMedium
	case daysDiff <= 3:
		return TierLoose, ConfidenceMedium
	default:
		return TierLoose, ConfidenceLow
	}
}

// FindCandidates scores every transaction in the pool and returns the
// admissible ones ranked best-first. Candidates listed in excluded are
// skipped before scoring. Ordering is deterministic: ties on distance are
// broken by transaction ID.
func FindCandidates(expectedAmount float64, expectedDate time.Time, pool []Candidate, p Profile, excluded map[string]bool) []Match {
	matches := make([]Match, 0, len(pool))

	for _, c := range pool {
		if excluded[c.ID] {
			continue
		}
		if m, ok := Score(expectedAmount, expectedDate, c, p); ok {
			matches = append(matches, m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].TransactionID < matches[j].TransactionID
	})

	for i := range matches {
		matches[i].Rank = i + 1
	}

	return matches
}
