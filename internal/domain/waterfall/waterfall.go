// Package waterfall provides the priority-ordered income allocation
// calculator.
//
// Rules are processed strictly in ascending priority order. Each rule
// requests an amount computed against the gross income (not the running
// remainder) and receives min(requested, remaining). Earlier rules are
// therefore paid in full while later rules absorb the entire shortfall,
// down to zero. This is a strict waterfall, not proportional rationing.
//
// Example usage:
//
//	result := waterfall.Allocate(rules, 2500.00)
//	for _, item := range result.Items {
//		// item.Amount is what this rule actually received
//	}
//	leftover := result.Unallocated
package waterfall

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Category classifies what an allocation destination is for.
type Category string

const (
	CategorySavings   Category = "savings"
	CategoryInvesting Category = "investing"
	CategorySpending  Category = "spending"
	CategoryDebt      Category = "debt"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategorySavings, CategoryInvesting, CategorySpending, CategoryDebt:
		return true
	}
	return false
}

// RuleType determines how a rule's value is interpreted.
type RuleType string

const (
	// RuleTypePercent allocates value% of the gross income amount.
	RuleTypePercent RuleType = "percent"
	// RuleTypeFixed allocates a fixed currency amount.
	RuleTypeFixed RuleType = "fixed"
)

// ValidRuleType reports whether t is a known rule type.
func ValidRuleType(t RuleType) bool {
	return t == RuleTypePercent || t == RuleTypeFixed
}

// Rule is one allocation rule in a user's waterfall.
type Rule struct {
	ID        string
	AccountID string
	Category  Category
	Type      RuleType
	Value     float64
	Priority  int
	Active    bool
}

// LineItem is the computed allocation for a single rule.
type LineItem struct {
	AccountID string
	Category  Category
	Amount    float64
	RuleType  RuleType
	RuleValue float64
}

// Result holds the full output of an allocation run.
type Result struct {
	Items       []LineItem
	Unallocated float64
}

var oneHundred = decimal.NewFromInt(100)

// Allocate distributes incomeAmount across the active rules.
//
// The function is pure: identical inputs always produce identical output,
// which matters because allocations are re-run on every income correction
// and preview. Inactive rules are excluded entirely. A rule whose value is
// zero or negative contributes a zero-amount item, kept for display
// symmetry. Priority ties are broken by rule ID so ordering stays stable.
func Allocate(rules []Rule, incomeAmount float64) Result {
	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].ID < active[j].ID
	})

	items := make([]LineItem, 0, len(active))

	// Nothing to distribute. Items are still emitted (all zero) so the
	// caller can render the full rule set.
	if incomeAmount <= 0 {
		for _, r := range active {
			items = append(items, LineItem{
				AccountID: r.AccountID,
				Category:  r.Category,
				Amount:    0,
				RuleType:  r.Type,
				RuleValue: r.Value,
			})
		}
		return Result{Items: items, Unallocated: 0}
	}

	gross := decimal.NewFromFloat(incomeAmount)
	remaining := gross

	for _, r := range active {
		var requested decimal.Decimal
		if r.Value > 0 {
			switch r.Type {
			case RuleTypePercent:
				// Percent is always of the gross amount, never of the
				// running remainder.
				requested = gross.Mul(decimal.NewFromFloat(r.Value)).Div(oneHundred).Round(2)
			default:
				requested = decimal.NewFromFloat(r.Value).Round(2)
			}
		}

		allocated := requested
		if allocated.GreaterThan(remaining) {
			allocated = remaining
		}
		if allocated.IsNegative() {
			allocated = decimal.Zero
		}
		remaining = remaining.Sub(allocated)

		amount, _ := allocated.Float64()
		items = append(items, LineItem{
			AccountID: r.AccountID,
			Category:  r.Category,
			Amount:    amount,
			RuleType:  r.Type,
			RuleValue: r.Value,
		})
	}

	unallocated, _ := remaining.Float64()
	return Result{Items: items, Unallocated: unallocated}
}
