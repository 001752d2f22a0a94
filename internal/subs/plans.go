package subs

import (
	"sort"

	"github.com/izakirov770/MoliyaUz/internal/domain"
)

// PlanTable maps a paid amount to a subscription plan. Pricing is
// configuration, not code: the table is built from config at startup.
type PlanTable struct {
	byAmount map[int64]domain.Plan
}

func NewPlanTable(byAmount map[int64]domain.Plan) PlanTable {
	m := make(map[int64]domain.Plan, len(byAmount))
	for a, p := range byAmount {
		m[a] = p
	}
	return PlanTable{byAmount: m}
}

// Resolve returns the plan for an amount. An unknown amount falls back to
// the longest configured plan (never fail a real payment over a price-table
// drift); known=false tells the caller to flag it for the operator.
func (t PlanTable) Resolve(amount int64) (plan domain.Plan, known bool) {
	if p, ok := t.byAmount[amount]; ok {
		return p, true
	}
	return t.longest(), false
}

// Amount returns the configured price for a plan key.
func (t PlanTable) Amount(key string) (int64, bool) {
	for a, p := range t.byAmount {
		if p.Key == key {
			return a, true
		}
	}
	return 0, false
}

func (t PlanTable) longest() domain.Plan {
	plans := make([]domain.Plan, 0, len(t.byAmount))
	for _, p := range t.byAmount {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Days > plans[j].Days })
	if len(plans) == 0 {
		return domain.Plan{Key: "month", Days: 30}
	}
	return plans[0]
}
