package core

type (
	// AllocatedItem is a line item enriched with its computed tax figures.
	AllocatedItem struct {
		Annotation
		TotalTax    float64
		CostPlusTax float64
	}

	// AllocationResult is the full outcome of one allocation pass.
	AllocationResult struct {
		Items    []AllocatedItem
		PerUser  []PerUserCost
		Spending []UserSpending
		// Unassigned lists items with no users: they carry tax figures but
		// are excluded from the per-user split.
		Unassigned []string
	}
)

// Allocate computes tax and per-user shares for every annotated item and
// aggregates spending per user. It is a pure function: callers re-run it
// after every edit to the annotation state.
//
// Per item: totalTax = cost * percent/100 for the selected tax rate, or 0
// when no rate is selected or the name resolves to nothing (fail-soft).
// The tax-inclusive cost is split evenly across the item's users. Items
// with no users cannot be divided; they are reported in Unassigned and
// skipped, never an error.
func Allocate(annotations []Annotation, taxes []TaxRate) AllocationResult {
	percentByName := make(map[string]float64, len(taxes))
	for _, t := range taxes {
		percentByName[t.Name] = t.Percent
	}

	res := AllocationResult{
		Items: make([]AllocatedItem, 0, len(annotations)),
	}

	totals := make(map[string]float64)
	var order []string

	for _, a := range annotations {
		percent := percentByName[a.SelectedTax] // zero for "" and unknown names
		totalTax := a.Cost * percent / 100
		item := AllocatedItem{
			Annotation:  a,
			TotalTax:    totalTax,
			CostPlusTax: a.Cost + totalTax,
		}
		res.Items = append(res.Items, item)

		users := dedupe(a.Users)
		if len(users) == 0 {
			res.Unassigned = append(res.Unassigned, a.Name)
			continue
		}

		perUser := item.CostPlusTax / float64(len(users))
		for _, u := range users {
			res.PerUser = append(res.PerUser, PerUserCost{
				Item: a.Name,
				User: u,
				Cost: perUser,
			})
			if _, seen := totals[u]; !seen {
				order = append(order, u)
			}
			totals[u] += perUser
		}
	}

	// First-seen order keeps the aggregate stable for display; the sums
	// themselves are order-independent.
	for _, u := range order {
		res.Spending = append(res.Spending, UserSpending{User: u, TotalCost: totals[u]})
	}

	return res
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
