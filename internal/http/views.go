package http

import "cloudexpense/internal/core"

type allocatedItemView struct {
	Name        string   `json:"name"`
	Cost        float64  `json:"cost"`
	SelectedTax string   `json:"selected_tax,omitempty"`
	Users       []string `json:"users"`
	TotalTax    float64  `json:"total_tax"`
	CostPlusTax float64  `json:"cost_plus_tax"`
}

type perUserCostView struct {
	Item string  `json:"item"`
	User string  `json:"user"`
	Cost float64 `json:"cost"`
}

type userSpendingView struct {
	User      string  `json:"user"`
	TotalCost float64 `json:"total_cost"`
}

func allocationView(res core.AllocationResult) map[string]any {
	items := make([]allocatedItemView, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, allocatedItemView{
			Name:        it.Name,
			Cost:        it.Cost,
			SelectedTax: it.SelectedTax,
			Users:       it.Users,
			TotalTax:    it.TotalTax,
			CostPlusTax: it.CostPlusTax,
		})
	}

	perUser := make([]perUserCostView, 0, len(res.PerUser))
	for _, pu := range res.PerUser {
		perUser = append(perUser, perUserCostView{Item: pu.Item, User: pu.User, Cost: pu.Cost})
	}

	return map[string]any{
		"items":      items,
		"per_user":   perUser,
		"spending":   spendingView(res.Spending),
		"unassigned": res.Unassigned,
	}
}

func spendingView(rows []core.UserSpending) []userSpendingView {
	out := make([]userSpendingView, 0, len(rows))
	for _, row := range rows {
		out = append(out, userSpendingView{User: row.User, TotalCost: row.TotalCost})
	}
	return out
}
