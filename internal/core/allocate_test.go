package core

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestAllocateTaxAndSplit(t *testing.T) {
	annotations := []Annotation{
		{
			LineItem:    LineItem{Name: "Item A", Cost: 10.00},
			SelectedTax: "Tax 1",
			Users:       []string{"Alice", "Bob"},
		},
		{
			LineItem: LineItem{Name: "Item B", Cost: 5.00},
			Users:    []string{"Alice"},
		},
	}
	taxes := []TaxRate{{Name: "Tax 1", Percent: 10}}

	res := Allocate(annotations, taxes)

	if len(res.Items) != 2 {
		t.Fatalf("expected 2 enriched items, got %d", len(res.Items))
	}
	if got := res.Items[0].CostPlusTax; math.Abs(got-11.00) > eps {
		t.Fatalf("Item A cost plus tax = %v, want 11.00", got)
	}
	if got := res.Items[1].CostPlusTax; math.Abs(got-5.00) > eps {
		t.Fatalf("Item B cost plus tax = %v, want 5.00", got)
	}

	if len(res.PerUser) != 3 {
		t.Fatalf("expected 3 per-user rows, got %d", len(res.PerUser))
	}
	for _, pu := range res.PerUser[:2] {
		if math.Abs(pu.Cost-5.50) > eps {
			t.Fatalf("Item A share for %s = %v, want 5.50", pu.User, pu.Cost)
		}
	}

	want := map[string]float64{"Alice": 10.50, "Bob": 5.50}
	if len(res.Spending) != len(want) {
		t.Fatalf("expected %d spending rows, got %d", len(want), len(res.Spending))
	}
	for _, us := range res.Spending {
		if math.Abs(us.TotalCost-want[us.User]) > eps {
			t.Fatalf("spending for %s = %v, want %v", us.User, us.TotalCost, want[us.User])
		}
	}
}

func TestAllocateUnknownTaxIsZero(t *testing.T) {
	res := Allocate([]Annotation{{
		LineItem:    LineItem{Name: "Coffee", Cost: 3.00},
		SelectedTax: "Tax 9", // never declared
		Users:       []string{"Alice"},
	}}, nil)

	if got := res.Items[0].TotalTax; got != 0 {
		t.Fatalf("unresolved tax should mean 0 tax, got %v", got)
	}
	if got := res.Items[0].CostPlusTax; got != 3.00 {
		t.Fatalf("cost plus tax = %v, want 3.00", got)
	}
}

func TestAllocateZeroUsers(t *testing.T) {
	res := Allocate([]Annotation{
		{LineItem: LineItem{Name: "Orphan", Cost: 4.00}, SelectedTax: "Tax 1"},
		{LineItem: LineItem{Name: "Shared", Cost: 6.00}, Users: []string{"Bob"}},
	}, []TaxRate{{Name: "Tax 1", Percent: 50}})

	// Orphan still gets its tax figures on the enriched row.
	if got := res.Items[0].CostPlusTax; math.Abs(got-6.00) > eps {
		t.Fatalf("orphan cost plus tax = %v, want 6.00", got)
	}
	// But it is excluded from the split and flagged.
	if len(res.Unassigned) != 1 || res.Unassigned[0] != "Orphan" {
		t.Fatalf("expected Orphan flagged unassigned, got %v", res.Unassigned)
	}
	for _, pu := range res.PerUser {
		if pu.Item == "Orphan" {
			t.Fatalf("orphan item must not produce per-user rows")
		}
	}
	if len(res.Spending) != 1 || res.Spending[0].User != "Bob" {
		t.Fatalf("unexpected spending %v", res.Spending)
	}
}

func TestAllocateDuplicateUsersCollapse(t *testing.T) {
	res := Allocate([]Annotation{{
		LineItem: LineItem{Name: "Pizza", Cost: 9.00},
		Users:    []string{"Alice", "Alice", "Bob"},
	}}, nil)

	if len(res.PerUser) != 2 {
		t.Fatalf("expected 2 per-user rows, got %d", len(res.PerUser))
	}
	for _, pu := range res.PerUser {
		if math.Abs(pu.Cost-4.50) > eps {
			t.Fatalf("share = %v, want 4.50", pu.Cost)
		}
	}
}

func TestAllocateSumEqualsGrandTotal(t *testing.T) {
	annotations := []Annotation{
		{LineItem: LineItem{Name: "a", Cost: 12.34}, SelectedTax: "Tax 1", Users: []string{"u1", "u2", "u3"}},
		{LineItem: LineItem{Name: "b", Cost: 0.07}, SelectedTax: "Tax 2", Users: []string{"u2"}},
		{LineItem: LineItem{Name: "c", Cost: 99.99}, Users: []string{"u1", "u3"}},
	}
	taxes := []TaxRate{{Name: "Tax 1", Percent: 9}, {Name: "Tax 2", Percent: 21}}

	res := Allocate(annotations, taxes)

	var grand float64
	for _, it := range res.Items {
		grand += it.CostPlusTax
	}
	var sum float64
	for _, us := range res.Spending {
		sum += us.TotalCost
	}
	if math.Abs(grand-sum) > eps {
		t.Fatalf("spending sum %v != grand total %v", sum, grand)
	}

	// k * perUser share == costPlusTax for every item.
	shares := make(map[string][]float64)
	for _, pu := range res.PerUser {
		shares[pu.Item] = append(shares[pu.Item], pu.Cost)
	}
	for _, it := range res.Items {
		parts := shares[it.Name]
		if len(parts) == 0 {
			continue
		}
		var total float64
		for _, p := range parts {
			total += p
		}
		if math.Abs(total-it.CostPlusTax) > eps {
			t.Fatalf("item %s parts sum %v != cost plus tax %v", it.Name, total, it.CostPlusTax)
		}
	}
}
