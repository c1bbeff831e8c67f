package core

import (
	"errors"
	"strings"
)

type (
	// LineItem is one extracted receipt row. Immutable once extracted.
	LineItem struct {
		Name string
		Cost float64
	}

	// Annotation carries the user's choices for a line item: at most one
	// tax rate by name and the set of users sharing the cost.
	Annotation struct {
		LineItem
		SelectedTax string   // empty means no tax
		Users       []string // deduplicated, order-irrelevant
	}

	// TaxRate is a user-declared percentage keyed by name ("Tax 1", ...).
	TaxRate struct {
		Name    string
		Percent float64
	}

	// SummaryField is a read-only informational row from the receipt
	// (total, date, tax IDs, cashier...). Nothing is computed from it.
	SummaryField struct {
		Label string
		Value string
	}

	// PerUserCost is one (item, user) share of a tax-inclusive cost.
	PerUserCost struct {
		Item string
		User string
		Cost float64
	}

	// UserSpending is the per-user aggregate. The only persisted entity.
	UserSpending struct {
		User      string
		TotalCost float64
	}
)

var (
	ErrDuplicateUser  = errors.New("user name already exists")
	ErrNegativeCost   = errors.New("negative cost")
	ErrInvalidPrice   = errors.New("invalid price")
	ErrInvalidPercent = errors.New("invalid percent")
)

func (li LineItem) Validate() error {
	if strings.TrimSpace(li.Name) == "" {
		return errors.New("empty item name")
	}
	if li.Cost < 0 {
		return ErrNegativeCost
	}
	return nil
}

// UserSet is the ordered, duplicate-free set of declared users.
type UserSet struct {
	names []string
	index map[string]struct{}
}

func NewUserSet() *UserSet {
	return &UserSet{index: make(map[string]struct{})}
}

// Add appends a user name. A non-empty duplicate is rejected with
// ErrDuplicateUser and leaves the set unchanged; empty names are ignored.
func (s *UserSet) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if _, ok := s.index[name]; ok {
		return ErrDuplicateUser
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return nil
}

func (s *UserSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *UserSet) Len() int {
	return len(s.names)
}

// Names returns the declared users in declaration order.
func (s *UserSet) Names() []string {
	return append([]string(nil), s.names...)
}
