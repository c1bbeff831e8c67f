// Package session holds the mutable annotation state for one interactive
// run: the extracted items, the declared tax rates and users, and the
// per-item selections. Handlers apply discrete actions to it and re-run
// the allocation engine after each one.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"cloudexpense/internal/core"
)

// Declaration limits for the interactive forms.
const (
	MaxTaxRates = 50
	MinUsers    = 1
	MaxUsers    = 50
)

var (
	ErrNoSuchItem      = errors.New("no such item")
	ErrNoSuchTax       = errors.New("no such tax rate")
	ErrTooManyTaxRates = fmt.Errorf("at most %d tax rates", MaxTaxRates)
	ErrTooManyUsers    = fmt.Errorf("at most %d users", MaxUsers)
	ErrNoUsers         = errors.New("at least one user required")
)

// Session is the annotation state for one receipt. It lives only for the
// duration of the interactive run; nothing here is persisted.
type Session struct {
	items   []core.LineItem
	summary []core.SummaryField

	// candidates maps detected "Tax N" names to their raw text. Best-effort
	// suggestions only; SetTaxRates replaces them with the user's values.
	candidates map[string]string

	taxes []core.TaxRate
	users *core.UserSet

	selectedTax   []string   // per item, "" means none
	assignedUsers [][]string // per item
}

// New builds a session from extraction output. Detected tax candidates
// with parseable percentages seed the rate set; every item defaults to no
// tax and all declared users. The user set starts empty until declared.
func New(items []core.LineItem, summary []core.SummaryField, candidates map[string]string) *Session {
	s := &Session{
		items:         items,
		summary:       summary,
		candidates:    candidates,
		users:         core.NewUserSet(),
		selectedTax:   make([]string, len(items)),
		assignedUsers: make([][]string, len(items)),
	}

	// Candidate names are sequential by construction, so walk them in order.
	for i := 1; i <= len(candidates); i++ {
		name := fmt.Sprintf("Tax %d", i)
		raw, ok := candidates[name]
		if !ok {
			break
		}
		percent, err := core.ParsePercent(raw)
		if err != nil {
			slog.Debug("Skipping unparseable tax candidate", "name", name, "text", raw)
			continue
		}
		s.taxes = append(s.taxes, core.TaxRate{Name: name, Percent: percent})
	}

	return s
}

func (s *Session) Items() []core.LineItem             { return s.items }
func (s *Session) SummaryFields() []core.SummaryField { return s.summary }
func (s *Session) Candidates() map[string]string      { return s.candidates }
func (s *Session) TaxRates() []core.TaxRate           { return append([]core.TaxRate(nil), s.taxes...) }
func (s *Session) Users() []string                    { return s.users.Names() }

// SetTaxRates replaces the authoritative rate set.
func (s *Session) SetTaxRates(rates []core.TaxRate) error {
	if len(rates) > MaxTaxRates {
		return ErrTooManyTaxRates
	}
	s.taxes = append([]core.TaxRate(nil), rates...)

	// Selections pointing at removed rates resolve to 0% downstream, so no
	// pruning is needed here.
	return nil
}

// DeclareUsers rebuilds the user set from the given names. Duplicate
// non-empty names are reported and skipped; the first occurrence wins.
// Item assignments referencing users that no longer exist are pruned, and
// items left with nobody fall back to the full set.
func (s *Session) DeclareUsers(names []string) (accepted []string, validationErrs []error, err error) {
	if len(names) < MinUsers {
		return nil, nil, ErrNoUsers
	}
	if len(names) > MaxUsers {
		return nil, nil, ErrTooManyUsers
	}

	set := core.NewUserSet()
	for _, name := range names {
		if addErr := set.Add(name); addErr != nil {
			validationErrs = append(validationErrs, fmt.Errorf("%q: %w", name, addErr))
		}
	}
	s.users = set

	all := set.Names()
	for i := range s.assignedUsers {
		kept := s.assignedUsers[i][:0]
		for _, u := range s.assignedUsers[i] {
			if set.Contains(u) {
				kept = append(kept, u)
			}
		}
		if len(kept) == 0 {
			kept = append([]string(nil), all...)
		}
		s.assignedUsers[i] = kept
	}

	return all, validationErrs, nil
}

// SelectTax records the tax choice for one item. An empty name clears the
// selection; a name outside the declared set is rejected so the UI cannot
// silently assign a rate the user never confirmed.
func (s *Session) SelectTax(itemIndex int, taxName string) error {
	if itemIndex < 0 || itemIndex >= len(s.items) {
		return ErrNoSuchItem
	}
	if taxName != "" && !s.hasTax(taxName) {
		return ErrNoSuchTax
	}
	s.selectedTax[itemIndex] = taxName
	return nil
}

// AssignUsers records which declared users share one item. Names outside
// the declared set are dropped with a warning rather than failing.
func (s *Session) AssignUsers(itemIndex int, names []string) error {
	if itemIndex < 0 || itemIndex >= len(s.items) {
		return ErrNoSuchItem
	}
	// Non-nil even when empty: an explicit empty assignment is the
	// zero-user case, not "never touched".
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if !s.users.Contains(name) {
			slog.Warn("Dropping unknown user from assignment",
				"item", s.items[itemIndex].Name, "user", name)
			continue
		}
		kept = append(kept, name)
	}
	s.assignedUsers[itemIndex] = kept
	return nil
}

// Annotations materializes the current per-item state for the engine.
// Items never explicitly assigned default to the full user set.
func (s *Session) Annotations() []core.Annotation {
	all := s.users.Names()
	out := make([]core.Annotation, len(s.items))
	for i, item := range s.items {
		users := s.assignedUsers[i]
		if users == nil {
			users = all
		}
		out[i] = core.Annotation{
			LineItem:    item,
			SelectedTax: s.selectedTax[i],
			Users:       append([]string(nil), users...),
		}
	}
	return out
}

// Recompute runs a full allocation pass over the current state.
func (s *Session) Recompute() core.AllocationResult {
	return core.Allocate(s.Annotations(), s.taxes)
}

func (s *Session) hasTax(name string) bool {
	for _, t := range s.taxes {
		if t.Name == name {
			return true
		}
	}
	return false
}
