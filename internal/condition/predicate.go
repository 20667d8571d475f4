package condition

import (
	"fmt"
	"sort"

	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
)

// Predicate tests a single FieldChange. A nil side is a wildcard.
type Predicate struct {
	Field   string  `json:"field"`
	Removed *string `json:"removed,omitempty"`
	Added   *string `json:"added,omitempty"`
}

// Matches reports whether fc changed Field and every specified side equals fc's value.
func (p Predicate) Matches(fc tracker.FieldChange) bool {
	if fc.FieldName != p.Field {
		return false
	}
	if p.Removed != nil && *p.Removed != fc.Removed {
		return false
	}
	if p.Added != nil && *p.Added != fc.Added {
		return false
	}
	return true
}

func (p Predicate) String() string {
	side := func(v *string) string {
		if v == nil {
			return "*"
		}
		return fmt.Sprintf("%q", *v)
	}
	return fmt.Sprintf("%s: %s -> %s", p.Field, side(p.Removed), side(p.Added))
}

// Rule names a Predicate. The label is what gets reported.
type Rule struct {
	Label     string
	Predicate Predicate
}

// LabelSet is the set of rule labels an entity satisfied.
type LabelSet map[string]struct{}

func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Sorted returns the labels in lexical order.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
