package condition

import (
	"slices"
	"strings"

	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
)

// Classifier finds which rules one actor satisfied in an entity's history.
// It holds no per-entity state and is safe for concurrent use.
type Classifier struct {
	actor    string
	rules    []Rule
	fullScan bool
}

// Result is the outcome of classifying one history.
type Result struct {
	Labels        LabelSet
	EventsScanned int
}

func NewClassifier(actor string, rules []Rule) *Classifier {
	return &Classifier{actor: actor, rules: rules}
}

// Classify scans history in order. A rule is satisfied the first time any
// change made by the actor matches it; the scan stops as soon as no rule is
// left pending.
func (c *Classifier) Classify(history []tracker.ChangeEvent) Result {
	res := Result{Labels: make(LabelSet)}
	pending := slices.Clone(c.rules)

	for _, ev := range history {
		if len(pending) == 0 && !c.fullScan {
			break
		}
		res.EventsScanned++
		if !strings.EqualFold(ev.Who, c.actor) {
			continue
		}
		for _, fc := range ev.Changes {
			pending = slices.DeleteFunc(pending, func(r Rule) bool {
				if !r.Predicate.Matches(fc) {
					return false
				}
				res.Labels[r.Label] = struct{}{}
				return true
			})
		}
	}
	return res
}

// Classify is a one-shot helper around Classifier.
func Classify(history []tracker.ChangeEvent, actor string, rules []Rule) LabelSet {
	return NewClassifier(actor, rules).Classify(history).Labels
}
