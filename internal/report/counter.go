// Package report folds classification results and entity attributes into
// counters, and merges them across identities.
//
// Every fold here is additive, so the order in which entities or identities
// arrive never changes the final numbers.
package report

import "sort"

// Counter maps a bucket label to a count. The zero value is not usable; use
// NewCounter or make.
type Counter map[string]int

func NewCounter() Counter { return make(Counter) }

func (c Counter) Inc(label string) { c[label]++ }

func (c Counter) Add(label string, n int) {
	if n <= 0 {
		return
	}
	c[label] += n
}

// Get returns 0 for unknown labels.
func (c Counter) Get(label string) int { return c[label] }

// Keys returns the labels in lexical order.
func (c Counter) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge adds every count of o into c.
func (c Counter) Merge(o Counter) {
	for k, v := range o {
		c.Add(k, v)
	}
}
