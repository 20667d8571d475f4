package report

import (
	"encoding/json"
	"slices"
	"sort"

	"github.com/gyaneshwarpardhi/trackstats/internal/condition"
)

// LabelBuckets records, per transition label, which entities satisfied it.
type LabelBuckets struct {
	labels []string // declaration order for reporting
	ids    map[string][]int
}

// NewLabelBuckets creates buckets that report labels in the given order, even
// when empty.
func NewLabelBuckets(labels ...string) *LabelBuckets {
	b := &LabelBuckets{ids: make(map[string][]int, len(labels))}
	for _, l := range labels {
		b.declare(l)
	}
	return b
}

func (b *LabelBuckets) declare(label string) {
	if _, ok := b.ids[label]; ok {
		return
	}
	b.labels = append(b.labels, label)
	b.ids[label] = nil
}

// Add files id under every label in set.
func (b *LabelBuckets) Add(id int, set condition.LabelSet) {
	for _, l := range set.Sorted() {
		b.declare(l)
		b.ids[l] = append(b.ids[l], id)
	}
}

func (b *LabelBuckets) Count(label string) int { return len(b.ids[label]) }

// IDs returns the entity ids filed under label in ascending order.
func (b *LabelBuckets) IDs(label string) []int {
	out := slices.Clone(b.ids[label])
	sort.Ints(out)
	return out
}

// Labels returns declared labels first, in declaration order.
func (b *LabelBuckets) Labels() []string { return slices.Clone(b.labels) }

func (b *LabelBuckets) Counts() Counter {
	c := NewCounter()
	for _, l := range b.labels {
		c[l] = len(b.ids[l])
	}
	return c
}

// Merge appends every id of o. An id present in both (two identities acting
// on the same bug) is kept twice so counts stay additive.
func (b *LabelBuckets) Merge(o *LabelBuckets) {
	if o == nil {
		return
	}
	for _, l := range o.labels {
		b.declare(l)
		b.ids[l] = append(b.ids[l], o.ids[l]...)
	}
}

type bucketJSON struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	IDs   []int  `json:"ids"`
}

func (b *LabelBuckets) MarshalJSON() ([]byte, error) {
	out := make([]bucketJSON, 0, len(b.labels))
	for _, l := range b.labels {
		ids := b.IDs(l)
		if ids == nil {
			ids = []int{}
		}
		out = append(out, bucketJSON{Label: l, Count: len(ids), IDs: ids})
	}
	return json.Marshal(out)
}
