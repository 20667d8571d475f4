package report

import (
	"strings"

	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
)

const unknown = "unknown"

// BugStats counts Bugzilla bugs by severity, status and resolution.
type BugStats struct {
	Severity   Counter                 `json:"severity"`
	Status     Counter                 `json:"status"`
	Resolution Counter                 `json:"resolution"` // open bugs have no resolution and are not counted
	Bugs       []tracker.EntitySummary `json:"bugs,omitempty"`
}

func NewBugStats() *BugStats {
	return &BugStats{Severity: NewCounter(), Status: NewCounter(), Resolution: NewCounter()}
}

// Add counts one bug. keep retains the row for verbose listings.
func (s *BugStats) Add(bug tracker.EntitySummary, keep bool) {
	s.Severity.Inc(orUnknown(bug.Severity))
	s.Status.Inc(orUnknown(bug.Status))
	if bug.Resolution != "" {
		s.Resolution.Inc(bug.Resolution)
	}
	if keep {
		s.Bugs = append(s.Bugs, bug)
	}
}

func (s *BugStats) Merge(o *BugStats) {
	if o == nil {
		return
	}
	s.Severity.Merge(o.Severity)
	s.Status.Merge(o.Status)
	s.Resolution.Merge(o.Resolution)
	s.Bugs = append(s.Bugs, o.Bugs...)
}

func orUnknown(v string) string {
	if v == "" {
		return unknown
	}
	return v
}

// ClosureRule derives a closure bucket for a closed issue. The issue lands in
// Bucket when its state_reason is one of Reasons, or one of its labels equals
// an entry of Labels or contains an entry of LabelContains (labels compared
// lower-cased). Rules are independent: one issue may land in several buckets.
type ClosureRule struct {
	Bucket        string   `json:"bucket"`
	Reasons       []string `json:"reasons,omitempty"`
	Labels        []string `json:"labels,omitempty"`
	LabelContains []string `json:"label_contains,omitempty"`
}

// Match checks the rule's predicates in order and stops at the first hit.
func (r ClosureRule) Match(issue tracker.Issue) bool {
	for _, reason := range r.Reasons {
		if issue.StateReason == reason {
			return true
		}
	}
	for _, l := range issue.Labels {
		name := strings.ToLower(l.Name)
		for _, want := range r.Labels {
			if name == strings.ToLower(want) {
				return true
			}
		}
		for _, sub := range r.LabelContains {
			if strings.Contains(name, strings.ToLower(sub)) {
				return true
			}
		}
	}
	return false
}

// DefaultClosureRules mirrors how GitHub closure reasons and the usual triage
// labels are read.
func DefaultClosureRules() []ClosureRule {
	return []ClosureRule{
		{Bucket: "closed_as_completed", Reasons: []string{"completed"}},
		{Bucket: "closed_as_duplicate", Reasons: []string{"duplicate"}, LabelContains: []string{"duplicate"}},
		{Bucket: "closed_as_not_planned", Reasons: []string{"not_planned"}, Labels: []string{"not planned", "not_planned", "wontfix"}},
	}
}

// IssueStats counts GitHub issues by state plus derived closure buckets.
type IssueStats struct {
	Counts Counter `json:"counts"`
	rules  []ClosureRule
}

func NewIssueStats(rules []ClosureRule) *IssueStats {
	s := &IssueStats{Counts: NewCounter(), rules: rules}
	for _, r := range rules {
		s.Counts[r.Bucket] = 0
	}
	return s
}

func (s *IssueStats) Add(issue tracker.Issue) {
	s.Counts.Inc(issue.State)
	if issue.State != "closed" {
		return
	}
	for _, r := range s.rules {
		if r.Match(issue) {
			s.Counts.Inc(r.Bucket)
		}
	}
}

// Buckets returns the closure bucket names in rule order.
func (s *IssueStats) Buckets() []string {
	out := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Bucket)
	}
	return out
}

func (s *IssueStats) Merge(o *IssueStats) {
	if o == nil {
		return
	}
	s.Counts.Merge(o.Counts)
	if len(s.rules) == 0 {
		s.rules = o.rules
	}
}
