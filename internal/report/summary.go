package report

import "time"

// Kind selects which bucket shape a report produces.
type Kind string

const (
	KindTransitions   Kind = "transitions"
	KindBugAttributes Kind = "bug_attributes"
	KindIssueClosure  Kind = "issue_closure"
)

// IdentitySummary is the result for one identity, or the combination of
// several. Exactly one of Transitions, Bugs and Issues is set, per Kind.
type IdentitySummary struct {
	Identity    string        `json:"identity"`
	Candidates  int           `json:"candidates"`
	Transitions *LabelBuckets `json:"transitions,omitempty"`
	Bugs        *BugStats     `json:"bugs,omitempty"`
	Issues      *IssueStats   `json:"issues,omitempty"`
	Failed      []int         `json:"failed,omitempty"` // ids skipped after a fetch error (skip_failed only)
}

// Merge adds o into s.
func (s *IdentitySummary) Merge(o *IdentitySummary) {
	s.Candidates += o.Candidates
	s.Failed = append(s.Failed, o.Failed...)
	if o.Transitions != nil {
		if s.Transitions == nil {
			s.Transitions = NewLabelBuckets(o.Transitions.Labels()...)
		}
		s.Transitions.Merge(o.Transitions)
	}
	if o.Bugs != nil {
		if s.Bugs == nil {
			s.Bugs = NewBugStats()
		}
		s.Bugs.Merge(o.Bugs)
	}
	if o.Issues != nil {
		if s.Issues == nil {
			s.Issues = NewIssueStats(o.Issues.rules)
		}
		s.Issues.Merge(o.Issues)
	}
}

// Combine merges per-identity summaries into one labelled "combined".
func Combine(summaries []*IdentitySummary) *IdentitySummary {
	out := &IdentitySummary{Identity: "combined"}
	for _, s := range summaries {
		out.Merge(s)
	}
	return out
}

// Report is one run of a configured report.
type Report struct {
	RunID      string             `json:"run_id"`
	ReportID   string             `json:"report_id"`
	Kind       Kind               `json:"kind"`
	StartedAt  time.Time          `json:"started_at"`
	DurationMs int64              `json:"duration_ms"`
	Identities []*IdentitySummary `json:"identities"`
	Combined   *IdentitySummary   `json:"combined"`
	Error      string             `json:"error,omitempty"`
}
