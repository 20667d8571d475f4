package report

import (
	"fmt"
	"io"
)

// PrintOptions controls console output.
type PrintOptions struct {
	LinkPrefix string // prepended to bug ids in transition listings
	Verbose    bool   // list every bug in bug_attributes reports
}

// Print writes r as plain text.
func Print(w io.Writer, r *Report, opts PrintOptions) {
	fmt.Fprintf(w, "report %s (%s) run %s\n", r.ReportID, r.Kind, r.RunID)
	for _, s := range r.Identities {
		fmt.Fprintf(w, "\n=== %s: %d candidates ===\n", s.Identity, s.Candidates)
		printSummary(w, s, opts)
	}
	if r.Combined != nil && len(r.Identities) > 1 {
		fmt.Fprintf(w, "\n=== Combined summary: %d candidates across %d identities ===\n",
			r.Combined.Candidates, len(r.Identities))
		printSummary(w, r.Combined, PrintOptions{LinkPrefix: opts.LinkPrefix})
	}
	if r.Error != "" {
		fmt.Fprintf(w, "\nrun stopped: %s\n", r.Error)
	}
}

func printSummary(w io.Writer, s *IdentitySummary, opts PrintOptions) {
	switch {
	case s.Transitions != nil:
		for _, l := range s.Transitions.Labels() {
			ids := s.Transitions.IDs(l)
			fmt.Fprintf(w, "\n%s: %d\n", l, len(ids))
			for _, id := range ids {
				fmt.Fprintf(w, "  %s%d\n", opts.LinkPrefix, id)
			}
		}
	case s.Bugs != nil:
		printBugs(w, s.Bugs, opts.Verbose)
	case s.Issues != nil:
		c := s.Issues.Counts
		fmt.Fprintf(w, "open: %d\n", c.Get("open"))
		fmt.Fprintf(w, "closed: %d\n", c.Get("closed"))
		for _, b := range s.Issues.Buckets() {
			fmt.Fprintf(w, "%s: %d\n", b, c.Get(b))
		}
	}
	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "\nskipped after fetch errors: %v\n", s.Failed)
	}
}

func printBugs(w io.Writer, b *BugStats, verbose bool) {
	if verbose {
		for _, bug := range b.Bugs {
			res := bug.Resolution
			if res == "" {
				res = "OPEN"
			}
			fmt.Fprintf(w, "- Bug %d [%s] [%s] [%s]: %s (Created: %s)\n",
				bug.ID, orUnknown(bug.Severity), orUnknown(bug.Status), res, bug.Summary,
				bug.CreationTime.Format("2006-01-02T15:04:05Z07:00"))
		}
	}
	printCounter(w, "By severity", b.Severity)
	printCounter(w, "Closed by resolution", b.Resolution)
	printCounter(w, "By status", b.Status)
	if n := b.Status.Get("NEW"); n > 0 {
		fmt.Fprintf(w, "\nIn NEW state: %d\n", n)
	}
}

func printCounter(w io.Writer, title string, c Counter) {
	if len(c) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, k := range c.Keys() {
		fmt.Fprintf(w, "  %s: %d\n", k, c[k])
	}
}
