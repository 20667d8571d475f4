package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/trackstats/internal/bugzilla"
	"github.com/gyaneshwarpardhi/trackstats/internal/condition"
	"github.com/gyaneshwarpardhi/trackstats/internal/config"
	"github.com/gyaneshwarpardhi/trackstats/internal/github"
	"github.com/gyaneshwarpardhi/trackstats/internal/metrics"
	"github.com/gyaneshwarpardhi/trackstats/internal/report"
	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
	"github.com/gyaneshwarpardhi/trackstats/internal/transport"
)

// ErrUnknownReport is returned by Run for an id missing from the config.
var ErrUnknownReport = errors.New("unknown report")

var (
	transitionFields = []string{"id", "last_change_time"}
	attributeFields  = []string{"id", "summary", "creation_time", "status", "resolution", "severity"}
)

// BugTracker is the Bugzilla surface the engine needs.
type BugTracker interface {
	HistorySource
	SearchBugs(ctx context.Context, q bugzilla.Query) ([]tracker.EntitySummary, error)
}

// IssueTracker is the GitHub surface the engine needs.
type IssueTracker interface {
	SearchIssues(ctx context.Context, q github.Query) ([]tracker.Issue, error)
}

// ClientFactory builds tracker clients for a config.
type ClientFactory func(cfg *config.Config) (BugTracker, IssueTracker)

// DefaultClients builds real HTTP clients from cfg.
func DefaultClients(cfg *config.Config) (BugTracker, IssueTracker) {
	timeout := cfg.Engine.RequestTimeout()
	rps := transport.WithRequestsPerSecond(cfg.Engine.RequestsPerSecond)
	bz := bugzilla.New(
		transport.New(cfg.Bugzilla.BaseURL, bugzilla.Accept, timeout, rps),
		bugzilla.WithRetry(cfg.Engine.MaxAttempts, cfg.Engine.RetryDelay()),
	)
	gh := github.New(transport.New(cfg.GitHub.BaseURL, github.Accept, timeout, rps))
	return bz, gh
}

// snapshot is everything one run needs. It is replaced wholesale on reload.
type snapshot struct {
	cfg    *config.Config
	bugs   BugTracker
	issues IssueTracker
}

// Engine runs configured reports.
type Engine struct {
	state   atomic.Pointer[snapshot]
	clients ClientFactory
}

// Option configures an Engine.
type Option func(*Engine)

// WithClientFactory overrides DefaultClients.
func WithClientFactory(f ClientFactory) Option {
	return func(e *Engine) { e.clients = f }
}

// New creates an Engine for a validated config.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{clients: DefaultClients}
	for _, opt := range opts {
		opt(e)
	}
	e.SwapConfig(cfg)
	return e
}

// SwapConfig atomically replaces the config and rebuilds clients (used on hot-reload).
// Runs already in progress keep the snapshot they started with.
func (e *Engine) SwapConfig(cfg *config.Config) {
	bugs, issues := e.clients(cfg)
	e.state.Store(&snapshot{cfg: cfg, bugs: bugs, issues: issues})
}

// Config returns the active configuration.
func (e *Engine) Config() *config.Config {
	return e.state.Load().cfg
}

// RunOptions tweaks a single run.
type RunOptions struct {
	KeepEntities bool // retain bug rows in bug_attributes summaries
}

// Run executes report reportID for each of its identities in turn.
//
// A fatal error stops the identity in progress. The returned report still
// holds every identity completed before it, so callers can show partial
// results alongside the error.
func (e *Engine) Run(ctx context.Context, reportID string, opts RunOptions) (*report.Report, error) {
	snap := e.state.Load()
	def, ok := snap.cfg.Report(reportID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownReport, reportID)
	}

	start := time.Now()
	rep := &report.Report{
		RunID:     uuid.NewString(),
		ReportID:  def.ID,
		Kind:      report.Kind(def.Kind),
		StartedAt: start,
	}
	log := slog.With("run_id", rep.RunID, "report_id", def.ID)
	log.Info("report started", "kind", def.Kind, "identities", len(def.Identities))

	var runErr error
	for _, identity := range def.Identities {
		s, err := e.runIdentity(ctx, snap, def, identity, opts, log.With("identity", identity))
		if err != nil {
			runErr = fmt.Errorf("report %s, identity %s: %w", def.ID, identity, err)
			break
		}
		rep.Identities = append(rep.Identities, s)
	}

	rep.Combined = report.Combine(rep.Identities)
	rep.DurationMs = time.Since(start).Milliseconds()
	metrics.ReportDuration.Observe(time.Since(start).Seconds())
	if runErr != nil {
		rep.Error = runErr.Error()
		metrics.ReportRuns.WithLabelValues(def.ID, "error").Inc()
		log.Error("report failed", "completed_identities", len(rep.Identities), "err", runErr)
		return rep, runErr
	}
	metrics.ReportRuns.WithLabelValues(def.ID, "success").Inc()
	log.Info("report finished", "candidates", rep.Combined.Candidates, "duration_ms", rep.DurationMs)
	return rep, nil
}

func (e *Engine) runIdentity(ctx context.Context, snap *snapshot, def *config.ReportDef, identity string, opts RunOptions, log *slog.Logger) (*report.IdentitySummary, error) {
	switch report.Kind(def.Kind) {
	case report.KindTransitions:
		return e.runTransitions(ctx, snap, def, identity, log)
	case report.KindBugAttributes:
		return e.runBugAttributes(ctx, snap, def, identity, opts)
	case report.KindIssueClosure:
		return e.runIssueClosure(ctx, snap, def, identity)
	default:
		return nil, fmt.Errorf("unsupported report kind %q", def.Kind)
	}
}

func bugQuery(def *config.ReportDef, identity string, defaultFields []string) bugzilla.Query {
	fields := def.Fields
	if len(fields) == 0 {
		fields = defaultFields
	}
	return bugzilla.Query{
		Identity: identity,
		Role:     bugzilla.Role(def.Role),
		Products: def.Products,
		Since:    def.SinceTime(),
		Fields:   fields,
		PageSize: def.PageSize,
	}
}

func (e *Engine) runTransitions(ctx context.Context, snap *snapshot, def *config.ReportDef, identity string, log *slog.Logger) (*report.IdentitySummary, error) {
	bugs, err := snap.bugs.SearchBugs(ctx, bugQuery(def, identity, transitionFields))
	if err != nil {
		return nil, err
	}
	log.Info("candidates found", "bugs", len(bugs))

	rules := BuildRules(def.Rules)
	labels := make([]string, 0, len(rules))
	for _, r := range rules {
		labels = append(labels, r.Label)
	}
	s := &report.IdentitySummary{
		Identity:    identity,
		Candidates:  len(bugs),
		Transitions: report.NewLabelBuckets(labels...),
	}

	ids := make([]int, 0, len(bugs))
	for _, b := range bugs {
		ids = append(ids, b.ID)
	}

	cls := condition.NewClassifier(identity, rules)
	var fetchErr error
	// Drain every result even after a fatal error so in-flight fetches finish.
	for res := range Dispatch(ctx, snap.bugs, ids, snap.cfg.Engine.FetchWorkers) {
		if res.Err != nil {
			if snap.cfg.Engine.SkipFailed {
				log.Warn("skipping bug after fetch error", "bug_id", res.ID, "err", res.Err)
				s.Failed = append(s.Failed, res.ID)
				continue
			}
			log.Error("history fetch failed", "bug_id", res.ID, "err", res.Err)
			if fetchErr == nil {
				fetchErr = fmt.Errorf("fetch history: %w", res.Err)
			}
			continue
		}
		if fetchErr != nil {
			continue
		}
		out := cls.Classify(res.History.Events)
		metrics.EventsScanned.Add(float64(out.EventsScanned))
		for l := range out.Labels {
			metrics.LabelsMatched.WithLabelValues(l).Inc()
		}
		s.Transitions.Add(res.ID, out.Labels)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	slices.Sort(s.Failed)
	return s, nil
}

func (e *Engine) runBugAttributes(ctx context.Context, snap *snapshot, def *config.ReportDef, identity string, opts RunOptions) (*report.IdentitySummary, error) {
	bugs, err := snap.bugs.SearchBugs(ctx, bugQuery(def, identity, attributeFields))
	if err != nil {
		return nil, err
	}
	stats := report.NewBugStats()
	for _, b := range bugs {
		stats.Add(b, opts.KeepEntities)
	}
	return &report.IdentitySummary{Identity: identity, Candidates: len(bugs), Bugs: stats}, nil
}

func (e *Engine) runIssueClosure(ctx context.Context, snap *snapshot, def *config.ReportDef, identity string) (*report.IdentitySummary, error) {
	repo := def.Repo
	if repo == "" {
		repo = snap.cfg.GitHub.Repo
	}
	issues, err := snap.issues.SearchIssues(ctx, github.Query{Repo: repo, Author: identity, PerPage: snap.cfg.GitHub.PerPage})
	if err != nil {
		return nil, err
	}
	stats := report.NewIssueStats(BuildClosureRules(def.ClosureRules))
	for _, is := range issues {
		stats.Add(is)
	}
	return &report.IdentitySummary{Identity: identity, Candidates: len(issues), Issues: stats}, nil
}

// BuildRules converts config rule definitions into classifier rules.
func BuildRules(defs []config.RuleDef) []condition.Rule {
	rules := make([]condition.Rule, 0, len(defs))
	for _, d := range defs {
		rules = append(rules, condition.Rule{
			Label:     d.Label,
			Predicate: condition.Predicate{Field: d.Field, Removed: d.Removed, Added: d.Added},
		})
	}
	return rules
}

// BuildClosureRules converts config closure rules, falling back to the
// built-in set when none are configured.
func BuildClosureRules(defs []config.ClosureRuleDef) []report.ClosureRule {
	if len(defs) == 0 {
		return report.DefaultClosureRules()
	}
	rules := make([]report.ClosureRule, 0, len(defs))
	for _, d := range defs {
		rules = append(rules, report.ClosureRule{
			Bucket:        d.Bucket,
			Reasons:       d.Reasons,
			Labels:        d.Labels,
			LabelContains: d.LabelContains,
		})
	}
	return rules
}
