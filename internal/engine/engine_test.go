package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/trackstats/internal/bugzilla"
	"github.com/gyaneshwarpardhi/trackstats/internal/config"
	"github.com/gyaneshwarpardhi/trackstats/internal/github"
	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
)

const testConfig = `
version: v1
engine:
  fetch_workers: 4
github:
  repo: thunderbird/thunderbird-android
reports:
  - id: cv
    kind: transitions
    identities: [a@x.com, b@x.com]
    products: [Thunderbird]
    rules:
      - {label: confirmed, field: status, removed: UNCONFIRMED}
      - {label: verified, field: status, added: VERIFIED}
  - id: rb
    kind: bug_attributes
    identities: [a@x.com, b@x.com]
  - id: gh
    kind: issue_closure
    identities: [alice, bob]
`

type fakeBugs struct {
	mu        sync.Mutex
	search    map[string][]tracker.EntitySummary
	histories map[int][]tracker.ChangeEvent
	fail      map[int]error
	fetched   map[int]int
	queries   []bugzilla.Query
	jitter    bool
}

func (f *fakeBugs) SearchBugs(_ context.Context, q bugzilla.Query) ([]tracker.EntitySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.search[q.Identity], nil
}

func (f *fakeBugs) History(_ context.Context, id int) (tracker.History, error) {
	if f.jitter {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
	}
	f.mu.Lock()
	if f.fetched == nil {
		f.fetched = make(map[int]int)
	}
	f.fetched[id]++
	f.mu.Unlock()
	if err := f.fail[id]; err != nil {
		return tracker.History{}, err
	}
	return tracker.History{EntityID: id, Events: f.histories[id]}, nil
}

type fakeIssues struct {
	byAuthor map[string][]tracker.Issue
	queries  []github.Query
}

func (f *fakeIssues) SearchIssues(_ context.Context, q github.Query) ([]tracker.Issue, error) {
	f.queries = append(f.queries, q)
	return f.byAuthor[q.Author], nil
}

func newTestEngine(t *testing.T, bugs *fakeBugs, issues *fakeIssues, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, config.Validate(cfg))
	return New(cfg, WithClientFactory(func(*config.Config) (BugTracker, IssueTracker) {
		return bugs, issues
	}))
}

func status(who, removed, added string) tracker.ChangeEvent {
	return tracker.ChangeEvent{Who: who, Changes: []tracker.FieldChange{{FieldName: "status", Removed: removed, Added: added}}}
}

func transitionFixture() *fakeBugs {
	return &fakeBugs{
		search: map[string][]tracker.EntitySummary{
			"a@x.com": {{ID: 1}, {ID: 2}, {ID: 3}, {ID: 42}},
			"b@x.com": {{ID: 2}, {ID: 5}},
		},
		histories: map[int][]tracker.ChangeEvent{
			1:  {status("a@x.com", "UNCONFIRMED", "NEW"), status("A@X.COM", "RESOLVED", "VERIFIED")},
			2:  {status("b@x.com", "UNCONFIRMED", "NEW"), status("a@x.com", "RESOLVED", "VERIFIED")},
			3:  {status("c@x.com", "UNCONFIRMED", "NEW")},
			42: {status("a@x.com", "UNCONFIRMED", "CONFIRMED")},
			5:  {status("b@x.com", "RESOLVED", "VERIFIED")},
		},
	}
}

func TestRun_Transitions(t *testing.T) {
	bugs := transitionFixture()
	e := newTestEngine(t, bugs, &fakeIssues{}, nil)

	rep, err := e.Run(context.Background(), "cv", RunOptions{})
	require.NoError(t, err)
	require.Len(t, rep.Identities, 2)
	assert.NotEmpty(t, rep.RunID)

	a := rep.Identities[0]
	assert.Equal(t, "a@x.com", a.Identity)
	assert.Equal(t, 4, a.Candidates)
	assert.Equal(t, []int{1, 42}, a.Transitions.IDs("confirmed"))
	assert.Equal(t, []int{1, 2}, a.Transitions.IDs("verified"))

	b := rep.Identities[1]
	assert.Equal(t, []int{2}, b.Transitions.IDs("confirmed"))
	assert.Equal(t, []int{5}, b.Transitions.IDs("verified"))

	assert.Equal(t, 6, rep.Combined.Candidates)
	assert.Equal(t, 3, rep.Combined.Transitions.Count("confirmed"))
	assert.Equal(t, 3, rep.Combined.Transitions.Count("verified"))

	q := bugs.queries[0]
	assert.Equal(t, bugzilla.RoleCommenter, q.Role)
	assert.Equal(t, []string{"id", "last_change_time"}, q.Fields)
	assert.Equal(t, 1000, q.PageSize)
	assert.Equal(t, []string{"Thunderbird"}, q.Products)
}

func TestRun_TransitionsIndependentOfCompletionOrder(t *testing.T) {
	var first map[string][]int
	for i := 0; i < 20; i++ {
		bugs := transitionFixture()
		bugs.jitter = true
		e := newTestEngine(t, bugs, &fakeIssues{}, nil)
		rep, err := e.Run(context.Background(), "cv", RunOptions{})
		require.NoError(t, err)

		got := map[string][]int{}
		for _, l := range rep.Combined.Transitions.Labels() {
			got[l] = rep.Combined.Transitions.IDs(l)
		}
		if first == nil {
			first = got
			continue
		}
		assert.Equal(t, first, got)
	}
}

func TestRun_FatalFetchKeepsEarlierIdentities(t *testing.T) {
	bugs := transitionFixture()
	exhausted := &tracker.RetryExhaustedError{EntityID: 5, Attempts: 10, Last: tracker.ErrMalformedPayload}
	bugs.fail = map[int]error{5: exhausted}
	e := newTestEngine(t, bugs, &fakeIssues{}, nil)

	rep, err := e.Run(context.Background(), "cv", RunOptions{})
	require.Error(t, err)

	var re *tracker.RetryExhaustedError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 5, re.EntityID)

	require.NotNil(t, rep)
	require.Len(t, rep.Identities, 1)
	assert.Equal(t, "a@x.com", rep.Identities[0].Identity)
	assert.Equal(t, 2, rep.Combined.Transitions.Count("confirmed"))
	assert.NotEmpty(t, rep.Error)
	// in-flight work for the failing identity still ran to completion
	assert.Equal(t, 2, bugs.fetched[2])
}

func TestRun_SkipFailedListsIDs(t *testing.T) {
	bugs := transitionFixture()
	bugs.fail = map[int]error{3: &tracker.StatusError{URL: "x", StatusCode: 500, Status: "500 Internal Server Error"}}
	e := newTestEngine(t, bugs, &fakeIssues{}, func(c *config.Config) { c.Engine.SkipFailed = true })

	rep, err := e.Run(context.Background(), "cv", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, rep.Identities[0].Failed)
	assert.Equal(t, []int{3}, rep.Combined.Failed)
	assert.Equal(t, 2, rep.Identities[0].Transitions.Count("confirmed"))
}

func TestRun_BugAttributes(t *testing.T) {
	bugs := &fakeBugs{search: map[string][]tracker.EntitySummary{
		"a@x.com": {{ID: 1, Severity: "S2", Status: "NEW"}, {ID: 2, Severity: "S3", Status: "RESOLVED", Resolution: "FIXED"}},
		"b@x.com": {{ID: 3, Status: "RESOLVED", Resolution: "DUPLICATE"}},
	}}
	e := newTestEngine(t, bugs, &fakeIssues{}, nil)

	rep, err := e.Run(context.Background(), "rb", RunOptions{KeepEntities: true})
	require.NoError(t, err)
	c := rep.Combined
	assert.Equal(t, 3, c.Candidates)
	assert.Equal(t, 1, c.Bugs.Severity.Get("unknown"))
	assert.Equal(t, 2, c.Bugs.Status.Get("RESOLVED"))
	assert.Equal(t, 1, c.Bugs.Resolution.Get("DUPLICATE"))
	assert.Len(t, c.Bugs.Bugs, 3)
	assert.Equal(t, bugzilla.RoleReporter, bugs.queries[0].Role)
	assert.Equal(t, 5000, bugs.queries[0].PageSize)
	assert.Empty(t, bugs.fetched, "attribute reports must not fetch histories")
}

func TestRun_IssueClosure(t *testing.T) {
	issues := &fakeIssues{byAuthor: map[string][]tracker.Issue{
		"alice": {
			{Number: 1, State: "open"},
			{Number: 2, State: "closed", StateReason: "duplicate", Labels: []tracker.Label{{Name: "wontfix"}}},
		},
		"bob": {{Number: 3, State: "closed", StateReason: "completed"}},
	}}
	e := newTestEngine(t, &fakeBugs{}, issues, nil)

	rep, err := e.Run(context.Background(), "gh", RunOptions{})
	require.NoError(t, err)
	c := rep.Combined.Issues.Counts
	assert.Equal(t, 1, c.Get("open"))
	assert.Equal(t, 2, c.Get("closed"))
	assert.Equal(t, 1, c.Get("closed_as_completed"))
	assert.Equal(t, 1, c.Get("closed_as_duplicate"))
	assert.Equal(t, 1, c.Get("closed_as_not_planned"))
	assert.Equal(t, "thunderbird/thunderbird-android", issues.queries[0].Repo)
	assert.Equal(t, 100, issues.queries[0].PerPage)
}

func TestRun_UnknownReport(t *testing.T) {
	e := newTestEngine(t, &fakeBugs{}, &fakeIssues{}, nil)
	_, err := e.Run(context.Background(), "nope", RunOptions{})
	assert.True(t, errors.Is(err, ErrUnknownReport))
}

func TestSwapConfig(t *testing.T) {
	e := newTestEngine(t, &fakeBugs{}, &fakeIssues{}, nil)
	cfg, err := config.Parse([]byte("version: v2\n"))
	require.NoError(t, err)
	e.SwapConfig(cfg)
	assert.Equal(t, "v2", e.Config().Version)
	_, err = e.Run(context.Background(), "cv", RunOptions{})
	assert.ErrorIs(t, err, ErrUnknownReport)
}
