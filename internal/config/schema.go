package config

import "time"

// Config is the top-level YAML structure.
type Config struct {
	Version  string       `yaml:"version"`
	Engine   EngineConf   `yaml:"engine"`
	Bugzilla BugzillaConf `yaml:"bugzilla"`
	GitHub   GitHubConf   `yaml:"github"`
	Reports  []ReportDef  `yaml:"reports"`
}

// EngineConf holds tunable concurrency and retry settings.
type EngineConf struct {
	FetchWorkers      int     `yaml:"fetch_workers"`
	MaxAttempts       int     `yaml:"max_attempts"`
	RetryDelayMs      int     `yaml:"retry_delay_ms"`
	RequestTimeoutMs  int     `yaml:"request_timeout_ms"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 = unpaced
	SkipFailed        bool    `yaml:"skip_failed"`
}

func (e EngineConf) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelayMs) * time.Millisecond
}

func (e EngineConf) RequestTimeout() time.Duration {
	return time.Duration(e.RequestTimeoutMs) * time.Millisecond
}

type BugzillaConf struct {
	BaseURL    string `yaml:"base_url"`
	ShowBugURL string `yaml:"show_bug_url"` // deep-link prefix, bug id is appended
}

type GitHubConf struct {
	BaseURL string `yaml:"base_url"`
	Repo    string `yaml:"repo"`
	PerPage int    `yaml:"per_page"`
}

// ReportDef is one named query plus the bucket shape it reports.
type ReportDef struct {
	ID           string           `yaml:"id"`
	Description  string           `yaml:"description"`
	Kind         string           `yaml:"kind"` // transitions | bug_attributes | issue_closure
	Identities   []string         `yaml:"identities"`
	Role         string           `yaml:"role"` // commenter | reporter; bugzilla kinds only
	Products     []string         `yaml:"products"`
	Since        string           `yaml:"since"` // RFC 3339; empty = no floor
	PageSize     int              `yaml:"page_size"`
	Fields       []string         `yaml:"fields"`
	Repo         string           `yaml:"repo"` // overrides github.repo
	Rules        []RuleDef        `yaml:"rules"`
	ClosureRules []ClosureRuleDef `yaml:"closure_rules"` // empty = built-in rules
}

// SinceTime parses Since. Validate guarantees it parses.
func (r ReportDef) SinceTime() time.Time {
	if r.Since == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, r.Since)
	return t
}

// RuleDef is a labelled field transition. Omitted removed/added match anything.
type RuleDef struct {
	Label   string  `yaml:"label"`
	Field   string  `yaml:"field"`
	Removed *string `yaml:"removed,omitempty"`
	Added   *string `yaml:"added,omitempty"`
}

type ClosureRuleDef struct {
	Bucket        string   `yaml:"bucket"`
	Reasons       []string `yaml:"reasons"`
	Labels        []string `yaml:"labels"`
	LabelContains []string `yaml:"label_contains"`
}

// Report returns the report with the given id.
func (c *Config) Report(id string) (*ReportDef, bool) {
	for i := range c.Reports {
		if c.Reports[i].ID == id {
			return &c.Reports[i], true
		}
	}
	return nil, false
}
