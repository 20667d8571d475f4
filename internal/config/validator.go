package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the config for:
//   - Duplicate report IDs, rule labels and closure buckets
//   - Unknown report kinds and roles
//   - Required fields per kind
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string
	if cfg.Engine.FetchWorkers < 0 {
		errs = append(errs, "engine.fetch_workers must not be negative")
	}
	if cfg.Engine.MaxAttempts < 0 {
		errs = append(errs, "engine.max_attempts must not be negative")
	}

	ids := make(map[string]int)
	for i, r := range cfg.Reports {
		if r.ID == "" {
			errs = append(errs, fmt.Sprintf("reports[%d]: id is required", i))
			continue
		}
		loc := fmt.Sprintf("report %s", r.ID)
		if prev, ok := ids[r.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate report id %q (reports[%d] and reports[%d])", r.ID, prev, i))
		} else {
			ids[r.ID] = i
		}
		if len(r.Identities) == 0 {
			errs = append(errs, fmt.Sprintf("%s: identities must not be empty", loc))
		}
		if r.Since != "" {
			if _, err := time.Parse(time.RFC3339, r.Since); err != nil {
				errs = append(errs, fmt.Sprintf("%s: since %q is not RFC 3339", loc, r.Since))
			}
		}

		switch r.Kind {
		case "transitions":
			validateRole(r, loc, &errs)
			validateRules(r.Rules, loc, &errs)
		case "bug_attributes":
			validateRole(r, loc, &errs)
		case "issue_closure":
			if r.Repo == "" && cfg.GitHub.Repo == "" {
				errs = append(errs, fmt.Sprintf("%s: repo is required (report.repo or github.repo)", loc))
			}
			validateClosureRules(r.ClosureRules, loc, &errs)
		case "":
			errs = append(errs, fmt.Sprintf("%s: kind is required", loc))
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown kind %q", loc, r.Kind))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateRole(r ReportDef, loc string, errs *[]string) {
	if r.Role != "commenter" && r.Role != "reporter" {
		*errs = append(*errs, fmt.Sprintf("%s: role must be commenter or reporter, got %q", loc, r.Role))
	}
}

func validateRules(rules []RuleDef, loc string, errs *[]string) {
	if len(rules) == 0 {
		*errs = append(*errs, fmt.Sprintf("%s: rules must not be empty", loc))
		return
	}
	labels := make(map[string]struct{}, len(rules))
	for j, rd := range rules {
		if rd.Label == "" {
			*errs = append(*errs, fmt.Sprintf("%s.rules[%d]: label is required", loc, j))
			continue
		}
		if _, dup := labels[rd.Label]; dup {
			*errs = append(*errs, fmt.Sprintf("%s: duplicate rule label %q", loc, rd.Label))
		}
		labels[rd.Label] = struct{}{}
		if rd.Field == "" {
			*errs = append(*errs, fmt.Sprintf("%s rule %s: field is required", loc, rd.Label))
		}
	}
}

func validateClosureRules(rules []ClosureRuleDef, loc string, errs *[]string) {
	buckets := make(map[string]struct{}, len(rules))
	for j, cr := range rules {
		if cr.Bucket == "" {
			*errs = append(*errs, fmt.Sprintf("%s.closure_rules[%d]: bucket is required", loc, j))
			continue
		}
		if cr.Bucket == "open" || cr.Bucket == "closed" {
			*errs = append(*errs, fmt.Sprintf("%s: closure bucket %q collides with an issue state", loc, cr.Bucket))
		}
		if _, dup := buckets[cr.Bucket]; dup {
			*errs = append(*errs, fmt.Sprintf("%s: duplicate closure bucket %q", loc, cr.Bucket))
		}
		buckets[cr.Bucket] = struct{}{}
		if len(cr.Reasons)+len(cr.Labels)+len(cr.LabelContains) == 0 {
			*errs = append(*errs, fmt.Sprintf("%s closure bucket %s: needs at least one of reasons, labels, label_contains", loc, cr.Bucket))
		}
	}
}
