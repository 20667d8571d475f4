package bugzilla

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/trackstats/internal/metrics"
	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
)

// Role selects which search parameter the identity is bound to.
type Role string

const (
	RoleCommenter Role = "commenter"
	RoleReporter  Role = "reporter"
)

// DefaultPageSize is used when Query.PageSize is unset.
const DefaultPageSize = 1000

// Query is a bug search filter.
type Query struct {
	Identity string
	Role     Role
	Products []string
	Since    time.Time // zero = no last_change_time floor
	Fields   []string  // include_fields projection; empty = "id"
	PageSize int
}

func (q Query) params() url.Values {
	p := url.Values{}
	fields := q.Fields
	if len(fields) == 0 {
		fields = []string{"id"}
	}
	p.Set("include_fields", strings.Join(fields, ","))
	p.Set("limit", strconv.Itoa(q.PageSize))
	role := q.Role
	if role == "" {
		role = RoleCommenter
	}
	p.Set(string(role), q.Identity)
	for _, prod := range q.Products {
		p.Add("product", prod)
	}
	if !q.Since.IsZero() {
		p.Set("last_change_time", q.Since.UTC().Format(time.RFC3339))
	}
	return p
}

type searchPage struct {
	Bugs []tracker.EntitySummary `json:"bugs"`
}

// SearchBugs walks the search endpoint page by page, advancing offset by the
// page size until an empty page comes back. Ids seen on an earlier page are
// not returned twice.
func (c *Client) SearchBugs(ctx context.Context, q Query) ([]tracker.EntitySummary, error) {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	params := q.params()

	var bugs []tracker.EntitySummary
	seen := make(map[int]struct{})
	for offset := 0; ; offset += q.PageSize {
		params.Set("offset", strconv.Itoa(offset))
		var page searchPage
		if err := c.api.GetJSON(ctx, "/bug", params, &page); err != nil {
			return nil, fmt.Errorf("search %s=%s offset %d: %w", q.Role, q.Identity, offset, err)
		}
		metrics.SearchPages.WithLabelValues("bugzilla").Inc()
		if len(page.Bugs) == 0 {
			break
		}
		for _, b := range page.Bugs {
			if _, dup := seen[b.ID]; dup {
				continue
			}
			seen[b.ID] = struct{}{}
			bugs = append(bugs, b)
		}
	}
	slog.Debug("bugzilla search complete", "identity", q.Identity, "role", q.Role, "bugs", len(bugs))
	return bugs, nil
}
