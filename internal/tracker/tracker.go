package tracker

import "time"

// EntitySummary is one bug row returned by a search page.
// Only the fields named in include_fields are populated.
type EntitySummary struct {
	ID             int       `json:"id"`
	Summary        string    `json:"summary,omitempty"`
	Status         string    `json:"status,omitempty"`
	Resolution     string    `json:"resolution,omitempty"`
	Severity       string    `json:"severity,omitempty"`
	CreationTime   time.Time `json:"creation_time,omitzero"`
	LastChangeTime time.Time `json:"last_change_time,omitzero"`
}

// Issue is a GitHub issue as returned by the search API.
type Issue struct {
	Number      int     `json:"number"`
	Title       string  `json:"title"`
	State       string  `json:"state"`        // "open" | "closed"
	StateReason string  `json:"state_reason"` // "completed", "not_planned", "duplicate", ""
	Labels      []Label `json:"labels"`
	HTMLURL     string  `json:"html_url"`
}

// Label is a GitHub issue label.
type Label struct {
	Name string `json:"name"`
}

// ChangeEvent is one atomic edit to an entity.
type ChangeEvent struct {
	Who     string        `json:"who"`
	When    time.Time     `json:"when"`
	Changes []FieldChange `json:"changes"`
}

// FieldChange is a single field's before/after value within a ChangeEvent.
type FieldChange struct {
	FieldName string `json:"field_name"`
	Removed   string `json:"removed"`
	Added     string `json:"added"`
}

// History is the ordered change log of one entity.
type History struct {
	EntityID int
	Events   []ChangeEvent
	Retries  int // malformed responses consumed before the successful one
}
