package domain

import "time"

// Issue is one unit retrieved from the tracker. Pull requests are filtered
// out by the fetch step and never become Issues.
type Issue struct {
	Number    int64      `json:"number"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// Closed reports whether the issue reached the closed state. ClosedAt is
// non-nil exactly when State is "closed".
func (i Issue) Closed() bool { return i.State == "closed" && i.ClosedAt != nil }

// WeekBucket is one row of the weekly table: a Monday 00:00 UTC week start
// and the opened/closed counts for that week.
type WeekBucket struct {
	WeekStart time.Time `json:"week"`
	Opened    int       `json:"issues_opened"`
	Closed    int       `json:"issues_closed"`
}

// RateLimitStatus describes the remaining API quota and its reset time.
type RateLimitStatus struct {
	Remaining int
	Reset     time.Time
}

// Snapshot is the raw fetched data persisted between runs so a run can be
// replayed without hitting the API again.
type Snapshot struct {
	FetchedAt  time.Time `json:"fetched_at"`
	Owner      string    `json:"owner"`
	Repo       string    `json:"repo"`
	Issues     []Issue   `json:"issues"`
	ForksCount int       `json:"forks_count"`
}

// Report is the structured result of one run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Owner       string
	Repo        string
	Weekly      []WeekBucket
	TotalOpened int
	TotalClosed int
	ForksCount  int
	Requests    int
}
