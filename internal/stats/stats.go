// Package stats normalizes issue timestamps onto a single UTC timeline and
// aggregates issues into weekly opened/closed buckets.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
)

// minYear guards against malformed or sentinel timestamps; weeks that start
// before this year are dropped from the table.
const minYear = 2000

// Normalize rewrites every issue timestamp to UTC so all downstream week
// bucketing operates on one consistent timeline regardless of the offsets
// the API returned.
func Normalize(issues []domain.Issue) []domain.Issue {
	for i := range issues {
		issues[i].CreatedAt = issues[i].CreatedAt.UTC()
		if issues[i].ClosedAt != nil {
			u := issues[i].ClosedAt.UTC()
			issues[i].ClosedAt = &u
		}
	}
	return issues
}

// WeekStart returns the Monday 00:00 UTC of the ISO calendar week
// containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Aggregate buckets issues by the week they were opened and the week they
// were closed, joins the two series on week start (missing side counts as
// zero), drops weeks before minYear and returns rows sorted ascending.
//
// An issue without a creation timestamp is a broken precondition and fails
// the whole aggregation. An empty input yields an empty table.
func Aggregate(issues []domain.Issue) ([]domain.WeekBucket, error) {
	buckets := make(map[time.Time]*domain.WeekBucket)

	get := func(week time.Time) *domain.WeekBucket {
		b, ok := buckets[week]
		if !ok {
			b = &domain.WeekBucket{WeekStart: week}
			buckets[week] = b
		}
		return b
	}

	for _, is := range issues {
		if is.CreatedAt.IsZero() {
			return nil, fmt.Errorf("stats: issue #%d has no creation timestamp", is.Number)
		}
		get(WeekStart(is.CreatedAt)).Opened++
		if is.Closed() {
			get(WeekStart(*is.ClosedAt)).Closed++
		}
	}

	out := make([]domain.WeekBucket, 0, len(buckets))
	for week, b := range buckets {
		if week.Year() < minYear {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.Before(out[j].WeekStart) })
	return out, nil
}

// Totals returns the column sums of the weekly table, used for the run
// summary.
func Totals(weekly []domain.WeekBucket) (opened, closed int) {
	for _, b := range weekly {
		opened += b.Opened
		closed += b.Closed
	}
	return opened, closed
}
