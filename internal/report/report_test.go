package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
)

func reportFixture() domain.Report {
	return domain.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		Owner:       "daytonaio",
		Repo:        "docs",
		Weekly: []domain.WeekBucket{
			{WeekStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Opened: 3, Closed: 0},
			{WeekStart: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Opened: 2, Closed: 2},
		},
		TotalOpened: 5,
		TotalClosed: 2,
		ForksCount:  42,
		Requests:    7,
	}
}

func TestFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Format(&buf, reportFixture()); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Weekly Issue Analysis for daytonaio/docs",
		"API requests issued: 7",
		"2024-01-01",
		"2024-01-08",
		"Total issues opened: 5",
		"Total issues closed: 2",
		"Total forks: 42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteFileUsesDatedName(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteFile(dir, reportFixture())
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if filepath.Base(path) != "20240510_weekly_issues_results.txt" {
		t.Fatalf("artifact name = %s", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
}
