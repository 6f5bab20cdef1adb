// Package report writes the dated, human-readable run artifact: request
// counts, the per-week table and the run totals.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
)

const dateFormat = "2006-01-02"

// FileName returns the dated artifact name for a report, derived from the
// run's generation time.
func FileName(r domain.Report) string {
	return r.GeneratedAt.Format("20060102") + "_weekly_issues_results.txt"
}

// Format renders the report as plain text.
func Format(w io.Writer, r domain.Report) error {
	fmt.Fprintf(w, "Weekly Issue Analysis for %s/%s\n", r.Owner, r.Repo)
	fmt.Fprintf(w, "Run %s at %s\n", r.RunID, r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "API requests issued: %d\n\n", r.Requests)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "week\topened\tclosed")
	for _, b := range r.Weekly {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", b.WeekStart.Format(dateFormat), b.Opened, b.Closed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal issues opened: %d\n", r.TotalOpened)
	fmt.Fprintf(w, "Total issues closed: %d\n", r.TotalClosed)
	fmt.Fprintf(w, "Total forks: %d\n", r.ForksCount)
	return nil
}

// WriteFile writes the formatted report into dir and returns its path.
func WriteFile(dir string, r domain.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(r))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Format(f, r); err != nil {
		return "", err
	}
	return path, nil
}

// Summary is the short run digest used for logs and notifications.
func Summary(r domain.Report) string {
	return fmt.Sprintf("%s/%s weekly issues: %d opened, %d closed across %d weeks; %d forks",
		r.Owner, r.Repo, r.TotalOpened, r.TotalClosed, len(r.Weekly), r.ForksCount)
}
