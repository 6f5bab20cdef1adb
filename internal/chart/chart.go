// Package chart renders the weekly table as a dual-y-axis line chart:
// opened counts on the left axis, closed counts on the right.
package chart

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stefanicjuraj/daytona-docs-issues-analysis/internal/domain"
)

const dateFormat = "2006-01-02"

// HTMLFile and PNGFile are the chart artifact names inside the artifact
// directory.
const (
	HTMLFile = "weekly_issues_plot.html"
	PNGFile  = "weekly_issues_plot.png"
)

// Render writes the chart HTML for the weekly table to w.
func Render(w io.Writer, owner, repo string, weekly []domain.WeekBucket) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Weekly issues",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Weekly Analysis of Issues for %s/%s", owner, repo),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Week"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Issues Opened", Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
	)
	line.ExtendYAxis(opts.YAxis{Name: "Issues Closed", Type: "value"})

	xAxis := make([]string, 0, len(weekly))
	opened := make([]opts.LineData, 0, len(weekly))
	closed := make([]opts.LineData, 0, len(weekly))
	for _, b := range weekly {
		xAxis = append(xAxis, b.WeekStart.Format(dateFormat))
		opened = append(opened, opts.LineData{Value: b.Opened})
		closed = append(closed, opts.LineData{Value: b.Closed})
	}

	line.SetXAxis(xAxis).
		AddSeries("Issues Opened", opened,
			charts.WithLabelOpts(opts.Label{Show: true, Position: "top"}),
		).
		AddSeries("Issues Closed", closed,
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
			charts.WithLabelOpts(opts.Label{Show: true, Position: "bottom"}),
		)

	return line.Render(w)
}

// WriteFiles renders the chart HTML into dir and returns its path.
func WriteFiles(dir, owner, repo string, weekly []domain.WeekBucket) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, HTMLFile)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Render(f, owner, repo, weekly); err != nil {
		return "", err
	}
	return path, nil
}

// HTMLToPNG converts the rendered chart to a PNG image by shelling out to
// node-html-to-image-cli. The npx tool must be available on PATH.
func HTMLToPNG(htmlPath, pngPath string) error {
	parts := strings.Fields("npx node-html-to-image-cli " + htmlPath + " " + pngPath)
	out, err := exec.Command(parts[0], parts[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("chart: html to image: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
