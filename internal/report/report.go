// Package report runs the one-shot build: fetch, clean, snapshot, aggregate
// and chart.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xscopehub/covidmap/internal/chart"
	"github.com/xscopehub/covidmap/internal/dataset"
	"github.com/xscopehub/covidmap/internal/frame"
	"github.com/xscopehub/covidmap/internal/metrics"
)

// Options fixes the static build parameters.
type Options struct {
	DateLayout       string
	DeathsRange      [2]float64
	TotalDeathsRange [2]float64
	TopDeaths        int
}

// NamedFigure pairs a figure with its URL-safe name.
type NamedFigure struct {
	Name   string
	Figure chart.Figure
}

// Report is everything derived from one dataset fetch.
type Report struct {
	Day        time.Time
	Rows       []frame.Record
	Snapshot   []frame.Record
	Aggregates []frame.Aggregate
	Figures    []NamedFigure
	TopDeaths  []byte
	Warnings   []error
}

// Figure returns the named figure.
func (r *Report) Figure(name string) (chart.Figure, bool) {
	for _, f := range r.Figures {
		if f.Name == name {
			return f.Figure, true
		}
	}
	return chart.Figure{}, false
}

// Build fetches the table from src and derives the report for day.
// Any error aborts the build; an empty snapshot is recorded in Warnings.
func Build(ctx context.Context, src dataset.Source, day time.Time, opts Options) (*Report, error) {
	logger := slog.Default()

	start := time.Now()
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	metrics.ObserveStage("fetch", start)
	metrics.RowsFetched.Add(float64(len(raw)))
	logger.Info("dataset loaded", "rows", len(raw), "elapsed", time.Since(start))
	countSignCorrections(raw)

	start = time.Now()
	cleaned, err := frame.Clean(raw, opts.DateLayout)
	if err != nil {
		return nil, fmt.Errorf("clean dataset: %w", err)
	}

	// The snapshot is taken before code-less rows are dropped; the join
	// below only matches on codes, so those rows never attach metadata.
	snapshot := frame.Snapshot(cleaned, day)
	metrics.SnapshotRows.Set(float64(len(snapshot)))

	frame.SortByDate(cleaned)
	rows := frame.DropMissingCode(cleaned)
	if dropped := len(cleaned) - len(rows); dropped > 0 {
		metrics.RowsDropped.WithLabelValues("missing_country_code").Add(float64(dropped))
		logger.Debug("dropped rows without country code", "rows", dropped)
	}
	metrics.ObserveStage("clean", start)

	rep := &Report{Day: day, Rows: rows, Snapshot: snapshot}
	if len(snapshot) == 0 {
		err := fmt.Errorf("%s: %w", day.Format("2006-01-02"), frame.ErrEmptySnapshot)
		rep.Warnings = append(rep.Warnings, err)
		logger.Warn("snapshot is empty; today's chart will have no points", "day", day.Format("2006-01-02"))
	}

	start = time.Now()
	rep.Aggregates = frame.Totals(rows, snapshot)
	metrics.Countries.Set(float64(len(rep.Aggregates)))
	metrics.ObserveStage("aggregate", start)

	start = time.Now()
	rep.Figures = []NamedFigure{
		{chart.NameTodayCases, chart.TodayCases(snapshot, day)},
		{chart.NameCasesAnimation, chart.CasesAnimation(rows)},
		{chart.NameDeathsAnimation, chart.DeathsAnimation(rows, opts.DeathsRange)},
		{chart.NameAccumulatedDeaths, chart.AccumulatedDeaths(rep.Aggregates, opts.TotalDeathsRange)},
		{chart.NameAccumulatedCases, chart.AccumulatedCases(rep.Aggregates)},
	}
	if svg, err := chart.TopDeathsSVG(rep.Aggregates, opts.TopDeaths); err == nil {
		rep.TopDeaths = svg
	} else {
		rep.Warnings = append(rep.Warnings, err)
		logger.Warn("top deaths chart skipped", "error", err)
	}
	metrics.ObserveStage("charts", start)

	logger.Info("report built",
		"day", day.Format("2006-01-02"),
		"rows", len(rows),
		"snapshot", len(snapshot),
		"countries", len(rep.Aggregates),
	)
	return rep, nil
}

func countSignCorrections(raw []dataset.Record) {
	var cases, deaths int
	for _, r := range raw {
		if r.Cases < 0 {
			cases++
		}
		if r.Deaths < 0 {
			deaths++
		}
	}
	metrics.SignCorrections.WithLabelValues("cases").Add(float64(cases))
	metrics.SignCorrections.WithLabelValues("deaths").Add(float64(deaths))
}
