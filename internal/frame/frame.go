// Package frame reshapes the raw case table: cleaning, daily snapshot and
// per-country totals.
package frame

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/xscopehub/covidmap/internal/dataset"
)

// DateLayout is the upstream day/month/year date format.
const DateLayout = "02/01/2006"

// ErrEmptySnapshot marks a processing date with no published rows. It is
// reported, never returned as a failure.
var ErrEmptySnapshot = errors.New("no rows for processing date")

// Record is a cleaned row. Cases and Deaths are never negative.
type Record struct {
	Date        time.Time
	Cases       int
	Deaths      int
	Country     string
	CountryCode string
	Continent   string
}

// Aggregate holds totals for one country code across all dates. Country and
// Continent are null when the code has no row on the processing date.
type Aggregate struct {
	CountryCode      string
	TotalDeaths      int
	AccumulatedCases int
	Country          sql.NullString
	Continent        sql.NullString
}

// Clean parses dates with layout and replaces case and death counts with
// their absolute values.
//
// The absolute value is a workaround for upstream revisions that publish
// negative daily deltas. It discards the sign and is a known data-quality
// compromise, kept as-is.
func Clean(raw []dataset.Record, layout string) ([]Record, error) {
	if layout == "" {
		layout = DateLayout
	}
	out := make([]Record, 0, len(raw))
	for i, r := range raw {
		d, err := time.Parse(layout, r.Date)
		if err != nil {
			return nil, &dataset.ParseError{Line: r.Line, Row: i + 1, Column: dataset.ColDate, Value: r.Date, Err: err}
		}
		out = append(out, Record{
			Date:        d,
			Cases:       abs(r.Cases),
			Deaths:      abs(r.Deaths),
			Country:     r.Country,
			CountryCode: r.CountryCode,
			Continent:   r.Continent,
		})
	}
	return out, nil
}

// DropMissingCode removes rows without a country code.
func DropMissingCode(rows []Record) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if r.CountryCode == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortByDate orders rows by ascending date, keeping the input order of rows
// sharing a date.
func SortByDate(rows []Record) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
}

// Snapshot returns the rows whose calendar date equals day's. The result is
// empty, not nil, when nothing matches.
func Snapshot(rows []Record, day time.Time) []Record {
	out := make([]Record, 0)
	for _, r := range rows {
		if SameDay(r.Date, day) {
			out = append(out, r)
		}
	}
	return out
}

// SameDay compares the calendar dates of a and b, each in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Totals sums deaths and cases per country code over all rows, sorted by
// code, and attaches country and continent from the first snapshot row with
// the same code. Rows without a code are skipped.
func Totals(rows, snapshot []Record) []Aggregate {
	totals := make(map[string]*Aggregate)
	for _, r := range rows {
		if r.CountryCode == "" {
			continue
		}
		a, ok := totals[r.CountryCode]
		if !ok {
			a = &Aggregate{CountryCode: r.CountryCode}
			totals[r.CountryCode] = a
		}
		a.TotalDeaths += r.Deaths
		a.AccumulatedCases += r.Cases
	}

	meta := make(map[string]Record, len(snapshot))
	for _, r := range snapshot {
		if r.CountryCode == "" {
			continue
		}
		if _, seen := meta[r.CountryCode]; !seen {
			meta[r.CountryCode] = r
		}
	}

	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]Aggregate, 0, len(codes))
	for _, code := range codes {
		a := *totals[code]
		if m, ok := meta[code]; ok {
			a.Country = sql.NullString{String: m.Country, Valid: true}
			a.Continent = sql.NullString{String: m.Continent, Valid: true}
		}
		out = append(out, a)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
