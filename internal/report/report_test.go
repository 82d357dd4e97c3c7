package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xscopehub/covidmap/internal/chart"
	"github.com/xscopehub/covidmap/internal/dataset"
	"github.com/xscopehub/covidmap/internal/frame"
)

type staticSource struct {
	recs []dataset.Record
	err  error
}

func (s staticSource) Fetch(context.Context) ([]dataset.Record, error) {
	return s.recs, s.err
}

var opts = Options{
	DateLayout:       frame.DateLayout,
	DeathsRange:      [2]float64{0, 2500},
	TotalDeathsRange: [2]float64{0, 80000},
	TopDeaths:        10,
}

func TestBuildEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dateRep,cases,deaths,countriesAndTerritories,countryterritoryCode,continentExp\n" +
			"02/03/2021,-5,2,Alpha,AAA,Europe\n" +
			"01/03/2021,10,1,Alpha,AAA,Europe\n" +
			"01/03/2021,4,0,Beta,BBB,Asia\n" +
			"02/03/2021,1,0,Gamma,,Oceania\n"))
	}))
	defer srv.Close()

	today := time.Date(2021, time.March, 2, 0, 0, 0, 0, time.UTC)
	rep, err := Build(context.Background(), dataset.NewLoader(srv.URL), today, opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(rep.Snapshot) != 2 {
		t.Fatalf("snapshot keeps code-less rows, expected 2 got %d", len(rep.Snapshot))
	}
	if len(rep.Rows) != 3 {
		t.Fatalf("expected 3 coded rows, got %d", len(rep.Rows))
	}
	for i := 1; i < len(rep.Rows); i++ {
		if rep.Rows[i].Date.Before(rep.Rows[i-1].Date) {
			t.Fatalf("rows not sorted by date")
		}
	}
	if len(rep.Aggregates) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(rep.Aggregates))
	}
	a, b := rep.Aggregates[0], rep.Aggregates[1]
	if a.CountryCode != "AAA" || a.AccumulatedCases != 15 || a.TotalDeaths != 3 || a.Continent.String != "Europe" {
		t.Fatalf("AAA = %+v", a)
	}
	if b.CountryCode != "BBB" || b.Country.Valid || b.Continent.Valid {
		t.Fatalf("BBB = %+v", b)
	}

	if len(rep.Figures) != 5 {
		t.Fatalf("expected 5 figures, got %d", len(rep.Figures))
	}
	for _, name := range []string{chart.NameTodayCases, chart.NameCasesAnimation, chart.NameDeathsAnimation, chart.NameAccumulatedDeaths, chart.NameAccumulatedCases} {
		if _, ok := rep.Figure(name); !ok {
			t.Fatalf("figure %s missing", name)
		}
	}
	if len(rep.TopDeaths) == 0 {
		t.Fatalf("expected top deaths svg")
	}
	if len(rep.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", rep.Warnings)
	}
}

func TestBuildEmptySnapshotIsWarning(t *testing.T) {
	src := staticSource{recs: []dataset.Record{
		{Date: "01/03/2021", Cases: 1, Country: "Alpha", CountryCode: "AAA", Continent: "Europe"},
	}}
	rep, err := Build(context.Background(), src, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), opts)
	if err != nil {
		t.Fatalf("empty snapshot must not fail: %v", err)
	}
	if len(rep.Warnings) != 1 || !errors.Is(rep.Warnings[0], frame.ErrEmptySnapshot) {
		t.Fatalf("expected empty snapshot warning, got %v", rep.Warnings)
	}
	if rep.Aggregates[0].Country.Valid {
		t.Fatalf("no snapshot means no metadata")
	}
}

func TestBuildPropagatesErrors(t *testing.T) {
	day := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	netErr := &dataset.NetworkError{URL: "http://x", StatusCode: 503}
	_, err := Build(context.Background(), staticSource{err: netErr}, day, opts)
	var nerr *dataset.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}

	bad := staticSource{recs: []dataset.Record{{Date: "2021/03/01", CountryCode: "AAA"}}}
	_, err = Build(context.Background(), bad, day, opts)
	var perr *dataset.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
