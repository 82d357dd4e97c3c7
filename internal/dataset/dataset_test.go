package dataset

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
)

const sample = `dateRep,day,month,year,cases,deaths,countriesAndTerritories,geoId,countryterritoryCode,popData2019,continentExp
14/12/2020,14,12,2020,746,6,Afghanistan,AF,AFG,38041757,Asia
13/12/2020,13,12,2020,-298,9,Afghanistan,AF,AFG,38041757,Asia
14/12/2020,14,12,2020,,,Bonaire,BQ,,25979,America
`

func TestParse(t *testing.T) {
	recs, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	want := Record{Line: 2, Date: "14/12/2020", Cases: 746, Deaths: 6, Country: "Afghanistan", CountryCode: "AFG", Continent: "Asia"}
	if recs[0] != want {
		t.Fatalf("record 0 = %+v want %+v", recs[0], want)
	}
	if recs[1].Cases != -298 {
		t.Fatalf("negative delta must be preserved by the reader, got %d", recs[1].Cases)
	}
	if recs[2].CountryCode != "" || recs[2].Cases != 0 || recs[2].Deaths != 0 {
		t.Fatalf("unexpected blank row decoding: %+v", recs[2])
	}
}

func TestParseBOMAndFloatCounts(t *testing.T) {
	in := "\ufeffdateRep,cases,deaths,countriesAndTerritories,countryterritoryCode,continentExp\n01/01/2021,12.0,3,Chile,CHL,America\n"
	recs, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Cases != 12 {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestParseTracksSourceLines(t *testing.T) {
	in := "dateRep,cases,deaths,countriesAndTerritories,countryterritoryCode,continentExp\n" +
		"01/01/2021,1,0,\"Bonaire, Saint Eustatius\nand Saba\",BES,America\n" +
		"\n" +
		"bad-date,2,0,Chile,CHL,America\n"
	recs, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Line != 2 || recs[1].Line != 5 {
		t.Fatalf("lines = %d, %d want 2, 5", recs[0].Line, recs[1].Line)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		line   int
		column string
	}{
		{"missing column", "dateRep,cases,deaths,countriesAndTerritories,continentExp\n", 0, ColCountryCode},
		{"empty input", "", 0, ColDate},
		{"bad cases", "dateRep,cases,deaths,countriesAndTerritories,countryterritoryCode,continentExp\n01/01/2021,x,0,A,AAA,Asia\n", 2, ColCases},
		{"bare quote", "dateRep,cases,deaths,countriesAndTerritories,countryterritoryCode,continentExp\n01/01/2021,1,0,A \"B,AAA,Asia\n", 2, ""},
		{"fractional deaths", "dateRep,cases,deaths,countriesAndTerritories,countryterritoryCode,continentExp\n01/01/2021,1,0,A,AAA,Asia\n02/01/2021,1,0.5,A,AAA,Asia\n", 3, ColDeaths},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.in))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Line != tc.line {
				t.Errorf("line = %d want %d", perr.Line, tc.line)
			}
			if perr.Column != tc.column {
				t.Errorf("column = %q want %q", perr.Column, tc.column)
			}
		})
	}
}

func TestLoaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	recs, err := NewLoader(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
}

func TestLoaderFetchStatusError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, strings.Repeat("x", 2048), http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewLoader(srv.URL).Fetch(context.Background())
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if nerr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", nerr.StatusCode)
	}
	if len(nerr.Body) > 512 {
		t.Fatalf("body not truncated: %d bytes", len(nerr.Body))
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected a single attempt, got %d", n)
	}
}

func TestLoaderFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewLoader(url).Fetch(context.Background())
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if nerr.Err == nil {
		t.Fatalf("expected transport error to be wrapped")
	}
}

func TestParseReadFailure(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := Parse(io.MultiReader(strings.NewReader("dateRep,cases,deaths"), iotest.ErrReader(boom)))
	if !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		t.Fatalf("read failure reported as ParseError: %v", err)
	}
}

func TestLoaderFetchTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(sample[:strings.Index(sample, "\n13/12")]))
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	_, err := NewLoader(srv.URL).Fetch(context.Background())
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		t.Fatalf("truncated body reported as ParseError: %v", err)
	}
	if nerr.StatusCode != http.StatusOK || nerr.Err == nil {
		t.Fatalf("unexpected network error: %+v", nerr)
	}
}
