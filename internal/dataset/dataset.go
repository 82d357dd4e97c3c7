// Package dataset retrieves and decodes the ECDC case distribution table.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Upstream column names read from the header row.
const (
	ColDate        = "dateRep"
	ColCases       = "cases"
	ColDeaths      = "deaths"
	ColCountry     = "countriesAndTerritories"
	ColCountryCode = "countryterritoryCode"
	ColContinent   = "continentExp"
)

var requiredColumns = []string{ColDate, ColCases, ColDeaths, ColCountry, ColCountryCode, ColContinent}

// ErrMissingColumn is wrapped by ParseError when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Record is one published row before cleaning. Cases and Deaths are daily
// deltas and may be negative when the upstream revises earlier counts.
// Line is the source line the row starts on, counting the header as 1, or
// zero when the record did not come from a file.
type Record struct {
	Line        int
	Date        string
	Cases       int
	Deaths      int
	Country     string
	CountryCode string
	Continent   string
}

// Source yields the raw table.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// Loader fetches the table from a fixed URL. It performs a single attempt.
type Loader struct {
	url        string
	httpClient *http.Client
}

// Option configures Loader behavior.
type Option func(*Loader)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.httpClient = c
	}
}

// NewLoader creates a Loader for url.
func NewLoader(url string, opts ...Option) *Loader {
	l := &Loader{
		url:        url,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// URL returns the dataset location.
func (l *Loader) URL() string { return l.url }

// Fetch downloads and parses the table.
func (l *Loader) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, &NetworkError{URL: l.url, Err: err}
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: l.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &NetworkError{URL: l.url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: l.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return Parse(bytes.NewReader(body))
}

// Parse decodes a comma separated table with a header row. Columns other than
// the six required ones are ignored. Empty count cells read as zero.
// Malformed CSV is reported as *ParseError; read failures of r are returned
// wrapped as they are.
func Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Column: ColDate, Err: ErrMissingColumn}
		}
		return nil, readError(err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		line, _ := cr.FieldPos(0)
		rec, err := decodeRow(row, idx, line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func readError(err error) error {
	var cerr *csv.ParseError
	if errors.As(err, &cerr) {
		return &ParseError{Line: cerr.StartLine, Err: cerr.Err}
	}
	return fmt.Errorf("read table: %w", err)
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &ParseError{Column: col, Err: ErrMissingColumn}
		}
	}
	return idx, nil
}

func decodeRow(row []string, idx map[string]int, line int) (Record, error) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	cases, err := parseCount(field(ColCases))
	if err != nil {
		return Record{}, &ParseError{Line: line, Column: ColCases, Value: field(ColCases), Err: err}
	}
	deaths, err := parseCount(field(ColDeaths))
	if err != nil {
		return Record{}, &ParseError{Line: line, Column: ColDeaths, Value: field(ColDeaths), Err: err}
	}

	return Record{
		Line:        line,
		Date:        field(ColDate),
		Cases:       cases,
		Deaths:      deaths,
		Country:     field(ColCountry),
		CountryCode: field(ColCountryCode),
		Continent:   field(ColContinent),
	}, nil
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some exports write integral counts as floats ("12.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("not an integer")
		}
		return int(f), nil
	}
	return n, nil
}
