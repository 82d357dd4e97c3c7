package chart

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/xscopehub/covidmap/internal/frame"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to render")

// TopDeaths returns the n aggregates with the most deaths, highest first.
// Ties are broken by country code.
func TopDeaths(aggs []frame.Aggregate, n int) []frame.Aggregate {
	top := make([]frame.Aggregate, len(aggs))
	copy(top, aggs)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].TotalDeaths != top[j].TotalDeaths {
			return top[i].TotalDeaths > top[j].TotalDeaths
		}
		return top[i].CountryCode < top[j].CountryCode
	})
	if n > 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

// TopDeathsSVG renders the n countries with the most accumulated deaths as
// an SVG bar chart.
func TopDeathsSVG(aggs []frame.Aggregate, n int) ([]byte, error) {
	top := TopDeaths(aggs, n)
	if len(top) == 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, 0, len(top))
	var peak float64
	for _, a := range top {
		v := float64(a.TotalDeaths)
		if v > peak {
			peak = v
		}
		bars = append(bars, chart.Value{Label: a.CountryCode, Value: v})
	}
	if peak <= 0 {
		peak = 1
	}

	bc := chart.BarChart{
		Title:      fmt.Sprintf("Top %d countries by accumulated deaths", len(top)),
		Width:      1024,
		Height:     480,
		BarWidth:   40,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: peak * 1.1},
			ValueFormatter: intFormatter,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render top deaths: %w", err)
	}
	return buf.Bytes(), nil
}

func intFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return ""
}
