package chart

import (
	"time"

	"github.com/xscopehub/covidmap/internal/frame"
)

// Figure names, in page order.
const (
	NameTodayCases        = "today-cases"
	NameCasesAnimation    = "cases-animation"
	NameDeathsAnimation   = "deaths-animation"
	NameAccumulatedDeaths = "accumulated-deaths"
	NameAccumulatedCases  = "accumulated-cases"
)

// FrameLayout labels animation frames.
const FrameLayout = "20060102"

const (
	projectionNaturalEarth = "natural earth"
	colorScale             = "Plasma"
	unknownContinent       = "n/a"
	maxMarkerSize          = 20
)

// Qualitative palette assigned to continents in order of first appearance.
var palette = []string{
	"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
	"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// point is one located value with its hover label and color group.
type point struct {
	code  string
	label string
	group string
	value float64
}

// TodayCases plots the processing date's cases as bubbles colored by continent.
func TodayCases(snapshot []frame.Record, day time.Time) Figure {
	pts := recordPoints(snapshot, func(r frame.Record) float64 { return float64(r.Cases) })
	groups := groupOrder(pts)
	return Figure{
		Data:   scatterTraces(pts, groups, sizeRef(pts)),
		Layout: scatterLayout("World COVID-19 Cases for " + day.Format("2006-01-02")),
	}
}

// CasesAnimation plots daily cases per country with one frame per date.
func CasesAnimation(rows []frame.Record) Figure {
	all := recordPoints(rows, func(r frame.Record) float64 { return float64(r.Cases) })
	groups := groupOrder(all)
	ref := sizeRef(all)

	var frames []Frame
	for _, d := range byDate(rows) {
		pts := recordPoints(d.rows, func(r frame.Record) float64 { return float64(r.Cases) })
		frames = append(frames, Frame{Name: d.label, Data: scatterTraces(pts, groups, ref)})
	}

	fig := Figure{Layout: scatterLayout("World COVID-19 Cases Animation")}
	animate(&fig, frames, "date=")
	if len(frames) == 0 {
		fig.Data = scatterTraces(nil, groups, ref)
	}
	return fig
}

// DeathsAnimation shades countries by daily deaths with one frame per date.
// The color scale is fixed to colorRange.
func DeathsAnimation(rows []frame.Record, colorRange [2]float64) Figure {
	var frames []Frame
	for _, d := range byDate(rows) {
		pts := recordPoints(d.rows, func(r frame.Record) float64 { return float64(r.Deaths) })
		frames = append(frames, Frame{Name: d.label, Data: []Trace{choroplethTrace(pts, "deaths", colorRange)}})
	}

	fig := Figure{Layout: Layout{Margin: &Margin{T: 60}}}
	animate(&fig, frames, "date=")
	if len(frames) == 0 {
		fig.Data = []Trace{choroplethTrace(nil, "deaths", colorRange)}
	}
	return fig
}

// AccumulatedDeaths shades countries by total deaths over all dates.
func AccumulatedDeaths(aggs []frame.Aggregate, colorRange [2]float64) Figure {
	pts := aggregatePoints(aggs, func(a frame.Aggregate) float64 { return float64(a.TotalDeaths) })
	return Figure{
		Data: []Trace{choroplethTrace(pts, "total_deaths", colorRange)},
		Layout: Layout{
			Title:  &Title{Text: "Accumulated Covid-19 deaths by country"},
			Margin: &Margin{T: 60},
		},
	}
}

// AccumulatedCases plots total cases as bubbles colored by continent.
// Countries without a continent for the processing date share one group.
func AccumulatedCases(aggs []frame.Aggregate) Figure {
	pts := aggregatePoints(aggs, func(a frame.Aggregate) float64 { return float64(a.AccumulatedCases) })
	groups := groupOrder(pts)
	return Figure{
		Data:   scatterTraces(pts, groups, sizeRef(pts)),
		Layout: scatterLayout("Accumulated COVID-19 Cases by Country"),
	}
}

func recordPoints(rows []frame.Record, value func(frame.Record) float64) []point {
	pts := make([]point, 0, len(rows))
	for _, r := range rows {
		if r.CountryCode == "" {
			continue
		}
		pts = append(pts, point{code: r.CountryCode, label: r.Country, group: continentOf(r.Continent), value: value(r)})
	}
	return pts
}

func aggregatePoints(aggs []frame.Aggregate, value func(frame.Aggregate) float64) []point {
	pts := make([]point, 0, len(aggs))
	for _, a := range aggs {
		label := a.CountryCode
		if a.Country.Valid {
			label = a.Country.String
		}
		group := unknownContinent
		if a.Continent.Valid {
			group = continentOf(a.Continent.String)
		}
		pts = append(pts, point{code: a.CountryCode, label: label, group: group, value: value(a)})
	}
	return pts
}

func continentOf(s string) string {
	if s == "" {
		return unknownContinent
	}
	return s
}

// groupOrder returns the distinct groups in order of first appearance.
func groupOrder(pts []point) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, p := range pts {
		if !seen[p.group] {
			seen[p.group] = true
			groups = append(groups, p.group)
		}
	}
	return groups
}

// sizeRef scales bubble areas so the largest value gets maxMarkerSize pixels.
func sizeRef(pts []point) float64 {
	var peak float64
	for _, p := range pts {
		if p.value > peak {
			peak = p.value
		}
	}
	if peak <= 0 {
		return 1
	}
	return 2 * peak / (maxMarkerSize * maxMarkerSize)
}

// scatterTraces emits one trace per group, in groups order, including empty
// ones so animation frames line up with the initial traces.
func scatterTraces(pts []point, groups []string, ref float64) []Trace {
	traces := make([]Trace, 0, len(groups))
	for i, g := range groups {
		t := Trace{
			Type:        "scattergeo",
			Name:        g,
			LegendGroup: g,
			Locations:   []string{},
			HoverText:   []string{},
			Marker: &Marker{
				Color:    palette[i%len(palette)],
				Size:     []float64{},
				SizeMode: "area",
				SizeRef:  ref,
			},
		}
		for _, p := range pts {
			if p.group != g {
				continue
			}
			t.Locations = append(t.Locations, p.code)
			t.HoverText = append(t.HoverText, p.label)
			t.Marker.Size = append(t.Marker.Size, p.value)
		}
		traces = append(traces, t)
	}
	return traces
}

func choroplethTrace(pts []point, title string, colorRange [2]float64) Trace {
	zmin, zmax := colorRange[0], colorRange[1]
	t := Trace{
		Type:       "choropleth",
		Locations:  make([]string, 0, len(pts)),
		HoverText:  make([]string, 0, len(pts)),
		Z:          make([]float64, 0, len(pts)),
		ZMin:       &zmin,
		ZMax:       &zmax,
		ColorScale: colorScale,
		ColorBar:   &ColorBar{Title: Title{Text: title}},
	}
	for _, p := range pts {
		t.Locations = append(t.Locations, p.code)
		t.HoverText = append(t.HoverText, p.label)
		t.Z = append(t.Z, p.value)
	}
	return t
}

func scatterLayout(title string) Layout {
	return Layout{
		Title:  &Title{Text: title},
		Geo:    Geo{Projection: &Projection{Type: projectionNaturalEarth}},
		Legend: &Legend{Title: Title{Text: "continent"}, ItemSizing: "constant"},
		Margin: &Margin{T: 60},
	}
}

type dateRows struct {
	label string
	rows  []frame.Record
}

// byDate groups rows by calendar date in ascending order. The input is not
// modified.
func byDate(rows []frame.Record) []dateRows {
	sorted := make([]frame.Record, len(rows))
	copy(sorted, rows)
	frame.SortByDate(sorted)

	var out []dateRows
	for _, r := range sorted {
		label := r.Date.Format(FrameLayout)
		if n := len(out); n > 0 && out[n-1].label == label {
			out[n-1].rows = append(out[n-1].rows, r)
			continue
		}
		out = append(out, dateRows{label: label, rows: []frame.Record{r}})
	}
	return out
}

// animate attaches frames, a date slider and play/pause buttons. The first
// frame becomes the initial data.
func animate(fig *Figure, frames []Frame, prefix string) {
	if len(frames) == 0 {
		return
	}
	fig.Frames = frames
	fig.Data = frames[0].Data

	steps := make([]SliderStep, 0, len(frames))
	for _, f := range frames {
		steps = append(steps, SliderStep{
			Label:  f.Name,
			Method: "animate",
			Args:   []any{[]string{f.Name}, stepOptions(0)},
		})
	}
	fig.Layout.Sliders = []Slider{{
		Active:       0,
		CurrentValue: SliderCurrentValue{Prefix: prefix},
		Len:          0.9,
		X:            0.1,
		Y:            0,
		XAnchor:      "left",
		YAnchor:      "top",
		Pad:          map[string]int{"b": 10, "t": 60},
		Steps:        steps,
	}}
	fig.Layout.UpdateMenus = []UpdateMenu{{
		Type:       "buttons",
		Direction:  "left",
		ShowActive: false,
		X:          0.1,
		Y:          0,
		XAnchor:    "right",
		YAnchor:    "top",
		Pad:        map[string]int{"r": 10, "t": 70},
		Buttons: []Button{
			{Label: "&#9654;", Method: "animate", Args: []any{nil, playOptions()}},
			{Label: "&#9724;", Method: "animate", Args: []any{[]any{nil}, stepOptions(0)}},
		},
	}}
}

func stepOptions(ms int) map[string]any {
	return map[string]any{
		"mode":        "immediate",
		"fromcurrent": true,
		"frame":       map[string]any{"duration": ms, "redraw": true},
		"transition":  map[string]any{"duration": ms},
	}
}

func playOptions() map[string]any {
	return map[string]any{
		"frame":       map[string]any{"duration": 500, "redraw": true},
		"mode":        "immediate",
		"fromcurrent": true,
		"transition":  map[string]any{"duration": 500, "easing": "linear"},
	}
}
