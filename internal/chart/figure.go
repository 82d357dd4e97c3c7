// Package chart builds declarative map figures in the plotly.js JSON schema
// and a static summary image.
package chart

import "encoding/json"

// Figure is a complete plotly.js figure: initial traces, layout and optional
// animation frames.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Frames []Frame `json:"frames,omitempty"`
}

// JSON marshals the figure.
func (f Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

// Trace is a scattergeo or choropleth trace.
type Trace struct {
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	LegendGroup string    `json:"legendgroup,omitempty"`
	Locations   []string  `json:"locations"`
	HoverText   []string  `json:"hovertext"`
	Z           []float64 `json:"z,omitempty"`
	ZMin        *float64  `json:"zmin,omitempty"`
	ZMax        *float64  `json:"zmax,omitempty"`
	ColorScale  string    `json:"colorscale,omitempty"`
	ColorBar    *ColorBar `json:"colorbar,omitempty"`
	Marker      *Marker   `json:"marker,omitempty"`
}

// Marker sizes scattergeo points.
type Marker struct {
	Color    string    `json:"color,omitempty"`
	Size     []float64 `json:"size"`
	SizeMode string    `json:"sizemode,omitempty"`
	SizeRef  float64   `json:"sizeref,omitempty"`
}

// ColorBar titles a choropleth scale.
type ColorBar struct {
	Title Title `json:"title"`
}

// Title is a plotly text title.
type Title struct {
	Text string `json:"text"`
}

// Layout holds the figure layout.
type Layout struct {
	Title       *Title       `json:"title,omitempty"`
	Geo         Geo          `json:"geo"`
	Legend      *Legend      `json:"legend,omitempty"`
	Margin      *Margin      `json:"margin,omitempty"`
	Sliders     []Slider     `json:"sliders,omitempty"`
	UpdateMenus []UpdateMenu `json:"updatemenus,omitempty"`
}

// Geo configures the map subplot.
type Geo struct {
	Projection *Projection `json:"projection,omitempty"`
	ShowFrame  bool        `json:"showframe"`
}

// Projection names a map projection.
type Projection struct {
	Type string `json:"type"`
}

// Legend titles the trace legend.
type Legend struct {
	Title      Title  `json:"title"`
	ItemSizing string `json:"itemsizing,omitempty"`
}

// Margin is the plot margin in pixels.
type Margin struct {
	T int `json:"t"`
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
}

// Frame is one animation step.
type Frame struct {
	Name string  `json:"name"`
	Data []Trace `json:"data"`
}

// Slider drives the animation frame selection.
type Slider struct {
	Active       int                `json:"active"`
	CurrentValue SliderCurrentValue `json:"currentvalue"`
	Len          float64            `json:"len"`
	X            float64            `json:"x"`
	Y            float64            `json:"y"`
	XAnchor      string             `json:"xanchor"`
	YAnchor      string             `json:"yanchor"`
	Pad          map[string]int     `json:"pad,omitempty"`
	Steps        []SliderStep       `json:"steps"`
}

// SliderCurrentValue prefixes the shown frame name.
type SliderCurrentValue struct {
	Prefix string `json:"prefix"`
}

// SliderStep jumps to one frame.
type SliderStep struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// UpdateMenu holds the play and pause buttons.
type UpdateMenu struct {
	Type       string         `json:"type"`
	Direction  string         `json:"direction"`
	ShowActive bool           `json:"showactive"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	XAnchor    string         `json:"xanchor"`
	YAnchor    string         `json:"yanchor"`
	Pad        map[string]int `json:"pad,omitempty"`
	Buttons    []Button       `json:"buttons"`
}

// Button is an update menu entry.
type Button struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}
