package dashboard

import (
	"embed"
	"html/template"
	"io"

	"github.com/xscopehub/covidmap/internal/config"
)

//go:embed templates/page.html.tmpl
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/page.html.tmpl"))

// Page is the fixed dashboard layout: static text on the left, charts on the
// right.
type Page struct {
	Heading     string
	Lines       []string
	Notices     []string
	Stylesheets []string
	PlotlyJS    string
	Background  string
	TextColor   string
	FigureBase  string
	Figures     []string
	SummaryURL  string
}

// NewPage fills the static parts of the page from configuration.
func NewPage(cfg config.DashboardConfig) Page {
	return Page{
		Heading:     cfg.Heading,
		Lines:       cfg.Lines,
		Stylesheets: cfg.Stylesheets,
		PlotlyJS:    cfg.PlotlyJS,
		Background:  cfg.Background,
		TextColor:   cfg.TextColor,
		FigureBase:  "/figures/",
	}
}

// Render writes the page HTML.
func (p Page) Render(w io.Writer) error {
	return pageTemplate.Execute(w, p)
}
