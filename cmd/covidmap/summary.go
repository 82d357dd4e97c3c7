package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xscopehub/covidmap/internal/chart"
	"github.com/xscopehub/covidmap/internal/report"
)

func printSummary(out io.Writer, rep *report.Report, n int) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "day: %s\tsnapshot rows: %d\tcountries: %d\n\n", rep.Day.Format("2006-01-02"), len(rep.Snapshot), len(rep.Aggregates))
	fmt.Fprintln(tw, "CODE\tCOUNTRY\tCONTINENT\tTOTAL_DEATHS\tACCUMULATED_CASES")
	for _, a := range chart.TopDeaths(rep.Aggregates, n) {
		country, continent := "-", "-"
		if a.Country.Valid {
			country = a.Country.String
		}
		if a.Continent.Valid {
			continent = a.Continent.String
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", a.CountryCode, country, continent, a.TotalDeaths, a.AccumulatedCases)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(tw, "\nwarning: %v\n", w)
	}
	return tw.Flush()
}
