package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"loadgrade/internal/chart"
)

//go:embed templates/report.html.tmpl
var htmlTemplate string

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"count": FormatCount,
	// Chart SVG is generated by the chart package with escaped labels.
	"svg": func(b []byte) template.HTML { return template.HTML(b) },
}).Parse(htmlTemplate))

type htmlData struct {
	Report   *Report
	Charts   []chart.Chart
	Standing []string
}

// WriteHTML renders r as a self-contained HTML page with charts inlined.
func WriteHTML(w io.Writer, r *Report, charts []chart.Chart) error {
	data := htmlData{Report: r, Charts: charts, Standing: StandingRecommendations}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
