// Package chart renders the run charts as standalone SVG documents.
package chart

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"

	"loadgrade/internal/collector"
	"loadgrade/internal/core"
)

// Chart is one rendered SVG document.
type Chart struct {
	Name  string // file stem
	Title string
	SVG   []byte
}

// Colours shared by the charts and the HTML report.
const (
	colorBlue   = "#007bff"
	colorSky    = "#87ceeb"
	colorRed    = "#dc3545"
	colorOrange = "#fd7e14"
	colorGreen  = "#28a745"
)

const (
	width        = 960
	height       = 480
	marginLeft   = 70
	marginRight  = 20
	marginTop    = 50
	marginBottom = 140
)

// All renders every chart the data supports: the failure rate chart only
// when some endpoint failed, the time series only when history exists.
func All(endpoints []collector.EndpointMetric, history []core.HistoryPoint) []Chart {
	charts := []Chart{ResponseTimes(endpoints), Throughput(endpoints)}
	if c, ok := FailureRates(endpoints); ok {
		charts = append(charts, c)
	}
	if c, ok := PerformanceOverTime(history); ok {
		charts = append(charts, c)
	}
	return charts
}

// ResponseTimes compares average and P95 response time per endpoint.
func ResponseTimes(endpoints []collector.EndpointMetric) Chart {
	avg := make([]float64, len(endpoints))
	p95 := make([]float64, len(endpoints))
	for i, e := range endpoints {
		avg[i] = e.AvgResponseTimeMs
		p95[i] = e.P95Ms
	}
	title := "Response Times by Endpoint"
	return Chart{
		Name:  "response_times_by_endpoint",
		Title: title,
		SVG: barChart(title, "Response time (ms)", endpointLabels(endpoints), []series{
			{label: "Average", color: colorBlue, values: avg},
			{label: "P95", color: colorOrange, values: p95},
		}),
	}
}

// Throughput plots requests per second per endpoint.
func Throughput(endpoints []collector.EndpointMetric) Chart {
	rps := make([]float64, len(endpoints))
	for i, e := range endpoints {
		rps[i] = e.ThroughputRps
	}
	title := "Throughput by Endpoint"
	return Chart{
		Name:  "throughput_by_endpoint",
		Title: title,
		SVG: barChart(title, "Requests per second", endpointLabels(endpoints), []series{
			{label: "Requests/s", color: colorSky, values: rps},
		}),
	}
}

// FailureRates plots the failure rate per endpoint. It reports false when no
// endpoint recorded a failure.
func FailureRates(endpoints []collector.EndpointMetric) (Chart, bool) {
	var failed int
	rates := make([]float64, len(endpoints))
	colors := make([]string, len(endpoints))
	for i, e := range endpoints {
		failed += e.FailureCount
		rates[i] = e.FailureRatePercent
		colors[i] = FailureColor(e.FailureRatePercent)
	}
	if failed == 0 {
		return Chart{}, false
	}
	title := "Failure Rate by Endpoint"
	return Chart{
		Name:  "failure_rate_by_endpoint",
		Title: title,
		SVG: barChart(title, "Failure rate (%)", endpointLabels(endpoints), []series{
			{label: "Failure rate", values: rates, colors: colors},
		}),
	}, true
}

// FailureColor maps a failure rate percentage to red above 1%, orange above
// 0.1% and green otherwise.
func FailureColor(ratePercent float64) string {
	switch {
	case ratePercent > 1:
		return colorRed
	case ratePercent > 0.1:
		return colorOrange
	default:
		return colorGreen
	}
}

// WriteFiles writes each chart to dir/<name>.svg and returns the paths.
func WriteFiles(dir string, charts []Chart) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart directory: %w", err)
	}
	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		path := filepath.Join(dir, c.Name+".svg")
		if err := os.WriteFile(path, c.SVG, 0o644); err != nil {
			return paths, fmt.Errorf("writing chart %s: %w", c.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func endpointLabels(endpoints []collector.EndpointMetric) []string {
	labels := make([]string, len(endpoints))
	for i, e := range endpoints {
		labels[i] = e.Name
	}
	return labels
}

// series is one set of bars. colors, when set, overrides color per bar.
type series struct {
	label  string
	color  string
	values []float64
	colors []string
}

func barChart(title, yLabel string, labels []string, data []series) []byte {
	var buf bytes.Buffer
	openSVG(&buf, title)

	var top float64
	for _, s := range data {
		for _, v := range s.values {
			top = max(top, v)
		}
	}
	step, top := axisScale(top)

	plotW := float64(width - marginLeft - marginRight)
	plotH := float64(height - marginTop - marginBottom)
	base := float64(marginTop) + plotH

	yAxis(&buf, yLabel, step, top, marginTop, plotH)

	if len(labels) > 0 {
		group := plotW / float64(len(labels))
		barW := group * 0.7 / float64(len(data))
		for i, name := range labels {
			x0 := float64(marginLeft) + group*float64(i) + group*0.15
			for j, s := range data {
				if i >= len(s.values) {
					continue
				}
				h := s.values[i] / top * plotH
				fill := s.color
				if i < len(s.colors) {
					fill = s.colors[i]
				}
				fmt.Fprintf(&buf, `<rect class="bar" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" fill-opacity="0.8"><title>%s: %s</title></rect>`+"\n",
					x0+barW*float64(j), base-h, barW, h, fill, html.EscapeString(name), formatValue(s.values[i]))
			}
			cx := float64(marginLeft) + group*(float64(i)+0.5)
			fmt.Fprintf(&buf, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="end" transform="rotate(-45 %.1f %.1f)">%s</text>`+"\n",
				cx, base+14, cx, base+14, html.EscapeString(name))
		}
	}

	xAxis(&buf, base)
	if len(data) > 1 {
		legend(&buf, data)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func openSVG(buf *bytes.Buffer, title string) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d" font-family="Arial, sans-serif">`+"\n",
		width, height, width, height)
	fmt.Fprintf(buf, `<rect width="%d" height="%d" fill="#ffffff"/>`+"\n", width, height)
	fmt.Fprintf(buf, `<text x="%d" y="28" font-size="18" font-weight="bold" text-anchor="middle">%s</text>`+"\n",
		width/2, html.EscapeString(title))
}

func yAxis(buf *bytes.Buffer, label string, step, top, y0, plotH float64) {
	for v := 0.0; v <= top+step/2; v += step {
		y := y0 + plotH - v/top*plotH
		fmt.Fprintf(buf, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#dddddd"/>`+"\n",
			marginLeft, y, width-marginRight, y)
		fmt.Fprintf(buf, `<text x="%d" y="%.1f" font-size="11" text-anchor="end">%s</text>`+"\n",
			marginLeft-6, y+4, formatValue(v))
	}
	fmt.Fprintf(buf, `<text x="16" y="%.1f" font-size="12" text-anchor="middle" transform="rotate(-90 16 %.1f)">%s</text>`+"\n",
		y0+plotH/2, y0+plotH/2, html.EscapeString(label))
}

func xAxis(buf *bytes.Buffer, y float64) {
	fmt.Fprintf(buf, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#333333"/>`+"\n",
		marginLeft, y, width-marginRight, y)
}

func legend(buf *bytes.Buffer, data []series) {
	x := width - marginRight - 120*len(data)
	for i, s := range data {
		lx := x + 120*i
		fmt.Fprintf(buf, `<rect x="%d" y="38" width="12" height="12" fill="%s"/>`+"\n", lx, s.color)
		fmt.Fprintf(buf, `<text x="%d" y="48" font-size="12">%s</text>`+"\n", lx+16, html.EscapeString(s.label))
	}
}

// axisScale picks a 1-2-5 tick step covering top in about five ticks and
// returns the step and the rounded-up axis maximum.
func axisScale(top float64) (step, axisMax float64) {
	if top <= 0 {
		return 1, 5
	}
	raw := top / 5
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch f := raw / mag; {
	case f <= 1:
		step = mag
	case f <= 2:
		step = 2 * mag
	case f <= 5:
		step = 5 * mag
	default:
		step = 10 * mag
	}
	return step, math.Ceil(top/step) * step
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	if v < 1 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
