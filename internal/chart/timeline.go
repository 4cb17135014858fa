package chart

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"loadgrade/internal/core"
)

// PerformanceOverTime draws requests per second above average response time
// over the run. It reports false when there is no history.
func PerformanceOverTime(history []core.HistoryPoint) (Chart, bool) {
	if len(history) == 0 {
		return Chart{}, false
	}

	rps := make([]float64, len(history))
	avg := make([]float64, len(history))
	for i, p := range history {
		rps[i] = p.RequestsPerSecond
		avg[i] = p.AvgResponseTimeMs
	}

	title := "Performance over Time"
	var buf bytes.Buffer
	openSVG(&buf, title)

	panelH := float64(height-marginTop-60) / 2
	linePanel(&buf, history, rps, "Requests per second", colorBlue, marginTop, panelH-20)
	linePanel(&buf, history, avg, "Average response time (ms)", colorOrange, marginTop+panelH+20, panelH-20)

	first, last := history[0].Timestamp, history[len(history)-1].Timestamp
	fmt.Fprintf(&buf, `<text x="%d" y="%d" font-size="11">%s</text>`+"\n",
		marginLeft, height-12, first.Format("15:04:05"))
	fmt.Fprintf(&buf, `<text x="%d" y="%d" font-size="11" text-anchor="end">%s</text>`+"\n",
		width-marginRight, height-12, last.Format("15:04:05"))

	buf.WriteString("</svg>\n")
	return Chart{Name: "performance_over_time", Title: title, SVG: buf.Bytes()}, true
}

func linePanel(buf *bytes.Buffer, history []core.HistoryPoint, values []float64, label, color string, y0, plotH float64) {
	var top float64
	for _, v := range values {
		top = max(top, v)
	}
	step, top := axisScale(top)
	yAxis(buf, label, step, top, y0, plotH)
	xAxis(buf, y0+plotH)

	plotW := float64(width - marginLeft - marginRight)
	start := history[0].Timestamp
	span := history[len(history)-1].Timestamp.Sub(start).Seconds()

	points := make([]string, len(values))
	for i, v := range values {
		frac := 0.0
		switch {
		case span > 0:
			frac = history[i].Timestamp.Sub(start).Seconds() / span
		case len(values) > 1:
			frac = float64(i) / float64(len(values)-1)
		}
		points[i] = fmt.Sprintf("%.1f,%.1f", float64(marginLeft)+frac*plotW, y0+plotH-v/top*plotH)
	}
	fmt.Fprintf(buf, `<polyline class="line" fill="none" stroke="%s" stroke-width="2" points="%s"><title>%s</title></polyline>`+"\n",
		color, strings.Join(points, " "), html.EscapeString(label))
}
