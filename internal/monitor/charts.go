package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kinemetric/motion.report/internal/httputil"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleAngleChart renders a recorded joint's angle trace as an HTML
// line chart. Debugging-only endpoint (no auth) for eyeballing a
// session without the full UI.
// Query params:
//   - session_id (required)
//   - side (required; "left" or "right")
//   - joint (required; e.g. "elbow_flexion")
func (ws *WebServer) handleAngleChart(w http.ResponseWriter, r *http.Request) {
	if ws.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "session DB not configured")
		return
	}
	sessionID, side, joint, ok := ws.traceParams(w, r)
	if !ok {
		return
	}

	trace, err := ws.db.AngleTrace(sessionID, side, joint)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if len(trace) == 0 {
		httputil.NotFound(w, "no valid samples for that joint")
		return
	}

	t0 := trace[0].RecordedAt
	xLabels := make([]string, 0, len(trace))
	angles := make([]opts.LineData, 0, len(trace))
	confidences := make([]opts.LineData, 0, len(trace))
	for _, p := range trace {
		xLabels = append(xLabels, fmt.Sprintf("%.2f", p.RecordedAt.Sub(t0).Seconds()))
		angles = append(angles, opts.LineData{Value: p.AngleDeg})
		confidences = append(confidences, opts.LineData{Value: p.Confidence * 100})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Joint Angle Trace", Theme: "dark", Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s", side, joint),
			Subtitle: fmt.Sprintf("session=%s samples=%d", sessionID, len(trace)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "angle (deg)", NameLocation: "middle", NameGap: 35}),
	)
	line.SetXAxis(xLabels)
	line.AddSeries("angle", angles, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))
	line.AddSeries("confidence (%)", confidences, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
