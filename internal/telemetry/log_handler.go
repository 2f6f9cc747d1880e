package telemetry

import "github.com/webforge/crawlkit/internal/obslog"

// LogHandler is the default Handler, writing events through obslog (the
// teacher's zerolog wrapper) and metrics/histograms as structured debug
// lines — a log sink is always present even with no other handler wired.
type LogHandler struct {
	CategoryFilter
}

func NewLogHandler(minSev Severity) *LogHandler {
	return &LogHandler{CategoryFilter: NewCategoryFilter(minSev)}
}

func (h *LogHandler) HandleEvent(ev Event) {
	switch {
	case ev.Severity >= SeverityError:
		obslog.Errorf("[%s/%s] %s tags=%v", ev.Category, ev.Type, ev.Message, ev.Tags)
	case ev.Severity == SeverityWarn:
		obslog.Warnf("[%s/%s] %s tags=%v", ev.Category, ev.Type, ev.Message, ev.Tags)
	default:
		obslog.Infof("[%s/%s] %s tags=%v", ev.Category, ev.Type, ev.Message, ev.Tags)
	}
}

func (h *LogHandler) HandleMetric(m Metric) {
	obslog.Debugf("metric %s=%v type=%s tags=%v", m.Name, m.Value, m.Type, m.Tags)
}

func (h *LogHandler) HandleHistogram(hg Histogram) {
	obslog.Debugf("histogram %s=%fs tags=%v", hg.Name, hg.Seconds, hg.Tags)
}
