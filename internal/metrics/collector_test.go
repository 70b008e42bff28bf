package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter_SameNameSharesValue(t *testing.T) {
	c := NewCollector()
	a := c.Counter("test_total", "help", "")
	b := c.Counter("test_total", "help", "")
	a.Inc()
	b.Add(2)
	if a.Value() != 3 {
		t.Fatalf("counter not shared: %d", a.Value())
	}
}

func TestGauge_SetAndDec(t *testing.T) {
	c := NewCollector()
	g := c.Gauge("test_gauge", "help", "")
	g.Set(5)
	g.Dec()
	if g.Value() != 4 {
		t.Fatalf("gauge value: %d", g.Value())
	}
}

func TestHandler_ExpositionFormat(t *testing.T) {
	c := NewCollector()
	c.Counter("jobs_done_total", "Jobs completed", "").Add(7)
	c.Gauge("queue_depth", "Pending jobs", "").Set(3)

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("wrong content type: %s", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE jobs_done_total counter",
		"jobs_done_total 7",
		"# TYPE queue_depth gauge",
		"queue_depth 3",
		"postwave_uptime_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestHandler_LabelledSeries(t *testing.T) {
	c := NewCollector()
	c.Counter("sends_total", "Sends", `platform="x"`).Inc()

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `sends_total{platform="x"} 1`) {
		t.Fatalf("labelled series missing:\n%s", rec.Body.String())
	}
}
