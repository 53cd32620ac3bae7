package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/ping", "200", time.Millisecond)
	m.ObserveLLMRequest("gemini", "gemini-1.5-pro", "ok", time.Second, 3)
	m.IncPipeline("done", "ok")
	m.IncLLMStatusCache("hit")
	m.IncBlobOp("get", "message", "ok")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("POST", "/conversations/:id/messages", "200", 300*time.Millisecond)
	m.ObserveLLMRequest("Codestral", "codestral@2405", "ok", 2*time.Second, 5)
	m.IncPipeline("persist", "ok")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`magix_api_requests_total{method="POST",route="/conversations/:id/messages",status="200"} 1.000000`,
		`magix_api_request_duration_seconds_bucket{method="POST",route="/conversations/:id/messages",status="200",le="0.5"} 1`,
		`magix_llm_fragments_total{provider="codestral"} 5.000000`,
		`magix_message_pipeline_total{state="persist",outcome="ok"} 1.000000`,
		"# TYPE magix_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q\n%s", want, out)
		}
	}
}

func TestLabelStringEscapes(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString: got=%s", got)
	}
}
