package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestWritePrometheus(t *testing.T) {
	ActionsTotal.WithLabelValues("help").Inc()
	LLMRequestsTotal.WithLabelValues("gemini", "ok").Inc()

	var buf bytes.Buffer
	if err := WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, name := range []string{"finassist_actions_total", "finassist_llm_requests_total"} {
		if !strings.Contains(out, name) {
			t.Errorf("output missing %s", name)
		}
	}
}
