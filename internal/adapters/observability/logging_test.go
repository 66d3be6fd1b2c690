package observability

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerProdIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "prod")
	l.Debug().Msg("hidden")
	l.Info().Str("id", "x").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked: %s", out)
	}
	if !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"service":"listing-intake"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}
