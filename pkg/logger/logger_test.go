package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriterPrefixesComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "cron")
	l.Printf("tick %d", 1)

	if !strings.Contains(buf.String(), "[cron] tick 1") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
