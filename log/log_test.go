package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestModuleAttachesAttribute(t *testing.T) {
	var buf bytes.Buffer
	SetHandler(slog.NewJSONHandler(&buf, nil))

	Module("vm").Info("executed opcode", "op", "ADD", "gas", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec["module"] != "vm" {
		t.Errorf("module = %v, want vm", rec["module"])
	}
	if rec["op"] != "ADD" {
		t.Errorf("op = %v, want ADD", rec["op"])
	}
}

func TestWithAccumulatesAttributes(t *testing.T) {
	var buf bytes.Buffer
	SetHandler(slog.NewJSONHandler(&buf, nil))

	l := Module("executive").With("tx", "0xabc")
	l.Info("applied transaction", "gasUsed", 21000)

	out := buf.String()
	for _, want := range []string{`"module":"executive"`, `"tx":"0xabc"`, `"gasUsed":21000`} {
		if !strings.Contains(out, want) {
			t.Errorf("record %q missing %q", out, want)
		}
	}
}

func TestHandlerLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	Module("state").Debug("dirty account flushed")
	if buf.Len() != 0 {
		t.Errorf("expected debug record to be filtered, got %q", buf.String())
	}

	Module("state").Warn("state root mismatch")
	if buf.Len() == 0 {
		t.Error("expected warn record to be emitted")
	}
}
