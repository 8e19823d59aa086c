package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Errorf("OrNoop(nil) = %T, want NoopLogger", OrNoop(nil))
	}

	z := NewZapAdapter(nil)
	if OrNoop(z) != Logger(z) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

	adapter.Error("dispatch failed",
		String("name", "inbox"),
		Int("batch_size", 3),
		Int64("seq", 7),
		Bool("scheduled", true),
		Duration("delay", 500*time.Millisecond),
		Err(errors.New("boom")),
	)

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v (%q)", err, buf.String())
	}

	if got["level"] != "error" {
		t.Errorf("level = %v, want error", got["level"])
	}
	if got["message"] != "dispatch failed" {
		t.Errorf("message = %v", got["message"])
	}
	if got["name"] != "inbox" {
		t.Errorf("name = %v", got["name"])
	}
	if got["batch_size"] != float64(3) {
		t.Errorf("batch_size = %v", got["batch_size"])
	}
	if got["scheduled"] != true {
		t.Errorf("scheduled = %v", got["scheduled"])
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v", got["error"])
	}
}

func TestZerologAdapter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	adapter.Trace("hidden")
	adapter.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below info, got %q", buf.String())
	}

	adapter.Warn("shown")
	if !bytes.Contains(buf.Bytes(), []byte(`"level":"warn"`)) {
		t.Errorf("expected warn line, got %q", buf.String())
	}
}

func TestZapAdapter_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewZapAdapter(zap.New(core))

	adapter.Trace("armed", Duration("delay", time.Second))
	adapter.Debug("extracted", Int("batch_size", 10))
	adapter.Info("started")
	adapter.Warn("slow consumer")
	adapter.Error("consumer failed", Err(errors.New("boom")))

	entries := logs.AllUntimed()
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}

	wantLevels := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Errorf("entry %d level = %v, want %v", i, e.Level, wantLevels[i])
		}
	}

	if trace, ok := entries[0].ContextMap()["trace"]; !ok || trace != true {
		t.Errorf("trace entry missing trace=true: %v", entries[0].ContextMap())
	}
	if got := entries[1].ContextMap()["batch_size"]; got != int64(10) {
		t.Errorf("batch_size = %v (%T), want 10", got, got)
	}
	if got := entries[4].ContextMap()["error"]; got != "boom" {
		t.Errorf("error = %v, want boom", got)
	}
}

func TestZapAdapter_TraceDisabledAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	adapter := NewZapAdapter(zap.New(core))

	adapter.Trace("hidden")
	adapter.Debug("hidden")

	if logs.Len() != 0 {
		t.Errorf("got %d entries, want 0", logs.Len())
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NewNoopLogger()
	l.Trace("a")
	l.Debug("b")
	l.Info("c")
	l.Warn("d")
	l.Error("e", Err(errors.New("ignored")))
}
