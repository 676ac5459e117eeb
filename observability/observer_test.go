package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opticode/core/observability"
)

type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  string
	}{
		{observability.LevelVerbose, "DEBUG"},
		{observability.LevelInfo, "INFO"},
		{observability.LevelWarning, "WARN"},
		{observability.LevelError, "ERROR"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  slog.Level
	}{
		{observability.LevelVerbose, slog.LevelDebug},
		{observability.LevelInfo, slog.LevelInfo},
		{observability.LevelWarning, slog.LevelWarn},
		{observability.LevelError, slog.LevelError},
	}

	for _, tt := range tests {
		if got := tt.level.SlogLevel(); got != tt.want {
			t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestOrNoOp(t *testing.T) {
	if _, ok := observability.OrNoOp(nil).(observability.NoOpObserver); !ok {
		t.Error("OrNoOp(nil) should return NoOpObserver")
	}

	observer := &captureObserver{}
	if got := observability.OrNoOp(observer); got != observer {
		t.Error("OrNoOp should pass through a non-nil observer")
	}
}

func TestSlogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	observer := observability.NewSlogObserver(logger)

	observer.OnEvent(context.Background(), observability.Event{
		Type:      "session.save",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "session",
		Data:      map[string]any{"id": "s1"},
	})

	out := buf.String()
	if !strings.Contains(out, "session.save") {
		t.Errorf("output missing event type: %s", out)
	}
	if !strings.Contains(out, "source=session") {
		t.Errorf("output missing source attribute: %s", out)
	}
	if !strings.Contains(out, "id=s1") {
		t.Errorf("output missing data attribute: %s", out)
	}
}

func TestMultiObserver(t *testing.T) {
	first := &captureObserver{}
	second := &captureObserver{}
	multi := observability.NewMultiObserver(first, nil, second)

	multi.OnEvent(context.Background(), observability.Event{Type: "test.event"})

	if len(first.events) != 1 {
		t.Errorf("first observer got %d events, want 1", len(first.events))
	}
	if len(second.events) != 1 {
		t.Errorf("second observer got %d events, want 1", len(second.events))
	}
}

func TestNoOpObserver(t *testing.T) {
	// Must not panic with any event.
	observability.NoOpObserver{}.OnEvent(context.Background(), observability.Event{})
}
