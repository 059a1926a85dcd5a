package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContextOr(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	scoped := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	if got := FromContextOr(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger without context logger")
	}
	ctx := ContextWithLogger(context.Background(), scoped)
	if got := FromContextOr(ctx, fallback); got != scoped {
		t.Fatalf("expected context logger to win")
	}
	if got := FromContextOr(context.Background(), nil); got != slog.Default() {
		t.Fatalf("expected slog.Default when nothing else is available")
	}
	if ContextWithLogger(ctx, nil) != ctx {
		t.Fatalf("expected nil logger to leave the context unchanged")
	}
}

func TestScoped(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	Scoped(logger, "service", "RecurringTaskService", "ProcessDue", "workers", 4).Info("due definitions processed")
	line := buf.String()
	for _, want := range []string{"service=RecurringTaskService", "operation=ProcessDue", "workers=4"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}

	buf.Reset()
	Scoped(logger, "handler", "CalendarHandler", "").Info("absence created")
	if strings.Contains(buf.String(), "operation=") {
		t.Fatalf("expected empty operation to be omitted, got %q", buf.String())
	}
}
