package logging

import (
	"context"
	"testing"
)

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRunID(ctx); got != "" {
		t.Errorf("GetRunID on empty context = %q, want empty", got)
	}

	ctx = WithRunID(ctx, "run-42")
	if got := GetRunID(ctx); got != "run-42" {
		t.Errorf("GetRunID = %q, want run-42", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	base := LoggerFromContext(context.Background())
	if base == nil {
		t.Fatal("LoggerFromContext returned nil")
	}
	withID := LoggerFromContext(WithRunID(context.Background(), "run-1"))
	if withID == base {
		t.Error("run ID did not produce a derived logger")
	}
}

func TestInitLoggerLevels(t *testing.T) {
	defer InitLogger(LevelWarn, FormatText)

	for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		for _, f := range []Format{FormatText, FormatJSON} {
			InitLogger(lvl, f)
			if GetLogger() == nil {
				t.Fatalf("GetLogger nil after InitLogger(%v, %v)", lvl, f)
			}
		}
	}

	// The domain helpers must never panic regardless of configuration.
	CompileEvent("b1", 3, 0, 1)
	ExecuteEvent("b1", "ins-1", "applied")
	CacheEvent("invalidate_block", "b1", 2)
	WebSocketEvent("client_connected", 1)
	ServerStartup("compile", "ws", 8473)
}
