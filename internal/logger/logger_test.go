package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer and returns a cleanup
// function restoring the previous writer, level and format.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	originalLevel := currentLevel.Load()
	originalFormat := currentFormat.Load()
	reconfigure()

	return buf, func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(originalLevel)
		currentFormat.Store(originalFormat)
		reconfigure()
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "[DEBUG] debug message")
		assert.Contains(t, out, "[INFO] info message")
		assert.Contains(t, out, "[WARN] warn message")
		assert.Contains(t, out, "[ERROR] error message")
	})

	t.Run("WarnLevelFiltersDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("ErrorAlwaysLogged", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})
}

func TestSetLevel(t *testing.T) {
	t.Run("CaseInsensitive", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		SetLevel("debug")
		assert.Equal(t, LevelDebug, GetLevel())
		SetLevel("Warning")
		assert.Equal(t, LevelWarn, GetLevel())
	})

	t.Run("IgnoresInvalidValues", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")
		SetLevel("verbose")
		assert.Equal(t, LevelError, GetLevel())
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"DEBUG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"error", LevelError, true},
		{"trace", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestMessageFormatting(t *testing.T) {
	t.Run("StructuredFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Info("session connected", KeySessionID, "abc", KeyActive, 3)

		out := buf.String()
		assert.Contains(t, out, "session connected")
		assert.Contains(t, out, "session_id=abc")
		assert.Contains(t, out, "active=3")
	})

	t.Run("QuotesValuesWithSpaces", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		Info("failed", KeyError, "connection reset by peer")
		assert.Contains(t, buf.String(), `error="connection reset by peer"`)
	})

	t.Run("AttrHelpers", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		Info("accept failed",
			Err(errors.New("boom")),
			ErrorCode(24),
			Category("system"),
			Err(nil),
		)
		out := buf.String()
		assert.Contains(t, out, "error=boom")
		assert.Contains(t, out, "error_code=24")
		assert.Contains(t, out, "category=system")
	})

	t.Run("GroupsAreFlattened", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		With(Server("echo")).WithGroup("io").Info("stats", slog.Int("read", 10))
		out := buf.String()
		assert.Contains(t, out, "server=echo")
		assert.Contains(t, out, "io.read=10")
	})
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	Info("server started", KeyServer, "echo", KeyPort, 1111)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "server started", entry["msg"])
	assert.Equal(t, "echo", entry[KeyServer])
	assert.EqualValues(t, 1111, entry[KeyPort])
}

func TestContextLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	lc := NewLogContext("echo").WithSession("1234", "127.0.0.1:5000").WithTrace("t1", "s1")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "received", KeyBytesRead, 5)

	out := buf.String()
	assert.Contains(t, out, "trace_id=t1")
	assert.Contains(t, out, "span_id=s1")
	assert.Contains(t, out, "server=echo")
	assert.Contains(t, out, "session_id=1234")
	assert.Contains(t, out, "remote_addr=127.0.0.1:5000")
	assert.Contains(t, out, "bytes_read=5")
	assert.Less(t, strings.Index(out, "trace_id"), strings.Index(out, "bytes_read"))
}

func TestLogContext(t *testing.T) {
	t.Run("NilSafe", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Nil(t, lc.WithSession("a", "b"))
		assert.Zero(t, lc.DurationMs())
		assert.Nil(t, FromContext(context.Background()))
	})

	t.Run("CloneIsIndependent", func(t *testing.T) {
		lc := NewLogContext("srv")
		clone := lc.WithSession("id", "addr")
		assert.Empty(t, lc.SessionID)
		assert.Equal(t, "id", clone.SessionID)
	})

	t.Run("Duration", func(t *testing.T) {
		lc := &LogContext{StartTime: time.Now().Add(-10 * time.Millisecond)}
		assert.GreaterOrEqual(t, lc.DurationMs(), 10.0)
	})
}

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info("concurrent", "worker", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 500)
}
