package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("TEXT"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(""))
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).With(Component("test"))

	log.Debug("hidden")
	log.Info("report stored", ReportID("r1"), RowCount(3), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "report stored", entry.Message)
	assert.Equal(t, "test", entry.Fields["component"])
	assert.Equal(t, "r1", entry.Fields["report_id"])
	assert.EqualValues(t, 3, entry.Fields["row_count"])
	assert.Equal(t, "boom", entry.Fields["error"])
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug, Format: FormatText})

	log.Warn("slow analysis", Latency(1500*time.Millisecond), ClassLabel("Α1"))

	line := buf.String()
	assert.Contains(t, line, " WARN slow analysis class_label=Α1 latency=1.5s")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestLogger_WithSharesOutputLock(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf, Level: LevelInfo})
	child := base.With(String("k", "v")).WithLevel(LevelError)

	child.Info("dropped")
	child.Error("kept")
	base.Info("base")

	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.Same(t, base.mu, child.mu)
}

func TestContext(t *testing.T) {
	log := Nop()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
