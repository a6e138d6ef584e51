// SPDX-License-Identifier: MIT

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger returns a Logger writing JSON lines into buf.
func captureLogger(buf *bytes.Buffer) *Logger {
	return &Logger{logger: zerolog.New(buf)}
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	return m
}

func TestLog_FieldSet(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	logger.Log(Event{
		Type:       EventScanSuccess,
		Actor:      "api:10.0.0.1",
		Action:     "completed library scan",
		Resource:   "specs",
		Result:     "success",
		RemoteAddr: "10.0.0.1",
		Details:    map[string]string{"scanned": "12"},
	})

	m := lastLine(t, &buf)
	assert.Equal(t, "scan.success", m["event_type"])
	assert.Equal(t, "api:10.0.0.1", m["actor"])
	assert.Equal(t, "completed library scan", m["action"])
	assert.Equal(t, "specs", m["resource"])
	assert.Equal(t, "success", m["result"])
	assert.Equal(t, "10.0.0.1", m["remote_addr"])
	assert.Equal(t, "12", m["scanned"])
	assert.Contains(t, m, "timestamp")
}

func TestLog_ZeroTimestampFilled(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	before := time.Now().UTC().Add(-time.Second)
	logger.Log(Event{Type: EventScanStart, Actor: "system"})

	m := lastLine(t, &buf)
	raw, ok := m["timestamp"].(string)
	require.True(t, ok)
	ts, err := time.Parse(time.RFC3339, raw)
	require.NoError(t, err)
	assert.True(t, ts.After(before))
}

func TestLog_OmitsEmptyRemoteAddr(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	logger.Log(Event{Type: EventScanStart, Actor: "watcher"})

	m := lastLine(t, &buf)
	assert.NotContains(t, m, "remote_addr")
}

func TestScanHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	logger.ScanStart("startup", "specs")
	m := lastLine(t, &buf)
	assert.Equal(t, "scan.start", m["event_type"])
	assert.Equal(t, "startup", m["actor"])
	assert.Equal(t, "specs", m["resource"])
	assert.Equal(t, "started", m["result"])

	logger.ScanComplete("watcher", "specs", "success", 7, 1500*time.Millisecond)
	m = lastLine(t, &buf)
	assert.Equal(t, "scan.success", m["event_type"])
	assert.Equal(t, "success", m["result"])
	assert.Equal(t, "7", m["scanned"])
	assert.Equal(t, "1500", m["duration_ms"])

	logger.ScanError("api:10.0.0.9", "specs", "walk failed")
	m = lastLine(t, &buf)
	assert.Equal(t, "scan.error", m["event_type"])
	assert.Equal(t, "failure", m["result"])
	assert.Equal(t, "walk failed", m["error"])
}

func TestAuthHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf)

	logger.AuthFailure("192.0.2.7:4242", "/v1/validate", "invalid token")
	m := lastLine(t, &buf)
	assert.Equal(t, "auth.failure", m["event_type"])
	assert.Equal(t, "192.0.2.7:4242", m["actor"])
	assert.Equal(t, "192.0.2.7:4242", m["remote_addr"])
	assert.Equal(t, "/v1/validate", m["resource"])
	assert.Equal(t, "denied", m["result"])
	assert.Equal(t, "invalid token", m["reason"])

	logger.AuthMissing("192.0.2.8:4242", "/v1/expand")
	m = lastLine(t, &buf)
	assert.Equal(t, "auth.missing", m["event_type"])
	assert.Equal(t, "denied", m["result"])
}

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", ActorFromContext(ctx))

	ctx = WithActor(ctx, "api:198.51.100.3")
	assert.Equal(t, "api:198.51.100.3", ActorFromContext(ctx))

	// Empty actor falls back to the default rather than masking it.
	assert.Equal(t, "system", ActorFromContext(WithActor(context.Background(), "")))
}

func BenchmarkLogger_Log(b *testing.B) {
	logger := captureLogger(&bytes.Buffer{})
	event := Event{
		Type:       EventScanSuccess,
		Actor:      "benchmark",
		Action:     "completed library scan",
		Resource:   "specs",
		Result:     "success",
		RemoteAddr: "127.0.0.1",
		Details:    map[string]string{"scanned": "100"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Log(event)
	}
}
