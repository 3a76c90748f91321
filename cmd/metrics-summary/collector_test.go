package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntries(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&log.JSONFormatter{})

	logger.WithFields(log.Fields{
		"route": "/tasks", "method": "GET", "status": 200,
		"total_ms": 40.5, "auth_ms": 5.0, "store_ms": 10.0, "tasks_returned": 12,
	}).Info(requestMessage)
	buf.WriteString("api-1  | not json\n")
	logger.WithFields(log.Fields{
		"route": "/tasks", "method": "POST", "status": 409,
		"total_ms": 60.0, "tasks_returned": 0, "duplicate": true,
	}).Warn(requestMessage)
	logger.WithFields(log.Fields{
		"route": "/user/profile", "method": "GET", "status": 500,
		"total_ms": 20.0, "tasks_returned": 0, "error_stage": "store",
	}).Error(requestMessage)
	logger.Info("server started")
	return &buf
}

func TestCollectorAggregatesRequestMetrics(t *testing.T) {
	c := newCollector(requestMessage, "")
	require.NoError(t, collect(c, writeEntries(t)))

	s := c.summary()
	assert.Equal(t, 3, s.TotalRequests)
	assert.Equal(t, 1, s.SkippedLines)
	assert.Equal(t, map[string]int{"info": 1, "warning": 1, "error": 1}, s.LevelCounts)
	assert.Equal(t, map[string]int{"200": 1, "409": 1, "500": 1}, s.StatusCounts)
	assert.Equal(t, 1, s.RouteCounts["GET /tasks"])
	assert.Equal(t, 1, s.RouteCounts["POST /tasks"])
	assert.Equal(t, 1, s.Duplicates)
	assert.Equal(t, map[string]int{"store": 1}, s.ErrorStages)

	total := s.DurationMs["total"]
	assert.Equal(t, 3, total.Count)
	assert.InDelta(t, 20.0, total.Min, 0.001)
	assert.InDelta(t, 60.0, total.Max, 0.001)
	assert.InDelta(t, 40.1666, total.Avg, 0.001)
	assert.Equal(t, 1, s.DurationMs["auth"].Count)
	assert.Equal(t, 3, s.TasksReturned.Count)

	short := s.ShortString()
	assert.Contains(t, short, "requests=3")
	assert.Contains(t, short, "max_total_ms=60.00")
	assert.Contains(t, short, "stages=store")
}

func TestCollectorFiltersByRoute(t *testing.T) {
	c := newCollector(requestMessage, "/user/profile")
	require.NoError(t, collect(c, writeEntries(t)))

	s := c.summary()
	assert.Equal(t, 1, s.TotalRequests)
	assert.Equal(t, map[string]int{"500": 1}, s.StatusCounts)
}

func TestEmptySummary(t *testing.T) {
	s := newCollector(requestMessage, "").summary()
	assert.Zero(t, s.TotalRequests)
	assert.Equal(t, statSummary{}, s.TasksReturned)
	assert.Nil(t, s.ErrorStages)
	assert.True(t, strings.HasPrefix(s.ShortString(), "requests=0"))
}

func TestWriteSummary(t *testing.T) {
	c := newCollector(requestMessage, "")
	require.NoError(t, collect(c, writeEntries(t)))

	path := filepath.Join(t.TempDir(), "out", "summary.json")
	require.NoError(t, writeSummary(path, c.summary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got summaryOutput
	require.NoError(t, sonic.Unmarshal(data, &got))
	assert.Equal(t, 3, got.TotalRequests)
	assert.Equal(t, 1, got.Duplicates)
}
