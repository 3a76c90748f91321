package main

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

const requestMessage = "tasks.request.metrics"

// logEntry is one line of focusflow-api output written by logrus'
// JSONFormatter.
type logEntry struct {
	Msg           string `json:"msg"`
	Level         string `json:"level"`
	Route         string `json:"route"`
	Method        string `json:"method"`
	Status        any    `json:"status"`
	TotalMillis   any    `json:"total_ms"`
	AuthMillis    any    `json:"auth_ms"`
	StoreMillis   any    `json:"store_ms"`
	TasksReturned any    `json:"tasks_returned"`
	Duplicate     any    `json:"duplicate"`
	ErrorStage    string `json:"error_stage"`
}

type collector struct {
	message string
	route   string

	count      int
	levels     map[string]int
	statuses   map[int]int
	routes     map[string]int
	durations  map[string]*numericStats
	tasks      *numericStats
	duplicates int
	stages     map[string]int
	skipped    int
}

type numericStats struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
}

type statSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

type summaryOutput struct {
	Message       string                 `json:"message"`
	Route         string                 `json:"route,omitempty"`
	TotalRequests int                    `json:"total_requests"`
	LevelCounts   map[string]int         `json:"level_counts"`
	StatusCounts  map[string]int         `json:"status_counts"`
	RouteCounts   map[string]int         `json:"route_counts"`
	DurationMs    map[string]statSummary `json:"duration_ms"`
	TasksReturned statSummary            `json:"tasks_returned"`
	Duplicates    int                    `json:"duplicates"`
	ErrorStages   map[string]int         `json:"error_stages,omitempty"`
	SkippedLines  int                    `json:"skipped_lines"`
}

// newCollector aggregates request metrics entries. An empty route matches
// every route.
func newCollector(message, route string) *collector {
	return &collector{
		message:   message,
		route:     route,
		levels:    make(map[string]int),
		statuses:  make(map[int]int),
		routes:    make(map[string]int),
		durations: make(map[string]*numericStats),
		stages:    make(map[string]int),
	}
}

func (c *collector) ingest(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	// docker compose prefixes lines with "service | ".
	if pipe := strings.Index(trimmed, "|"); pipe >= 0 && !strings.HasPrefix(trimmed, "{") {
		trimmed = strings.TrimSpace(trimmed[pipe+1:])
	}

	entry, err := decodeEntry(trimmed)
	if err != nil {
		c.skipped++
		return
	}
	if entry.Msg != c.message {
		return
	}
	if c.route != "" && entry.Route != c.route {
		return
	}
	c.add(entry)
}

func decodeEntry(raw string) (logEntry, error) {
	var entry logEntry
	dec := sonic.ConfigStd.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&entry); err != nil {
		return logEntry{}, err
	}
	return entry, nil
}

func (c *collector) add(e logEntry) {
	c.count++

	level := strings.ToLower(strings.TrimSpace(e.Level))
	if level == "" {
		level = "unspecified"
	}
	c.levels[level]++

	if status, ok := asInt(e.Status); ok {
		c.statuses[status]++
	}
	if e.Route != "" {
		c.routes[strings.TrimSpace(e.Method+" "+e.Route)]++
	}
	for key, raw := range map[string]any{"total": e.TotalMillis, "auth": e.AuthMillis, "store": e.StoreMillis} {
		if v, ok := asFloat(raw); ok {
			c.addDuration(key, v)
		}
	}
	if v, ok := asFloat(e.TasksReturned); ok {
		if c.tasks == nil {
			c.tasks = newNumericStats()
		}
		c.tasks.add(v)
	}
	if dup, ok := e.Duplicate.(bool); ok && dup {
		c.duplicates++
	}
	if e.ErrorStage != "" {
		c.stages[e.ErrorStage]++
	}
}

func (c *collector) addDuration(key string, value float64) {
	stat, ok := c.durations[key]
	if !ok {
		stat = newNumericStats()
		c.durations[key] = stat
	}
	stat.add(value)
}

func newNumericStats() *numericStats {
	return &numericStats{Min: math.MaxFloat64}
}

func (n *numericStats) add(value float64) {
	n.Count++
	n.Sum += value
	if value < n.Min {
		n.Min = value
	}
	if value > n.Max {
		n.Max = value
	}
}

func (n *numericStats) summary() statSummary {
	if n == nil || n.Count == 0 {
		return statSummary{}
	}
	return statSummary{
		Count: n.Count,
		Min:   n.Min,
		Max:   n.Max,
		Avg:   n.Sum / float64(n.Count),
	}
}

func (c *collector) summary() summaryOutput {
	durations := make(map[string]statSummary, len(c.durations))
	for key, stat := range c.durations {
		durations[key] = stat.summary()
	}
	statuses := make(map[string]int, len(c.statuses))
	for status, count := range c.statuses {
		statuses[strconv.Itoa(status)] = count
	}
	var stages map[string]int
	if len(c.stages) > 0 {
		stages = c.stages
	}
	return summaryOutput{
		Message:       c.message,
		Route:         c.route,
		TotalRequests: c.count,
		LevelCounts:   c.levels,
		StatusCounts:  statuses,
		RouteCounts:   c.routes,
		DurationMs:    durations,
		TasksReturned: c.tasks.summary(),
		Duplicates:    c.duplicates,
		ErrorStages:   stages,
		SkippedLines:  c.skipped,
	}
}

// ShortString is a one-line digest for CI logs.
func (s summaryOutput) ShortString() string {
	total := s.DurationMs["total"]
	parts := []string{
		"requests=" + strconv.Itoa(s.TotalRequests),
		"info=" + strconv.Itoa(s.LevelCounts["info"]),
		"warn=" + strconv.Itoa(s.LevelCounts["warning"]),
		"error=" + strconv.Itoa(s.LevelCounts["error"]),
		"avg_total_ms=" + formatFloat(total.Avg),
		"max_total_ms=" + formatFloat(total.Max),
	}
	if len(s.ErrorStages) > 0 {
		stages := make([]string, 0, len(s.ErrorStages))
		for stage := range s.ErrorStages {
			stages = append(stages, stage)
		}
		sort.Strings(stages)
		parts = append(parts, "stages="+strings.Join(stages, ","))
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	default:
		return 0, false
	}
}
