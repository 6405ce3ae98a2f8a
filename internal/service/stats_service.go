// Package service contains the application services behind the bundled MCP engine.
package service

import (
	"sort"
	"sync"
	"sync/atomic"
)

// StatsService tracks tool call statistics. Totals are atomic counters and the
// per-tool maps are guarded by mu; all methods are safe for concurrent use.
type StatsService struct {
	calls  atomic.Int64
	errors atomic.Int64

	// Per-tool counters (mutex-protected maps).
	mu         sync.Mutex
	toolCalls  map[string]int64
	toolErrors map[string]int64
}

// NewStatsService creates a new StatsService with all counters initialized to zero.
func NewStatsService() *StatsService {
	return &StatsService{
		toolCalls:  make(map[string]int64),
		toolErrors: make(map[string]int64),
	}
}

// RecordCall increments the call counter for the given tool.
func (s *StatsService) RecordCall(tool string) {
	s.calls.Add(1)
	if tool == "" {
		return
	}
	s.mu.Lock()
	s.toolCalls[tool]++
	s.mu.Unlock()
}

// RecordError increments the error counter for the given tool.
func (s *StatsService) RecordError(tool string) {
	s.errors.Add(1)
	if tool == "" {
		return
	}
	s.mu.Lock()
	s.toolErrors[tool]++
	s.mu.Unlock()
}

// Stats holds a snapshot of all counters at a point in time.
type Stats struct {
	Calls      int64            `json:"calls"`
	Errors     int64            `json:"errors"`
	ToolCalls  map[string]int64 `json:"tool_calls"`
	ToolErrors map[string]int64 `json:"tool_errors"`
	Tools      []string         `json:"tools"`
}

// GetStats returns a snapshot of all counters.
// The snapshot is consistent per-counter but not atomically across all counters.
func (s *StatsService) GetStats() Stats {
	s.mu.Lock()
	tc := make(map[string]int64, len(s.toolCalls))
	for k, v := range s.toolCalls {
		tc[k] = v
	}
	te := make(map[string]int64, len(s.toolErrors))
	for k, v := range s.toolErrors {
		te[k] = v
	}
	s.mu.Unlock()

	tools := make([]string, 0, len(tc))
	for k := range tc {
		tools = append(tools, k)
	}
	sort.Strings(tools)

	return Stats{
		Calls:      s.calls.Load(),
		Errors:     s.errors.Load(),
		ToolCalls:  tc,
		ToolErrors: te,
		Tools:      tools,
	}
}

// Reset sets all counters to zero.
func (s *StatsService) Reset() {
	s.calls.Store(0)
	s.errors.Store(0)

	s.mu.Lock()
	s.toolCalls = make(map[string]int64)
	s.toolErrors = make(map[string]int64)
	s.mu.Unlock()
}
