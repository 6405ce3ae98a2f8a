package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names registered by NewEngine.
const (
	ToolEcho            = "echo"
	ToolServerTime      = "server_time"
	ToolListStaticFiles = "list_static_files"
	ToolBridgeStats     = "bridge_stats"
)

// EngineOptions configures the bundled MCP engine.
type EngineOptions struct {
	Name    string
	Version string
	// StaticDir is listed by the list_static_files tool. Empty disables listing.
	StaticDir string
	Logger    *slog.Logger
	// Now overrides the clock for server_time. Defaults to time.Now.
	Now func() time.Time
	// Stats receives tool call counters. A new StatsService is created when nil.
	Stats *StatsService
}

// EchoInput is the argument object for the echo tool.
type EchoInput struct {
	Message string `json:"message" jsonschema:"text to return unchanged"`
}

// EchoOutput is the structured result of the echo tool.
type EchoOutput struct {
	Message string `json:"message"`
}

// ServerTimeInput is the argument object for the server_time tool.
type ServerTimeInput struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"IANA time zone name, defaults to UTC"`
}

// ServerTimeOutput is the structured result of the server_time tool.
type ServerTimeOutput struct {
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Unix     int64  `json:"unix"`
}

// ListStaticFilesInput is the (empty) argument object for list_static_files.
type ListStaticFilesInput struct{}

// ListStaticFilesOutput is the structured result of list_static_files.
type ListStaticFilesOutput struct {
	Files []string `json:"files"`
}

// BridgeStatsInput is the argument object for bridge_stats.
type BridgeStatsInput struct {
	// Reset zeroes the counters after the snapshot is taken.
	Reset bool `json:"reset,omitempty" jsonschema:"zero all counters after returning them"`
}

// NewEngine builds the MCP server the bridge serves out of the box.
func NewEngine(opts EngineOptions) *mcp.Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Stats == nil {
		opts.Stats = NewStatsService()
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    opts.Name,
		Version: opts.Version,
	}, &mcp.ServerOptions{
		Logger:       opts.Logger,
		Instructions: "Bundled mcp-bridge tools: echo, server_time, list_static_files, bridge_stats.",
	})

	stats := opts.Stats
	logger := opts.Logger

	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolEcho,
		Description: "Return the given message unchanged.",
	}, tracked(stats, logger, ToolEcho, func(_ context.Context, _ *mcp.CallToolRequest, in EchoInput) (*mcp.CallToolResult, EchoOutput, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: in.Message}},
		}, EchoOutput{Message: in.Message}, nil
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolServerTime,
		Description: "Current server time in RFC 3339 for an optional IANA time zone.",
	}, tracked(stats, logger, ToolServerTime, func(_ context.Context, _ *mcp.CallToolRequest, in ServerTimeInput) (*mcp.CallToolResult, ServerTimeOutput, error) {
		return serverTime(opts.Now, in)
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolListStaticFiles,
		Description: "List files under the static directory as sorted relative paths.",
	}, tracked(stats, logger, ToolListStaticFiles, func(ctx context.Context, _ *mcp.CallToolRequest, _ ListStaticFilesInput) (*mcp.CallToolResult, ListStaticFilesOutput, error) {
		files, err := ListStaticFiles(ctx, opts.StaticDir)
		if err != nil {
			return nil, ListStaticFilesOutput{}, err
		}
		return nil, ListStaticFilesOutput{Files: files}, nil
	}))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        ToolBridgeStats,
		Description: "Per-tool call and error counters since the server started or the last reset.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in BridgeStatsInput) (*mcp.CallToolResult, Stats, error) {
		snapshot := stats.GetStats()
		if in.Reset {
			stats.Reset()
			logger.Info("tool stats reset", "calls", snapshot.Calls, "errors", snapshot.Errors)
		}
		return nil, snapshot, nil
	})

	return srv
}

// tracked wraps a tool handler so that calls and errors are counted.
func tracked[In, Out any](stats *StatsService, logger *slog.Logger, name string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		stats.RecordCall(name)
		res, out, err := h(ctx, req, in)
		if err != nil {
			stats.RecordError(name)
			logger.Debug("tool call failed", "tool", name, "error", err)
		}
		return res, out, err
	}
}

func serverTime(now func() time.Time, in ServerTimeInput) (*mcp.CallToolResult, ServerTimeOutput, error) {
	zone := in.Timezone
	if zone == "" {
		zone = "UTC"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, ServerTimeOutput{}, fmt.Errorf("unknown timezone %q", zone)
	}
	t := now().In(loc)
	return nil, ServerTimeOutput{
		Time:     t.Format(time.RFC3339),
		Timezone: loc.String(),
		Unix:     t.Unix(),
	}, nil
}

// ListStaticFiles returns the regular files under dir as sorted, slash-separated
// paths relative to dir. An empty dir yields an empty, non-nil slice.
func ListStaticFiles(ctx context.Context, dir string) ([]string, error) {
	files := []string{}
	if dir == "" {
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list static files: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
