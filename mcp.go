package rebrander

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Parameter structures for MCP tools
type RebrandPlanParams struct {
	Root string `json:"root"`
}

type RebrandApplyParams struct {
	Root  string `json:"root"`
	Force bool   `json:"force,omitempty"`
}

type ValidateMappingsParams struct {
	Mappings []Mapping `json:"mappings,omitempty"`
}

type ClassifyPathsParams struct {
	Paths []string `json:"paths"`
}

type ValidateMappingsResult struct {
	Valid    bool      `json:"valid"`
	Error    string    `json:"error,omitempty"`
	Mappings []Mapping `json:"mappings,omitempty"`
}

// Tool handler functions
func RebrandPlanTool(ctx context.Context, req *mcp.CallToolRequest, args RebrandPlanParams, config *Config) (*mcp.CallToolResult, any, error) {
	engine, err := NewEngine(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	report, err := engine.Run(ctx, args.Root, true)
	if err != nil {
		return nil, nil, fmt.Errorf("plan failed: %w", err)
	}

	return nil, report, nil
}

func RebrandApplyTool(ctx context.Context, req *mcp.CallToolRequest, args RebrandApplyParams, config *Config) (*mcp.CallToolResult, any, error) {
	// Force applies to this call only; the server shares one config
	// across calls, so never mutate it.
	runConfig := *config
	if args.Force {
		runConfig.Force = true
	}

	engine, err := NewEngine(&runConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	report, err := engine.Run(ctx, args.Root, false)
	if err != nil {
		return nil, nil, fmt.Errorf("apply failed (%s): %w", FatalKind(err), err)
	}

	return nil, report, nil
}

func ValidateMappingsTool(ctx context.Context, req *mcp.CallToolRequest, args ValidateMappingsParams, config *Config) (*mcp.CallToolResult, any, error) {
	mappings := args.Mappings
	if len(mappings) == 0 {
		mappings = config.Mappings()
	}

	registry, err := NewRegistry(mappings)
	if err != nil {
		return nil, ValidateMappingsResult{Valid: false, Error: err.Error()}, nil
	}

	return nil, ValidateMappingsResult{Valid: true, Mappings: registry.Mappings()}, nil
}

func ClassifyPathsTool(ctx context.Context, req *mcp.CallToolRequest, args ClassifyPathsParams) (*mcp.CallToolResult, any, error) {
	result := make(map[string]FileKind, len(args.Paths))
	for _, path := range args.Paths {
		result[path] = ClassifyPath(path)
	}
	return nil, result, nil
}

// RunMCPServer starts the MCP server implementation using the official Go SDK
// If transport is nil, it will use stdio transport
func RunMCPServer(configPath string, transport *mcp.InMemoryTransport) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rebrander",
		Version: "1.0.0",
	}, nil)

	// Register all MCP tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "rebrand_plan",
		Description: "Preview the rewrite and relocation without modifying the tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RebrandPlanParams) (*mcp.CallToolResult, any, error) {
		return RebrandPlanTool(ctx, req, args, config)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rebrand_apply",
		Description: "Rewrite files in place and relocate the package directory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RebrandApplyParams) (*mcp.CallToolResult, any, error) {
		return RebrandApplyTool(ctx, req, args, config)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_mappings",
		Description: "Validate an identifier mapping set and return its substitution order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ValidateMappingsParams) (*mcp.CallToolResult, any, error) {
		return ValidateMappingsTool(ctx, req, args, config)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_paths",
		Description: "Show which rewrite strategy each path would get",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ClassifyPathsParams) (*mcp.CallToolResult, any, error) {
		return ClassifyPathsTool(ctx, req, args)
	})

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Use provided transport or default to stdio
	if transport != nil {
		return server.Run(ctx, transport)
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}
