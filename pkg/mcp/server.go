package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/procwise/flowschema/internal/jq"
	"github.com/procwise/flowschema/internal/store"
	"github.com/procwise/flowschema/internal/validation"
)

// FlowschemaServerDeps holds the dependencies for creating a FlowschemaServer.
type FlowschemaServerDeps struct {
	Validator *validation.RecordValidator
	Store     store.Store // optional; query tool reports an error when absent
	Selector  *jq.Selector
	Logger    *slog.Logger
}

// FlowschemaServer wraps an MCP server with extraction tool handlers, so an
// agent can normalize flow-graph records and inspect stored results over stdio.
type FlowschemaServer struct {
	validator *validation.RecordValidator
	store     store.Store
	selector  *jq.Selector
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewFlowschemaServer creates a new FlowschemaServer with all 3 tools registered.
func NewFlowschemaServer(deps FlowschemaServerDeps) *FlowschemaServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	selector := deps.Selector
	if selector == nil {
		selector = jq.NewSelector()
	}

	s := &FlowschemaServer{
		validator: deps.Validator,
		store:     deps.Store,
		selector:  selector,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"flowschema",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Flowschema normalizes BPMN-style flow-graph records into workflow schemas. Use flowschema.extract to convert a record into actions, gateways and execution states, flowschema.diagram to render a record as a Mermaid flowchart, and flowschema.query to list stored runs and extraction results."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlowschemaServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlowschemaServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 3 registered MCP tools as ServerTool entries.
func (s *FlowschemaServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: extractTool(), Handler: s.handleExtract},
		{Tool: diagramTool(), Handler: s.handleDiagram},
		{Tool: queryTool(), Handler: s.handleQuery},
	}
}

// --- Tool definitions ---

func extractTool() mcp.Tool {
	return mcp.NewTool("flowschema.extract",
		mcp.WithDescription("Normalize a flow-graph record into a workflow schema with actions, gateways and execution states"),
		mcp.WithObject("record", mcp.Required(), mcp.Description("Flow-graph record with file_index, procedure_text, step_nodes and SequenceFlow")),
		mcp.WithString("select", mcp.Description("Optional jq expression applied to the extracted document before returning")),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("flowschema.diagram",
		mcp.WithDescription("Render a flow-graph record as a Mermaid flowchart of its normalized workflow"),
		mcp.WithObject("record", mcp.Required(), mcp.Description("Flow-graph record with file_index, procedure_text, step_nodes and SequenceFlow")),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("flowschema.query",
		mcp.WithDescription("Query stored extraction runs and results"),
		mcp.WithString("resource", mcp.Required(),
			mcp.Enum("runs", "extractions", "document"),
			mcp.Description("Type of resource to query"),
		),
		mcp.WithString("run_id", mcp.Description("Run ID (required for extractions and document)")),
		mcp.WithString("file_index", mcp.Description("Record index within the run (required for document)")),
		mcp.WithString("select", mcp.Description("Optional jq expression applied to a fetched document")),
	)
}
