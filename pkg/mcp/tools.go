package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/procwise/flowschema/internal/diagram"
	"github.com/procwise/flowschema/internal/extract"
	"github.com/procwise/flowschema/pkg/schema"
)

// handleExtract normalizes one record into a workflow document.
func (s *FlowschemaServer) handleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, errRes := s.parseRecord(req)
	if errRes != nil {
		return errRes, nil
	}

	doc, err := extract.Extract(rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	selectExpr := req.GetString("select", "")
	if selectExpr != "" {
		return s.applySelect(ctx, selectExpr, doc)
	}
	return marshalResult(doc)
}

// handleDiagram renders a record's normalized workflow as a Mermaid flowchart.
func (s *FlowschemaServer) handleDiagram(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, errRes := s.parseRecord(req)
	if errRes != nil {
		return errRes, nil
	}

	doc, err := extract.Extract(rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	model := diagram.FromDocument(doc)
	return mcp.NewToolResultText(diagram.RenderMermaid(model)), nil
}

// handleQuery lists stored runs or extraction results.
func (s *FlowschemaServer) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resource, err := req.RequireString("resource")
	if err != nil {
		return mcp.NewToolResultError("resource is required"), nil
	}
	if s.store == nil {
		return mcp.NewToolResultError("no result store configured"), nil
	}

	switch resource {
	case "runs":
		runs, listErr := s.store.ListRuns(ctx)
		if listErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list runs failed: %v", listErr)), nil
		}
		return marshalResult(map[string]any{"runs": runs, "count": len(runs)})

	case "extractions":
		runID := req.GetString("run_id", "")
		if runID == "" {
			return mcp.NewToolResultError("run_id is required for extractions"), nil
		}
		exts, listErr := s.store.ListExtractions(ctx, runID)
		if listErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list extractions failed: %v", listErr)), nil
		}
		// Return summaries without the full documents.
		type summary struct {
			FileIndex    int `json:"file_index"`
			ActionCount  int `json:"action_count"`
			GatewayCount int `json:"gateway_count"`
			StateCount   int `json:"state_count"`
		}
		summaries := make([]summary, 0, len(exts))
		for _, e := range exts {
			summaries = append(summaries, summary{
				FileIndex:    e.FileIndex,
				ActionCount:  e.ActionCount,
				GatewayCount: e.GatewayCount,
				StateCount:   e.StateCount,
			})
		}
		return marshalResult(map[string]any{"run_id": runID, "extractions": summaries, "count": len(summaries)})

	case "document":
		runID := req.GetString("run_id", "")
		if runID == "" {
			return mcp.NewToolResultError("run_id is required for document"), nil
		}
		idxStr := req.GetString("file_index", "")
		idx, convErr := strconv.Atoi(idxStr)
		if convErr != nil {
			return mcp.NewToolResultError("file_index must be an integer"), nil
		}
		ext, getErr := s.store.GetExtraction(ctx, runID, idx)
		if getErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document lookup failed: %v", getErr)), nil
		}

		selectExpr := req.GetString("select", "")
		if selectExpr != "" {
			var doc map[string]any
			if umErr := json.Unmarshal(ext.Document, &doc); umErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("stored document is corrupt: %v", umErr)), nil
			}
			out, selErr := s.selector.Select(ctx, selectExpr, doc)
			if selErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("select failed: %v", selErr)), nil
			}
			return marshalResult(out)
		}
		return mcp.NewToolResultJSON(ext.Document)

	default:
		return mcp.NewToolResultError("unsupported resource"), nil
	}
}

// parseRecord extracts and validates the record argument shared by the
// extract and diagram tools.
func (s *FlowschemaServer) parseRecord(req mcp.CallToolRequest) (*schema.Record, *mcp.CallToolResult) {
	raw := mcp.ParseStringMap(req, "record", nil)
	if raw == nil {
		return nil, mcp.NewToolResultError("record is required")
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid record: %v", err))
	}

	if s.validator != nil {
		if valErr := s.validator.ValidateRaw(data); valErr != nil {
			return nil, mcp.NewToolResultError(fmt.Sprintf("record validation failed: %v", valErr))
		}
	}

	var rec schema.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid record: %v", err))
	}
	return &rec, nil
}

func (s *FlowschemaServer) applySelect(ctx context.Context, expression string, doc *schema.Document) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal document: %v", err)), nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode document: %v", err)), nil
	}
	out, selErr := s.selector.Select(ctx, expression, m)
	if selErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("select failed: %v", selErr)), nil
	}
	return marshalResult(out)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
