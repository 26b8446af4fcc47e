package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// DefaultSearchLimit is the number of results returned when limit is unset.
const DefaultSearchLimit = 5

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Kind  string `json:"kind,omitempty" jsonschema:"restrict results to main, resource or database chunks"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// GatherContextInput is the input schema for the gather_context tool.
type GatherContextInput struct {
	Description string   `json:"description" jsonschema:"what the automation should do"`
	Tools       []string `json:"tools,omitempty" jsonschema:"names of tools the automation will use"`
}

// StepInput is one workflow step as accepted by the classification tools.
type StepInput struct {
	StepID             string   `json:"step_id" jsonschema:"unique step identifier"`
	StepName           string   `json:"step_name" jsonschema:"short step name"`
	Description        string   `json:"description" jsonschema:"what the step does"`
	Tool               string   `json:"tool,omitempty"`
	Databases          []string `json:"databases,omitempty"`
	CompanyResources   []string `json:"company_resources,omitempty"`
	AccessRequirements []string `json:"access_requirements,omitempty"`
	AutomationDetails  string   `json:"automation_details,omitempty"`
	StartingPoints     []string `json:"starting_points,omitempty"`
	NextStep           *string  `json:"next_step,omitempty"`
	EstimatedDuration  *string  `json:"estimated_duration,omitempty"`
	Dependencies       []string `json:"dependencies,omitempty"`
}

func (in StepInput) toDomain() domain.AutomationStep {
	return domain.AutomationStep{
		StepID:             in.StepID,
		StepName:           in.StepName,
		Description:        in.Description,
		Tool:               in.Tool,
		Databases:          in.Databases,
		CompanyResources:   in.CompanyResources,
		AccessRequirements: in.AccessRequirements,
		AutomationDetails:  in.AutomationDetails,
		StartingPoints:     in.StartingPoints,
		NextStep:           in.NextStep,
		EstimatedDuration:  in.EstimatedDuration,
		Dependencies:       in.Dependencies,
	}
}

// ClassifyStepInput is the input schema for the classify_step tool.
type ClassifyStepInput struct {
	Step StepInput `json:"step"`
}

// AssessWorkflowInput is the input schema for the assess_workflow tool.
type AssessWorkflowInput struct {
	Steps []StepInput `json:"steps"`
}

// IndexStatsInput is the input schema for the index_stats tool.
type IndexStatsInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the indexed knowledge base for documents, resources and databases",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "gather_context",
		Description: "Collect the resources and databases relevant to an automation request",
	}, s.handleGatherContext)

	// Reports carry severities as names, so they are returned as JSON text
	// rather than structured output.
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_step",
		Description: "Score one workflow step for security risk and list required approvals",
	}, s.handleClassifyStep)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assess_workflow",
		Description: "Score every step of a workflow and aggregate the overall risk",
	}, s.handleAssessWorkflow)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report the size and composition of the vector index",
	}, s.handleIndexStats)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var filter domain.MetadataFilter
	if input.Kind != "" {
		kind := domain.ChunkKind(input.Kind)
		if !kind.IsValid() {
			return nil, SearchOutput{}, fmt.Errorf("%w: unknown chunk kind %q", domain.ErrInvalidInput, input.Kind)
		}
		filter = domain.MetadataFilter{domain.MetaChunkType: string(kind)}
	}

	results, err := s.ports.Retrieval.Search(ctx, input.Query, limit, filter)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ID:       results[i].ID,
			Text:     results[i].Text,
			Metadata: results[i].Metadata,
			Distance: results[i].Distance,
		}
	}

	return nil, output, nil
}

// handleGatherContext handles the gather_context tool invocation.
func (s *Server) handleGatherContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GatherContextInput,
) (*mcp.CallToolResult, domain.AutomationContext, error) {
	out, err := s.ports.Retrieval.GatherContext(ctx, input.Description, input.Tools)
	if err != nil {
		return nil, domain.AutomationContext{}, err
	}
	return nil, out, nil
}

// handleClassifyStep handles the classify_step tool invocation.
func (s *Server) handleClassifyStep(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyStepInput,
) (*mcp.CallToolResult, any, error) {
	report, err := s.ports.Risk.ClassifyStep(input.Step.toDomain())
	if err != nil {
		return nil, nil, err
	}
	result, err := jsonResult(report)
	return result, nil, err
}

// handleAssessWorkflow handles the assess_workflow tool invocation.
func (s *Server) handleAssessWorkflow(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AssessWorkflowInput,
) (*mcp.CallToolResult, any, error) {
	steps := make([]domain.AutomationStep, len(input.Steps))
	for i := range input.Steps {
		steps[i] = input.Steps[i].toDomain()
	}

	report, err := s.ports.Risk.Aggregate(ctx, steps)
	if err != nil {
		return nil, nil, err
	}
	result, err := jsonResult(report)
	return result, nil, err
}

// handleIndexStats handles the index_stats tool invocation.
func (s *Server) handleIndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatsInput,
) (*mcp.CallToolResult, domain.IndexStats, error) {
	stats, err := s.ports.Retrieval.Stats(ctx)
	if err != nil {
		return nil, domain.IndexStats{}, err
	}
	return nil, stats, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}
