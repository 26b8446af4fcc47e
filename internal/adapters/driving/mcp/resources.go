package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for syfhack resources.
	uriScheme = "syfhack://"

	statsURI          = uriScheme + "stats"
	resourcesURI      = uriScheme + "resources"
	resourcesByPrefix = resourcesURI + "/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "stats",
		Description: "Vector index statistics",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         resourcesURI,
		Name:        "resources",
		Description: "Summary of the resources listed across the corpus",
		MIMEType:    "application/json",
	}, s.handleResourcesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: resourcesByPrefix + "{type}",
		Name:        "resources-by-type",
		Description: "Resources of one type, such as API or Service",
		MIMEType:    "application/json",
	}, s.handleResourcesByTypeResource)
}

// handleStatsResource returns the index statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Retrieval.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

// handleResourcesResource returns the resource catalog summary.
func (s *Server) handleResourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	summary, err := s.ports.Catalog.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarising resources: %w", err)
	}
	return jsonResource(req.Params.URI, summary)
}

// handleResourcesByTypeResource lists the resources whose type matches the
// last URI segment, ignoring case.
func (s *Server) handleResourcesByTypeResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	resourceType, ok := strings.CutPrefix(uri, resourcesByPrefix)
	if !ok || resourceType == "" || strings.Contains(resourceType, "/") || s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if unescaped, err := url.PathUnescape(resourceType); err == nil {
		resourceType = unescaped
	}

	all, err := s.ports.Catalog.Resources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}

	matches := []domain.ResourceBrief{}
	for _, r := range all {
		if strings.EqualFold(r.Type, resourceType) {
			matches = append(matches, domain.ResourceBrief{Name: r.Name, Type: r.Type, Description: r.Description})
		}
	}
	return jsonResource(uri, matches)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
