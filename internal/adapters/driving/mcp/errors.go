// Package mcp provides an MCP (Model Context Protocol) server adapter for syfhack.
// It lets AI assistants search the knowledge base, gather automation
// context and score workflow steps for security risk.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrMissingRiskService is returned when the risk service is not provided.
	ErrMissingRiskService = errors.New("mcp: risk service is required")
)
