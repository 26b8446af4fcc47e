package mcp

import (
	"github.com/KKaradi/syfhack10year/internal/core/ports/driving"
)

// Ports are the services behind the tools and resources. Catalog may be
// nil, in which case the resource listings report not found.
type Ports struct {
	Retrieval driving.RetrievalService
	Risk      driving.RiskService
	Catalog   driving.ResourceCatalog
}

// Validate reports the first missing required port.
func (p *Ports) Validate() error {
	switch {
	case p.Retrieval == nil:
		return ErrMissingRetrievalService
	case p.Risk == nil:
		return ErrMissingRiskService
	}
	return nil
}
