// Package services implements the driving ports on top of the driven ones.
//
// RetrievalService owns indexing and semantic search. Classifier and the
// workflow aggregator score automation steps against a RuleSet, and
// ResourceCatalog keeps the resources listed across the corpus. Spans go to
// the TracerProvider given to each service, or the global one when none is.
package services

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "syfhack.services"

func newTracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(tracerName)
}
