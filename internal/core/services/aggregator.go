package services

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/logger"
)

// Aggregate classifies every step in parallel and reduces the reports into
// one workflow report once all classifications have finished.
// The first invalid step, or a cancelled ctx, aborts the call.
func (c *Classifier) Aggregate(
	ctx context.Context, steps []domain.AutomationStep,
) (domain.WorkflowSecurityReport, error) {
	ctx, span := c.tracer.Start(ctx, "risk.Aggregate",
		trace.WithAttributes(attribute.Int("steps", len(steps))))
	defer span.End()

	logger.Section("Workflow Risk Assessment")

	reports := make([]domain.StepSecurityReport, len(steps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range steps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := c.ClassifyStep(steps[i])
			if err != nil {
				return fmt.Errorf("classify step %d: %w", i, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return domain.WorkflowSecurityReport{}, err
	}

	report := c.reduce(reports)
	span.SetAttributes(attribute.String("overall_severity", report.OverallSeverity.String()))
	logger.Info("Workflow severity %s over %d step(s), %d high-risk",
		report.OverallSeverity, report.TotalSteps, len(report.HighRiskSteps))
	return report, nil
}

func (c *Classifier) reduce(reports []domain.StepSecurityReport) domain.WorkflowSecurityReport {
	out := domain.WorkflowSecurityReport{
		TotalSteps:      len(reports),
		HighRiskSteps:   []domain.HighRiskStep{},
		Approvals:       []domain.ApprovalRequirement{},
		Compliance:      []string{},
		Recommendations: []string{},
		Steps:           reports,
	}

	compliance := make(map[string]bool)
	for i := range reports {
		r := &reports[i]

		for j := range r.Concerns {
			out.OverallSeverity = domain.MaxSeverity(out.OverallSeverity, r.Concerns[j].Severity)
		}
		if r.Severity.AtLeast(domain.SeverityHigh) {
			out.HighRiskSteps = append(out.HighRiskSteps, domain.HighRiskStep{
				StepID:   r.StepID,
				StepName: r.StepName,
				Severity: r.Severity,
				Concerns: r.Concerns,
			})
		}
		out.Approvals = append(out.Approvals, r.Approvals...)
		for _, tag := range r.Compliance {
			compliance[tag] = true
		}

		if len(r.DetectedPII) > 0 {
			out.Summary.PIIHandlingSteps++
		}
		if r.WritesDatabase() {
			out.Summary.DatabaseWriteSteps++
		}
		if r.Payment {
			out.Summary.PaymentProcessingSteps++
		}
		if len(r.SensitiveSystems) > 0 {
			out.Summary.SensitiveSystemSteps++
		}
	}

	for tag := range compliance {
		out.Compliance = append(out.Compliance, tag)
	}
	sort.Strings(out.Compliance)

	out.Recommendations = c.recommend(out)
	return out
}

func (c *Classifier) recommend(report domain.WorkflowSecurityReport) []string {
	fired := map[domain.RecommendationTrigger]bool{
		domain.TriggerPIISteps:         report.Summary.PIIHandlingSteps > 0,
		domain.TriggerDatabaseWrites:   report.Summary.DatabaseWriteSteps > 0,
		domain.TriggerPaymentSteps:     report.Summary.PaymentProcessingSteps > 0,
		domain.TriggerSensitiveSystems: report.Summary.SensitiveSystemSteps > 0,
		domain.TriggerElevatedWorkflow: report.OverallSeverity.AtLeast(domain.SeverityHigh),
	}

	recs := []string{}
	for _, rule := range c.rules.Recommendations {
		if fired[rule.Trigger] {
			recs = append(recs, rule.Recommendations...)
		}
	}
	return recs
}
