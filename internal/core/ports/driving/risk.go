package driving

import (
	"context"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// RiskService classifies workflow steps and aggregates workflow reports.
type RiskService interface {
	// ClassifyStep produces the security report of one step.
	ClassifyStep(step domain.AutomationStep) (domain.StepSecurityReport, error)

	// Aggregate classifies every step and reduces the results into one report.
	Aggregate(ctx context.Context, steps []domain.AutomationStep) (domain.WorkflowSecurityReport, error)

	// ScriptRisks returns the risk profile of a starter script.
	// Unknown scripts yield a profile with empty lists.
	ScriptRisks(scriptPath string) domain.ScriptRiskProfile
}
