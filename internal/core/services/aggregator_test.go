package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

func paymentWorkflow() []domain.AutomationStep {
	fetch := step("1", "Fetch open orders")
	fetch.Databases = []string{"orders"}

	charge := step("2", "Charge card 4111 1111 1111 1111")
	charge.Tool = "Fiserv"

	notify := step("3", "Email receipt to customer@example.com")

	book := step("4", "Post revenue to the ledger")
	book.Databases = []string{"finance"}
	book.AutomationDetails = "update the monthly totals"

	return []domain.AutomationStep{fetch, charge, notify, book}
}

func TestAggregate(t *testing.T) {
	c := newTestClassifier(t)

	report, err := c.Aggregate(context.Background(), paymentWorkflow())
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalSteps)
	assert.Equal(t, domain.SeverityCritical, report.OverallSeverity)

	require.Len(t, report.Steps, 4)
	for i, s := range report.Steps {
		assert.Equal(t, paymentWorkflow()[i].StepID, s.StepID, "step order is preserved")
	}
	assert.Equal(t, domain.SeverityLow, report.Steps[0].Severity)

	ids := make([]string, len(report.HighRiskSteps))
	for i, s := range report.HighRiskSteps {
		ids[i] = s.StepID
	}
	assert.Equal(t, []string{"2", "3", "4"}, ids)

	assert.Equal(t, []string{domain.CompliancePCIDSS, domain.ComplianceSOX}, report.Compliance)
	assert.Equal(t, domain.WorkflowSummary{
		PIIHandlingSteps:       2,
		DatabaseWriteSteps:     1,
		PaymentProcessingSteps: 1,
		SensitiveSystemSteps:   0,
	}, report.Summary)

	var total int
	for _, s := range report.Steps {
		total += len(s.Approvals)
	}
	assert.Len(t, report.Approvals, total)

	assert.Equal(t, []string{
		"Implement data encryption at rest and in transit for all PII handling operations",
		"Add audit logging for all access to personally identifiable information",
		"Implement database transaction rollback capabilities for all write operations",
		"Add database operation monitoring and alerting",
		"Ensure PCI DSS compliance for all payment processing operations",
		"Implement payment card data tokenization where possible",
		"Consider implementing this automation in stages with manual checkpoints",
		"Establish incident response procedures specific to this automation",
	}, report.Recommendations)
}

func TestAggregate_Empty(t *testing.T) {
	c := newTestClassifier(t)

	report, err := c.Aggregate(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, report.TotalSteps)
	assert.Equal(t, domain.SeverityLow, report.OverallSeverity)
	assert.NotNil(t, report.HighRiskSteps)
	assert.Empty(t, report.HighRiskSteps)
	assert.NotNil(t, report.Approvals)
	assert.NotNil(t, report.Compliance)
	assert.NotNil(t, report.Recommendations)
	assert.Empty(t, report.Recommendations)
}

func TestAggregate_InvalidStepAborts(t *testing.T) {
	c := newTestClassifier(t)
	steps := paymentWorkflow()
	steps[2].Description = ""

	_, err := c.Aggregate(context.Background(), steps)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
	assert.Contains(t, err.Error(), "classify step 2")
}

func TestAggregate_MatchesSequential(t *testing.T) {
	c, err := NewClassifier(DefaultRuleSet(), WithConcurrency(1))
	require.NoError(t, err)
	parallel := newTestClassifier(t)

	seq, err := c.Aggregate(context.Background(), paymentWorkflow())
	require.NoError(t, err)
	par, err := parallel.Aggregate(context.Background(), paymentWorkflow())
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestAggregate_CustomRecommendations(t *testing.T) {
	rules := DefaultRuleSet()
	rules.Recommendations = []domain.RecommendationRule{
		{Trigger: domain.TriggerElevatedWorkflow, Recommendations: []string{"page the on-call"}},
	}
	c, err := NewClassifier(rules)
	require.NoError(t, err)

	report, err := c.Aggregate(context.Background(), paymentWorkflow())
	require.NoError(t, err)
	assert.Equal(t, []string{"page the on-call"}, report.Recommendations)
}
