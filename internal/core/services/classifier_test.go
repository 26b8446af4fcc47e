package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultRuleSet())
	require.NoError(t, err)
	return c
}

func step(id, description string) domain.AutomationStep {
	return domain.AutomationStep{StepID: id, StepName: "Step " + id, Description: description}
}

func approvalTypes(reqs []domain.ApprovalRequirement) []domain.ApprovalType {
	out := make([]domain.ApprovalType, len(reqs))
	for i, r := range reqs {
		out[i] = r.ApprovalType
	}
	return out
}

func TestNewClassifier_Errors(t *testing.T) {
	t.Run("bad pattern", func(t *testing.T) {
		rules := DefaultRuleSet()
		rules.PIIPatterns = append(rules.PIIPatterns, domain.PIIPattern{Name: "broken", Pattern: "(["})
		_, err := NewClassifier(rules)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("missing concern template", func(t *testing.T) {
		rules := DefaultRuleSet()
		delete(rules.Concerns, domain.ConcernFinancialData)
		_, err := NewClassifier(rules)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestNewClassifier_DoesNotAliasRules(t *testing.T) {
	rules := DefaultRuleSet()
	rules.HighRiskSystems = []string{"PROD"}
	c, err := NewClassifier(rules)
	require.NoError(t, err)

	assert.Equal(t, []string{"prod"}, c.Rules().HighRiskSystems)
	assert.Equal(t, []string{"PROD"}, rules.HighRiskSystems)
}

func TestClassifyStep_Validation(t *testing.T) {
	c := newTestClassifier(t)

	_, err := c.ClassifyStep(domain.AutomationStep{StepID: "s1", Description: "do things"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "s1", verr.StepID)
	assert.Equal(t, []string{"step_name"}, verr.Fields)

	_, err = c.ClassifyStep(domain.AutomationStep{})
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{"step_id", "step_name", "description"}, verr.Fields)

	s := step("s2", "list things")
	s.Databases = []string{""}
	_, err = c.ClassifyStep(s)
	assert.ErrorIs(t, err, domain.ErrInvalidStep)
}

func TestClassifyStep_Benign(t *testing.T) {
	c := newTestClassifier(t)

	s := step("s1", "Fetch rows from the inventory table")
	s.Databases = []string{"inventory"}
	report, err := c.ClassifyStep(s)
	require.NoError(t, err)

	assert.Equal(t, domain.SeverityLow, report.Severity)
	assert.Empty(t, report.Concerns)
	assert.NotNil(t, report.Concerns)
	assert.Empty(t, report.Approvals)
	assert.NotNil(t, report.Approvals)
	assert.Empty(t, report.DetectedPII)
	assert.False(t, report.Payment)
	require.Len(t, report.DatabaseAccess, 1)
	assert.Equal(t, domain.OperationRead, report.DatabaseAccess[0].OperationType)
	assert.Equal(t, []string{"fetch"}, report.DatabaseAccess[0].Operations)
}

func TestClassifyStep_EmailPII(t *testing.T) {
	c := newTestClassifier(t)

	report, err := c.ClassifyStep(step("s1", "Email the weekly report to jane.doe@example.com"))
	require.NoError(t, err)

	assert.Equal(t, []string{"email"}, report.DetectedPII)
	require.Len(t, report.Concerns, 1)
	assert.Equal(t, domain.ConcernPIIHandling, report.Concerns[0].Kind)
	assert.Equal(t, "Potential PII detected: email", report.Concerns[0].Description)
	assert.Equal(t, domain.SeverityHigh, report.Severity)
	assert.Equal(t, []domain.ApprovalType{
		domain.ApprovalComplianceReview,
		domain.ApprovalLegalReview,
		domain.ApprovalSecurityReview,
	}, approvalTypes(report.Approvals))
}

func TestClassifyStep_KeywordPII(t *testing.T) {
	c := newTestClassifier(t)

	report, err := c.ClassifyStep(step("s1", "Rotate the service PASSWORD"))
	require.NoError(t, err)
	assert.Equal(t, []string{"authentication_keywords"}, report.DetectedPII)
	assert.True(t, report.HasConcern(domain.ConcernPIIHandling))
}

func TestClassifyStep_DropIsAdmin(t *testing.T) {
	c := newTestClassifier(t)

	s := step("s1", "Drop the staging table")
	s.Databases = []string{"orders"}
	report, err := c.ClassifyStep(s)
	require.NoError(t, err)

	require.Len(t, report.DatabaseAccess, 1)
	assert.Equal(t, domain.OperationAdmin, report.DatabaseAccess[0].OperationType)
	assert.Equal(t, []string{"drop"}, report.DatabaseAccess[0].Operations)

	require.Len(t, report.Concerns, 1)
	assert.Equal(t, domain.ConcernDatabaseWrite, report.Concerns[0].Kind)
	assert.Equal(t, domain.SeverityHigh, report.Concerns[0].Severity)
	assert.Equal(t, "Write access to orders detected", report.Concerns[0].Description)
	assert.Equal(t, domain.SeverityHigh, report.Severity)
	assert.True(t, report.WritesDatabase())
	assert.Equal(t, []domain.ApprovalType{domain.ApprovalDBA, domain.ApprovalSecurityReview},
		approvalTypes(report.Approvals))
}

func TestClassifyStep_WriteTierPerDatabase(t *testing.T) {
	c := newTestClassifier(t)

	s := step("s1", "Insert new rows")
	s.Databases = []string{"orders", "audit"}
	report, err := c.ClassifyStep(s)
	require.NoError(t, err)

	require.Len(t, report.Concerns, 2)
	for _, concern := range report.Concerns {
		assert.Equal(t, domain.SeverityMedium, concern.Severity)
	}
	assert.Equal(t, domain.SeverityMedium, report.Severity)
	assert.Equal(t, []domain.ApprovalType{domain.ApprovalDBA, domain.ApprovalSecurityReview},
		approvalTypes(report.Approvals), "approvals are deduplicated across concerns")
}

// Verbs match as substrings: "updated" is read as an update.
func TestClassifyStep_SubstringVerbMatching(t *testing.T) {
	c := newTestClassifier(t)

	s := step("s1", "Report on recently updated tickets")
	s.Databases = []string{"tickets"}
	report, err := c.ClassifyStep(s)
	require.NoError(t, err)

	assert.Equal(t, domain.OperationWrite, report.DatabaseAccess[0].OperationType)
}

func TestClassifyStep_CardChargeIsCritical(t *testing.T) {
	c := newTestClassifier(t)

	s := step("s1", "Charge card 4111 1111 1111 1111 for the order")
	s.Tool = "Fiserv"
	report, err := c.ClassifyStep(s)
	require.NoError(t, err)

	assert.Equal(t, domain.SeverityCritical, report.Severity)
	assert.True(t, report.Payment)
	assert.Equal(t, []string{"credit_card"}, report.DetectedPII)
	assert.Equal(t, []string{domain.CompliancePCIDSS}, report.Compliance)
	assert.True(t, report.HasConcern(domain.ConcernPaymentProcessing))
	assert.True(t, report.HasConcern(domain.ConcernPIIHandling))

	assert.Equal(t, []domain.ApprovalType{
		domain.ApprovalComplianceReview,
		domain.ApprovalLegalReview,
		domain.ApprovalPCIReview,
		domain.ApprovalSecurityReview,
		domain.ApprovalManager,
	}, approvalTypes(report.Approvals))

	manager := report.Approvals[len(report.Approvals)-1]
	assert.Equal(t, "Department Manager", manager.ApproverRole)
	assert.NotEmpty(t, manager.RequiredDocumentation)
}

func TestClassifyStep_PaymentConcernOnce(t *testing.T) {
	c := newTestClassifier(t)

	report, err := c.ClassifyStep(step("s1", "Charge the customer's credit card for the renewal"))
	require.NoError(t, err)

	payment := 0
	for _, concern := range report.Concerns {
		if concern.Kind == domain.ConcernPaymentProcessing {
			payment++
		}
	}
	assert.Equal(t, 1, payment)
	assert.True(t, report.Payment)
	assert.Equal(t, domain.SeverityCritical, report.Severity)
}

func TestClassifyStep_FinancialIsSOX(t *testing.T) {
	c := newTestClassifier(t)

	report, err := c.ClassifyStep(step("s1", "Reconcile the general ledger"))
	require.NoError(t, err)

	assert.Equal(t, []string{domain.ComplianceSOX}, report.Compliance)
	assert.True(t, report.HasConcern(domain.ConcernFinancialData))
	assert.Equal(t, domain.SeverityHigh, report.Severity)
	assert.Equal(t, []domain.ApprovalType{
		domain.ApprovalSOXCompliance,
		domain.ApprovalManager,
		domain.ApprovalSecurityReview,
	}, approvalTypes(report.Approvals))
}

func TestClassifyStep_SensitiveSystems(t *testing.T) {
	c := newTestClassifier(t)

	s := step("s1", "Restart the web server")
	s.CompanyResources = []string{"Production Cluster"}
	report, err := c.ClassifyStep(s)
	require.NoError(t, err)

	assert.Equal(t, []string{"production", "prod"}, report.SensitiveSystems)
	require.Len(t, report.Concerns, 1)
	assert.Equal(t, "Access to sensitive systems: production, prod", report.Concerns[0].Description)
	assert.Equal(t, []domain.ApprovalType{domain.ApprovalSecurityReview, domain.ApprovalManager},
		approvalTypes(report.Approvals))
}

func TestResolveApprovals(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name     string
		concerns []domain.SecurityConcern
		severity domain.Severity
		want     []domain.ApprovalType
	}{
		{"none", nil, domain.SeverityLow, []domain.ApprovalType{}},
		{"medium adds nothing", nil, domain.SeverityMedium, []domain.ApprovalType{}},
		{"high adds security review", nil, domain.SeverityHigh, []domain.ApprovalType{domain.ApprovalSecurityReview}},
		{
			"critical adds security review and manager",
			nil, domain.SeverityCritical,
			[]domain.ApprovalType{domain.ApprovalSecurityReview, domain.ApprovalManager},
		},
		{
			"first requested order with dedup",
			[]domain.SecurityConcern{
				{RequiredApprovals: []domain.ApprovalType{domain.ApprovalManager, domain.ApprovalDBA}},
				{RequiredApprovals: []domain.ApprovalType{domain.ApprovalDBA, domain.ApprovalChangeControl}},
			},
			domain.SeverityCritical,
			[]domain.ApprovalType{
				domain.ApprovalManager, domain.ApprovalDBA, domain.ApprovalChangeControl, domain.ApprovalSecurityReview,
			},
		},
		{
			"unknown types are dropped",
			[]domain.SecurityConcern{{RequiredApprovals: []domain.ApprovalType{"notary"}}},
			domain.SeverityLow,
			[]domain.ApprovalType{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ResolveApprovals(tt.concerns, tt.severity)
			assert.Equal(t, tt.want, approvalTypes(got))
		})
	}
}

func TestClassifyStep_Concurrent(t *testing.T) {
	c := newTestClassifier(t)
	want, err := c.ClassifyStep(step("s", "Email bob@example.com the invoice"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.ClassifyStep(step("s", "Email bob@example.com the invoice"))
			if err != nil {
				errs <- err
				return
			}
			if len(got.Concerns) != len(want.Concerns) || got.Severity != want.Severity {
				errs <- fmt.Errorf("got %s with %d concerns", got.Severity, len(got.Concerns))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestScriptRisks(t *testing.T) {
	c := newTestClassifier(t)

	fiserv := c.ScriptRisks("starters/Fiserv_Payments.py")
	assert.Equal(t, "starters/Fiserv_Payments.py", fiserv.ScriptPath)
	assert.Contains(t, fiserv.Risks, "PCI DSS compliance violations")
	assert.Contains(t, fiserv.DataExposureRisks, "Credit card numbers")

	first := c.ScriptRisks("servicenow_to_aws.py")
	assert.Contains(t, first.Risks, "ServiceNow credentials exposure")
	assert.NotContains(t, first.Risks, "IAM credential compromise")

	unknown := c.ScriptRisks("hello.sh")
	assert.NotNil(t, unknown.Risks)
	assert.Empty(t, unknown.Risks)
	assert.Empty(t, unknown.RequiredPermissions)
	assert.Empty(t, unknown.EnvironmentConcerns)
	assert.Empty(t, unknown.DataExposureRisks)
}
