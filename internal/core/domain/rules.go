package domain

// PIIPattern is a named structural pattern (regular expression) for PII.
type PIIPattern struct {
	Name    string
	Pattern string
}

// KeywordCategory groups sensitive keywords under a category name.
// A match contributes the tag "<name>_keywords".
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// OperationTier lists the verbs that indicate one database access tier.
// Severity applies to the DATABASE_WRITE_ACCESS concern raised for
// mutating tiers.
type OperationTier struct {
	Operation DatabaseOperation
	Verbs     []string
	Severity  Severity
}

// ApprovalDefinition is the canonical description of one approval type.
type ApprovalDefinition struct {
	ApproverRole          string
	RequiredDocumentation []string
	EstimatedTime         string
	Reason                string
}

// Requirement instantiates the definition for an approval type.
func (d ApprovalDefinition) Requirement(t ApprovalType) ApprovalRequirement {
	docs := make([]string, len(d.RequiredDocumentation))
	copy(docs, d.RequiredDocumentation)
	return ApprovalRequirement{
		ApprovalType:          t,
		ApproverRole:          d.ApproverRole,
		RequiredDocumentation: docs,
		EstimatedTime:         d.EstimatedTime,
		Reason:                d.Reason,
	}
}

// ConcernTemplate describes the concern raised when a check fires.
type ConcernTemplate struct {
	Severity          Severity
	Mitigation        string
	RequiredApprovals []ApprovalType
}

// RecommendationRule maps a workflow trigger to recommendation strings.
type RecommendationRule struct {
	Trigger         RecommendationTrigger
	Recommendations []string
}

// RecommendationTrigger names the workflow condition that fires a recommendation.
type RecommendationTrigger string

// Recommendation triggers.
const (
	TriggerPIISteps         RecommendationTrigger = "pii_steps"
	TriggerDatabaseWrites   RecommendationTrigger = "database_write_steps"
	TriggerPaymentSteps     RecommendationTrigger = "payment_steps"
	TriggerSensitiveSystems RecommendationTrigger = "sensitive_system_steps"
	TriggerElevatedWorkflow RecommendationTrigger = "high_or_critical_workflow"
)

// RuleSet is the declarative table set that drives risk classification.
// Order within each list is significant: it fixes the order of detected
// tags, matched terms and recommendations.
type RuleSet struct {
	PIIPatterns        []PIIPattern
	SensitiveKeywords  []KeywordCategory
	OperationTiers     []OperationTier
	HighRiskSystems    []string
	PaymentTerms       []string
	FinancialTerms     []string
	Concerns           map[ConcernKind]ConcernTemplate
	Approvals          map[ApprovalType]ApprovalDefinition
	Recommendations    []RecommendationRule
	ScriptProfiles     map[string]ScriptRiskProfile
	ScriptProfileOrder []string
}
