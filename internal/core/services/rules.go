package services

import "github.com/KKaradi/syfhack10year/internal/core/domain"

// Starter script profile keys, in match order.
const (
	ScriptServiceNow = "servicenow"
	ScriptFiserv     = "fiserv"
	ScriptAzure      = "azure"
	ScriptAWS        = "aws"
)

// DefaultRuleSet returns the built-in classification tables.
// Each call returns a fresh copy that callers may modify.
func DefaultRuleSet() domain.RuleSet {
	return domain.RuleSet{
		PIIPatterns: []domain.PIIPattern{
			{Name: "ssn", Pattern: `\b\d{3}-?\d{2}-?\d{4}\b`},
			{Name: "credit_card", Pattern: `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`},
			{Name: "email", Pattern: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`},
			{Name: "phone", Pattern: `\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`},
			{Name: "date_of_birth", Pattern: `\b\d{1,2}[/-]\d{1,2}[/-]\d{4}\b`},
		},
		SensitiveKeywords: []domain.KeywordCategory{
			{Name: "financial", Keywords: []string{"payment", "credit card", "bank account", "transaction", "billing"}},
			{Name: "personal", Keywords: []string{"ssn", "social security", "driver license", "passport", "personal"}},
			{Name: "medical", Keywords: []string{"medical", "health", "patient", "diagnosis", "treatment"}},
			{Name: "authentication", Keywords: []string{"password", "credential", "token", "secret", "key"}},
		},
		OperationTiers: []domain.OperationTier{
			{
				Operation: domain.OperationRead,
				Verbs:     []string{"select", "query", "fetch", "retrieve", "get", "read"},
				Severity:  domain.SeverityLow,
			},
			{
				Operation: domain.OperationWrite,
				Verbs:     []string{"insert", "update", "delete", "create", "modify", "write"},
				Severity:  domain.SeverityMedium,
			},
			{
				Operation: domain.OperationAdmin,
				Verbs:     []string{"drop", "truncate", "alter", "grant", "revoke", "admin"},
				Severity:  domain.SeverityHigh,
			},
		},
		HighRiskSystems: []string{
			"production", "prod", "live", "payment", "financial", "billing",
			"customer data", "pii", "sensitive", "confidential",
		},
		PaymentTerms:   []string{"payment", "credit card", "debit card", "transaction", "fiserv", "charge", "refund"},
		FinancialTerms: []string{"financial", "accounting", "revenue", "billing", "invoice", "ledger"},
		Concerns: map[domain.ConcernKind]domain.ConcernTemplate{
			domain.ConcernPIIHandling: {
				Severity:          domain.SeverityHigh,
				Mitigation:        "Implement data masking, encryption, and access logging",
				RequiredApprovals: []domain.ApprovalType{domain.ApprovalComplianceReview, domain.ApprovalLegalReview},
			},
			domain.ConcernDatabaseWrite: {
				Severity:          domain.SeverityMedium,
				Mitigation:        "Implement proper access controls and audit logging",
				RequiredApprovals: []domain.ApprovalType{domain.ApprovalDBA, domain.ApprovalSecurityReview},
			},
			domain.ConcernSensitiveSystem: {
				Severity:          domain.SeverityHigh,
				Mitigation:        "Implement strict access controls and monitoring",
				RequiredApprovals: []domain.ApprovalType{domain.ApprovalSecurityReview, domain.ApprovalManager},
			},
			domain.ConcernPaymentProcessing: {
				Severity:          domain.SeverityCritical,
				Mitigation:        "Ensure PCI DSS compliance, tokenization, and secure transmission",
				RequiredApprovals: []domain.ApprovalType{domain.ApprovalPCIReview, domain.ApprovalComplianceReview},
			},
			domain.ConcernFinancialData: {
				Severity:          domain.SeverityHigh,
				Mitigation:        "Implement SOX controls and audit trails",
				RequiredApprovals: []domain.ApprovalType{domain.ApprovalSOXCompliance, domain.ApprovalManager},
			},
		},
		Approvals:          defaultApprovals(),
		Recommendations:    defaultRecommendations(),
		ScriptProfiles:     defaultScriptProfiles(),
		ScriptProfileOrder: []string{ScriptServiceNow, ScriptFiserv, ScriptAzure, ScriptAWS},
	}
}

func defaultApprovals() map[domain.ApprovalType]domain.ApprovalDefinition {
	return map[domain.ApprovalType]domain.ApprovalDefinition{
		domain.ApprovalSecurityReview: {
			ApproverRole:          "Security Team Lead",
			RequiredDocumentation: []string{"Security assessment", "Risk analysis", "Mitigation plan"},
			EstimatedTime:         "2-3 business days",
			Reason:                "Security risks identified requiring review",
		},
		domain.ApprovalDBA: {
			ApproverRole:          "Database Administrator",
			RequiredDocumentation: []string{"Database access request", "Query review", "Backup plan"},
			EstimatedTime:         "1-2 business days",
			Reason:                "Database write access required",
		},
		domain.ApprovalComplianceReview: {
			ApproverRole:          "Compliance Officer",
			RequiredDocumentation: []string{"Compliance checklist", "Privacy impact assessment"},
			EstimatedTime:         "3-5 business days",
			Reason:                "PII or sensitive data handling detected",
		},
		domain.ApprovalLegalReview: {
			ApproverRole:          "Legal Counsel",
			RequiredDocumentation: []string{"Legal risk assessment", "Data processing agreement"},
			EstimatedTime:         "5-7 business days",
			Reason:                "Legal implications of data processing",
		},
		domain.ApprovalManager: {
			ApproverRole:          "Department Manager",
			RequiredDocumentation: []string{"Business justification", "Risk acceptance"},
			EstimatedTime:         "1-2 business days",
			Reason:                "High-risk automation requiring management approval",
		},
		domain.ApprovalChangeControl: {
			ApproverRole:          "Change Advisory Board",
			RequiredDocumentation: []string{"Change request form", "Impact assessment", "Rollback plan"},
			EstimatedTime:         "3-5 business days",
			Reason:                "Production system changes",
		},
		domain.ApprovalPCIReview: {
			ApproverRole:          "PCI Compliance Officer",
			RequiredDocumentation: []string{"PCI compliance checklist", "Security controls review"},
			EstimatedTime:         "3-7 business days",
			Reason:                "Payment card data processing",
		},
		domain.ApprovalSOXCompliance: {
			ApproverRole:          "SOX Compliance Team",
			RequiredDocumentation: []string{"SOX controls review", "Financial impact assessment"},
			EstimatedTime:         "5-10 business days",
			Reason:                "Financial data processing requiring SOX compliance",
		},
	}
}

func defaultRecommendations() []domain.RecommendationRule {
	return []domain.RecommendationRule{
		{
			Trigger: domain.TriggerPIISteps,
			Recommendations: []string{
				"Implement data encryption at rest and in transit for all PII handling operations",
				"Add audit logging for all access to personally identifiable information",
			},
		},
		{
			Trigger: domain.TriggerDatabaseWrites,
			Recommendations: []string{
				"Implement database transaction rollback capabilities for all write operations",
				"Add database operation monitoring and alerting",
			},
		},
		{
			Trigger: domain.TriggerPaymentSteps,
			Recommendations: []string{
				"Ensure PCI DSS compliance for all payment processing operations",
				"Implement payment card data tokenization where possible",
			},
		},
		{
			Trigger: domain.TriggerSensitiveSystems,
			Recommendations: []string{
				"Implement change control processes for all production system access",
				"Add comprehensive monitoring and alerting for production operations",
			},
		},
		{
			Trigger: domain.TriggerElevatedWorkflow,
			Recommendations: []string{
				"Consider implementing this automation in stages with manual checkpoints",
				"Establish incident response procedures specific to this automation",
			},
		},
	}
}

func defaultScriptProfiles() map[string]domain.ScriptRiskProfile {
	return map[string]domain.ScriptRiskProfile{
		ScriptServiceNow: {
			Risks: []string{
				"ServiceNow credentials exposure",
				"Unauthorized incident creation",
				"Access to sensitive CMDB data",
			},
			RequiredPermissions: []string{
				"ServiceNow API access",
				"Incident table read/write",
				"User table read access",
			},
			EnvironmentConcerns: []string{
				"Production ServiceNow access",
				"Credential storage and rotation",
			},
			DataExposureRisks: []string{
				"Employee information in user tables",
				"Sensitive incident details",
				"System configuration data",
			},
		},
		ScriptFiserv: {
			Risks: []string{
				"Payment card data exposure",
				"PCI DSS compliance violations",
				"Unauthorized financial transactions",
				"Merchant credential compromise",
			},
			RequiredPermissions: []string{
				"Fiserv API credentials",
				"Payment processing rights",
				"Fraud detection access",
			},
			EnvironmentConcerns: []string{
				"PCI DSS compliant environment",
				"Secure credential management",
				"Transaction logging and monitoring",
			},
			DataExposureRisks: []string{
				"Credit card numbers",
				"Customer payment information",
				"Transaction details",
				"Merchant financial data",
			},
		},
		ScriptAzure: {
			Risks: []string{
				"Cloud resource provisioning costs",
				"Unauthorized resource access",
				"Data breach through misconfiguration",
				"Service principal compromise",
			},
			RequiredPermissions: []string{
				"Azure subscription access",
				"Resource group management",
				"Key Vault access rights",
			},
			EnvironmentConcerns: []string{
				"Production Azure environment",
				"Resource cost management",
				"Network security configuration",
			},
			DataExposureRisks: []string{
				"Application secrets in Key Vault",
				"Database connection strings",
				"Customer data in storage accounts",
			},
		},
		ScriptAWS: {
			Risks: []string{
				"AWS resource provisioning costs",
				"S3 bucket data exposure",
				"Lambda function privilege escalation",
				"IAM credential compromise",
			},
			RequiredPermissions: []string{
				"AWS IAM role/user access",
				"S3 bucket permissions",
				"Lambda execution rights",
				"CloudWatch access",
			},
			EnvironmentConcerns: []string{
				"Production AWS account access",
				"Cost monitoring and alerts",
				"Security group configurations",
			},
			DataExposureRisks: []string{
				"Customer data in S3 buckets",
				"Application logs with sensitive info",
				"Database credentials in parameter store",
			},
		},
	}
}
