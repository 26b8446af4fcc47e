package domain

import (
	"fmt"
	"strings"
)

// Severity is the ordered risk level of a concern, step or workflow.
// The zero value is SeverityLow.
type Severity int

// Severity levels in ascending order.
const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"low", "medium", "high", "critical"}

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return "unknown"
	}
	return severityNames[s]
}

// IsValid returns true if the severity is one of the four defined levels.
func (s Severity) IsValid() bool {
	return s >= SeverityLow && s <= SeverityCritical
}

// Rank returns the position of s in the total order, LOW being 0.
func (s Severity) Rank() int {
	return int(s)
}

// Exceeds returns true if s is strictly more severe than other.
func (s Severity) Exceeds(other Severity) bool {
	return s > other
}

// AtLeast returns true if s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: severity %d", ErrInvalidInput, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(name string) (Severity, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range severityNames {
		if candidate == n {
			return Severity(i), nil
		}
	}
	return SeverityLow, fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, name)
}

// MaxSeverity returns the most severe level in levels, or SeverityLow when empty.
func MaxSeverity(levels ...Severity) Severity {
	max := SeverityLow
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// ConcernKind tags the category of a security concern.
type ConcernKind string

// Concern kinds produced by the classifier.
const (
	ConcernPIIHandling       ConcernKind = "PII_HANDLING"
	ConcernDatabaseWrite     ConcernKind = "DATABASE_WRITE_ACCESS"
	ConcernSensitiveSystem   ConcernKind = "SENSITIVE_SYSTEM_ACCESS"
	ConcernPaymentProcessing ConcernKind = "PAYMENT_PROCESSING"
	ConcernFinancialData     ConcernKind = "FINANCIAL_DATA"
)

// ApprovalType identifies a human approval obligation.
type ApprovalType string

// Approval types.
const (
	ApprovalSecurityReview   ApprovalType = "security_review"
	ApprovalDBA              ApprovalType = "dba_approval"
	ApprovalComplianceReview ApprovalType = "compliance_review"
	ApprovalLegalReview      ApprovalType = "legal_review"
	ApprovalManager          ApprovalType = "manager_approval"
	ApprovalChangeControl    ApprovalType = "change_control"
	ApprovalPCIReview        ApprovalType = "pci_review"
	ApprovalSOXCompliance    ApprovalType = "sox_compliance"
)

// AllApprovalTypes lists every approval type.
var AllApprovalTypes = []ApprovalType{
	ApprovalSecurityReview,
	ApprovalDBA,
	ApprovalComplianceReview,
	ApprovalLegalReview,
	ApprovalManager,
	ApprovalChangeControl,
	ApprovalPCIReview,
	ApprovalSOXCompliance,
}

// IsValid returns true if the approval type is recognised.
func (a ApprovalType) IsValid() bool {
	for _, t := range AllApprovalTypes {
		if a == t {
			return true
		}
	}
	return false
}

// DatabaseOperation is the access tier detected for a database.
type DatabaseOperation string

// Database access tiers, from least to most privileged.
const (
	OperationRead  DatabaseOperation = "read"
	OperationWrite DatabaseOperation = "write"
	OperationAdmin DatabaseOperation = "admin"
)

// Rank orders the tiers: read < write < admin.
func (o DatabaseOperation) Rank() int {
	switch o {
	case OperationWrite:
		return 1
	case OperationAdmin:
		return 2
	default:
		return 0
	}
}

// Mutates returns true for write and admin access.
func (o DatabaseOperation) Mutates() bool {
	return o == OperationWrite || o == OperationAdmin
}

// Compliance tags attached to steps and workflows.
const (
	CompliancePCIDSS = "PCI_DSS"
	ComplianceSOX    = "SOX"
)

// SecurityConcern is one finding raised by the classifier.
type SecurityConcern struct {
	Kind              ConcernKind    `json:"kind"`
	Description       string         `json:"description"`
	Severity          Severity       `json:"severity"`
	Mitigation        string         `json:"mitigation"`
	RequiredApprovals []ApprovalType `json:"required_approvals"`
}

// ApprovalRequirement is a concrete approval obligation.
type ApprovalRequirement struct {
	ApprovalType          ApprovalType `json:"approval_type"`
	ApproverRole          string       `json:"approver_role"`
	RequiredDocumentation []string     `json:"required_documentation"`
	EstimatedTime         string       `json:"estimated_time"`
	Reason                string       `json:"reason"`
}

// DatabaseAccess records the access tier detected for one database of a step.
type DatabaseAccess struct {
	Database      string            `json:"database"`
	OperationType DatabaseOperation `json:"operation_type"`
	Operations    []string          `json:"operations"`
}

// StepSecurityReport is the classification result for one workflow step.
type StepSecurityReport struct {
	StepID           string                `json:"step_id"`
	StepName         string                `json:"step_name"`
	Severity         Severity              `json:"risk_level"`
	Concerns         []SecurityConcern     `json:"security_concerns"`
	Approvals        []ApprovalRequirement `json:"approval_requirements"`
	DetectedPII      []string              `json:"pii_detected"`
	DatabaseAccess   []DatabaseAccess      `json:"database_access"`
	SensitiveSystems []string              `json:"sensitive_systems"`
	Payment          bool                  `json:"payment_processing"`
	Compliance       []string              `json:"compliance_requirements"`
}

// HasConcern reports whether the report contains a concern of the given kind.
func (r *StepSecurityReport) HasConcern(kind ConcernKind) bool {
	for i := range r.Concerns {
		if r.Concerns[i].Kind == kind {
			return true
		}
	}
	return false
}

// WritesDatabase reports whether any database access is write or admin.
func (r *StepSecurityReport) WritesDatabase() bool {
	for _, a := range r.DatabaseAccess {
		if a.OperationType.Mutates() {
			return true
		}
	}
	return false
}

// HighRiskStep lists a HIGH or CRITICAL step in a workflow report.
type HighRiskStep struct {
	StepID   string            `json:"step_id"`
	StepName string            `json:"step_name"`
	Severity Severity          `json:"risk_level"`
	Concerns []SecurityConcern `json:"concerns"`
}

// WorkflowSummary counts steps by the kind of exposure they carry.
type WorkflowSummary struct {
	PIIHandlingSteps       int `json:"pii_handling_steps"`
	DatabaseWriteSteps     int `json:"database_write_steps"`
	PaymentProcessingSteps int `json:"payment_processing_steps"`
	SensitiveSystemSteps   int `json:"production_access_steps"`
}

// WorkflowSecurityReport aggregates the classification of a whole workflow.
type WorkflowSecurityReport struct {
	OverallSeverity Severity              `json:"overall_risk_level"`
	TotalSteps      int                   `json:"total_steps_analyzed"`
	HighRiskSteps   []HighRiskStep        `json:"high_risk_steps"`
	Approvals       []ApprovalRequirement `json:"all_approval_requirements"`
	Compliance      []string              `json:"compliance_requirements"`
	Summary         WorkflowSummary       `json:"summary"`
	Recommendations []string              `json:"recommendations"`
	Steps           []StepSecurityReport  `json:"steps"`
}

// ScriptRiskProfile lists the risks of a third-party starter script.
type ScriptRiskProfile struct {
	ScriptPath          string   `json:"script_path"`
	Risks               []string `json:"risks"`
	RequiredPermissions []string `json:"required_permissions"`
	EnvironmentConcerns []string `json:"environment_concerns"`
	DataExposureRisks   []string `json:"data_exposure_risks"`
}
