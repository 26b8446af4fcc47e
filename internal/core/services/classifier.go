package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driving"
	"github.com/KKaradi/syfhack10year/internal/logger"
	"github.com/KKaradi/syfhack10year/internal/metrics"
)

// Ensure Classifier implements the interface.
var _ driving.RiskService = (*Classifier)(nil)

// DefaultClassifyConcurrency bounds parallel step classification in Aggregate.
const DefaultClassifyConcurrency = 8

// stepValidate checks the mandatory fields of workflow steps.
var stepValidate *validator.Validate

func init() {
	stepValidate = validator.New()
	stepValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

type namedPattern struct {
	name string
	re   *regexp.Regexp
}

// Classifier applies a rule set to workflow steps.
// It holds no mutable state after construction and is safe for concurrent use.
type Classifier struct {
	rules       domain.RuleSet
	patterns    []namedPattern
	concurrency int
	tracer      trace.Tracer
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithConcurrency sets how many steps Aggregate classifies at once.
func WithConcurrency(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithTracerProvider sends Aggregate spans to tp.
func WithTracerProvider(tp trace.TracerProvider) ClassifierOption {
	return func(c *Classifier) {
		c.tracer = newTracer(tp)
	}
}

// NewClassifier compiles rules into a classifier.
// Pattern strings are matched case-insensitively.
func NewClassifier(rules domain.RuleSet, opts ...ClassifierOption) (*Classifier, error) {
	c := &Classifier{
		rules:       rules,
		concurrency: DefaultClassifyConcurrency,
		tracer:      newTracer(nil),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rules.HighRiskSystems = lowerAll(rules.HighRiskSystems)
	c.rules.PaymentTerms = lowerAll(rules.PaymentTerms)
	c.rules.FinancialTerms = lowerAll(rules.FinancialTerms)
	c.rules.SensitiveKeywords = make([]domain.KeywordCategory, len(rules.SensitiveKeywords))
	for i, cat := range rules.SensitiveKeywords {
		c.rules.SensitiveKeywords[i] = domain.KeywordCategory{Name: cat.Name, Keywords: lowerAll(cat.Keywords)}
	}
	c.rules.OperationTiers = make([]domain.OperationTier, len(rules.OperationTiers))
	for i, tier := range rules.OperationTiers {
		tier.Verbs = lowerAll(tier.Verbs)
		c.rules.OperationTiers[i] = tier
	}

	for _, p := range rules.PIIPatterns {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pii pattern %q: %v", domain.ErrInvalidInput, p.Name, err)
		}
		c.patterns = append(c.patterns, namedPattern{name: p.Name, re: re})
	}
	for _, kind := range []domain.ConcernKind{
		domain.ConcernPIIHandling,
		domain.ConcernDatabaseWrite,
		domain.ConcernSensitiveSystem,
		domain.ConcernPaymentProcessing,
		domain.ConcernFinancialData,
	} {
		if _, ok := rules.Concerns[kind]; !ok {
			return nil, fmt.Errorf("%w: no concern template for %s", domain.ErrInvalidInput, kind)
		}
	}

	return c, nil
}

// Rules returns the rule set the classifier was built from.
func (c *Classifier) Rules() domain.RuleSet {
	return c.rules
}

// ClassifyStep produces the security report of one step.
// It fails only when mandatory step fields are missing.
func (c *Classifier) ClassifyStep(step domain.AutomationStep) (domain.StepSecurityReport, error) {
	if err := validateStep(&step); err != nil {
		return domain.StepSecurityReport{}, err
	}

	view := step.View()
	report := domain.StepSecurityReport{
		StepID:           step.StepID,
		StepName:         step.StepName,
		Concerns:         []domain.SecurityConcern{},
		DetectedPII:      []string{},
		DatabaseAccess:   []domain.DatabaseAccess{},
		SensitiveSystems: []string{},
		Compliance:       []string{},
	}

	report.DetectedPII = c.detectPII(view.AnalysisText())
	if len(report.DetectedPII) > 0 {
		report.Concerns = append(report.Concerns, c.concern(
			domain.ConcernPIIHandling,
			"Potential PII detected: "+strings.Join(report.DetectedPII, ", "),
			nil,
		))
	}

	report.DatabaseAccess = c.analyzeDatabaseAccess(view)
	for _, access := range report.DatabaseAccess {
		if !access.OperationType.Mutates() {
			continue
		}
		severity := c.tierSeverity(access.OperationType)
		report.Concerns = append(report.Concerns, c.concern(
			domain.ConcernDatabaseWrite,
			fmt.Sprintf("Write access to %s detected", access.Database),
			&severity,
		))
	}

	report.SensitiveSystems = matchAll(view.SystemText(), c.rules.HighRiskSystems)
	if len(report.SensitiveSystems) > 0 {
		report.Concerns = append(report.Concerns, c.concern(
			domain.ConcernSensitiveSystem,
			"Access to sensitive systems: "+strings.Join(report.SensitiveSystems, ", "),
			nil,
		))
	}

	if containsAny(view.ToolText(), c.rules.PaymentTerms) {
		report.Payment = true
		report.Compliance = append(report.Compliance, domain.CompliancePCIDSS)
		report.Concerns = append(report.Concerns, c.concern(
			domain.ConcernPaymentProcessing,
			"Payment card data processing detected",
			nil,
		))
	}

	if containsAny(view.ActionText(), c.rules.FinancialTerms) {
		report.Compliance = append(report.Compliance, domain.ComplianceSOX)
		report.Concerns = append(report.Concerns, c.concern(
			domain.ConcernFinancialData,
			"Financial data processing detected",
			nil,
		))
	}

	for i := range report.Concerns {
		report.Severity = domain.MaxSeverity(report.Severity, report.Concerns[i].Severity)
		metrics.ConcernsRaised.WithLabelValues(string(report.Concerns[i].Kind)).Inc()
	}
	report.Approvals = c.ResolveApprovals(report.Concerns, report.Severity)
	metrics.StepsClassified.WithLabelValues(report.Severity.String()).Inc()

	logger.Debug("Classified step %s: %s, %d concern(s), %d approval(s)",
		step.StepID, report.Severity, len(report.Concerns), len(report.Approvals))

	return report, nil
}

// detectPII returns the matched pattern names followed by the matched
// keyword category tags, each at most once.
func (c *Classifier) detectPII(text string) []string {
	found := []string{}
	for _, p := range c.patterns {
		if p.re.MatchString(text) {
			found = append(found, p.name)
		}
	}
	lower := strings.ToLower(text)
	for _, cat := range c.rules.SensitiveKeywords {
		if containsAny(lower, cat.Keywords) {
			found = append(found, cat.Name+"_keywords")
		}
	}
	return found
}

// analyzeDatabaseAccess tags every database of the step with the most
// privileged tier whose verbs occur in the action text. Verbs are matched
// as substrings, so "updated" counts as "update".
func (c *Classifier) analyzeDatabaseAccess(view domain.StepView) []domain.DatabaseAccess {
	text := view.ActionText()
	access := make([]domain.DatabaseAccess, 0, len(view.Databases))

	for _, db := range view.Databases {
		entry := domain.DatabaseAccess{
			Database:      db,
			OperationType: domain.OperationRead,
			Operations:    []string{},
		}
		for _, tier := range c.rules.OperationTiers {
			for _, verb := range tier.Verbs {
				if !strings.Contains(text, verb) {
					continue
				}
				entry.Operations = append(entry.Operations, verb)
				if tier.Operation.Rank() > entry.OperationType.Rank() {
					entry.OperationType = tier.Operation
				}
			}
		}
		access = append(access, entry)
	}
	return access
}

func (c *Classifier) tierSeverity(op domain.DatabaseOperation) domain.Severity {
	for _, tier := range c.rules.OperationTiers {
		if tier.Operation == op {
			return tier.Severity
		}
	}
	return c.rules.Concerns[domain.ConcernDatabaseWrite].Severity
}

// concern instantiates the template for kind. A non-nil severity overrides
// the template's.
func (c *Classifier) concern(kind domain.ConcernKind, description string, severity *domain.Severity) domain.SecurityConcern {
	tmpl := c.rules.Concerns[kind]
	approvals := make([]domain.ApprovalType, len(tmpl.RequiredApprovals))
	copy(approvals, tmpl.RequiredApprovals)

	sc := domain.SecurityConcern{
		Kind:              kind,
		Description:       description,
		Severity:          tmpl.Severity,
		Mitigation:        tmpl.Mitigation,
		RequiredApprovals: approvals,
	}
	if severity != nil {
		sc.Severity = *severity
	}
	return sc
}

func validateStep(step *domain.AutomationStep) error {
	err := stepValidate.Struct(step)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate step: %w", err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return &domain.ValidationError{StepID: step.StepID, Fields: fields}
}

func matchAll(text string, terms []string) []string {
	matched := []string{}
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched = append(matched, term)
		}
	}
	return matched
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
