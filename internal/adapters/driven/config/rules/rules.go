// Package rules loads classification rule-table overrides from YAML.
//
// An override file may set any subset of sections. List sections replace
// the base list wholesale. Keyed sections replace or add individual
// entries, except concerns, which are merged field by field.
package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// File is the YAML document layout.
type File struct {
	PIIPatterns       []PIIPattern                  `yaml:"pii_patterns"`
	SensitiveKeywords []KeywordCategory             `yaml:"sensitive_keywords"`
	OperationTiers    []OperationTier               `yaml:"operation_tiers"`
	HighRiskSystems   []string                      `yaml:"high_risk_systems"`
	PaymentTerms      []string                      `yaml:"payment_terms"`
	FinancialTerms    []string                      `yaml:"financial_terms"`
	Concerns          map[string]ConcernTemplate    `yaml:"concerns"`
	Approvals         map[string]ApprovalDefinition `yaml:"approvals"`
	Recommendations   []RecommendationRule          `yaml:"recommendations"`
	ScriptProfiles    []ScriptProfile               `yaml:"script_profiles"`
}

// PIIPattern is a named regular expression that marks personal data.
type PIIPattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// KeywordCategory groups the keywords of one sensitive-data category.
type KeywordCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// OperationTier maps database verbs to an operation and its severity.
// Severity is required since the list replaces the built-in tiers.
type OperationTier struct {
	Operation string           `yaml:"operation"`
	Verbs     []string         `yaml:"verbs"`
	Severity  *domain.Severity `yaml:"severity"`
}

// ConcernTemplate overrides one concern kind. Fields left out keep the
// base template's value; a kind without a base template needs a severity.
type ConcernTemplate struct {
	Severity          *domain.Severity `yaml:"severity"`
	Mitigation        string           `yaml:"mitigation"`
	RequiredApprovals []string         `yaml:"required_approvals"`
}

// ApprovalDefinition describes who grants an approval type and what it takes.
type ApprovalDefinition struct {
	ApproverRole          string   `yaml:"approver_role"`
	RequiredDocumentation []string `yaml:"required_documentation"`
	EstimatedTime         string   `yaml:"estimated_time"`
	Reason                string   `yaml:"reason"`
}

// RecommendationRule lists the recommendations added when Trigger fires.
type RecommendationRule struct {
	Trigger         string   `yaml:"trigger"`
	Recommendations []string `yaml:"recommendations"`
}

// ScriptProfile is the risk profile of starter scripts whose path
// contains Key.
type ScriptProfile struct {
	Key                 string   `yaml:"key"`
	Risks               []string `yaml:"risks"`
	RequiredPermissions []string `yaml:"required_permissions"`
	EnvironmentConcerns []string `yaml:"environment_concerns"`
	DataExposureRisks   []string `yaml:"data_exposure_risks"`
}

var errMissingSeverity = errors.New("severity is required")

var (
	knownConcerns = map[domain.ConcernKind]bool{
		domain.ConcernPIIHandling:       true,
		domain.ConcernDatabaseWrite:     true,
		domain.ConcernSensitiveSystem:   true,
		domain.ConcernPaymentProcessing: true,
		domain.ConcernFinancialData:     true,
	}
	knownTriggers = map[domain.RecommendationTrigger]bool{
		domain.TriggerPIISteps:         true,
		domain.TriggerDatabaseWrites:   true,
		domain.TriggerPaymentSteps:     true,
		domain.TriggerSensitiveSystems: true,
		domain.TriggerElevatedWorkflow: true,
	}
	knownOperations = map[domain.DatabaseOperation]bool{
		domain.OperationRead:  true,
		domain.OperationWrite: true,
		domain.OperationAdmin: true,
	}
)

// Load reads path and applies it over base.
func Load(path string, base domain.RuleSet) (domain.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RuleSet{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	rs, err := Parse(data, base)
	if err != nil {
		return domain.RuleSet{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes a YAML override and applies it over base. Unknown fields,
// enum values and invalid regular expressions are rejected.
func Parse(data []byte, base domain.RuleSet) (domain.RuleSet, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return domain.RuleSet{}, fmt.Errorf("%w: decode: %w", domain.ErrInvalidInput, err)
	}
	if err := f.Apply(&base); err != nil {
		return domain.RuleSet{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return base, nil
}

// Apply merges f into rs.
func (f *File) Apply(rs *domain.RuleSet) error {
	if f.PIIPatterns != nil {
		patterns := make([]domain.PIIPattern, 0, len(f.PIIPatterns))
		for _, p := range f.PIIPatterns {
			if p.Name == "" {
				return errors.New("pii pattern without a name")
			}
			if _, err := regexp.Compile(p.Pattern); err != nil {
				return fmt.Errorf("pii pattern %s: %w", p.Name, err)
			}
			patterns = append(patterns, domain.PIIPattern{Name: p.Name, Pattern: p.Pattern})
		}
		rs.PIIPatterns = patterns
	}

	if f.SensitiveKeywords != nil {
		cats := make([]domain.KeywordCategory, 0, len(f.SensitiveKeywords))
		for _, c := range f.SensitiveKeywords {
			if c.Name == "" {
				return errors.New("keyword category without a name")
			}
			cats = append(cats, domain.KeywordCategory{Name: c.Name, Keywords: c.Keywords})
		}
		rs.SensitiveKeywords = cats
	}

	if f.OperationTiers != nil {
		tiers := make([]domain.OperationTier, 0, len(f.OperationTiers))
		for _, t := range f.OperationTiers {
			op := domain.DatabaseOperation(t.Operation)
			if !knownOperations[op] {
				return fmt.Errorf("unknown database operation %q", t.Operation)
			}
			if t.Severity == nil {
				return fmt.Errorf("operation tier %s: %w", t.Operation, errMissingSeverity)
			}
			tiers = append(tiers, domain.OperationTier{Operation: op, Verbs: t.Verbs, Severity: *t.Severity})
		}
		rs.OperationTiers = tiers
	}

	if f.HighRiskSystems != nil {
		rs.HighRiskSystems = f.HighRiskSystems
	}
	if f.PaymentTerms != nil {
		rs.PaymentTerms = f.PaymentTerms
	}
	if f.FinancialTerms != nil {
		rs.FinancialTerms = f.FinancialTerms
	}

	if err := f.applyConcerns(rs); err != nil {
		return err
	}
	if err := f.applyApprovals(rs); err != nil {
		return err
	}

	if f.Recommendations != nil {
		recs := make([]domain.RecommendationRule, 0, len(f.Recommendations))
		for _, r := range f.Recommendations {
			trigger := domain.RecommendationTrigger(r.Trigger)
			if !knownTriggers[trigger] {
				return fmt.Errorf("unknown recommendation trigger %q", r.Trigger)
			}
			recs = append(recs, domain.RecommendationRule{Trigger: trigger, Recommendations: r.Recommendations})
		}
		rs.Recommendations = recs
	}

	f.applyScriptProfiles(rs)
	return nil
}

func (f *File) applyConcerns(rs *domain.RuleSet) error {
	if len(f.Concerns) == 0 {
		return nil
	}
	merged := make(map[domain.ConcernKind]domain.ConcernTemplate, len(rs.Concerns))
	for k, v := range rs.Concerns {
		merged[k] = v
	}
	for name, c := range f.Concerns {
		kind := domain.ConcernKind(name)
		if !knownConcerns[kind] {
			return fmt.Errorf("unknown concern kind %q", name)
		}
		tmpl, exists := merged[kind]
		switch {
		case c.Severity != nil:
			tmpl.Severity = *c.Severity
		case !exists:
			return fmt.Errorf("concern %s: %w", name, errMissingSeverity)
		}
		if c.Mitigation != "" {
			tmpl.Mitigation = c.Mitigation
		}
		if c.RequiredApprovals != nil {
			approvals, err := approvalTypes(c.RequiredApprovals)
			if err != nil {
				return fmt.Errorf("concern %s: %w", name, err)
			}
			tmpl.RequiredApprovals = approvals
		}
		merged[kind] = tmpl
	}
	rs.Concerns = merged
	return nil
}

func (f *File) applyApprovals(rs *domain.RuleSet) error {
	if len(f.Approvals) == 0 {
		return nil
	}
	merged := make(map[domain.ApprovalType]domain.ApprovalDefinition, len(rs.Approvals))
	for k, v := range rs.Approvals {
		merged[k] = v
	}
	for name, a := range f.Approvals {
		t := domain.ApprovalType(name)
		if !t.IsValid() {
			return fmt.Errorf("unknown approval type %q", name)
		}
		merged[t] = domain.ApprovalDefinition{
			ApproverRole:          a.ApproverRole,
			RequiredDocumentation: a.RequiredDocumentation,
			EstimatedTime:         a.EstimatedTime,
			Reason:                a.Reason,
		}
	}
	rs.Approvals = merged
	return nil
}

// applyScriptProfiles replaces profiles by key and appends new keys to the
// match order.
func (f *File) applyScriptProfiles(rs *domain.RuleSet) {
	if len(f.ScriptProfiles) == 0 {
		return
	}
	merged := make(map[string]domain.ScriptRiskProfile, len(rs.ScriptProfiles)+len(f.ScriptProfiles))
	for k, v := range rs.ScriptProfiles {
		merged[k] = v
	}
	order := append([]string(nil), rs.ScriptProfileOrder...)
	for _, p := range f.ScriptProfiles {
		if _, exists := merged[p.Key]; !exists {
			order = append(order, p.Key)
		}
		merged[p.Key] = domain.ScriptRiskProfile{
			Risks:               p.Risks,
			RequiredPermissions: p.RequiredPermissions,
			EnvironmentConcerns: p.EnvironmentConcerns,
			DataExposureRisks:   p.DataExposureRisks,
		}
	}
	rs.ScriptProfiles = merged
	rs.ScriptProfileOrder = order
}

func approvalTypes(names []string) ([]domain.ApprovalType, error) {
	out := make([]domain.ApprovalType, 0, len(names))
	for _, n := range names {
		t := domain.ApprovalType(n)
		if !t.IsValid() {
			return nil, fmt.Errorf("unknown approval type %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}
