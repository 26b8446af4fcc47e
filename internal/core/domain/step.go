package domain

import "strings"

// AutomationStep is one step of a generated workflow.
// Only StepID, StepName and Description are mandatory; classification
// reads the projection returned by View.
type AutomationStep struct {
	StepID             string   `json:"step_id" validate:"required"`
	StepName           string   `json:"step_name" validate:"required"`
	Description        string   `json:"description" validate:"required"`
	Tool               string   `json:"tool"`
	Databases          []string `json:"databases" validate:"dive,required"`
	CompanyResources   []string `json:"company_resources" validate:"dive,required"`
	AccessRequirements []string `json:"access_requirements"`
	AutomationDetails  string   `json:"automation_details"`
	StartingPoints     []string `json:"starting_points"`
	NextStep           *string  `json:"next_step,omitempty"`
	EstimatedDuration  *string  `json:"estimated_duration,omitempty"`
	Dependencies       []string `json:"dependencies"`
}

// StepView is the read-only projection of a step used by the classifier.
type StepView struct {
	Description string
	Details     string
	Tool        string
	Databases   []string
	Resources   []string
}

// View returns the classifier projection of the step.
func (s *AutomationStep) View() StepView {
	return StepView{
		Description: s.Description,
		Details:     s.AutomationDetails,
		Tool:        s.Tool,
		Databases:   s.Databases,
		Resources:   s.CompanyResources,
	}
}

// AnalysisText joins description, details, database names and resource names.
func (v StepView) AnalysisText() string {
	return strings.Join([]string{
		v.Description,
		v.Details,
		strings.Join(v.Databases, " "),
		strings.Join(v.Resources, " "),
	}, " ")
}

// ActionText joins description and details, lowercased.
func (v StepView) ActionText() string {
	return strings.ToLower(v.Description + " " + v.Details)
}

// SystemText joins description, details and resource names, lowercased.
func (v StepView) SystemText() string {
	return strings.ToLower(v.Description + " " + v.Details + " " + strings.Join(v.Resources, " "))
}

// ToolText joins description, details and tool name, lowercased.
func (v StepView) ToolText() string {
	return strings.ToLower(v.Description + " " + v.Details + " " + v.Tool)
}
