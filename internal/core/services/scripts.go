package services

import (
	"strings"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
)

// ScriptRisks returns the risk profile of the starter script at scriptPath.
// The first profile key contained in the lowercased path wins.
func (c *Classifier) ScriptRisks(scriptPath string) domain.ScriptRiskProfile {
	profile := domain.ScriptRiskProfile{
		ScriptPath:          scriptPath,
		Risks:               []string{},
		RequiredPermissions: []string{},
		EnvironmentConcerns: []string{},
		DataExposureRisks:   []string{},
	}

	lower := strings.ToLower(scriptPath)
	for _, key := range c.rules.ScriptProfileOrder {
		if !strings.Contains(lower, strings.ToLower(key)) {
			continue
		}
		p, ok := c.rules.ScriptProfiles[key]
		if !ok {
			continue
		}
		profile.Risks = append(profile.Risks, p.Risks...)
		profile.RequiredPermissions = append(profile.RequiredPermissions, p.RequiredPermissions...)
		profile.EnvironmentConcerns = append(profile.EnvironmentConcerns, p.EnvironmentConcerns...)
		profile.DataExposureRisks = append(profile.DataExposureRisks, p.DataExposureRisks...)
		break
	}
	return profile
}
