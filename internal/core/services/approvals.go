package services

import "github.com/KKaradi/syfhack10year/internal/core/domain"

// ResolveApprovals maps concerns to approval requirements.
//
// Approval types are unioned in first-requested order and expanded through
// the approval table. Severity HIGH or above adds a security review and
// CRITICAL adds a manager approval when no concern requested them.
func (c *Classifier) ResolveApprovals(
	concerns []domain.SecurityConcern, severity domain.Severity,
) []domain.ApprovalRequirement {
	seen := make(map[domain.ApprovalType]bool)
	var order []domain.ApprovalType
	for i := range concerns {
		for _, t := range concerns[i].RequiredApprovals {
			if !seen[t] {
				seen[t] = true
				order = append(order, t)
			}
		}
	}

	if severity.AtLeast(domain.SeverityHigh) && !seen[domain.ApprovalSecurityReview] {
		seen[domain.ApprovalSecurityReview] = true
		order = append(order, domain.ApprovalSecurityReview)
	}
	if severity.AtLeast(domain.SeverityCritical) && !seen[domain.ApprovalManager] {
		seen[domain.ApprovalManager] = true
		order = append(order, domain.ApprovalManager)
	}

	approvals := make([]domain.ApprovalRequirement, 0, len(order))
	for _, t := range order {
		def, ok := c.rules.Approvals[t]
		if !ok {
			continue
		}
		approvals = append(approvals, def.Requirement(t))
	}
	return approvals
}
