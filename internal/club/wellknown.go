package club

import (
	"encoding/json"
	"fmt"
	"time"
)

// Well-known club types provisioned from templates.
const (
	TypeContributors          = "contributors"
	TypeContributorCandidates = "contributor-candidates"
	TypeManagementMembers     = "management-members"
)

// Scope ties a club to exactly one of a project or a project-management
// context. Exactly one field must be set.
type Scope struct {
	ProjectID           string
	ProjectManagementID string
}

// IsValid reports whether exactly one scope identifier is set.
func (s Scope) IsValid() bool {
	return (s.ProjectID != "") != (s.ProjectManagementID != "")
}

func (s Scope) id() string {
	if s.ProjectID != "" {
		return s.ProjectID
	}
	return s.ProjectManagementID
}

// WellKnownClubTemplate describes a club materialized once per (scope, type).
type WellKnownClubTemplate struct {
	Type                    string `json:"type"`
	Open                    bool   `json:"open"`
	Public                  bool   `json:"public"`
	Social                  bool   `json:"social"`
	IsCreatorMember         bool   `json:"is_creator_member"`
	IsProjectClub           bool   `json:"is_project_club"`
	IsProjectManagementClub bool   `json:"is_project_management_club"`
}

// AppliesTo reports whether the template's required scope kind matches the
// given scope. Non-matching templates are skipped, not errored, so
// provisioning is safe to trigger from either creation event.
func (t WellKnownClubTemplate) AppliesTo(scope Scope) bool {
	if t.IsProjectClub && scope.ProjectID != "" {
		return true
	}
	if t.IsProjectManagementClub && scope.ProjectManagementID != "" {
		return true
	}
	return false
}

// DefaultTemplates returns the built-in well-known club templates.
func DefaultTemplates() []WellKnownClubTemplate {
	return []WellKnownClubTemplate{
		{
			Type:            TypeContributors,
			Open:            false,
			Public:          false,
			Social:          true,
			IsCreatorMember: true,
			IsProjectClub:   true,
		},
		{
			Type:          TypeContributorCandidates,
			Open:          true,
			Public:        true,
			Social:        false,
			IsProjectClub: true,
		},
		{
			Type:                    TypeManagementMembers,
			Open:                    false,
			Public:                  false,
			Social:                  true,
			IsCreatorMember:         true,
			IsProjectManagementClub: true,
		},
	}
}

// ParseTemplates decodes a JSON template list, used to override the
// built-in templates from configuration.
func ParseTemplates(raw string) ([]WellKnownClubTemplate, error) {
	var templates []WellKnownClubTemplate
	if err := json.Unmarshal([]byte(raw), &templates); err != nil {
		return nil, fmt.Errorf("failed to parse well-known club templates: %w", err)
	}
	for _, t := range templates {
		if t.Type == "" {
			return nil, fmt.Errorf("well-known club template without type")
		}
	}
	return templates, nil
}

// FromTemplate materializes a new, unpersisted club from a template for the
// given scope. The name follows the "{scope}+{type}" convention.
func FromTemplate(template WellKnownClubTemplate, scope Scope) *Club {
	return &Club{
		Name:                fmt.Sprintf("%s+%s", scope.id(), template.Type),
		Type:                template.Type,
		ProjectID:           scope.ProjectID,
		ProjectManagementID: scope.ProjectManagementID,
		Members:             make(map[string]*Member),
		Admins:              make(map[string]Contributor),
		Open:                template.Open,
		Public:              template.Public,
		Social:              template.Social,
		CreatedAt:           time.Now().UTC(),
	}
}
