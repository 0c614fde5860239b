package club

import (
	"sort"
	"time"
)

// PatchRequest represents a patch-style modification request: an ordered
// list of generic operations.
type PatchRequest struct {
	Operations []PatchOperation
}

// ClubResponse represents the response for a club. Member and admin lists
// are already filtered per the visibility rules.
type ClubResponse struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Description         string                `json:"description,omitempty"`
	Type                string                `json:"type"`
	ProjectID           string                `json:"project_id,omitempty"`
	ProjectManagementID string                `json:"project_management_id,omitempty"`
	Open                bool                  `json:"open"`
	Public              bool                  `json:"public"`
	Social              bool                  `json:"social"`
	CreatedAt           string                `json:"created_at"`
	Members             []*MemberResponse     `json:"members"`
	Admins              []ContributorResponse `json:"admins"`
}

// MemberResponse represents a member in a club response. Private data is
// never serialized.
type MemberResponse struct {
	ContributorID string                 `json:"contributor_id"`
	Roles         []string               `json:"roles,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	Status        MemberStatus           `json:"status"`
}

// ContributorResponse represents an admin reference in a club response
type ContributorResponse struct {
	ID string `json:"id"`
}

// ToResponse converts a Club to a ClubResponse for the given requestor,
// applying the visibility rules: the member list is exposed only when the
// club is visible to the requestor, and admins are resolved accordingly.
func (c *Club) ToResponse(requestor *Contributor) *ClubResponse {
	resp := &ClubResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Description:         c.Description,
		Type:                c.Type,
		ProjectID:           c.ProjectID,
		ProjectManagementID: c.ProjectManagementID,
		Open:                c.Open,
		Public:              c.Public,
		Social:              c.Social,
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
		Members:             []*MemberResponse{},
		Admins:              []ContributorResponse{},
	}

	if c.IsVisibleTo(requestor) {
		for _, m := range c.Members {
			resp.Members = append(resp.Members, &MemberResponse{
				ContributorID: m.ContributorID,
				Roles:         m.Roles,
				Data:          m.Data,
				Status:        m.Status,
			})
		}
		sort.Slice(resp.Members, func(i, j int) bool {
			return resp.Members[i].ContributorID < resp.Members[j].ContributorID
		})
	}

	for _, admin := range c.ResolveAdmins(requestor) {
		resp.Admins = append(resp.Admins, ContributorResponse{ID: admin.ID})
	}
	sort.Slice(resp.Admins, func(i, j int) bool {
		return resp.Admins[i].ID < resp.Admins[j].ID
	})

	return resp
}
