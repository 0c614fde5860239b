package messaging

// ContributorRef carries the acting identity on events for downstream
// authorization context.
type ContributorRef struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// ClubInvitationEvent is published when an invitation token is issued; the
// token value is delivered out-of-band by an external consumer.
type ClubInvitationEvent struct {
	Email                 string         `json:"email"`
	ContributorID         string         `json:"contributor_id,omitempty"`
	ClubID                string         `json:"club_id"`
	ClubName              string         `json:"club_name"`
	ClubType              string         `json:"club_type"`
	ProjectID             string         `json:"project_id,omitempty"`
	ProjectManagementID   string         `json:"project_management_id,omitempty"`
	TokenValue            string         `json:"token_value"`
	RequestingContributor ContributorRef `json:"requesting_contributor"`
}

// ClubMemberJoinedEvent is published after a member becomes ACTIVE in a club.
type ClubMemberJoinedEvent struct {
	ContributorID         string         `json:"contributor_id"`
	ClubID                string         `json:"club_id"`
	ClubType              string         `json:"club_type"`
	ProjectID             string         `json:"project_id,omitempty"`
	ProjectManagementID   string         `json:"project_management_id,omitempty"`
	RequestingContributor ContributorRef `json:"requesting_contributor"`
}

// ProjectCreatedEvent triggers well-known club provisioning for a project.
type ProjectCreatedEvent struct {
	ProjectID          string         `json:"project_id"`
	CreatorContributor ContributorRef `json:"creator_contributor"`
}

// ProjectManagementCreatedEvent triggers provisioning for a
// project-management context.
type ProjectManagementCreatedEvent struct {
	ProjectManagementID string         `json:"project_management_id"`
	CreatorContributor  ContributorRef `json:"creator_contributor"`
}
