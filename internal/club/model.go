package club

import "time"

// MemberStatus represents the participation state of a club member
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "ACTIVE"
	MemberStatusInactive MemberStatus = "INACTIVE"
	MemberStatusPending  MemberStatus = "PENDING"
)

// Role tags attached to member records. Descriptive only: authority comes
// from the club's admins set, never from these tags.
const (
	MemberRoleAdmin       = "admin"
	MemberRoleContributor = "contributor"
)

// Contributor identifies a requesting or referenced identity
type Contributor struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Member represents a contributor's participation record within a club.
// Identity is the contributor: two records with the same ContributorID are
// the same member regardless of roles, data or status.
type Member struct {
	ContributorID string                 `json:"contributor_id"`
	Roles         []string               `json:"roles,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	PrivateData   map[string]interface{} `json:"-"`
	Status        MemberStatus           `json:"status"`
}

// Club is the aggregate root grouping contributors for a project or a
// project-management context. Members are keyed by contributor ID so that
// updates are plain map upserts.
type Club struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	Description         string                 `json:"description,omitempty"`
	Type                string                 `json:"type"`
	ProjectID           string                 `json:"project_id,omitempty"`
	ProjectManagementID string                 `json:"project_management_id,omitempty"`
	Members             map[string]*Member     `json:"members,omitempty"`
	Admins              map[string]Contributor `json:"admins,omitempty"`
	Open                bool                   `json:"open"`
	Public              bool                   `json:"public"`
	Social              bool                   `json:"social"`
	CreatedAt           time.Time              `json:"created_at"`
}

// IsAdmin reports whether the contributor is in the club's admins set.
func (c *Club) IsAdmin(contributorID string) bool {
	if contributorID == "" {
		return false
	}
	_, ok := c.Admins[contributorID]
	return ok
}

// IsVisibleTo reports whether the requesting contributor can see the full
// club: it is public, or it is social and the requestor is an active member,
// or the requestor is an admin.
func (c *Club) IsVisibleTo(requestor *Contributor) bool {
	if c.Public {
		return true
	}
	if requestor == nil {
		return false
	}
	if c.Social {
		if m, ok := c.Members[requestor.ID]; ok && m.Status == MemberStatusActive {
			return true
		}
	}
	return c.IsAdmin(requestor.ID)
}

// ResolveAdmins returns the full admins set when the club is visible to the
// requestor, otherwise only the requestor's own entry. This prevents admin
// enumeration by outsiders.
func (c *Club) ResolveAdmins(requestor *Contributor) []Contributor {
	if c.IsVisibleTo(requestor) {
		admins := make([]Contributor, 0, len(c.Admins))
		for _, a := range c.Admins {
			admins = append(admins, a)
		}
		return admins
	}
	if requestor != nil {
		if a, ok := c.Admins[requestor.ID]; ok {
			return []Contributor{a}
		}
	}
	return []Contributor{}
}

// CanAddMember reports whether the member is eligible to join: the club is
// open, the member is absent or tombstoned, and the member is not an admin.
func (c *Club) CanAddMember(member Member) bool {
	if !c.Open || c.IsAdmin(member.ContributorID) {
		return false
	}
	existing, ok := c.Members[member.ContributorID]
	return !ok || existing.Status == MemberStatusInactive
}

// CanRemoveMember reports whether the member is eligible to leave: the club
// is open, the member is present and active, and the member is not an admin.
func (c *Club) CanRemoveMember(member Member) bool {
	if !c.Open || c.IsAdmin(member.ContributorID) {
		return false
	}
	existing, ok := c.Members[member.ContributorID]
	return ok && existing.Status == MemberStatusActive
}

// AddMember upserts a member by contributor ID. An existing record keeps
// its accumulated data: incoming roles win, public/private data maps are
// unioned with new values taking precedence. Status is forced to ACTIVE for
// open clubs, otherwise the incoming status is taken as-is.
func (c *Club) AddMember(member Member) {
	if c.Members == nil {
		c.Members = make(map[string]*Member)
	}
	updated := member
	if existing, ok := c.Members[member.ContributorID]; ok {
		updated.Data = mergeData(existing.Data, member.Data)
		updated.PrivateData = mergeData(existing.PrivateData, member.PrivateData)
	}
	if c.Open {
		updated.Status = MemberStatusActive
	}
	c.Members[member.ContributorID] = &updated
}

// RemoveMember tombstones the member record by setting its status to
// INACTIVE. Records are never physically erased.
func (c *Club) RemoveMember(member Member) {
	if existing, ok := c.Members[member.ContributorID]; ok {
		existing.Status = MemberStatusInactive
	}
}

// Register sets up a newly created club: the requestor becomes an admin,
// and when isCreatorMember is set it also gets an active member record
// tagged as the creator.
func (c *Club) Register(requestor Contributor, isCreatorMember bool) {
	if c.Admins == nil {
		c.Admins = make(map[string]Contributor)
	}
	c.Admins[requestor.ID] = requestor
	if isCreatorMember {
		if c.Members == nil {
			c.Members = make(map[string]*Member)
		}
		c.Members[requestor.ID] = &Member{
			ContributorID: requestor.ID,
			Roles:         []string{MemberRoleAdmin},
			Data:          map[string]interface{}{"creator": true},
			Status:        MemberStatusActive,
		}
	}
}

// HideNonActiveMembers strips INACTIVE and PENDING members before the club
// is returned from list reads.
func (c *Club) HideNonActiveMembers() {
	for id, m := range c.Members {
		if m.Status != MemberStatusActive {
			delete(c.Members, id)
		}
	}
}

// ActiveMemberCount returns the number of ACTIVE members.
func (c *Club) ActiveMemberCount() int {
	count := 0
	for _, m := range c.Members {
		if m.Status == MemberStatusActive {
			count++
		}
	}
	return count
}

func mergeData(existing, incoming map[string]interface{}) map[string]interface{} {
	if existing == nil && incoming == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}
