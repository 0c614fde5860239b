package club

import (
	"testing"
	"time"
)

func newTestClub(open, public, social bool) *Club {
	return &Club{
		ID:        "c1",
		Name:      "p1+contributors",
		Type:      TypeContributors,
		ProjectID: "p1",
		Members:   make(map[string]*Member),
		Admins:    make(map[string]Contributor),
		Open:      open,
		Public:    public,
		Social:    social,
		CreatedAt: time.Now(),
	}
}

func TestIsVisibleTo(t *testing.T) {
	tests := []struct {
		name      string
		public    bool
		social    bool
		member    *Member
		admin     bool
		requestor *Contributor
		want      bool
	}{
		{
			name:      "public club visible to anonymous",
			public:    true,
			requestor: nil,
			want:      true,
		},
		{
			name:      "private club hidden from anonymous",
			requestor: nil,
			want:      false,
		},
		{
			name:      "social club visible to active member",
			social:    true,
			member:    &Member{ContributorID: "u1", Status: MemberStatusActive},
			requestor: &Contributor{ID: "u1"},
			want:      true,
		},
		{
			name:      "social club hidden from inactive member",
			social:    true,
			member:    &Member{ContributorID: "u1", Status: MemberStatusInactive},
			requestor: &Contributor{ID: "u1"},
			want:      false,
		},
		{
			name:      "social club hidden from pending member",
			social:    true,
			member:    &Member{ContributorID: "u1", Status: MemberStatusPending},
			requestor: &Contributor{ID: "u1"},
			want:      false,
		},
		{
			name:      "non-social club hidden from active member",
			member:    &Member{ContributorID: "u1", Status: MemberStatusActive},
			requestor: &Contributor{ID: "u1"},
			want:      false,
		},
		{
			name:      "admin always sees the club",
			admin:     true,
			requestor: &Contributor{ID: "a1"},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClub(false, tt.public, tt.social)
			if tt.member != nil {
				c.Members[tt.member.ContributorID] = tt.member
			}
			if tt.admin {
				c.Admins["a1"] = Contributor{ID: "a1"}
			}
			if got := c.IsVisibleTo(tt.requestor); got != tt.want {
				t.Errorf("IsVisibleTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveAdmins(t *testing.T) {
	// Closed social club with one active member and two admins.
	c := newTestClub(false, false, true)
	c.Admins["a1"] = Contributor{ID: "a1"}
	c.Admins["a2"] = Contributor{ID: "a2"}
	c.Members["m1"] = &Member{ContributorID: "m1", Status: MemberStatusActive}

	// An outsider sees no admins at all.
	if got := c.ResolveAdmins(&Contributor{ID: "stranger"}); len(got) != 0 {
		t.Errorf("outsider sees %d admins, want 0", len(got))
	}

	// An admin outsider to visibility still sees itself.
	cNoSocial := newTestClub(false, false, false)
	cNoSocial.Admins["a1"] = Contributor{ID: "a1"}
	if got := cNoSocial.ResolveAdmins(&Contributor{ID: "a1"}); len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("admin sees %v, want itself only", got)
	}

	// An active member of the social club sees the full admin list.
	if got := c.ResolveAdmins(&Contributor{ID: "m1"}); len(got) != 2 {
		t.Errorf("member sees %d admins, want 2", len(got))
	}

	// Anonymous sees nothing.
	if got := c.ResolveAdmins(nil); len(got) != 0 {
		t.Errorf("anonymous sees %d admins, want 0", len(got))
	}
}

func TestMemberVisibilityScenario(t *testing.T) {
	// Club {open:false, public:false, social:true} with one ACTIVE member.
	c := newTestClub(false, false, true)
	c.Admins["a1"] = Contributor{ID: "a1"}
	c.Members["m1"] = &Member{ContributorID: "m1", Status: MemberStatusActive}

	outsider := &Contributor{ID: "stranger"}
	resp := c.ToResponse(outsider)
	if len(resp.Members) != 0 {
		t.Errorf("outsider sees %d members, want 0", len(resp.Members))
	}
	if len(resp.Admins) != 0 {
		t.Errorf("outsider sees %d admins, want 0", len(resp.Admins))
	}

	member := &Contributor{ID: "m1"}
	resp = c.ToResponse(member)
	if len(resp.Members) != 1 {
		t.Errorf("member sees %d members, want 1", len(resp.Members))
	}
	if len(resp.Admins) != 1 {
		t.Errorf("member sees %d admins, want 1", len(resp.Admins))
	}
}

func TestCanAddMember(t *testing.T) {
	tests := []struct {
		name     string
		open     bool
		existing *Member
		admin    bool
		want     bool
	}{
		{name: "open club, absent member", open: true, want: true},
		{name: "closed club, absent member", open: false, want: false},
		{name: "open club, tombstoned member", open: true, existing: &Member{ContributorID: "u1", Status: MemberStatusInactive}, want: true},
		{name: "open club, active member", open: true, existing: &Member{ContributorID: "u1", Status: MemberStatusActive}, want: false},
		{name: "open club, admin candidate", open: true, admin: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClub(tt.open, false, false)
			if tt.existing != nil {
				c.Members[tt.existing.ContributorID] = tt.existing
			}
			if tt.admin {
				c.Admins["u1"] = Contributor{ID: "u1"}
			}
			if got := c.CanAddMember(Member{ContributorID: "u1"}); got != tt.want {
				t.Errorf("CanAddMember() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanRemoveMember(t *testing.T) {
	tests := []struct {
		name     string
		open     bool
		existing *Member
		admin    bool
		want     bool
	}{
		{name: "open club, active member", open: true, existing: &Member{ContributorID: "u1", Status: MemberStatusActive}, want: true},
		{name: "closed club, active member", open: false, existing: &Member{ContributorID: "u1", Status: MemberStatusActive}, want: false},
		{name: "open club, absent member", open: true, want: false},
		{name: "open club, inactive member", open: true, existing: &Member{ContributorID: "u1", Status: MemberStatusInactive}, want: false},
		{name: "open club, admin member", open: true, existing: &Member{ContributorID: "u1", Status: MemberStatusActive}, admin: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClub(tt.open, false, false)
			if tt.existing != nil {
				c.Members[tt.existing.ContributorID] = tt.existing
			}
			if tt.admin {
				c.Admins["u1"] = Contributor{ID: "u1"}
			}
			if got := c.CanRemoveMember(Member{ContributorID: "u1"}); got != tt.want {
				t.Errorf("CanRemoveMember() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddMemberMergesExistingData(t *testing.T) {
	c := newTestClub(false, false, false)
	c.Members["u1"] = &Member{
		ContributorID: "u1",
		Roles:         []string{MemberRoleContributor},
		Data:          map[string]interface{}{"invited": true, "keep": "old"},
		PrivateData:   map[string]interface{}{"invitedEmail": "sealed"},
		Status:        MemberStatusPending,
	}

	c.AddMember(Member{
		ContributorID: "u1",
		Roles:         []string{MemberRoleAdmin},
		Data:          map[string]interface{}{"keep": "new"},
		Status:        MemberStatusActive,
	})

	got := c.Members["u1"]
	if len(got.Roles) != 1 || got.Roles[0] != MemberRoleAdmin {
		t.Errorf("roles = %v, want incoming roles to win", got.Roles)
	}
	if got.Data["invited"] != true {
		t.Errorf("data lost previously granted key: %v", got.Data)
	}
	if got.Data["keep"] != "new" {
		t.Errorf("data merge did not favor new value: %v", got.Data)
	}
	if got.PrivateData["invitedEmail"] != "sealed" {
		t.Errorf("private data lost on merge: %v", got.PrivateData)
	}
	if got.Status != MemberStatusActive {
		t.Errorf("status = %v, want ACTIVE", got.Status)
	}
}

func TestAddMemberForcesActiveWhenOpen(t *testing.T) {
	c := newTestClub(true, false, false)
	c.AddMember(Member{ContributorID: "u1", Status: MemberStatusPending})
	if got := c.Members["u1"].Status; got != MemberStatusActive {
		t.Errorf("status = %v, want ACTIVE for open club", got)
	}

	closed := newTestClub(false, false, false)
	closed.AddMember(Member{ContributorID: "u1", Status: MemberStatusPending})
	if got := closed.Members["u1"].Status; got != MemberStatusPending {
		t.Errorf("status = %v, want incoming status for closed club", got)
	}
}

func TestRemoveMemberTombstones(t *testing.T) {
	c := newTestClub(true, false, false)
	c.Members["u1"] = &Member{ContributorID: "u1", Status: MemberStatusActive}

	c.RemoveMember(Member{ContributorID: "u1"})

	got, ok := c.Members["u1"]
	if !ok {
		t.Fatal("member record was physically deleted")
	}
	if got.Status != MemberStatusInactive {
		t.Errorf("status = %v, want INACTIVE", got.Status)
	}

	// Removing an absent member is a no-op.
	c.RemoveMember(Member{ContributorID: "ghost"})
}

func TestRegister(t *testing.T) {
	c := newTestClub(false, false, true)
	c.Register(Contributor{ID: "u1"}, true)

	if !c.IsAdmin("u1") {
		t.Error("creator was not added as admin")
	}
	member, ok := c.Members["u1"]
	if !ok {
		t.Fatal("creator member record missing")
	}
	if member.Status != MemberStatusActive {
		t.Errorf("creator member status = %v, want ACTIVE", member.Status)
	}
	if len(member.Roles) != 1 || member.Roles[0] != MemberRoleAdmin {
		t.Errorf("creator member roles = %v, want [admin]", member.Roles)
	}
	if member.Data["creator"] != true {
		t.Errorf("creator marker missing: %v", member.Data)
	}

	// Without the creator-member flag only the admins set changes.
	c2 := newTestClub(false, false, true)
	c2.Register(Contributor{ID: "u2"}, false)
	if !c2.IsAdmin("u2") {
		t.Error("registrant was not added as admin")
	}
	if len(c2.Members) != 0 {
		t.Errorf("registrant got %d member records, want 0", len(c2.Members))
	}
}

func TestHideNonActiveMembers(t *testing.T) {
	c := newTestClub(false, false, false)
	c.Members["a"] = &Member{ContributorID: "a", Status: MemberStatusActive}
	c.Members["i"] = &Member{ContributorID: "i", Status: MemberStatusInactive}
	c.Members["p"] = &Member{ContributorID: "p", Status: MemberStatusPending}

	c.HideNonActiveMembers()

	if len(c.Members) != 1 {
		t.Fatalf("got %d members, want 1", len(c.Members))
	}
	if _, ok := c.Members["a"]; !ok {
		t.Error("active member was stripped")
	}
}
