package club

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/danmolina/clubs/internal/messaging"
)

// fakeRepository is an in-memory Repository used by service tests.
type fakeRepository struct {
	clubs       map[string]*Club
	nextID      int
	createCalls int
	saveCalls   int
	// conflictOnce makes the next Create fail with ErrConflict once,
	// simulating a lost provisioning race.
	conflictOnce bool
	// conflictWinner is installed into the store when the conflict fires,
	// playing the concurrent winner's row.
	conflictWinner *Club
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{clubs: make(map[string]*Club)}
}

func (f *fakeRepository) FindByID(_ context.Context, id string) (*Club, error) {
	if c, ok := f.clubs[id]; ok {
		return c, nil
	}
	return nil, nil
}

func (f *fakeRepository) FindUsingFilter(_ context.Context, filter ListFilter, _ *Contributor) ([]*Club, error) {
	var out []*Club
	for _, c := range f.clubs {
		if matchesFilter(c, filter) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepository) FindWellKnown(_ context.Context, clubType string, scope Scope) (*Club, error) {
	for _, c := range f.clubs {
		if c.Type == clubType && c.ProjectID == scope.ProjectID && c.ProjectManagementID == scope.ProjectManagementID {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) FindClubWhereActiveMember(_ context.Context, clubID, contributorID string) (*Club, error) {
	c, ok := f.clubs[clubID]
	if !ok {
		return nil, nil
	}
	if m, ok := c.Members[contributorID]; ok && m.Status == MemberStatusActive {
		return c, nil
	}
	return nil, nil
}

func (f *fakeRepository) Create(_ context.Context, c *Club) (*Club, error) {
	f.createCalls++
	if f.conflictOnce {
		f.conflictOnce = false
		if f.conflictWinner != nil {
			f.clubs[f.conflictWinner.ID] = f.conflictWinner
		}
		return nil, ErrConflict
	}
	f.nextID++
	c.ID = fmt.Sprintf("club-%d", f.nextID)
	f.clubs[c.ID] = c
	return c, nil
}

func (f *fakeRepository) Save(ctx context.Context, c *Club) (*Club, error) {
	if c.ID == "" {
		return f.Create(ctx, c)
	}
	f.saveCalls++
	if _, ok := f.clubs[c.ID]; !ok {
		return nil, ErrNotFound
	}
	f.clubs[c.ID] = c
	return c, nil
}

func (f *fakeRepository) AddMemberToClub(_ context.Context, clubID string, member Member, requestor Contributor, fromInvitation bool) (*Club, error) {
	c, ok := f.clubs[clubID]
	if !ok {
		return nil, nil
	}
	if _, exists := c.Members[member.ContributorID]; exists {
		return nil, nil
	}
	if !fromInvitation && !c.Open && !c.IsAdmin(requestor.ID) {
		return nil, nil
	}
	m := member
	c.Members[member.ContributorID] = &m
	return c, nil
}

func matchesFilter(c *Club, filter ListFilter) bool {
	if filter.Type != "" && c.Type != filter.Type {
		return false
	}
	if len(filter.ProjectID) > 0 && !containsString(filter.ProjectID, c.ProjectID) {
		return false
	}
	if len(filter.ProjectManagementID) > 0 && !containsString(filter.ProjectManagementID, c.ProjectManagementID) {
		return false
	}
	return true
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// capturingPublisher records every published event.
type capturingPublisher struct {
	events []interface{}
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, value interface{}) error {
	p.events = append(p.events, value)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func TestRegisterAllWellKnownClubsForProject(t *testing.T) {
	repo := newFakeRepository()
	pub := &capturingPublisher{}
	svc := NewService(repo, pub, DefaultTemplates(), nil)
	requestor := Contributor{ID: "u1", Email: "u1@example.com"}

	clubs, err := svc.RegisterAllWellKnownClubs(context.Background(), requestor, Scope{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the two project templates apply.
	if len(clubs) != 2 {
		t.Fatalf("got %d clubs, want 2", len(clubs))
	}

	byType := make(map[string]*Club)
	for _, c := range clubs {
		byType[c.Type] = c
	}

	contributors, ok := byType[TypeContributors]
	if !ok {
		t.Fatal("contributors club not provisioned")
	}
	if !contributors.IsAdmin("u1") {
		t.Error("requestor is not admin of contributors club")
	}
	member, ok := contributors.Members["u1"]
	if !ok {
		t.Fatal("creator member missing from contributors club")
	}
	if member.Status != MemberStatusActive || len(member.Roles) != 1 || member.Roles[0] != MemberRoleAdmin {
		t.Errorf("creator member = %+v", member)
	}

	candidates, ok := byType[TypeContributorCandidates]
	if !ok {
		t.Fatal("contributor-candidates club not provisioned")
	}
	if len(candidates.Members) != 0 {
		t.Errorf("candidates club has %d members, want 0", len(candidates.Members))
	}

	// One member-joined event for the creator member.
	if len(pub.events) != 1 {
		t.Fatalf("got %d events, want 1", len(pub.events))
	}
	event, ok := pub.events[0].(messaging.ClubMemberJoinedEvent)
	if !ok {
		t.Fatalf("event type = %T", pub.events[0])
	}
	if event.ContributorID != "u1" || event.ClubType != TypeContributors || event.ProjectID != "p1" {
		t.Errorf("event = %+v", event)
	}
}

func TestRegisterAllWellKnownClubsIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, DefaultTemplates(), nil)
	requestor := Contributor{ID: "u1"}
	scope := Scope{ProjectManagementID: "m1"}

	first, err := svc.RegisterAllWellKnownClubs(context.Background(), requestor, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("got %d clubs, want 1 management club", len(first))
	}
	createsAfterFirst := repo.createCalls

	second, err := svc.RegisterAllWellKnownClubs(context.Background(), Contributor{ID: "u2"}, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("got %d clubs, want 1", len(second))
	}
	if repo.createCalls != createsAfterFirst {
		t.Errorf("second call created %d new clubs, want 0", repo.createCalls-createsAfterFirst)
	}
	if second[0].ID != first[0].ID {
		t.Errorf("second call returned club %q, want existing %q", second[0].ID, first[0].ID)
	}
	// The second requestor must not have been granted admin.
	if second[0].IsAdmin("u2") {
		t.Error("second requestor became admin of an existing club")
	}
}

func TestRegisterAllWellKnownClubsLostRace(t *testing.T) {
	winner := FromTemplate(DefaultTemplates()[2], Scope{ProjectManagementID: "m1"})
	winner.ID = "winner"
	winner.Register(Contributor{ID: "other"}, true)

	repo := newFakeRepository()
	repo.conflictOnce = true
	repo.conflictWinner = winner

	svc := NewService(repo, nil, DefaultTemplates(), nil)
	clubs, err := svc.RegisterAllWellKnownClubs(context.Background(), Contributor{ID: "u1"}, Scope{ProjectManagementID: "m1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clubs) != 1 || clubs[0].ID != "winner" {
		t.Fatalf("got %+v, want the concurrent winner's club", clubs)
	}
}

func TestRegisterAllWellKnownClubsInvalidScope(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, DefaultTemplates(), nil)

	if _, err := svc.RegisterAllWellKnownClubs(context.Background(), Contributor{ID: "u1"}, Scope{}); err == nil {
		t.Error("expected error for empty scope")
	}
	if _, err := svc.RegisterAllWellKnownClubs(context.Background(), Contributor{ID: "u1"}, Scope{ProjectID: "p1", ProjectManagementID: "m1"}); err == nil {
		t.Error("expected error for double scope")
	}
}

func TestGetWellKnownClub(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, DefaultTemplates(), nil)
	requestor := Contributor{ID: "u1"}

	if _, err := svc.RegisterAllWellKnownClubs(context.Background(), requestor, Scope{ProjectID: "p1"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	got, err := svc.GetWellKnownClub(context.Background(), TypeContributors, Scope{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != TypeContributors || got.ProjectID != "p1" {
		t.Errorf("got %+v", got)
	}

	_, err = svc.GetWellKnownClub(context.Background(), TypeContributors, Scope{ProjectID: "absent"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindClubsHidesNonActiveMembers(t *testing.T) {
	repo := newFakeRepository()
	c := FromTemplate(DefaultTemplates()[0], Scope{ProjectID: "p1"})
	c.ID = "c1"
	c.Members["a"] = &Member{ContributorID: "a", Status: MemberStatusActive}
	c.Members["i"] = &Member{ContributorID: "i", Status: MemberStatusInactive}
	repo.clubs["c1"] = c

	svc := NewService(repo, nil, DefaultTemplates(), nil)
	clubs, err := svc.FindClubs(context.Background(), ListFilter{ProjectID: []string{"p1"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clubs) != 1 {
		t.Fatalf("got %d clubs, want 1", len(clubs))
	}
	if len(clubs[0].Members) != 1 {
		t.Errorf("got %d members, want only the active one", len(clubs[0].Members))
	}
}

func TestModifyWellKnownClub(t *testing.T) {
	repo := newFakeRepository()
	pub := &capturingPublisher{}
	svc := NewService(repo, pub, DefaultTemplates(), nil)
	admin := Contributor{ID: "admin"}

	if _, err := svc.RegisterAllWellKnownClubs(context.Background(), admin, Scope{ProjectID: "p1"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	pub.events = nil

	ops := []PatchOperation{
		{Op: "add", Path: "/members/-", Value: json.RawMessage(`{"contributor_id":"u2","roles":["contributor"]}`)},
	}
	saved, err := svc.ModifyWellKnownClub(context.Background(), admin, TypeContributors, Scope{ProjectID: "p1"}, ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := saved.Members["u2"]; !ok {
		t.Error("added member missing after save")
	}
	if len(pub.events) != 1 {
		t.Fatalf("got %d events, want 1", len(pub.events))
	}
	event := pub.events[0].(messaging.ClubMemberJoinedEvent)
	if event.ContributorID != "u2" || event.RequestingContributor.ID != "admin" {
		t.Errorf("event = %+v", event)
	}
}

func TestModifyWellKnownClubForbidden(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, DefaultTemplates(), nil)
	admin := Contributor{ID: "admin"}

	if _, err := svc.RegisterAllWellKnownClubs(context.Background(), admin, Scope{ProjectID: "p1"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	saveCalls := repo.saveCalls

	ops := []PatchOperation{
		{Op: "add", Path: "/members/-", Value: json.RawMessage(`{"contributor_id":"victim"}`)},
	}
	_, err := svc.ModifyWellKnownClub(context.Background(), Contributor{ID: "intruder"}, TypeContributors, Scope{ProjectID: "p1"}, ops)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if repo.saveCalls != saveCalls {
		t.Error("forbidden modification still reached Save")
	}
}

func TestModifyWellKnownClubUnsupportedOperation(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, DefaultTemplates(), nil)

	ops := []PatchOperation{{Op: "replace", Path: "/name"}}
	_, err := svc.ModifyWellKnownClub(context.Background(), Contributor{ID: "u1"}, TypeContributors, Scope{ProjectID: "p1"}, ops)
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("err = %v, want ErrUnsupportedOperation", err)
	}
}

func TestModifyWellKnownClubMaterializesFromTemplate(t *testing.T) {
	// Patching a well-known club that was never provisioned builds it from
	// its template and persists it in the same request.
	repo := newFakeRepository()
	svc := NewService(repo, nil, DefaultTemplates(), nil)
	requestor := Contributor{ID: "u1"}

	ops := []PatchOperation{{Op: "add", Path: "/members/-"}}
	saved, err := svc.ModifyWellKnownClub(context.Background(), requestor, TypeContributorCandidates, Scope{ProjectID: "p1"}, ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.ID == "" {
		t.Error("materialized club was not persisted")
	}
	if saved.Name != "p1+contributor-candidates" {
		t.Errorf("name = %q", saved.Name)
	}
	member, ok := saved.Members["u1"]
	if !ok {
		t.Fatal("self-join member missing")
	}
	// The candidates club is open, so the join is immediately active.
	if member.Status != MemberStatusActive {
		t.Errorf("status = %v, want ACTIVE", member.Status)
	}

	// An unknown type has no template to materialize from.
	_, err = svc.ModifyWellKnownClub(context.Background(), requestor, "nonexistent", Scope{ProjectID: "p1"}, ops)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
