package club

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danmolina/clubs/internal/messaging"
	"github.com/danmolina/clubs/internal/metrics"
)

// Service handles club business logic: well-known club provisioning, the
// patch modification pipeline and filtered queries.
type Service struct {
	repo         Repository
	memberJoined messaging.Publisher
	templates    []WellKnownClubTemplate
	metrics      metrics.Recorder
}

// NewService creates a new club service
func NewService(repo Repository, memberJoined messaging.Publisher, templates []WellKnownClubTemplate, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		repo:         repo,
		memberJoined: memberJoined,
		templates:    templates,
		metrics:      recorder,
	}
}

// RegisterAllWellKnownClubs idempotently materializes every configured club
// template applicable to the scope. Existing clubs are returned unchanged;
// a concurrent duplicate create is resolved by re-fetching.
func (s *Service) RegisterAllWellKnownClubs(ctx context.Context, requestor Contributor, scope Scope) ([]*Club, error) {
	if !scope.IsValid() {
		return nil, fmt.Errorf("%w: scope must set exactly one of projectId or projectManagementId", ErrNotFound)
	}

	var clubs []*Club
	for _, template := range s.templates {
		if !template.AppliesTo(scope) {
			continue
		}

		existing, err := s.repo.FindWellKnown(ctx, template.Type, scope)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			clubs = append(clubs, existing)
			continue
		}

		created, err := s.registerWellKnownClub(ctx, template, scope, requestor)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, created)
	}
	return clubs, nil
}

func (s *Service) registerWellKnownClub(ctx context.Context, template WellKnownClubTemplate, scope Scope, requestor Contributor) (*Club, error) {
	newClub := FromTemplate(template, scope)
	newClub.Register(requestor, template.IsCreatorMember)

	created, err := s.repo.Create(ctx, newClub)
	if err != nil {
		// Lost the provisioning race: the uniqueness constraint on
		// (scope, type) means the club exists now, so re-fetch.
		if errors.Is(err, ErrConflict) {
			existing, fetchErr := s.repo.FindWellKnown(ctx, template.Type, scope)
			if fetchErr != nil {
				return nil, fetchErr
			}
			if existing == nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, err
	}

	s.metrics.RecordClubProvisioned(template.Type)
	slog.Info("well-known club provisioned", "club_id", created.ID, "type", created.Type)

	if template.IsCreatorMember {
		s.publishMemberJoined(ctx, created, requestor.ID, requestor, metrics.JoinSourceProvision)
	}
	return created, nil
}

// GetWellKnownClub retrieves a single well-known club by type and scope.
// Existence is not hidden: well-known club identities are predictable from
// the scope, and the response shaping filters members and admins anyway.
func (s *Service) GetWellKnownClub(ctx context.Context, clubType string, scope Scope) (*Club, error) {
	found, err := s.repo.FindWellKnown(ctx, clubType, scope)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: type %s", ErrNotFound, clubType)
	}
	return found, nil
}

// FindClubs retrieves all clubs matching the filter that are visible to the
// requestor. Non-active members are stripped from the results.
func (s *Service) FindClubs(ctx context.Context, filter ListFilter, requestor *Contributor) ([]*Club, error) {
	clubs, err := s.repo.FindUsingFilter(ctx, filter, requestor)
	if err != nil {
		return nil, err
	}
	for _, c := range clubs {
		c.HideNonActiveMembers()
	}
	return clubs, nil
}

// ModifyWellKnownClub maps the patch operations to typed modifications and
// folds them over the club before a single save. When the well-known club
// has not been materialized yet it is built from its template first.
// Member-joined events for added members are published after the save.
func (s *Service) ModifyWellKnownClub(ctx context.Context, requestor Contributor, clubType string, scope Scope, ops []PatchOperation) (*Club, error) {
	mods, err := MapModifications(ops, requestor)
	if err != nil {
		return nil, err
	}

	target, err := s.repo.FindWellKnown(ctx, clubType, scope)
	if err != nil {
		return nil, err
	}
	if target == nil {
		template, ok := s.template(clubType)
		if !ok || !template.AppliesTo(scope) {
			return nil, fmt.Errorf("%w: type %s", ErrNotFound, clubType)
		}
		target = FromTemplate(template, scope)
	}

	for _, mod := range mods {
		if err := mod.Apply(requestor, target); err != nil {
			return nil, err
		}
	}

	saved, err := s.repo.Save(ctx, target)
	if err != nil {
		return nil, err
	}

	for _, mod := range mods {
		if mod.Kind == ModificationAddMember {
			s.publishMemberJoined(ctx, saved, mod.Member.ContributorID, requestor, metrics.JoinSourcePatch)
		}
	}
	return saved, nil
}

func (s *Service) template(clubType string) (WellKnownClubTemplate, bool) {
	for _, t := range s.templates {
		if t.Type == clubType {
			return t, true
		}
	}
	return WellKnownClubTemplate{}, false
}

func (s *Service) publishMemberJoined(ctx context.Context, c *Club, contributorID string, requestor Contributor, source string) {
	s.metrics.RecordMemberJoined(source)
	if s.memberJoined == nil {
		return
	}
	event := messaging.ClubMemberJoinedEvent{
		ContributorID:       contributorID,
		ClubID:              c.ID,
		ClubType:            c.Type,
		ProjectID:           c.ProjectID,
		ProjectManagementID: c.ProjectManagementID,
		RequestingContributor: messaging.ContributorRef{
			ID:    requestor.ID,
			Email: requestor.Email,
		},
	}
	if err := s.memberJoined.Publish(ctx, c.ID, event); err != nil {
		slog.Error("failed to publish member joined event",
			"club_id", c.ID, "contributor_id", contributorID, "error", err)
	}
}
