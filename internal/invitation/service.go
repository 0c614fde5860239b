package invitation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/danmolina/clubs/internal/club"
	"github.com/danmolina/clubs/internal/messaging"
	"github.com/danmolina/clubs/internal/metrics"
	"github.com/danmolina/clubs/pkg/secret"
)

// Service issues and redeems invitation tokens for clubs.
type Service struct {
	repo     club.Repository
	bus      messaging.Bus
	tokenCfg TokenConfig
	sealer   *secret.Sealer
	metrics  metrics.Recorder
}

// NewService creates a new invitation service
func NewService(repo club.Repository, bus messaging.Bus, tokenCfg TokenConfig, sealer *secret.Sealer, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		repo:     repo,
		bus:      bus,
		tokenCfg: tokenCfg,
		sealer:   sealer,
		metrics:  recorder,
	}
}

// InviteContributor issues a signed invitation token for the club and
// publishes the invitation event for out-of-band delivery. Issuance is
// silently refused (nil, nil) unless the requestor administers the club, so
// club existence is not leaked to non-admins.
func (s *Service) InviteContributor(ctx context.Context, clubID, email string, requestor club.Contributor, contributorID string) (*Token, error) {
	target, err := s.repo.FindByID(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.IsAdmin(requestor.ID) {
		return nil, nil
	}

	token, err := CreateToken(s.tokenCfg, email, clubID, contributorID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvitationIssued()
	slog.Info("invitation issued", "club_id", clubID, "requestor", requestor.ID)

	if s.bus.Invitations != nil {
		event := messaging.ClubInvitationEvent{
			Email:               email,
			ContributorID:       contributorID,
			ClubID:              target.ID,
			ClubName:            target.Name,
			ClubType:            target.Type,
			ProjectID:           target.ProjectID,
			ProjectManagementID: target.ProjectManagementID,
			TokenValue:          token.TokenValue,
			RequestingContributor: messaging.ContributorRef{
				ID:    requestor.ID,
				Email: requestor.Email,
			},
		}
		if err := s.bus.Invitations.Publish(ctx, target.ID, event); err != nil {
			slog.Error("failed to publish invitation event", "club_id", target.ID, "error", err)
		}
	}
	return token, nil
}

// CheckInvitationToken verifies the token value and reconstructs the
// invitation. Any verification failure is ErrInvalidToken.
func (s *Service) CheckInvitationToken(tokenValue string) (*Token, error) {
	return DecodeToken(s.tokenCfg, tokenValue)
}

// AddMemberFromInvitationToken redeems a token: after verification and
// claim checks the requestor is admitted through the conditional atomic
// add. Redeeming while already an active member is an idempotent success.
func (s *Service) AddMemberFromInvitationToken(ctx context.Context, tokenValue, clubID string, requestor club.Contributor) (*club.Club, error) {
	token, err := s.CheckInvitationToken(tokenValue)
	if err != nil {
		return nil, err
	}
	if token.ClubID != clubID {
		return nil, fmt.Errorf("%w: club mismatch", ErrInvalidToken)
	}
	if token.ContributorID != "" && token.ContributorID != requestor.ID {
		return nil, fmt.Errorf("%w: contributor mismatch", ErrInvalidToken)
	}

	existing, err := s.repo.FindClubWhereActiveMember(ctx, clubID, requestor.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sealedEmail, err := s.sealer.Seal(token.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to seal invited email: %w", err)
	}
	member := club.Member{
		ContributorID: requestor.ID,
		Roles:         []string{},
		Data:          map[string]interface{}{"invited": true},
		PrivateData:   map[string]interface{}{"invitedEmail": sealedEmail},
		Status:        club.MemberStatusActive,
	}

	updated, err := s.repo.AddMemberToClub(ctx, clubID, member, requestor, true)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// The conditional add was a no-op: either the club vanished or a
		// concurrent redemption won. If the member is active now, treat it
		// as the idempotent success it is.
		winner, fetchErr := s.repo.FindClubWhereActiveMember(ctx, clubID, requestor.ID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if winner != nil {
			return winner, nil
		}
		return nil, fmt.Errorf("%w: member %s", club.ErrConflict, requestor.ID)
	}

	s.metrics.RecordMemberJoined(metrics.JoinSourceInvitation)
	if s.bus.MemberJoined != nil {
		event := messaging.ClubMemberJoinedEvent{
			ContributorID:       requestor.ID,
			ClubID:              updated.ID,
			ClubType:            updated.Type,
			ProjectID:           updated.ProjectID,
			ProjectManagementID: updated.ProjectManagementID,
			RequestingContributor: messaging.ContributorRef{
				ID:    requestor.ID,
				Email: requestor.Email,
			},
		}
		if err := s.bus.MemberJoined.Publish(ctx, updated.ID, event); err != nil {
			slog.Error("failed to publish member joined event", "club_id", updated.ID, "error", err)
		}
	}
	return updated, nil
}
