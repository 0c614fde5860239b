package invitation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/danmolina/clubs/internal/club"
	"github.com/danmolina/clubs/pkg/middleware"
	"github.com/danmolina/clubs/pkg/response"
)

// InviteRequest represents the request to invite a contributor to a club
type InviteRequest struct {
	Email         string `json:"email"`
	ContributorID string `json:"contributor_id,omitempty"`
}

// InviteResponse represents an issued invitation
type InviteResponse struct {
	Email         string `json:"email"`
	ClubID        string `json:"club_id"`
	ContributorID string `json:"contributor_id,omitempty"`
	ExpiresAt     string `json:"expires_at"`
}

// RedeemRequest represents the request to redeem an invitation token
type RedeemRequest struct {
	Token string `json:"token"`
}

// Handler handles HTTP requests for invitation operations
type Handler struct {
	service *Service
}

// NewHandler creates a new invitation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for invitation endpoints, mounted under
// /clubs/{clubId}/invitations
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Invite)
	r.Post("/redeem", h.Redeem)

	return r
}

// Invite handles POST /clubs/{clubId}/invitations
// @Summary      Invite a contributor to a club
// @Description  Issue a signed invitation token; only club admins may invite
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        clubId path string true "Club ID"
// @Param        request body InviteRequest true "Invitation request"
// @Success      201 {object} response.APIResponse{data=InviteResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /clubs/{clubId}/invitations [post]
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	contributor, ok := middleware.GetContributor(r.Context())
	if !ok {
		response.Unauthorized(w, "Contributor identity required")
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		response.BadRequest(w, "Invalid invitation body")
		return
	}

	clubID := chi.URLParam(r, "clubId")
	requestor := club.Contributor{ID: contributor.ID, Email: contributor.Email}
	token, err := h.service.InviteContributor(r.Context(), clubID, req.Email, requestor, req.ContributorID)
	if err != nil {
		response.InternalError(w, "Failed to issue invitation")
		return
	}
	if token == nil {
		// Issuance was silently refused: the club is absent or the
		// requestor does not administer it. Do not reveal which.
		response.NotFound(w, "Club not found")
		return
	}

	response.JSON(w, http.StatusCreated, &InviteResponse{
		Email:         token.Email,
		ClubID:        token.ClubID,
		ContributorID: token.ContributorID,
		ExpiresAt:     token.ExpirationInstant.Format(time.RFC3339),
	})
}

// Redeem handles POST /clubs/{clubId}/invitations/redeem
// @Summary      Redeem an invitation token
// @Description  Join the club using a signed invitation token; redeeming while already a member is an idempotent success
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        clubId path string true "Club ID"
// @Param        request body RedeemRequest true "Redeem request"
// @Success      200 {object} response.APIResponse{data=club.ClubResponse}
// @Failure      401 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /clubs/{clubId}/invitations/redeem [post]
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	contributor, ok := middleware.GetContributor(r.Context())
	if !ok {
		response.Unauthorized(w, "Contributor identity required")
		return
	}

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		response.BadRequest(w, "Invalid redeem body")
		return
	}

	clubID := chi.URLParam(r, "clubId")
	requestor := club.Contributor{ID: contributor.ID, Email: contributor.Email}
	joined, err := h.service.AddMemberFromInvitationToken(r.Context(), req.Token, clubID, requestor)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			response.Unauthorized(w, "Invalid invitation token")
		case errors.Is(err, club.ErrConflict):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to redeem invitation")
		}
		return
	}

	response.JSON(w, http.StatusOK, joined.ToResponse(&requestor))
}
