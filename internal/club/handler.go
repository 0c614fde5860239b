package club

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danmolina/clubs/pkg/middleware"
	"github.com/danmolina/clubs/pkg/response"
)

// Handler handles HTTP requests for club operations
type Handler struct {
	service *Service
}

// NewHandler creates a new club handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for club endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Search)

	// Well-known clubs, scoped to a project or a project management
	r.Route("/well-known", func(r chi.Router) {
		r.Post("/project/{projectId}", h.RegisterForProject)
		r.Post("/project-management/{projectManagementId}", h.RegisterForProjectManagement)
		r.Get("/project/{projectId}/{type}", h.GetForProject)
		r.Get("/project-management/{projectManagementId}/{type}", h.GetForProjectManagement)
		r.Patch("/project/{projectId}/{type}", h.PatchForProject)
		r.Patch("/project-management/{projectManagementId}/{type}", h.PatchForProjectManagement)
	})

	return r
}

// Search handles GET /clubs
// @Summary      Search clubs
// @Description  List clubs matching the filter that are visible to the requestor
// @Tags         clubs
// @Produce      json
// @Param        projectId query string false "Project ID"
// @Param        projectManagementId query string false "Project Management ID"
// @Param        type query string false "Club type"
// @Param        memberContributorId query string false "Member contributor ID"
// @Param        adminId query string false "Admin contributor ID"
// @Success      200 {object} response.APIResponse{data=[]ClubResponse}
// @Router       /clubs [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	requestor := requestingContributor(r)

	query := r.URL.Query()
	filter := ListFilter{Type: query.Get("type")}
	if v := query.Get("projectId"); v != "" {
		filter.ProjectID = []string{v}
	}
	if v := query.Get("projectManagementId"); v != "" {
		filter.ProjectManagementID = []string{v}
	}
	if v := query.Get("memberContributorId"); v != "" {
		filter.MemberContributorID = []string{v}
	}
	if v := query.Get("adminId"); v != "" {
		filter.AdminID = []string{v}
	}

	clubs, err := h.service.FindClubs(r.Context(), filter, requestor)
	if err != nil {
		response.InternalError(w, "Failed to search clubs")
		return
	}

	results := make([]*ClubResponse, 0, len(clubs))
	for _, c := range clubs {
		results = append(results, c.ToResponse(requestor))
	}
	response.JSON(w, http.StatusOK, results)
}

// RegisterForProject handles POST /clubs/well-known/project/{projectId}
// @Summary      Register well-known clubs for a project
// @Description  Idempotently provision all configured well-known clubs for the project
// @Tags         clubs
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Success      200 {object} response.APIResponse{data=[]ClubResponse}
// @Failure      401 {object} response.APIResponse
// @Router       /clubs/well-known/project/{projectId} [post]
func (h *Handler) RegisterForProject(w http.ResponseWriter, r *http.Request) {
	h.registerAll(w, r, Scope{ProjectID: chi.URLParam(r, "projectId")})
}

// RegisterForProjectManagement handles POST /clubs/well-known/project-management/{projectManagementId}
// @Summary      Register well-known clubs for a project management
// @Tags         clubs
// @Produce      json
// @Param        projectManagementId path string true "Project Management ID"
// @Success      200 {object} response.APIResponse{data=[]ClubResponse}
// @Failure      401 {object} response.APIResponse
// @Router       /clubs/well-known/project-management/{projectManagementId} [post]
func (h *Handler) RegisterForProjectManagement(w http.ResponseWriter, r *http.Request) {
	h.registerAll(w, r, Scope{ProjectManagementID: chi.URLParam(r, "projectManagementId")})
}

func (h *Handler) registerAll(w http.ResponseWriter, r *http.Request, scope Scope) {
	contributor, ok := middleware.GetContributor(r.Context())
	if !ok {
		response.Unauthorized(w, "Contributor identity required")
		return
	}

	clubs, err := h.service.RegisterAllWellKnownClubs(r.Context(), Contributor{ID: contributor.ID, Email: contributor.Email}, scope)
	if err != nil {
		h.writeError(w, err, "Failed to register well-known clubs")
		return
	}

	requestor := &Contributor{ID: contributor.ID, Email: contributor.Email}
	results := make([]*ClubResponse, 0, len(clubs))
	for _, c := range clubs {
		results = append(results, c.ToResponse(requestor))
	}
	response.JSON(w, http.StatusOK, results)
}

// GetForProject handles GET /clubs/well-known/project/{projectId}/{type}
// @Summary      Get a well-known club
// @Tags         clubs
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Param        type path string true "Club type"
// @Success      200 {object} response.APIResponse{data=ClubResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /clubs/well-known/project/{projectId}/{type} [get]
func (h *Handler) GetForProject(w http.ResponseWriter, r *http.Request) {
	h.getWellKnown(w, r, Scope{ProjectID: chi.URLParam(r, "projectId")})
}

// GetForProjectManagement handles GET /clubs/well-known/project-management/{projectManagementId}/{type}
// @Summary      Get a well-known club for a project management
// @Tags         clubs
// @Produce      json
// @Param        projectManagementId path string true "Project Management ID"
// @Param        type path string true "Club type"
// @Success      200 {object} response.APIResponse{data=ClubResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /clubs/well-known/project-management/{projectManagementId}/{type} [get]
func (h *Handler) GetForProjectManagement(w http.ResponseWriter, r *http.Request) {
	h.getWellKnown(w, r, Scope{ProjectManagementID: chi.URLParam(r, "projectManagementId")})
}

func (h *Handler) getWellKnown(w http.ResponseWriter, r *http.Request, scope Scope) {
	requestor := requestingContributor(r)
	clubType := chi.URLParam(r, "type")

	found, err := h.service.GetWellKnownClub(r.Context(), clubType, scope)
	if err != nil {
		h.writeError(w, err, "Failed to get well-known club")
		return
	}
	response.JSON(w, http.StatusOK, found.ToResponse(requestor))
}

// PatchForProject handles PATCH /clubs/well-known/project/{projectId}/{type}
// @Summary      Modify a well-known club
// @Description  Apply add/remove member operations to a well-known club
// @Tags         clubs
// @Accept       json
// @Produce      json
// @Param        projectId path string true "Project ID"
// @Param        type path string true "Club type"
// @Param        request body []PatchOperation true "Patch operations"
// @Success      200 {object} response.APIResponse{data=ClubResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /clubs/well-known/project/{projectId}/{type} [patch]
func (h *Handler) PatchForProject(w http.ResponseWriter, r *http.Request) {
	h.patchWellKnown(w, r, Scope{ProjectID: chi.URLParam(r, "projectId")})
}

// PatchForProjectManagement handles PATCH /clubs/well-known/project-management/{projectManagementId}/{type}
// @Summary      Modify a well-known club for a project management
// @Tags         clubs
// @Accept       json
// @Produce      json
// @Param        projectManagementId path string true "Project Management ID"
// @Param        type path string true "Club type"
// @Param        request body []PatchOperation true "Patch operations"
// @Success      200 {object} response.APIResponse{data=ClubResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Router       /clubs/well-known/project-management/{projectManagementId}/{type} [patch]
func (h *Handler) PatchForProjectManagement(w http.ResponseWriter, r *http.Request) {
	h.patchWellKnown(w, r, Scope{ProjectManagementID: chi.URLParam(r, "projectManagementId")})
}

func (h *Handler) patchWellKnown(w http.ResponseWriter, r *http.Request, scope Scope) {
	contributor, ok := middleware.GetContributor(r.Context())
	if !ok {
		response.Unauthorized(w, "Contributor identity required")
		return
	}

	var ops []PatchOperation
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		response.BadRequest(w, "Invalid patch body")
		return
	}

	requestor := Contributor{ID: contributor.ID, Email: contributor.Email}
	updated, err := h.service.ModifyWellKnownClub(r.Context(), requestor, chi.URLParam(r, "type"), scope, ops)
	if err != nil {
		h.writeError(w, err, "Failed to modify club")
		return
	}
	response.JSON(w, http.StatusOK, updated.ToResponse(&requestor))
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrUnsupportedOperation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrConflict):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

func requestingContributor(r *http.Request) *Contributor {
	contributor, ok := middleware.GetContributor(r.Context())
	if !ok {
		return nil
	}
	return &Contributor{ID: contributor.ID, Email: contributor.Email}
}
