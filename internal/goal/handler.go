// AngelaMos | 2026
// handler.go

package goal

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/goals", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{goalID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)

			r.Post("/milestones", h.AddMilestone)
			r.Post("/milestones/{milestoneID}/complete", h.CompleteMilestone)
			r.Post("/milestones/{milestoneID}/reopen", h.ReopenMilestone)
			r.Delete("/milestones/{milestoneID}", h.DeleteMilestone)
		})
	})
}

// pathIDs returns the goal id and, when present, the milestone id.
// Malformed ids are reported as not found.
func pathIDs(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	goalID := chi.URLParam(r, "goalID")
	if uuid.Validate(goalID) != nil {
		core.NotFound(w, "goal")
		return "", "", false
	}

	milestoneID := chi.URLParam(r, "milestoneID")
	if milestoneID != "" && uuid.Validate(milestoneID) != nil {
		core.NotFound(w, "milestone")
		return "", "", false
	}

	return goalID, milestoneID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}
	return true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.List(
		r.Context(),
		middleware.GetUserID(r.Context()),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		core.HandleError(w, err, "goal")
		return
	}

	core.OK(w, ToGoalResponses(goals))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if !h.decode(w, r, &req) {
		return
	}

	g, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "goal")
		return
	}

	core.Created(w, ToGoalResponse(g))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	goalID, _, ok := pathIDs(w, r)
	if !ok {
		return
	}

	g, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), goalID)
	if err != nil {
		core.HandleError(w, err, "goal")
		return
	}

	core.OK(w, ToGoalResponse(g))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	goalID, _, ok := pathIDs(w, r)
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if !h.decode(w, r, &req) {
		return
	}

	g, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), goalID, req)
	if err != nil {
		core.HandleError(w, err, "goal")
		return
	}

	core.OK(w, ToGoalResponse(g))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	goalID, _, ok := pathIDs(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), goalID); err != nil {
		core.HandleError(w, err, "goal")
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	goalID, _, ok := pathIDs(w, r)
	if !ok {
		return
	}

	var req AddMilestoneRequest
	if !h.decode(w, r, &req) {
		return
	}

	g, err := h.service.AddMilestone(
		r.Context(),
		middleware.GetUserID(r.Context()),
		goalID,
		req.Title,
	)
	if err != nil {
		core.HandleError(w, err, "goal")
		return
	}

	core.Created(w, ToGoalResponse(g))
}

func (h *Handler) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	goalID, milestoneID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	g, earned, err := h.service.CompleteMilestone(
		r.Context(),
		middleware.GetUserID(r.Context()),
		goalID,
		milestoneID,
	)
	if err != nil {
		core.HandleError(w, err, "milestone")
		return
	}

	core.OK(w, MilestoneResult{Goal: ToGoalResponse(g), XPEarned: earned})
}

func (h *Handler) ReopenMilestone(w http.ResponseWriter, r *http.Request) {
	goalID, milestoneID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	g, err := h.service.ReopenMilestone(
		r.Context(),
		middleware.GetUserID(r.Context()),
		goalID,
		milestoneID,
	)
	if err != nil {
		core.HandleError(w, err, "milestone")
		return
	}

	core.OK(w, ToGoalResponse(g))
}

func (h *Handler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	goalID, milestoneID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	g, err := h.service.DeleteMilestone(
		r.Context(),
		middleware.GetUserID(r.Context()),
		goalID,
		milestoneID,
	)
	if err != nil {
		core.HandleError(w, err, "milestone")
		return
	}

	core.OK(w, ToGoalResponse(g))
}
