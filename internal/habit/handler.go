// AngelaMos | 2026
// handler.go

package habit

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
	r.Route("/habits", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/order", h.Reorder)
		r.Get("/logs", h.Logs)
		r.Get("/score", h.Score)

		r.Route("/{habitID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/toggle", h.Toggle)
			r.Post("/skip", h.Skip)
			r.Get("/stats", h.Stats)
		})
	})
}

// decode reads and validates a JSON body, writing the 400 itself.
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

// habitID returns the path id. Malformed ids are reported as not found.
func habitID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "habitID")
	if uuid.Validate(id) != nil {
		core.NotFound(w, "habit")
		return "", false
	}
	return id, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var (
		habits []Habit
		err    error
	)
	if r.URL.Query().Get("all") == "true" {
		habits, err = h.service.ListAll(ctx, userID)
	} else {
		habits, err = h.service.ListActive(ctx, userID)
	}
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.OK(w, ToHabitResponses(habits))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateHabitRequest
	if !h.decode(w, r, &req) {
		return
	}

	habit, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.Created(w, CreatedResponse{ID: habit.ID})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	habit, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.OK(w, ToHabitResponse(habit))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	var req UpdateHabitRequest
	if !h.decode(w, r, &req) {
		return
	}

	habit, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.OK(w, ToHabitResponse(habit))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	var req ToggleRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.ToggleComplete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		id,
		req,
	)
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.OK(w, result)
}

func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	var req SkipRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Skip(
		r.Context(),
		middleware.GetUserID(r.Context()),
		id,
		req.Date,
	)
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.OK(w, result)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := habitID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.OK(w, stats)
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.Reorder(r.Context(), middleware.GetUserID(r.Context()), req.IDs); err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	habitFilter := q.Get("habit_id")
	if habitFilter != "" && uuid.Validate(habitFilter) != nil {
		core.NotFound(w, "habit")
		return
	}

	logs, err := h.service.LogsForDateRange(
		r.Context(),
		middleware.GetUserID(r.Context()),
		q.Get("from"),
		q.Get("to"),
		habitFilter,
	)
	if err != nil {
		core.HandleError(w, err, "habit")
		return
	}

	core.OK(w, ToLogResponses(logs))
}

func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	date, score, err := h.service.DailyScore(
		r.Context(),
		middleware.GetUserID(r.Context()),
		r.URL.Query().Get("date"),
	)
	if err != nil {
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, ScoreResponse{Date: date, Score: score})
}
