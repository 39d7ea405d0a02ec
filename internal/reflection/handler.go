// AngelaMos | 2026
// handler.go

package reflection

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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
	r.Route("/reflections", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Submit)

		r.Get("/weekly", h.ListWeeklyReviews)
		r.Post("/weekly", h.SubmitWeeklyReview)
	})
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

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitReflectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	ref, err := h.service.Submit(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "reflection")
		return
	}

	core.Created(w, ToReflectionResponse(ref))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	refs, err := h.service.List(
		r.Context(),
		middleware.GetUserID(r.Context()),
		q.Get("from"),
		q.Get("to"),
	)
	if err != nil {
		core.HandleError(w, err, "reflection")
		return
	}

	core.OK(w, ToReflectionResponses(refs))
}

func (h *Handler) SubmitWeeklyReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitWeeklyReviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	review, err := h.service.SubmitWeeklyReview(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "weekly review")
		return
	}

	core.Created(w, ToWeeklyReviewResponse(review))
}

func (h *Handler) ListWeeklyReviews(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reviews, err := h.service.ListWeeklyReviews(
		r.Context(),
		middleware.GetUserID(r.Context()),
		limit,
	)
	if err != nil {
		core.HandleError(w, err, "weekly review")
		return
	}

	core.OK(w, ToWeeklyReviewResponses(reviews))
}
