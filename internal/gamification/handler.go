// AngelaMos | 2026
// handler.go

package gamification

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/gamification", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Get("/history", h.History)
		r.Post("/daily-login", h.DailyLogin)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "profile")
		return
	}

	core.OK(w, ToProfileResponse(profile))
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	page, pageSize := PageBounds(queryInt(r, "page", 1), queryInt(r, "page_size", 20))

	entries, total, err := h.service.History(
		r.Context(),
		middleware.GetUserID(r.Context()),
		page,
		pageSize,
	)
	if err != nil {
		core.HandleError(w, err, "history")
		return
	}

	core.Paginated(w, ToXPEntryResponses(entries), page, pageSize, total)
}

func (h *Handler) DailyLogin(w http.ResponseWriter, r *http.Request) {
	profile, granted, err := h.service.ClaimDailyLogin(
		r.Context(),
		middleware.GetUserID(r.Context()),
	)
	if err != nil {
		core.HandleError(w, err, "profile")
		return
	}

	xp := 0
	if granted {
		xp = XPDailyLogin
	}

	core.OK(w, DailyLoginResponse{
		Granted: granted,
		XP:      xp,
		Profile: ToProfileResponse(profile),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
