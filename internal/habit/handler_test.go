// AngelaMos | 2026
// handler_test.go

package habit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/habit-ledger/internal/middleware"
	"github.com/carterperez-dev/habit-ledger/internal/user"
)

const routeHabitID = "0b7e7e8e-5a1f-4c1e-9a57-7d1cf3c0f001"

// asUser stands in for the Authenticator.
func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{
				UserID: userID,
				Role:   user.RoleUser,
				Plan:   user.PlanFree,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(f *fixture, userID string) http.Handler {
	r := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(r, asUser(userID))
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (body %q)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHandlerToggle(t *testing.T) {
	f := newFixture(nil)
	f.seedHabit(routeHabitID, userA, 0)
	h := newTestRouter(f, userA)

	rec, env := do(t, h, http.MethodPost, "/habits/"+routeHabitID+"/toggle", `{"date":"2025-01-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var res ToggleResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if res.Action != ActionCompleted || res.XPChange != 10 || res.Streak == nil || *res.Streak != 1 {
		t.Fatalf("toggle = %+v, want completed/10/1", res)
	}

	_, env = do(t, h, http.MethodPost, "/habits/"+routeHabitID+"/toggle", `{"date":"2025-01-01"}`)
	if strings.Contains(string(env.Data), "streak") {
		t.Fatalf("uncomplete body %s, want no streak field", env.Data)
	}
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(nil)
	f.repo.addOwner(Owner{ID: userA, Plan: user.PlanFree, Timezone: "UTC"})
	f.seedHabit(routeHabitID, userB, 0)
	for i := range 5 {
		f.seedHabit("full-"+string(rune('a'+i)), userA, 0)
	}
	h := newTestRouter(f, userA)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed id", http.MethodPost, "/habits/not-a-uuid/toggle", `{"date":"2025-01-01"}`, 404, "NOT_FOUND"},
		{"foreign habit", http.MethodPost, "/habits/" + routeHabitID + "/toggle", `{"date":"2025-01-01"}`, 404, "NOT_FOUND"},
		{"bad date", http.MethodPost, "/habits/" + routeHabitID + "/skip", `{"date":"01-01-2025"}`, 400, "VALIDATION_ERROR"},
		{"bad body", http.MethodPost, "/habits", `{`, 400, "VALIDATION_ERROR"},
		{"quota", http.MethodPost, "/habits", `{"title":"Run","frequency":"daily"}`, 403, "QUOTA_EXCEEDED"},
		{"range reversed", http.MethodGet, "/habits/logs?from=2025-02-01&to=2025-01-01", "", 400, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestHandlerQuotaMessage(t *testing.T) {
	f := newFixture(nil)
	f.repo.addOwner(Owner{ID: userA, Plan: user.PlanFree, Timezone: "UTC"})
	for i := range 5 {
		f.seedHabit("full-"+string(rune('a'+i)), userA, 0)
	}

	_, env := do(t, newTestRouter(f, userA), http.MethodPost, "/habits",
		`{"title":"Run","frequency":"daily"}`)

	want := "habit limit reached: free plan allows 5 active habits"
	if env.Error == nil || env.Error.Message != want {
		t.Fatalf("error = %+v, want message %q", env.Error, want)
	}
}

func TestHandlerCreateAndList(t *testing.T) {
	f := newFixture(nil)
	f.repo.addOwner(Owner{ID: userA, Plan: user.PlanFree, Timezone: "UTC"})
	h := newTestRouter(f, userA)

	rec, env := do(t, h, http.MethodPost, "/habits",
		`{"title":"Journal","frequency":"custom","custom_days":[1,3],"time_of_day":"evening"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var created CreatedResponse
	if err := json.Unmarshal(env.Data, &created); err != nil || created.ID == "" {
		t.Fatalf("created = %+v, %v, want an id", created, err)
	}

	_, env = do(t, h, http.MethodGet, "/habits", "")
	var list []HabitResponse
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID || list[0].TimeOfDay != TimeEvening {
		t.Fatalf("list = %+v, want the created habit", list)
	}

	rec, _ = do(t, h, http.MethodDelete, "/habits/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
}
