// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("3 migrations pending") }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     []Check
		draining   bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all healthy",
			checks:     []Check{{Name: "database", Checker: CheckerFunc(ok)}, {Name: "redis", Checker: CheckerFunc(ok)}},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "pending migrations",
			checks:     []Check{{Name: "database", Checker: CheckerFunc(ok)}, {Name: "migrations", Checker: CheckerFunc(failing)}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
		},
		{
			name:       "unconfigured checker",
			checks:     []Check{{Name: "redis"}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
		},
		{
			name:       "draining",
			checks:     []Check{{Name: "database", Checker: CheckerFunc(ok)}},
			draining:   true,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "shutting_down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.checks...)
			h.SetDraining(tt.draining)

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body ReadinessResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Fatalf("status field = %s, want %s", body.Status, tt.wantBody)
			}
			for _, c := range body.Checks {
				if !c.Healthy && c.Message == "" {
					t.Fatalf("check %s unhealthy without message", c.Name)
				}
			}
		})
	}
}
