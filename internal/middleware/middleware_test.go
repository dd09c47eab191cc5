package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workflow/internal/model"
	"workflow/internal/session"
	"workflow/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

const testCookie = "workflow_session"

func claimsFor(role string) *session.Claims {
	return &session.Claims{UserID: uuid.NewString(), Role: role, Email: "someone@workflow.local", Name: "Someone"}
}

func TestDecide(t *testing.T) {
	admin := claimsFor(model.RoleAdmin)
	viewer := claimsFor(model.RoleViewer)

	tests := []struct {
		name     string
		path     string
		query    string
		claims   *session.Claims
		redirect string
	}{
		{"anonymous login page", "/login", "", nil, ""},
		{"anonymous health", "/health", "", nil, ""},
		{"anonymous internal api", "/api/internal/verify-credentials", "", nil, ""},
		{"anonymous swagger", "/swagger/index.html", "", nil, ""},
		{"anonymous favicon", "/favicon.ico", "", nil, ""},
		{"anonymous materials", "/materials", "", nil, "/login?callbackUrl=%2Fmaterials"},
		{"anonymous keeps query", "/requests/new", "fiberFt=120", nil, "/login?callbackUrl=%2Frequests%2Fnew%3FfiberFt%3D120"},
		{"anonymous home", "/", "", nil, "/login?callbackUrl=%2F"},
		{"signed in on login", "/login", "", viewer, "/"},
		{"viewer on admin", "/admin/users", "", viewer, "/"},
		{"viewer on admin root", "/admin", "", viewer, "/"},
		{"admin on admin", "/admin/audit-logs", "", admin, ""},
		{"viewer on materials", "/materials", "", viewer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.path, tt.query, tt.claims)
			if got.Redirect != tt.redirect {
				t.Errorf("Decide(%q, %q) redirect = %q, want %q", tt.path, tt.query, got.Redirect, tt.redirect)
			}
			if got.Pass() != (tt.redirect == "") {
				t.Errorf("Pass() = %v with redirect %q", got.Pass(), got.Redirect)
			}
		})
	}
}

func newGuardedRouter(sessions *session.Manager) *gin.Engine {
	r := testutil.SetupRouter()
	r.Use(Guard(sessions, testCookie))
	ok := func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserRole))
	}
	r.GET("/materials", ok)
	r.GET("/admin/users", ok)
	r.GET("/login", ok)
	r.GET("/health", ok)
	r.POST("/materials", RequireCapability(model.CapEditMaterials), ok)
	return r
}

func issue(t *testing.T, sessions *session.Manager, role string) string {
	t.Helper()
	token, _, err := sessions.Issue(session.Identity{UserID: uuid.NewString(), Role: role, Email: "x@workflow.local", Name: "X"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return token
}

func TestGuard(t *testing.T) {
	sessions := session.NewManager("guard-secret", time.Hour)
	r := newGuardedRouter(sessions)
	adminToken := issue(t, sessions, model.RoleAdmin)
	viewerToken := issue(t, sessions, model.RoleViewer)
	foreign := issue(t, session.NewManager("other-secret", time.Hour), model.RoleAdmin)

	tests := []struct {
		name     string
		path     string
		token    string
		cookie   bool
		status   int
		location string
	}{
		{"anonymous protected", "/materials", "", false, http.StatusFound, "/login?callbackUrl=%2Fmaterials"},
		{"anonymous public", "/health", "", false, http.StatusOK, ""},
		{"bearer session", "/materials", viewerToken, false, http.StatusOK, ""},
		{"cookie session", "/materials", viewerToken, true, http.StatusOK, ""},
		{"token from another secret", "/materials", foreign, false, http.StatusFound, "/login?callbackUrl=%2Fmaterials"},
		{"viewer on admin", "/admin/users", viewerToken, true, http.StatusFound, "/"},
		{"admin on admin", "/admin/users", adminToken, true, http.StatusOK, ""},
		{"signed in on login", "/login", adminToken, true, http.StatusFound, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				if tt.cookie {
					req.AddCookie(&http.Cookie{Name: testCookie, Value: tt.token})
				} else {
					req.Header.Set("Authorization", "Bearer "+tt.token)
				}
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestRequireCapability(t *testing.T) {
	sessions := session.NewManager("cap-secret", time.Hour)
	r := newGuardedRouter(sessions)

	tests := []struct {
		role   string
		status int
	}{
		{model.RoleViewer, http.StatusForbidden},
		{model.RoleOperator, http.StatusOK},
		{model.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			w := testutil.DoRequest(r, http.MethodPost, "/materials", nil, issue(t, sessions, tt.role))
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusForbidden {
				if msg := testutil.ParseResponse(w)["error"]; msg != "Access denied." {
					t.Errorf("error = %v, want generic access denied", msg)
				}
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: "test", CleanUpInterval: time.Minute})
	limit, err := RateLimit(store, "2-M", zap.NewNop())
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}

	r := testutil.SetupRouter()
	r.POST("/login", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		w := testutil.DoRequest(r, http.MethodPost, "/login", nil, "")
		if w.Code != want {
			t.Errorf("attempt %d status = %d, want %d", i+1, w.Code, want)
		}
	}

	if _, err := RateLimit(store, "ten per minute", zap.NewNop()); err == nil {
		t.Error("RateLimit() accepted a malformed rate")
	}
}

func TestRequestID(t *testing.T) {
	r := testutil.SetupRouter()
	r.Use(RequestID())
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("echoed request id = %q, want req-123", got)
	}

	w = testutil.DoRequest(r, http.MethodGet, "/health", nil, "")
	if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("generated request id %q is not a uuid", w.Header().Get(RequestIDHeader))
	}
}
