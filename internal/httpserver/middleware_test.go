package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/internal/auth"
	"stocksim/internal/store"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(store.NewMemory(), "stocksim-test", []byte("test-secret"), time.Hour, decimal.Zero)
}

func loginToken(t *testing.T, svc *auth.Service) string {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "dave", "pw", "pw"); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login(ctx, "dave", "pw")
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestWithAuth(t *testing.T) {
	svc := newAuthService(t)
	token := loginToken(t, svc)

	var sawUser, sawSession bool
	h := WithAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawUser = UserID(r)
		_, sawSession = SessionID(r)
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/portfolio", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
	if !sawUser || !sawSession {
		t.Fatal("user or session missing from request context on valid token")
	}
}

func TestWithAuthRejectsLoggedOutSession(t *testing.T) {
	svc := newAuthService(t)
	token := loginToken(t, svc)

	_, sessionID, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(context.Background(), sessionID); err != nil {
		t.Fatal(err)
	}

	h := WithAuth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/portfolio", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 after logout", rec.Code)
	}
}
