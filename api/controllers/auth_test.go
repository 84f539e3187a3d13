package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/internal/auth"
	"github.com/angelmondragon/backoffice-backend/internal/users"
	"github.com/angelmondragon/backoffice-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/backoffice-backend/pkg/errors"
)

type stubAuthService struct {
	login     *auth.LoginRequest
	loggedOut string
	meID      uuid.UUID
	err       error
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	s.login = &req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900}, nil
}

func (s *stubAuthService) Refresh(_ context.Context, _ auth.RefreshRequest) (*auth.TokenResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func (s *stubAuthService) Me(_ context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	s.meID = userID
	return &users.UserDTO{ID: userID}, s.err
}

func TestAuthLogin(t *testing.T) {
	t.Run("invalid payload", func(t *testing.T) {
		stub := &stubAuthService{}
		rec := httptest.NewRecorder()
		AuthLogin(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"not-an-email"}`)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if stub.login != nil {
			t.Fatal("service should not be called")
		}
		env := decodeError(t, rec)
		if len(env.Details) != 2 || env.Details[0] != "email: must be a valid email" || env.Details[1] != "password: is required" {
			t.Fatalf("unexpected details %v", env.Details)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		stub := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
		rec := httptest.NewRecorder()
		AuthLogin(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.com","password":"x"}`)))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if env := decodeError(t, rec); env.Error != "invalid credentials" {
			t.Fatalf("unexpected message %q", env.Error)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubAuthService{}
		rec := httptest.NewRecorder()
		AuthLogin(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.com","password":"x"}`)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"access_token":"access"`) {
			t.Fatalf("unexpected body %s", rec.Body.String())
		}
	})
}

func TestAuthRefreshRequiresBothTokens(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthRefresh(&stubAuthService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"r"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	AuthRefresh(&stubAuthService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"access_token":"a","refresh_token":"r"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthLogoutAndMeUseContextIdentity(t *testing.T) {
	stub := &stubAuthService{}
	actor := actorWithRole(enums.UserRoleManager)

	rec := httptest.NewRecorder()
	AuthLogout(stub, testLogger()).ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), actor, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.loggedOut != "session-1" {
		t.Fatalf("expected session-1 revoked, got %q", stub.loggedOut)
	}

	rec = httptest.NewRecorder()
	AuthMe(stub, testLogger()).ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), actor, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.meID != actor.UserID {
		t.Fatalf("expected %s, got %s", actor.UserID, stub.meID)
	}
}
