package controller

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	loginIP string
	err     error
}

func (s *stubAuth) Register(_ context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.RegisterResponse{Id: uuid.New(), Email: req.Email, TrialEndDate: time.Now().Add(7 * 24 * time.Hour)}, nil
}

func (s *stubAuth) VerifyEmail(context.Context, *dto.VerifyEmailRequest) error { return s.err }

func (s *stubAuth) ResendVerification(context.Context, *dto.ResendVerificationRequest) error {
	return s.err
}

func (s *stubAuth) Login(_ context.Context, req *dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	s.loginIP = ip
	if s.err != nil {
		return nil, s.err
	}
	return &dto.LoginResponse{AccessToken: "jwt", TokenType: "Bearer", ExpiresIn: 3600}, nil
}

func (s *stubAuth) ForgotPassword(context.Context, *dto.ForgotPasswordRequest) error { return s.err }

func (s *stubAuth) ResetPassword(context.Context, *dto.ResetPasswordRequest) error { return s.err }

func TestRegisterEndpoint(t *testing.T) {
	app := newTestApp(NewAuthController(&stubAuth{}, 0).RegisterRoutes)

	status, body := do(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": "Ada Cook", "email": "ada@example.com", "password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)

	status, body = do(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": "Ada Cook", "email": "not-an-email", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "email must be a valid email")
	assert.Contains(t, body.Message, "password must be at least 8")
}

func TestResetPasswordEndpoint_ConfirmMismatch(t *testing.T) {
	app := newTestApp(NewAuthController(&stubAuth{}, 0).RegisterRoutes)

	status, _ := do(t, app, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"token": "abc", "new_password": "brand-new-pass", "confirm_password": "different-pass",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginEndpoint(t *testing.T) {
	auth := &stubAuth{}
	app := newTestApp(NewAuthController(auth, 0).RegisterRoutes)

	status, body := do(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"token_type":"Bearer"`)
	assert.NotEmpty(t, auth.loginIP)

	auth.err = apperror.RateLimited("too many login attempts, please try again later")
	status, body = do(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body.Error)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	app := newTestApp(NewAuthController(&stubAuth{}, 2).RegisterRoutes)
	body := map[string]string{"email": "ada@example.com"}

	for i := 0; i < 2; i++ {
		status, _ := do(t, app, http.MethodPost, "/api/auth/forgot-password", "", body)
		assert.Equal(t, http.StatusOK, status)
	}
	status, _ := do(t, app, http.MethodPost, "/api/auth/forgot-password", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
}
