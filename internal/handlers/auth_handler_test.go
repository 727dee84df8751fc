package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/config"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/handlers"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/models"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/routes"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/security"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/services"
)

type mailSink struct {
	mu   sync.Mutex
	sent []string
}

func (m *mailSink) SendMail(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	signer *security.TokenSigner
	auth   *services.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Profile{}, &models.PendingUser{},
		&models.OtpVerification{}, &models.OAuthAccount{},
	))

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		SessionExpiry:  time.Hour,
		TicketExpiry:   10 * time.Minute,
		OTPLength:      6,
		OTPExpiry:      10 * time.Minute,
		GoogleClientID: "test-client-id",
	}
	signer := security.NewTokenSigner(cfg.JWTSecret, cfg.SessionExpiry, cfg.TicketExpiry)

	authService := services.NewAuthService(db, cfg, signer, &mailSink{})
	oauthService := services.NewOAuthService(db, signer, cfg.GoogleClientID)
	userService := services.NewUserService(db)

	app := fiber.New()
	routes.Setup(app, cfg,
		handlers.NewAuthHandler(authService, oauthService, signer, cfg),
		handlers.NewUserHandler(userService),
		handlers.NewHealthHandler(),
	)

	return &testEnv{app: app, db: db, signer: signer, auth: authService}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, decorate func(*http.Request)) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var envelope map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return resp, envelope
}

func cookieValue(resp *http.Response, name string) (string, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func signupBody(email, username string) map[string]any {
	return map[string]any{
		"username":     username,
		"email":        email,
		"password":     "correct-horse",
		"firstName":    "Ada",
		"lastName":     "Lovelace",
		"gender":       "female",
		"phone":        "5550100",
		"addressLine1": "1 Analytical Way",
		"city":         "London",
		"state":        "LDN",
		"country":      "UK",
		"pin":          "10001",
	}
}

func signupRequestDTO(email, username string) *dto.SignupRequest {
	return &dto.SignupRequest{
		Username:     username,
		Email:        email,
		Password:     "correct-horse",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Gender:       "female",
		Phone:        "5550100",
		AddressLine1: "1 Analytical Way",
		City:         "London",
		State:        "LDN",
		Country:      "UK",
		Pin:          "10001",
	}
}

func (e *testEnv) storedOTP(t *testing.T, email string) string {
	t.Helper()
	var record models.OtpVerification
	require.NoError(t, e.db.Where("email = ?", email).
		Order("created_at DESC").First(&record).Error)
	return record.Otp
}

func TestSignupThenVerifyFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, envelope := env.request(t, http.MethodPost, "/api/auth/signup", signupBody("ada@x.com", "ada"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, envelope["success"])

	ticket, ok := cookieValue(resp, "verify_ticket")
	require.True(t, ok)
	require.NotEmpty(t, ticket)

	// The staged record never leaks the password hash.
	raw, err := json.Marshal(envelope["data"])
	require.NoError(t, err)
	require.NotContains(t, string(raw), "password")

	resp, envelope = env.request(t, http.MethodPost, "/api/auth/verify-otp",
		map[string]any{"otp": env.storedOTP(t, "ada@x.com")},
		func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "verify_ticket", Value: ticket})
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, envelope["success"])

	data := envelope["data"].(map[string]any)
	userID, ok := data["userId"].(string)
	require.True(t, ok, "userId must serialize as a string")
	require.NotEmpty(t, userID)

	session, ok := cookieValue(resp, "token")
	require.True(t, ok)
	require.NotEmpty(t, session)

	// The session works for protected endpoints.
	resp, envelope = env.request(t, http.MethodGet, "/api/users/me", nil,
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+session)
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := envelope["data"].(map[string]any)
	require.Equal(t, userID, me["id"])
	require.NotNil(t, me["profile"])
}

func TestVerifyOtp_MissingTicket(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, envelope := env.request(t, http.MethodPost, "/api/auth/verify-otp",
		map[string]any{"otp": "123456"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, false, envelope["success"])
}

func TestSignin_SetsSessionCookie(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.auth.Signup(ctx, signupRequestDTO("ada@x.com", "ada"))
	require.NoError(t, err)
	_, err = env.auth.VerifySignup(ctx, "ada@x.com", env.storedOTP(t, "ada@x.com"))
	require.NoError(t, err)

	resp, envelope := env.request(t, http.MethodPost, "/api/auth/signin",
		map[string]any{"email": "ada@x.com", "password": "correct-horse"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, envelope["success"])

	session, ok := cookieValue(resp, "token")
	require.True(t, ok)
	require.NotEmpty(t, session)

	claims, err := env.signer.Verify(session)
	require.NoError(t, err)
	require.Equal(t, security.ScopeSession, claims.Scope)
}

func TestSignin_WrongPassword(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.auth.Signup(ctx, signupRequestDTO("ada@x.com", "ada"))
	require.NoError(t, err)
	_, err = env.auth.VerifySignup(ctx, "ada@x.com", env.storedOTP(t, "ada@x.com"))
	require.NoError(t, err)

	resp, envelope := env.request(t, http.MethodPost, "/api/auth/signin",
		map[string]any{"email": "ada@x.com", "password": "nope-nope-nope"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, false, envelope["success"])
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// No credential at all.
	resp, envelope := env.request(t, http.MethodPost, "/api/auth/change-password",
		map[string]any{"currentPassword": "a", "newPassword": "new-password-1"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, false, envelope["success"])

	// A valid verify ticket is still not a session credential.
	ticket, err := env.signer.SignTicket("ada@x.com", security.ScopeVerify)
	require.NoError(t, err)
	resp, _ = env.request(t, http.MethodGet, "/api/users/me", nil,
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+ticket)
		})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_ClearsSessionCookie(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.auth.Signup(ctx, signupRequestDTO("ada@x.com", "ada"))
	require.NoError(t, err)
	user, err := env.auth.VerifySignup(ctx, "ada@x.com", env.storedOTP(t, "ada@x.com"))
	require.NoError(t, err)

	session, err := env.signer.SignSession(user.ID, user.Email)
	require.NoError(t, err)

	resp, envelope := env.request(t, http.MethodPost, "/api/auth/logout", nil,
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+session)
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, envelope["success"])

	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			require.Empty(t, c.Value)
			require.True(t, c.Expires.Before(time.Now()))
		}
	}
}

func TestForgotThenResetFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.auth.Signup(ctx, signupRequestDTO("ada@x.com", "ada"))
	require.NoError(t, err)
	user, err := env.auth.VerifySignup(ctx, "ada@x.com", env.storedOTP(t, "ada@x.com"))
	require.NoError(t, err)

	resp, envelope := env.request(t, http.MethodPost, "/api/auth/forgot-password",
		map[string]any{"email": "ada@x.com"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, envelope["success"])

	ticket, ok := cookieValue(resp, "reset_ticket")
	require.True(t, ok)

	var record models.OtpVerification
	require.NoError(t, env.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").First(&record).Error)

	resp, envelope = env.request(t, http.MethodPost, "/api/auth/reset-password",
		map[string]any{"otp": record.Otp, "newPassword": "new-password-1"},
		func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "reset_ticket", Value: ticket})
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, envelope["success"])

	// Reset without its ticket is refused outright.
	resp, _ = env.request(t, http.MethodPost, "/api/auth/reset-password",
		map[string]any{"otp": record.Otp, "newPassword": "new-password-2"}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
