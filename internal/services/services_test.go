package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/config"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/models"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/security"
)

// newTestDB opens an in-memory SQLite database migrated to the full schema.
// The pool is pinned to one connection because every :memory: connection is
// its own database.
func newTestDB(t *testing.T) *gorm.DB {
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
		&models.User{},
		&models.Profile{},
		&models.PendingUser{},
		&models.OtpVerification{},
		&models.OAuthAccount{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		SessionExpiry:    time.Hour,
		TicketExpiry:     10 * time.Minute,
		OTPLength:        6,
		OTPExpiry:        10 * time.Minute,
		PendingRetention: 24 * time.Hour,
	}
}

func testSigner(cfg *config.Config) *security.TokenSigner {
	return security.NewTokenSigner(cfg.JWTSecret, cfg.SessionExpiry, cfg.TicketExpiry)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// mailRecorder captures outgoing mail instead of delivering it. Setting Err
// makes every send fail.
type mailRecorder struct {
	mu   sync.Mutex
	Sent []sentMail
	Err  error
}

func (m *mailRecorder) SendMail(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *mailRecorder) Last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Sent)
	return m.Sent[len(m.Sent)-1]
}

func newAuthFixture(t *testing.T) (*AuthService, *mailRecorder, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	mail := &mailRecorder{}
	return NewAuthService(db, cfg, testSigner(cfg), mail), mail, db
}

func signupRequest(email, username string) *dto.SignupRequest {
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

// latestOTP reads the stored code for a subject straight from the table; the
// services never return codes, only mail them.
func latestOTP(t *testing.T, db *gorm.DB, scope func(*gorm.DB) *gorm.DB) models.OtpVerification {
	t.Helper()
	var record models.OtpVerification
	require.NoError(t, scope(db).Order("created_at DESC").First(&record).Error)
	return record
}

func otpByEmail(t *testing.T, db *gorm.DB, email string) models.OtpVerification {
	return latestOTP(t, db, func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email)
	})
}

func otpByUserID(t *testing.T, db *gorm.DB, userID int64) models.OtpVerification {
	return latestOTP(t, db, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	})
}

// signupAndVerify drives the real staged flow end to end and returns the
// promoted user.
func signupAndVerify(t *testing.T, svc *AuthService, db *gorm.DB, email, username string) *models.User {
	t.Helper()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, signupRequest(email, username))
	require.NoError(t, err)

	user, err := svc.VerifySignup(ctx, email, otpByEmail(t, db, email).Otp)
	require.NoError(t, err)
	return user
}

func rowCount(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

var errSMTPDown = errors.New("smtp connection refused")
