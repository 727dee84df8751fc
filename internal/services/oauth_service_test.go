package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/models"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/security"
)

func newOAuthFixture(t *testing.T) (*OAuthService, *AuthService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	signer := testSigner(cfg)
	return NewOAuthService(db, signer, "test-client-id"), NewAuthService(db, cfg, signer, &mailRecorder{}), db
}

func googleLogin(sub, email, name string) *dto.OAuthLoginRequest {
	return &dto.OAuthLoginRequest{
		Provider:   "google",
		ProviderID: sub,
		Email:      email,
		Name:       name,
		GivenName:  "Grace",
		FamilyName: "Hopper",
		Picture:    "https://img.example/grace.png",
	}
}

func TestOAuthLogin_CreatesUserAndAccount(t *testing.T) {
	t.Parallel()
	svc, _, db := newOAuthFixture(t)

	user, account, token, err := svc.Login(context.Background(), googleLogin("sub-1", "grace@x.com", "grace"))
	require.NoError(t, err)
	require.True(t, user.IsVerified)
	require.Equal(t, "grace@x.com", user.Email)
	require.Equal(t, "grace", user.Username)
	require.Equal(t, "Grace", user.FirstName)
	require.NotNil(t, user.Profile)
	require.NotNil(t, user.Profile.ProfilePic)

	require.Equal(t, "google", account.Provider)
	require.Equal(t, "sub-1", account.ProviderID)
	require.Equal(t, user.ID, account.UserID)

	claims, err := testSigner(testConfig()).Verify(token)
	require.NoError(t, err)
	require.Equal(t, security.ScopeSession, claims.Scope)

	// The generated credential is unusable for password signin.
	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.False(t, security.CheckPassword("", stored.PasswordHash))
	require.False(t, security.CheckPassword("password", stored.PasswordHash))
}

func TestOAuthLogin_RequiredFields(t *testing.T) {
	t.Parallel()
	svc, _, _ := newOAuthFixture(t)

	req := googleLogin("sub-1", "grace@x.com", "grace")
	req.ProviderID = ""
	_, _, _, err := svc.Login(context.Background(), req)
	require.ErrorIs(t, err, ErrValidation)
}

func TestOAuthLogin_LinksExistingPasswordUser(t *testing.T) {
	t.Parallel()
	svc, auth, db := newOAuthFixture(t)
	ctx := context.Background()

	existing := signupAndVerify(t, auth, db, "ada@x.com", "ada")

	user, account, _, err := svc.Login(ctx, googleLogin("sub-1", "ada@x.com", "ada g"))
	require.NoError(t, err)
	require.Equal(t, existing.ID, user.ID)
	require.Equal(t, existing.ID, account.UserID)

	// Linked, not duplicated; password signin still works.
	require.EqualValues(t, 1, rowCount(t, db, &models.User{}))
	_, _, err = auth.Signin(ctx, "ada@x.com", "correct-horse")
	require.NoError(t, err)
}

func TestOAuthLogin_Idempotent(t *testing.T) {
	t.Parallel()
	svc, _, db := newOAuthFixture(t)
	ctx := context.Background()

	_, first, _, err := svc.Login(ctx, googleLogin("sub-1", "grace@x.com", "grace"))
	require.NoError(t, err)
	_, second, _, err := svc.Login(ctx, googleLogin("sub-1", "grace@x.com", "grace"))
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.EqualValues(t, 1, rowCount(t, db, &models.User{}))
	require.EqualValues(t, 1, rowCount(t, db, &models.OAuthAccount{}))
}

func TestOAuthLogin_PairBoundToOneUser(t *testing.T) {
	t.Parallel()
	svc, auth, db := newOAuthFixture(t)
	ctx := context.Background()

	signupAndVerify(t, auth, db, "other@x.com", "other")

	_, _, _, err := svc.Login(ctx, googleLogin("sub-1", "grace@x.com", "grace"))
	require.NoError(t, err)

	// Same provider identity claiming a different local user is refused.
	_, _, _, err = svc.Login(ctx, googleLogin("sub-1", "other@x.com", "other"))
	require.ErrorIs(t, err, ErrAccountConflict)
}

func TestOAuthLogin_UsernameDisambiguation(t *testing.T) {
	t.Parallel()
	svc, auth, db := newOAuthFixture(t)
	ctx := context.Background()

	signupAndVerify(t, auth, db, "grace@elsewhere.com", "grace")

	user, _, _, err := svc.Login(ctx, googleLogin("sub-1", "grace@x.com", "grace"))
	require.NoError(t, err)
	require.Equal(t, "grace1", user.Username)
}

func TestOAuthLogin_UsernameContentionNeverFails(t *testing.T) {
	t.Parallel()
	svc, _, db := newOAuthFixture(t)

	taken := []string{"grace", "grace1", "grace2", "grace3", "grace4", "grace5"}
	for i, name := range taken {
		require.NoError(t, db.Create(&models.User{
			Username:     name,
			Email:        fmt.Sprintf("u%d@x.com", i),
			PasswordHash: "x",
		}).Error)
	}

	// With every numeric suffix taken, login still succeeds on a fresh
	// suffix instead of surfacing a conflict.
	user, _, _, err := svc.Login(context.Background(), googleLogin("sub-9", "grace@x.com", "grace"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(user.Username, "grace"))
	require.NotContains(t, taken, user.Username)
}

func TestOAuthLogin_UsernameFromEmailLocalPart(t *testing.T) {
	t.Parallel()
	svc, _, _ := newOAuthFixture(t)

	req := googleLogin("sub-1", "grace@x.com", "")
	user, _, _, err := svc.Login(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "grace", user.Username)
}
