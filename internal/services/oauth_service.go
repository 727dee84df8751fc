package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/models"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidIDToken  = errors.New("invalid provider identity token")
	ErrAccountConflict = errors.New("provider account linked to a different user")
)

// OAuthService links external provider identities to local users and issues
// sessions for them. Provider claims arrive pre-verified from the upstream
// OAuth handshake; when the request carries a Google identity token it is
// verified against Google's JWKS and its claims take precedence.
type OAuthService struct {
	db     *gorm.DB
	signer *security.TokenSigner
	google *GoogleTokenVerifier
}

func NewOAuthService(db *gorm.DB, signer *security.TokenSigner, googleClientID string) *OAuthService {
	return &OAuthService{
		db:     db,
		signer: signer,
		google: NewGoogleTokenVerifier(googleClientID),
	}
}

// Login finds or creates the user for the claimed email, finds or creates
// the OAuthAccount for the (provider, providerId) pair, and mints a session
// token. An unseen pair whose email matches an existing password user links
// to that user instead of creating a duplicate.
func (s *OAuthService) Login(ctx context.Context, req *dto.OAuthLoginRequest) (*models.User, *models.OAuthAccount, string, error) {
	if req.Provider == "" || req.ProviderID == "" || req.Email == "" {
		return nil, nil, "", fmt.Errorf("%w: provider, providerId and email are required", ErrValidation)
	}

	providerID := req.ProviderID
	email := req.Email
	givenName := req.GivenName
	familyName := req.FamilyName
	picture := req.Picture
	displayName := req.Name

	if req.IDToken != "" && req.Provider == "google" {
		claims, err := s.google.VerifyToken(req.IDToken)
		if err != nil {
			return nil, nil, "", fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
		}
		providerID = claims.Sub
		email = claims.Email
		givenName = claims.GivenName
		familyName = claims.FamilyName
		picture = claims.Picture
		if claims.Name != "" {
			displayName = claims.Name
		}
	}

	user, err := s.findOrCreateUser(ctx, email, displayName, givenName, familyName, picture)
	if err != nil {
		return nil, nil, "", err
	}

	account, err := s.findOrCreateAccount(ctx, req.Provider, providerID, user.ID)
	if err != nil {
		return nil, nil, "", err
	}

	token, err := s.signer.SignSession(user.ID, user.Email)
	if err != nil {
		return nil, nil, "", err
	}

	return user, account, token, nil
}

func (s *OAuthService) findOrCreateUser(ctx context.Context, email, name, givenName, familyName, picture string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	// A random unusable hash locks password signin for OAuth-only accounts.
	hash, err := security.RandomPasswordHash()
	if err != nil {
		return nil, err
	}

	var profilePic *string
	if picture != "" {
		profilePic = &picture
	}

	user = models.User{
		Username:     s.resolveUsername(ctx, name, email),
		Email:        email,
		PasswordHash: hash,
		FirstName:    givenName,
		LastName:     familyName,
		IsVerified:   true,
		Profile:      &models.Profile{ProfilePic: profilePic},
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a concurrent first login; reuse the winner.
			if lerr := s.db.WithContext(ctx).Preload("Profile").
				Where("email = ?", email).First(&user).Error; lerr == nil {
				return &user, nil
			}
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	return &user, nil
}

func (s *OAuthService) findOrCreateAccount(ctx context.Context, provider, providerID string, userID int64) (*models.OAuthAccount, error) {
	var account models.OAuthAccount
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&account).Error
	if err == nil {
		if account.UserID != userID {
			return nil, ErrAccountConflict
		}
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load oauth account: %w", err)
	}

	account = models.OAuthAccount{
		Provider:   provider,
		ProviderID: providerID,
		UserID:     userID,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if lerr := s.db.WithContext(ctx).
				Where("provider = ? AND provider_id = ?", provider, providerID).
				First(&account).Error; lerr == nil && account.UserID == userID {
				return &account, nil
			}
			return nil, ErrAccountConflict
		}
		return nil, fmt.Errorf("create oauth account: %w", err)
	}
	return &account, nil
}

// resolveUsername derives a unique username from the provider display name,
// falling back to the email local part plus the shortest disambiguating
// suffix. Heavily contested names stop probing and take a random suffix.
func (s *OAuthService) resolveUsername(ctx context.Context, name, email string) string {
	base := name
	if base == "" {
		base = strings.Split(email, "@")[0]
	}

	for i := 0; i <= 5; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ?", candidate).Count(&count).Error; err != nil || count == 0 {
			return candidate
		}
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}
