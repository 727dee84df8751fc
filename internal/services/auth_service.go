package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/config"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/mailer"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/models"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/security"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrPendingNotFound    = errors.New("pending signup not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrMailDelivery       = errors.New("failed to send email")
)

// Mailer is the notification capability consumed by the auth flows.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, htmlBody string) error
}

// AuthService drives the signup/verification state machine and the
// session/credential lifecycle: pending signup, OTP issuance and checking,
// promotion to a real user, signin, and the password reset/change flows.
type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	signer   *security.TokenSigner
	mailer   Mailer
	validate *validator.Validate
}

func NewAuthService(db *gorm.DB, cfg *config.Config, signer *security.TokenSigner, m Mailer) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		signer:   signer,
		mailer:   m,
		validate: validator.New(),
	}
}

// Signup stages a new signup: uniqueness checks against users and pending
// signups, password hashing, one pending row plus one fresh OTP row created
// transactionally, then the OTP email. Returns the staged record and a
// verify ticket binding the later OTP confirmation to this email.
//
// A repeat signup that matches an already-staged identity (same email and
// username, password verifies) re-issues the code instead of conflicting,
// so a lost or failed OTP email does not lock the address out until the
// retention sweep.
func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*models.PendingUser, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrValidation, validationDetail(err))
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", req.Email, req.Username).
		Count(&count).Error; err != nil {
		return nil, "", fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return nil, "", ErrUserExists
	}
	var staged models.PendingUser
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", req.Email, req.Username).
		First(&staged).Error
	if err == nil {
		if staged.Email != req.Email || staged.Username != req.Username ||
			!security.CheckPassword(req.Password, staged.PasswordHash) {
			return nil, "", ErrUserExists
		}
		return s.reissueSignupOTP(ctx, &staged)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("check pending signup: %w", err)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	otp, err := security.GenerateOTP(s.cfg.OTPLength)
	if err != nil {
		return nil, "", err
	}

	pending := &models.PendingUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Gender:       req.Gender,
		ProfilePic:   req.ProfilePic,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		Country:      req.Country,
		Pin:          req.Pin,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pending).Error; err != nil {
			return err
		}
		return s.issueOTP(tx, otp, &pending.Email, nil)
	})
	if err != nil {
		// Concurrent signups for the same email or username race to the
		// unique constraint; the loser surfaces as a conflict.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("stage signup: %w", err)
	}

	body, err := mailer.SignupOTPBody(req.Username, otp)
	if err != nil {
		return nil, "", err
	}
	if err := s.mailer.SendMail(ctx, req.Email, "Verify your email with OTP", body); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	ticket, err := s.signer.SignTicket(req.Email, security.ScopeVerify)
	if err != nil {
		return nil, "", err
	}

	return pending, ticket, nil
}

// reissueSignupOTP replaces the outstanding code for a staged signup and
// resends the verification email.
func (s *AuthService) reissueSignupOTP(ctx context.Context, staged *models.PendingUser) (*models.PendingUser, string, error) {
	otp, err := security.GenerateOTP(s.cfg.OTPLength)
	if err != nil {
		return nil, "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.issueOTP(tx, otp, &staged.Email, nil)
	})
	if err != nil {
		return nil, "", fmt.Errorf("reissue otp: %w", err)
	}

	body, err := mailer.SignupOTPBody(staged.Username, otp)
	if err != nil {
		return nil, "", err
	}
	if err := s.mailer.SendMail(ctx, staged.Email, "Verify your email with OTP", body); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	ticket, err := s.signer.SignTicket(staged.Email, security.ScopeVerify)
	if err != nil {
		return nil, "", err
	}
	return staged, ticket, nil
}

// VerifySignup checks the newest OTP for the email and, on success, promotes
// the pending signup in one transaction: create the user with its profile,
// delete the pending row, delete the OTP rows. Partial promotion is never
// observable.
func (s *AuthService) VerifySignup(ctx context.Context, email, otp string) (*models.User, error) {
	var pending models.PendingUser
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&pending).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("load pending signup: %w", err)
	}

	if err := s.checkOTP(ctx, otp, s.db.Where("email = ?", email)); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     pending.Username,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		FirstName:    pending.FirstName,
		LastName:     pending.LastName,
		Gender:       pending.Gender,
		IsVerified:   true,
		Profile: &models.Profile{
			ProfilePic:   pending.ProfilePic,
			Phone:        pending.Phone,
			AddressLine1: pending.AddressLine1,
			AddressLine2: pending.AddressLine2,
			City:         pending.City,
			State:        pending.State,
			Country:      pending.Country,
			Pin:          pending.Pin,
		},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.PendingUser{}, pending.ID).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", email).Delete(&models.OtpVerification{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("promote pending signup: %w", err)
	}

	return user, nil
}

// Signin verifies the password and mints a session token.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").
		Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("load user: %w", err)
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.signer.SignSession(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// ForgotPassword issues a reset OTP keyed by the user id, emails it, and
// returns a reset ticket bound to the email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrValidation)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	otp, err := security.GenerateOTP(s.cfg.OTPLength)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.issueOTP(tx, otp, nil, &user.ID)
	})
	if err != nil {
		return "", fmt.Errorf("issue reset otp: %w", err)
	}

	body, err := mailer.ResetOTPBody(user.Username, otp)
	if err != nil {
		return "", err
	}
	if err := s.mailer.SendMail(ctx, email, "Reset your password with OTP", body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return s.signer.SignTicket(email, security.ScopeReset)
}

// ResetPassword validates the newest reset OTP for the user and swaps the
// password hash and the OTP cleanup in one transaction. Returns a fresh
// session token.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	if otp == "" || newPassword == "" {
		return "", fmt.Errorf("%w: otp and new password are required", ErrValidation)
	}
	if len(newPassword) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	if err := s.checkOTP(ctx, otp, s.db.Where("user_id = ?", user.ID)); err != nil {
		return "", err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("password_hash", hash).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.OtpVerification{}).Error
	})
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}

	return s.signer.SignSession(user.ID, user.Email)
}

// ChangePassword verifies the current password of an already-authenticated
// user and persists a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: current and new password are required", ErrValidation)
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	if !security.CheckPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// issueOTP removes any outstanding codes for the subject and stores a fresh
// one, keeping at most one code live per subject. Exactly one of email or
// userID is set.
func (s *AuthService) issueOTP(tx *gorm.DB, otp string, email *string, userID *int64) error {
	scope := tx.Model(&models.OtpVerification{})
	if email != nil {
		scope = scope.Where("email = ?", *email)
	} else {
		scope = scope.Where("user_id = ?", *userID)
	}
	if err := scope.Delete(&models.OtpVerification{}).Error; err != nil {
		return err
	}

	return tx.Create(&models.OtpVerification{
		Otp:       otp,
		Email:     email,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.cfg.OTPExpiry),
	}).Error
}

// checkOTP loads the newest code matching the subject scope and validates
// expiry and the code itself. The code is compared in constant time; a match
// on presence alone is not enough.
func (s *AuthService) checkOTP(ctx context.Context, otp string, scope *gorm.DB) error {
	var record models.OtpVerification
	if err := scope.WithContext(ctx).Order("created_at DESC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("load otp: %w", err)
	}

	if time.Now().After(record.ExpiresAt) {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(record.Otp), []byte(otp)) != 1 {
		return ErrInvalidOTP
	}
	return nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag())
	}
	return err.Error()
}
