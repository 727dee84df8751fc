package dto

import "github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/models"

// Request field names mirror the public API contract; responses use the
// model JSON tags inside the standard envelope.

type SignupRequest struct {
	Username     string  `json:"username" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	FirstName    string  `json:"firstName" validate:"required"`
	LastName     string  `json:"lastName" validate:"required"`
	Gender       string  `json:"gender" validate:"required"`
	ProfilePic   *string `json:"profilePic"`
	Phone        string  `json:"phone" validate:"required"`
	AddressLine1 string  `json:"addressLine1" validate:"required"`
	AddressLine2 *string `json:"addressLine2"`
	City         string  `json:"city" validate:"required"`
	State        string  `json:"state" validate:"required"`
	Country      string  `json:"country" validate:"required"`
	Pin          string  `json:"pin" validate:"required"`
}

type VerifyOtpRequest struct {
	Otp string `json:"otp" validate:"required"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Otp         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type OAuthLoginRequest struct {
	Provider   string `json:"provider" validate:"required"`
	ProviderID string `json:"providerId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
	// Optional provider-issued identity token; when present its verified
	// claims override the body fields above.
	IDToken string `json:"idToken"`
}

// Response is the envelope carried by every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type SigninData struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type VerifyData struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type TokenData struct {
	Token string `json:"token"`
}

type OAuthLoginData struct {
	User    *models.User         `json:"user"`
	Account *models.OAuthAccount `json:"account"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
