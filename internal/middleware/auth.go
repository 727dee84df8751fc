package middleware

import (
	"errors"
	"strconv"

	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/config"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/dto"
	"github.com/LakshyaRathore-252/PERN-BASIC-AUTH/internal/security"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID int64
	Email  string
}

// JWTProtected validates the session credential from the Authorization
// header or the token cookie.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		TokenLookup: "header:Authorization,cookie:token",
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Response{
				Success: false, Message: "Invalid or expired token",
			})
		},
	})
}

// RequireSession rejects verify/reset tickets presented as session
// credentials. Runs after JWTProtected.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := CurrentUser(c); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Response{
				Success: false, Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}

// CurrentUser extracts the authenticated identity from the validated token.
func CurrentUser(c *fiber.Ctx) (Identity, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return Identity{}, errors.New("missing session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid session claims")
	}

	scope, _ := claims["scope"].(string)
	if scope != security.ScopeSession {
		return Identity{}, errors.New("token is not a session credential")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return Identity{}, errors.New("invalid subject claim")
	}

	email, _ := claims["email"].(string)
	return Identity{UserID: userID, Email: email}, nil
}
