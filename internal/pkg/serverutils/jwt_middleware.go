package serverutils

import (
	"fmt"
	"strings"
	"time"

	"ai-recipe-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const LocalUserID = "user_id"

// GenerateToken issues an HS256 access token carrying user_id and email.
func GenerateToken(secret string, userId uuid.UUID, email string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"email":   email,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the user id claim.
func ParseToken(secret, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims")
	}
	userId, ok := claims["user_id"].(string)
	if !ok || userId == "" {
		return "", fmt.Errorf("invalid claims")
	}
	return userId, nil
}

func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return apperror.Unauthorized("missing token")
		}

		userId, err := ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return apperror.Unauthorized("invalid token")
		}

		ctx.Locals(LocalUserID, userId)
		return ctx.Next()
	}
}

// CurrentUserID reads the user id set by JwtMiddleware.
func CurrentUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals(LocalUserID).(string)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("missing token")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("invalid token")
	}
	return id, nil
}

// RequireSameUser rejects requests whose :user_id path param differs from the token's user.
func RequireSameUser(ctx *fiber.Ctx, param string) (uuid.UUID, error) {
	userId, err := CurrentUserID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	target, err := uuid.Parse(ctx.Params(param))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid user id")
	}
	if target != userId {
		return uuid.Nil, apperror.Forbidden("you can only manage your own subscription")
	}
	return userId, nil
}
