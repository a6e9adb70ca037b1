package serverutils

import (
	"fmt"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// Principal is the authenticated caller resolved from the bearer token.
type Principal struct {
	UserId uuid.UUID
	Role   entity.UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == entity.UserRoleAdmin
}

func IssueToken(secret string, userId uuid.UUID, role entity.UserRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userId.String(),
		"role":    string(role),
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return apperror.New(apperror.CodeUnauthorized, "Missing token")
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return apperror.New(apperror.CodeUnauthorized, "Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperror.New(apperror.CodeUnauthorized, "Invalid claims")
		}

		userId, _ := claims["user_id"].(string)
		if _, err := uuid.Parse(userId); err != nil {
			return apperror.New(apperror.CodeUnauthorized, "Invalid claims")
		}
		role, _ := claims["role"].(string)
		if role == "" {
			role = string(entity.UserRoleUser)
		}

		ctx.Locals(LocalUserID, userId)
		ctx.Locals(LocalRole, role)
		return ctx.Next()
	}
}

// CurrentUser reads the principal stored by the JWT middleware.
func CurrentUser(ctx *fiber.Ctx) (Principal, error) {
	userIdStr, ok := ctx.Locals(LocalUserID).(string)
	if !ok {
		return Principal{}, apperror.New(apperror.CodeUnauthorized, "Unauthorized")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return Principal{}, apperror.New(apperror.CodeUnauthorized, "Invalid user ID")
	}
	role, _ := ctx.Locals(LocalRole).(string)
	return Principal{UserId: userId, Role: entity.UserRole(role)}, nil
}

func AdminOnly(ctx *fiber.Ctx) error {
	principal, err := CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return apperror.Forbidden("Admin access required")
	}
	return ctx.Next()
}
