package security

import (
	"context"
	"strings"
	"time"

	"shortlink/pkg/core/consts"
	errorc "shortlink/pkg/core/err"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type UserAuth struct {
	jwtClient *JwtClient
}

const UserKey = "user"

type UserClaims struct {
	jwt.RegisteredClaims
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

func NewUserAuth(secret []byte, expireTime time.Duration) *UserAuth {
	return &UserAuth{
		jwtClient: NewJwtClient(secret, expireTime),
	}
}

// CreateSimpleToken 创建用户token
func (a *UserAuth) CreateSimpleToken(userID int64, userName string) (string, int64, error) {
	claims := &UserClaims{
		ID:       userID,
		Username: userName,
	}
	return a.jwtClient.CreateUserToken(claims)
}

// OptionalAuth 可选校验，有token则验证并保存ID
func (a *UserAuth) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth != "" && strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			claims, err := a.jwtClient.ParseUserToken(token)
			if err == nil {
				a.jwtClient.SaveUserToContext(c, claims)
			}
		}
		return c.Next()
	}
}

// RequireAuth 必须通过校验，并保存ID
func (a *UserAuth) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			return errorc.New("authorization header is required", nil).NoAuth()
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		claims, err := a.jwtClient.ParseUserToken(token)
		if err != nil {
			return errorc.New("invalid token", err).NoAuth()
		}

		a.jwtClient.SaveUserToContext(c, claims)
		return c.Next()
	}
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *fiber.Ctx) (int64, error) {
	if c == nil {
		return 0, errorc.New("fiber context is nil", nil).WithCode(errorc.ErrorCodeInternal)
	}
	id, ok := c.Locals(consts.UserIDKey).(int64)
	if !ok || id == 0 {
		return 0, errorc.New("user id not found or invalid", nil).NoAuth()
	}
	return id, nil
}

func GetUserClaimsByCtx(ctx context.Context) (*UserClaims, error) {
	claims, ok := ctx.Value(UserKey).(*UserClaims)
	if !ok {
		return nil, errorc.New("user claims not found or invalid", nil).NoAuth()
	}
	return claims, nil
}

// ParseToken 解析用户令牌
func (a *UserAuth) ParseToken(token string) (*UserClaims, error) {
	return a.jwtClient.ParseUserToken(token)
}
