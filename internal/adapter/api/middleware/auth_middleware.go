package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"souqbalady/internal/domain/entity"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/response"
)

const sessionKey = "session"

// SessionResolver turns an ID token into the caller's session.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*entity.Session, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := BearerToken(c)
		if err != nil {
			return response.Error(c, err)
		}

		session, err := m.sessions.ResolveSession(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(sessionKey, session)
		c.Set("uid", session.UID)
		return next(c)
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errors.Unauthorized("Authorization header is required", nil)
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Unauthorized("Invalid authorization format", nil)
	}
	return strings.TrimSpace(parts[1]), nil
}

// SessionFrom returns the session stored by Authenticate.
func SessionFrom(c echo.Context) *entity.Session {
	session, _ := c.Get(sessionKey).(*entity.Session)
	return session
}

// WithSession stores session on c. Handler tests use it in place of Authenticate.
func WithSession(c echo.Context, session *entity.Session) {
	c.Set(sessionKey, session)
	c.Set("uid", session.UID)
}
