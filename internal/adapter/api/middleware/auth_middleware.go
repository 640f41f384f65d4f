package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"foodshare/internal/domain/entity"
	"foodshare/internal/usecase"
	"foodshare/pkg/response"
)

const (
	ContextUserID = "uid"
	ContextUser   = "user"
)

type AuthMiddleware struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthMiddleware(authUseCase *usecase.AuthUseCase) *AuthMiddleware {
	return &AuthMiddleware{
		authUseCase: authUseCase,
	}
}

// Authenticate resolves the bearer credential and stores the caller in the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := m.authUseCase.Authenticate(c.Request().Context(), ExtractCredential(c.Request()))
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)

		return next(c)
	}
}

// ExtractCredential reads "Authorization: Bearer <token>", falling back to the
// token query parameter used by browser websocket clients.
func ExtractCredential(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	return r.URL.Query().Get("token")
}

// CurrentUser returns the user set by Authenticate, or nil.
func CurrentUser(c echo.Context) *entity.User {
	user, _ := c.Get(ContextUser).(*entity.User)
	return user
}
