package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/knowledgehub/internal/apperr"
	"github.com/iliyamo/knowledgehub/internal/utils"
)

// Authenticator verifies a bearer token and checks it has not been revoked.
// service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (utils.Identity, error)
}

// JWTAuth returns an Echo middleware that requires `Authorization: Bearer
// <token>`. The token is verified and checked against the revocation
// registry before the identity is stored on the context; handlers read it
// back with CurrentUser. Failures are returned as *apperr.Error so the
// central error handler renders the 401.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.MissingToken()
			}

			id, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}

			c.Set(ctxUserID, id.UserID)
			c.Set(ctxUsername, id.Username)
			c.Set(ctxToken, raw)
			return next(c)
		}
	}
}

// bearer extracts the token from an Authorization header value.
func bearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
