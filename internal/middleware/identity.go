package middleware

// identity.go holds the context keys written by JWTAuth and the accessors
// handlers and other middleware use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/knowledgehub/internal/utils"
)

const (
	ctxUserID   = "user_id"
	ctxUsername = "username"
	ctxToken    = "token"
)

// CurrentUser returns the authenticated identity. ok is false on routes
// that are not behind JWTAuth.
func CurrentUser(c echo.Context) (utils.Identity, bool) {
	uid, ok := c.Get(ctxUserID).(uint64)
	if !ok || uid == 0 {
		return utils.Identity{}, false
	}
	name, _ := c.Get(ctxUsername).(string)
	return utils.Identity{UserID: uid, Username: name}, true
}

// CurrentToken returns the raw bearer token accepted by JWTAuth.
func CurrentToken(c echo.Context) string {
	s, _ := c.Get(ctxToken).(string)
	return s
}

// userKey identifies the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func userKey(c echo.Context) string {
	if id, ok := CurrentUser(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
