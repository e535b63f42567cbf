package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/knowledgehub/internal/handler"
	"github.com/iliyamo/knowledgehub/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication and no
// domain dependencies.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.Health)
}

// RegisterAuth mounts /api/auth. Only logout is protected; it revokes the
// very token that JWTAuth accepted.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authn middleware.Authenticator) {
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout, middleware.JWTAuth(authn))
}

// RegisterArticles mounts /api/articles. cache wraps the two public reads.
// Echo matches static segments before parameters, so /my/all never reaches
// the :id handler.
func RegisterArticles(e *echo.Echo, h *handler.ArticleHandler, authn middleware.Authenticator, cache echo.MiddlewareFunc) {
	g := e.Group("/api/articles")
	jwt := middleware.JWTAuth(authn)

	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)

	g.POST("", h.Create, jwt)
	g.PUT("/:id", h.Update, jwt)
	g.DELETE("/:id", h.Delete, jwt)
	g.GET("/my/all", h.Mine, jwt)
	g.POST("/ai/suggest", h.Suggest, jwt)
}
