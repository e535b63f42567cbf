package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/knowledgehub/internal/middleware"
	"github.com/iliyamo/knowledgehub/internal/service"
)

const requestTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Signup: create user and return its id. No token is issued.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return badBody(err)
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	uid, err := h.Auth.Signup(ctx, service.SignupInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return send(c, http.StatusCreated, "User registered successfully", echo.Map{"userId": uid})
}

// Login: verify credentials and return a token with the user summary.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badBody(err)
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return send(c, http.StatusOK, "Login successful", res)
}

// Logout: revoke the bearer token that authenticated this request (protected).
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, middleware.CurrentToken(c)); err != nil {
		return err
	}
	return send(c, http.StatusOK, "Logged out successfully", nil)
}
