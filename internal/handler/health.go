package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring systems to verify that
// the process is serving requests. It does not touch the database.
func Health(c echo.Context) error {
	return send(c, http.StatusOK, "Server is running healthily", nil)
}
