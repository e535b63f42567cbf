package handler

import "github.com/labstack/echo/v4"

// envelope is the body of every response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Error   any    `json:"error"`
}

func send(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string, detail any) error {
	return c.JSON(status, envelope{Success: false, Message: message, Error: detail})
}
