package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/go_outdoor/internal/transport"
)

const (
	msgServerError = "Terjadi kesalahan pada server."
	msgDenied      = "Akses ditolak. Silakan login terlebih dahulu."
	msgBadRequest  = "Data yang dikirim tidak valid."
)

// message answers in the {"message": ...} shape used by the auth routes and
// successful mutations.
func message(c echo.Context, code int, msg string) error {
	return c.JSON(code, transport.MessageResponse{Message: msg})
}

// apiError answers in the {"error": ...} shape used by the /api routes.
func apiError(c echo.Context, code int, msg string) error {
	return c.JSON(code, transport.ErrorResponse{Error: msg})
}
