package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/go_outdoor/internal/gateway"
	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/service"
	"github.com/Skotchmaster/go_outdoor/internal/transport"
)

type PaymentHTTP struct {
	Svc *service.PaymentService

	ClientKey    string
	IsProduction bool
}

func (h *PaymentHTTP) ClientConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.MidtransConfig{
		ClientKey:    h.ClientKey,
		IsProduction: h.IsProduction,
	})
}

// Notification answers 200 for everything the gateway should not resend,
// including unknown orders and stale updates. Only a failed write asks for a
// retry.
func (h *PaymentHTTP) Notification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "midtrans.notification")

	var n gateway.Notification
	if err := c.Bind(&n); err != nil {
		l.Warn("notification_error", "status", 400, "error", err)
		return c.String(http.StatusBadRequest, "Bad Request")
	}

	_, err := h.Svc.HandleNotification(ctx, n)
	switch {
	case err == nil:
		return c.String(http.StatusOK, "OK")
	case errors.Is(err, service.ErrInvalidSignature):
		return c.String(http.StatusForbidden, "Invalid signature")
	case errors.Is(err, service.ErrValidation):
		return c.String(http.StatusBadRequest, "Bad Request")
	default:
		return c.String(http.StatusInternalServerError, "Error")
	}
}
