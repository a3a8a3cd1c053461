package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/go_outdoor/internal/logging"
	authmw "github.com/Skotchmaster/go_outdoor/internal/middleware/auth"
	"github.com/Skotchmaster/go_outdoor/internal/service"
	"github.com/Skotchmaster/go_outdoor/internal/transport"
)

type OrderHTTP struct {
	Svc *service.CheckoutService
}

func (h *OrderHTTP) ProcessOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "process.order")

	userID, err := authmw.UserID(c)
	if err != nil {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	var req transport.ProcessOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("process_order_error", "status", 400, "error", err)
		return apiError(c, http.StatusBadRequest, msgBadRequest)
	}

	res, err := h.Svc.ProcessOrder(ctx, service.CheckoutInput{
		UserID:        userID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		RentDays:      req.RentDays,
	})

	var stockErr *service.StockError
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation) && req.RentDays < 1:
		return apiError(c, http.StatusBadRequest, "Lama sewa minimal 1 hari.")
	case errors.Is(err, service.ErrValidation):
		return apiError(c, http.StatusBadRequest, msgBadRequest)
	case errors.Is(err, service.ErrEmptyCart):
		return apiError(c, http.StatusBadRequest, "Keranjang belanja kosong.")
	case errors.As(err, &stockErr):
		return apiError(c, http.StatusBadRequest, fmt.Sprintf("Stok untuk produk '%s' tidak mencukupi.", stockErr.Product))
	case errors.Is(err, service.ErrCheckoutInProgress):
		return apiError(c, http.StatusConflict, "Checkout sedang diproses.")
	case errors.Is(err, service.ErrCartChanged):
		return apiError(c, http.StatusConflict, "Keranjang berubah selama checkout. Silakan coba lagi.")
	case errors.Is(err, service.ErrUnauthorized):
		return message(c, http.StatusUnauthorized, msgDenied)
	default:
		return apiError(c, http.StatusInternalServerError, "Terjadi kesalahan saat memproses checkout.")
	}

	return c.JSON(http.StatusOK, transport.ProcessOrderResponse{
		Token:       res.Token,
		OrderID:     res.OrderID,
		RedirectURL: res.RedirectURL,
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := authmw.UserID(c)
	if err != nil {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	orders, err := h.Svc.ListOrders(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list_orders_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Terjadi kesalahan saat mengambil riwayat pesanan.")
	}
	return c.JSON(http.StatusOK, transport.NewOrders(orders))
}
