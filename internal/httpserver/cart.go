package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/go_outdoor/internal/logging"
	authmw "github.com/Skotchmaster/go_outdoor/internal/middleware/auth"
	"github.com/Skotchmaster/go_outdoor/internal/service"
	"github.com/Skotchmaster/go_outdoor/internal/transport"
)

const msgItemRemoved = "Item berhasil dihapus dari keranjang."

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	userID, err := authmw.UserID(c)
	if err != nil {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	lines, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Terjadi kesalahan saat mengambil item keranjang.")
	}
	return c.JSON(http.StatusOK, transport.NewCartLines(lines))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	userID, err := authmw.UserID(c)
	if err != nil {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return apiError(c, http.StatusBadRequest, msgBadRequest)
	}
	if req.Quantity <= 0 {
		return apiError(c, http.StatusBadRequest, "Kuantitas harus lebih dari 0.")
	}
	if req.ProductID == 0 {
		return apiError(c, http.StatusBadRequest, "Produk tidak valid.")
	}

	created, _, err := h.Svc.AddToCart(ctx, userID, req.ProductID, req.Quantity)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		return apiError(c, http.StatusBadRequest, msgBadRequest)
	case errors.Is(err, service.ErrNotFound):
		return apiError(c, http.StatusNotFound, "Produk tidak ditemukan.")
	default:
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Terjadi kesalahan saat menambahkan produk ke keranjang.")
	}

	if created {
		return message(c, http.StatusCreated, "Produk berhasil ditambahkan ke keranjang.")
	}
	return message(c, http.StatusOK, "Kuantitas produk berhasil diperbarui.")
}

func (h *CartHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	userID, err := authmw.UserID(c)
	if err != nil {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	var req transport.UpdateCartRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return apiError(c, http.StatusBadRequest, msgBadRequest)
	}

	removed, err := h.Svc.UpdateQuantity(ctx, userID, req.CartID, req.NewQuantity)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		return apiError(c, http.StatusBadRequest, msgBadRequest)
	case errors.Is(err, service.ErrNotFound):
		return apiError(c, http.StatusNotFound, "Item keranjang tidak ditemukan.")
	default:
		l.Error("update_cart_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Gagal memperbarui kuantitas item.")
	}

	if removed {
		return message(c, http.StatusOK, msgItemRemoved)
	}
	return message(c, http.StatusOK, "Kuantitas berhasil diperbarui.")
}

func (h *CartHTTP) DeleteCartItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "delete.cart.item")

	userID, err := authmw.UserID(c)
	if err != nil {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return apiError(c, http.StatusBadRequest, msgBadRequest)
	}

	err = h.Svc.RemoveItem(ctx, userID, uint(id))
	switch {
	case err == nil:
		return message(c, http.StatusOK, msgItemRemoved)
	case errors.Is(err, service.ErrNotFound):
		return apiError(c, http.StatusNotFound, "Item keranjang tidak ditemukan.")
	default:
		l.Error("delete_cart_item_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Gagal menghapus item dari keranjang.")
	}
}
