package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/go_outdoor/internal/logging"
	"github.com/Skotchmaster/go_outdoor/internal/service"
	"github.com/Skotchmaster/go_outdoor/internal/transport"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

func (h *ProductHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.Svc.ListProducts(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_products_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Terjadi kesalahan saat mengambil produk.")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.product")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		l.Warn("get_product_error", "status", 400, "error", err)
		return apiError(c, http.StatusBadRequest, "ID produk tidak valid.")
	}

	p, err := h.Svc.GetProduct(ctx, uint(id))
	if errors.Is(err, service.ErrNotFound) {
		return apiError(c, http.StatusNotFound, "Produk tidak ditemukan.")
	}
	if err != nil {
		l.Error("get_product_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Terjadi kesalahan saat mengambil produk.")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search.products")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if errors.Is(err, service.ErrValidation) {
		return apiError(c, http.StatusBadRequest, "Kata kunci pencarian wajib diisi.")
	}
	if err != nil {
		l.Error("search_products_error", "status", 500, "error", err)
		return apiError(c, http.StatusInternalServerError, "Terjadi kesalahan saat mengambil produk.")
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{
		Total: res.Total,
		Page:  res.Page,
		Size:  res.Size,
		Items: res.Items,
	})
}
