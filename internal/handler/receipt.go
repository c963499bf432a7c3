package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// ReceiptFinder looks up archived receipts.
type ReceiptFinder interface {
	GetByCode(ctx context.Context, code string) (*model.Receipt, error)
}

// ReceiptHandler reprints receipts of past sales.
type ReceiptHandler struct {
	Receipts ReceiptFinder
	Log      logrus.FieldLogger
}

// Get returns the receipt archived under the order code.
func (h *ReceiptHandler) Get(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return badRequest(c, "order code is required")
	}
	receipt, err := h.Receipts.GetByCode(c.Request().Context(), code)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, receipt)
}
