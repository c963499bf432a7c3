// Package handler exposes the POS terminal API: sale sessions, the catalog
// the cashier picks from, receipt reprints and the incident queue
// operators work through.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/apiclient"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/repository"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/sale"
)

// errSeatsLocked is returned for seat changes once the sale moved past
// seat selection.
var errSeatsLocked = errors.New("seats can no longer be changed for this sale")

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sale.ErrSessionNotFound),
		errors.Is(err, apiclient.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sale.ErrBusy):
		return http.StatusLocked
	case errors.Is(err, sale.ErrSeatUnavailable),
		errors.Is(err, apiclient.ErrSeatUnavailable),
		errors.Is(err, sale.ErrMovieAlreadySelected),
		errors.Is(err, sale.ErrShowTimeAlreadySelected),
		errors.Is(err, sale.ErrPaymentInProgress),
		errors.Is(err, sale.ErrSaleCompleted),
		errors.Is(err, sale.ErrSaleNotCompleted),
		errors.Is(err, sale.ErrAlreadyPaid),
		errors.Is(err, sale.ErrWrongStep),
		errors.Is(err, sale.ErrSessionReset),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, errSeatsLocked):
		return http.StatusConflict
	case errors.Is(err, sale.ErrMovieNotSelected),
		errors.Is(err, sale.ErrShowTimeNotSelected),
		errors.Is(err, sale.ErrShowTimeMismatch),
		errors.Is(err, sale.ErrProductNotSelected),
		errors.Is(err, sale.ErrNoOrder),
		errors.Is(err, sale.ErrNoPaymentInProgress):
		return http.StatusBadRequest
	case errors.Is(err, apiclient.ErrUnauthorized):
		return http.StatusBadGateway
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}.  Unexpected errors are logged and
// hidden from the terminal.
func fail(c echo.Context, log logrus.FieldLogger, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("route", c.Path()).Error("request failed")
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// paramID parses a positive integer path parameter.
func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}
