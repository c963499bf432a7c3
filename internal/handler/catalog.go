package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// Catalog is the read side of the cinema API the POS needs.
// *apiclient.Client implements it.
type Catalog interface {
	ListMovies(ctx context.Context) ([]model.Movie, error)
	GetMovie(ctx context.Context, id int64) (*model.Movie, error)
	ListShowTimes(ctx context.Context, movieID int64, day time.Time) ([]model.ShowTime, error)
	GetShowTime(ctx context.Context, id int64) (*model.ShowTime, error)
	GetSeatLayout(ctx context.Context, showTimeID int64) (*model.SeatLayout, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error)
}

// CatalogHandler serves the pick lists shown on the terminal.  Responses
// are cached by the Redis cache middleware.
type CatalogHandler struct {
	Catalog Catalog
	Log     logrus.FieldLogger
	// Now is replaceable in tests.
	Now func() time.Time
}

// ListMovies returns movies now showing.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	movies, err := h.Catalog.ListMovies(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// ListShowTimes returns the showtimes of a movie on ?date=YYYY-MM-DD,
// today when omitted.
func (h *CatalogHandler) ListShowTimes(c echo.Context) error {
	movieID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	day := h.now()
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
		if err != nil {
			return badRequest(c, "date must be YYYY-MM-DD")
		}
		day = d
	}
	showTimes, err := h.Catalog.ListShowTimes(c.Request().Context(), movieID, day)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": showTimes})
}

// ListProducts returns the active concession products.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	products, err := h.Catalog.ListProducts(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": products})
}

func (h *CatalogHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
