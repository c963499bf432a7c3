package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// ListMovies returns the movies currently on sale.
func (c *Client) ListMovies(ctx context.Context) ([]model.Movie, error) {
	var out []model.Movie
	q := url.Values{"status": {"NOW_SHOWING"}}
	if err := c.do(ctx, http.MethodGet, "/movies", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMovie returns a single movie.
func (c *Client) GetMovie(ctx context.Context, id int64) (*model.Movie, error) {
	var out model.Movie
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/movies/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListShowTimes returns the showtimes of a movie on the given day.  A zero
// day means today.
func (c *Client) ListShowTimes(ctx context.Context, movieID int64, day time.Time) ([]model.ShowTime, error) {
	if day.IsZero() {
		day = time.Now()
	}
	var out []model.ShowTime
	q := url.Values{"date": {day.Format("2006-01-02")}}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/movies/%d/show-times", movieID), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetShowTime returns a single showtime.
func (c *Client) GetShowTime(ctx context.Context, id int64) (*model.ShowTime, error) {
	var out model.ShowTime
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/show-times/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSeatLayout returns the seat grid of a showtime with booked and
// temp-held flags.
func (c *Client) GetSeatLayout(ctx context.Context, showTimeID int64) (*model.SeatLayout, error) {
	var out model.SeatLayout
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/show-times/%d/seats", showTimeID), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.ShowTimeID == 0 {
		out.ShowTimeID = showTimeID
	}
	return &out, nil
}

// ListProducts returns the active concession products and combos.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	q := url.Values{"status": {"ACTIVE"}}
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var out model.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCustomerByPhone matches a member by phone number.  ErrNotFound is
// returned when nobody matches.
func (c *Client) FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	var out model.Customer
	q := url.Values{"phone": {phone}}
	if err := c.do(ctx, http.MethodGet, "/customers/search", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
