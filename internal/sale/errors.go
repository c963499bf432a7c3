package sale

import "errors"

var (
	// ErrBusy is returned when a navigation call is already in flight for
	// the session.
	ErrBusy = errors.New("sale session is busy")
	// ErrSessionNotFound is returned by the manager for unknown ids.
	ErrSessionNotFound = errors.New("sale session not found")
	// ErrMovieNotSelected is returned when a showtime is picked before a movie.
	ErrMovieNotSelected = errors.New("no movie selected")
	// ErrMovieAlreadySelected is returned when changing the movie without
	// going back to movie selection first.
	ErrMovieAlreadySelected = errors.New("movie already selected")
	// ErrShowTimeNotSelected is returned when seats are picked before a showtime.
	ErrShowTimeNotSelected = errors.New("no showtime selected")
	// ErrShowTimeAlreadySelected is returned when changing the showtime
	// without going back to movie selection first.
	ErrShowTimeAlreadySelected = errors.New("showtime already selected")
	// ErrShowTimeMismatch is returned when the showtime belongs to another movie.
	ErrShowTimeMismatch = errors.New("showtime does not belong to the selected movie")
	// ErrSeatUnavailable is returned when the seat is booked or held by
	// another terminal.
	ErrSeatUnavailable = errors.New("seat is not available")
	// ErrProductNotSelected is returned when updating an unknown product by id.
	ErrProductNotSelected = errors.New("product not in selection")
	// ErrNoOrder is returned by payment steps before an order exists.
	ErrNoOrder = errors.New("no order for this sale yet")
	// ErrPaymentInProgress is returned when a second payment is started
	// while a ZaloPay attempt is in flight.
	ErrPaymentInProgress = errors.New("payment already in progress")
	// ErrNoPaymentInProgress is returned when cancelling without an attempt.
	ErrNoPaymentInProgress = errors.New("no payment in progress")
	// ErrSaleCompleted is returned for operations that make no sense after
	// the order was completed.
	ErrSaleCompleted = errors.New("sale already completed")
	// ErrAlreadyPaid is returned when a new payment or an order change is
	// attempted after a ZaloPay payment for the sale was confirmed.
	ErrAlreadyPaid = errors.New("payment already received for this sale")
	// ErrWrongStep is returned by navigation from a step it does not
	// start from.
	ErrWrongStep = errors.New("not allowed at the current step")
	// ErrSaleNotCompleted is returned when a receipt is requested too early.
	ErrSaleNotCompleted = errors.New("sale not completed")
	// ErrSessionReset is returned when the sale was reset (hold expiry or
	// back navigation) while a request for it was in flight.
	ErrSessionReset = errors.New("sale was reset while the request was in flight")
)
