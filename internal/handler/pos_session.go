package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/middleware"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/sale"
)

// Sessions is the session registry.  *sale.Manager implements it.
type Sessions interface {
	Create(ctx context.Context, staffID string) *sale.Session
	Get(ctx context.Context, id string) (*sale.Session, error)
	Close(ctx context.Context, id string) error
}

// SaleHandler drives sale sessions on behalf of POS terminals.  Every
// mutating endpoint answers with the session snapshot the terminal renders.
type SaleHandler struct {
	Sessions Sessions
	Catalog  Catalog
	Log      logrus.FieldLogger
}

type movieRequest struct {
	MovieID int64 `json:"movieId"`
}

type showTimeRequest struct {
	ShowTimeID int64 `json:"showTimeId"`
}

type seatRequest struct {
	SeatID int64 `json:"seatId"`
}

type productRequest struct {
	ProductID int64 `json:"productId"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type customerRequest struct {
	Phone string `json:"phone"`
}

// Seat states reported by SeatLayout.
const (
	SeatAvailable = "AVAILABLE"
	SeatSelected  = "SELECTED"
	SeatHeld      = "HELD"
	SeatBooked    = "BOOKED"
)

type seatView struct {
	model.Seat
	State string `json:"state"`
}

type seatRowView struct {
	Name  string     `json:"name"`
	Seats []seatView `json:"seats"`
}

// session loads the session and checks it belongs to the caller.  Managers
// may open any session; cashiers only their own.
func (h *SaleHandler) session(c echo.Context) (*sale.Session, error) {
	s, err := h.Sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if s.StaffID() != middleware.StaffID(c) && middleware.Role(c) != middleware.RoleManager {
		return nil, sale.ErrSessionNotFound
	}
	return s, nil
}

func (h *SaleHandler) snapshot(c echo.Context, s *sale.Session) error {
	return c.JSON(http.StatusOK, s.Snapshot())
}

// Create opens a new sale for the authenticated cashier.
func (h *SaleHandler) Create(c echo.Context) error {
	s := h.Sessions.Create(c.Request().Context(), middleware.StaffID(c))
	return c.JSON(http.StatusCreated, s.Snapshot())
}

// Get returns the session snapshot.
func (h *SaleHandler) Get(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

// Delete tears the session down.  A running ZaloPay poll is cancelled.
func (h *SaleHandler) Delete(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := h.Sessions.Close(c.Request().Context(), s.ID()); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SelectMovie sets the movie of the sale.
func (h *SaleHandler) SelectMovie(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req movieRequest
	if err := c.Bind(&req); err != nil || req.MovieID <= 0 {
		return badRequest(c, "movieId is required")
	}
	movie, err := h.Catalog.GetMovie(c.Request().Context(), req.MovieID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := s.SelectMovie(*movie); err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

// SelectShowTime sets the showtime and loads its seat layout.
func (h *SaleHandler) SelectShowTime(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req showTimeRequest
	if err := c.Bind(&req); err != nil || req.ShowTimeID <= 0 {
		return badRequest(c, "showTimeId is required")
	}
	ctx := c.Request().Context()
	st, err := h.Catalog.GetShowTime(ctx, req.ShowTimeID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := s.SelectShowTime(*st); err != nil {
		return fail(c, h.Log, err)
	}
	if _, err := h.refreshLayout(ctx, s); err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

func (h *SaleHandler) refreshLayout(ctx context.Context, s *sale.Session) (*model.SeatLayout, error) {
	st := s.ShowTime()
	if st == nil {
		return nil, sale.ErrShowTimeNotSelected
	}
	layout, err := h.Catalog.GetSeatLayout(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyLayout(layout); err != nil {
		return nil, err
	}
	return layout, nil
}

// SeatLayout returns the current layout of the selected showtime with a
// state per seat.  Local selection wins over the server flags.
func (h *SaleHandler) SeatLayout(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	layout, err := h.refreshLayout(c.Request().Context(), s)
	if err != nil {
		return fail(c, h.Log, err)
	}

	snap := s.Snapshot()
	selected := make(map[int64]bool, len(snap.SelectedSeats))
	for _, seat := range snap.SelectedSeats {
		selected[seat.ID] = true
	}
	held := make(map[int64]bool, len(snap.SelectedTempSeats))
	for _, seat := range snap.SelectedTempSeats {
		held[seat.ID] = true
	}

	rows := make([]seatRowView, 0, len(layout.Rows))
	for _, row := range layout.Rows {
		rv := seatRowView{Name: row.Name, Seats: make([]seatView, 0, len(row.Seats))}
		for _, seat := range row.Seats {
			state := SeatAvailable
			switch {
			case selected[seat.ID]:
				state = SeatSelected
			case seat.Booked:
				state = SeatBooked
			case held[seat.ID]:
				state = SeatHeld
			}
			rv.Seats = append(rv.Seats, seatView{Seat: seat, State: state})
		}
		rows = append(rows, rv)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showTimeId":    layout.ShowTimeID,
		"rows":          rows,
		"selectedSeats": snap.SelectedSeats,
	})
}

// seatsEditable refuses seat changes once the sale left seat selection.
func seatsEditable(s *sale.Session) error {
	if s.Step() != sale.StepChooseSeats {
		return errSeatsLocked
	}
	return nil
}

// AddSeat selects a seat after re-reading the layout so seats taken by
// other terminals are rejected.
func (h *SaleHandler) AddSeat(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := seatsEditable(s); err != nil {
		return fail(c, h.Log, err)
	}
	var req seatRequest
	if err := c.Bind(&req); err != nil || req.SeatID <= 0 {
		return badRequest(c, "seatId is required")
	}
	layout, err := h.refreshLayout(c.Request().Context(), s)
	if err != nil {
		return fail(c, h.Log, err)
	}
	seat, ok := layout.Seat(req.SeatID)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	}
	if err := s.AddSeat(seat); err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

// RemoveSeat deselects a seat.  Removing an unselected seat is a no-op.
func (h *SaleHandler) RemoveSeat(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := seatsEditable(s); err != nil {
		return fail(c, h.Log, err)
	}
	seatID, ok := paramID(c, "seatId")
	if !ok {
		return badRequest(c, "invalid seat id")
	}
	s.RemoveSeat(seatID)
	return h.snapshot(c, s)
}

// AddProduct adds one unit of a product.
func (h *SaleHandler) AddProduct(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req productRequest
	if err := c.Bind(&req); err != nil || req.ProductID <= 0 {
		return badRequest(c, "productId is required")
	}
	product, err := h.Catalog.GetProduct(c.Request().Context(), req.ProductID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	s.AddProduct(*product)
	return h.snapshot(c, s)
}

// UpdateProductQuantity sets the quantity of a product; zero removes it.
// A product not yet selected is looked up and added.
func (h *SaleHandler) UpdateProductQuantity(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	productID, ok := paramID(c, "productId")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req quantityRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil || *req.Quantity < 0 {
		return badRequest(c, "quantity must be zero or more")
	}

	err = s.UpdateProductQuantityByID(productID, *req.Quantity)
	if errors.Is(err, sale.ErrProductNotSelected) && *req.Quantity > 0 {
		product, perr := h.Catalog.GetProduct(c.Request().Context(), productID)
		if perr != nil {
			return fail(c, h.Log, perr)
		}
		s.UpdateProductQuantity(*product, *req.Quantity)
		err = nil
	}
	if err != nil && !errors.Is(err, sale.ErrProductNotSelected) {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

// SetCustomer attaches a member by phone number; an empty phone makes the
// sale a walk-in again.
func (h *SaleHandler) SetCustomer(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	var req customerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Phone == "" {
		s.SetCustomer(nil)
		return h.snapshot(c, s)
	}
	customer, err := h.Catalog.FindCustomerByPhone(c.Request().Context(), req.Phone)
	if err != nil {
		return fail(c, h.Log, err)
	}
	s.SetCustomer(customer)
	return h.snapshot(c, s)
}

// ProceedToCombo creates or updates the pending order for the selected
// seats and moves to product selection.
func (h *SaleHandler) ProceedToCombo(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := s.ProceedToComboSelection(c.Request().Context()); err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

// ProceedToPayment pushes products and customer to the order and moves to
// payment.
func (h *SaleHandler) ProceedToPayment(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := s.ProceedToPaymentSelection(c.Request().Context()); err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

// Back abandons the sale and returns to movie selection.
func (h *SaleHandler) Back(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	s.BackToChooseMovie()
	return h.snapshot(c, s)
}

// PayCash completes the order as a cash sale and returns the receipt.
func (h *SaleHandler) PayCash(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	receipt, err := s.PayCash(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"receipt": receipt, "session": s.Snapshot()})
}

// StartZaloPay generates the QR code.  The terminal then polls GET
// /sessions/:id until the step becomes COMPLETED or the payment disappears.
func (h *SaleHandler) StartZaloPay(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	zp, err := s.StartZaloPay(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"zalopay": zp, "session": s.Snapshot()})
}

// CancelZaloPay closes the QR modal and stops polling.
func (h *SaleHandler) CancelZaloPay(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := s.CancelZaloPay(); err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}

// Receipt returns the printable receipt of a completed sale.
func (h *SaleHandler) Receipt(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	receipt, err := s.Receipt()
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, receipt)
}

// Finish clears a completed sale so the terminal can start the next one.
func (h *SaleHandler) Finish(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := s.FinishSale(); err != nil {
		return fail(c, h.Log, err)
	}
	return h.snapshot(c, s)
}
