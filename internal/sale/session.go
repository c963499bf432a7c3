package sale

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/config"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

var tracer = otel.Tracer("github.com/Minhquanzz1002/cinema-web-sub001/internal/sale")

// Step is the screen a sale is on.
type Step string

const (
	StepChooseMovie Step = "CHOOSE_MOVIE"
	StepChooseSeats Step = "CHOOSE_SEATS"
	StepChooseCombo Step = "CHOOSE_COMBO"
	StepPayment     Step = "PAYMENT"
	StepCompleted   Step = "COMPLETED"
)

// Options configures a Session.
type Options struct {
	ID      string
	StaffID string
	API     OrderAPI
	Sink    Sink
	Config  config.SaleConfig
	Clock   clockwork.Clock
	Log     logrus.FieldLogger
	// OnChange runs after every state change, outside the session lock.
	// The manager uses it to persist snapshots.
	OnChange func(*Session)
}

// Session is one in-progress sale at a terminal.  Selection mutators are
// synchronous; navigation and payment calls talk to the cinema API and
// leave the state untouched when the call fails.
type Session struct {
	id        string
	staffID   string
	createdAt time.Time
	api       OrderAPI
	sink      Sink
	cfg       config.SaleConfig
	clock     clockwork.Clock
	poller    *Poller
	log       *logrus.Entry
	onChange  func(*Session)

	mu              sync.Mutex
	step            Step
	movie           *model.Movie
	showTime        *model.ShowTime
	layout          *model.SeatLayout
	seats           []model.Seat
	tempSeats       []model.Seat
	products        []model.ProductItem
	customer        *model.Customer
	orderCustomerID *int64
	order           *model.Order
	loadingRedirect bool
	updatedAt       time.Time

	// epoch changes on every reset; in-flight calls compare it before
	// applying their result.
	epoch uint64

	countdown    *Countdown
	countdownGen uint64
	holdExpired  bool

	zpAppTransID     *string
	zpQRURL          string
	zpStartedAt      time.Time
	poll             *PollHandle
	paymentConfirmed bool
	// paidTransID survives the attempt it was confirmed on; only a reset
	// clears it.
	paidTransID string

	completedAt   time.Time
	finalizeError string
}

// NewSession creates an empty sale on the movie selection step.
func NewSession(opts Options) *Session {
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	var log logrus.FieldLogger = opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	entry := log.WithFields(logrus.Fields{"session_id": opts.ID, "staff_id": opts.StaffID})
	now := clk.Now()
	return &Session{
		id:        opts.ID,
		staffID:   opts.StaffID,
		createdAt: now,
		updatedAt: now,
		api:       opts.API,
		sink:      sink,
		cfg:       opts.Config,
		clock:     clk,
		poller: NewPoller(clk, opts.Config.PollInterval, opts.Config.SuccessGrace,
			opts.Config.ScanWindow, opts.Config.AbortOnScanTimeout, entry),
		log:      entry,
		onChange: opts.OnChange,
		step:     StepChooseMovie,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// StaffID returns the cashier that opened the session.
func (s *Session) StaffID() string { return s.staffID }

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// ShowTime returns the selected showtime, if any.
func (s *Session) ShowTime() *model.ShowTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.showTime == nil {
		return nil
	}
	st := *s.showTime
	return &st
}

// Order returns a copy of the current order snapshot, or nil.
func (s *Session) Order() *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Clone()
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange(s)
	}
}

func (s *Session) touchLocked() {
	s.updatedAt = s.clock.Now()
}

// SelectMovie sets the movie.  Once set it cannot be changed without
// BackToChooseMovie.
func (s *Session) SelectMovie(movie model.Movie) error {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.movie != nil {
		if s.movie.ID == movie.ID {
			return nil
		}
		return ErrMovieAlreadySelected
	}
	s.movie = &movie
	s.step = StepChooseMovie
	s.touchLocked()
	return nil
}

// SelectShowTime sets the showtime and moves to seat selection.  Like the
// movie, it is immutable once set.
func (s *Session) SelectShowTime(showTime model.ShowTime) error {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.movie == nil {
		return ErrMovieNotSelected
	}
	if showTime.MovieID != 0 && showTime.MovieID != s.movie.ID {
		return ErrShowTimeMismatch
	}
	if s.showTime != nil {
		if s.showTime.ID == showTime.ID {
			return nil
		}
		return ErrShowTimeAlreadySelected
	}
	s.showTime = &showTime
	s.seats = nil
	s.layout = nil
	s.tempSeats = nil
	s.step = StepChooseSeats
	s.touchLocked()
	return nil
}

// ApplyLayout stores the server seat layout of the selected showtime and
// derives the seats held by other terminals.  Seats selected here are
// never reported as held by others.
func (s *Session) ApplyLayout(layout *model.SeatLayout) error {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.showTime == nil {
		return ErrShowTimeNotSelected
	}
	s.layout = layout
	s.tempSeats = nil
	for _, seat := range layout.TempHeldSeats() {
		if s.seatIndexLocked(seat.ID) < 0 {
			s.tempSeats = append(s.tempSeats, seat)
		}
	}
	s.touchLocked()
	return nil
}

func (s *Session) seatIndexLocked(id int64) int {
	for i, seat := range s.seats {
		if seat.ID == id {
			return i
		}
	}
	return -1
}

// AddSeat appends the seat to the selection.  Adding a seat that is
// already selected is a no-op.  Seats the layout reports as booked or held
// elsewhere are rejected.
func (s *Session) AddSeat(seat model.Seat) error {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.movie == nil || s.showTime == nil {
		return ErrShowTimeNotSelected
	}
	if s.seatIndexLocked(seat.ID) >= 0 {
		return nil
	}
	if known, ok := s.layout.Seat(seat.ID); ok {
		seat = known
	}
	if seat.Booked || seat.TempHeld {
		return fmt.Errorf("seat %s: %w", seat.Name, ErrSeatUnavailable)
	}
	s.seats = append(s.seats, seat)
	s.touchLocked()
	return nil
}

// RemoveSeat removes the seat with the given id; absent ids are ignored.
func (s *Session) RemoveSeat(seatID int64) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.seatIndexLocked(seatID); i >= 0 {
		s.seats = append(s.seats[:i], s.seats[i+1:]...)
		s.touchLocked()
	}
}

func (s *Session) productIndexLocked(id int64) int {
	for i, item := range s.products {
		if item.Product.ID == id {
			return i
		}
	}
	return -1
}

// AddProduct adds the product with quantity 1 unless it is already
// selected.
func (s *Session) AddProduct(product model.Product) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.productIndexLocked(product.ID) >= 0 {
		return
	}
	s.products = append(s.products, model.ProductItem{Product: product, Quantity: 1})
	s.touchLocked()
}

// UpdateProductQuantity sets the quantity of product, creating the entry
// if needed.  A quantity of 0 or less removes it.
func (s *Session) UpdateProductQuantity(product model.Product, quantity int) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setQuantityLocked(&product, product.ID, quantity)
}

// UpdateProductQuantityByID is UpdateProductQuantity for callers that only
// know the id.  Raising the quantity of a product that is not selected
// fails with ErrProductNotSelected.
func (s *Session) UpdateProductQuantityByID(productID int64, quantity int) error {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	if quantity > 0 && s.productIndexLocked(productID) < 0 {
		return ErrProductNotSelected
	}
	s.setQuantityLocked(nil, productID, quantity)
	return nil
}

func (s *Session) setQuantityLocked(product *model.Product, id int64, quantity int) {
	i := s.productIndexLocked(id)
	switch {
	case quantity <= 0:
		if i < 0 {
			return
		}
		s.products = append(s.products[:i], s.products[i+1:]...)
	case i >= 0:
		s.products[i].Quantity = quantity
	default:
		s.products = append(s.products, model.ProductItem{Product: *product, Quantity: quantity})
	}
	s.touchLocked()
}

// SetCustomer replaces the customer; nil means walk-in.
func (s *Session) SetCustomer(customer *model.Customer) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	if customer != nil {
		c := *customer
		customer = &c
	}
	s.customer = customer
	s.touchLocked()
}

// SetOrder replaces the order snapshot wholesale.
func (s *Session) SetOrder(order *model.Order) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyOrderLocked(order.Clone())
}

// UpdateOrder overlays a partial order response on the current snapshot
// without dropping fields the response left out.
func (s *Session) UpdateOrder(patch *model.OrderPatch) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyOrderLocked(s.order.Merge(patch))
}

func (s *Session) applyOrderLocked(order *model.Order) {
	s.order = order
	s.touchLocked()
	if s.step == StepCompleted {
		s.stopCountdownLocked()
		return
	}
	s.syncCountdownLocked()
}

// beginRedirect sets the busy flag.  The returned epoch identifies the
// state the call started from.
func (s *Session) beginRedirectLocked() (uint64, error) {
	if s.loadingRedirect {
		return 0, ErrBusy
	}
	s.loadingRedirect = true
	return s.epoch, nil
}

func (s *Session) endRedirect() {
	s.mu.Lock()
	s.loadingRedirect = false
	s.mu.Unlock()
}

// checkOrderOpenLocked rejects changes to an order that is being paid or
// was paid.
func (s *Session) checkOrderOpenLocked() error {
	switch {
	case s.step == StepCompleted:
		return ErrSaleCompleted
	case s.paidTransID != "":
		return ErrAlreadyPaid
	case s.zpAppTransID != nil:
		return ErrPaymentInProgress
	}
	return nil
}

func seatIDs(seats []model.Seat) []int64 {
	ids := make([]int64, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID
	}
	return ids
}

func sameCustomer(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ProceedToComboSelection creates the pending order for the selected seats,
// or updates its seats when the order already exists, then moves to combo
// selection.
func (s *Session) ProceedToComboSelection(ctx context.Context) (err error) {
	defer s.changed()
	ctx, span := tracer.Start(ctx, "sale.ProceedToComboSelection", trace.WithAttributes(attribute.String("session.id", s.id)))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	if err := s.checkOrderOpenLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.showTime == nil {
		s.mu.Unlock()
		return ErrShowTimeNotSelected
	}
	if s.step != StepChooseSeats && s.step != StepChooseCombo {
		s.mu.Unlock()
		return ErrWrongStep
	}
	epoch, err := s.beginRedirectLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	defer s.endRedirect()
	ids := seatIDs(s.seats)
	showTimeID := s.showTime.ID
	var customerID *int64
	if s.customer != nil {
		id := s.customer.ID
		customerID = &id
	}
	existing := s.order.Clone()
	s.mu.Unlock()

	var order *model.Order
	if existing == nil {
		order, err = s.api.CreateOrder(ctx, model.CreateOrderRequest{ShowTimeID: showTimeID, SeatIDs: ids, CustomerID: customerID})
		if err != nil {
			s.log.WithError(err).Warn("create order failed")
			return fmt.Errorf("create order: %w", err)
		}
	} else {
		partial, uerr := s.api.UpdateOrderSeats(ctx, existing.ID, ids)
		if uerr != nil {
			s.log.WithError(uerr).WithField("order_id", existing.ID).Warn("update order seats failed")
			return fmt.Errorf("update order %d seats: %w", existing.ID, uerr)
		}
		order = existing.Merge(partial)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrSessionReset
	}
	if existing == nil {
		s.orderCustomerID = customerID
	}
	s.applyOrderLocked(order)
	s.step = StepChooseCombo
	s.log.WithFields(logrus.Fields{"order_id": order.ID, "seats": len(ids)}).Info("seats synced to order")
	return nil
}

// ProceedToPaymentSelection syncs the product selection, and the customer
// if it changed, to the pending order, then moves to payment.
func (s *Session) ProceedToPaymentSelection(ctx context.Context) (err error) {
	defer s.changed()
	ctx, span := tracer.Start(ctx, "sale.ProceedToPaymentSelection", trace.WithAttributes(attribute.String("session.id", s.id)))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	if err := s.checkOrderOpenLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.order == nil {
		s.mu.Unlock()
		return ErrNoOrder
	}
	if s.step != StepChooseCombo && s.step != StepPayment {
		s.mu.Unlock()
		return ErrWrongStep
	}
	epoch, err := s.beginRedirectLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	defer s.endRedirect()
	existing := s.order.Clone()
	items := make([]model.OrderProductInput, 0, len(s.products))
	for _, item := range s.products {
		items = append(items, model.OrderProductInput{ProductID: item.Product.ID, Quantity: item.Quantity})
	}
	var customerID *int64
	if s.customer != nil {
		id := s.customer.ID
		customerID = &id
	}
	syncCustomer := !sameCustomer(customerID, s.orderCustomerID)
	s.mu.Unlock()

	partial, err := s.api.UpdateOrderProducts(ctx, existing.ID, items)
	if err != nil {
		s.log.WithError(err).WithField("order_id", existing.ID).Warn("update order products failed")
		return fmt.Errorf("update order %d products: %w", existing.ID, err)
	}
	order := existing.Merge(partial)
	if syncCustomer {
		partial, err = s.api.UpdateOrderCustomer(ctx, existing.ID, customerID)
		if err != nil {
			s.log.WithError(err).WithField("order_id", existing.ID).Warn("update order customer failed")
			return fmt.Errorf("update order %d customer: %w", existing.ID, err)
		}
		order = order.Merge(partial)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrSessionReset
	}
	if syncCustomer {
		s.orderCustomerID = customerID
	}
	s.applyOrderLocked(order)
	s.step = StepPayment
	s.log.WithFields(logrus.Fields{"order_id": order.ID, "products": len(items)}).Info("products synced to order")
	return nil
}

// BackToChooseMovie abandons the sale and returns to movie selection.  Any
// payment attempt is cancelled.
func (s *Session) BackToChooseMovie() {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// resetLocked clears the sale and stops every timer it owns.
func (s *Session) resetLocked() {
	s.stopCountdownLocked()
	s.poll.Cancel()
	s.poll = nil

	s.step = StepChooseMovie
	s.movie = nil
	s.showTime = nil
	s.layout = nil
	s.seats = nil
	s.tempSeats = nil
	s.products = nil
	s.customer = nil
	s.orderCustomerID = nil
	s.order = nil
	s.holdExpired = false
	s.zpAppTransID = nil
	s.zpQRURL = ""
	s.zpStartedAt = time.Time{}
	s.paymentConfirmed = false
	s.paidTransID = ""
	s.completedAt = time.Time{}
	s.finalizeError = ""
	s.epoch++
	s.touchLocked()
}

// Close stops the timers without touching the sale state.  Used when the
// session is dropped from memory.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked()
	s.poll.Cancel()
	s.poll = nil
}

// syncCountdownLocked keeps the countdown anchored on the current order
// date, restarting it when the date changed.
func (s *Session) syncCountdownLocked() {
	if s.order == nil || s.order.OrderDate == nil {
		s.stopCountdownLocked()
		return
	}
	if s.countdown != nil && s.countdown.OrderDate().Equal(*s.order.OrderDate) {
		return
	}
	if s.holdExpired {
		// a lapsed hold stays lapsed until the sale resets
		return
	}
	s.stopCountdownLocked()
	gen := s.countdownGen
	s.countdown = StartCountdown(s.clock, s.order.OrderDate, s.cfg.HoldWindow, nil, func() {
		s.onHoldExpired(gen)
	})
}

func (s *Session) stopCountdownLocked() {
	s.countdown.Stop()
	s.countdown = nil
	s.countdownGen++
}

// onHoldExpired handles the end of the seat hold.  A confirmed payment
// wins over the expiry; a payment still awaiting the scan only marks the
// hold as lapsed, and the sale resets if that attempt does not succeed.
func (s *Session) onHoldExpired(gen uint64) {
	defer s.changed()
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.countdownGen || s.step == StepCompleted {
		return
	}
	s.countdown = nil
	switch {
	case s.paymentConfirmed, s.paidTransID != "":
		s.log.Info("seat hold expired after payment confirmation; ignoring")
	case s.zpAppTransID != nil:
		s.holdExpired = true
		s.log.WithField("trans_id", *s.zpAppTransID).Warn("seat hold expired while awaiting zalopay scan")
	default:
		s.log.Info("seat hold expired; resetting sale")
		s.resetLocked()
	}
	s.touchLocked()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
