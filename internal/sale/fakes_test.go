package sale

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/config"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/logger"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

// fakeAPI implements OrderAPI with overridable behaviour.  Unset functions
// answer with a plausible order.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	createOrder    func(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error)
	updateSeats    func(ctx context.Context, orderID int64, seatIDs []int64) (*model.OrderPatch, error)
	updateProducts func(ctx context.Context, orderID int64, items []model.OrderProductInput) (*model.OrderPatch, error)
	updateCustomer func(ctx context.Context, orderID int64, customerID *int64) (*model.OrderPatch, error)
	completeOrder  func(ctx context.Context, orderID int64, req model.CompleteOrderRequest) (*model.OrderPatch, error)
	createZaloPay  func(ctx context.Context, orderID int64) (*model.ZaloPayOrder, error)
	zaloPayStatus  func(ctx context.Context, transID string) (model.PaymentStatus, error)

	orderDate time.Time
}

func ptr[T any](v T) *T { return &v }

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	f.record("CreateOrder")
	if f.createOrder != nil {
		return f.createOrder(ctx, req)
	}
	d := f.orderDate
	if d.IsZero() {
		d = epoch0
	}
	return &model.Order{
		ID:          42,
		Code:        "HD000042",
		OrderDate:   &d,
		FinalAmount: decimal.NewFromInt(90000 * int64(len(req.SeatIDs))),
		Status:      model.OrderStatusPending,
	}, nil
}

func (f *fakeAPI) UpdateOrderSeats(ctx context.Context, orderID int64, seatIDs []int64) (*model.OrderPatch, error) {
	f.record("UpdateOrderSeats")
	if f.updateSeats != nil {
		return f.updateSeats(ctx, orderID, seatIDs)
	}
	return &model.OrderPatch{ID: ptr(orderID), FinalAmount: decimal.NewNullDecimal(decimal.NewFromInt(90000 * int64(len(seatIDs))))}, nil
}

func (f *fakeAPI) UpdateOrderProducts(ctx context.Context, orderID int64, items []model.OrderProductInput) (*model.OrderPatch, error) {
	f.record("UpdateOrderProducts")
	if f.updateProducts != nil {
		return f.updateProducts(ctx, orderID, items)
	}
	return &model.OrderPatch{ID: ptr(orderID)}, nil
}

func (f *fakeAPI) UpdateOrderCustomer(ctx context.Context, orderID int64, customerID *int64) (*model.OrderPatch, error) {
	f.record("UpdateOrderCustomer")
	if f.updateCustomer != nil {
		return f.updateCustomer(ctx, orderID, customerID)
	}
	return &model.OrderPatch{ID: ptr(orderID)}, nil
}

func (f *fakeAPI) CompleteOrder(ctx context.Context, orderID int64, req model.CompleteOrderRequest) (*model.OrderPatch, error) {
	f.record("CompleteOrder")
	if f.completeOrder != nil {
		return f.completeOrder(ctx, orderID, req)
	}
	return &model.OrderPatch{ID: ptr(orderID), Status: ptr(model.OrderStatusCompleted), PaymentMethod: ptr(req.PaymentMethod)}, nil
}

func (f *fakeAPI) CreateZaloPayOrder(ctx context.Context, orderID int64) (*model.ZaloPayOrder, error) {
	f.record("CreateZaloPayOrder")
	if f.createZaloPay != nil {
		return f.createZaloPay(ctx, orderID)
	}
	return &model.ZaloPayOrder{QRURL: "https://qr.example/241016_42", TransID: "241016_42"}, nil
}

func (f *fakeAPI) GetZaloPayStatus(ctx context.Context, transID string) (model.PaymentStatus, error) {
	f.record("GetZaloPayStatus")
	if f.zaloPayStatus != nil {
		return f.zaloPayStatus(ctx, transID)
	}
	return model.PaymentPending, nil
}

type fakeSink struct {
	completed chan model.Receipt
	incidents chan Incident
}

func newFakeSink() *fakeSink {
	return &fakeSink{completed: make(chan model.Receipt, 8), incidents: make(chan Incident, 8)}
}

func (f *fakeSink) SaleCompleted(ctx context.Context, r model.Receipt) error {
	f.completed <- r
	return nil
}

func (f *fakeSink) SaleIncident(ctx context.Context, inc Incident) error {
	f.incidents <- inc
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{snaps: make(map[string]Snapshot)}
}

func (f *fakeStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps[snap.ID] = snap
	return nil
}

func (f *fakeStore) LoadSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snaps[id]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (f *fakeStore) DeleteSnapshot(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, id)
	return nil
}

var (
	testMovie    = model.Movie{ID: 1, Code: "PH001", Title: "Dune: Part Two", Duration: 166}
	testShowTime = model.ShowTime{ID: 5, MovieID: 1, CinemaName: "Galaxy Nguyen Du", RoomName: "P3", StartTime: epoch0.Add(2 * time.Hour)}
	seatA1       = model.Seat{ID: 101, Name: "A1", RowName: "A", ColumnIndex: 1, Type: "NORMAL"}
	seatA2       = model.Seat{ID: 102, Name: "A2", RowName: "A", ColumnIndex: 2, Type: "NORMAL"}
	seatA3       = model.Seat{ID: 103, Name: "A3", RowName: "A", ColumnIndex: 3, Type: "NORMAL"}
	popcorn      = model.Product{ID: 7, Code: "SP007", Name: "Popcorn L", Price: decimal.NewFromInt(65000)}
	coke         = model.Product{ID: 8, Code: "SP008", Name: "Coke", Price: decimal.NewFromInt(30000)}
)

func newTestSession(t *testing.T, api OrderAPI, sink Sink, clk clockwork.Clock) *Session {
	t.Helper()
	if sink == nil {
		sink = newFakeSink()
	}
	s := NewSession(Options{
		ID:      "sess-1",
		StaffID: "staff-9",
		API:     api,
		Sink:    sink,
		Config:  config.DefaultSaleConfig(),
		Clock:   clk,
		Log:     logger.Discard(),
	})
	t.Cleanup(s.Close)
	return s
}

// seatsStep returns a session with movie and showtime selected.
func seatsStep(t *testing.T, api OrderAPI, sink Sink, clk clockwork.Clock) *Session {
	t.Helper()
	s := newTestSession(t, api, sink, clk)
	if err := s.SelectMovie(testMovie); err != nil {
		t.Fatal(err)
	}
	if err := s.SelectShowTime(testShowTime); err != nil {
		t.Fatal(err)
	}
	return s
}

// paymentStep returns a session with an order on the payment step.
func paymentStep(t *testing.T, api OrderAPI, sink Sink, clk clockwork.Clock) *Session {
	t.Helper()
	s := seatsStep(t, api, sink, clk)
	if err := s.AddSeat(seatA1); err != nil {
		t.Fatal(err)
	}
	if err := s.ProceedToComboSelection(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.ProceedToPaymentSelection(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}
