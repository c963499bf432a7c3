package handler_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/apiclient"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

var epoch0 = time.Date(2024, 10, 16, 9, 0, 0, 0, time.UTC)

var (
	dune    = model.Movie{ID: 1, Code: "PH001", Title: "Dune: Part Two", Duration: 166, Status: "NOW_SHOWING"}
	morning = model.ShowTime{ID: 5, MovieID: 1, CinemaName: "Galaxy Nguyen Du", RoomName: "P3", StartTime: epoch0.Add(2 * time.Hour)}
	popcorn = model.Product{ID: 7, Code: "SP007", Name: "Popcorn L", Price: decimal.NewFromInt(65000), Status: "ACTIVE"}
	member  = model.Customer{ID: 77, Code: "KH077", Name: "Tran Thi B", Phone: "0901234567"}
)

// fakeCinema serves both the catalog and the order endpoints of the
// cinema API.  A1 is free, A2 booked and A3 held by another terminal.
type fakeCinema struct {
	mu        sync.Mutex
	completed []model.CompleteOrderRequest
	days      []time.Time
}

func (f *fakeCinema) ListMovies(ctx context.Context) ([]model.Movie, error) {
	return []model.Movie{dune}, nil
}

func (f *fakeCinema) GetMovie(ctx context.Context, id int64) (*model.Movie, error) {
	if id != dune.ID {
		return nil, apiclient.ErrNotFound
	}
	m := dune
	return &m, nil
}

func (f *fakeCinema) ListShowTimes(ctx context.Context, movieID int64, day time.Time) ([]model.ShowTime, error) {
	f.mu.Lock()
	f.days = append(f.days, day)
	f.mu.Unlock()
	return []model.ShowTime{morning}, nil
}

func (f *fakeCinema) GetShowTime(ctx context.Context, id int64) (*model.ShowTime, error) {
	if id != morning.ID {
		return nil, apiclient.ErrNotFound
	}
	st := morning
	return &st, nil
}

func (f *fakeCinema) GetSeatLayout(ctx context.Context, showTimeID int64) (*model.SeatLayout, error) {
	return &model.SeatLayout{
		ShowTimeID: showTimeID,
		Rows: []model.SeatRow{{
			Name: "A",
			Seats: []model.Seat{
				{ID: 101, Name: "A1", RowName: "A", ColumnIndex: 1, Type: "NORMAL"},
				{ID: 102, Name: "A2", RowName: "A", ColumnIndex: 2, Type: "NORMAL", Booked: true},
				{ID: 103, Name: "A3", RowName: "A", ColumnIndex: 3, Type: "NORMAL", TempHeld: true},
			},
		}},
	}, nil
}

func (f *fakeCinema) ListProducts(ctx context.Context) ([]model.Product, error) {
	return []model.Product{popcorn}, nil
}

func (f *fakeCinema) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if id != popcorn.ID {
		return nil, apiclient.ErrNotFound
	}
	p := popcorn
	return &p, nil
}

func (f *fakeCinema) FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	if phone != member.Phone {
		return nil, apiclient.ErrNotFound
	}
	c := member
	return &c, nil
}

func (f *fakeCinema) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	d := epoch0
	return &model.Order{
		ID:          42,
		Code:        "HD000042",
		OrderDate:   &d,
		TotalPrice:  decimal.NewFromInt(90000 * int64(len(req.SeatIDs))),
		FinalAmount: decimal.NewFromInt(90000 * int64(len(req.SeatIDs))),
		Status:      model.OrderStatusPending,
	}, nil
}

func (f *fakeCinema) UpdateOrderSeats(ctx context.Context, orderID int64, seatIDs []int64) (*model.OrderPatch, error) {
	return &model.OrderPatch{ID: &orderID}, nil
}

func (f *fakeCinema) UpdateOrderProducts(ctx context.Context, orderID int64, items []model.OrderProductInput) (*model.OrderPatch, error) {
	return &model.OrderPatch{ID: &orderID, FinalAmount: decimal.NewNullDecimal(decimal.NewFromInt(155000))}, nil
}

func (f *fakeCinema) UpdateOrderCustomer(ctx context.Context, orderID int64, customerID *int64) (*model.OrderPatch, error) {
	return &model.OrderPatch{ID: &orderID}, nil
}

func (f *fakeCinema) CompleteOrder(ctx context.Context, orderID int64, req model.CompleteOrderRequest) (*model.OrderPatch, error) {
	f.mu.Lock()
	f.completed = append(f.completed, req)
	f.mu.Unlock()
	d := epoch0
	return model.PatchOf(model.Order{
		ID:            orderID,
		Code:          "HD000042",
		OrderDate:     &d,
		FinalAmount:   decimal.NewFromInt(155000),
		Status:        model.OrderStatusCompleted,
		PaymentMethod: req.PaymentMethod,
	}), nil
}

func (f *fakeCinema) CreateZaloPayOrder(ctx context.Context, orderID int64) (*model.ZaloPayOrder, error) {
	return &model.ZaloPayOrder{QRURL: "https://qr.example/241016_42", TransID: "241016_42"}, nil
}

func (f *fakeCinema) GetZaloPayStatus(ctx context.Context, transID string) (model.PaymentStatus, error) {
	return model.PaymentPending, nil
}
