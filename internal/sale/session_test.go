package sale

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/model"
)

func TestAddSeatIsIdempotent(t *testing.T) {
	s := seatsStep(t, &fakeAPI{}, nil, clockwork.NewFakeClockAt(epoch0))

	require.NoError(t, s.AddSeat(seatA1))
	require.NoError(t, s.AddSeat(seatA1))

	snap := s.Snapshot()
	require.Len(t, snap.SelectedSeats, 1)
	assert.Equal(t, seatA1.ID, snap.SelectedSeats[0].ID)
}

func TestRemoveSeat(t *testing.T) {
	s := seatsStep(t, &fakeAPI{}, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))
	require.NoError(t, s.AddSeat(seatA2))

	s.RemoveSeat(seatA1.ID)
	s.RemoveSeat(999)

	snap := s.Snapshot()
	require.Len(t, snap.SelectedSeats, 1)
	assert.Equal(t, "A2", snap.SelectedSeats[0].Name)
}

func TestAddSeatNeedsShowTime(t *testing.T) {
	s := newTestSession(t, &fakeAPI{}, nil, clockwork.NewFakeClockAt(epoch0))

	err := s.AddSeat(seatA1)

	assert.ErrorIs(t, err, ErrShowTimeNotSelected)
	assert.Empty(t, s.Snapshot().SelectedSeats)
}

func TestMovieAndShowTimeAreImmutable(t *testing.T) {
	s := newTestSession(t, &fakeAPI{}, nil, clockwork.NewFakeClockAt(epoch0))

	assert.ErrorIs(t, s.SelectShowTime(testShowTime), ErrMovieNotSelected)
	require.NoError(t, s.SelectMovie(testMovie))
	assert.NoError(t, s.SelectMovie(testMovie))
	assert.ErrorIs(t, s.SelectMovie(model.Movie{ID: 2}), ErrMovieAlreadySelected)

	assert.ErrorIs(t, s.SelectShowTime(model.ShowTime{ID: 6, MovieID: 2}), ErrShowTimeMismatch)
	require.NoError(t, s.SelectShowTime(testShowTime))
	assert.ErrorIs(t, s.SelectShowTime(model.ShowTime{ID: 6, MovieID: 1}), ErrShowTimeAlreadySelected)
	assert.Equal(t, StepChooseSeats, s.Step())
}

func TestLayoutLocalSelectionTakesPrecedence(t *testing.T) {
	s := seatsStep(t, &fakeAPI{}, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))

	held1, held2, booked := seatA1, seatA2, seatA3
	held1.TempHeld = true
	held2.TempHeld = true
	booked.Booked = true
	require.NoError(t, s.ApplyLayout(&model.SeatLayout{
		ShowTimeID: testShowTime.ID,
		Rows:       []model.SeatRow{{Name: "A", Seats: []model.Seat{held1, held2, booked}}},
	}))

	snap := s.Snapshot()
	require.Len(t, snap.SelectedTempSeats, 1)
	assert.Equal(t, seatA2.ID, snap.SelectedTempSeats[0].ID)

	assert.NoError(t, s.AddSeat(seatA1), "own selection stays selectable")
	assert.ErrorIs(t, s.AddSeat(seatA2), ErrSeatUnavailable)
	assert.ErrorIs(t, s.AddSeat(seatA3), ErrSeatUnavailable)
	assert.Len(t, s.Snapshot().SelectedSeats, 1)
}

func TestProductQuantities(t *testing.T) {
	s := seatsStep(t, &fakeAPI{}, nil, clockwork.NewFakeClockAt(epoch0))

	s.AddProduct(popcorn)
	s.UpdateProductQuantity(popcorn, 3)
	s.AddProduct(popcorn)
	s.UpdateProductQuantity(coke, 2)

	snap := s.Snapshot()
	require.Len(t, snap.SelectedProducts, 2)
	assert.Equal(t, 3, snap.SelectedProducts[0].Quantity)
	assert.Equal(t, 2, snap.SelectedProducts[1].Quantity)

	s.UpdateProductQuantity(popcorn, 0)
	s.UpdateProductQuantity(popcorn, 0)
	require.NoError(t, s.UpdateProductQuantityByID(popcorn.ID, 0))

	snap = s.Snapshot()
	require.Len(t, snap.SelectedProducts, 1)
	assert.Equal(t, coke.ID, snap.SelectedProducts[0].Product.ID)

	assert.ErrorIs(t, s.UpdateProductQuantityByID(popcorn.ID, 1), ErrProductNotSelected)
	require.NoError(t, s.UpdateProductQuantityByID(coke.ID, 4))
	assert.Equal(t, 4, s.Snapshot().SelectedProducts[0].Quantity)
}

func TestBackToChooseMovieResetsSale(t *testing.T) {
	clk := clockwork.NewFakeClockAt(epoch0)
	s := seatsStep(t, &fakeAPI{}, nil, clk)
	require.NoError(t, s.AddSeat(seatA1))
	s.AddProduct(popcorn)
	s.SetCustomer(&model.Customer{ID: 3, Name: "Tran Thi B"})
	require.NoError(t, s.ProceedToComboSelection(context.Background()))
	require.NotNil(t, s.Order())

	s.BackToChooseMovie()

	snap := s.Snapshot()
	assert.Empty(t, snap.SelectedSeats)
	assert.Empty(t, snap.SelectedProducts)
	assert.Nil(t, snap.Order)
	assert.Nil(t, snap.Movie)
	assert.Nil(t, snap.ShowTime)
	assert.Nil(t, snap.Customer)
	assert.Nil(t, snap.HoldRemainingSeconds)
	assert.Equal(t, StepChooseMovie, snap.Step)

	ctx := testContext(t)
	require.NoError(t, clk.BlockUntilContext(ctx, 0), "hold countdown must be stopped")
}

func TestProceedToComboCreatesOrderAndStartsHold(t *testing.T) {
	clk := clockwork.NewFakeClockAt(epoch0.Add(time.Minute))
	var got model.CreateOrderRequest
	api := &fakeAPI{}
	api.createOrder = func(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
		got = req
		d := epoch0
		return &model.Order{ID: 42, Code: "HD000042", OrderDate: &d, FinalAmount: decimal.NewFromInt(180000)}, nil
	}
	s := seatsStep(t, api, nil, clk)
	require.NoError(t, s.AddSeat(seatA1))
	require.NoError(t, s.AddSeat(seatA2))

	require.NoError(t, s.ProceedToComboSelection(context.Background()))

	assert.Equal(t, testShowTime.ID, got.ShowTimeID)
	assert.Equal(t, []int64{101, 102}, got.SeatIDs)
	assert.Nil(t, got.CustomerID)

	snap := s.Snapshot()
	assert.Equal(t, StepChooseCombo, snap.Step)
	assert.False(t, snap.IsLoadingRedirect)
	require.NotNil(t, snap.HoldRemainingSeconds)
	assert.Equal(t, 360, *snap.HoldRemainingSeconds)
}

func TestProceedToComboUpdatesExistingOrder(t *testing.T) {
	api := &fakeAPI{}
	s := seatsStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))
	require.NoError(t, s.ProceedToComboSelection(context.Background()))

	require.NoError(t, s.AddSeat(seatA2))
	require.NoError(t, s.ProceedToComboSelection(context.Background()))

	assert.Equal(t, 1, api.count("CreateOrder"))
	assert.Equal(t, 1, api.count("UpdateOrderSeats"))
	order := s.Order()
	assert.Equal(t, "HD000042", order.Code, "partial update keeps the code")
	assert.True(t, order.FinalAmount.Equal(decimal.NewFromInt(180000)))
}

func TestFailedProceedLeavesStateIntact(t *testing.T) {
	api := &fakeAPI{}
	api.createOrder = func(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
		return nil, errors.New("seat already taken")
	}
	s := seatsStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))

	err := s.ProceedToComboSelection(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seat already taken")
	snap := s.Snapshot()
	assert.Nil(t, snap.Order)
	assert.False(t, snap.IsLoadingRedirect)
	assert.Equal(t, StepChooseSeats, snap.Step)
	assert.Len(t, snap.SelectedSeats, 1)
}

func TestFailedProductSyncKeepsPreviousOrder(t *testing.T) {
	api := &fakeAPI{}
	s := seatsStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))
	require.NoError(t, s.ProceedToComboSelection(context.Background()))
	before := s.Order()

	api.updateProducts = func(ctx context.Context, orderID int64, items []model.OrderProductInput) (*model.OrderPatch, error) {
		return &model.OrderPatch{ID: ptr(orderID), FinalAmount: decimal.NewNullDecimal(decimal.NewFromInt(1))}, nil
	}
	api.updateCustomer = func(ctx context.Context, orderID int64, customerID *int64) (*model.OrderPatch, error) {
		return nil, errors.New("customer service down")
	}
	s.AddProduct(popcorn)
	s.SetCustomer(&model.Customer{ID: 3})

	err := s.ProceedToPaymentSelection(context.Background())

	require.Error(t, err)
	assert.Equal(t, before, s.Order())
	assert.Equal(t, StepChooseCombo, s.Step())
	assert.False(t, s.Snapshot().IsLoadingRedirect)
}

func TestProceedToPaymentSyncsProductsAndCustomer(t *testing.T) {
	var items []model.OrderProductInput
	var customerID *int64
	api := &fakeAPI{}
	api.updateProducts = func(ctx context.Context, orderID int64, in []model.OrderProductInput) (*model.OrderPatch, error) {
		items = in
		return &model.OrderPatch{ID: ptr(orderID), FinalAmount: decimal.NewNullDecimal(decimal.NewFromInt(250000))}, nil
	}
	api.updateCustomer = func(ctx context.Context, orderID int64, id *int64) (*model.OrderPatch, error) {
		customerID = id
		return &model.OrderPatch{ID: ptr(orderID), TotalDiscount: decimal.NewNullDecimal(decimal.NewFromInt(10000))}, nil
	}
	s := seatsStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))
	require.NoError(t, s.ProceedToComboSelection(context.Background()))
	s.AddProduct(popcorn)
	s.UpdateProductQuantity(coke, 2)
	s.SetCustomer(&model.Customer{ID: 3, Name: "Tran Thi B"})

	require.NoError(t, s.ProceedToPaymentSelection(context.Background()))

	assert.Equal(t, []model.OrderProductInput{{ProductID: 7, Quantity: 1}, {ProductID: 8, Quantity: 2}}, items)
	require.NotNil(t, customerID)
	assert.Equal(t, int64(3), *customerID)
	order := s.Order()
	assert.True(t, order.FinalAmount.Equal(decimal.NewFromInt(250000)))
	assert.True(t, order.TotalDiscount.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, StepPayment, s.Step())

	// customer already synced
	require.NoError(t, s.ProceedToPaymentSelection(context.Background()))
	assert.Equal(t, 1, api.count("UpdateOrderCustomer"))
}

func TestProceedIsGuardedAgainstDoubleSubmit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.createOrder = func(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
		close(entered)
		<-release
		d := epoch0
		return &model.Order{ID: 42, OrderDate: &d}, nil
	}
	s := seatsStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))

	first := make(chan error, 1)
	go func() { first <- s.ProceedToComboSelection(context.Background()) }()
	<-entered

	assert.True(t, s.Snapshot().IsLoadingRedirect)
	assert.ErrorIs(t, s.ProceedToComboSelection(context.Background()), ErrBusy)

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, 1, api.count("CreateOrder"))
	assert.False(t, s.Snapshot().IsLoadingRedirect)
}

func TestProceedAfterCompletionIsRejected(t *testing.T) {
	api := &fakeAPI{}
	s := paymentStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	_, err := s.PayCash(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.ProceedToComboSelection(context.Background()), ErrSaleCompleted)
	assert.ErrorIs(t, s.ProceedToPaymentSelection(context.Background()), ErrSaleCompleted)
	_, err = s.PayCash(context.Background())
	assert.ErrorIs(t, err, ErrSaleCompleted)

	assert.Equal(t, StepCompleted, s.Step())
	assert.Equal(t, 1, api.count("CompleteOrder"))
	assert.Equal(t, 0, api.count("UpdateOrderSeats"))
	assert.Equal(t, 1, api.count("UpdateOrderProducts"))
	receipt, err := s.Receipt()
	require.NoError(t, err)
	assert.Equal(t, model.PaymentMethodCash, receipt.PaymentMethod)
}

func TestProceedDuringZaloPayIsRejected(t *testing.T) {
	api := &fakeAPI{}
	s := paymentStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	_, err := s.StartZaloPay(context.Background())
	require.NoError(t, err)
	before := s.Order()

	assert.ErrorIs(t, s.ProceedToComboSelection(context.Background()), ErrPaymentInProgress)
	assert.ErrorIs(t, s.ProceedToPaymentSelection(context.Background()), ErrPaymentInProgress)

	snap := s.Snapshot()
	assert.Equal(t, StepPayment, snap.Step)
	require.NotNil(t, snap.ZpAppTransID)
	assert.Equal(t, before, s.Order())
	assert.False(t, snap.IsLoadingRedirect)
	assert.Equal(t, 0, api.count("UpdateOrderSeats"))
	assert.Equal(t, 1, api.count("UpdateOrderProducts"))
	require.NoError(t, s.CancelZaloPay())
}

func TestProceedOnlyFromItsSourceSteps(t *testing.T) {
	api := &fakeAPI{}
	s := paymentStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))

	assert.ErrorIs(t, s.ProceedToComboSelection(context.Background()), ErrWrongStep)
	assert.Equal(t, StepPayment, s.Step())
	assert.Equal(t, 0, api.count("UpdateOrderSeats"))

	// re-syncing from the payment step is allowed
	require.NoError(t, s.ProceedToPaymentSelection(context.Background()))
	assert.Equal(t, 2, api.count("UpdateOrderProducts"))

	seats := seatsStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	d := epoch0
	seats.SetOrder(&model.Order{ID: 42, OrderDate: &d})
	assert.ErrorIs(t, seats.ProceedToPaymentSelection(context.Background()), ErrWrongStep)
	assert.Equal(t, StepChooseSeats, seats.Step())
	assert.Equal(t, 2, api.count("UpdateOrderProducts"))
}

func TestProceedAppliesDiscountDroppingToZero(t *testing.T) {
	api := &fakeAPI{}
	api.updateCustomer = func(ctx context.Context, orderID int64, id *int64) (*model.OrderPatch, error) {
		discount := int64(0)
		if id != nil {
			discount = 50000
		}
		return &model.OrderPatch{
			ID:            ptr(orderID),
			TotalDiscount: decimal.NewNullDecimal(decimal.NewFromInt(discount)),
			FinalAmount:   decimal.NewNullDecimal(decimal.NewFromInt(90000 - discount)),
		}, nil
	}
	s := seatsStep(t, api, nil, clockwork.NewFakeClockAt(epoch0))
	require.NoError(t, s.AddSeat(seatA1))
	require.NoError(t, s.ProceedToComboSelection(context.Background()))
	s.SetCustomer(&model.Customer{ID: 3})
	require.NoError(t, s.ProceedToPaymentSelection(context.Background()))
	require.True(t, s.Order().TotalDiscount.Equal(decimal.NewFromInt(50000)))

	// the member left; the server drops the member discount
	s.SetCustomer(nil)
	require.NoError(t, s.ProceedToPaymentSelection(context.Background()))

	order := s.Order()
	assert.True(t, order.TotalDiscount.IsZero())
	assert.True(t, order.FinalAmount.Equal(decimal.NewFromInt(90000)))
	assert.Equal(t, "HD000042", order.Code)
}

func TestSetOrderReplacesAndUpdateOrderMerges(t *testing.T) {
	s := newTestSession(t, &fakeAPI{}, nil, clockwork.NewFakeClockAt(epoch0))
	d := epoch0
	s.SetOrder(&model.Order{ID: 1, Code: "HD1", OrderDate: &d, Status: model.OrderStatusPending})

	s.UpdateOrder(&model.OrderPatch{Status: ptr(model.OrderStatusCompleted)})
	order := s.Order()
	assert.Equal(t, "HD1", order.Code)
	assert.Equal(t, model.OrderStatusCompleted, order.Status)

	s.SetOrder(&model.Order{ID: 2})
	order = s.Order()
	assert.Equal(t, int64(2), order.ID)
	assert.Empty(t, order.Code)
	assert.Nil(t, s.Snapshot().HoldRemainingSeconds)
}

func TestHoldExpiryResetsIdleSale(t *testing.T) {
	ctx := testContext(t)
	clk := clockwork.NewFakeClockAt(epoch0)
	s := paymentStep(t, &fakeAPI{}, nil, clk)

	require.NoError(t, clk.BlockUntilContext(ctx, 1))
	clk.Advance(7 * time.Minute)

	assert.Eventually(t, func() bool { return s.Step() == StepChooseMovie }, time.Second, 5*time.Millisecond)
	snap := s.Snapshot()
	assert.Nil(t, snap.Order)
	assert.Empty(t, snap.SelectedSeats)
}
