package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lucasvdj/rifa-go/internal/config"
	"github.com/lucasvdj/rifa-go/internal/domain"
	"github.com/lucasvdj/rifa-go/internal/repository"
	"github.com/lucasvdj/rifa-go/internal/service/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	available int64
	sold      []int

	soldErr      error
	availableErr error
	sellErr      error

	batchNumbers []int

	sellNumberCalls int
	sellBatchCalls  int
	lastNumber      int
	lastQuantity    int
	lastPurchase    domain.Purchase
}

func (f *fakeStore) AvailableCount(_ context.Context, _ string) (int64, error) {
	return f.available, f.availableErr
}

func (f *fakeStore) SoldNumbers(_ context.Context, _ string) ([]int, error) {
	return f.sold, f.soldErr
}

func (f *fakeStore) SellNumber(_ context.Context, _ string, number int, _ domain.Buyer, p domain.Purchase) error {
	f.sellNumberCalls++
	f.lastNumber = number
	f.lastPurchase = p
	return f.sellErr
}

func (f *fakeStore) SellBatch(_ context.Context, _ string, quantity int, _ domain.Buyer, p domain.Purchase) ([]int, error) {
	f.sellBatchCalls++
	f.lastQuantity = quantity
	f.lastPurchase = p
	if f.sellErr != nil {
		return nil, f.sellErr
	}
	return f.batchNumbers, nil
}

type fakeIdentity struct {
	buyer          *domain.Buyer
	resolveErr     error
	bootstrapToken string
	bootstrapCalls int
}

func (f *fakeIdentity) Resolve(_ context.Context, _ string) (*domain.Buyer, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.buyer, nil
}

func (f *fakeIdentity) Bootstrap(_ context.Context) (string, *domain.Buyer, error) {
	f.bootstrapCalls++
	b := &domain.Buyer{ID: uuid.New(), DisplayName: "Anônimo", Anonymous: true}
	return f.bootstrapToken, b, nil
}

func testConfig() Config {
	return Config{
		Raffle: config.RaffleConfig{
			ID:            "main-raffle",
			TotalNumbers:  500,
			GoldenNumbers: []int{7, 70, 123},
		},
		Pricing: config.Pricing{Mode: config.PricingTiered},
	}
}

func newTestService(store *fakeStore, id *fakeIdentity) *Service {
	return New(store, id, nil, nil, nil, testConfig())
}

func resolvedBuyer() *domain.Buyer {
	return &domain.Buyer{ID: uuid.New(), DisplayName: "Lucas", Anonymous: true}
}

func TestPurchaseBatch(t *testing.T) {
	store := &fakeStore{available: 100, batchNumbers: []int{3, 7, 42}}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	out, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID: "main-raffle",
		Quantity: 3,
	}, "")

	require.NoError(t, err)
	assert.False(t, out.PendingIdentity)
	assert.Equal(t, []int{3, 7, 42}, out.Numbers)
	assert.Equal(t, []int{7}, out.GoldenNumbers)
	assert.Equal(t, 2500, out.TotalCentavos)
	assert.NotEqual(t, uuid.Nil, out.PurchaseID)

	assert.Equal(t, 1, store.sellBatchCalls)
	assert.Equal(t, 0, store.sellNumberCalls)
	assert.Equal(t, 3, store.lastPurchase.NumberOfTickets)
	assert.Equal(t, 2500, store.lastPurchase.TotalCentavos)
	assert.Equal(t, "PIX", store.lastPurchase.PaymentMethod)
	assert.Equal(t, "completed", store.lastPurchase.PaymentStatus)
}

func TestPurchaseChosenNumber(t *testing.T) {
	store := &fakeStore{available: 100, sold: []int{1, 2, 3}}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	// "042" and "42" mean the same ticket
	out, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID:     "main-raffle",
		ChosenNumber: "042",
	}, "")

	require.NoError(t, err)
	assert.Equal(t, []int{42}, out.Numbers)
	assert.Empty(t, out.GoldenNumbers)
	assert.Equal(t, 1000, out.TotalCentavos)
	assert.Equal(t, 42, store.lastNumber)
	assert.Equal(t, 1, store.lastPurchase.NumberOfTickets)
	assert.Equal(t, 0, store.sellBatchCalls)
}

func TestPurchaseChosenNumberAlreadySold(t *testing.T) {
	store := &fakeStore{available: 100, sold: []int{42}}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID:     "main-raffle",
		ChosenNumber: "42",
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNumberTaken)

	var taken NumberTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, 42, taken.Number)

	// pre-check failure never reaches the sell path
	assert.Equal(t, 0, store.sellNumberCalls)
}

func TestPurchaseChosenNumberLostRace(t *testing.T) {
	// pre-check passes, but another buyer commits first
	store := &fakeStore{available: 100, sellErr: repository.ErrNumberTaken}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID:     "main-raffle",
		ChosenNumber: "42",
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNumberUnavailable)

	var unavailable NumberUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, 42, unavailable.Number)
	assert.Equal(t, 1, store.sellNumberCalls)
}

func TestPurchaseInsufficientTicketsPreCheck(t *testing.T) {
	store := &fakeStore{available: 2}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID: "main-raffle",
		Quantity: 5,
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientTickets)

	var insufficient InsufficientTicketsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, int64(2), insufficient.Available)

	assert.Equal(t, 0, store.sellBatchCalls)
}

func TestPurchaseInsufficientTicketsAtCommit(t *testing.T) {
	store := &fakeStore{available: 10, sellErr: repository.ErrInsufficientTickets}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID: "main-raffle",
		Quantity: 5,
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientTickets)
}

func TestPurchaseSerializationConflict(t *testing.T) {
	store := &fakeStore{available: 10, sellErr: repository.ErrConflict}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID: "main-raffle",
		Quantity: 2,
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictRetry)
}

func TestPurchaseStoreUnavailable(t *testing.T) {
	store := &fakeStore{soldErr: repository.ErrUnavailable}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID:     "main-raffle",
		ChosenNumber: "42",
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 0, store.sellNumberCalls)
}

func TestPurchasePendingIdentity(t *testing.T) {
	store := &fakeStore{available: 100}
	id := &fakeIdentity{resolveErr: identity.ErrSessionNotFound, bootstrapToken: "fresh-token"}
	svc := newTestService(store, id)

	out, err := svc.Purchase(context.Background(), "", Input{
		RaffleID: "main-raffle",
		Quantity: 1,
	}, "")

	require.NoError(t, err)
	assert.True(t, out.PendingIdentity)
	assert.Equal(t, "fresh-token", out.SessionToken)
	assert.Equal(t, 1, id.bootstrapCalls)

	// a deferral must not touch the ticket store
	assert.Equal(t, 0, store.sellNumberCalls)
	assert.Equal(t, 0, store.sellBatchCalls)
}

func TestPurchaseInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{"number zero", Input{ChosenNumber: "0"}, ErrInvalidNumber},
		{"number above range", Input{ChosenNumber: "501"}, ErrInvalidNumber},
		{"not a number", Input{ChosenNumber: "abc"}, ErrInvalidNumber},
		{"negative number", Input{ChosenNumber: "-1"}, ErrInvalidNumber},
		{"zero quantity", Input{Quantity: 0}, ErrInvalidQuantity},
		{"negative quantity", Input{Quantity: -3}, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{available: 100}
			svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

			tt.input.RaffleID = "main-raffle"
			_, err := svc.Purchase(context.Background(), "tok", tt.input, "")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, store.sellNumberCalls)
			assert.Equal(t, 0, store.sellBatchCalls)
		})
	}
}

func TestPurchaseInvalidNumberCarriesRawInput(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeIdentity{buyer: resolvedBuyer()})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID:     "main-raffle",
		ChosenNumber: " 999 ",
	}, "")

	var invalid InvalidNumberError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "999", invalid.Raw)
	assert.Equal(t, 500, invalid.Max)
}

func TestPurchaseGoldenNumberFlagged(t *testing.T) {
	store := &fakeStore{available: 100}
	svc := newTestService(store, &fakeIdentity{buyer: resolvedBuyer()})

	out, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID:     "main-raffle",
		ChosenNumber: "7",
	}, "")

	require.NoError(t, err)
	assert.Equal(t, []int{7}, out.GoldenNumbers)
}

func TestPurchaseUnexpectedResolveError(t *testing.T) {
	boom := errors.New("buyers table gone")
	svc := newTestService(&fakeStore{}, &fakeIdentity{resolveErr: boom})

	_, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID: "main-raffle",
		Quantity: 1,
	}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestPricingTotals(t *testing.T) {
	svc := newTestService(&fakeStore{available: 100, batchNumbers: []int{1, 2, 3, 4, 5, 6, 7}}, &fakeIdentity{buyer: resolvedBuyer()})

	out, err := svc.Purchase(context.Background(), "tok", Input{
		RaffleID: "main-raffle",
		Quantity: 7,
	}, "")

	require.NoError(t, err)
	assert.Equal(t, 5000, out.TotalCentavos)
}
