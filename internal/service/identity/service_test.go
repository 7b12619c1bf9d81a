package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lucasvdj/rifa-go/internal/domain"
	"github.com/lucasvdj/rifa-go/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuyerStore struct {
	buyers map[string]domain.Buyer
	err    error
}

func newFakeBuyerStore() *fakeBuyerStore {
	return &fakeBuyerStore{buyers: make(map[string]domain.Buyer)}
}

func (f *fakeBuyerStore) ByToken(_ context.Context, token string) (*domain.Buyer, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.buyers[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBuyerStore) Create(_ context.Context, buyer domain.Buyer, token string) error {
	if f.err != nil {
		return f.err
	}
	f.buyers[token] = buyer
	return nil
}

func TestResolveKnownToken(t *testing.T) {
	store := newFakeBuyerStore()
	want := domain.Buyer{ID: uuid.New(), DisplayName: "Lucas"}
	store.buyers["tok-1"] = want

	svc := New(store)

	buyer, err := svc.Resolve(context.Background(), "tok-1")

	require.NoError(t, err)
	assert.Equal(t, want.ID, buyer.ID)
	assert.Equal(t, "Lucas", buyer.DisplayName)
}

func TestResolveEmptyToken(t *testing.T) {
	svc := New(newFakeBuyerStore())

	_, err := svc.Resolve(context.Background(), "")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResolveUnknownToken(t *testing.T) {
	svc := New(newFakeBuyerStore())

	_, err := svc.Resolve(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestResolvePassesThroughStoreErrors(t *testing.T) {
	boom := errors.New("pg down")
	svc := New(&fakeBuyerStore{err: boom})

	_, err := svc.Resolve(context.Background(), "tok")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestBootstrapCreatesAnonymousBuyer(t *testing.T) {
	store := newFakeBuyerStore()
	svc := New(store)

	token, buyer, err := svc.Bootstrap(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, buyer.Anonymous)
	assert.Equal(t, "Anônimo", buyer.DisplayName)

	// the fresh token must resolve back to the same buyer
	resolved, err := svc.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, resolved.ID)
}

func TestBootstrapTokensAreUnique(t *testing.T) {
	svc := New(newFakeBuyerStore())

	t1, b1, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)
	t2, b2, err := svc.Bootstrap(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)
	assert.NotEqual(t, b1.ID, b2.ID)
}
