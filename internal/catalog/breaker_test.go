package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/procurehub/internal/inventory"
	"github.com/abgdnv/procurehub/pkg/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubCatalog fails every call with err and counts how often it was reached.
type stubCatalog struct {
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubCatalog) wait(ctx context.Context) error {
	s.calls.Add(1)
	if s.delay == 0 {
		return s.err
	}
	select {
	case <-time.After(s.delay):
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubCatalog) FetchAll(ctx context.Context) ([]inventory.Product, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return inventory.SeedProducts(time.Now()), nil
}

func (s *stubCatalog) Insert(ctx context.Context, in inventory.ProductInput) (inventory.Product, error) {
	if err := s.wait(ctx); err != nil {
		return inventory.Product{}, err
	}
	return inventory.Product{ID: "srv-1", Name: in.Name}, nil
}

func (s *stubCatalog) Update(ctx context.Context, _ string, _ inventory.ProductPatch) error {
	return s.wait(ctx)
}

func (s *stubCatalog) Delete(ctx context.Context, _ string) error {
	return s.wait(ctx)
}

func resilienceConfig() config.ResilienceConfig {
	return config.ResilienceConfig{
		CallTimeout: time.Second,
		CircuitBreaker: config.CircuitBreakerConfig{
			ConsecutiveFailures: 3,
			ErrorRatePercent:    100,
			HalfOpenRequests:    1,
			OpenTimeout:         time.Minute,
		},
	}
}

func Test_Resilient_PassesThrough(t *testing.T) {
	// given
	next := &stubCatalog{}
	r := NewResilient(next, resilienceConfig(), testLogger)

	// when
	products, fetchErr := r.FetchAll(context.Background())
	created, insertErr := r.Insert(context.Background(), inventory.ProductInput{Name: "Widget"})
	updateErr := r.Update(context.Background(), "srv-1", inventory.ProductPatch{})
	deleteErr := r.Delete(context.Background(), "srv-1")

	// then
	require.NoError(t, fetchErr)
	require.NoError(t, insertErr)
	require.NoError(t, updateErr)
	require.NoError(t, deleteErr)
	assert.Len(t, products, 3)
	assert.Equal(t, "srv-1", created.ID)
	assert.Equal(t, int32(4), next.calls.Load())
	assert.Equal(t, gobreaker.StateClosed.String(), r.State())
}

func Test_Resilient_OpensAfterConsecutiveFailures(t *testing.T) {
	// given
	next := &stubCatalog{err: errors.New("connection refused")}
	r := NewResilient(next, resilienceConfig(), testLogger)

	// when
	for range 3 {
		_, err := r.FetchAll(context.Background())
		require.Error(t, err)
	}
	_, err := r.FetchAll(context.Background())

	// then
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), next.calls.Load(), "open breaker must not reach the backend")
	assert.Equal(t, gobreaker.StateOpen.String(), r.State())
}

func Test_Resilient_NotInCatalogKeepsBreakerClosed(t *testing.T) {
	next := &stubCatalog{err: ErrNotInCatalog}
	r := NewResilient(next, resilienceConfig(), testLogger)

	for range 5 {
		err := r.Delete(context.Background(), "local-1")
		assert.ErrorIs(t, err, ErrNotInCatalog)
	}

	assert.Equal(t, int32(5), next.calls.Load())
	assert.Equal(t, gobreaker.StateClosed.String(), r.State())
}

func Test_Resilient_RejectedInputKeepsBreakerClosed(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "numeric overflow", err: fmt.Errorf("failed to insert product: %w", &pgconn.PgError{Code: "22003"})},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}},
		{name: "bad request", err: &StatusError{StatusCode: http.StatusBadRequest}},
		{name: "conflict", err: &StatusError{StatusCode: http.StatusConflict}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			next := &stubCatalog{err: tc.err}
			r := NewResilient(next, resilienceConfig(), testLogger)

			// when
			for range 5 {
				_, err := r.Insert(context.Background(), inventory.ProductInput{Name: "Widget"})
				require.ErrorIs(t, err, tc.err)
			}

			// then
			assert.Equal(t, int32(5), next.calls.Load())
			assert.Equal(t, gobreaker.StateClosed.String(), r.State())
		})
	}
}

func Test_isInputError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "data exception", err: &pgconn.PgError{Code: "22P02"}, expected: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, expected: true},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006"}},
		{name: "not found", err: &StatusError{StatusCode: http.StatusNotFound}, expected: true},
		{name: "unauthorized", err: &StatusError{StatusCode: http.StatusUnauthorized}},
		{name: "rate limited", err: &StatusError{StatusCode: http.StatusTooManyRequests}},
		{name: "server error", err: &StatusError{StatusCode: http.StatusBadGateway}},
		{name: "plain error", err: errors.New("connection refused")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, isInputError(tc.err))
		})
	}
}

func Test_Resilient_CallTimeout(t *testing.T) {
	// given
	next := &stubCatalog{delay: time.Minute}
	cfg := resilienceConfig()
	cfg.CallTimeout = 20 * time.Millisecond
	r := NewResilient(next, cfg, testLogger)

	// when
	start := time.Now()
	err := r.Update(context.Background(), "srv-1", inventory.ProductPatch{})

	// then
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func Test_Offline(t *testing.T) {
	var c Offline
	ctx := context.Background()

	_, fetchErr := c.FetchAll(ctx)
	_, insertErr := c.Insert(ctx, inventory.ProductInput{})

	assert.ErrorIs(t, fetchErr, inventory.ErrCatalogUnavailable)
	assert.ErrorIs(t, insertErr, inventory.ErrCatalogUnavailable)
	assert.ErrorIs(t, c.Update(ctx, "1", inventory.ProductPatch{}), inventory.ErrCatalogUnavailable)
	assert.ErrorIs(t, c.Delete(ctx, "1"), inventory.ErrCatalogUnavailable)
}
