package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abgdnv/procurehub/internal/inventory"
	"github.com/abgdnv/procurehub/pkg/config"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker/v2"
)

var _ inventory.RemoteCatalog = (*Resilient)(nil)

// Resilient guards another catalog with a circuit breaker and a per-call deadline.
// While the breaker is open calls fail at once with gobreaker.ErrOpenState.
type Resilient struct {
	next    inventory.RemoteCatalog
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
}

func NewResilient(next inventory.RemoteCatalog, cfg config.ResilienceConfig, logger *slog.Logger) *Resilient {
	return &Resilient{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](breakerSettings(cfg.CircuitBreaker, logger)),
		timeout: cfg.CallTimeout,
	}
}

func breakerSettings(cfg config.CircuitBreakerConfig, logger *slog.Logger) gobreaker.Settings {
	log := logger.With("component", "catalog-breaker")
	return gobreaker.Settings{
		Name:        "remote-catalog",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total >= cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// an unmatched row, a rejected input or a caller that gave up says nothing about
			// the backend's health
			return err == nil || errors.Is(err, ErrNotInCatalog) || errors.Is(err, context.Canceled) ||
				isInputError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
}

// isInputError reports whether the backend refused the request itself: PostgreSQL data
// exceptions (22xxx) and integrity violations (23xxx), or a 4xx from the REST catalog other
// than auth failures, timeouts and rate limiting.
func isInputError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
			return false
		}
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}

// State reports the breaker state, e.g. for the status endpoint.
func (r *Resilient) State() string {
	return r.breaker.State().String()
}

func (r *Resilient) FetchAll(ctx context.Context) ([]inventory.Product, error) {
	return execute(ctx, r, r.next.FetchAll)
}

func (r *Resilient) Insert(ctx context.Context, in inventory.ProductInput) (inventory.Product, error) {
	return execute(ctx, r, func(ctx context.Context) (inventory.Product, error) {
		return r.next.Insert(ctx, in)
	})
}

func (r *Resilient) Update(ctx context.Context, id string, patch inventory.ProductPatch) error {
	_, err := execute(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Update(ctx, id, patch)
	})
	return err
}

func (r *Resilient) Delete(ctx context.Context, id string) error {
	_, err := execute(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Delete(ctx, id)
	})
	return err
}

func execute[T any](ctx context.Context, r *Resilient, call func(context.Context) (T, error)) (T, error) {
	var zero T
	res, err := r.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return call(callCtx)
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}
