package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

// State is the lifecycle state of a Store.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateDisposed      State = "disposed"
)

// NotFoundError is returned when an operation targets an id that is not in the collection.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product with ID %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrProductNotFound
}

// Store owns the ordered product collection. Every mutation is applied to the in-memory
// collection; the remote catalog is only a best-effort mirror.
type Store struct {
	mu       sync.RWMutex
	products []Product
	state    State

	catalog   RemoteCatalog
	notifier  Notifier
	observers []func(State)
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	inflight atomic.Int32
	loads    singleflight.Group

	fallbacks metric.Int64Counter
	mutations metric.Int64Counter
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the receiver of every operation outcome.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithStateObserver registers fn to be called after every lifecycle transition.
func WithStateObserver(fn func(State)) Option {
	return func(s *Store) {
		s.observers = append(s.observers, fn)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLocalIDs replaces the generator used for ids of local-only records.
func WithLocalIDs(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// NewStore creates an uninitialized Store mirroring its collection to catalog.
func NewStore(catalog RemoteCatalog, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		state:    StateUninitialized,
		catalog:  catalog,
		notifier: nopNotifier{},
		validate: NewValidator(),
		logger:   logger.With("component", "inventory"),
		now:      time.Now,
		newID:    NewLocalID,
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter("inventory")
	var err error
	s.fallbacks, err = meter.Int64Counter("inventory_remote_fallbacks",
		metric.WithDescription("Operations that fell back to local state after a remote catalog failure"))
	if err != nil {
		panic(fmt.Sprintf("failed to create inventory_remote_fallbacks counter: %v", err))
	}
	s.mutations, err = meter.Int64Counter("inventory_mutations",
		metric.WithDescription("Applied product mutations by operation and persistence tier"))
	if err != nil {
		panic(fmt.Sprintf("failed to create inventory_mutations counter: %v", err))
	}
	return s
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether a remote catalog call is in flight.
func (s *Store) Loading() bool {
	return s.inflight.Load() > 0
}

// Initialize loads the collection from the remote catalog. When the catalog cannot be read
// the collection is replaced by the seed set and a warning notification is returned.
// Concurrent calls share a single fetch.
func (s *Store) Initialize(ctx context.Context) (Notification, error) {
	if err := s.checkOpen(); err != nil {
		return Notification{}, err
	}
	v, err, _ := s.loads.Do("initialize", func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return Notification{}, err
	}
	return v.(Notification), nil
}

func (s *Store) load(ctx context.Context) (Notification, error) {
	if !s.transition(StateLoading) {
		return Notification{}, ErrStoreClosed
	}

	done := s.begin()
	fetched, err := s.catalog.FetchAll(ctx)
	done()
	if err == nil {
		err = checkFetched(fetched)
	}

	var (
		replacement []Product
		n           Notification
	)
	if err != nil {
		rerr := &RemoteError{Op: "fetch", Err: err}
		s.logger.WarnContext(ctx, "Failed to load products, using sample data instead", "error", rerr)
		s.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", string(ActionLoad))))
		replacement = SeedProducts(s.now())
		n = seededNotification(s.now())
	} else {
		replacement = make([]Product, len(fetched))
		for i, p := range fetched {
			replacement[i] = p.clone()
		}
		n = loadedNotification(len(replacement), s.now())
	}

	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return Notification{}, ErrStoreClosed
	}
	discarded := discardedLocal(s.products, replacement)
	s.products = replacement
	s.state = StateReady
	s.mu.Unlock()
	s.emit(StateReady)

	if discarded > 0 {
		s.logger.WarnContext(ctx, "Initialize replaced local-only products", "discarded", discarded)
	}
	s.logger.InfoContext(ctx, "Inventory ready", "count", len(replacement), "tier", n.Tier)
	s.notifier.Notify(ctx, n)
	return n, nil
}

// Create validates in and appends a new product. A remote failure is not an error: the
// product is kept locally under a synthesized id and the notification reports TierLocal.
func (s *Store) Create(ctx context.Context, in ProductInput) (Product, Notification, error) {
	if err := s.checkOpen(); err != nil {
		return Product{}, Notification{}, err
	}
	if err := validateStruct(s.validate, in); err != nil {
		return Product{}, Notification{}, err
	}

	done := s.begin()
	remote, err := s.catalog.Insert(ctx, in)
	done()
	if err == nil {
		err = ValidateProduct(remote)
	}

	tier := TierRemote
	p := remote.clone()
	if err != nil {
		s.fallback(ctx, ActionCreate, &RemoteError{Op: "insert", Err: err})
		tier = TierLocal
		p = newProduct(s.newID(), in, s.now())
	}

	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return Product{}, Notification{}, ErrStoreClosed
	}
	if tier == TierRemote && s.indexOf(p.ID) >= 0 {
		s.logger.WarnContext(ctx, "Remote catalog returned an id already in use, keeping product locally", "ID", p.ID)
		tier = TierLocal
		p.ID = s.newID()
	}
	s.products = append(s.products, p)
	s.mu.Unlock()

	n := createdNotification(p, tier, s.now())
	s.applied(ctx, ActionCreate, tier)
	s.logger.InfoContext(ctx, "Product created", "ID", p.ID, "Name", p.Name, "tier", tier)
	s.notifier.Notify(ctx, n)
	return p.clone(), n, nil
}

// Update merges patch into the product with the given id. The local copy is updated
// whatever the remote outcome; only a missing id or an invalid patch fail the call.
func (s *Store) Update(ctx context.Context, id string, patch ProductPatch) (Product, Notification, error) {
	if err := s.checkOpen(); err != nil {
		return Product{}, Notification{}, err
	}
	if err := validateStruct(s.validate, patch); err != nil {
		return Product{}, Notification{}, err
	}
	s.mu.RLock()
	found := s.indexOf(id) >= 0
	s.mu.RUnlock()
	if !found {
		return Product{}, Notification{}, &NotFoundError{ID: id}
	}

	done := s.begin()
	err := s.catalog.Update(ctx, id, patch)
	done()

	tier := TierRemote
	if err != nil {
		s.fallback(ctx, ActionUpdate, &RemoteError{Op: "update", Err: err})
		tier = TierLocal
	}

	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return Product{}, Notification{}, ErrStoreClosed
	}
	idx := s.indexOf(id)
	if idx < 0 {
		// removed while the remote call was in flight
		s.mu.Unlock()
		return Product{}, Notification{}, &NotFoundError{ID: id}
	}
	updated := patch.Apply(s.products[idx])
	s.products[idx] = updated
	s.mu.Unlock()

	n := updatedNotification(updated, tier, s.now())
	s.applied(ctx, ActionUpdate, tier)
	s.logger.InfoContext(ctx, "Product updated", "ID", id, "tier", tier)
	s.notifier.Notify(ctx, n)
	return updated.clone(), n, nil
}

// Delete removes the product with the given id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) (Notification, error) {
	if err := s.checkOpen(); err != nil {
		return Notification{}, err
	}

	done := s.begin()
	err := s.catalog.Delete(ctx, id)
	done()

	tier := TierRemote
	if err != nil {
		s.fallback(ctx, ActionDelete, &RemoteError{Op: "delete", Err: err})
		tier = TierLocal
	}

	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return Notification{}, ErrStoreClosed
	}
	before := len(s.products)
	s.products = slices.DeleteFunc(s.products, func(p Product) bool { return p.ID == id })
	removed := before != len(s.products)
	s.mu.Unlock()

	n := deletedNotification(id, tier, s.now())
	if removed {
		s.applied(ctx, ActionDelete, tier)
	}
	s.logger.InfoContext(ctx, "Product deleted", "ID", id, "removed", removed, "tier", tier)
	s.notifier.Notify(ctx, n)
	return n, nil
}

// Search returns the products whose name, SKU, category or vendor name contain query,
// ignoring case. An empty query matches everything. Insertion order is kept.
func (s *Store) Search(query string) []Product {
	folder := cases.Fold()
	q := folder.String(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if q == "" || matches(folder, p, q) {
			result = append(result, p.clone())
		}
	}
	return result
}

func matches(folder cases.Caser, p Product, q string) bool {
	for _, field := range []string{p.Name, p.SKU, string(p.Category), p.VendorName} {
		if strings.Contains(folder.String(field), q) {
			return true
		}
	}
	return false
}

// Get returns the product with the given id.
func (s *Store) Get(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Product{}, &NotFoundError{ID: id}
	}
	return s.products[idx].clone(), nil
}

// Products returns a snapshot of the collection.
func (s *Store) Products() []Product {
	return s.Search("")
}

// Len returns the collection size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Close disposes the store. Later calls fail with ErrStoreClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return
	}
	s.state = StateDisposed
	s.products = nil
	s.mu.Unlock()
	s.emit(StateDisposed)
	s.logger.Info("Inventory store closed")
}

func (s *Store) checkOpen() error {
	if s.State() == StateDisposed {
		return ErrStoreClosed
	}
	return nil
}

// transition moves the store to state unless it has been disposed.
func (s *Store) transition(state State) bool {
	s.mu.Lock()
	if s.state == StateDisposed {
		s.mu.Unlock()
		return false
	}
	s.state = state
	s.mu.Unlock()
	s.emit(state)
	return true
}

func (s *Store) emit(state State) {
	for _, fn := range s.observers {
		fn(state)
	}
}

// begin marks a remote call as in flight; the returned func ends it.
func (s *Store) begin() func() {
	s.inflight.Add(1)
	return func() { s.inflight.Add(-1) }
}

func (s *Store) fallback(ctx context.Context, action Action, err *RemoteError) {
	s.logger.WarnContext(ctx, "Remote catalog failed, applying change locally", "operation", action, "error", err)
	s.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", string(action))))
}

func (s *Store) applied(ctx context.Context, action Action, tier Tier) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(action)),
		attribute.String("tier", string(tier)),
	))
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p Product) bool { return p.ID == id })
}

// checkFetched rejects a fetched set that would break the collection invariants.
func checkFetched(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := ValidateProduct(p); err != nil {
			return fmt.Errorf("%w: product %q: %v", ErrMalformedPayload, p.ID, err)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product id %q", ErrMalformedPayload, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// discardedLocal counts local-only records of current that replacement drops.
func discardedLocal(current, replacement []Product) int {
	n := 0
	for _, p := range current {
		if !IsLocalID(p.ID) {
			continue
		}
		if !slices.ContainsFunc(replacement, func(r Product) bool { return r.ID == p.ID }) {
			n++
		}
	}
	return n
}
