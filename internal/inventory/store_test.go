package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCatalogDown = errors.New("catalog down")

// mockCatalog is a RemoteCatalog whose results are configured per test.
type mockCatalog struct {
	mu        sync.Mutex
	products  []Product
	fetchErr  error
	insertErr error
	updateErr error
	deleteErr error
	nextID    int
	createdAt time.Time

	// release, when set, blocks FetchAll until it is closed.
	release chan struct{}
	calls   []string
}

func (m *mockCatalog) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockCatalog) FetchAll(_ context.Context) ([]Product, error) {
	m.record("fetch")
	if m.release != nil {
		<-m.release
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.products, nil
}

func (m *mockCatalog) Insert(_ context.Context, in ProductInput) (Product, error) {
	m.record("insert")
	if m.insertErr != nil {
		return Product{}, m.insertErr
	}
	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("srv-%d", m.nextID)
	m.mu.Unlock()
	return newProduct(id, in, m.createdAt), nil
}

func (m *mockCatalog) Update(_ context.Context, id string, _ ProductPatch) error {
	m.record("update:" + id)
	return m.updateErr
}

func (m *mockCatalog) Delete(_ context.Context, id string) error {
	m.record("delete:" + id)
	return m.deleteErr
}

func (m *mockCatalog) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, catalog RemoteCatalog, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewStore(catalog, testLogger(), opts...)
}

func widget() ProductInput {
	return ProductInput{
		Name:       "Widget",
		SKU:        "W-1",
		Category:   CategoryHardware,
		Status:     StatusActive,
		Price:      decimal.RequireFromString("9.99"),
		VendorID:   "v9",
		VendorName: "Acme",
	}
}

func ptr[T any](v T) *T {
	return &v
}

func Test_Store_Initialize(t *testing.T) {
	remote := SeedProducts(fixedNow)[:2]
	remote[0].ID, remote[1].ID = "a", "b"

	testCases := []struct {
		name          string
		catalog       *mockCatalog
		expectedSKUs  []string
		expectedKind  Kind
		expectedTitle string
	}{
		{
			name:          "Success - fetched set replaces collection",
			catalog:       &mockCatalog{products: remote},
			expectedSKUs:  []string{"TP-X1C-001", "MS-O365-002"},
			expectedKind:  KindSuccess,
			expectedTitle: "Products loaded",
		},
		{
			name:          "Success - empty fetched set",
			catalog:       &mockCatalog{products: []Product{}},
			expectedSKUs:  []string{},
			expectedKind:  KindSuccess,
			expectedTitle: "Products loaded",
		},
		{
			name:          "Fallback - fetch error uses seed set",
			catalog:       &mockCatalog{fetchErr: errCatalogDown},
			expectedSKUs:  []string{"TP-X1C-001", "MS-O365-002", "IT-SUP-003"},
			expectedKind:  KindWarning,
			expectedTitle: "Failed to load products",
		},
		{
			name: "Fallback - malformed record uses seed set",
			catalog: &mockCatalog{products: []Product{
				{ID: "x", Name: "", SKU: "S", Category: "toys", Status: StatusActive, CreatedAt: fixedNow},
			}},
			expectedSKUs:  []string{"TP-X1C-001", "MS-O365-002", "IT-SUP-003"},
			expectedKind:  KindWarning,
			expectedTitle: "Failed to load products",
		},
		{
			name:          "Fallback - duplicate ids use seed set",
			catalog:       &mockCatalog{products: []Product{remote[0], remote[0]}},
			expectedSKUs:  []string{"TP-X1C-001", "MS-O365-002", "IT-SUP-003"},
			expectedKind:  KindWarning,
			expectedTitle: "Failed to load products",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			store := newTestStore(t, tc.catalog)
			require.Equal(t, StateUninitialized, store.State())
			// when
			n, err := store.Initialize(context.Background())
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedKind, n.Kind)
			assert.Equal(t, tc.expectedTitle, n.Title)
			assert.Equal(t, StateReady, store.State())
			assert.False(t, store.Loading())

			skus := make([]string, 0)
			for _, p := range store.Products() {
				skus = append(skus, p.SKU)
			}
			assert.Equal(t, tc.expectedSKUs, skus)
		})
	}
}

func Test_Store_Initialize_LoadingFlag(t *testing.T) {
	// given
	catalog := &mockCatalog{products: []Product{}, release: make(chan struct{})}
	var states []State
	var mu sync.Mutex
	store := newTestStore(t, catalog, WithStateObserver(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	}))

	// when
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Initialize(context.Background())
	}()

	// then
	require.Eventually(t, store.Loading, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateLoading, store.State())

	close(catalog.release)
	<-done
	assert.False(t, store.Loading())
	assert.Equal(t, StateReady, store.State())
	mu.Lock()
	assert.Equal(t, []State{StateLoading, StateReady}, states)
	mu.Unlock()
}

func Test_Store_Initialize_ConcurrentCallsShareFetch(t *testing.T) {
	// given
	catalog := &mockCatalog{products: []Product{}, release: make(chan struct{})}
	store := newTestStore(t, catalog)

	// when
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Initialize(context.Background())
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, store.Loading, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(catalog.release)
	wg.Wait()

	// then
	assert.Equal(t, StateReady, store.State())
	assert.LessOrEqual(t, catalog.callCount(), 5)
	assert.GreaterOrEqual(t, catalog.callCount(), 1)
}

func Test_Store_Initialize_DiscardsEarlyLocalEdits(t *testing.T) {
	// given: a create issued before the initial fetch resolves
	store := newTestStore(t, &mockCatalog{fetchErr: errCatalogDown, insertErr: errCatalogDown})
	_, _, err := store.Create(context.Background(), widget())
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	// when
	_, err = store.Initialize(context.Background())

	// then: the seed set overwrites the early record
	require.NoError(t, err)
	assert.Empty(t, store.Search("Widget"))
	assert.Equal(t, 3, store.Len())
}

func Test_Store_Create(t *testing.T) {
	testCases := []struct {
		name         string
		catalog      *mockCatalog
		input        ProductInput
		expectedTier Tier
		expectedDesc string
		expectError  error
	}{
		{
			name:         "Success - remote confirmed",
			catalog:      &mockCatalog{createdAt: fixedNow.Add(-time.Hour)},
			input:        widget(),
			expectedTier: TierRemote,
			expectedDesc: "Widget has been added successfully",
		},
		{
			name:         "Success - local fallback",
			catalog:      &mockCatalog{insertErr: errCatalogDown},
			input:        widget(),
			expectedTier: TierLocal,
			expectedDesc: "Widget has been added to local storage",
		},
		{
			name: "Error - validation",
			catalog: &mockCatalog{},
			input: func() ProductInput {
				in := widget()
				in.Name = ""
				in.Price = decimal.NewFromInt(-1)
				in.Category = "toys"
				return in
			}(),
			expectError: ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			store := newTestStore(t, tc.catalog)
			// when
			created, n, err := store.Create(context.Background(), tc.input)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Contains(t, validationErr.Fields, "name")
				assert.Contains(t, validationErr.Fields, "price")
				assert.Contains(t, validationErr.Fields, "category")
				assert.Zero(t, tc.catalog.callCount(), "no I/O on invalid input")
				assert.Zero(t, store.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTier, n.Tier)
			assert.Equal(t, KindSuccess, n.Kind)
			assert.Equal(t, "Product added", n.Title)
			assert.Equal(t, tc.expectedDesc, n.Description)
			assert.Equal(t, created.ID, n.ProductID)
			assert.Equal(t, 1, store.Len())
		})
	}
}

func Test_Store_Create_WidgetScenario(t *testing.T) {
	// given
	serverTime := fixedNow.Add(-24 * time.Hour)
	store := newTestStore(t, &mockCatalog{products: []Product{}, createdAt: serverTime})
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)
	before := store.Len()

	// when
	created, n, err := store.Create(context.Background(), widget())

	// then
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	assert.Equal(t, serverTime, created.CreatedAt)
	assert.Equal(t, TierRemote, n.Tier)
	assert.Equal(t, before+1, store.Len())
	assert.True(t, created.Price.Equal(decimal.RequireFromString("9.99")))
}

func Test_Store_Create_FallbackID(t *testing.T) {
	// given
	store := newTestStore(t, &mockCatalog{insertErr: errCatalogDown})

	// when
	first, _, err := store.Create(context.Background(), widget())
	require.NoError(t, err)
	second, _, err := store.Create(context.Background(), widget())
	require.NoError(t, err)

	// then
	assert.True(t, IsLocalID(first.ID))
	assert.True(t, IsLocalID(second.ID))
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, strings.HasPrefix(first.ID, "srv-"))
	assert.Equal(t, fixedNow, first.CreatedAt)
	assert.Len(t, store.Search("W-1"), 2)
}

func Test_Store_Create_PresentExactlyOnce(t *testing.T) {
	for _, insertErr := range []error{nil, errCatalogDown} {
		t.Run(fmt.Sprintf("insertErr=%v", insertErr), func(t *testing.T) {
			// given
			store := newTestStore(t, &mockCatalog{insertErr: insertErr})
			// when
			_, _, err := store.Create(context.Background(), widget())
			// then
			require.NoError(t, err)
			matched := 0
			for _, p := range store.Search("") {
				if p.Name == "Widget" && p.SKU == "W-1" {
					matched++
				}
			}
			assert.Equal(t, 1, matched)
		})
	}
}

// dupCatalog always hands back the same id.
type dupCatalog struct {
	mockCatalog
}

func (d *dupCatalog) Insert(_ context.Context, in ProductInput) (Product, error) {
	return newProduct("same", in, fixedNow), nil
}

func Test_Store_Create_DuplicateRemoteIDKeptLocally(t *testing.T) {
	// given
	store := newTestStore(t, &dupCatalog{})

	// when
	first, _, err := store.Create(context.Background(), widget())
	require.NoError(t, err)
	second, n, err := store.Create(context.Background(), widget())
	require.NoError(t, err)

	// then
	assert.Equal(t, "same", first.ID)
	assert.True(t, IsLocalID(second.ID))
	assert.Equal(t, TierLocal, n.Tier)
}

func Test_Store_Update(t *testing.T) {
	testCases := []struct {
		name         string
		catalog      *mockCatalog
		id           string
		patch        ProductPatch
		expectedTier Tier
		expectError  error
	}{
		{
			name:         "Success - remote confirmed",
			catalog:      &mockCatalog{},
			patch:        ProductPatch{Price: ptr(decimal.RequireFromString("12.50"))},
			expectedTier: TierRemote,
		},
		{
			name:         "Success - local fallback",
			catalog:      &mockCatalog{updateErr: errCatalogDown},
			patch:        ProductPatch{Price: ptr(decimal.RequireFromString("12.50"))},
			expectedTier: TierLocal,
		},
		{
			name:        "Error - not found",
			catalog:     &mockCatalog{},
			id:          "missing",
			patch:       ProductPatch{Price: ptr(decimal.RequireFromString("12.50"))},
			expectError: ErrProductNotFound,
		},
		{
			name:        "Error - validation",
			catalog:     &mockCatalog{},
			patch:       ProductPatch{Price: ptr(decimal.NewFromInt(-3)), Status: ptr(Status("gone"))},
			expectError: ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			store := newTestStore(t, tc.catalog)
			original, _, err := store.Create(context.Background(), widget())
			require.NoError(t, err)
			id := tc.id
			if id == "" {
				id = original.ID
			}
			calls := tc.catalog.callCount()
			// when
			updated, n, err := store.Update(context.Background(), id, tc.patch)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Equal(t, calls, tc.catalog.callCount(), "no I/O before the checks pass")
				stored, getErr := store.Get(original.ID)
				require.NoError(t, getErr)
				assert.Equal(t, original, stored)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTier, n.Tier)
			assert.Equal(t, "Product updated", n.Title)

			stored, err := store.Get(id)
			require.NoError(t, err)
			assert.Equal(t, updated, stored)
			assert.True(t, stored.Price.Equal(decimal.RequireFromString("12.50")))

			expected := original
			expected.Price = stored.Price
			assert.Equal(t, expected, stored, "other fields unchanged")
		})
	}
}

func Test_Store_PriceMustFitCatalogColumn(t *testing.T) {
	testCases := []struct {
		name  string
		price decimal.Decimal
		valid bool
	}{
		{name: "two decimals", price: decimal.RequireFromString("9.99"), valid: true},
		{name: "trailing zeros", price: decimal.RequireFromString("9.9900"), valid: true},
		{name: "largest storable", price: decimal.RequireFromString("999999999999.99"), valid: true},
		{name: "three decimals would be rounded", price: decimal.RequireFromString("9.999")},
		{name: "overflows the column", price: decimal.New(1, 12)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			catalog := &mockCatalog{}
			store := newTestStore(t, catalog)
			in := widget()
			in.Price = tc.price

			// when
			_, _, createErr := store.Create(context.Background(), in)
			_, _, updateErr := store.Update(context.Background(), "srv-1", ProductPatch{Price: &tc.price})

			// then
			if tc.valid {
				require.NoError(t, createErr)
				require.NoError(t, updateErr)
				return
			}
			for _, err := range []error{createErr, updateErr} {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, map[string]string{"price": "failed on rule: price"}, validationErr.Fields)
			}
			assert.Zero(t, catalog.callCount(), "invalid prices never reach the catalog")
		})
	}
}

func Test_Store_Delete(t *testing.T) {
	testCases := []struct {
		name         string
		catalog      *mockCatalog
		expectedTier Tier
		expectedDesc string
	}{
		{
			name:         "Success - remote confirmed",
			catalog:      &mockCatalog{},
			expectedTier: TierRemote,
			expectedDesc: "The product has been removed successfully",
		},
		{
			name:         "Success - local fallback",
			catalog:      &mockCatalog{deleteErr: errCatalogDown},
			expectedTier: TierLocal,
			expectedDesc: "The product has been removed from local storage",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			store := newTestStore(t, tc.catalog)
			created, _, err := store.Create(context.Background(), widget())
			require.NoError(t, err)
			// when
			n, err := store.Delete(context.Background(), created.ID)
			// then
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTier, n.Tier)
			assert.Equal(t, tc.expectedDesc, n.Description)
			for _, p := range store.Search("") {
				assert.NotEqual(t, created.ID, p.ID)
			}
			_, err = store.Get(created.ID)
			assert.ErrorIs(t, err, ErrProductNotFound)
		})
	}
}

func Test_Store_Delete_Idempotent(t *testing.T) {
	// given
	store := newTestStore(t, &mockCatalog{fetchErr: errCatalogDown})
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)
	size := store.Len()

	// when: absent id
	_, err = store.Delete(context.Background(), "does-not-exist")

	// then
	require.NoError(t, err)
	assert.Equal(t, size, store.Len())

	// when: the same id twice
	_, err = store.Delete(context.Background(), "1")
	require.NoError(t, err)
	once := store.Products()
	_, err = store.Delete(context.Background(), "1")
	require.NoError(t, err)

	// then
	assert.Equal(t, once, store.Products())
	assert.Equal(t, size-1, store.Len())
}

func Test_Store_Search(t *testing.T) {
	store := newTestStore(t, &mockCatalog{fetchErr: errCatalogDown})
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)

	testCases := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "empty query matches all", query: "", expected: []string{"1", "2", "3"}},
		{name: "partial category", query: "hard", expected: []string{"1"}},
		{name: "case-insensitive name", query: "thinkPAD", expected: []string{"1"}},
		{name: "sku", query: "o365", expected: []string{"2"}},
		{name: "vendor name", query: "techsupport", expected: []string{"3"}},
		{name: "category software", query: "SOFT", expected: []string{"2"}},
		{name: "matches several in order", query: "i", expected: []string{"1", "2", "3"}},
		{name: "no match", query: "zebra", expected: []string{}},
		{name: "description is not searched", query: "laptop", expected: []string{}},
		{name: "whitespace is part of the query", query: "365 ", expected: []string{}},
		{name: "inner space", query: "x1 c", expected: []string{"1"}},
		{name: "blank query is not empty", query: "  ", expected: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			found := store.Search(tc.query)
			// then
			ids := make([]string, 0, len(found))
			for _, p := range found {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
	assert.Equal(t, 3, store.Len(), "search does not mutate")
}

func Test_Store_Search_ReturnsCopies(t *testing.T) {
	// given
	store := newTestStore(t, &mockCatalog{fetchErr: errCatalogDown})
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)

	// when
	found := store.Search("TP-X1C")
	found[0].Name = "changed"
	*found[0].StockQuantity = 0

	// then
	stored, err := store.Get("1")
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad X1 Carbon", stored.Name)
	assert.Equal(t, int32(15), *stored.StockQuantity)
}

func Test_Store_Notifier(t *testing.T) {
	// given
	var got []Notification
	notifier := NotifierFunc(func(_ context.Context, n Notification) {
		got = append(got, n)
	})
	store := newTestStore(t, &mockCatalog{fetchErr: errCatalogDown, insertErr: errCatalogDown}, WithNotifier(notifier))

	// when
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)
	created, _, err := store.Create(context.Background(), widget())
	require.NoError(t, err)
	_, err = store.Delete(context.Background(), created.ID)
	require.NoError(t, err)

	// then
	require.Len(t, got, 3)
	assert.Equal(t, ActionLoad, got[0].Action)
	assert.Equal(t, KindWarning, got[0].Kind)
	assert.Equal(t, ActionCreate, got[1].Action)
	assert.Equal(t, TierLocal, got[1].Tier)
	assert.Equal(t, ActionDelete, got[2].Action)
}

func Test_Store_Close(t *testing.T) {
	// given
	store := newTestStore(t, &mockCatalog{})
	_, err := store.Initialize(context.Background())
	require.NoError(t, err)

	// when
	store.Close()
	store.Close()

	// then
	assert.Equal(t, StateDisposed, store.State())
	_, err = store.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, _, err = store.Create(context.Background(), widget())
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, _, err = store.Update(context.Background(), "1", ProductPatch{})
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.Delete(context.Background(), "1")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.Empty(t, store.Search(""))
}

func Test_RemoteError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &RemoteError{Op: "insert", Err: errCatalogDown})

	assert.ErrorIs(t, err, ErrRemote)
	assert.ErrorIs(t, err, errCatalogDown)
	assert.EqualError(t, err, "wrapped: remote insert: catalog down")
}
