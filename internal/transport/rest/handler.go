// Package rest exposes the inventory store and the deals pipeline over HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/procurehub/internal/inventory"
	"github.com/abgdnv/procurehub/pkg/web"
	"github.com/go-chi/chi/v5"
)

// Inventory is the store surface served by Handler.
type Inventory interface {
	Initialize(ctx context.Context) (inventory.Notification, error)
	Create(ctx context.Context, in inventory.ProductInput) (inventory.Product, inventory.Notification, error)
	Update(ctx context.Context, id string, patch inventory.ProductPatch) (inventory.Product, inventory.Notification, error)
	Delete(ctx context.Context, id string) (inventory.Notification, error)
	Search(query string) []inventory.Product
	Get(id string) (inventory.Product, error)
	State() inventory.State
	Loading() bool
	Len() int
}

type Handler struct {
	store  Inventory
	logger *slog.Logger
}

func NewHandler(store Inventory, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("component", "rest"),
	}
}

// productResult is the body of create and update responses.
type productResult struct {
	Product      inventory.Product      `json:"product"`
	Notification inventory.Notification `json:"notification"`
}

type notificationResult struct {
	Notification inventory.Notification `json:"notification"`
	Count        int                    `json:"count"`
}

type statusResult struct {
	State   inventory.State `json:"state"`
	Loading bool            `json:"loading"`
	Count   int             `json:"count"`
}

// RegisterRoutes registers the HTTP routes for the inventory.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.Search)
		r.Post("/", h.Create)
		r.Post("/reload", h.Reload)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
	r.Get("/api/v1/inventory/status", h.Status)
	r.Get("/healthz", h.HealthCheck)
}

// Search lists the products matching ?q=, paged with ?limit= and ?offset=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	limit, ok := web.ParseOptionalInt(r, w, h.logger, "limit", 1000, web.Between(1, 1000))
	if !ok {
		return
	}
	offset, ok := web.ParseOptionalInt(r, w, h.logger, "offset", 0, web.Gte(0))
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	h.logger.DebugContext(r.Context(), "Received request to search products", "query", query, "limit", limit, "offset", offset)

	found := h.store.Search(query)
	if offset >= len(found) {
		found = found[:0]
	} else {
		found = found[offset:min(offset+limit, len(found))]
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	found, err := h.store.Get(id)
	if err != nil {
		h.respondStoreError(w, r, "retrieve", id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in inventory.ProductInput
	if !web.DecodeJSON(w, r, h.logger, &in) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to create product", "Name", in.Name, "SKU", in.SKU)

	created, n, err := h.store.Create(r.Context(), in)
	if err != nil {
		h.respondStoreError(w, r, "create", "", err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusCreated, productResult{Product: created, Notification: n})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var patch inventory.ProductPatch
	if !web.DecodeJSON(w, r, h.logger, &patch) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to update product", "ID", id)

	updated, n, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.respondStoreError(w, r, "update", id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, productResult{Product: updated, Notification: n})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	n, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, "delete", id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]any{"notification": n})
}

// Reload re-runs Initialize, replacing the collection with the catalog contents.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Initialize(r.Context())
	if err != nil {
		h.respondStoreError(w, r, "reload", "", err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, notificationResult{Notification: n, Count: h.store.Len()})
}

func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, statusResult{
		State:   h.store.State(),
		Loading: h.store.Loading(),
		Count:   h.store.Len(),
	})
}

// HealthCheck answers 200 while the store is usable and 503 once it has been closed.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	if h.store.State() == inventory.StateDisposed {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respondStoreError maps store errors to status codes.
func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, op, id string, err error) {
	var validationErr *inventory.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "operation", op, "errors", validationErr.Fields)
		web.RespondValidationErrors(w, h.logger, validationErr.Fields)
	case errors.Is(err, inventory.ErrProductNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "operation", op, "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
	case errors.Is(err, inventory.ErrStoreClosed):
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, "Inventory is shutting down")
	default:
		h.logger.ErrorContext(r.Context(), "Inventory operation failed", "operation", op, "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s product", op))
	}
}
