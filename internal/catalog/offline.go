// Package catalog provides the RemoteCatalog backends the inventory store can mirror to.
package catalog

import (
	"context"

	"github.com/abgdnv/procurehub/internal/inventory"
)

var _ inventory.RemoteCatalog = Offline{}

// Offline is the catalog used when no backend is configured. Every call fails
// with inventory.ErrCatalogUnavailable, so the store keeps all changes locally.
type Offline struct{}

func (Offline) FetchAll(context.Context) ([]inventory.Product, error) {
	return nil, inventory.ErrCatalogUnavailable
}

func (Offline) Insert(context.Context, inventory.ProductInput) (inventory.Product, error) {
	return inventory.Product{}, inventory.ErrCatalogUnavailable
}

func (Offline) Update(context.Context, string, inventory.ProductPatch) error {
	return inventory.ErrCatalogUnavailable
}

func (Offline) Delete(context.Context, string) error {
	return inventory.ErrCatalogUnavailable
}
