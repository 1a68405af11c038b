package inventory

import "context"

// RemoteCatalog is the persistence backend the store mirrors its collection to.
// Implementations may fail for any reason; the store treats every failure alike.
type RemoteCatalog interface {
	// FetchAll returns every product known to the backend.
	FetchAll(ctx context.Context) ([]Product, error)

	// Insert stores a new product. The backend assigns ID and CreatedAt.
	Insert(ctx context.Context, in ProductInput) (Product, error)

	// Update overwrites the provided fields of the product with the given ID.
	Update(ctx context.Context, id string, patch ProductPatch) error

	// Delete removes the product with the given ID.
	Delete(ctx context.Context, id string) error
}
