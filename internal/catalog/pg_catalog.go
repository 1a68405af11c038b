package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/procurehub/internal/inventory"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var _ inventory.RemoteCatalog = (*PgCatalog)(nil)

const productColumns = `id::text, name, sku, coalesce(description, ''), category, status, price::text,
	vendor_id, vendor_name, stock_quantity, min_stock_level, created_at`

// PgCatalog implements inventory.RemoteCatalog on the products table.
type PgCatalog struct {
	db *pgxpool.Pool
}

func NewPgCatalog(db *pgxpool.Pool) *PgCatalog {
	return &PgCatalog{db: db}
}

// FetchAll returns every row ordered by creation time. A row that fails validation
// makes the whole result malformed.
func (c *PgCatalog) FetchAll(ctx context.Context) ([]inventory.Product, error) {
	rows, err := c.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return products, nil
}

// Insert stores a product and returns it with the database assigned id and created_at.
func (c *PgCatalog) Insert(ctx context.Context, in inventory.ProductInput) (inventory.Product, error) {
	rows, err := c.db.Query(ctx, `
		INSERT INTO products (name, sku, description, category, status, price, vendor_id, vendor_name, stock_quantity, min_stock_level)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6::numeric, $7, $8, $9, $10)
		RETURNING `+productColumns,
		in.Name, in.SKU, in.Description, string(in.Category), string(in.Status), in.Price.String(),
		in.VendorID, in.VendorName, in.StockQuantity, in.MinStockLevel,
	)
	if err != nil {
		return inventory.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return inventory.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

// Update overwrites the non-nil fields of patch. Ids that are not UUIDs, such as
// locally synthesized ones, can never match and yield ErrNotInCatalog.
func (c *PgCatalog) Update(ctx context.Context, id string, patch inventory.ProductPatch) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotInCatalog
	}
	var price *string
	if patch.Price != nil {
		s := patch.Price.String()
		price = &s
	}
	tag, err := c.db.Exec(ctx, `
		UPDATE products SET
			name            = coalesce($2, name),
			sku             = coalesce($3, sku),
			description     = coalesce($4, description),
			category        = coalesce($5, category),
			status          = coalesce($6, status),
			price           = coalesce($7::numeric, price),
			vendor_id       = coalesce($8, vendor_id),
			vendor_name     = coalesce($9, vendor_name),
			stock_quantity  = coalesce($10, stock_quantity),
			min_stock_level = coalesce($11, min_stock_level)
		WHERE id = $1::uuid`,
		id, patch.Name, patch.SKU, patch.Description, (*string)(patch.Category), (*string)(patch.Status), price,
		patch.VendorID, patch.VendorName, patch.StockQuantity, patch.MinStockLevel,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotInCatalog
	}
	return nil
}

// Delete removes the row with the given id.
func (c *PgCatalog) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotInCatalog
	}
	tag, err := c.db.Exec(ctx, `DELETE FROM products WHERE id = $1::uuid`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotInCatalog
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (inventory.Product, error) {
	var (
		p        inventory.Product
		category string
		status   string
		price    string
	)
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &category, &status, &price,
		&p.VendorID, &p.VendorName, &p.StockQuantity, &p.MinStockLevel, &p.CreatedAt)
	if err != nil {
		return inventory.Product{}, err
	}
	p.Category = inventory.Category(category)
	p.Status = inventory.Status(status)
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return inventory.Product{}, fmt.Errorf("%w: price %q: %v", inventory.ErrMalformedPayload, price, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if err := inventory.ValidateProduct(p); err != nil {
		return inventory.Product{}, errors.Join(inventory.ErrMalformedPayload, err)
	}
	return p, nil
}
