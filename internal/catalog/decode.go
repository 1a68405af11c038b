package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abgdnv/procurehub/internal/inventory"
	"github.com/shopspring/decimal"
)

// wireID accepts ids encoded as JSON strings or numbers.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = wireID(n.String())
	return nil
}

// wireProduct mirrors a catalog row. Pointers distinguish absent fields from zero values.
type wireProduct struct {
	ID            *wireID          `json:"id"`
	Name          *string          `json:"name"`
	SKU           *string          `json:"sku"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Status        *string          `json:"status"`
	Price         *decimal.Decimal `json:"price"`
	VendorID      *string          `json:"vendorId"`
	VendorName    *string          `json:"vendorName"`
	StockQuantity *int32           `json:"stockQuantity"`
	MinStockLevel *int32           `json:"minStockLevel"`
	CreatedAt     *time.Time       `json:"createdAt"`
}

// decodeProducts turns a JSON array of catalog rows into validated products.
// Any structural problem is reported as inventory.ErrMalformedPayload.
func decodeProducts(body []byte) ([]inventory.Product, error) {
	var rows []wireProduct
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", inventory.ErrMalformedPayload, err)
	}
	products := make([]inventory.Product, 0, len(rows))
	for i, row := range rows {
		p, err := row.toProduct()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// decodeSingle expects exactly one row, as returned by an insert with return=representation.
func decodeSingle(body []byte) (inventory.Product, error) {
	products, err := decodeProducts(body)
	if err != nil {
		return inventory.Product{}, err
	}
	if len(products) != 1 {
		return inventory.Product{}, fmt.Errorf("%w: expected 1 row, got %d", inventory.ErrMalformedPayload, len(products))
	}
	return products[0], nil
}

func (w wireProduct) toProduct() (inventory.Product, error) {
	missing := func(field string) error {
		return fmt.Errorf("%w: missing field %q", inventory.ErrMalformedPayload, field)
	}
	switch {
	case w.ID == nil:
		return inventory.Product{}, missing("id")
	case w.Name == nil:
		return inventory.Product{}, missing("name")
	case w.SKU == nil:
		return inventory.Product{}, missing("sku")
	case w.Category == nil:
		return inventory.Product{}, missing("category")
	case w.Status == nil:
		return inventory.Product{}, missing("status")
	case w.Price == nil:
		return inventory.Product{}, missing("price")
	case w.VendorID == nil:
		return inventory.Product{}, missing("vendorId")
	case w.VendorName == nil:
		return inventory.Product{}, missing("vendorName")
	case w.CreatedAt == nil:
		return inventory.Product{}, missing("createdAt")
	}

	p := inventory.Product{
		ID:            string(*w.ID),
		Name:          *w.Name,
		SKU:           *w.SKU,
		Category:      inventory.Category(*w.Category),
		Status:        inventory.Status(*w.Status),
		Price:         *w.Price,
		VendorID:      *w.VendorID,
		VendorName:    *w.VendorName,
		StockQuantity: w.StockQuantity,
		MinStockLevel: w.MinStockLevel,
		CreatedAt:     w.CreatedAt.UTC(),
	}
	if w.Description != nil {
		p.Description = *w.Description
	}
	if err := inventory.ValidateProduct(p); err != nil {
		return inventory.Product{}, fmt.Errorf("%w: %v", inventory.ErrMalformedPayload, err)
	}
	return p, nil
}
