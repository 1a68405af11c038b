// Package inventory keeps the product collection of the procurement dashboard and mirrors
// every change to a remote catalog on a best-effort basis.
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a product.
type Category string

const (
	CategoryHardware Category = "hardware"
	CategorySoftware Category = "software"
	CategoryServices Category = "services"
	CategoryOffice   Category = "office"
	CategoryOther    Category = "other"
)

// Status is the commercial status of a product.
type Status string

const (
	StatusActive       Status = "active"
	StatusDiscontinued Status = "discontinued"
	StatusPending      Status = "pending"
)

// Product is a catalog record as held in the in-memory collection.
type Product struct {
	ID            string          `json:"id"            validate:"required"`
	Name          string          `json:"name"          validate:"required,max=255"`
	SKU           string          `json:"sku"           validate:"required,max=64"`
	Description   string          `json:"description,omitempty" validate:"max=1000"`
	Category      Category        `json:"category"      validate:"required,oneof=hardware software services office other"`
	Status        Status          `json:"status"        validate:"required,oneof=active discontinued pending"`
	Price         decimal.Decimal `json:"price"         validate:"gte=0"`
	VendorID      string          `json:"vendorId"      validate:"required"`
	VendorName    string          `json:"vendorName"    validate:"required"`
	StockQuantity *int32          `json:"stockQuantity,omitempty"`
	MinStockLevel *int32          `json:"minStockLevel,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"     validate:"required"`
}

// ProductInput is the payload used to create a product. ID and CreatedAt are assigned by
// the remote catalog, or locally when the catalog is unavailable.
type ProductInput struct {
	Name          string          `json:"name"          validate:"required,max=255"`
	SKU           string          `json:"sku"           validate:"required,max=64"`
	Description   string          `json:"description,omitempty" validate:"max=1000"`
	Category      Category        `json:"category"      validate:"required,oneof=hardware software services office other"`
	Status        Status          `json:"status"        validate:"required,oneof=active discontinued pending"`
	Price         decimal.Decimal `json:"price"         validate:"gte=0"`
	VendorID      string          `json:"vendorId"      validate:"required"`
	VendorName    string          `json:"vendorName"    validate:"required"`
	StockQuantity *int32          `json:"stockQuantity,omitempty"`
	MinStockLevel *int32          `json:"minStockLevel,omitempty"`
}

// ProductPatch carries an edit. Nil fields are left untouched.
type ProductPatch struct {
	Name          *string          `json:"name,omitempty"          validate:"omitempty,min=1,max=255"`
	SKU           *string          `json:"sku,omitempty"           validate:"omitempty,min=1,max=64"`
	Description   *string          `json:"description,omitempty"   validate:"omitempty,max=1000"`
	Category      *Category        `json:"category,omitempty"      validate:"omitempty,oneof=hardware software services office other"`
	Status        *Status          `json:"status,omitempty"        validate:"omitempty,oneof=active discontinued pending"`
	Price         *decimal.Decimal `json:"price,omitempty"         validate:"omitempty,gte=0"`
	VendorID      *string          `json:"vendorId,omitempty"      validate:"omitempty,min=1"`
	VendorName    *string          `json:"vendorName,omitempty"    validate:"omitempty,min=1"`
	StockQuantity *int32           `json:"stockQuantity,omitempty"`
	MinStockLevel *int32           `json:"minStockLevel,omitempty"`
}

// newProduct builds a record from a create payload.
func newProduct(id string, in ProductInput, createdAt time.Time) Product {
	return Product{
		ID:            id,
		Name:          in.Name,
		SKU:           in.SKU,
		Description:   in.Description,
		Category:      in.Category,
		Status:        in.Status,
		Price:         in.Price,
		VendorID:      in.VendorID,
		VendorName:    in.VendorName,
		StockQuantity: cloneInt32(in.StockQuantity),
		MinStockLevel: cloneInt32(in.MinStockLevel),
		CreatedAt:     createdAt,
	}
}

// Apply returns a copy of p with every provided patch field overwritten.
// ID and CreatedAt are never changed.
func (patch ProductPatch) Apply(p Product) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.VendorID != nil {
		p.VendorID = *patch.VendorID
	}
	if patch.VendorName != nil {
		p.VendorName = *patch.VendorName
	}
	if patch.StockQuantity != nil {
		p.StockQuantity = cloneInt32(patch.StockQuantity)
	}
	if patch.MinStockLevel != nil {
		p.MinStockLevel = cloneInt32(patch.MinStockLevel)
	}
	return p
}

// IsEmpty reports whether the patch carries no field at all.
func (patch ProductPatch) IsEmpty() bool {
	return patch == ProductPatch{}
}

// PatchFromInput converts a full payload into a patch that overwrites every field.
func PatchFromInput(in ProductInput) ProductPatch {
	category, status, price := in.Category, in.Status, in.Price
	return ProductPatch{
		Name:          &in.Name,
		SKU:           &in.SKU,
		Description:   &in.Description,
		Category:      &category,
		Status:        &status,
		Price:         &price,
		VendorID:      &in.VendorID,
		VendorName:    &in.VendorName,
		StockQuantity: cloneInt32(in.StockQuantity),
		MinStockLevel: cloneInt32(in.MinStockLevel),
	}
}

func (p Product) clone() Product {
	p.StockQuantity = cloneInt32(p.StockQuantity)
	p.MinStockLevel = cloneInt32(p.MinStockLevel)
	return p
}

func cloneInt32(v *int32) *int32 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
