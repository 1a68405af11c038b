package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeedProducts returns the sample records used when the remote catalog cannot be read.
// Every call returns fresh copies stamped with createdAt.
func SeedProducts(createdAt time.Time) []Product {
	stock, minStock := int32(15), int32(5)
	return []Product{
		{
			ID:            "1",
			Name:          "ThinkPad X1 Carbon",
			SKU:           "TP-X1C-001",
			Description:   "14-inch professional laptop",
			Category:      CategoryHardware,
			Status:        StatusActive,
			Price:         decimal.RequireFromString("1499.99"),
			VendorID:      "v1",
			VendorName:    "Lenovo",
			StockQuantity: &stock,
			MinStockLevel: &minStock,
			CreatedAt:     createdAt,
		},
		{
			ID:          "2",
			Name:        "Microsoft Office 365",
			SKU:         "MS-O365-002",
			Description: "Productivity software suite",
			Category:    CategorySoftware,
			Status:      StatusActive,
			Price:       decimal.RequireFromString("99.99"),
			VendorID:    "v2",
			VendorName:  "Microsoft",
			CreatedAt:   createdAt,
		},
		{
			ID:          "3",
			Name:        "IT Support Service",
			SKU:         "IT-SUP-003",
			Description: "Annual IT support contract",
			Category:    CategoryServices,
			Status:      StatusActive,
			Price:       decimal.NewFromInt(2500),
			VendorID:    "v3",
			VendorName:  "TechSupport Inc.",
			CreatedAt:   createdAt,
		},
	}
}
