package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeedDeals returns the sample pipeline shown before a CRM backend is connected.
func SeedDeals(createdAt time.Time) []Deal {
	prob := func(v int) *int { return &v }
	closeIn := func(days int) *time.Time {
		t := createdAt.AddDate(0, 0, days)
		return &t
	}
	return []Deal{
		{ID: "d1", Title: "Laptop fleet refresh", Value: decimal.NewFromInt(74999), Stage: StageLead, ContactID: "c1", ContactName: "Maria Lopez", Company: "Northwind", Probability: prob(10), ExpectedCloseDate: closeIn(60), CreatedAt: createdAt},
		{ID: "d2", Title: "Office 365 migration", Value: decimal.NewFromInt(12000), Stage: StageQualified, ContactID: "c2", ContactName: "James Chen", Company: "Contoso", Probability: prob(30), ExpectedCloseDate: closeIn(45), CreatedAt: createdAt},
		{ID: "d3", Title: "Managed IT support", Value: decimal.NewFromInt(30000), Stage: StageProposal, ContactID: "c3", ContactName: "Aisha Khan", Company: "Fabrikam", Probability: prob(50), ExpectedCloseDate: closeIn(30), CreatedAt: createdAt},
		{ID: "d4", Title: "Docking stations", Value: decimal.RequireFromString("8499.50"), Stage: StageProposal, ContactID: "c4", ContactName: "Tom Becker", Company: "Litware", Probability: prob(60), CreatedAt: createdAt},
		{ID: "d5", Title: "Network upgrade", Value: decimal.NewFromInt(56000), Stage: StageNegotiation, ContactID: "c5", ContactName: "Elena Rossi", Company: "Tailspin", Probability: prob(75), ExpectedCloseDate: closeIn(14), CreatedAt: createdAt},
		{ID: "d6", Title: "Printer leasing", Value: decimal.NewFromInt(9600), Stage: StageClosedWon, ContactID: "c6", ContactName: "Noah Smith", Company: "Adventure Works", Probability: prob(100), CreatedAt: createdAt},
		{ID: "d7", Title: "CAD licenses", Value: decimal.NewFromInt(21000), Stage: StageClosedLost, ContactID: "c2", ContactName: "James Chen", Company: "Contoso", Probability: prob(0), CreatedAt: createdAt},
	}
}
