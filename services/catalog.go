package services

import (
	"fmt"

	"estate-crm/microservices/deals-service/models"
)

// CatalogEntry is one step of the canonical workflow for a deal category.
type CatalogEntry struct {
	Name  string
	Order int
}

var residentialRentalStages = []string{
	"Initial inquiry",
	"Property viewing",
	"Application review",
	"Agreement process",
	"Deposit payment",
	"Key handover",
	"Move-in inspection",
}

var commercialRentalStages = []string{
	"Initial inquiry",
	"Site visit",
	"Letter of intent",
	"Fit-out negotiation",
	"Agreement process",
	"Deposit payment",
	"Premises handover",
	"Opening inspection",
}

var builderStages = []string{
	"Booking",
	"Agreement process",
	"Construction milestones",
	"Payment schedule",
	"Final inspection",
	"Possession handover",
}

// StageCatalog returns the fixed ordered stage template for the category.
// Deterministic and side-effect free; used only at deal creation. An
// unknown category is a programming error on the caller's side, so this
// panics instead of returning an error.
func StageCatalog(category models.DealCategory) []CatalogEntry {
	var names []string
	switch category {
	case models.CategoryResidentialRental:
		names = residentialRentalStages
	case models.CategoryCommercialRental:
		names = commercialRentalStages
	case models.CategoryBuilder:
		names = builderStages
	default:
		panic(fmt.Sprintf("unknown deal category: %q", category))
	}

	entries := make([]CatalogEntry, len(names))
	for i, name := range names {
		entries[i] = CatalogEntry{Name: name, Order: i + 1}
	}
	return entries
}
