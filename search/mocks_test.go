package search

import (
	"context"

	"github.com/mudanzingo/backoffice/types"
)

// MockCatalogProvider implements Provider for testing
type MockCatalogProvider struct {
	items []types.InventoryItem
	err   error
	calls int
}

// NewMockCatalogProvider creates a new mock with the given items
func NewMockCatalogProvider(items []types.InventoryItem) *MockCatalogProvider {
	return &MockCatalogProvider{items: items}
}

// SetError configures the mock to return an error
func (m *MockCatalogProvider) SetError(err error) {
	m.err = err
}

// Catalog returns the mock items or error
func (m *MockCatalogProvider) Catalog(context.Context) ([]types.InventoryItem, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// SampleItems provides sample inventory for testing
func SampleItems() []types.InventoryItem {
	return []types.InventoryItem{
		{ID: "1", Name: "Sofá de tres plazas", Category: "Sala", Length: 200, Width: 90, Height: 80, Weight: 45},
		{ID: "2", Name: "Cama matrimonial", Category: "Recámara", Length: 190, Width: 140, Height: 50, Weight: 60},
		{ID: "3", Name: "Caja chica", Category: "Empaques", Length: 40, Width: 30, Height: 30, Weight: 1},
		{ID: "4", Name: "CAJA", Category: "Empaques", Length: 60, Width: 40, Height: 40, Weight: 2},
		{ID: "5", Name: "Mesa de centro", Category: "Sala", Length: 100, Width: 60, Height: 45, Weight: 20},
	}
}
