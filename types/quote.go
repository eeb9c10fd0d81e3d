package types

import "slices"

// HousingTypes lists the housing types offered when editing an address.
var HousingTypes = []string{"Casa", "Departamento", "Oficina", "Bodega"}

// Customer is the person requesting a quote.
type Customer struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

// Address is an origin or destination of a move. Every field is optional.
type Address struct {
	ZipCode     string `json:"zipCode" yaml:"zipCode"`
	Address     string `json:"address" yaml:"address"`
	HousingType string `json:"housingType" yaml:"housingType"`
	Floors      int    `json:"floors" yaml:"floors"`
	Extra       string `json:"extra" yaml:"extra"`
}

// InventoryLine is a snapshot of an inventory item taken when it was added to
// a quote. Later edits to the catalog item do not reach the line.
type InventoryLine struct {
	ItemID   string `json:"itemId" yaml:"itemId"`
	Image    string `json:"image" yaml:"image"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// ServiceLine is a snapshot of a service taken when it was added to a quote.
type ServiceLine struct {
	ServiceID string  `json:"serviceId" yaml:"serviceId"`
	Name      string  `json:"name" yaml:"name"`
	Quantity  int     `json:"quantity" yaml:"quantity"`
	UnitPrice float64 `json:"unitPrice,omitempty" yaml:"unitPrice,omitempty"`
}

// ProductLine is a snapshot of a product taken when it was added to a quote.
type ProductLine struct {
	ProductID string  `json:"productId" yaml:"productId"`
	Name      string  `json:"name" yaml:"name"`
	Quantity  int     `json:"quantity" yaml:"quantity"`
	UnitPrice float64 `json:"unitPrice,omitempty" yaml:"unitPrice,omitempty"`
}

// Quote is a moving quote. Its line sections are stored inline rather than
// in stores of their own.
type Quote struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty"`
	Customer    Customer        `json:"customer" yaml:"customer"`
	ServiceDate string          `json:"serviceDate" yaml:"serviceDate"`
	ServiceTime string          `json:"serviceTime" yaml:"serviceTime"`
	Origin      Address         `json:"origin" yaml:"origin"`
	Destination Address         `json:"destination" yaml:"destination"`
	Inventory   []InventoryLine `json:"inventory" yaml:"inventory"`
	Services    []ServiceLine   `json:"services" yaml:"services"`
	Products    []ProductLine   `json:"products" yaml:"products"`
}

func (q Quote) RecordID() string { return q.ID }
func (q Quote) WithID(id string) Quote { q.ID = id; return q }

// Clone copies the quote together with its line sections.
func (q Quote) Clone() Quote {
	q.Inventory = slices.Clone(q.Inventory)
	q.Services = slices.Clone(q.Services)
	q.Products = slices.Clone(q.Products)
	return q
}

func (q Quote) DisplayName() string { return q.Customer.Name }
