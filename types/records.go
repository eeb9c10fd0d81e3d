package types

import "slices"

// Category groups inventory items.
type Category struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
}

func (c Category) RecordID() string { return c.ID }
func (c Category) WithID(id string) Category { c.ID = id; return c }
func (c Category) Clone() Category { return c }
func (c Category) DisplayName() string { return c.Name }

// InventoryItem is a household object that can be moved. Dimensions are in
// centimetres and weight in kilograms.
type InventoryItem struct {
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string  `json:"name" yaml:"name"`
	Image    string  `json:"image" yaml:"image"`
	Category string  `json:"category" yaml:"category"`
	Length   float64 `json:"length" yaml:"length"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Weight   float64 `json:"weight" yaml:"weight"`
}

func (i InventoryItem) RecordID() string { return i.ID }
func (i InventoryItem) WithID(id string) InventoryItem { i.ID = id; return i }
func (i InventoryItem) Clone() InventoryItem { return i }
func (i InventoryItem) DisplayName() string { return i.Name }

// Truck belongs to a provider.
type Truck struct {
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Brand    string  `json:"brand" yaml:"brand"`
	Model    string  `json:"model" yaml:"model"`
	Year     int     `json:"year" yaml:"year"`
	Capacity float64 `json:"capacity" yaml:"capacity"`
	CarPlate string  `json:"car_plate" yaml:"car_plate"`
}

// Provider is a transport company. The persisted field names are Spanish.
type Provider struct {
	ID      string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string  `json:"nombre" yaml:"nombre"`
	Company string  `json:"empresa" yaml:"empresa"`
	Phone   string  `json:"telefono" yaml:"telefono"`
	City    string  `json:"ciudad" yaml:"ciudad"`
	Trucks  []Truck `json:"trucks" yaml:"trucks"`
}

func (p Provider) RecordID() string { return p.ID }
func (p Provider) WithID(id string) Provider { p.ID = id; return p }

// Clone copies the provider together with its trucks.
func (p Provider) Clone() Provider {
	p.Trucks = slices.Clone(p.Trucks)
	return p
}

func (p Provider) DisplayName() string { return p.Name }

// Product is sold alongside a move (boxes, pallets).
type Product struct {
	ID    string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

func (p Product) RecordID() string { return p.ID }
func (p Product) WithID(id string) Product { p.ID = id; return p }
func (p Product) Clone() Product { return p }
func (p Product) DisplayName() string { return p.Name }

// Seller is a member of the sales team.
type Seller struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

func (s Seller) RecordID() string { return s.ID }
func (s Seller) WithID(id string) Seller { s.ID = id; return s }
func (s Seller) Clone() Seller { return s }
func (s Seller) DisplayName() string { return s.Name }

// Service is a billable service. Code is always stored upper-cased.
type Service struct {
	ID        string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string  `json:"name" yaml:"name"`
	Code      string  `json:"code" yaml:"code"`
	BasePrice float64 `json:"basePrice" yaml:"basePrice"`
}

func (s Service) RecordID() string { return s.ID }
func (s Service) WithID(id string) Service { s.ID = id; return s }
func (s Service) Clone() Service { return s }
func (s Service) DisplayName() string { return s.Name }
