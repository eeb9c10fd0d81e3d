// Package validation defines the accepted shape of every entity kind and
// normalizes raw input before it reaches a record store. Parsing is
// all-or-nothing: a schema either returns the normalized record or a
// FieldErrors value describing every invalid field.
package validation

import (
	"strings"
	"time"

	"github.com/mudanzingo/backoffice/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Schema parses raw input into a normalized record of type E.
type Schema[E any] interface {
	Parse(in Input) (E, error)
}

// SchemaFunc adapts a parse function to the Schema interface.
type SchemaFunc[E any] func(in Input) (E, error)

// Parse implements Schema.
func (fn SchemaFunc[E]) Parse(in Input) (E, error) { return fn(in) }

// Categories validates category input.
func Categories() Schema[types.Category] { return SchemaFunc[types.Category](ParseCategory) }

// ParseCategory validates a category.
func ParseCategory(in Input) (types.Category, error) {
	f := newFields(in)
	c := types.Category{
		ID:   f.optionalStr("id"),
		Name: f.str("name", 2, "El nombre es obligatorio"),
	}
	return finish(c, f.errs)
}

// Inventory validates inventory item input.
func Inventory() Schema[types.InventoryItem] {
	return SchemaFunc[types.InventoryItem](ParseInventoryItem)
}

// ParseInventoryItem validates an inventory item. Dimensions accept numeric
// strings and must not be negative.
func ParseInventoryItem(in Input) (types.InventoryItem, error) {
	f := newFields(in)
	item := types.InventoryItem{
		ID:       f.optionalStr("id"),
		Name:     f.str("name", 2, "El nombre es obligatorio"),
		Image:    f.urlOrEmpty("image", "Debe ser una URL válida"),
		Category: f.str("category", 1, "La categoría es obligatoria"),
		Length:   f.nonNegative("length", msgNonNegative),
		Width:    f.nonNegative("width", msgNonNegative),
		Height:   f.nonNegative("height", msgNonNegative),
		Weight:   f.nonNegative("weight", msgNonNegative),
	}
	return finish(item, f.errs)
}

// Providers validates provider input. Truck years are checked against the
// year reported by now.
func Providers(now func() time.Time) Schema[types.Provider] {
	if now == nil {
		now = time.Now
	}
	return SchemaFunc[types.Provider](func(in Input) (types.Provider, error) {
		return parseProvider(in, now().Year())
	})
}

func parseProvider(in Input, year int) (types.Provider, error) {
	f := newFields(in)
	p := types.Provider{
		ID:      f.optionalStr("id"),
		Name:    f.str("nombre", 2, "El nombre es obligatorio"),
		Company: f.str("empresa", 1, "La empresa es obligatoria"),
		Phone:   f.str("telefono", 7, "Teléfono inválido"),
		City:    f.str("ciudad", 2, "Ciudad obligatoria"),
		Trucks:  []types.Truck{},
	}
	for _, t := range f.array("trucks") {
		p.Trucks = append(p.Trucks, parseTruck(t, year))
	}
	return finish(p, f.errs)
}

func parseTruck(f *fields, year int) types.Truck {
	t := types.Truck{
		ID:       f.optionalStr("id"),
		Brand:    f.str("brand", 1, "Marca requerida"),
		Model:    f.str("model", 1, "Modelo requerido"),
		Capacity: f.nonNegative("capacity", "Capacidad inválida"),
		CarPlate: f.str("car_plate", 3, "Placa inválida"),
	}
	if y, ok := f.integer("year"); ok {
		switch {
		case y < 1900:
			f.fail("year", "Año inválido")
		case y > year+1:
			f.fail("year", "Año demasiado grande")
		}
		t.Year = y
	}
	return t
}

// Products validates product input.
func Products() Schema[types.Product] { return SchemaFunc[types.Product](ParseProduct) }

// ParseProduct validates a product.
func ParseProduct(in Input) (types.Product, error) {
	f := newFields(in)
	p := types.Product{
		ID:    f.optionalStr("id"),
		Name:  f.str("name", 2, "El nombre es obligatorio"),
		Price: f.nonNegative("price", msgNonNegative),
	}
	return finish(p, f.errs)
}

// Sellers validates seller input.
func Sellers() Schema[types.Seller] { return SchemaFunc[types.Seller](ParseSeller) }

// ParseSeller validates a seller.
func ParseSeller(in Input) (types.Seller, error) {
	f := newFields(in)
	s := types.Seller{
		ID:    f.optionalStr("id"),
		Name:  f.str("name", 2, "El nombre es obligatorio"),
		Phone: f.str("phone", 7, "Teléfono inválido"),
		Email: f.email("email", "Correo inválido"),
	}
	return finish(s, f.errs)
}

// Services validates service input.
func Services() Schema[types.Service] { return SchemaFunc[types.Service](ParseService) }

// ParseService validates a service. The code is trimmed, checked and stored
// upper-cased; the submitted casing is never kept.
func ParseService(in Input) (types.Service, error) {
	f := newFields(in)
	s := types.Service{
		ID:        f.optionalStr("id"),
		Name:      f.str("name", 2, "El nombre es obligatorio"),
		Code:      parseServiceCode(f),
		BasePrice: f.nonNegative("basePrice", msgNonNegative),
	}
	return finish(s, f.errs)
}

func parseServiceCode(f *fields) string {
	v, ok := f.value("code")
	if !ok {
		f.fail("code", msgRequired)
		return ""
	}
	raw, ok := v.(string)
	if !ok {
		f.fail("code", msgInvalidType)
		return ""
	}
	code := strings.TrimSpace(raw)
	switch {
	case code == "":
		f.fail("code", "El código es obligatorio")
	case len(code) > 32:
		f.fail("code", "Máximo 32 caracteres")
	case !serviceCodePattern.MatchString(code):
		f.fail("code", "Usa letras, dígitos, guión y guión bajo")
	}
	// Casers carry state and are not shared between goroutines.
	return cases.Upper(language.Und).String(code)
}

// Quotes validates quote input.
func Quotes() Schema[types.Quote] { return SchemaFunc[types.Quote](ParseQuote) }

// ParseQuote validates a quote with all of its sections.
func ParseQuote(in Input) (types.Quote, error) {
	f := newFields(in)
	q := types.Quote{
		ID:          f.optionalStr("id"),
		ServiceDate: f.optionalStr("serviceDate"),
		ServiceTime: f.optionalStr("serviceTime"),
		Inventory:   []types.InventoryLine{},
		Services:    []types.ServiceLine{},
		Products:    []types.ProductLine{},
	}
	if c := f.object("customer"); c != nil {
		q.Customer = parseCustomer(c)
	}
	if a := f.object("origin"); a != nil {
		q.Origin = parseAddress(a)
	}
	if a := f.object("destination"); a != nil {
		q.Destination = parseAddress(a)
	}
	for _, l := range f.array("inventory") {
		q.Inventory = append(q.Inventory, types.InventoryLine{
			ItemID:   l.optionalStr("itemId"),
			Image:    l.urlOrEmpty("image", "URL inválida"),
			Name:     l.str("name", 1, "Nombre requerido"),
			Category: l.str("category", 1, "Categoría requerida"),
			Quantity: lineQuantity(l, false),
		})
	}
	for _, l := range f.array("services") {
		q.Services = append(q.Services, types.ServiceLine{
			ServiceID: l.optionalStr("serviceId"),
			Name:      l.str("name", 1, "Nombre requerido"),
			Quantity:  lineQuantity(l, true),
			UnitPrice: l.optionalNonNegative("unitPrice", msgNonNegative),
		})
	}
	for _, l := range f.array("products") {
		q.Products = append(q.Products, types.ProductLine{
			ProductID: l.optionalStr("productId"),
			Name:      l.str("name", 1, "Nombre requerido"),
			Quantity:  lineQuantity(l, true),
			UnitPrice: l.optionalNonNegative("unitPrice", msgNonNegative),
		})
	}
	return finish(q, f.errs)
}

// ParseCustomer validates the customer block on its own, as collected by the
// new-quote dialog.
func ParseCustomer(in Input) (types.Customer, error) {
	f := newFields(in)
	c := parseCustomer(f)
	return finish(c, f.errs)
}

// parseCustomer reads a customer from an already opened object.
func parseCustomer(f *fields) types.Customer {
	return types.Customer{
		Name:  f.str("name", 2, "Nombre requerido"),
		Phone: f.str("phone", 7, "Teléfono inválido"),
		Email: f.email("email", "Correo inválido"),
	}
}

func parseAddress(f *fields) types.Address {
	a := types.Address{
		ZipCode:     f.optionalStr("zipCode"),
		Address:     f.optionalStr("address"),
		HousingType: f.optionalStr("housingType"),
		Extra:       f.optionalStr("extra"),
	}
	if floors, ok := f.optionalInteger("floors"); ok {
		if floors < 0 {
			f.fail("floors", msgNonNegative)
		}
		a.Floors = floors
	}
	return a
}

func lineQuantity(f *fields, positive bool) int {
	q, ok := f.integer("quantity")
	if !ok {
		return 0
	}
	if positive && q <= 0 {
		f.fail("quantity", msgPositive)
	} else if q < 0 {
		f.fail("quantity", msgNonNegative)
	}
	return q
}
