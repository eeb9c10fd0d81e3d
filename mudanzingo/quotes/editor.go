package quotes

import (
	"fmt"
	"math"
	"strings"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/types"
)

// Editor patches a copy of a quote. Lines added from the catalog are value
// snapshots: later edits of the catalog item never reach the quote.
type Editor struct {
	quote types.Quote

	inventoryQty map[string]int
	serviceQty   map[string]int
	productQty   map[string]int
}

// Edit opens q for editing. q itself is never modified.
func Edit(q types.Quote) *Editor {
	return &Editor{
		quote:        Clone(q),
		inventoryQty: map[string]int{},
		serviceQty:   map[string]int{},
		productQty:   map[string]int{},
	}
}

// Quote returns the patched quote.
func (e *Editor) Quote() types.Quote {
	return Clone(e.quote)
}

// Input returns the patched quote as raw input for the quote schema.
func (e *Editor) Input() (validation.Input, error) {
	return validation.InputOf(e.quote)
}

// SetSchedule replaces the service date and time.
func (e *Editor) SetSchedule(date, time string) {
	e.quote.ServiceDate = date
	e.quote.ServiceTime = time
}

// SetOrigin replaces the origin address.
func (e *Editor) SetOrigin(a types.Address) { e.quote.Origin = a }

// SetDestination replaces the destination address.
func (e *Editor) SetDestination(a types.Address) { e.quote.Destination = a }

// SetInventoryQuantity records the quantity typed next to a catalog item
// and returns the value kept.
func (e *Editor) SetInventoryQuantity(itemID, raw string) int {
	return setQuantity(e.inventoryQty, itemID, raw)
}

// SetServiceQuantity records the quantity typed next to a service.
func (e *Editor) SetServiceQuantity(serviceID, raw string) int {
	return setQuantity(e.serviceQty, serviceID, raw)
}

// SetProductQuantity records the quantity typed next to a product.
func (e *Editor) SetProductQuantity(productID, raw string) int {
	return setQuantity(e.productQty, productID, raw)
}

// InventoryQuantity returns the pending quantity of a catalog item (1 when
// none was typed).
func (e *Editor) InventoryQuantity(itemID string) int { return quantity(e.inventoryQty, itemID) }

// ServiceQuantity returns the pending quantity of a service.
func (e *Editor) ServiceQuantity(serviceID string) int { return quantity(e.serviceQty, serviceID) }

// ProductQuantity returns the pending quantity of a product.
func (e *Editor) ProductQuantity(productID string) int { return quantity(e.productQty, productID) }

// AddInventoryItem appends a line for item with its pending quantity. Adding
// the same item again appends another line.
func (e *Editor) AddInventoryItem(item types.InventoryItem) types.InventoryLine {
	line := types.InventoryLine{
		ItemID:   item.ID,
		Image:    item.Image,
		Name:     item.Name,
		Category: item.Category,
		Quantity: e.InventoryQuantity(item.ID),
	}
	e.quote.Inventory = append(e.quote.Inventory, line)
	return line
}

// AddService appends a line for s with its pending quantity.
func (e *Editor) AddService(s types.Service) types.ServiceLine {
	line := types.ServiceLine{
		ServiceID: s.ID,
		Name:      s.Name,
		Quantity:  e.ServiceQuantity(s.ID),
		UnitPrice: s.BasePrice,
	}
	e.quote.Services = append(e.quote.Services, line)
	return line
}

// AddProduct appends a line for p with its pending quantity.
func (e *Editor) AddProduct(p types.Product) types.ProductLine {
	line := types.ProductLine{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  e.ProductQuantity(p.ID),
		UnitPrice: p.Price,
	}
	e.quote.Products = append(e.quote.Products, line)
	return line
}

// SetLineQuantity changes the quantity of an existing line. The value is
// checked by the quote schema when the quote is saved.
func (e *Editor) SetLineQuantity(section Section, index, qty int) error {
	switch section {
	case SectionInventory:
		if err := checkIndex(section, index, len(e.quote.Inventory)); err != nil {
			return err
		}
		e.quote.Inventory[index].Quantity = qty
	case SectionServices:
		if err := checkIndex(section, index, len(e.quote.Services)); err != nil {
			return err
		}
		e.quote.Services[index].Quantity = qty
	case SectionProducts:
		if err := checkIndex(section, index, len(e.quote.Products)); err != nil {
			return err
		}
		e.quote.Products[index].Quantity = qty
	default:
		return fmt.Errorf("section %s has no lines", section)
	}
	return nil
}

// RemoveLine deletes the line at index from a line section.
func (e *Editor) RemoveLine(section Section, index int) error {
	switch section {
	case SectionInventory:
		if err := checkIndex(section, index, len(e.quote.Inventory)); err != nil {
			return err
		}
		e.quote.Inventory = append(e.quote.Inventory[:index], e.quote.Inventory[index+1:]...)
	case SectionServices:
		if err := checkIndex(section, index, len(e.quote.Services)); err != nil {
			return err
		}
		e.quote.Services = append(e.quote.Services[:index], e.quote.Services[index+1:]...)
	case SectionProducts:
		if err := checkIndex(section, index, len(e.quote.Products)); err != nil {
			return err
		}
		e.quote.Products = append(e.quote.Products[:index], e.quote.Products[index+1:]...)
	default:
		return fmt.Errorf("section %s has no lines", section)
	}
	return nil
}

func checkIndex(section Section, index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%s line %d of %d: %w", section, index, n, ErrLineOutOfRange)
	}
	return nil
}

func quantity(m map[string]int, id string) int {
	if q, ok := m[id]; ok {
		return q
	}
	return 1
}

func setQuantity(m map[string]int, id, raw string) int {
	q := ParseQuantity(raw)
	m[id] = q
	return q
}

// ParseQuantity reads a typed quantity the way the catalog pickers do: the
// leading integer of raw, at least 1, and 1 when raw has no leading integer.
func ParseQuantity(raw string) int {
	n, ok := leadingInt(raw)
	if !ok || n < 1 {
		return 1
	}
	return n
}

// leadingInt parses an optionally signed run of digits after leading
// whitespace, ignoring whatever follows.
func leadingInt(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		digits++
		if n > (math.MaxInt32-int(c-'0'))/10 {
			n = math.MaxInt32
			continue
		}
		n = n*10 + int(c-'0')
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
