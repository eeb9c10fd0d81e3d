// Package quotes implements the quote workflow: drafting a quote from a
// customer and editing its sections one at a time.
package quotes

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mudanzingo/backoffice/types"
)

// Section is an independently edited part of a quote.
type Section string

const (
	SectionSchedule    Section = "schedule"
	SectionOrigin      Section = "origin"
	SectionDestination Section = "destination"
	SectionInventory   Section = "inventory"
	SectionServices    Section = "services"
	SectionProducts    Section = "products"
)

// Sections lists the sections in display order.
func Sections() []Section {
	return []Section{SectionSchedule, SectionOrigin, SectionDestination, SectionInventory, SectionServices, SectionProducts}
}

// ErrLineOutOfRange is returned for a line index outside its section.
var ErrLineOutOfRange = errors.New("line index out of range")

// ParseSection resolves a section name.
func ParseSection(name string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(Sections(), s) {
		return s, nil
	}
	return "", fmt.Errorf("unknown quote section %q", name)
}

// NewDraft returns the quote created from the new-quote dialog: only the
// customer is known, everything else is empty.
func NewDraft(customer types.Customer) types.Quote {
	return types.Quote{
		Customer:  customer,
		Inventory: []types.InventoryLine{},
		Services:  []types.ServiceLine{},
		Products:  []types.ProductLine{},
	}
}

// Clone returns a copy of q that shares no line slices with it.
// Missing sections come back as empty lists.
func Clone(q types.Quote) types.Quote {
	q = q.Clone()
	q.Inventory = nonNil(q.Inventory)
	q.Services = nonNil(q.Services)
	q.Products = nonNil(q.Products)
	return q
}

func nonNil[L any](lines []L) []L {
	if lines == nil {
		return []L{}
	}
	return lines
}
