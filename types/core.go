// Package types holds the record shapes of the Mudanzingo back office and the
// entity kinds they are stored under.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Record is implemented by every stored entity. WithID returns a copy of the
// record carrying the given id, which lets generic stores assign ids to value
// types. Clone returns a copy that shares no slices with the receiver.
type Record[E any] interface {
	RecordID() string
	WithID(id string) E
	Clone() E
}

// Named is implemented by catalog records that can be searched by name.
type Named interface {
	DisplayName() string
}

// Kind identifies an entity kind. Each kind owns exactly one storage slot.
type Kind string

const (
	KindCategories Kind = "categories"
	KindInventory  Kind = "inventory"
	KindProviders  Kind = "providers"
	KindProducts   Kind = "products"
	KindSellers    Kind = "sellers"
	KindServices   Kind = "services"
	KindQuotes     Kind = "quotes"
)

// Operation names a mutation applied to a record list.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type kindInfo struct {
	storageKey string
	readDelay  time.Duration
	mutations  map[Operation]time.Duration
}

var kinds = map[Kind]kindInfo{
	KindCategories: {storageKey: "categories-items", readDelay: 150 * time.Millisecond},
	KindInventory: {
		storageKey: "inventory-items",
		readDelay:  200 * time.Millisecond,
		mutations: map[Operation]time.Duration{
			OpCreate: 150 * time.Millisecond,
			OpUpdate: 150 * time.Millisecond,
			OpDelete: 100 * time.Millisecond,
		},
	},
	KindProviders: {storageKey: "providers-items", readDelay: 120 * time.Millisecond},
	KindQuotes:    {storageKey: "quotes-items", readDelay: 120 * time.Millisecond},
	KindSellers:   {storageKey: "sellers-items", readDelay: 120 * time.Millisecond},
	KindServices:  {storageKey: "services-items", readDelay: 120 * time.Millisecond},
	// Products live behind a remote API and have no local slot.
	KindProducts: {
		readDelay: 300 * time.Millisecond,
		mutations: map[Operation]time.Duration{
			OpCreate: 300 * time.Millisecond,
			OpUpdate: 300 * time.Millisecond,
			OpDelete: 300 * time.Millisecond,
		},
	},
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindCategories, KindInventory, KindProviders, KindProducts, KindSellers, KindServices, KindQuotes}
}

// ParseKind resolves a kind name, accepting singular forms ("seller").
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, k := range Kinds() {
		if n == string(k) || n+"s" == string(k) {
			return k, nil
		}
	}
	if n == "category" {
		return KindCategories, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", name)
}

// StorageKey is the slot the kind's record list is persisted under. Remote
// kinds return an empty key.
func (k Kind) StorageKey() string { return kinds[k].storageKey }

// Remote reports whether the kind is served by a network backend.
func (k Kind) Remote() bool { return kinds[k].storageKey == "" }

// ReadDelay is the simulated latency of a list read.
func (k Kind) ReadDelay() time.Duration { return kinds[k].readDelay }

// MutationDelay is the simulated latency of a mutation.
func (k Kind) MutationDelay(op Operation) time.Duration { return kinds[k].mutations[op] }

func (k Kind) String() string { return string(k) }
