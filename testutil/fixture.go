// Package testutil seeds a back office with a known catalog for tests.
package testutil

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo"
	"github.com/mudanzingo/backoffice/mudanzingo/slots"
	"github.com/mudanzingo/backoffice/types"
)

//go:embed testdata/catalog.json
var catalogJSON []byte

// seedOrder creates referenced records before the records that point at them.
var seedOrder = []types.Kind{
	types.KindCategories,
	types.KindInventory,
	types.KindProviders,
	types.KindSellers,
	types.KindServices,
	types.KindQuotes,
}

// CatalogData provides typed access to the seeded records
type CatalogData struct {
	// Dir is the file-driver data directory the catalog was written to.
	Dir string

	Sala     types.Category
	Empaques types.Category

	Sofa      types.InventoryItem // "Sofá de tres plazas"
	CajaChica types.InventoryItem // "Caja chica"
	Caja      types.InventoryItem // "CAJA", differs from CajaChica only by case

	Fletes   types.Provider // one truck
	Ana      types.Seller
	Embalaje types.Service // code submitted as "emb-01"
	Armado   types.Service

	// LuisQuote references Sofa and Embalaje by their seeded ids.
	LuisQuote types.Quote

	// ByKey maps each fixture key to the stored record.
	ByKey map[string]any
}

// LoadCatalog opens a back office on a temporary file-driver directory,
// seeds it from testdata/catalog.json and returns it with the seeded records.
func LoadCatalog(t *testing.T, opts ...mudanzingo.Option) (*mudanzingo.App, *CatalogData) {
	t.Helper()

	dir := t.TempDir()
	cfg := mudanzingo.Config{
		Storage:   slots.Config{Driver: slots.DriverFile, Dir: dir},
		NoLatency: true,
	}
	app, err := mudanzingo.Open(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("failed to open back office: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	var fixture map[types.Kind][]validation.Input
	if err := json.Unmarshal(catalogJSON, &fixture); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	data := &CatalogData{Dir: dir, ByKey: make(map[string]any)}
	ids := make(map[string]string)
	ctx := context.Background()
	for _, kind := range seedOrder {
		c, err := app.Collection(kind)
		if err != nil {
			t.Fatal(err)
		}
		for _, in := range fixture[kind] {
			key, _ := in["key"].(string)
			delete(in, "key")
			rec, err := c.CreateRecord(ctx, resolveRefs(in, ids).(validation.Input))
			if err != nil {
				t.Fatalf("failed to seed %s %q: %v", kind, key, err)
			}
			ids[key] = rec.(interface{ RecordID() string }).RecordID()
			data.ByKey[key] = rec
		}
	}

	for key, rec := range data.ByKey {
		switch key {
		case "sala":
			data.Sala = rec.(types.Category)
		case "empaques":
			data.Empaques = rec.(types.Category)
		case "sofa":
			data.Sofa = rec.(types.InventoryItem)
		case "caja-chica":
			data.CajaChica = rec.(types.InventoryItem)
		case "caja":
			data.Caja = rec.(types.InventoryItem)
		case "fletes":
			data.Fletes = rec.(types.Provider)
		case "ana":
			data.Ana = rec.(types.Seller)
		case "embalaje":
			data.Embalaje = rec.(types.Service)
		case "armado":
			data.Armado = rec.(types.Service)
		case "luis":
			data.LuisQuote = rec.(types.Quote)
		}
	}
	return app, data
}

// resolveRefs replaces "@key" strings with the id the record of that key got.
func resolveRefs(v any, ids map[string]string) any {
	switch val := v.(type) {
	case validation.Input:
		for k, item := range val {
			val[k] = resolveRefs(item, ids)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = resolveRefs(item, ids)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = resolveRefs(item, ids)
		}
		return val
	case string:
		if key, ok := strings.CutPrefix(val, "@"); ok {
			if id, found := ids[key]; found {
				return id
			}
		}
		return val
	default:
		return v
	}
}

// Names returns the display names of records, in order.
func Names[E types.Named](records []E) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.DisplayName()
	}
	return names
}

// AssertRecordCount checks that the slice holds the expected number of records
func AssertRecordCount[E any](t *testing.T, records []E, expected int, context ...string) {
	t.Helper()
	if len(records) != expected {
		ctx := ""
		if len(context) > 0 {
			ctx = " " + context[0]
		}
		t.Errorf("expected %d records%s, got %d", expected, ctx, len(records))
	}
}

// AssertRecordExists verifies that a record with the given id is in the slice
func AssertRecordExists[E types.Record[E]](t *testing.T, records []E, id string) {
	t.Helper()
	for _, r := range records {
		if r.RecordID() == id {
			return
		}
	}
	t.Errorf("record %s not found in results", id)
}

// AssertRecordNotExists verifies that no record with the given id is in the slice
func AssertRecordNotExists[E types.Record[E]](t *testing.T, records []E, id string) {
	t.Helper()
	for _, r := range records {
		if r.RecordID() == id {
			t.Errorf("record %s should not be in results", id)
			return
		}
	}
}
