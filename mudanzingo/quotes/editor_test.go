package quotes

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/types"
)

func draft() types.Quote {
	q := NewDraft(types.Customer{Name: "Luis", Phone: "5512345678", Email: "luis@example.com"})
	q.ID = "q-1"
	return q
}

func TestNewDraft(t *testing.T) {
	q := draft()
	if q.ServiceDate != "" || q.Origin != (types.Address{}) || q.Destination != (types.Address{}) {
		t.Errorf("expected empty schedule and addresses, got %+v", q)
	}
	if q.Inventory == nil || q.Services == nil || q.Products == nil {
		t.Error("expected empty, non-nil line sections")
	}
	in, err := validation.InputOf(q)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := validation.ParseQuote(in); err != nil {
		t.Errorf("draft should validate, got %v", err)
	}
}

func TestAddSameItemTwice(t *testing.T) {
	sofa := types.InventoryItem{ID: "i-1", Name: "Sofá", Category: "Sala", Image: "https://cdn.example.com/sofa.png"}
	e := Edit(draft())

	e.SetInventoryQuantity(sofa.ID, "2")
	e.AddInventoryItem(sofa)
	e.SetInventoryQuantity(sofa.ID, "3")
	e.AddInventoryItem(sofa)

	want := []types.InventoryLine{
		{ItemID: "i-1", Image: "https://cdn.example.com/sofa.png", Name: "Sofá", Category: "Sala", Quantity: 2},
		{ItemID: "i-1", Image: "https://cdn.example.com/sofa.png", Name: "Sofá", Category: "Sala", Quantity: 3},
	}
	if diff := cmp.Diff(want, e.Quote().Inventory); diff != "" {
		t.Errorf("inventory mismatch (-want +got):\n%s", diff)
	}
}

func TestLinesAreSnapshots(t *testing.T) {
	svc := types.Service{ID: "s-1", Name: "Embalaje", Code: "EMB", BasePrice: 350}
	e := Edit(draft())
	e.AddService(svc)

	svc.Name = "Embalaje premium"
	svc.BasePrice = 500

	got := e.Quote().Services[0]
	if got.Name != "Embalaje" || got.UnitPrice != 350 {
		t.Errorf("line followed the catalog item: %+v", got)
	}
}

func TestEditDoesNotTouchOriginal(t *testing.T) {
	original := draft()
	original.Products = append(original.Products, types.ProductLine{ProductID: "p-1", Name: "Caja", Quantity: 4})

	e := Edit(original)
	if err := e.SetLineQuantity(SectionProducts, 0, 9); err != nil {
		t.Fatal(err)
	}
	e.AddProduct(types.Product{ID: "p-2", Name: "Palet", Price: 55})
	e.SetSchedule("2026-11-02", "09:00")

	if original.Products[0].Quantity != 4 || len(original.Products) != 1 || original.ServiceDate != "" {
		t.Errorf("original quote was modified: %+v", original)
	}
	patched := e.Quote()
	if patched.Products[0].Quantity != 9 || len(patched.Products) != 2 || patched.ServiceTime != "09:00" {
		t.Errorf("unexpected patched quote: %+v", patched)
	}
	if patched.ID != "q-1" {
		t.Errorf("expected id to be kept, got %q", patched.ID)
	}
}

func TestRemoveLine(t *testing.T) {
	e := Edit(draft())
	for _, name := range []string{"Caja", "Palet", "Cinta"} {
		e.AddProduct(types.Product{ID: name, Name: name})
	}

	if err := e.RemoveLine(SectionProducts, 1); err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, l := range e.Quote().Products {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"Caja", "Cinta"}, names); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}

	if err := e.RemoveLine(SectionProducts, 5); !errors.Is(err, ErrLineOutOfRange) {
		t.Errorf("expected ErrLineOutOfRange, got %v", err)
	}
	if err := e.RemoveLine(SectionOrigin, 0); err == nil {
		t.Error("expected an error for a section without lines")
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"3", 3},
		{" 7", 7},
		{"4 cajas", 4},
		{"2.9", 2},
		{"+5", 5},
		{"0", 1},
		{"-2", 1},
		{"", 1},
		{"abc", 1},
		{"99999999999999999999", 2147483647},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseQuantity(tt.raw); got != tt.want {
				t.Errorf("ParseQuantity(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPendingQuantitiesDefaultToOne(t *testing.T) {
	e := Edit(draft())
	if e.ServiceQuantity("x") != 1 || e.ProductQuantity("x") != 1 || e.InventoryQuantity("x") != 1 {
		t.Error("expected default quantity 1")
	}
	if got := e.SetProductQuantity("x", "nada"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := e.SetServiceQuantity("x", "12"); got != 12 || e.ServiceQuantity("x") != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestParseSection(t *testing.T) {
	if s, err := ParseSection(" Inventory "); err != nil || s != SectionInventory {
		t.Errorf("unexpected result %q, %v", s, err)
	}
	if _, err := ParseSection("billing"); err == nil {
		t.Error("expected unknown section error")
	}
}

func TestEditorInputValidates(t *testing.T) {
	e := Edit(draft())
	e.SetOrigin(types.Address{ZipCode: "01000", HousingType: "Casa", Floors: 2})
	e.AddInventoryItem(types.InventoryItem{ID: "i-1", Name: "Sofá", Category: "Sala"})
	in, err := e.Input()
	if err != nil {
		t.Fatal(err)
	}
	q, err := validation.ParseQuote(in)
	if err != nil {
		t.Fatalf("patched quote should validate: %v", err)
	}
	if diff := cmp.Diff(e.Quote(), q); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
