package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mudanzingo/backoffice/types"
)

func TestParseCategory(t *testing.T) {
	t.Run("accepts a valid name", func(t *testing.T) {
		c, err := ParseCategory(Input{"name": "Empaques"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Name != "Empaques" {
			t.Errorf("expected name Empaques, got %q", c.Name)
		}
	})

	t.Run("rejects short and missing names", func(t *testing.T) {
		_, err := ParseCategory(Input{"name": "E"})
		fe, ok := AsFieldErrors(err)
		if !ok {
			t.Fatalf("expected field errors, got %v", err)
		}
		if fe["name"] != "El nombre es obligatorio" {
			t.Errorf("unexpected message: %q", fe["name"])
		}

		_, err = ParseCategory(Input{})
		fe, _ = AsFieldErrors(err)
		if fe["name"] != msgRequired {
			t.Errorf("expected required message, got %q", fe["name"])
		}
	})

	t.Run("field errors match ErrInvalid", func(t *testing.T) {
		_, err := ParseCategory(Input{"name": 12})
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}
	})
}

func TestParseInventoryItem(t *testing.T) {
	valid := func() Input {
		return Input{
			"name":     "Sofá",
			"image":    "",
			"category": "Sala",
			"length":   "200",
			"width":    "90",
			"height":   " 80 ",
			"weight":   "",
		}
	}

	t.Run("coerces numeric strings", func(t *testing.T) {
		item, err := ParseInventoryItem(valid())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := types.InventoryItem{Name: "Sofá", Category: "Sala", Length: 200, Width: 90, Height: 80, Weight: 0}
		if diff := cmp.Diff(want, item); diff != "" {
			t.Errorf("item mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("negative length fails on length only", func(t *testing.T) {
		in := valid()
		in["length"] = "-1"
		_, err := ParseInventoryItem(in)
		fe, ok := AsFieldErrors(err)
		if !ok {
			t.Fatalf("expected field errors, got %v", err)
		}
		if diff := cmp.Diff(FieldErrors{"length": "Debe ser >= 0"}, fe); diff != "" {
			t.Errorf("errors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects non numeric dimensions and bad urls", func(t *testing.T) {
		in := valid()
		in["width"] = "ancho"
		in["image"] = "not a url"
		_, err := ParseInventoryItem(in)
		fe, _ := AsFieldErrors(err)
		if fe["width"] != msgNotNumber {
			t.Errorf("expected number message for width, got %q", fe["width"])
		}
		if fe["image"] != "Debe ser una URL válida" {
			t.Errorf("expected url message for image, got %q", fe["image"])
		}
	})

	t.Run("accepts absolute image urls", func(t *testing.T) {
		in := valid()
		in["image"] = "https://cdn.example.com/sofa.png"
		if _, err := ParseInventoryItem(in); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestParseService(t *testing.T) {
	tests := []struct {
		name     string
		code     any
		wantCode string
		wantErr  string
	}{
		{name: "trims and upper-cases", code: " ejemplo_01 ", wantCode: "EJEMPLO_01"},
		{name: "keeps dashes", code: "emb-02", wantCode: "EMB-02"},
		{name: "blank code", code: "   ", wantErr: "El código es obligatorio"},
		{name: "invalid characters", code: "con espacio", wantErr: "Usa letras, dígitos, guión y guión bajo"},
		{name: "too long", code: "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456", wantErr: "Máximo 32 caracteres"},
		{name: "not a string", code: 42, wantErr: msgInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseService(Input{"name": "Embalaje", "code": tt.code, "basePrice": "350"})
			if tt.wantErr != "" {
				fe, ok := AsFieldErrors(err)
				if !ok {
					t.Fatalf("expected field errors, got %v", err)
				}
				if fe["code"] != tt.wantErr {
					t.Errorf("expected %q, got %q", tt.wantErr, fe["code"])
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, s.Code)
			}
			if s.BasePrice != 350 {
				t.Errorf("expected base price 350, got %v", s.BasePrice)
			}
		})
	}
}

func TestProviders(t *testing.T) {
	schema := Providers(func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) })
	base := func(trucks ...any) Input {
		return Input{
			"nombre":   "Fletes Rápidos",
			"empresa":  "FR",
			"telefono": "5512345678",
			"ciudad":   "CDMX",
			"trucks":   trucks,
		}
	}
	truck := func(year any) map[string]any {
		return map[string]any{"brand": "Isuzu", "model": "ELF", "year": year, "capacity": "3.5", "car_plate": "ABC-123"}
	}

	t.Run("defaults trucks to an empty list", func(t *testing.T) {
		in := base()
		delete(in, "trucks")
		p, err := schema.Parse(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Trucks == nil || len(p.Trucks) != 0 {
			t.Errorf("expected empty truck list, got %#v", p.Trucks)
		}
	})

	t.Run("validates truck years against the clock", func(t *testing.T) {
		p, err := schema.Parse(base(truck("2027")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Trucks[0].Year != 2027 || p.Trucks[0].Capacity != 3.5 {
			t.Errorf("unexpected truck: %+v", p.Trucks[0])
		}

		_, err = schema.Parse(base(truck(1800), truck(2028)))
		fe, _ := AsFieldErrors(err)
		want := FieldErrors{"trucks.0.year": "Año inválido", "trucks.1.year": "Año demasiado grande"}
		if diff := cmp.Diff(want, fe); diff != "" {
			t.Errorf("errors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects fractional years", func(t *testing.T) {
		_, err := schema.Parse(base(truck(2020.5)))
		fe, _ := AsFieldErrors(err)
		if fe["trucks.0.year"] != msgNotInteger {
			t.Errorf("expected integer message, got %q", fe["trucks.0.year"])
		}
	})

	t.Run("rejects years beyond the integer range", func(t *testing.T) {
		_, err := schema.Parse(base(truck("1e30"), truck(-1e20)))
		fe, _ := AsFieldErrors(err)
		want := FieldErrors{"trucks.0.year": msgOutOfRange, "trucks.1.year": msgOutOfRange}
		if diff := cmp.Diff(want, fe); diff != "" {
			t.Errorf("errors mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParseSeller(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"ana@example.com", true},
		{"ana.lopez+ventas@mudanzingo.mx", true},
		{"ana@example", false},
		{".ana@example.com", false},
		{"ana..lopez@example.com", false},
		{"sin-arroba", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			_, err := ParseSeller(Input{"name": "Ana", "phone": "5512345678", "email": tt.email})
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid {
				fe, _ := AsFieldErrors(err)
				if fe["email"] != "Correo inválido" {
					t.Errorf("expected email error, got %v", err)
				}
			}
		})
	}
}

func TestParseQuote(t *testing.T) {
	address := map[string]any{}
	customer := map[string]any{"name": "Luis", "phone": "5512345678", "email": "luis@example.com"}

	t.Run("fills defaults", func(t *testing.T) {
		q, err := ParseQuote(Input{"customer": customer, "origin": address, "destination": address})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := types.Quote{
			Customer:  types.Customer{Name: "Luis", Phone: "5512345678", Email: "luis@example.com"},
			Inventory: []types.InventoryLine{},
			Services:  []types.ServiceLine{},
			Products:  []types.ProductLine{},
		}
		if diff := cmp.Diff(want, q); diff != "" {
			t.Errorf("quote mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reports nested paths", func(t *testing.T) {
		_, err := ParseQuote(Input{
			"customer":    map[string]any{"name": "L", "phone": "55", "email": "x"},
			"destination": map[string]any{"floors": "-2"},
			"inventory": []any{
				map[string]any{"name": "Caja", "category": "Varios", "image": "", "quantity": "1.5"},
			},
			"services": []any{
				map[string]any{"name": "Embalaje", "quantity": 0},
			},
		})
		fe, ok := AsFieldErrors(err)
		if !ok {
			t.Fatalf("expected field errors, got %v", err)
		}
		want := FieldErrors{
			"customer.name":        "Nombre requerido",
			"customer.phone":       "Teléfono inválido",
			"customer.email":       "Correo inválido",
			"origin":               msgRequired,
			"destination.floors":   msgNonNegative,
			"inventory.0.quantity": msgNotInteger,
			"services.0.quantity":  msgPositive,
		}
		if diff := cmp.Diff(want, fe); diff != "" {
			t.Errorf("errors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("round trips typed quotes through InputOf", func(t *testing.T) {
		original := types.Quote{
			ID:       "q-1",
			Customer: types.Customer{Name: "Luis", Phone: "5512345678", Email: "luis@example.com"},
			Origin:   types.Address{ZipCode: "01000", Floors: 2},
			Inventory: []types.InventoryLine{
				{ItemID: "i-1", Name: "Sofá", Category: "Sala", Quantity: 2},
			},
			Services: []types.ServiceLine{{ServiceID: "s-1", Name: "Embalaje", Quantity: 1, UnitPrice: 350}},
			Products: []types.ProductLine{},
		}
		in, err := InputOf(original)
		if err != nil {
			t.Fatalf("InputOf failed: %v", err)
		}
		got, err := ParseQuote(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(original, got); diff != "" {
			t.Errorf("quote mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestFieldErrorsError(t *testing.T) {
	fe := FieldErrors{"b": "segundo", "a": "primero"}
	want := "validation failed: a: primero; b: segundo"
	if fe.Error() != want {
		t.Errorf("expected %q, got %q", want, fe.Error())
	}
}
