package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/testutil"
	"github.com/spf13/cobra"
)

// runCLI executes one command against the data directory dir.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	cli := NewViperCLI()
	var out bytes.Buffer
	cli.rootCmd.SetOut(&out)
	cli.rootCmd.SetErr(&out)
	cli.rootCmd.SetArgs(append([]string{"--dir", dir, "--no-latency"}, args...))
	err := cli.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	if err != nil {
		t.Fatalf("mudanzingo %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	return v
}

func TestEntityCommands(t *testing.T) {
	dir := t.TempDir()

	created := decode[map[string]any](t, mustRun(t, dir, "categories", "create", "--set", "name=Empaques", "-f", "json"))
	id, _ := created["id"].(string)
	if id == "" || created["name"] != "Empaques" {
		t.Fatalf("unexpected record: %v", created)
	}

	list := decode[[]map[string]any](t, mustRun(t, dir, "categories", "list", "-f", "json"))
	if len(list) != 1 || list[0]["id"] != id {
		t.Fatalf("expected the created category, got %v", list)
	}

	mustRun(t, dir, "categories", "update", id, "--set", "name=Embalaje")
	out := mustRun(t, dir, "categories", "get", id)
	if !strings.Contains(out, "Embalaje") {
		t.Errorf("expected updated name in output:\n%s", out)
	}

	out = mustRun(t, dir, "categories", "delete", id, "nope")
	if !strings.Contains(out, "Deleted "+id) || !strings.Contains(out, "Not found: nope") {
		t.Errorf("unexpected delete output:\n%s", out)
	}
	out = mustRun(t, dir, "categories", "list")
	if !strings.Contains(out, "No records found.") {
		t.Errorf("expected empty list:\n%s", out)
	}
}

func TestValidationErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "inventory", "create", "--set", "name=S", "--set", "category=Sala", "--set", "length=-1")

	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %v", err)
	}
	if !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("expected the validation error to be wrapped, got %v", err)
	}
	for _, want := range []string{"name: El nombre es obligatorio", "length: Debe ser >= 0", "width: Debe ser un número"} {
		if !strings.Contains(cliErr.Details, want) {
			t.Errorf("expected %q in details %q", want, cliErr.Details)
		}
	}

	list := decode[[]map[string]any](t, mustRun(t, dir, "inventory", "list", "-f", "json"))
	if len(list) != 0 {
		t.Errorf("invalid input must not be stored, got %v", list)
	}
}

func TestNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "sellers", "update", "missing", "--set", "name=Ana")
	var cliErr *CLIError
	if !errors.As(err, &cliErr) || !strings.Contains(cliErr.Error(), "record not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestProviderInput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "provider.yaml")
	doc := `nombre: Fletes Rápidos
empresa: FR
telefono: "5512345678"
ciudad: CDMX
trucks:
  - brand: Isuzu
    model: ELF
    year: 2020
    capacity: 3.5
    car_plate: ABC-123
`
	if err := os.WriteFile(file, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	created := decode[map[string]any](t, mustRun(t, dir, "providers", "create", "--file", file, "--set", "trucks.0.year=2021", "-f", "json"))
	trucks, _ := created["trucks"].([]any)
	if len(trucks) != 1 {
		t.Fatalf("expected one truck, got %v", created["trucks"])
	}
	truck := trucks[0].(map[string]any)
	if truck["brand"] != "Isuzu" || truck["year"] != float64(2021) {
		t.Errorf("unexpected truck: %v", truck)
	}
}

func TestQuoteCommands(t *testing.T) {
	dir := t.TempDir()
	item := decode[map[string]any](t, mustRun(t, dir, "inventory", "create", "-f", "json",
		"--data", `{"name": "Sofá", "category": "Sala", "length": 200, "width": 90, "height": 80, "weight": 45}`))
	itemID := item["id"].(string)

	quote := decode[map[string]any](t, mustRun(t, dir, "quotes", "new", "-f", "json",
		"--name", "Luis", "--phone", "5512345678", "--email", "luis@example.com"))
	quoteID := quote["id"].(string)

	mustRun(t, dir, "quotes", "add-inventory", quoteID, itemID, "--qty", "2")
	mustRun(t, dir, "quotes", "add-inventory", quoteID, itemID, "--qty", "3 piezas")
	mustRun(t, dir, "quotes", "origin", quoteID, "--zip", "01000", "--housing-type", "Casa", "--floors", "2")
	mustRun(t, dir, "quotes", "schedule", quoteID, "--date", "2026-11-02", "--time", "09:00")

	shown := decode[map[string]any](t, mustRun(t, dir, "quotes", "show", quoteID, "-f", "json"))
	lines := shown["inventory"].([]any)
	var got []float64
	for _, l := range lines {
		line := l.(map[string]any)
		if line["name"] != "Sofá" || line["itemId"] != itemID {
			t.Errorf("unexpected line: %v", line)
		}
		got = append(got, line["quantity"].(float64))
	}
	if diff := cmp.Diff([]float64{2, 3}, got); diff != "" {
		t.Errorf("quantities mismatch (-want +got):\n%s", diff)
	}
	origin := shown["origin"].(map[string]any)
	if origin["zipCode"] != "01000" || origin["floors"] != float64(2) || shown["serviceTime"] != "09:00" {
		t.Errorf("unexpected quote: %v", shown)
	}

	mustRun(t, dir, "quotes", "remove-line", quoteID, "inventory", "0")
	shown = decode[map[string]any](t, mustRun(t, dir, "quotes", "show", quoteID, "-f", "json"))
	if lines := shown["inventory"].([]any); len(lines) != 1 {
		t.Errorf("expected one line left, got %v", lines)
	}

	if _, err := runCLI(t, dir, "quotes", "set-quantity", quoteID, "inventory", "4", "2"); err == nil {
		t.Error("expected an out of range error")
	}
	if _, err := runCLI(t, dir, "quotes", "destination", quoteID, "--housing-type", "Castillo"); err == nil {
		t.Error("expected an unknown housing type error")
	}

	out := mustRun(t, dir, "quotes", "show", quoteID)
	for _, want := range []string{"Luis", "01000, Casa, 2 pisos", "Sofá"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestCatalogSearch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Sofá de tres plazas", "Caja chica", "CAJA", "Mesa de centro"} {
		mustRun(t, dir, "inventory", "create", "--set", "name="+name, "--set", "category=Varios",
			"--set", "length=1", "--set", "width=1", "--set", "height=1", "--set", "weight=1")
	}

	rows := decode[[]searchRow](t, mustRun(t, dir, "catalog", "search", "inventory", "  caja ", "--highlight", "-f", "json"))
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"**Caja** chica", "**CAJA**"}, names); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	rows = decode[[]searchRow](t, mustRun(t, dir, "catalog", "search", "inventory", "-f", "json"))
	if len(rows) != 4 {
		t.Errorf("blank query should list the catalog, got %d rows", len(rows))
	}

	if _, err := runCLI(t, dir, "catalog", "search", "trucks", "x"); err == nil {
		t.Error("expected an unknown kind error")
	}
}

func TestPlaceholderProductsCommand(t *testing.T) {
	dir := t.TempDir()
	list := decode[[]map[string]any](t, mustRun(t, dir, "products", "list", "-f", "json"))
	if len(list) != 2 || list[0]["name"] != "Caja" || list[1]["name"] != "Palet" {
		t.Errorf("unexpected products: %v", list)
	}
	_, err := runCLI(t, dir, "products", "delete", "1")
	if err == nil || !strings.Contains(err.Error(), "products_url") {
		t.Errorf("expected a products_url suggestion, got %v", err)
	}
}

func TestAuthCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "auth", "whoami")
	if err == nil || !strings.Contains(err.Error(), "not signed in") {
		t.Errorf("expected not signed in, got %v", err)
	}
	_, err = runCLI(t, dir, "auth", "login")
	if err == nil || !strings.Contains(err.Error(), "MUDANZINGO_AUTH_DOMAIN") {
		t.Errorf("expected configuration hint, got %v", err)
	}
	out := mustRun(t, dir, "auth", "logout")
	if !strings.Contains(out, "Signed out.") {
		t.Errorf("unexpected logout output:\n%s", out)
	}
}

func TestMUDANZINGO_CONFIG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mudanzingo.yaml")
	content := `storage:
  driver: sqlite
  sqlite_path: /tmp/mudanzingo.db
  s3:
    bucket: mudanzas
    path_style: true
auth:
  domain: mudanzingo.auth.us-east-1.amazoncognito.com
  redirect_sign_in: "https://admin.mudanzingo.mx/callback,http://localhost:5173/callback"
products_url: https://api.mudanzingo.mx
format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MUDANZINGO_CONFIG", path)
	t.Setenv("MUDANZINGO_AUTH_CLIENT_ID", "client-1")
	t.Setenv("MUDANZINGO_NO_LATENCY", "true")

	cli := NewViperCLI()
	cfg, err := cli.appConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "/tmp/mudanzingo.db" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Storage.S3.Bucket != "mudanzas" || !cfg.Storage.S3.PathStyle {
		t.Errorf("unexpected s3 config: %+v", cfg.Storage.S3)
	}
	if cfg.Auth.ClientID != "client-1" || !cfg.Auth.Enabled() {
		t.Errorf("expected client id from the environment, got %+v", cfg.Auth)
	}
	if cfg.ProductsURL != "https://api.mudanzingo.mx" || !cfg.NoLatency {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cli.format() != "json" {
		t.Errorf("expected json format, got %q", cli.format())
	}
}

func TestUnknownDriver(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "--driver", "floppy", "categories", "list")
	if err == nil || !strings.Contains(err.Error(), "Available drivers: file, memory, sqlite, postgres, s3") {
		t.Errorf("expected driver suggestion, got %v", err)
	}
}

func TestReadInput(t *testing.T) {
	cmd := &cobra.Command{}
	addInputFlags(cmd)
	err := cmd.ParseFlags([]string{
		"--data", `{"nombre": "Fletes", "customer": {"name": "Luis"}}`,
		"--set", "customer.email=luis@example.com",
		"--set", "trucks.1.year=2021",
		"--set", "note=a=b",
	})
	if err != nil {
		t.Fatal(err)
	}
	base := validation.Input{
		"trucks": []any{
			map[string]any{"brand": "Isuzu"},
			map[string]any{"brand": "Hino", "year": 2019},
		},
	}

	in, err := readInput(cmd, base)
	if err != nil {
		t.Fatal(err)
	}
	want := validation.Input{
		"nombre":   "Fletes",
		"customer": map[string]any{"name": "Luis", "email": "luis@example.com"},
		"trucks": []any{
			map[string]any{"brand": "Isuzu"},
			map[string]any{"brand": "Hino", "year": "2021"},
		},
		"note": "a=b",
	}
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("input mismatch (-want +got):\n%s", diff)
	}

	bad := &cobra.Command{}
	addInputFlags(bad)
	_ = bad.ParseFlags([]string{"--set", "novalue"})
	if _, err := readInput(bad, nil); err == nil {
		t.Error("expected an error for --set without '='")
	}
}

func TestSeededCatalogCommands(t *testing.T) {
	app, catalog := testutil.LoadCatalog(t)
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}

	rows := decode[[]searchRow](t, mustRun(t, catalog.Dir, "catalog", "search", "services", "ARM", "-f", "json"))
	if len(rows) != 1 || rows[0].ID != catalog.Armado.ID {
		t.Errorf("expected the armado service, got %v", rows)
	}

	mustRun(t, catalog.Dir, "quotes", "add-service", catalog.LuisQuote.ID, catalog.Armado.ID, "--qty", "0")
	shown := decode[map[string]any](t, mustRun(t, catalog.Dir, "quotes", "show", catalog.LuisQuote.ID, "-f", "json"))
	services := shown["services"].([]any)
	if len(services) != 2 {
		t.Fatalf("expected two service lines, got %v", services)
	}
	added := services[1].(map[string]any)
	if added["serviceId"] != catalog.Armado.ID || added["quantity"] != float64(1) || added["unitPrice"] != float64(500) {
		t.Errorf("unexpected service line: %v", added)
	}
}

func TestStorageCommands(t *testing.T) {
	app, catalog := testutil.LoadCatalog(t)
	if err := app.Close(); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, catalog.Dir, "storage", "validate")
	if !strings.Contains(out, "inventory: 5 records, 0 invalid") || !strings.Contains(out, "Validation completed successfully") {
		t.Errorf("unexpected validate output:\n%s", out)
	}

	target := filepath.Join(t.TempDir(), "copy")
	out = mustRun(t, catalog.Dir, "storage", "copy", "--to-driver", "file", "--to-dir", target, "--dry-run")
	if !strings.Contains(out, "would copy 5 records") || !strings.Contains(out, "DRY RUN") {
		t.Errorf("unexpected dry run output:\n%s", out)
	}

	out = mustRun(t, catalog.Dir, "storage", "copy", "--to-driver", "file", "--to-dir", target)
	if !strings.Contains(out, "Copied lists: 6, skipped: 0") {
		t.Errorf("unexpected copy output:\n%s", out)
	}
	list := decode[[]map[string]any](t, mustRun(t, target, "services", "list", "-f", "json"))
	if len(list) != 2 {
		t.Errorf("expected the copied services, got %v", list)
	}

	if err := os.WriteFile(filepath.Join(target, "categories-items.json"), []byte(`[{"id":"x","name":"S"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, target, "storage", "validate", "--details")
	if err == nil || !strings.Contains(out, "name: El nombre es obligatorio") {
		t.Errorf("expected a validation failure with details, got %v\n%s", err, out)
	}
}

func TestConfigCommandRedactsSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MUDANZINGO_STORAGE_S3_SECRET_ACCESS_KEY", "very-secret")
	t.Setenv("MUDANZINGO_STORAGE_POSTGRES_DSN", "postgres://user:pw@db/mudanzingo")

	settings := decode[map[string]any](t, mustRun(t, dir, "config", "-f", "json"))
	storage := settings["storage"].(map[string]any)
	if storage["postgres_dsn"] != "********" {
		t.Errorf("dsn not redacted: %v", storage["postgres_dsn"])
	}
	if s3 := storage["s3"].(map[string]any); s3["secret_access_key"] != "********" {
		t.Errorf("secret not redacted: %v", s3["secret_access_key"])
	}
	if storage["dir"] != dir {
		t.Errorf("expected --dir to be reported, got %v", storage["dir"])
	}
}
