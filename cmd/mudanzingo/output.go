package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mudanzingo/backoffice/types"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeValue encodes v as JSON or YAML.
func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errUsage("write output", fmt.Sprintf("unsupported format %q (use table, json or yaml)", format))
	}
}

// printRecords writes a record list.
func printRecords(w io.Writer, format string, recs []any) error {
	if format != formatTable {
		return writeValue(w, format, recs)
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers, _ := columns(recs[0])
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, rec := range recs {
		_, row := columns(rec)
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// printRecord writes a single record.
func printRecord(w io.Writer, format string, rec any) error {
	if format != formatTable {
		return writeValue(w, format, rec)
	}
	if q, ok := rec.(types.Quote); ok {
		return printQuote(w, q)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers, row := columns(rec)
	for i := range headers {
		fmt.Fprintf(tw, "%s:\t%s\n", headers[i], row[i])
	}
	return tw.Flush()
}

// columns returns the table headers and the row of rec.
func columns(rec any) ([]string, []string) {
	switch r := rec.(type) {
	case types.Category:
		return []string{"ID", "NAME"}, []string{r.ID, r.Name}
	case types.InventoryItem:
		return []string{"ID", "NAME", "CATEGORY", "L×W×H (cm)", "WEIGHT (kg)"},
			[]string{r.ID, r.Name, r.Category, fmt.Sprintf("%s×%s×%s", num(r.Length), num(r.Width), num(r.Height)), num(r.Weight)}
	case types.Provider:
		return []string{"ID", "NOMBRE", "EMPRESA", "TELÉFONO", "CIUDAD", "CAMIONES"},
			[]string{r.ID, r.Name, r.Company, r.Phone, r.City, strconv.Itoa(len(r.Trucks))}
	case types.Product:
		return []string{"ID", "NAME", "PRICE"}, []string{r.ID, r.Name, num(r.Price)}
	case types.Seller:
		return []string{"ID", "NAME", "PHONE", "EMAIL"}, []string{r.ID, r.Name, r.Phone, r.Email}
	case types.Service:
		return []string{"ID", "CODE", "NAME", "BASE PRICE"}, []string{r.ID, r.Code, r.Name, num(r.BasePrice)}
	case types.Quote:
		return []string{"ID", "CUSTOMER", "DATE", "TIME", "LINES"},
			[]string{r.ID, r.Customer.Name, r.ServiceDate, r.ServiceTime, strconv.Itoa(len(r.Inventory) + len(r.Services) + len(r.Products))}
	case searchRow:
		return []string{"ID", "NAME", "MATCH", "SCORE"}, []string{r.ID, r.Name, r.Match, num(r.Score)}
	default:
		return []string{"VALUE"}, []string{fmt.Sprint(rec)}
	}
}

// printQuote writes a quote with all of its sections.
func printQuote(w io.Writer, q types.Quote) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", q.ID)
	fmt.Fprintf(tw, "Customer:\t%s <%s> %s\n", q.Customer.Name, q.Customer.Email, q.Customer.Phone)
	fmt.Fprintf(tw, "Schedule:\t%s %s\n", q.ServiceDate, q.ServiceTime)
	fmt.Fprintf(tw, "Origin:\t%s\n", address(q.Origin))
	fmt.Fprintf(tw, "Destination:\t%s\n", address(q.Destination))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nInventory:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tCATEGORY\tQTY")
	for i, l := range q.Inventory {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%d\n", i, l.Name, l.Category, l.Quantity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nServices:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tQTY\tUNIT PRICE")
	for i, l := range q.Services {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%s\n", i, l.Name, l.Quantity, num(l.UnitPrice))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nProducts:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tNAME\tQTY\tUNIT PRICE")
	for i, l := range q.Products {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%s\n", i, l.Name, l.Quantity, num(l.UnitPrice))
	}
	return tw.Flush()
}

func address(a types.Address) string {
	parts := []string{}
	for _, p := range []string{a.Address, a.ZipCode, a.HousingType, a.Extra} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if a.Floors > 0 {
		parts = append(parts, fmt.Sprintf("%d pisos", a.Floors))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
