package main

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo"
	"github.com/mudanzingo/backoffice/mudanzingo/quotes"
	"github.com/mudanzingo/backoffice/types"
	"github.com/spf13/cobra"
)

// addQuoteCommands adds the quote workflow next to the generic quote CRUD.
func (cli *ViperCLI) addQuoteCommands() {
	quotesCmd := cli.findOrAddKindCommand(types.KindQuotes)
	quotesCmd.AddCommand(
		cli.newQuoteCommand(),
		cli.showQuoteCommand(),
		cli.scheduleCommand(),
		cli.addressCommand(quotes.SectionOrigin),
		cli.addressCommand(quotes.SectionDestination),
		cli.addLineCommand(quotes.SectionInventory),
		cli.addLineCommand(quotes.SectionServices),
		cli.addLineCommand(quotes.SectionProducts),
		cli.setQuantityCommand(),
		cli.removeLineCommand(),
	)
}

func (cli *ViperCLI) newQuoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a quote for a customer",
		Long: `Start a quote. Only the customer is needed; schedule, addresses and lines
are filled in section by section afterwards.

Example:
  mudanzingo quotes new --name "Luis Pérez" --phone 5512345678 --email luis@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			phone, _ := cmd.Flags().GetString("phone")
			email, _ := cmd.Flags().GetString("email")
			return cli.withApp(cmd, "create quote", func(ctx context.Context, app *mudanzingo.App) error {
				customer, err := validation.ParseCustomer(validation.Input{"name": name, "phone": phone, "email": email})
				if err != nil {
					return err
				}
				q, err := app.Quotes.Insert(ctx, quotes.NewDraft(customer))
				if err != nil {
					return err
				}
				return printRecord(cmd.OutOrStdout(), cli.format(), q)
			})
		},
	}
	cmd.Flags().String("name", "", "Customer name")
	cmd.Flags().String("phone", "", "Customer phone")
	cmd.Flags().String("email", "", "Customer email")
	return cmd
}

func (cli *ViperCLI) showQuoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <quote-id>",
		Short: "Show a quote with all of its sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(cmd, "show quote", func(ctx context.Context, app *mudanzingo.App) error {
				q, err := app.Quotes.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printRecord(cmd.OutOrStdout(), cli.format(), q)
			})
		},
	}
}

func (cli *ViperCLI) scheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule <quote-id>",
		Short: "Set the service date and time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			at, _ := cmd.Flags().GetString("time")
			return cli.editQuote(cmd, "schedule quote", args[0], func(ctx context.Context, app *mudanzingo.App, e *quotes.Editor) error {
				current := e.Quote()
				if !cmd.Flags().Changed("date") {
					date = current.ServiceDate
				}
				if !cmd.Flags().Changed("time") {
					at = current.ServiceTime
				}
				e.SetSchedule(date, at)
				return nil
			})
		},
	}
	cmd.Flags().String("date", "", "Service date (YYYY-MM-DD)")
	cmd.Flags().String("time", "", "Service time (HH:MM)")
	return cmd
}

func (cli *ViperCLI) addressCommand(section quotes.Section) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(section) + " <quote-id>",
		Short: fmt.Sprintf("Edit the %s address", section),
		Long: fmt.Sprintf(`Edit the %s address. Only the given flags change.

Housing types: %s`, section, strings.Join(types.HousingTypes, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.editQuote(cmd, "edit quote "+string(section), args[0], func(ctx context.Context, app *mudanzingo.App, e *quotes.Editor) error {
				q := e.Quote()
				a := q.Origin
				if section == quotes.SectionDestination {
					a = q.Destination
				}
				if err := applyAddressFlags(cmd, &a); err != nil {
					return err
				}
				if section == quotes.SectionDestination {
					e.SetDestination(a)
				} else {
					e.SetOrigin(a)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("zip", "", "Zip code")
	cmd.Flags().String("address", "", "Street address")
	cmd.Flags().String("housing-type", "", "Housing type")
	cmd.Flags().Int("floors", 0, "Number of floors")
	cmd.Flags().String("extra", "", "Extra notes")
	return cmd
}

func applyAddressFlags(cmd *cobra.Command, a *types.Address) error {
	flags := cmd.Flags()
	if flags.Changed("zip") {
		a.ZipCode, _ = flags.GetString("zip")
	}
	if flags.Changed("address") {
		a.Address, _ = flags.GetString("address")
	}
	if flags.Changed("housing-type") {
		ht, _ := flags.GetString("housing-type")
		if ht != "" && !slices.Contains(types.HousingTypes, ht) {
			return errUsage("edit address", fmt.Sprintf("unknown housing type %q (use one of: %s)", ht, strings.Join(types.HousingTypes, ", ")))
		}
		a.HousingType = ht
	}
	if flags.Changed("floors") {
		a.Floors, _ = flags.GetInt("floors")
	}
	if flags.Changed("extra") {
		a.Extra, _ = flags.GetString("extra")
	}
	return nil
}

func (cli *ViperCLI) addLineCommand(section quotes.Section) *cobra.Command {
	noun := map[quotes.Section]string{
		quotes.SectionInventory: "inventory",
		quotes.SectionServices:  "service",
		quotes.SectionProducts:  "product",
	}[section]
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("add-%s <quote-id> <%s-id>", noun, noun),
		Short: fmt.Sprintf("Add a %s line to a quote", noun),
		Long: fmt.Sprintf(`Add a %s line. The line keeps a copy of the catalog entry as it is now;
adding the same entry twice adds two lines.`, noun),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, _ := cmd.Flags().GetString("qty")
			refID := args[1]
			return cli.editQuote(cmd, "add "+noun+" line", args[0], func(ctx context.Context, app *mudanzingo.App, e *quotes.Editor) error {
				switch section {
				case quotes.SectionInventory:
					item, err := app.Inventory.Get(ctx, refID)
					if err != nil {
						return err
					}
					e.SetInventoryQuantity(refID, qty)
					e.AddInventoryItem(item)
				case quotes.SectionServices:
					s, err := app.Services.Get(ctx, refID)
					if err != nil {
						return err
					}
					e.SetServiceQuantity(refID, qty)
					e.AddService(s)
				case quotes.SectionProducts:
					p, err := app.Products.Get(ctx, refID)
					if err != nil {
						return err
					}
					e.SetProductQuantity(refID, qty)
					e.AddProduct(p)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("qty", "1", "Quantity (anything below 1 counts as 1)")
	return cmd
}

func (cli *ViperCLI) setQuantityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-quantity <quote-id> <section> <index> <qty>",
		Short: "Change the quantity of a quote line",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, index, err := lineArgs(args[1], args[2])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(strings.TrimSpace(args[3]))
			if err != nil {
				return errUsage("set quantity", fmt.Sprintf("quantity %q is not a whole number", args[3]))
			}
			return cli.editQuote(cmd, "set quantity", args[0], func(ctx context.Context, app *mudanzingo.App, e *quotes.Editor) error {
				return e.SetLineQuantity(section, index, qty)
			})
		},
	}
}

func (cli *ViperCLI) removeLineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-line <quote-id> <section> <index>",
		Short: "Remove a line from a quote",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, index, err := lineArgs(args[1], args[2])
			if err != nil {
				return err
			}
			return cli.editQuote(cmd, "remove line", args[0], func(ctx context.Context, app *mudanzingo.App, e *quotes.Editor) error {
				return e.RemoveLine(section, index)
			})
		},
	}
}

func lineArgs(rawSection, rawIndex string) (quotes.Section, int, error) {
	section, err := quotes.ParseSection(rawSection)
	if err != nil {
		return "", 0, errUsage("edit line", err.Error())
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return "", 0, errUsage("edit line", fmt.Sprintf("line index %q is not a number", rawIndex))
	}
	return section, index, nil
}

// editQuote loads a quote, applies fn and saves the patched quote.
func (cli *ViperCLI) editQuote(cmd *cobra.Command, operation, id string, fn func(ctx context.Context, app *mudanzingo.App, e *quotes.Editor) error) error {
	return cli.withApp(cmd, operation, func(ctx context.Context, app *mudanzingo.App) error {
		q, err := app.Quotes.Get(ctx, id)
		if err != nil {
			return err
		}
		e := quotes.Edit(q)
		if err := fn(ctx, app, e); err != nil {
			return err
		}
		saved, err := app.Quotes.Replace(ctx, e.Quote())
		if err != nil {
			return err
		}
		return printRecord(cmd.OutOrStdout(), cli.format(), saved)
	})
}
