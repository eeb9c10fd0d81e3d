package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudanzingo/backoffice/internal/validation"
	"github.com/mudanzingo/backoffice/mudanzingo"
	"github.com/mudanzingo/backoffice/types"
	"github.com/spf13/cobra"
)

// entityFields documents the input fields of each kind in command help.
var entityFields = map[types.Kind]string{
	types.KindCategories: "name",
	types.KindInventory:  "name, image, category, length, width, height, weight",
	types.KindProviders:  "nombre, empresa, telefono, ciudad, trucks.N.{brand,model,year,capacity,car_plate}",
	types.KindProducts:   "name, price",
	types.KindSellers:    "name, phone, email",
	types.KindServices:   "name, code, basePrice",
	types.KindQuotes:     "customer.{name,phone,email}, serviceDate, serviceTime, origin.*, destination.*",
}

// addEntityCommands adds list/get/create/update/delete under each kind.
func (cli *ViperCLI) addEntityCommands() {
	for _, kind := range types.Kinds() {
		kindCmd := cli.findOrAddKindCommand(kind)
		kindCmd.AddCommand(
			cli.listCommand(kind),
			cli.getCommand(kind),
			cli.createCommand(kind),
			cli.updateCommand(kind),
			cli.deleteCommand(kind),
		)
	}
}

func (cli *ViperCLI) findOrAddKindCommand(kind types.Kind) *cobra.Command {
	for _, c := range cli.rootCmd.Commands() {
		if c.Name() == kind.String() {
			return c
		}
	}
	c := &cobra.Command{
		Use:   kind.String(),
		Short: fmt.Sprintf("Manage %s", kind),
		Long:  fmt.Sprintf("Manage %s.\n\nFields: %s", kind, entityFields[kind]),
	}
	cli.rootCmd.AddCommand(c)
	return c
}

func (cli *ViperCLI) listCommand(kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withCollection(cmd, "list "+kind.String(), kind, func(ctx context.Context, c mudanzingo.AnyCollection) error {
				recs, err := c.ListRecords(ctx)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), cli.format(), recs)
			})
		},
	}
}

func (cli *ViperCLI) getCommand(kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show one of the %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withCollection(cmd, "get "+kind.String(), kind, func(ctx context.Context, c mudanzingo.AnyCollection) error {
				rec, err := c.GetRecord(ctx, args[0])
				if err != nil {
					return err
				}
				return printRecord(cmd.OutOrStdout(), cli.format(), rec)
			})
		},
	}
}

func (cli *ViperCLI) createCommand(kind types.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: fmt.Sprintf("Create one of the %s", kind),
		Long: fmt.Sprintf(`Create a record from --file, --data and --set values.

Fields: %s

Examples:
  mudanzingo %s create --set name=Ejemplo
  mudanzingo %s create --file record.yaml`, entityFields[kind], kind, kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withCollection(cmd, "create "+kind.String(), kind, func(ctx context.Context, c mudanzingo.AnyCollection) error {
				in, err := readInput(cmd, nil)
				if err != nil {
					return errUsage("read input", err.Error())
				}
				rec, err := c.CreateRecord(ctx, in)
				if err != nil {
					return err
				}
				return printRecord(cmd.OutOrStdout(), cli.format(), rec)
			})
		},
	}
	addInputFlags(cmd)
	return cmd
}

func (cli *ViperCLI) updateCommand(kind types.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: fmt.Sprintf("Update one of the %s", kind),
		Long: fmt.Sprintf(`Update a record. The given fields are applied over the stored record and
the result replaces it.

Fields: %s`, entityFields[kind]),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return cli.withCollection(cmd, "update "+kind.String(), kind, func(ctx context.Context, c mudanzingo.AnyCollection) error {
				current, err := c.GetRecord(ctx, id)
				if err != nil {
					return err
				}
				base, err := validation.InputOf(current)
				if err != nil {
					return err
				}
				in, err := readInput(cmd, base)
				if err != nil {
					return errUsage("read input", err.Error())
				}
				in["id"] = id
				rec, err := c.UpdateRecord(ctx, in)
				if err != nil {
					return err
				}
				return printRecord(cmd.OutOrStdout(), cli.format(), rec)
			})
		},
	}
	addInputFlags(cmd)
	return cmd
}

func (cli *ViperCLI) deleteCommand(kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: fmt.Sprintf("Delete %s", kind),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withCollection(cmd, "delete "+kind.String(), kind, func(ctx context.Context, c mudanzingo.AnyCollection) error {
				var missing []string
				for _, id := range args {
					deleted, err := c.Delete(ctx, id)
					if err != nil {
						return err
					}
					if deleted {
						fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
					} else {
						missing = append(missing, id)
					}
				}
				if len(missing) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Not found: %s\n", strings.Join(missing, ", "))
				}
				return nil
			})
		},
	}
}

func (cli *ViperCLI) withCollection(cmd *cobra.Command, operation string, kind types.Kind, fn func(ctx context.Context, c mudanzingo.AnyCollection) error) error {
	return cli.withApp(cmd, operation, func(ctx context.Context, app *mudanzingo.App) error {
		c, err := app.Collection(kind)
		if err != nil {
			return err
		}
		return fn(ctx, c)
	})
}
