package main

import (
	"context"

	"github.com/mudanzingo/backoffice/mudanzingo"
	"github.com/mudanzingo/backoffice/search"
	"github.com/mudanzingo/backoffice/types"
	"github.com/spf13/cobra"
)

// searchRow is one search hit as printed by the CLI.
type searchRow struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Match string  `json:"match" yaml:"match"`
	Score float64 `json:"score" yaml:"score"`
}

// namedRecord is a record with a display name.
type namedRecord[E any] interface {
	types.Record[E]
	types.Named
}

// addCatalogCommands adds the catalog search command.
func (cli *ViperCLI) addCatalogCommands() {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse catalogs",
	}
	searchCmd := &cobra.Command{
		Use:   "search <kind> [query]",
		Short: "Search a catalog by name",
		Long: `Search the records of a kind by display name. Matching ignores case and
accents; a blank query lists the whole catalog.

Examples:
  mudanzingo catalog search inventory caja
  mudanzingo catalog search services emb --highlight --rank --limit 5`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseKind(args[0])
			if err != nil {
				return errUsage("search catalog", err.Error())
			}
			opts := search.Options{}
			if len(args) == 2 {
				opts.Query = args[1]
			}
			opts.EnableHighlight, _ = cmd.Flags().GetBool("highlight")
			opts.RankByScore, _ = cmd.Flags().GetBool("rank")
			if n, _ := cmd.Flags().GetInt("limit"); n > 0 {
				opts.MaxResults = &n
			}

			return cli.withApp(cmd, "search "+kind.String(), func(ctx context.Context, app *mudanzingo.App) error {
				rows, err := searchKind(ctx, app, kind, opts)
				if err != nil {
					return err
				}
				recs := make([]any, len(rows))
				for i, r := range rows {
					recs[i] = r
				}
				return printRecords(cmd.OutOrStdout(), cli.format(), recs)
			})
		},
	}
	searchCmd.Flags().Bool("highlight", false, "Mark the matched text with **")
	searchCmd.Flags().Bool("rank", false, "Order by match quality instead of catalog order")
	searchCmd.Flags().Int("limit", 0, "Maximum number of results (0 for all)")

	catalogCmd.AddCommand(searchCmd)
	cli.rootCmd.AddCommand(catalogCmd)
}

func searchKind(ctx context.Context, app *mudanzingo.App, kind types.Kind, opts search.Options) ([]searchRow, error) {
	switch kind {
	case types.KindCategories:
		return searchCollection(ctx, app.Categories, opts)
	case types.KindInventory:
		return searchCollection(ctx, app.Inventory, opts)
	case types.KindProviders:
		return searchCollection(ctx, app.Providers, opts)
	case types.KindProducts:
		return searchCollection(ctx, app.Products, opts)
	case types.KindSellers:
		return searchCollection(ctx, app.Sellers, opts)
	case types.KindServices:
		return searchCollection(ctx, app.Services, opts)
	default:
		return searchCollection(ctx, app.Quotes, opts)
	}
}

func searchCollection[E namedRecord[E]](ctx context.Context, c *mudanzingo.Collection[E], opts search.Options) ([]searchRow, error) {
	results, err := search.NewEngine[E](search.ProviderFunc[E](c.List)).Search(ctx, opts)
	if err != nil {
		return nil, err
	}
	rows := make([]searchRow, len(results))
	for i, r := range results {
		rows[i] = searchRow{ID: r.Item.RecordID(), Name: r.Highlight, Match: string(r.MatchType), Score: r.Score}
	}
	return rows, nil
}
