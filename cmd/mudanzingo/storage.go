package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mudanzingo/backoffice/mudanzingo/migration"
	"github.com/mudanzingo/backoffice/mudanzingo/slots"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

// addStorageCommands adds the storage maintenance commands.
func (cli *ViperCLI) addStorageCommands() {
	storageCmd := &cobra.Command{
		Use:   "storage",
		Short: "Check and move stored records",
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every stored record against its schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("details")
			return cli.withSlots(cmd, "validate storage", func(ctx context.Context, s slots.Slots) error {
				result := migration.Validate(ctx, s, nil)
				return reportResult(cmd.OutOrStdout(), "validate storage", "Validation", result, verbose, false)
			})
		},
	}
	validateCmd.Flags().Bool("details", false, "Show debug messages and field details")

	copyCmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy every stored record list to another backend",
		Long: `Copy the record lists of the configured backend to the backend given by the
--to-* flags. Lists that already hold records at the target are kept unless
--overwrite is set.

Example:
  mudanzingo --driver file --dir data storage copy --to-driver sqlite --to-sqlite-path mudanzingo.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := targetConfig(cmd.Flags())
			if err != nil {
				return err
			}
			opts := migration.Options{}
			opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
			opts.Overwrite, _ = cmd.Flags().GetBool("overwrite")
			verbose, _ := cmd.Flags().GetBool("details")

			return cli.withSlots(cmd, "copy storage", func(ctx context.Context, from slots.Slots) (err error) {
				to, err := slots.Open(ctx, target, cli.logger)
				if err != nil {
					return err
				}
				defer func() { err = multierr.Append(err, to.Close()) }()
				result := migration.Copy(ctx, from, to, opts)
				return reportResult(cmd.OutOrStdout(), "copy storage", "Copy", result, verbose, opts.DryRun)
			})
		},
	}
	flags := copyCmd.Flags()
	flags.String("to-driver", "", "Target storage driver (required)")
	flags.String("to-dir", "", "Target data directory")
	flags.String("to-sqlite-path", "", "Target SQLite database file")
	flags.String("to-postgres-dsn", "", "Target PostgreSQL connection string")
	flags.String("to-s3-bucket", "", "Target S3 bucket")
	flags.String("to-s3-region", "", "Target S3 region")
	flags.String("to-s3-endpoint", "", "Target S3 endpoint")
	flags.String("to-s3-prefix", "", "Target S3 key prefix")
	flags.Bool("to-s3-path-style", false, "Use path-style S3 addressing")
	flags.BoolP("dry-run", "n", false, "Preview without writing")
	flags.Bool("overwrite", false, "Replace lists that already hold records at the target")
	flags.Bool("details", false, "Show debug messages and field details")
	_ = copyCmd.MarkFlagRequired("to-driver")

	storageCmd.AddCommand(validateCmd, copyCmd)
	cli.rootCmd.AddCommand(storageCmd)
}

// targetConfig reads the --to-* flags.
func targetConfig(f *pflag.FlagSet) (slots.Config, error) {
	var cfg slots.Config
	cfg.Driver, _ = f.GetString("to-driver")
	cfg.Dir, _ = f.GetString("to-dir")
	cfg.SQLitePath, _ = f.GetString("to-sqlite-path")
	cfg.PostgresDSN, _ = f.GetString("to-postgres-dsn")
	cfg.S3.Bucket, _ = f.GetString("to-s3-bucket")
	cfg.S3.Region, _ = f.GetString("to-s3-region")
	cfg.S3.Endpoint, _ = f.GetString("to-s3-endpoint")
	cfg.S3.Prefix, _ = f.GetString("to-s3-prefix")
	cfg.S3.PathStyle, _ = f.GetBool("to-s3-path-style")
	if cfg.Driver == slots.DriverMemory {
		return cfg, errUsage("copy storage", "the memory driver does not outlive the command")
	}
	return cfg, nil
}

// withSlots opens the configured storage backend, runs fn and closes it.
func (cli *ViperCLI) withSlots(cmd *cobra.Command, operation string, fn func(ctx context.Context, s slots.Slots) error) (err error) {
	cfg, err := cli.appConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := slots.Open(ctx, cfg.Storage, cli.logger)
	if err != nil {
		return WrapError(operation, err, CommonSuggestions.CheckConfig)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = WrapError(operation, cerr)
		}
	}()
	if err := fn(ctx, s); err != nil {
		return WrapError(operation, err)
	}
	return nil
}

// reportResult prints the messages and summary of a run and returns an
// error when it failed.
func reportResult(w io.Writer, operation, name string, result *migration.Result, verbose, dryRun bool) error {
	for _, msg := range result.Messages {
		switch msg.Level {
		case migration.LevelError:
			fmt.Fprintf(w, "ERROR: %s\n", msg.Text)
		case migration.LevelWarning:
			fmt.Fprintf(w, "WARN: %s\n", msg.Text)
		case migration.LevelInfo:
			fmt.Fprintln(w, msg.Text)
		case migration.LevelDebug:
			if verbose {
				fmt.Fprintf(w, "DEBUG: %s\n", msg.Text)
			}
		}
		if verbose && len(msg.Details) > 0 {
			keys := make([]string, 0, len(msg.Details))
			for k := range msg.Details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "  %s: %v\n", k, msg.Details[k])
			}
		}
	}

	fmt.Fprintln(w)
	if !result.Success {
		fmt.Fprintf(w, "%s failed\n", name)
		return &CLIError{
			Operation:   operation,
			Cause:       fmt.Sprintf("%d problems found", len(result.Errors())),
			Suggestions: []string{"Run again with --details to see the rejected fields"},
		}
	}
	fmt.Fprintf(w, "%s completed successfully\n", name)
	fmt.Fprintf(w, "  Records: %d", result.Stats.TotalRecords)
	if result.Stats.InvalidRecords > 0 {
		fmt.Fprintf(w, " (%d invalid)", result.Stats.InvalidRecords)
	}
	fmt.Fprintln(w)
	if len(result.Modified) > 0 || result.Stats.SkippedSlots > 0 {
		fmt.Fprintf(w, "  Copied lists: %d, skipped: %d\n", result.Stats.ModifiedSlots, result.Stats.SkippedSlots)
	}
	fmt.Fprintf(w, "  Duration: %v\n", result.Stats.Duration)
	if dryRun {
		fmt.Fprintf(w, "  (DRY RUN - no changes applied)\n")
	}
	return nil
}
