package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mudanzingo/backoffice/mudanzingo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configKeys are every setting read from config files and MUDANZINGO_*
// environment variables.
var configKeys = []string{
	"storage.driver",
	"storage.dir",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"storage.indexeddb",
	"storage.s3.bucket",
	"storage.s3.region",
	"storage.s3.endpoint",
	"storage.s3.prefix",
	"storage.s3.path_style",
	"storage.s3.access_key_id",
	"storage.s3.secret_access_key",
	"auth.region",
	"auth.user_pool_id",
	"auth.client_id",
	"auth.domain",
	"auth.scopes",
	"auth.redirect_sign_in",
	"auth.redirect_sign_out",
	"auth.origin",
	"products_url",
	"no_latency",
	"log_level",
	"format",
	"verbose",
}

// openFunc opens the application for one command.
type openFunc func(ctx context.Context, cfg mudanzingo.Config, opts ...mudanzingo.Option) (*mudanzingo.App, error)

// ViperCLI is the mudanzingo command line, configured through flags,
// environment variables and config files.
type ViperCLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	open      openFunc
	logger    *slog.Logger
	logFile   io.Closer
	configErr error
}

// NewViperCLI creates the CLI with all commands registered.
func NewViperCLI() *ViperCLI {
	cli := &ViperCLI{
		viperInst: viper.New(),
		open:      mudanzingo.Open,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()
	return cli
}

// setupViperConfig configures config file discovery and environment
// variables.
func (cli *ViperCLI) setupViperConfig() {
	v := cli.viperInst
	if configFile := os.Getenv("MUDANZINGO_CONFIG"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mudanzingo")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mudanzingo")
		v.AddConfigPath("/etc/mudanzingo")
	}

	// storage.s3.bucket <- MUDANZINGO_STORAGE_S3_BUCKET
	v.SetEnvPrefix("MUDANZINGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}

	v.SetDefault("format", "table")
	v.SetDefault("log_level", "warn")
	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "data")

	cli.readConfig()
}

func (cli *ViperCLI) readConfig() {
	err := cli.viperInst.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		cli.configErr = err
		return
	}
	cli.configErr = nil
}

// createRootCommand creates the root command.
func (cli *ViperCLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "mudanzingo",
		Short: "Mudanzingo back office",
		Long: `Manage the catalogs, providers, sellers and quotes of the Mudanzingo
back office.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (MUDANZINGO_*)
3. Configuration file (MUDANZINGO_CONFIG, --config, or mudanzingo.yaml/json
   in ., ~/.mudanzingo, /etc/mudanzingo)

Examples:
  mudanzingo categories create --set name=Empaques
  mudanzingo inventory list --format json
  MUDANZINGO_STORAGE_DRIVER=sqlite mudanzingo services list
  mudanzingo catalog search inventory caja --highlight`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				cli.viperInst.SetConfigFile(path)
				cli.readConfig()
			}
			if cli.configErr != nil {
				return NewConfigError("load configuration", cli.configErr.Error(), CommonSuggestions.CheckConfig)
			}
			return cli.initLogging(cmd)
		},
	}
	cli.addGlobalFlags()
}

// addGlobalFlags adds persistent flags and binds them to their config keys.
func (cli *ViperCLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()
	flags.String("config", "", "Config file path")
	flags.String("driver", "file", "Storage driver (file|memory|sqlite|postgres|s3)")
	flags.String("dir", "data", "Data directory of the file and sqlite drivers")
	flags.StringP("format", "f", "table", "Output format (table|json|yaml)")
	flags.BoolP("verbose", "v", false, "Also log to stderr")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.Bool("no-latency", false, "Skip artificial read and write delays")
	flags.String("products-url", "", "Base URL of the products API")

	bindings := map[string]string{
		"driver":       "storage.driver",
		"dir":          "storage.dir",
		"format":       "format",
		"verbose":      "verbose",
		"log-level":    "log_level",
		"no-latency":   "no_latency",
		"products-url": "products_url",
	}
	for flag, key := range bindings {
		_ = cli.viperInst.BindPFlag(key, flags.Lookup(flag))
	}
}

// addCommands registers every command.
func (cli *ViperCLI) addCommands() {
	cli.addEntityCommands()
	cli.addQuoteCommands()
	cli.addCatalogCommands()
	cli.addAuthCommands()
	cli.addStorageCommands()
	cli.addConfigCommand()
}

// Execute runs the CLI.
func (cli *ViperCLI) Execute() error {
	defer cli.closeLog()
	return cli.rootCmd.Execute()
}

// appConfig decodes the effective configuration.
func (cli *ViperCLI) appConfig() (mudanzingo.Config, error) {
	var cfg mudanzingo.Config
	if err := cli.viperInst.Unmarshal(&cfg); err != nil {
		return cfg, NewConfigError("load configuration", err.Error(), CommonSuggestions.CheckConfig)
	}
	return cfg, nil
}

// withApp opens the application, runs fn and closes it.
func (cli *ViperCLI) withApp(cmd *cobra.Command, operation string, fn func(ctx context.Context, app *mudanzingo.App) error) (err error) {
	cfg, err := cli.appConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := cli.open(ctx, cfg, mudanzingo.WithLogger(cli.logger))
	if err != nil {
		return WrapError(operation, err, CommonSuggestions.CheckConfig)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = WrapError(operation, cerr)
		}
	}()
	if err := fn(ctx, app); err != nil {
		return WrapError(operation, err)
	}
	return nil
}

// format returns the selected output format.
func (cli *ViperCLI) format() string {
	return cli.viperInst.GetString("format")
}

// addConfigCommand adds the config command.
func (cli *ViperCLI) addConfigCommand() {
	cli.rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := cli.viperInst.AllSettings()
			redact(settings)
			format := cli.format()
			if format == "table" {
				format = "yaml"
			}
			return writeValue(cmd.OutOrStdout(), format, settings)
		},
	})
}

// redact hides credentials in a settings tree.
func redact(settings map[string]any) {
	for k, v := range settings {
		switch val := v.(type) {
		case map[string]any:
			redact(val)
		case string:
			if val != "" && (strings.Contains(k, "secret") || strings.Contains(k, "dsn")) {
				settings[k] = "********"
			}
		}
	}
}

func (cli *ViperCLI) closeLog() {
	if cli.logFile != nil {
		_ = cli.logFile.Close()
		cli.logFile = nil
	}
}

// errUsage reports a malformed command line.
func errUsage(operation, msg string) error {
	return &CLIError{Operation: operation, Cause: msg, Suggestions: []string{CommonSuggestions.RunHelp}}
}
