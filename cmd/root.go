/*
	Copyright 2025 Markus Papenbrock
*/

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mpapenbr/pacelock/log"
	fetchCmd "github.com/mpapenbr/pacelock/pkg/cmd/fetch"
	lapsCmd "github.com/mpapenbr/pacelock/pkg/cmd/laps"
	listCmd "github.com/mpapenbr/pacelock/pkg/cmd/list"
	migrateCmd "github.com/mpapenbr/pacelock/pkg/cmd/migrate"
	showCmd "github.com/mpapenbr/pacelock/pkg/cmd/show"
	"github.com/mpapenbr/pacelock/pkg/cmd/util"
	"github.com/mpapenbr/pacelock/pkg/config"
	"github.com/mpapenbr/pacelock/version"
)

const envPrefix = "PACELOCK"

var (
	cfgFile   string
	telemetry *config.Telemetry
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCmd()

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pacelock",
		Short:        "iRacing consistency analytics",
		Long:         `Fetches iRacing subsession results, stores them and prints a summary.`,
		Version:      version.FullVersion,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := util.SetupLogger()
			if err != nil {
				return err
			}
			telemetry = util.SetupTelemetry(cmd.Context())
			cmd.SetContext(log.AddToContext(cmd.Context(), logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchCmd.Run(cmd.Context(), cmd.OutOrStdout(), config.DefaultSubsession)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.pacelock.yml)")
	cmd.PersistentFlags().StringVar(&config.DB, "db",
		config.DefaultDB,
		"sqlite database file or postgresql connection string")
	cmd.PersistentFlags().StringVar(&config.EnvFile, "env-file",
		config.DefaultEnvFile,
		"dotenv file holding the iRacing credentials")
	cmd.PersistentFlags().StringVar(&config.APIURL, "api-url",
		config.DefaultAPIURL,
		"base URL of the iRacing data API")
	cmd.PersistentFlags().StringVar(&config.AuthURL, "auth-url",
		config.DefaultAuthURL,
		"URL of the iRacing auth endpoint")
	cmd.PersistentFlags().StringVar(&config.HTTPTimeout, "http-timeout",
		config.DefaultHTTPTimeout,
		"timeout for a single API request")
	cmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for the database to be ready")
	cmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	cmd.PersistentFlags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, e.g. 'debug:iracing.* info:*'")
	cmd.PersistentFlags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.PersistentFlags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (stdout prints spans)")

	// add commands here
	cmd.AddCommand(fetchCmd.NewFetchCmd())
	cmd.AddCommand(showCmd.NewShowCmd())
	cmd.AddCommand(listCmd.NewListCmd())
	cmd.AddCommand(lapsCmd.NewLapsCmd())
	cmd.AddCommand(migrateCmd.NewMigrateCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	telemetry.Shutdown()
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pacelock" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pacelock")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to PACELOCK_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
