// Package cmd provides the command-line interface for the Feature Info Service.
//
// This package implements a cobra-based CLI with commands for:
//   - serve: Start the feature info HTTP service
//   - validate: Check the query configuration and optionally run discovery
//   - version: Display version and build information
//
// The CLI supports configuration via:
//   - Command-line flags
//   - Configuration files (YAML format)
//   - Environment variables prefixed with FIA_
//
// Configuration File Locations:
//   - Specified via --config flag
//   - $HOME/.featureinfo.yaml (default)
package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/featureinfo/internal/helpers"
)

var (
	// cfgFile holds the path to the service configuration file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "featureinfo",
		Short: "Feature Info Service - metadata and time-series lookup for asset IRIs",
		Long: `Feature Info Service resolves the class of an asset IRI across every
graph-store namespace of the stack and returns the metadata and recent
time-series readings configured for that class.

The service:
  - Discovers graph-store namespaces, mapping endpoints and the relational store
  - Federates class and metadata queries across all namespaces
  - Reads time-series samples from a pooled relational store connection

Use "featureinfo serve" to start the API server.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command and returns any error that occurs.
// This is the main entry point for the CLI application.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "service config file (default is $HOME/.featureinfo.yaml)")
	rootCmd.PersistentFlags().String("config-file", "", "query configuration document (overrides "+helpers.EnvConfigFile+")")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	_ = viper.BindPFlag(keyConfigFile, rootCmd.PersistentFlags().Lookup("config-file"))
	_ = viper.BindPFlag(keyDebug, rootCmd.PersistentFlags().Lookup("debug"))

	setDefaults(viper.GetViper())
}

// initConfig reads in config file and environment variables if set.
// This function is called during cobra initialization before command execution.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".featureinfo")
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Info("Using config file")
	}
}

// bindEnv maps every key to a FIA_ prefixed variable, e.g. auth.mode to FIA_AUTH_MODE
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(helpers.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// newLogger creates the service logger
func newLogger(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
