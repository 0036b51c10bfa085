package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/featureinfo/internal/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the query configuration",
	Long: `Load the query configuration document and every template it references.

With --discover the command also runs one endpoint discovery pass against the
stack and reports the endpoints found per kind.

Examples:
  # Check the configuration named by FIA_CONFIG_FILE
  featureinfo validate

  # Check a specific document and run discovery
  featureinfo validate --config-file ./fia-config.json --discover`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("discover", false, "Also run endpoint discovery")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(s.Debug)

	cfg, err := loadQueryConfig(s)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"source":    cfg.Source,
		"templates": cfg.Templates.Len(),
		"hours":     cfg.Hours(),
		"database":  cfg.DatabaseName(),
	}).Info("Query configuration is valid")

	discover, _ := cmd.Flags().GetBool("discover")
	if !discover {
		return nil
	}

	a, err := buildApp(s, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.stores.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), s.RequestTimeout)
	defer cancel()

	snap, err := a.registry.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	for _, kind := range domain.Kinds {
		for _, ep := range snap.Endpoints(kind) {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-12s %s\n", kind, ep.ID, ep.URL)
		}
	}
	return nil
}
