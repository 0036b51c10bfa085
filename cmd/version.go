package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	goVersion "go.hein.dev/go-version"
)

// Build metadata, overridden with -ldflags "-X evalgo.org/featureinfo/cmd.version=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// versionOptions are the flags of the version command
type versionOptions struct {
	short  bool
	output string
}

var versionOpts = versionOptions{short: true, output: "json"}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build information",
	Long: `Display the version of the feature info service.

With --short=false the commit and build date are printed as well, as JSON
or YAML depending on --output. The same version is reported by GET /health.`,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprint(cmd.OutOrStdout(), versionString(versionOpts))
	},
}

func versionString(opts versionOptions) string {
	return goVersion.FuncWithOutput(opts.short, version, commit, date, opts.output)
}

func init() {
	versionCmd.Flags().BoolVarP(&versionOpts.short, "short", "s", versionOpts.short, "Print just the version number")
	versionCmd.Flags().StringVarP(&versionOpts.output, "output", "o", versionOpts.output, "Output format, yaml or json")
	rootCmd.AddCommand(versionCmd)
}
