// Package cmd holds the asterias command line: the web server, the
// background worker and the sitemap exporter.
package cmd

import (
	"os"

	"asterias/config"
	"asterias/utils"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "asterias",
	Short: "Asterias Homes website, booking wizard and back office",
	Long: `asterias serves the public site, the booking API and the admin back office.

Commands:
  serve    run the web server (default)
  worker   run the background e-mail and checkout-expiry worker
  sitemap  write sitemap.xml to stdout`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig()
		utils.InitializeLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = utils.GetLogger().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, sitemapCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
