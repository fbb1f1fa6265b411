package cmd

import (
	"context"
	"time"

	"asterias/config"
	"asterias/services/backend"
	"asterias/services/sitemap"
	"asterias/utils"

	"github.com/spf13/cobra"
)

var sitemapBaseURL string

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Write sitemap.xml to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.AppConfig
		base := sitemapBaseURL
		if base == "" {
			base = cfg.SiteURL
		}
		client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, nil, utils.GetLogger())
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		return sitemap.NewGenerator(base, cfg.SupportedLocales(), client).Write(ctx, cmd.OutOrStdout())
	},
}

func init() {
	sitemapCmd.Flags().StringVar(&sitemapBaseURL, "base-url", "", "public site root (defaults to SITE_URL)")
}
