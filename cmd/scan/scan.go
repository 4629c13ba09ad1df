// Crawl stage: walk pages transcluding the tracked templates, collect the
// Scryfall queries they link, and dump the aggregate to disk.
package scan

import (
	"context"
	"os"

	"ormosbot/config"
	"ormosbot/crawler"
	"ormosbot/log"
	"ormosbot/session"
	"ormosbot/wiki"

	"github.com/spf13/cobra"
)

var Scan *cobra.Command

func init() {
	Scan = &cobra.Command{
		Use:   "scan",
		Short: "Collect Scryfall queries from pages transcluding the stats templates",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				log.Error().Err(err).Msg("scan failed")
				os.Exit(1)
			}
		},
	}
	Scan.Flags().StringVar(&site, "site", "en", "Project language code")
	Scan.Flags().StringVar(&family, "family", "mtg", "Wiki family key")
	Scan.Flags().StringVar(&configPath, "config", "config.json", "Path to config.json providing HTTP headers")
	Scan.Flags().StringVar(&outputFile, "output-file", "scryfall_queries.json", "Path to output JSON file for queries")
	Scan.Flags().StringVar(
		&revisionCachePath, "revision-cache", "scryfall_revision_cache.json",
		"Path to JSON file storing last processed revisions",
	)
}

var site string
var family string
var configPath string
var outputFile string
var revisionCachePath string

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	sess, err := session.NewClient(session.DefaultConfig(), cfg.Headers)
	if err != nil {
		return err
	}
	defer sess.Close()

	logger := &crawler.ZeroLogger{}
	c := &crawler.Crawler{
		Source:     wiki.NewClient(sess, site, family),
		Cache:      crawler.LoadRevisionCache(revisionCachePath, logger),
		CachePath:  revisionCachePath,
		Registry:   crawler.NewRegistry(),
		OutputPath: outputFile,
		Logger:     logger,
	}
	return c.Run(context.Background(), crawler.TemplatesToCheck)
}
