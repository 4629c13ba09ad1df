// Stats stage: resolve every collected query against the Scryfall API and
// render the aggregate into the Lua data module and switch template files.
package update

import (
	"context"
	"os"
	"sort"

	"ormosbot/config"
	"ormosbot/log"
	"ormosbot/oops"
	"ormosbot/render"
	"ormosbot/scryfall"
	"ormosbot/session"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var Update *cobra.Command

func init() {
	Update = &cobra.Command{
		Use:   "update",
		Short: "Fetch Scryfall stats for collected queries and render output files",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				log.Error().Err(err).Msg("update failed")
				os.Exit(1)
			}
		},
	}
	Update.Flags().StringVar(&site, "site", "en", "Project language code")
	Update.Flags().StringVar(&family, "family", "mtg", "Wiki family key")
	Update.Flags().StringVar(&configPath, "config", "config.json", "Path to config.json providing HTTP headers")
	Update.Flags().StringVar(&inputFile, "input-file", "scryfall_queries.json", "Path to input JSON file for queries")
	Update.Flags().StringVar(&moduleFile, "module-file", "ScryfallStats_data.lua", "Path to output Lua data module")
	Update.Flags().StringVar(&switchFile, "switch-file", "giantswitch.txt", "Path to output switch template")
}

var site string
var family string
var configPath string
var inputFile string
var moduleFile string
var switchFile string

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	queries, err := loadQueries(inputFile)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(queries)).Str("path", inputFile).Msg("Loaded queries")

	sess, err := session.NewClient(session.DefaultConfig(), cfg.Headers)
	if err != nil {
		return err
	}
	defer sess.Close()

	engine := scryfall.NewEngine(sess)
	table, err := engine.BuildTable(context.Background(), queries)
	if err != nil {
		return err
	}

	luaCode := render.LuaModule(table)
	if err := os.WriteFile(moduleFile, []byte(luaCode), 0644); err != nil {
		return oops.Wrap(err)
	}
	log.Info().Str("path", moduleFile).Msg("Wrote Lua data module")

	switchCode := render.SwitchTemplate(table)
	if err := os.WriteFile(switchFile, []byte(switchCode), 0644); err != nil {
		return oops.Wrap(err)
	}
	log.Info().Str("path", switchFile).Msg("Wrote switch template data")

	return nil
}

// loadQueries dedupes and sorts so the stats run and its rendered output are
// reproducible regardless of how the input file was produced.
func loadQueries(path string) ([]string, error) {
	queryBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrap(err)
	}
	var rawQueries []string
	if err := json.Unmarshal(queryBytes, &rawQueries); err != nil {
		return nil, oops.Wrapf(err, "couldn't parse queries file: %s", path)
	}

	querySet := make(map[string]bool)
	for _, query := range rawQueries {
		querySet[query] = true
	}
	queries := make([]string, 0, len(querySet))
	for query := range querySet {
		queries = append(queries, query)
	}
	sort.Strings(queries)
	return queries, nil
}
