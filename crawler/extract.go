package crawler

import (
	"net/url"
	"sort"
	"strings"

	"ormosbot/oops"

	"github.com/antchfx/htmlquery"
)

// ExtractQueries returns the distinct Scryfall search queries linked from a
// rendered page body, sorted for deterministic output. Links that carry a
// tracking parameter are click-through redirects rather than authored search
// links, and queries without a colon are not structured field searches;
// both kinds are dropped.
func ExtractQueries(renderedHTML string, logger Logger) ([]string, error) {
	document, err := htmlquery.Parse(strings.NewReader(renderedHTML))
	if err != nil {
		return nil, oops.Wrap(err)
	}

	querySet := make(map[string]bool)
	for _, anchor := range htmlquery.Find(document, "//a[@href]") {
		href := htmlquery.SelectAttr(anchor, "href")
		search, ok := searchQueryFromHref(href)
		if !ok {
			continue
		}

		if !strings.Contains(search, ":") {
			logger.Info("  Skipping non-colon search link: %s", search)
			continue
		}

		logger.Info("  Found Scryfall query: %s", search)
		querySet[search] = true
	}

	queries := make([]string, 0, len(querySet))
	for search := range querySet {
		queries = append(queries, search)
	}
	sort.Strings(queries)
	return queries, nil
}

func searchQueryFromHref(href string) (string, bool) {
	parsedURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(parsedURL.Hostname())
	if host != "scryfall.com" && !strings.HasSuffix(host, ".scryfall.com") {
		return "", false
	}
	if parsedURL.Path != "/search" {
		return "", false
	}

	queryParams := parsedURL.Query()
	if !queryParams.Has("q") || queryParams.Has("utm_source") {
		return "", false
	}

	return queryParams.Get("q"), true
}
