package crawler

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"ormosbot/oops"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry accumulates query -> pages referencing it, in first-seen order.
// Rebuilt from scratch each crawl run.
type Registry struct {
	queries *orderedmap.OrderedMap[string, []string]
}

func NewRegistry() *Registry {
	return &Registry{
		queries: orderedmap.New[string, []string](),
	}
}

// Register records each query as referenced by the page.
func (r *Registry) Register(pageTitle string, pageQueries []string) {
	for _, search := range pageQueries {
		pages, _ := r.queries.Get(search)
		if slices.Contains(pages, pageTitle) {
			continue
		}
		r.queries.Set(search, append(pages, pageTitle))
	}
}

func (r *Registry) Len() int {
	return r.queries.Len()
}

func (r *Registry) SortedQueries() []string {
	queries := make([]string, 0, r.queries.Len())
	for pair := r.queries.Oldest(); pair != nil; pair = pair.Next() {
		queries = append(queries, pair.Key)
	}
	sort.Strings(queries)
	return queries
}

// DumpFiles writes the sorted query list to listPath and the full
// query -> pages mapping next to it with a .map extension.
func (r *Registry) DumpFiles(listPath string, logger Logger) error {
	sortedQueries := r.SortedQueries()
	listBytes, err := json.MarshalIndent(sortedQueries, "", "  ")
	if err != nil {
		return oops.Wrap(err)
	}
	if err := os.WriteFile(listPath, listBytes, 0644); err != nil {
		return oops.Wrap(err)
	}
	logger.Info("Dumped %d queries to %s", len(sortedQueries), listPath)

	mapBytes, err := json.Marshal(r.queries)
	if err != nil {
		return oops.Wrap(err)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, mapBytes, "", "  "); err != nil {
		return oops.Wrap(err)
	}
	if err := os.WriteFile(mapPath(listPath), indented.Bytes(), 0644); err != nil {
		return oops.Wrap(err)
	}
	return nil
}

func mapPath(listPath string) string {
	return strings.TrimSuffix(listPath, filepath.Ext(listPath)) + ".map"
}
