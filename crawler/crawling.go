package crawler

import (
	"context"

	"ormosbot/wiki"
)

var TemplatesToCheck = []string{
	"Template:Scryfall stats",
	"Template:Scryfall count",
}

// Pages flushed between checkpoints bound how much work an interrupted run
// loses.
const defaultCheckpointEvery = 100

type Crawler struct {
	Source           wiki.PageSource
	Cache            RevisionCache
	CachePath        string
	Registry         *Registry
	OutputPath       string
	Logger           Logger
	CheckpointEvery  int
	processedCount   int
	processedAtFlush int
}

// Run iterates every page transcluding each template, extracting queries
// from pages whose revision changed since the last run and reusing cached
// queries for the rest. The seen set spans templates, so a page transcluding
// two tracked templates is processed once.
func (c *Crawler) Run(ctx context.Context, templates []string) error {
	seenPages := make(map[string]bool)
	checkpointEvery := c.CheckpointEvery
	if checkpointEvery == 0 {
		checkpointEvery = defaultCheckpointEvery
	}

	for _, template := range templates {
		c.Logger.Info("Processing template: %s", template)
		pages, err := c.Source.EmbeddedIn(ctx, template)
		if err != nil {
			return err
		}

		for _, page := range pages {
			if seenPages[page.Title] {
				continue
			}
			seenPages[page.Title] = true

			if err := c.processPage(ctx, page); err != nil {
				return err
			}

			if c.processedCount-c.processedAtFlush >= checkpointEvery {
				c.Logger.Info("Processed %d pages...", c.processedCount)
				c.Logger.Info("  Current queries: %d", c.Registry.Len())
				if err := c.Flush(); err != nil {
					return err
				}
			}
		}

		if err := c.Flush(); err != nil {
			return err
		}
	}

	return c.Flush()
}

func (c *Crawler) processPage(ctx context.Context, page wiki.Page) error {
	revision, err := c.Source.LatestRevision(ctx, page.Title)
	if wiki.IsTimeout(err) {
		c.Logger.Error("  Timeout fetching revision for %s: %v", page.Title, err)
		return nil
	} else if err != nil {
		return err
	}

	if cached, ok := c.Cache[page.Title]; ok &&
		cached.RevID != nil && *cached.RevID == revision.ID {

		if !cached.HasQueries() {
			c.Logger.Info("  Cache missing queries for %s; reprocessing", page.Title)
		} else {
			c.Logger.Info("  Skipping unchanged page: %s (rev %d)", page.Title, revision.ID)
			c.Registry.Register(page.Title, *cached.Queries)
			return nil
		}
	}

	c.Logger.Info("Processing page: %s", page.Title)
	renderedHTML, err := c.Source.RenderedHTML(ctx, page.Title)
	if wiki.IsTimeout(err) {
		// Cache entry stays as-is so the next run retries the page
		c.Logger.Error("  Timeout processing %s: %v", page.Title, err)
		return nil
	} else if err != nil {
		return err
	}

	pageQueries, err := ExtractQueries(renderedHTML, c.Logger)
	if err != nil {
		return err
	}

	c.Registry.Register(page.Title, pageQueries)
	c.Cache[page.Title] = NewPageRecord(revision.ID, revision.Timestamp, pageQueries)
	c.processedCount++
	return nil
}

// Flush checkpoints the registry and revision cache to disk.
func (c *Crawler) Flush() error {
	if err := c.Registry.DumpFiles(c.OutputPath, c.Logger); err != nil {
		return err
	}
	if err := c.Cache.Save(c.CachePath); err != nil {
		return err
	}
	c.processedAtFlush = c.processedCount
	return nil
}
