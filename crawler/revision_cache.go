package crawler

import (
	"os"

	"ormosbot/oops"

	"github.com/goccy/go-json"
)

// PageRecord is the last processed state of one page. Queries is nil for
// records written before queries were cached alongside revisions; those
// pages get re-extracted once and the record upgraded.
type PageRecord struct {
	RevID     *int64    `json:"rev_id"`
	Timestamp *string   `json:"timestamp"`
	Queries   *[]string `json:"queries,omitempty"`
}

func (r PageRecord) HasQueries() bool {
	return r.Queries != nil
}

// RevisionCache maps page title to the revision last extracted for it.
// Entries are never deleted; stale titles are harmless.
type RevisionCache map[string]PageRecord

// LoadRevisionCache returns an empty cache when the backing file is missing
// or unreadable. A corrupt file costs a full re-crawl, not a crash.
func LoadRevisionCache(path string, logger Logger) RevisionCache {
	cacheBytes, err := os.ReadFile(path)
	if err != nil {
		return RevisionCache{}
	}

	var cache RevisionCache
	if err := json.Unmarshal(cacheBytes, &cache); err != nil {
		logger.Warn("Failed to parse revision cache at %s; rebuilding", path)
		return RevisionCache{}
	}
	if cache == nil {
		return RevisionCache{}
	}
	return cache
}

// Save overwrites the backing file with the full mapping.
func (c RevisionCache) Save(path string) error {
	cacheBytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return oops.Wrap(err)
	}
	if err := os.WriteFile(path, cacheBytes, 0644); err != nil {
		return oops.Wrap(err)
	}
	return nil
}

// NewPageRecord builds the snapshot stored after a successful extraction.
func NewPageRecord(revID int64, timestamp string, queries []string) PageRecord {
	record := PageRecord{
		RevID:     &revID,
		Timestamp: nil,
		Queries:   nil,
	}
	if timestamp != "" {
		record.Timestamp = &timestamp
	}
	if queries != nil {
		recordQueries := make([]string, len(queries))
		copy(recordQueries, queries)
		record.Queries = &recordQueries
	}
	return record
}
