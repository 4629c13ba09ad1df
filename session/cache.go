package session

import (
	"database/sql"
	"errors"
	"time"

	"ormosbot/oops"

	_ "modernc.org/sqlite"
)

type responseCache struct {
	db *sql.DB
}

type cachedResponse struct {
	StatusCode int
	Body       []byte
}

func openResponseCache(path string) (*responseCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Wrap(err)
	}
	pragmas := []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = normal`,
		`PRAGMA journal_size_limit = 6144000`,
		`PRAGMA busy_timeout = 1000`,
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, oops.Wrap(err)
		}
	}
	_, err = db.Exec(`
		create table if not exists responses (
			url text primary key,
			status integer not null,
			body blob not null,
			fetched_at text not null
		)
	`)
	if err != nil {
		db.Close()
		return nil, oops.Wrap(err)
	}
	return &responseCache{db: db}, nil
}

func (c *responseCache) Close() error {
	return c.db.Close()
}

func (c *responseCache) lookup(url string, ttl time.Duration) (cachedResponse, bool, error) {
	row := c.db.QueryRow(`select status, body, fetched_at from responses where url = $1`, url)
	var cached cachedResponse
	var fetchedAtStr string
	err := row.Scan(&cached.StatusCode, &cached.Body, &fetchedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return cachedResponse{}, false, nil
	} else if err != nil {
		return cachedResponse{}, false, oops.Wrap(err)
	}

	fetchedAt, err := time.Parse(time.RFC3339, fetchedAtStr)
	if err != nil || time.Since(fetchedAt) > ttl {
		// Stale or unparseable rows get overwritten by the next store
		return cachedResponse{}, false, nil
	}

	return cached, true, nil
}

func (c *responseCache) store(url string, statusCode int, body []byte) error {
	_, err := c.db.Exec(`
		insert into responses (url, status, body, fetched_at)
		values ($1, $2, $3, $4)
		on conflict (url) do update set
			status = excluded.status,
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, url, statusCode, body, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return oops.Wrap(err)
	}
	return nil
}
