// Resolves collected search queries into per-color-identity card counts via
// the Scryfall API. One bad color or one flaky response must never drop a
// query from the table, so every failure path lands on a zero count.
package scryfall

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ormosbot/log"
	"ormosbot/session"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ColorOrder fixes the iteration and output order of the color identity
// facets. "m" is the multicolor catch-all.
var ColorOrder = []string{"c", "w", "u", "b", "r", "g", "m"}

const (
	defaultSearchURL = "https://api.scryfall.com/cards/search"
	userAgent        = "OrmosBot/1.0"
	requestTimeout   = 10 * time.Second
	maxRetries       = 3
)

type Engine struct {
	Session   *session.Client
	SearchURL string
}

func NewEngine(sess *session.Client) *Engine {
	return &Engine{
		Session:   sess,
		SearchURL: defaultSearchURL,
	}
}

// Table maps query -> color -> count in query insertion order.
type Table = orderedmap.OrderedMap[string, map[string]int]

// BuildTable fetches stats for every query, in the given order.
func (e *Engine) BuildTable(ctx context.Context, queries []string) (*Table, error) {
	table := orderedmap.New[string, map[string]int]()
	for i, query := range queries {
		log.Info().Int("done", i).Int("total", len(queries)).Msg("Updating stats")
		stats, err := e.FetchStats(ctx, query)
		if err != nil {
			return nil, err
		}
		table.Set(query, stats)
	}
	return table, nil
}

// FetchStats returns a count for each of the seven colors. The base query is
// augmented with one color filter per request; a grouping-syntax rejection
// gets a single fallback attempt without the parentheses.
func (e *Engine) FetchStats(ctx context.Context, query string) (map[string]int, error) {
	stats := make(map[string]int)

	for _, color := range ColorOrder {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fullQuery := fmt.Sprintf("(%s) id=%s", query, color)
		noBrackets := fmt.Sprintf("%s id=%s", query, color)

		resp, err := e.search(ctx, fullQuery)
		if err != nil {
			log.Error().Err(err).Str("query", fullQuery).Msg("Error fetching stats")
			stats[color] = 0
			continue
		}

		switch {
		case resp.Ok():
			stats[color] = totalCards(resp.Body)
		case resp.StatusCode == 404:
			// No cards matched, which is a valid zero
			stats[color] = 0
		case resp.StatusCode == 400 && strings.Contains(string(resp.Body), "Display options"):
			log.Info().Str("query", noBrackets).Msg("Retrying without brackets")
			fallbackResp, err := e.search(ctx, noBrackets)
			switch {
			case err != nil:
				log.Error().Err(err).Str("query", noBrackets).Msg("Error fetching stats")
				stats[color] = 0
			case fallbackResp.Ok():
				stats[color] = totalCards(fallbackResp.Body)
			case fallbackResp.StatusCode == 404:
				stats[color] = 0
			default:
				log.Error().
					Str("query", noBrackets).
					Int("status", fallbackResp.StatusCode).
					Str("body", string(fallbackResp.Body)).
					Msg("Error fetching stats")
				stats[color] = 0
			}
		default:
			log.Error().
				Str("query", fullQuery).
				Int("status", resp.StatusCode).
				Str("body", string(resp.Body)).
				Msg("Error fetching stats")
			stats[color] = 0
		}
	}

	return stats, nil
}

// search performs one API round trip, retrying transport-level failures with
// exponential backoff. Responses that arrived, whatever their status, are
// returned for the caller to branch on. Queries containing the OR operator
// expand combinatorially and would pollute the response cache with low-reuse
// entries, so those bypass it.
func (e *Engine) search(ctx context.Context, query string) (*session.Response, error) {
	params := url.Values{}
	params.Set("q", query)
	requestURL := e.SearchURL + "?" + params.Encode()

	opts := session.RequestOptions{
		Timeout:      requestTimeout,
		Headers:      map[string]string{"User-Agent": userAgent},
		DisableCache: strings.Contains(query, "+"),
	}

	var resp *session.Response
	operation := func() error {
		var err error
		resp, err = e.Session.Get(ctx, requestURL, opts)
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

func totalCards(body []byte) int {
	var payload struct {
		TotalCards int `json:"total_cards"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error().Err(err).Msg("Couldn't parse search response")
		return 0
	}
	if payload.TotalCards < 0 {
		return 0
	}
	return payload.TotalCards
}
