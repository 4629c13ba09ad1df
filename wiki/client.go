// Read-only MediaWiki Action API client, narrowed to the three calls the
// crawl stage needs: list transcluding pages, fetch latest revision metadata,
// fetch rendered page HTML.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"ormosbot/oops"
	"ormosbot/session"

	"github.com/goccy/go-json"
)

type Page struct {
	Title  string
	PageID int64
}

type Revision struct {
	ID        int64
	Timestamp string
}

type PageSource interface {
	EmbeddedIn(ctx context.Context, template string) ([]Page, error)
	LatestRevision(ctx context.Context, title string) (Revision, error)
	RenderedHTML(ctx context.Context, title string) (string, error)
}

type TimeoutError struct {
	Title string
	Inner error
}

func (err *TimeoutError) Error() string {
	return fmt.Sprintf("timed out fetching %s: %v", err.Title, err.Inner)
}

func (err *TimeoutError) Unwrap() error {
	return err.Inner
}

func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

const requestTimeout = 30 * time.Second

type Client struct {
	session *session.Client
	apiURL  string
}

var _ PageSource = (*Client)(nil)

func NewClient(sess *session.Client, site string, family string) *Client {
	return &Client{
		session: sess,
		apiURL:  apiEndpoint(site, family),
	}
}

// Single-language families resolve to a fixed host, farm-style families to
// the usual <code>.<family>.org layout.
var familyHosts = map[string]string{
	"mtg": "mtg.wiki",
}

func apiEndpoint(site string, family string) string {
	host, ok := familyHosts[family]
	if !ok {
		host = fmt.Sprintf("%s.%s.org", site, family)
	}
	return fmt.Sprintf("https://%s/api.php", host)
}

// EmbeddedIn lists every page that transcludes the template, following API
// continuation until the listing is exhausted.
func (c *Client) EmbeddedIn(ctx context.Context, template string) ([]Page, error) {
	var pages []Page
	continueToken := ""
	for {
		params := url.Values{}
		params.Set("action", "query")
		params.Set("format", "json")
		params.Set("formatversion", "2")
		params.Set("list", "embeddedin")
		params.Set("eititle", template)
		params.Set("eilimit", "500")
		if continueToken != "" {
			params.Set("eicontinue", continueToken)
		}

		body, err := c.get(ctx, template, params)
		if err != nil {
			return nil, err
		}

		var payload struct {
			Query struct {
				EmbeddedIn []struct {
					PageID int64  `json:"pageid"`
					Title  string `json:"title"`
				} `json:"embeddedin"`
			} `json:"query"`
			Continue struct {
				EiContinue string `json:"eicontinue"`
			} `json:"continue"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, oops.Wrapf(err, "couldn't parse embeddedin response for %s", template)
		}

		for _, embedded := range payload.Query.EmbeddedIn {
			pages = append(pages, Page{Title: embedded.Title, PageID: embedded.PageID})
		}

		if payload.Continue.EiContinue == "" {
			return pages, nil
		}
		continueToken = payload.Continue.EiContinue
	}
}

// LatestRevision returns the newest revision id and timestamp for a title.
// A missing page comes back as a zero Revision, not an error.
func (c *Client) LatestRevision(ctx context.Context, title string) (Revision, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "revisions")
	params.Set("titles", title)
	params.Set("rvprop", "ids|timestamp")
	params.Set("rvlimit", "1")

	body, err := c.get(ctx, title, params)
	if err != nil {
		return Revision{}, err
	}

	var payload struct {
		Query struct {
			Pages []struct {
				Missing   bool `json:"missing"`
				Revisions []struct {
					RevID     int64  `json:"revid"`
					Timestamp string `json:"timestamp"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Revision{}, oops.Wrapf(err, "couldn't parse revisions response for %s", title)
	}

	if len(payload.Query.Pages) == 0 || payload.Query.Pages[0].Missing ||
		len(payload.Query.Pages[0].Revisions) == 0 {

		return Revision{}, nil
	}

	revision := payload.Query.Pages[0].Revisions[0]
	return Revision{ID: revision.RevID, Timestamp: revision.Timestamp}, nil
}

// RenderedHTML returns the page body expanded to HTML, templates included.
func (c *Client) RenderedHTML(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("page", title)
	params.Set("prop", "text")

	body, err := c.get(ctx, title, params)
	if err != nil {
		return "", err
	}

	var payload struct {
		Parse struct {
			Text string `json:"text"`
		} `json:"parse"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", oops.Wrapf(err, "couldn't parse parse response for %s", title)
	}
	if payload.Error.Code == "missingtitle" {
		return "", nil
	}
	if payload.Error.Code != "" {
		return "", oops.Newf("api error for %s: %s", title, payload.Error.Code)
	}

	return payload.Parse.Text, nil
}

func (c *Client) get(ctx context.Context, title string, params url.Values) ([]byte, error) {
	requestURL := c.apiURL + "?" + params.Encode()
	resp, err := c.session.Get(ctx, requestURL, session.RequestOptions{Timeout: requestTimeout})
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return nil, &TimeoutError{Title: title, Inner: err}
	} else if err != nil {
		return nil, oops.Wrapf(err, "request failed for %s", title)
	}
	if !resp.Ok() {
		return nil, oops.Newf("api returned %d for %s", resp.StatusCode, title)
	}
	return resp.Body, nil
}
