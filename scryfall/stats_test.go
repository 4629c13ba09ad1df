package scryfall

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ormosbot/session"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, handler http.Handler) *Engine {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess, err := session.NewClient(session.Config{
		RequestsPerSecond: 1000,
		CachePath:         "",
	}, nil)
	require.NoError(t, err)

	engine := NewEngine(sess)
	engine.SearchURL = server.URL
	return engine
}

func TestFetchStatsCounts(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "(t:dragon) id=r" {
			fmt.Fprint(w, `{"total_cards": 12}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"object": "error", "code": "not_found"}`)
	}))

	stats, err := engine.FetchStats(context.Background(), "t:dragon")
	require.NoError(t, err)
	require.Len(t, stats, len(ColorOrder))
	require.Equal(t, 12, stats["r"])
	for _, color := range []string{"c", "w", "u", "b", "g", "m"} {
		require.Equal(t, 0, stats[color])
	}
}

func TestFetchStatsNotFoundIsZero(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	stats, err := engine.FetchStats(context.Background(), "t:unicorn")
	require.NoError(t, err)
	for _, color := range ColorOrder {
		require.Equal(t, 0, stats[color])
	}
}

func TestFetchStatsDisplayOptionsFallback(t *testing.T) {
	var queries []string
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		queries = append(queries, query)
		if query == "(t:dragon order:cmc) id=c" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"details": "Display options are not allowed in this context"}`)
			return
		}
		fmt.Fprint(w, `{"total_cards": 7}`)
	}))

	stats, err := engine.FetchStats(context.Background(), "t:dragon order:cmc")
	require.NoError(t, err)
	require.Equal(t, 7, stats["c"])
	require.Contains(t, queries, "t:dragon order:cmc id=c")
}

func TestFetchStatsFallbackNotFoundIsZero(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "(t:dragon order:cmc) id=c" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"details": "Display options are not allowed in this context"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	stats, err := engine.FetchStats(context.Background(), "t:dragon order:cmc")
	require.NoError(t, err)
	require.Equal(t, 0, stats["c"])
}

func TestFetchStatsServerErrorIsZero(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "(t:dragon) id=w" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"total_cards": 3}`)
	}))

	stats, err := engine.FetchStats(context.Background(), "t:dragon")
	require.NoError(t, err)
	require.Equal(t, 0, stats["w"])
	require.Equal(t, 3, stats["c"])
	require.Equal(t, 3, stats["m"])
}

func TestFetchStatsMissingTotalDefaultsToZero(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"object": "list"}`)
	}))

	stats, err := engine.FetchStats(context.Background(), "t:dragon")
	require.NoError(t, err)
	for _, color := range ColorOrder {
		require.Equal(t, 0, stats[color])
	}
}

func TestBuildTableKeepsQueryOrder(t *testing.T) {
	engine := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total_cards": 1}`)
	}))

	table, err := engine.BuildTable(context.Background(), []string{"c:red", "t:dragon id:u"})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	pair := table.Oldest()
	require.Equal(t, "c:red", pair.Key)
	pair = pair.Next()
	require.Equal(t, "t:dragon id:u", pair.Key)
	require.Len(t, pair.Value, len(ColorOrder))
}
