package render

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ormosbot/scryfall"
	"ormosbot/session"

	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func newTable(t *testing.T, entries ...string) *scryfall.Table {
	t.Helper()
	table := orderedmap.New[string, map[string]int]()
	for i, query := range entries {
		table.Set(query, map[string]int{
			"c": i + 1, "w": 2, "u": 3, "b": 4, "r": 5, "g": 6, "m": 7,
		})
	}
	return table
}

func TestLuaModule(t *testing.T) {
	table := newTable(t, "c:red", "t:dragon id:u")
	lua := LuaModule(table)

	require.Equal(t, `-- Auto-generated data. Edit carefully.
return {
    ['c:red'] = {
        c = 1, w = 2, u = 3, b = 4, r = 5, g = 6, m = 7
    },
    ['t:dragon id:u'] = {
        c = 2, w = 2, u = 3, b = 4, r = 5, g = 6, m = 7
    },
}
`, lua)
}

func TestLuaModuleMissingColorIsZero(t *testing.T) {
	table := orderedmap.New[string, map[string]int]()
	table.Set("c:red", map[string]int{"c": 5})

	lua := LuaModule(table)
	require.Contains(t, lua, "c = 5, w = 0, u = 0, b = 0, r = 0, g = 0, m = 0")
}

func TestLuaModuleEmptyTable(t *testing.T) {
	lua := LuaModule(orderedmap.New[string, map[string]int]())
	require.Equal(t, "-- Auto-generated data. Edit carefully.\nreturn {\n}\n", lua)
}

func TestSwitchTemplate(t *testing.T) {
	table := newTable(t, "C:Red")
	switchCode := SwitchTemplate(table)

	require.Equal(t, strings.Join([]string{
		"<noinclude>Auto-generated data. Edit carefully.</noinclude>",
		"{{#switch:{{lc:{{{query|}}}}}",
		" | c:red = 1,2,3,4,5,6,7,28",
		" | default = ",
		"}}",
	}, "\n"), switchCode)
}

func TestSwitchTemplateEmptyTable(t *testing.T) {
	switchCode := SwitchTemplate(orderedmap.New[string, map[string]int]())
	require.Equal(t, []string{
		"<noinclude>Auto-generated data. Edit carefully.</noinclude>",
		"{{#switch:{{lc:{{{query|}}}}}",
		" | default = ",
		"}}",
	}, strings.Split(switchCode, "\n"))
}

func TestRenderersAreDeterministic(t *testing.T) {
	table := newTable(t, "c:red", "t:dragon id:u", "o:flying t:sphinx")
	require.Equal(t, LuaModule(table), LuaModule(table))
	require.Equal(t, SwitchTemplate(table), SwitchTemplate(table))
}

func TestStatsStageEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total_cards": 2}`)
	}))
	defer server.Close()

	sess, err := session.NewClient(session.Config{
		RequestsPerSecond: 1000,
		CachePath:         "",
	}, nil)
	require.NoError(t, err)

	engine := scryfall.NewEngine(sess)
	engine.SearchURL = server.URL

	table, err := engine.BuildTable(context.Background(), []string{"c:red", "t:dragon id:u"})
	require.NoError(t, err)

	lua := LuaModule(table)
	redIdx := strings.Index(lua, "['c:red']")
	dragonIdx := strings.Index(lua, "['t:dragon id:u']")
	require.NotEqual(t, -1, redIdx)
	require.NotEqual(t, -1, dragonIdx)
	require.Less(t, redIdx, dragonIdx)
	for _, color := range scryfall.ColorOrder {
		require.Contains(t, lua, color+" = 2")
	}
}
