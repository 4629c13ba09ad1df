// Serializes a completed stats table into the two formats republished on the
// wiki: a Lua data module and a wikitext #switch helper. Both renderers are
// deterministic over the table's insertion order and substitute zero for any
// missing color.
package render

import (
	"fmt"
	"strings"

	"ormosbot/scryfall"

	"golang.org/x/text/cases"
)

// LuaModule renders the table as an importable Lua data module.
func LuaModule(table *scryfall.Table) string {
	lines := []string{"-- Auto-generated data. Edit carefully.", "return {"}
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		lines = append(lines, fmt.Sprintf("    ['%s'] = {", pair.Key))
		colorChunks := make([]string, 0, len(scryfall.ColorOrder))
		for _, color := range scryfall.ColorOrder {
			colorChunks = append(colorChunks, fmt.Sprintf("%s = %d", color, pair.Value[color]))
		}
		lines = append(lines, "        "+strings.Join(colorChunks, ", "))
		lines = append(lines, "    },")
	}
	lines = append(lines, "}")
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// SwitchTemplate renders the table as a {{#switch:}} lookup keyed by the
// case-folded query, each value the seven counts followed by their sum.
func SwitchTemplate(table *scryfall.Table) string {
	folder := cases.Fold()
	lines := []string{
		"<noinclude>Auto-generated data. Edit carefully.</noinclude>",
		"{{#switch:{{lc:{{{query|}}}}}",
	}
	for pair := table.Oldest(); pair != nil; pair = pair.Next() {
		total := 0
		csvValues := make([]string, 0, len(scryfall.ColorOrder)+1)
		for _, color := range scryfall.ColorOrder {
			value := pair.Value[color]
			total += value
			csvValues = append(csvValues, fmt.Sprint(value))
		}
		csvValues = append(csvValues, fmt.Sprint(total))
		lines = append(lines, fmt.Sprintf(" | %s = %s", folder.String(pair.Key), strings.Join(csvValues, ",")))
	}
	lines = append(lines, " | default = ")
	lines = append(lines, "}}")
	return strings.Join(lines, "\n")
}
