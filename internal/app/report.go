package app

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/vk/acqparamgo/internal/resolver"
	"github.com/vk/acqparamgo/internal/values"
)

// report renders the parameter form in table order: one line per
// definition with its current value, unit, and state markers.
func (a *App) report(snap *values.Snapshot, result *resolver.Result) {
	stale := make(map[string]string)
	if result != nil {
		for _, s := range result.Stale {
			stale[strings.ToUpper(s.Param)] = s.Reason
		}
	}

	w := tabwriter.NewWriter(a.outW, 2, 4, 2, ' ', 0)
	section := ""
	for _, def := range a.table.Defs() {
		if def.Section != section {
			section = def.Section
			fmt.Fprintf(w, "--- %s ---\t\t\t\n", section)
		}

		value := "-"
		if v, ok := snap.Scalar(def.Name); ok {
			value = formatValue(def.Format, v)
		}

		var flags []string
		if def.Alias {
			flags = append(flags, "alias")
		}
		if !def.Editable {
			flags = append(flags, "derived")
		}
		if reason, ok := stale[strings.ToUpper(def.Name)]; ok {
			flags = append(flags, "STALE: "+reason)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Name, value, def.Unit, strings.Join(flags, ", "))
	}
	w.Flush()
}

// formatValue applies the definition's display format when one is given.
// Formats in the source data are C-style numeric verbs (%14.7f, %14d);
// integer verbs need an integer argument.
func formatValue(format string, v float64) string {
	if format == "" {
		return fmt.Sprintf("%g", v)
	}
	if strings.HasSuffix(format, "d") {
		return fmt.Sprintf(format, int64(v))
	}
	return fmt.Sprintf(format, v)
}
