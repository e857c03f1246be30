package schema

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteTo renders the table back into definition-file text. The output is
// canonical (fixed keyword order, terse type tokens, two-space indent) and
// re-parses into an identical table, which is what the round-trip tests
// rely on.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	section := ""
	for _, def := range t.defs {
		if def.Section != section {
			section = def.Section
			if section != "" {
				fmt.Fprintf(&b, "HEADER %q\n", section)
			}
		}
		writeDefinition(&b, def)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func writeDefinition(b *strings.Builder, def *Definition) {
	if def.Alias {
		fmt.Fprintf(b, "NAME %s\n", def.Name)
	} else {
		fmt.Fprintf(b, "T_NAME %s\n", def.Name)
		fmt.Fprintf(b, "  TYPE %s\n", def.Kind)
		if def.Class != "" {
			fmt.Fprintf(b, "  CLASS %s\n", def.Class)
		}
		if def.HasRange {
			fmt.Fprintf(b, "  SUBRANGE %s %s\n", formatNum(def.Min), formatNum(def.Max))
		}
		if def.Rel != nil {
			fmt.Fprintf(b, "  REL %q\n", def.Rel.Raw)
		}
		if def.InvRel != nil {
			fmt.Fprintf(b, "  INV_REL %q\n", def.InvRel.Raw)
		}
		if def.Unit != "" {
			fmt.Fprintf(b, "  UNIT %q\n", def.Unit)
		}
		if def.ExtFunct != "" {
			fmt.Fprintf(b, "  EXTFUNCT %q\n", def.ExtFunct)
		}
	}
	if def.Format != "" {
		fmt.Fprintf(b, "  FORMAT %q\n", def.Format)
	}
	if def.Text != "" {
		fmt.Fprintf(b, "  TEXT %q\n", def.Text)
	}
	if !def.Editable {
		fmt.Fprintf(b, "  NONEDIT\n")
	}
	fmt.Fprintf(b, "END\n")
}

// formatNum emits the shortest decimal form that parses back exactly.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
