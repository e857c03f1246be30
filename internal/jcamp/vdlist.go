package jcamp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// unit suffixes accepted in delay list files, as decimal exponents.
// Appending the exponent to the literal and parsing once keeps the result
// exact (50u is 50e-6, not 50 * 1e-6 with its rounding error).
var unitExponent = map[byte]string{
	'n': "e-9",
	'u': "e-6",
	'm': "e-3",
	'k': "e3",
}

// ReadVDList parses a variable-delay list: one value per line, each
// optionally carrying a metric unit suffix (n, u, m, k). Values without a
// suffix are taken as seconds.
func ReadVDList(r io.Reader) ([]float64, error) {
	var out []float64

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		for _, tok := range strings.Fields(scanner.Text()) {
			v, err := parseDelay(tok)
			if err != nil {
				return nil, fmt.Errorf("vdlist: line %d: %w", lineNo, err)
			}
			out = append(out, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vdlist: read failed: %w", err)
	}
	return out, nil
}

func parseDelay(tok string) (float64, error) {
	exp := ""
	if last := tok[len(tok)-1]; last < '0' || last > '9' {
		e, ok := unitExponent[last]
		if !ok {
			return 0, fmt.Errorf("unknown unit suffix %q in %q", string(last), tok)
		}
		exp = e
		tok = tok[:len(tok)-1]
	}
	v, err := strconv.ParseFloat(tok+exp, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed delay %q", tok)
	}
	return v, nil
}
