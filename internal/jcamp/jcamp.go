// Package jcamp reads the vendor's JCAMP-DX styled parameter files (acqus,
// procs) and auxiliary list files such as vdlist. These files carry the
// measured parameter *values* that relation formulas evaluate against; the
// parameter *definitions* live in the block format handled by parfile.
package jcamp

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// File is the parsed content of one JCAMP-DX parameter file.
type File struct {
	Scalars map[string]float64
	Strings map[string]string
	Arrays  map[string][]float64
}

var arraySizeRe = regexp.MustCompile(`^\((\d+)\.\.(\d+)\)`)

// Read parses a JCAMP-DX parameter file. Records look like
//
//	##$SW_h= 10000
//	##$NUC1= <1H>
//	##$D= (0..63) 0 1 0.03 ...
//
// where array values continue on following lines until the declared count
// is reached. Plain ## records (TITLE, ORIGIN, ...) are ignored.
func Read(r io.Reader) (*File, error) {
	f := &File{
		Scalars: make(map[string]float64),
		Strings: make(map[string]string),
		Arrays:  make(map[string][]float64),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if !strings.HasPrefix(line, "##$") {
			continue
		}

		key, value, ok := strings.Cut(line[3:], "= ")
		if !ok {
			// Records with an empty value look like "##$KEY=".
			key = strings.TrimSuffix(line[3:], "=")
			f.Strings[key] = ""
			continue
		}

		switch {
		case strings.HasPrefix(value, "("):
			if err := readArray(scanner, &lineNo, f, key, value); err != nil {
				return nil, err
			}
		case strings.HasPrefix(value, "<"):
			f.Strings[key] = strings.TrimSuffix(strings.TrimPrefix(value, "<"), ">")
		default:
			if num, err := strconv.ParseFloat(value, 64); err == nil {
				f.Scalars[key] = num
			} else {
				f.Strings[key] = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("jcamp: read failed at line %d: %w", lineNo, err)
	}
	return f, nil
}

// readArray consumes an `(first..last)` array record, pulling continuation
// lines until the declared element count is reached. Arrays with
// non-numeric elements are kept verbatim as a string record.
func readArray(scanner *bufio.Scanner, lineNo *int, f *File, key, value string) error {
	m := arraySizeRe.FindStringSubmatch(value)
	if m == nil {
		return fmt.Errorf("jcamp: line %d: malformed array header for %s: %q", *lineNo, key, value)
	}
	first, err1 := strconv.Atoi(m[1])
	last, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return fmt.Errorf("jcamp: line %d: malformed array bound for %s: %q", *lineNo, key, value)
	}
	// The vendor writes arrays zero-based; a different origin would make
	// every slot index lie.
	if first != 0 {
		return fmt.Errorf("jcamp: line %d: array %s must start at index 0, got (%d..%d)", *lineNo, key, first, last)
	}
	size := last + 1

	raw := strings.TrimSpace(value[len(m[0]):])
	tokens := strings.Fields(raw)
	for len(tokens) < size {
		if !scanner.Scan() {
			return fmt.Errorf("jcamp: array %s truncated: expected %d values, got %d", key, size, len(tokens))
		}
		*lineNo++
		tokens = append(tokens, strings.Fields(scanner.Text())...)
	}
	if len(tokens) > size {
		return fmt.Errorf("jcamp: array %s overflows: expected %d values, got %d", key, size, len(tokens))
	}

	arr := make([]float64, size)
	for i, tok := range tokens {
		num, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			f.Strings[key] = strings.Join(tokens, " ")
			return nil
		}
		arr[i] = num
	}
	f.Arrays[key] = arr
	return nil
}
