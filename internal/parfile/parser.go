package parfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/acqparamgo/internal/relation"
	"github.com/vk/acqparamgo/internal/schema"
)

// ParseError reports a malformed definition file. Loading stops at the
// first error; nothing in this format warrants recovery.
type ParseError struct {
	File  string
	Block string
	Line  int
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Block != "" {
		return fmt.Sprintf("%s:%d: block %s: %s", e.File, e.Line, e.Block, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Parse reads one definition file into a fresh table.
func Parse(filename string, r io.Reader) (*schema.Table, error) {
	table := schema.NewTable()
	if err := parseInto(table, filename, r); err != nil {
		return nil, err
	}
	return table, nil
}

// parseInto appends the blocks of one file to an existing table, so a
// directory of files merges into a single parameter form.
func parseInto(table *schema.Table, filename string, r io.Reader) error {
	p := &parser{table: table, file: filename}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.consume(strings.TrimSpace(scanner.Text())); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return &ParseError{File: filename, Line: p.line, Msg: err.Error()}
	}
	if p.cur != nil {
		return p.failf("missing END before end of file")
	}
	return nil
}

type parser struct {
	table   *schema.Table
	file    string
	line    int
	section string
	cur     *schema.Definition
}

func (p *parser) failf(format string, args ...any) error {
	e := &ParseError{File: p.file, Line: p.line, Msg: fmt.Sprintf(format, args...)}
	if p.cur != nil {
		e.Block = p.cur.Name
	}
	return e
}

func (p *parser) consume(line string) error {
	if line == "" {
		return nil
	}

	// Tokens are whitespace-delimited; tabs are as legal as spaces.
	keyword, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		keyword, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	keyword = strings.ToUpper(keyword)

	if p.cur == nil {
		return p.topLevel(keyword, rest)
	}
	return p.inBlock(keyword, rest)
}

func (p *parser) topLevel(keyword, rest string) error {
	switch keyword {
	case "HEADER":
		label, err := p.quoted(keyword, rest)
		if err != nil {
			return err
		}
		p.section = label
		return nil
	case "T_NAME", "NAME":
		if rest == "" || strings.ContainsAny(rest, " \t") {
			return p.failf("%s requires a single identifier, got %q", keyword, rest)
		}
		p.cur = &schema.Definition{
			Name:     rest,
			Alias:    keyword == "NAME",
			Editable: true,
			Section:  p.section,
		}
		return nil
	case "END":
		return p.failf("END without an open block")
	default:
		return p.failf("unexpected keyword %s at top level", keyword)
	}
}

func (p *parser) inBlock(keyword, rest string) error {
	// A new block opener inside an open block means the END was dropped.
	if keyword == "T_NAME" || keyword == "NAME" {
		return p.failf("missing END before %s %s", keyword, rest)
	}

	if keyword == "END" {
		def := p.cur
		p.cur = nil
		if err := p.table.Add(def); err != nil {
			p.cur = def // keep the block name in the error
			return p.failf("%s", err.Error())
		}
		return nil
	}

	if p.cur.Alias {
		// Display-only aliases inherit type and relations from the
		// underlying system parameter; only presentation overrides are
		// legal here.
		switch keyword {
		case "FORMAT", "TEXT", "NONEDIT":
		default:
			return p.failf("keyword %s not allowed in a display alias block", keyword)
		}
	}

	switch keyword {
	case "TYPE":
		kind, err := schema.ParseKind(rest)
		if err != nil {
			return p.failf("%s", err.Error())
		}
		p.cur.Kind = kind
	case "CLASS":
		if rest == "" {
			return p.failf("CLASS requires a value")
		}
		p.cur.Class = rest
	case "SUBRANGE":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return p.failf("SUBRANGE requires two bounds, got %d", len(fields))
		}
		min, err1 := strconv.ParseFloat(fields[0], 64)
		max, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return p.failf("malformed SUBRANGE bounds %q", rest)
		}
		if min > max {
			return p.failf("SUBRANGE lower bound %v exceeds upper bound %v", min, max)
		}
		p.cur.Min, p.cur.Max, p.cur.HasRange = min, max, true
	case "REL":
		expr, err := p.parseRelation(keyword, rest)
		if err != nil {
			return err
		}
		if expr.Target.Indexed || !strings.EqualFold(expr.Target.Name, p.cur.Name) {
			return p.failf("REL must assign to the parameter itself, got target %s", expr.Target)
		}
		p.cur.Rel = expr
	case "INV_REL":
		expr, err := p.parseRelation(keyword, rest)
		if err != nil {
			return err
		}
		p.cur.InvRel = expr
	case "UNIT":
		s, err := p.quoted(keyword, rest)
		if err != nil {
			return err
		}
		p.cur.Unit = s
	case "FORMAT":
		s, err := p.quoted(keyword, rest)
		if err != nil {
			return err
		}
		p.cur.Format = s
	case "TEXT":
		s, err := p.quoted(keyword, rest)
		if err != nil {
			return err
		}
		p.cur.Text = s
	case "EXTFUNCT":
		s, err := p.quoted(keyword, rest)
		if err != nil {
			return err
		}
		p.cur.ExtFunct = s
	case "NONEDIT":
		if rest != "" {
			return p.failf("NONEDIT takes no value, got %q", rest)
		}
		p.cur.Editable = false
	default:
		return p.failf("unknown keyword %s", keyword)
	}
	return nil
}

func (p *parser) parseRelation(keyword, rest string) (*relation.Expression, error) {
	src, err := p.quoted(keyword, rest)
	if err != nil {
		return nil, err
	}
	expr, perr := relation.Parse(src)
	if perr != nil {
		return nil, p.failf("%s: %s", keyword, perr.Error())
	}
	return expr, nil
}

// quoted unwraps a double-quoted string value.
func (p *parser) quoted(keyword, rest string) (string, error) {
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", p.failf("%s requires a double-quoted string, got %q", keyword, rest)
	}
	s, err := strconv.Unquote(rest)
	if err != nil {
		return "", p.failf("%s: malformed string %s", keyword, rest)
	}
	return s, nil
}
