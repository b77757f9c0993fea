// Package deps discovers the module sources a testbench transitively
// instantiates and produces the ordered compile file list.
package deps

import (
	"io"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/pkg/errors"
)

// DefaultInstancePrefix is the reserved prefix of instance names
const DefaultInstancePrefix = "u_"

// Instance is one module instantiation found in a source file
type Instance struct {
	Module string
	Name   string
	Line   int
}

type token struct {
	tok  rune
	text string
	line int
}

// ScanInstances tokenizes HDL source and returns every instantiation whose
// instance name starts with prefix, in source order. An instantiation is
//
//	<module> [#( ... )] <prefix><name> [[range]] (
//
// Comments and string literals never match. Only read errors are returned;
// lexically odd input is scanned on a best-effort basis.
func ScanInstances(r io.Reader, prefix string) ([]Instance, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}
	toks := tokenize(string(src))

	var out []Instance
	for i := 1; i+1 < len(toks); i++ {
		inst := toks[i]
		if inst.tok != scanner.Ident || !strings.HasPrefix(inst.text, prefix) {
			continue
		}
		k := i + 1
		if toks[k].tok == '[' {
			k = skipForward(toks, k, '[', ']')
		}
		if k >= len(toks) || toks[k].tok != '(' {
			continue
		}
		j := i - 1
		if toks[j].tok == ')' {
			j = skipParams(toks, j)
		}
		if j < 0 || toks[j].tok != scanner.Ident {
			continue
		}
		out = append(out, Instance{Module: toks[j].text, Name: inst.text, Line: inst.line})
	}
	return out, nil
}

// skipForward returns the index just past the group opened at toks[k]
func skipForward(toks []token, k int, open, close rune) int {
	depth := 0
	for ; k < len(toks); k++ {
		switch toks[k].tok {
		case open:
			depth++
		case close:
			depth--
		}
		if depth == 0 {
			return k + 1
		}
	}
	return k
}

// skipParams walks back from the ')' at j over a balanced "#( ... )" block and
// returns the index of the token before '#', or -1 if there is no such block.
func skipParams(toks []token, j int) int {
	depth := 0
	for ; j >= 0; j-- {
		switch toks[j].tok {
		case ')':
			depth++
		case '(':
			depth--
		}
		if depth == 0 {
			break
		}
	}
	if j < 1 || toks[j-1].tok != '#' {
		return -1
	}
	return j - 2
}

func tokenize(src string) []token {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	// No raw strings: '`' starts compiler directives, not literals.
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	s.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || unicode.IsLetter(ch) || (i > 0 && (unicode.IsDigit(ch) || ch == '$'))
	}
	s.Error = func(*scanner.Scanner, string) {}

	var toks []token
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		toks = append(toks, token{tok: tok, text: s.TokenText(), line: s.Position.Line})
	}
	return toks
}
