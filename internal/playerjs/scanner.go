package playerjs

import (
	"errors"
	"strings"
)

// The scanner walks minified JavaScript and reports only the characters that
// are structural (outside strings, templates, regex literals and comments).
// Whether a slash opens a regex literal or is a division is decided from the
// previous significant character, or the keyword before it; this is a
// heuristic tuned to minified player code, not a full tokenizer.

var errUnterminated = errors.New("unterminated javascript construct")

type scanMode uint8

const (
	modePlain scanMode = iota
	modeString
	modeTemplate
	modeRegex
	modeRegexClass
	modeLineComment
	modeBlockComment
)

const regexPreceders = "(,=:[!&|?{};"

// A slash right after one of these keywords starts a regex literal.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "instanceof": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true,
}

// templateHole marks a `${` opened inside a template literal.
const templateHole = '$'

type jsScanner struct {
	src   string
	mode  scanMode
	quote byte
	stack []byte
	last  byte
}

func newScanner(src string) *jsScanner {
	return &jsScanner{src: src}
}

// walk visits every structural character from index from. visit receives
// the index and the bracket depth after the character was applied; it
// returns true to stop the walk.
func (s *jsScanner) walk(from int, visit func(i int, depth int) bool) error {
	for i := from; i < len(s.src); i++ {
		c := s.src[i]
		switch s.mode {
		case modeString:
			if c == '\\' {
				i++
			} else if c == s.quote {
				s.mode = modePlain
				s.last = c
			}
			continue
		case modeTemplate:
			switch {
			case c == '\\':
				i++
			case c == '`':
				s.mode = modePlain
				s.last = c
			case c == '$' && i+1 < len(s.src) && s.src[i+1] == '{':
				i++
				s.stack = append(s.stack, templateHole)
				s.mode = modePlain
				s.last = '{'
			}
			continue
		case modeRegex:
			switch c {
			case '\\':
				i++
			case '[':
				s.mode = modeRegexClass
			case '/':
				s.mode = modePlain
				s.last = '/'
			}
			continue
		case modeRegexClass:
			if c == '\\' {
				i++
			} else if c == ']' {
				s.mode = modeRegex
			}
			continue
		case modeLineComment:
			if c == '\n' {
				s.mode = modePlain
			}
			continue
		case modeBlockComment:
			if c == '*' && i+1 < len(s.src) && s.src[i+1] == '/' {
				i++
				s.mode = modePlain
			}
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '"', '\'':
			s.mode = modeString
			s.quote = c
			continue
		case '`':
			s.mode = modeTemplate
			continue
		case '/':
			if i+1 < len(s.src) && s.src[i+1] == '/' {
				s.mode = modeLineComment
				i++
				continue
			}
			if i+1 < len(s.src) && s.src[i+1] == '*' {
				s.mode = modeBlockComment
				i++
				continue
			}
			if s.last == 0 || strings.IndexByte(regexPreceders, s.last) >= 0 || keywordBefore(s.src, i) {
				s.mode = modeRegex
				continue
			}
		case '(', '[', '{':
			s.stack = append(s.stack, c)
		case ')', ']', '}':
			if len(s.stack) == 0 {
				return errUnterminated
			}
			top := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			if c == '}' && top == templateHole {
				s.mode = modeTemplate
				continue
			}
		}
		s.last = c
		if visit(i, len(s.stack)) {
			return nil
		}
	}
	if s.mode != modePlain && s.mode != modeLineComment {
		return errUnterminated
	}
	return nil
}

// findClose returns the index of the bracket closing the one at open.
func findClose(src string, open int) (int, error) {
	if open < 0 || open >= len(src) || strings.IndexByte("([{", src[open]) < 0 {
		return -1, errUnterminated
	}
	s := newScanner(src)
	s.last = src[open]
	s.stack = append(s.stack, src[open])
	found := -1
	err := s.walk(open+1, func(i, depth int) bool {
		if depth == 0 {
			found = i
			return true
		}
		return false
	})
	if err != nil {
		return -1, err
	}
	if found < 0 {
		return -1, errUnterminated
	}
	return found, nil
}

// splitTopLevel splits src on sep wherever sep is not nested inside
// brackets or literals. Parts are trimmed; a trailing empty part is dropped.
func splitTopLevel(src string, sep byte) ([]string, error) {
	var parts []string
	s := newScanner(src)
	start := 0
	err := s.walk(0, func(i, depth int) bool {
		if depth == 0 && src[i] == sep {
			parts = append(parts, strings.TrimSpace(src[start:i]))
			start = i + 1
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if len(s.stack) != 0 {
		return nil, errUnterminated
	}
	if tail := strings.TrimSpace(src[start:]); tail != "" || len(parts) > 0 {
		if tail != "" {
			parts = append(parts, tail)
		}
	}
	return parts, nil
}

// splitStatements splits a block body on top-level ';' and ',' and drops
// empty statements.
func splitStatements(src string) ([]string, error) {
	stmts, err := splitTopLevel(src, ';')
	if err != nil {
		return nil, err
	}
	var out []string
	for _, stmt := range stmts {
		exprs, err := splitTopLevel(stmt, ',')
		if err != nil {
			return nil, err
		}
		for _, e := range exprs {
			if e != "" {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// keywordBefore reports whether the word ending just before i is one of
// regexKeywords. Property names such as a.return do not count.
func keywordBefore(src string, i int) bool {
	end := i
	for end > 0 && strings.IndexByte(" \t\n\r", src[end-1]) >= 0 {
		end--
	}
	start := end
	for start > 0 && isWordByte(src[start-1]) {
		start--
	}
	if start == end || start > 0 && src[start-1] == '.' {
		return false
	}
	return regexKeywords[src[start:end]]
}
