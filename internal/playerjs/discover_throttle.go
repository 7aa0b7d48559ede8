package playerjs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja/parser"
)

var (
	throttleNameRegexps = []*regexp.Regexp{
		regexp.MustCompile(`\.get\("n"\)\)\s*&&\s*\(b=([a-zA-Z0-9$]+)(?:\[(\d+)\])?\([a-zA-Z0-9$]+\)`),
		regexp.MustCompile(`\(\s*([a-zA-Z0-9$]+)\s*=\s*String\.fromCharCode\(110\)`),
		regexp.MustCompile(`[;,{]\s*[a-zA-Z0-9$]+=([a-zA-Z0-9$]+)(?:\[(\d+)\])?\([a-zA-Z0-9$]+\),[a-zA-Z0-9$]+\.set\((?:"n"|[a-zA-Z0-9$]+),`),
	}
	throttleMarkers = []string{`"enhanced_except_`, `_w8_`}
	anonFuncRe      = regexp.MustCompile(`([a-zA-Z0-9$]+)\s*=\s*function\(`)

	throttleParamRe = regexp.MustCompile(`^function\(([\w$]+)\)\{`)
	throttleHeadRes = []*regexp.Regexp{
		regexp.MustCompile(`^(?:var|let|const) ([\w$]+)=([\w$]+)\.split\((?:""|'')\),([\w$]+)=\[`),
		regexp.MustCompile(`^(?:var|let|const) ([\w$]+)=String\.prototype\.split\.call\(([\w$]+),(?:""|'')\),([\w$]+)=\[`),
	}
	numberLiteralRe = regexp.MustCompile(`^-?\d+$`)
)

const maxMarkerCandidates = 64

// DiscoverThrottle locates the "n" transform function and compiles it into
// a ThrottleProgram.
func DiscoverThrottle(asset string) (*ThrottleProgram, error) {
	fnSrc, err := locateThrottleFunction(asset)
	if err != nil {
		return nil, err
	}
	if _, err := parser.ParseFile(nil, "", "var __n="+fnSrc+";", 0); err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "parseable n function", Cause: err}
	}
	return compileThrottle(fnSrc)
}

func locateThrottleFunction(asset string) (string, error) {
	for _, re := range throttleNameRegexps {
		m := re.FindStringSubmatch(asset)
		if len(m) < 2 {
			continue
		}
		name := m[1]
		if len(m) > 2 && m[2] != "" {
			idx, _ := strconv.Atoi(m[2])
			resolved, ok := resolveArrayAlias(asset, name, idx)
			if !ok {
				continue
			}
			name = resolved
		}
		if fn, err := extractFunction(asset, name); err == nil {
			return fn, nil
		}
	}
	for _, marker := range throttleMarkers {
		if fn, ok := functionEnclosing(asset, marker); ok {
			return fn, nil
		}
	}
	return "", &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "n function entry point"}
}

// resolveArrayAlias follows `var NAME=[fn0,fn1]` indirection.
func resolveArrayAlias(asset, name string, idx int) (string, bool) {
	re := regexp.MustCompile(`(?:var|let|const|[;,])\s*` + regexp.QuoteMeta(name) + `\s*=\s*\[`)
	loc := re.FindStringIndex(asset)
	if loc == nil {
		return "", false
	}
	open := loc[1] - 1
	end, err := findClose(asset, open)
	if err != nil {
		return "", false
	}
	items, err := splitTopLevel(asset[open+1:end], ',')
	if err != nil || idx < 0 || idx >= len(items) {
		return "", false
	}
	return items[idx], true
}

// functionEnclosing finds the nearest `NAME=function(` before marker whose
// body spans it.
func functionEnclosing(asset, marker string) (string, bool) {
	pos := strings.Index(asset, marker)
	if pos < 0 {
		return "", false
	}
	matches := anonFuncRe.FindAllStringIndex(asset[:pos], -1)
	for i, tried := len(matches)-1, 0; i >= 0 && tried < maxMarkerCandidates; i, tried = i-1, tried+1 {
		start := matches[i][0] + strings.Index(asset[matches[i][0]:matches[i][1]], "function")
		brace := strings.IndexByte(asset[start:], '{')
		if brace < 0 {
			continue
		}
		end, err := findClose(asset, start+brace)
		if err != nil || end < pos {
			continue
		}
		fn, err := functionAt(asset, start)
		if err != nil {
			continue
		}
		return fn, true
	}
	return "", false
}

func compileThrottle(fnSrc string) (*ThrottleProgram, error) {
	src := compactJS(fnSrc)
	pm := throttleParamRe.FindStringSubmatch(src)
	if pm == nil {
		return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: src}
	}
	param := pm[1]
	body := src[len(pm[0]) : len(src)-1]

	var head []string
	for _, re := range throttleHeadRes {
		if head = re.FindStringSubmatch(body); head != nil {
			break
		}
	}
	if head == nil || head[2] != param {
		return nil, &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "working array declaration"}
	}
	input, array := head[1], head[3]
	open := len(head[0]) - 1
	closeIdx, err := findClose(body, open)
	if err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "working array literal", Cause: err}
	}
	rawElems, err := splitTopLevel(body[open+1:closeIdx], ',')
	if err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "working array literal", Cause: err}
	}

	prog := &ThrottleProgram{elements: make([]throttleElement, len(rawElems))}
	for i, raw := range rawElems {
		prog.elements[i] = classifyElement(raw, param, input)
	}

	rest := body[closeIdx+1:]
	tryAt := strings.Index(rest, "try{")
	if tryAt < 0 {
		return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: "missing try block"}
	}
	pre, err := splitStatements(rest[:tryAt])
	if err != nil {
		return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: rest[:tryAt]}
	}
	selfRe := regexp.MustCompile(`^` + regexp.QuoteMeta(array) + `\[(\d+)\]=` + regexp.QuoteMeta(array) + `$`)
	for _, stmt := range pre {
		m := selfRe.FindStringSubmatch(stmt)
		if m == nil {
			return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: stmt}
		}
		idx, _ := strconv.Atoi(m[1])
		if idx >= len(prog.elements) {
			return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: stmt}
		}
		prog.elements[idx] = throttleElement{kind: elemSelf}
	}

	tryOpen := tryAt + len("try")
	tryClose, err := findClose(rest, tryOpen)
	if err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "try block", Cause: err}
	}
	stmts, err := splitStatements(rest[tryOpen+1 : tryClose])
	if err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramThrottle, Anchor: "try block", Cause: err}
	}
	q := regexp.QuoteMeta(array)
	stepRe := regexp.MustCompile(`^` + q + `\[(\d+)\]\(((?:` + q + `\[\d+\](?:,` + q + `\[\d+\])*)?)\)$`)
	refRe := regexp.MustCompile(q + `\[(\d+)\]`)
	for _, stmt := range stmts {
		m := stepRe.FindStringSubmatch(stmt)
		if m == nil {
			return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: stmt}
		}
		fn, _ := strconv.Atoi(m[1])
		step := throttleStep{fn: fn, raw: stmt}
		for _, ref := range refRe.FindAllStringSubmatch(m[2], -1) {
			idx, _ := strconv.Atoi(ref[1])
			step.args = append(step.args, idx)
		}
		prog.steps = append(prog.steps, step)
	}

	tail := rest[tryClose+1:]
	if strings.HasPrefix(tail, "catch(") {
		paren := len("catch")
		parenClose, err := findClose(tail, paren)
		if err != nil {
			return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: tail}
		}
		blockOpen := parenClose + 1
		blockClose, err := findClose(tail, blockOpen)
		if err != nil {
			return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: tail}
		}
		tail = tail[blockClose+1:]
	}
	tail = strings.TrimSuffix(strings.TrimPrefix(tail, ";"), ";")

	joinRe := regexp.MustCompile(`^return ` + regexp.QuoteMeta(input) + `\.join\((?:""|'')\)$`)
	selectRe := regexp.MustCompile(`^return ` + q + `\[` + regexp.QuoteMeta(param) + `\.length%(\d+)\]$`)
	switch {
	case joinRe.MatchString(tail):
		prog.result = resultJoin
	case selectRe.MatchString(tail):
		k, _ := strconv.Atoi(selectRe.FindStringSubmatch(tail)[1])
		if k <= 0 {
			return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: tail}
		}
		prog.result = resultSelect
		prog.modulus = k
	default:
		return nil, &UnsupportedOperationError{Program: ProgramThrottle, Shape: tail}
	}
	return prog, nil
}

func classifyElement(raw, param, input string) throttleElement {
	switch {
	case raw == "null":
		return throttleElement{kind: elemSelf}
	case raw == input:
		return throttleElement{kind: elemInputArray}
	case raw == param:
		return throttleElement{kind: elemInputString}
	case numberLiteralRe.MatchString(raw):
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return throttleElement{kind: elemNumber, num: n}
		}
	case len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0]:
		if s, ok := unquoteJS(raw); ok {
			return throttleElement{kind: elemString, str: s}
		}
	case strings.HasPrefix(raw, "function("):
		if fn, ok := classifyThrottleFunc(raw); ok {
			return throttleElement{kind: elemFunction, fn: fn}
		}
	}
	return throttleElement{kind: elemOpaque, str: raw}
}

// unquoteJS decodes a single- or double-quoted JavaScript string literal.
func unquoteJS(raw string) (string, bool) {
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, true
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'x':
			if i+3 > len(body) {
				return "", false
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteByte(byte(v))
			i += 2
		case 'u':
			if i+5 > len(body) {
				return "", false
			}
			v, err := strconv.ParseUint(body[i+1:i+5], 16, 32)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(v))
			i += 4
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), true
}
