package playerjs

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	signatureEntryRegexps = []*regexp.Regexp{
		regexp.MustCompile(`\b[cs]\s*&&\s*[adf]\.set\([^,]+\s*,\s*encodeURIComponent\s*\(\s*([a-zA-Z0-9$]+)\(`),
		regexp.MustCompile(`\bm=([a-zA-Z0-9$]{2,})\(decodeURIComponent\(h\.s\)\)`),
		regexp.MustCompile(`\bc&&\(c=([a-zA-Z0-9$]{2,})\(decodeURIComponent\(c\)\)`),
		regexp.MustCompile(`\.sig\|\|([a-zA-Z0-9$]+)\(`),
		regexp.MustCompile(`encodeURIComponent\(([a-zA-Z0-9$]+)\(decodeURIComponent`),
		regexp.MustCompile(`(?:^|[^a-zA-Z0-9$])([a-zA-Z0-9$]{2,})\s*=\s*function\(\s*a\s*\)\s*\{\s*a\s*=\s*a\.split\(\s*(?:""|'')\s*\)`),
	}
	// signatureBodyRegexps locate an anonymous split/join function when no
	// entry point names it.
	signatureBodyRegexps = []*regexp.Regexp{
		regexp.MustCompile(`function(?:\s+[a-zA-Z_$][\w$]*)?\(([a-zA-Z_$][\w$]*)\)\{\s*[a-zA-Z_$][\w$]*=[a-zA-Z_$][\w$]*\.split\((?:""|'')\);`),
	}
	splitStmtRe = regexp.MustCompile(`^([\w$]+)=([\w$]+)\.split\((?:""|'')\)$`)
	joinStmtRe  = regexp.MustCompile(`^return ([\w$]+)\.join\((?:""|'')\)$`)
	opCallRe    = regexp.MustCompile(`^(?:[\w$]+=)?([\w$]+)(?:\.([\w$]+)|\["([\w$]+)"\]|\['([\w$]+)'\])\(([\w$]+),(\d+)\)$`)
	memberRe    = regexp.MustCompile(`(?s)^(?:"([^"]+)"|'([^']+)'|([\w$]+))\s*:\s*(function\s*\(.*)$`)

	sigReverseRe = regexp.MustCompile(`^(?:return )?` + ident + `\.reverse\(\)$`)
	sigSpliceRe  = regexp.MustCompile(`^(?:return )?` + ident + `\.splice\(0,` + ident + `\)$`)
	sigSwapRe    = regexp.MustCompile(`^var ` + ident + `=` + ident + `\[0\];` + ident + `\[0\]=` + ident + `\[` + ident + `(?:%` + ident + `\.length)?\];` + ident + `\[` + ident + `(?:%` + ident + `\.length)?\]=` + ident + `(?:;return ` + ident + `)?$`)

	signatureTimestampRegexps = []*regexp.Regexp{
		regexp.MustCompile(`signatureTimestamp[=:](\d+)`),
		regexp.MustCompile(`\bsts:(\d+)`),
	}
)

// Discover recovers both programs and the signature timestamp from a
// player asset.
func Discover(asset string) (*Programs, error) {
	sig, err := DiscoverSignature(asset)
	if err != nil {
		return nil, err
	}
	n, err := DiscoverThrottle(asset)
	if err != nil {
		return nil, err
	}
	return &Programs{
		Signature:          sig,
		Throttle:           n,
		SignatureTimestamp: SignatureTimestamp(asset),
	}, nil
}

// SignatureTimestamp returns the asset's signature timestamp, or 0.
func SignatureTimestamp(asset string) int {
	for _, re := range signatureTimestampRegexps {
		if m := re.FindStringSubmatch(asset); len(m) > 1 {
			if v, err := strconv.Atoi(m[1]); err == nil {
				return v
			}
		}
	}
	return 0
}

// DiscoverSignature locates the signature function and its helper object
// and returns the operation list they encode.
func DiscoverSignature(asset string) (*TransformProgram, error) {
	fnSrc, err := locateSignatureFunction(asset)
	if err != nil {
		return nil, err
	}
	m := fnLiteralRe.FindStringSubmatch(compactJS(fnSrc))
	if m == nil || strings.Contains(m[1], ",") || m[1] == "" {
		return nil, &ProgramNotFoundError{Program: ProgramSignature, Anchor: "single-argument signature function"}
	}
	param := m[1]
	stmts, err := splitStatements(m[2])
	if err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramSignature, Anchor: "signature function body", Cause: err}
	}
	if len(stmts) < 2 {
		return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: m[2]}
	}
	if s := splitStmtRe.FindStringSubmatch(stmts[0]); s == nil || s[1] != param || s[2] != param {
		return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: stmts[0]}
	}
	if j := joinStmtRe.FindStringSubmatch(stmts[len(stmts)-1]); j == nil || j[1] != param {
		return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: stmts[len(stmts)-1]}
	}

	type call struct {
		key string
		arg int
		raw string
	}
	var (
		object string
		calls  []call
	)
	for _, stmt := range stmts[1 : len(stmts)-1] {
		c := opCallRe.FindStringSubmatch(stmt)
		if c == nil || c[5] != param {
			return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: stmt}
		}
		if object == "" {
			object = c[1]
		} else if c[1] != object {
			return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: stmt}
		}
		arg, err := strconv.Atoi(c[6])
		if err != nil {
			return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: stmt}
		}
		calls = append(calls, call{key: firstNonEmpty(c[2], c[3], c[4]), arg: arg, raw: stmt})
	}
	if len(calls) == 0 {
		return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: m[2]}
	}

	kinds, err := helperObjectKinds(asset, object)
	if err != nil {
		return nil, err
	}
	ops := make([]Operation, 0, len(calls))
	for _, c := range calls {
		kind, ok := kinds[c.key]
		if !ok {
			return nil, &UnsupportedOperationError{Program: ProgramSignature, Shape: c.raw}
		}
		ops = append(ops, Operation{Kind: kind, Index: c.arg})
	}
	return NewTransformProgram(ops...), nil
}

func locateSignatureFunction(asset string) (string, error) {
	for _, re := range signatureEntryRegexps {
		m := re.FindStringSubmatch(asset)
		if len(m) < 2 {
			continue
		}
		if fn, err := extractFunction(asset, m[1]); err == nil {
			return fn, nil
		}
	}
	for _, re := range signatureBodyRegexps {
		loc := re.FindStringIndex(asset)
		if loc == nil {
			continue
		}
		start := loc[0] + strings.Index(asset[loc[0]:], "function")
		if fn, err := functionAt(asset, start); err == nil {
			return fn, nil
		}
	}
	return "", &ProgramNotFoundError{Program: ProgramSignature, Anchor: "signature entry point"}
}

// helperObjectKinds classifies every member of the helper object.
// Members that are not one of the three primitives are left out.
func helperObjectKinds(asset, object string) (map[string]OpKind, error) {
	defRe := regexp.MustCompile(`(?:(?:var|let|const)\s+|[;,{}\s])` + regexp.QuoteMeta(object) + `\s*=\s*\{`)
	loc := defRe.FindStringIndex(asset)
	if loc == nil {
		return nil, &ProgramNotFoundError{Program: ProgramSignature, Anchor: "helper object " + object}
	}
	open := loc[1] - 1
	end, err := findClose(asset, open)
	if err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramSignature, Anchor: "helper object " + object, Cause: err}
	}
	members, err := splitTopLevel(asset[open+1:end], ',')
	if err != nil {
		return nil, &ProgramNotFoundError{Program: ProgramSignature, Anchor: "helper object " + object, Cause: err}
	}
	kinds := make(map[string]OpKind, len(members))
	for _, member := range members {
		mm := memberRe.FindStringSubmatch(member)
		if mm == nil {
			continue
		}
		fm := fnLiteralRe.FindStringSubmatch(compactJS(mm[4]))
		if fm == nil {
			continue
		}
		body := strings.TrimSuffix(fm[2], ";")
		key := firstNonEmpty(mm[1], mm[2], mm[3])
		switch {
		case sigReverseRe.MatchString(body):
			kinds[key] = OpReverse
		case sigSpliceRe.MatchString(body):
			kinds[key] = OpSplice
		case sigSwapRe.MatchString(body):
			kinds[key] = OpSwap
		}
	}
	return kinds, nil
}

// extractFunction returns the function literal bound to name.
func extractFunction(asset, name string) (string, error) {
	quoted := regexp.QuoteMeta(strings.TrimSpace(name))
	defRe := regexp.MustCompile(`(?:^|[^\w$.])(?:` + quoted + `\s*=\s*function\s*\(|function\s+` + quoted + `\s*\()`)
	loc := defRe.FindStringIndex(asset)
	if loc == nil {
		return "", errFunctionNotFound
	}
	start := loc[0] + strings.Index(asset[loc[0]:loc[1]], "function")
	return functionAt(asset, start)
}

var errFunctionNotFound = errors.New("function definition not found")

// functionAt extracts `function NAME?(params){...}` starting at start and
// returns it as an anonymous function literal.
func functionAt(asset string, start int) (string, error) {
	paren := strings.IndexByte(asset[start:], '(')
	if paren < 0 {
		return "", errUnterminated
	}
	paren += start
	closeParen, err := findClose(asset, paren)
	if err != nil {
		return "", err
	}
	brace := strings.IndexByte(asset[closeParen:], '{')
	if brace < 0 {
		return "", errUnterminated
	}
	brace += closeParen
	end, err := findClose(asset, brace)
	if err != nil {
		return "", err
	}
	return "function" + asset[paren:end+1], nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
