package playerjs

import (
	"regexp"
	"strconv"
	"strings"
)

type throttleOp uint8

const (
	opReverse throttleOp = iota + 1
	opPush
	opUnshift
	opRotate
	opSwap
	opNestedSplice
	opRemove
	opPrepend
	opCipher
)

// modMode describes how a function folds its index argument into range.
type modMode uint8

const (
	modNone  modMode = iota
	modWrap          // (e%d.length+d.length)%d.length
	modTrunc         // e%d.length
)

type throttleFunc struct {
	op     throttleOp
	mod    modMode
	cipher *alphabetCipher
	src    string
}

type alphabetCipher struct {
	alphabet string
	counter  int
	offset   int
}

const ident = `[\w$]+`

var (
	fnLiteralRe  = regexp.MustCompile(`^function\(([\w$]*(?:,[\w$]+)*)\)\{(.*)\}$`)
	wrapPrefixRe = regexp.MustCompile(`^` + ident + `=\(` + ident + `%` + ident + `\.length\+` + ident + `\.length\)%` + ident + `\.length[;,]`)

	reverseRes = []*regexp.Regexp{
		regexp.MustCompile(`^` + ident + `\.reverse\(\)$`),
		regexp.MustCompile(`^for\(var ` + ident + `=` + ident + `\.length;` + ident + `;\)` + ident + `\.push\(` + ident + `\.splice\(--` + ident + `,1\)\[0\]\)$`),
	}
	pushRe         = regexp.MustCompile(`^` + ident + `\.push\(` + ident + `\)$`)
	unshiftRe      = regexp.MustCompile(`^` + ident + `\.unshift\(` + ident + `\)$`)
	rotateRe       = regexp.MustCompile(`^for\(` + ident + `=\(` + ident + `%` + ident + `\.length\+` + ident + `\.length\)%` + ident + `\.length;` + ident + `--;\)` + ident + `\.unshift\(` + ident + `\.pop\(\)\)$`)
	swapRe         = regexp.MustCompile(`^var ` + ident + `=` + ident + `\[0\];` + ident + `\[0\]=` + ident + `\[` + ident + `\];` + ident + `\[` + ident + `\]=` + ident + `$`)
	swapTruncRe    = regexp.MustCompile(`^var ` + ident + `=` + ident + `\[0\];` + ident + `\[0\]=` + ident + `\[` + ident + `%` + ident + `\.length\];` + ident + `\[` + ident + `%` + ident + `\.length\]=` + ident + `$`)
	nestedSpliceRe = regexp.MustCompile(`^` + ident + `\.splice\(0,1,` + ident + `\.splice\(` + ident + `,1,` + ident + `\[0\]\)\[0\]\)$`)
	removeRe       = regexp.MustCompile(`^` + ident + `\.splice\(` + ident + `,1\)$`)
	prependRe      = regexp.MustCompile(`^` + ident + `\.splice\(-` + ident + `\)\.reverse\(\)\.forEach\(function\(` + ident + `\)\{` + ident + `\.unshift\(` + ident + `\)\}\)$`)

	cipherLoopRe  = regexp.MustCompile(`^for\(var (` + ident + `)=(\d+),(` + ident + `)=\[\];\+\+(` + ident + `)-(` + ident + `)\.length-(\d+);\)\{switch\((` + ident + `)\)\{(.*?)\}\}`)
	cipherApplyRe = regexp.MustCompile(`^;?` + ident + `\.forEach\(function\(` + ident + `,` + ident + `,` + ident + `\)\{this\.push\(` + ident + `\[` + ident + `\]=` + ident + `\[\(` + ident + `\.indexOf\(` + ident + `\)-` + ident + `\.indexOf\(this\[` + ident + `\]\)\+` + ident + `-(\d+)\+` + ident + `--\)%` + ident + `\.length\]\)\},` + ident + `\.split\((?:""|'')\)\);?$`)
	caseLabelRe   = regexp.MustCompile(`(?:case (-?\d+)|default):`)
	assignRe      = regexp.MustCompile(`^(` + ident + `)([-+]?)=(\d+)$`)
	pushCharRe    = regexp.MustCompile(`^(` + ident + `)\.push\(String\.fromCharCode\((` + ident + `)\)\)$`)
)

// classifyThrottleFunc recognizes a function literal from the working
// array. ok is false for shapes the engine does not model.
func classifyThrottleFunc(src string) (*throttleFunc, bool) {
	m := fnLiteralRe.FindStringSubmatch(compactJS(src))
	if m == nil {
		return nil, false
	}
	body := strings.TrimSuffix(m[2], ";")
	fn := &throttleFunc{src: src}

	if loop := cipherLoopRe.FindStringSubmatch(body); loop != nil {
		cipher, ok := parseAlphabetCipher(loop, body[len(loop[0]):])
		if !ok {
			return nil, false
		}
		fn.op = opCipher
		fn.cipher = cipher
		return fn, true
	}
	if rotateRe.MatchString(body) {
		fn.op = opRotate
		fn.mod = modWrap
		return fn, true
	}
	if loc := wrapPrefixRe.FindStringIndex(body); loc != nil {
		fn.mod = modWrap
		body = body[loc[1]:]
	}

	switch {
	case reverseRes[0].MatchString(body), reverseRes[1].MatchString(body):
		fn.op = opReverse
	case pushRe.MatchString(body):
		fn.op = opPush
	case unshiftRe.MatchString(body):
		fn.op = opUnshift
	case swapRe.MatchString(body):
		fn.op = opSwap
	case swapTruncRe.MatchString(body):
		fn.op = opSwap
		if fn.mod == modNone {
			fn.mod = modTrunc
		}
	case nestedSpliceRe.MatchString(body):
		fn.op = opNestedSplice
	case removeRe.MatchString(body):
		fn.op = opRemove
	case prependRe.MatchString(body):
		fn.op = opPrepend
	default:
		return nil, false
	}
	return fn, true
}

type clauseStmtKind uint8

const (
	stmtSet clauseStmtKind = iota
	stmtAdd
	stmtSub
	stmtPush
	stmtExit
)

type clauseStmt struct {
	kind clauseStmtKind
	n    int
}

type switchClause struct {
	label     int
	isDefault bool
	stmts     []clauseStmt
}

// parseAlphabetCipher evaluates the alphabet-building loop once and reads
// the offset used by the substitution that follows it.
func parseAlphabetCipher(loop []string, rest string) (*alphabetCipher, bool) {
	counter, list := loop[1], loop[3]
	if loop[4] != counter || loop[7] != counter || loop[5] != list {
		return nil, false
	}
	start, err := strconv.Atoi(loop[2])
	if err != nil {
		return nil, false
	}
	limit, err := strconv.Atoi(loop[6])
	if err != nil {
		return nil, false
	}
	apply := cipherApplyRe.FindStringSubmatch(rest)
	if apply == nil {
		return nil, false
	}
	offset, err := strconv.Atoi(apply[1])
	if err != nil {
		return nil, false
	}
	clauses, ok := parseSwitchClauses(loop[8], counter, list)
	if !ok {
		return nil, false
	}
	alphabet, final, ok := simulateAlphabet(start, limit, clauses)
	if !ok || alphabet == "" {
		return nil, false
	}
	return &alphabetCipher{alphabet: alphabet, counter: final, offset: offset}, true
}

func parseSwitchClauses(body, counter, list string) ([]switchClause, bool) {
	labels := caseLabelRe.FindAllStringSubmatchIndex(body, -1)
	if len(labels) == 0 || labels[0][0] != 0 {
		return nil, false
	}
	clauses := make([]switchClause, 0, len(labels))
	for i, loc := range labels {
		var c switchClause
		if loc[2] < 0 {
			c.isDefault = true
		} else {
			n, err := strconv.Atoi(body[loc[2]:loc[3]])
			if err != nil {
				return nil, false
			}
			c.label = n
		}
		end := len(body)
		if i+1 < len(labels) {
			end = labels[i+1][0]
		}
		for _, raw := range strings.Split(body[loc[1]:end], ";") {
			if raw == "" {
				continue
			}
			switch {
			case raw == "break" || raw == "continue":
				c.stmts = append(c.stmts, clauseStmt{kind: stmtExit})
			case pushCharRe.MatchString(raw):
				pm := pushCharRe.FindStringSubmatch(raw)
				if pm[1] != list || pm[2] != counter {
					return nil, false
				}
				c.stmts = append(c.stmts, clauseStmt{kind: stmtPush})
			case assignRe.MatchString(raw):
				am := assignRe.FindStringSubmatch(raw)
				if am[1] != counter {
					return nil, false
				}
				n, _ := strconv.Atoi(am[3])
				kind := stmtSet
				switch am[2] {
				case "+":
					kind = stmtAdd
				case "-":
					kind = stmtSub
				}
				c.stmts = append(c.stmts, clauseStmt{kind: kind, n: n})
			default:
				return nil, false
			}
		}
		clauses = append(clauses, c)
	}
	return clauses, true
}

const maxAlphabetIterations = 4096

// simulateAlphabet runs `for(var f=start,h=[];++f-h.length-limit;){switch(f){...}}`.
func simulateAlphabet(start, limit int, clauses []switchClause) (string, int, bool) {
	f := start
	var h []byte
	for iter := 0; iter < maxAlphabetIterations; iter++ {
		f++
		if f-len(h)-limit == 0 {
			return string(h), f, true
		}
		entry := -1
		for i, c := range clauses {
			if !c.isDefault && c.label == f {
				entry = i
				break
			}
		}
		if entry < 0 {
			for i, c := range clauses {
				if c.isDefault {
					entry = i
					break
				}
			}
		}
		if entry < 0 {
			continue
		}
	run:
		for _, c := range clauses[entry:] {
			for _, st := range c.stmts {
				switch st.kind {
				case stmtSet:
					f = st.n
				case stmtAdd:
					f += st.n
				case stmtSub:
					f -= st.n
				case stmtPush:
					if f < 0x20 || f > 0x7e {
						return "", 0, false
					}
					h = append(h, byte(f))
				case stmtExit:
					break run
				}
			}
		}
	}
	return "", 0, false
}

func (f *throttleFunc) call(step int, args []jsValue) error {
	arg := func(i int) jsValue {
		if i < len(args) {
			return args[i]
		}
		return jsValue{}
	}
	target := arg(0)
	if target.kind != valArray {
		return &UnsupportedOperationError{Program: ProgramThrottle, Shape: "call on non-array: " + f.src}
	}
	d := target.arr

	switch f.op {
	case opReverse:
		for l, r := 0, len(d.items)-1; l < r; l, r = l+1, r-1 {
			d.items[l], d.items[r] = d.items[r], d.items[l]
		}
		return nil
	case opPush:
		d.items = append(d.items, arg(1))
		return nil
	case opUnshift:
		d.items = append([]jsValue{arg(1)}, d.items...)
		return nil
	case opCipher:
		key := arg(1)
		if key.kind != valString {
			return &UnsupportedOperationError{Program: ProgramThrottle, Shape: "cipher key is not a string"}
		}
		return f.cipher.apply(step, d, key.str)
	}

	e := arg(1)
	if e.kind != valNumber {
		return &UnsupportedOperationError{Program: ProgramThrottle, Shape: "non-numeric index for " + f.src}
	}
	l := len(d.items)

	if f.op == opPrepend {
		n := e.num
		if f.mod != modNone {
			idx, err := foldIndex(step, n, l, f.mod)
			if err != nil {
				return err
			}
			n = int64(idx)
		}
		var start int
		if n > 0 {
			start = l - int(min(n, int64(l)))
		} else {
			start = int(min(-n, int64(l)))
		}
		rotated := make([]jsValue, 0, l)
		rotated = append(rotated, d.items[start:]...)
		rotated = append(rotated, d.items[:start]...)
		d.items = rotated
		return nil
	}

	idx, err := foldIndex(step, e.num, l, f.mod)
	if err != nil {
		return err
	}
	switch f.op {
	case opRotate:
		if idx > 0 {
			rotated := make([]jsValue, 0, l)
			rotated = append(rotated, d.items[l-idx:]...)
			rotated = append(rotated, d.items[:l-idx]...)
			d.items = rotated
		}
	case opSwap, opNestedSplice:
		d.items[0], d.items[idx] = d.items[idx], d.items[0]
	case opRemove:
		d.items = append(d.items[:idx], d.items[idx+1:]...)
	default:
		return &UnsupportedOperationError{Program: ProgramThrottle, Shape: f.src}
	}
	return nil
}

// foldIndex maps a raw index argument into [0, l).
func foldIndex(step int, e int64, l int, mode modMode) (int, error) {
	if l == 0 {
		return 0, &ReplayIndexError{Program: ProgramThrottle, Step: step, Index: int(e), Length: 0}
	}
	n := int64(l)
	idx := e
	switch mode {
	case modWrap:
		idx = (e%n + n) % n
	case modTrunc:
		idx = e % n
	}
	if idx < 0 || idx >= n {
		return 0, &ReplayIndexError{Program: ProgramThrottle, Step: step, Index: int(e), Length: l}
	}
	return int(idx), nil
}

func (c *alphabetCipher) indexOf(s string) int {
	if len(s) != 1 {
		return -1
	}
	return strings.IndexByte(c.alphabet, s[0])
}

func (c *alphabetCipher) apply(step int, d *jsArray, key string) error {
	seen := make([]string, 0, len(key)+len(d.items))
	for _, r := range key {
		seen = append(seen, string(r))
	}
	f := c.counter
	size := len(c.alphabet)
	for m := range d.items {
		li := -1
		if d.items[m].kind == valString {
			li = c.indexOf(d.items[m].str)
		}
		ti := -1
		if m < len(seen) {
			ti = c.indexOf(seen[m])
		}
		idx := (li - ti + m - c.offset + f) % size
		f--
		if idx < 0 {
			return &ReplayIndexError{Program: ProgramThrottle, Step: step, Index: idx, Length: size}
		}
		ch := c.alphabet[idx : idx+1]
		d.items[m] = stringValue(ch)
		seen = append(seen, ch)
	}
	return nil
}

// compactJS drops comments and any whitespace that does not separate two
// word characters. String, template and regex literals are copied as-is.
func compactJS(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	var last byte
	pendingSpace := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case ' ', '\t', '\n', '\r':
			pendingSpace = true
			continue
		}
		if c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*') {
			if src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if end := strings.Index(src[i+2:], "*/"); end >= 0 {
				i += end + 3
			} else {
				i = len(src)
			}
			pendingSpace = true
			continue
		}
		if pendingSpace && isWordByte(last) && isWordByte(c) {
			b.WriteByte(' ')
		}
		pendingSpace = false

		end := i
		switch {
		case c == '"' || c == '\'' || c == '`':
			end = literalEnd(src, i, c, false)
		case c == '/' && (last == 0 || strings.IndexByte(regexPreceders, last) >= 0):
			end = literalEnd(src, i, '/', true)
		}
		b.WriteString(src[i : end+1])
		last = src[end]
		i = end
	}
	return b.String()
}

// literalEnd returns the index of the delimiter closing the literal opened
// at start, or the last index when it is unterminated.
func literalEnd(src string, start int, delim byte, regex bool) int {
	inClass := false
	for i := start + 1; i < len(src); i++ {
		switch c := src[i]; {
		case c == '\\':
			i++
		case regex && c == '[':
			inClass = true
		case regex && c == ']':
			inClass = false
		case c == delim && !inClass:
			return i
		}
	}
	return len(src) - 1
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
