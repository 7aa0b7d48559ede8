package playerjs

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type elementKind uint8

const (
	elemString elementKind = iota
	elemNumber
	elemSelf
	elemInputArray
	elemInputString
	elemFunction
	elemOpaque
)

// throttleElement is one entry of the working array literal.
type throttleElement struct {
	kind elementKind
	str  string
	num  int64
	fn   *throttleFunc
}

type throttleStep struct {
	fn   int
	args []int
	raw  string
}

type resultKind uint8

const (
	resultJoin resultKind = iota
	resultSelect
)

// ThrottleProgram is the array-driven program that transforms the "n"
// query value. It is immutable; every Apply builds fresh working state.
type ThrottleProgram struct {
	elements []throttleElement
	steps    []throttleStep
	result   resultKind
	modulus  int
}

// Steps reports how many calls the program performs.
func (p *ThrottleProgram) Steps() int {
	return len(p.steps)
}

type valueKind uint8

const (
	valUndefined valueKind = iota
	valString
	valNumber
	valArray
	valFunc
	valOpaque
)

type jsValue struct {
	kind valueKind
	str  string
	num  int64
	arr  *jsArray
	fn   *throttleFunc
}

type jsArray struct {
	items []jsValue
}

func stringValue(s string) jsValue { return jsValue{kind: valString, str: s} }

func numberValue(n int64) jsValue { return jsValue{kind: valNumber, num: n} }

// Apply replays the program over the raw "n" value.
func (p *ThrottleProgram) Apply(input string) (string, error) {
	chars := &jsArray{items: make([]jsValue, 0, len(input))}
	for _, r := range input {
		chars.items = append(chars.items, stringValue(string(r)))
	}
	work := &jsArray{items: make([]jsValue, len(p.elements))}
	for i, el := range p.elements {
		switch el.kind {
		case elemString:
			work.items[i] = stringValue(el.str)
		case elemNumber:
			work.items[i] = numberValue(el.num)
		case elemSelf:
			work.items[i] = jsValue{kind: valArray, arr: work}
		case elemInputArray:
			work.items[i] = jsValue{kind: valArray, arr: chars}
		case elemInputString:
			work.items[i] = stringValue(input)
		case elemFunction:
			work.items[i] = jsValue{kind: valFunc, fn: el.fn}
		default:
			work.items[i] = jsValue{kind: valOpaque, str: el.str}
		}
	}

	for n, step := range p.steps {
		if step.fn >= len(work.items) {
			return "", &ReplayIndexError{Program: ProgramThrottle, Step: n, Index: step.fn, Length: len(work.items)}
		}
		callee := work.items[step.fn]
		if callee.kind != valFunc {
			return "", &UnsupportedOperationError{Program: ProgramThrottle, Shape: step.raw}
		}
		args := make([]jsValue, len(step.args))
		for i, idx := range step.args {
			if idx >= len(work.items) {
				return "", &ReplayIndexError{Program: ProgramThrottle, Step: n, Index: idx, Length: len(work.items)}
			}
			args[i] = work.items[idx]
		}
		if err := callee.fn.call(n, args); err != nil {
			return "", err
		}
	}

	if p.result == resultJoin {
		return joinArray(chars, "")
	}
	idx := utf8.RuneCountInString(input) % p.modulus
	if idx >= len(work.items) {
		return "", &ReplayIndexError{Program: ProgramThrottle, Step: len(p.steps), Index: idx, Length: len(work.items)}
	}
	v := work.items[idx]
	switch {
	case v.kind == valString:
		return v.str, nil
	case v.kind == valNumber:
		return strconv.FormatInt(v.num, 10), nil
	case v.kind == valArray && v.arr == chars:
		// Arrays stringify comma-separated.
		return joinArray(chars, ",")
	default:
		return "", &UnsupportedOperationError{Program: ProgramThrottle, Shape: "result selects a non-scalar element"}
	}
}

func joinArray(a *jsArray, sep string) (string, error) {
	var b strings.Builder
	for i, v := range a.items {
		if i > 0 {
			b.WriteString(sep)
		}
		switch v.kind {
		case valString:
			b.WriteString(v.str)
		case valNumber:
			b.WriteString(strconv.FormatInt(v.num, 10))
		case valUndefined:
		default:
			return "", &UnsupportedOperationError{Program: ProgramThrottle, Shape: "join over non-scalar element"}
		}
	}
	return b.String(), nil
}
