package playerjs

import (
	"errors"
	"testing"
)

func TestTransformProgramApply(t *testing.T) {
	prog := NewTransformProgram(
		Operation{Kind: OpReverse},
		Operation{Kind: OpSplice, Index: 3},
		Operation{Kind: OpSwap, Index: 5},
	)
	got, err := prog.Apply("abcdefghij")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "bfedcga" {
		t.Fatalf("Apply() = %q, want %q", got, "bfedcga")
	}
	if prog.String() != "reverse,splice(3),swap(5)" {
		t.Fatalf("String() = %q", prog.String())
	}
}

func TestTransformProgramApply_SwapWrapsIndex(t *testing.T) {
	prog := NewTransformProgram(Operation{Kind: OpSwap, Index: 7})
	got, err := prog.Apply("abc")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "bac" {
		t.Fatalf("Apply() = %q, want %q", got, "bac")
	}
}

func TestTransformProgramApply_IndexErrors(t *testing.T) {
	tests := []struct {
		name  string
		op    Operation
		input string
	}{
		{name: "splice past end", op: Operation{Kind: OpSplice, Index: 4}, input: "abc"},
		{name: "swap on empty", op: Operation{Kind: OpSwap, Index: 1}, input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransformProgram(tt.op).Apply(tt.input)
			if !errors.Is(err, ErrReplayIndex) {
				t.Fatalf("Apply() error = %v, want ErrReplayIndex", err)
			}
			var idxErr *ReplayIndexError
			if !errors.As(err, &idxErr) || idxErr.Program != ProgramSignature {
				t.Fatalf("expected *ReplayIndexError for signature, got %#v", err)
			}
		})
	}
}

func TestTransformProgramOpsIsACopy(t *testing.T) {
	prog := NewTransformProgram(Operation{Kind: OpReverse})
	ops := prog.Ops()
	ops[0] = Operation{Kind: OpSplice, Index: 1}
	if got, _ := prog.Apply("ab"); got != "ba" {
		t.Fatalf("program mutated through Ops(): %q", got)
	}
}

func TestThrottleFuncCall(t *testing.T) {
	mk := func(s string) *jsArray {
		a := &jsArray{}
		for _, r := range s {
			a.items = append(a.items, stringValue(string(r)))
		}
		return a
	}
	str := func(a *jsArray) string {
		out, err := joinArray(a, "")
		if err != nil {
			t.Fatalf("joinArray() error = %v", err)
		}
		return out
	}
	tests := []struct {
		name string
		src  string
		arg  jsValue
		in   string
		want string
	}{
		{name: "reverse", src: `function(d){d.reverse()}`, in: "abc", want: "cba"},
		{name: "reverse loop", src: `function(d){for(var e=d.length;e;)d.push(d.splice(--e,1)[0])}`, in: "abc", want: "cba"},
		{name: "push", src: `function(d,e){d.push(e)}`, arg: stringValue("z"), in: "ab", want: "abz"},
		{name: "unshift", src: `function(d,e){d.unshift(e)}`, arg: stringValue("z"), in: "ab", want: "zab"},
		{name: "rotate", src: `function(d,e){for(e=(e%d.length+d.length)%d.length;e--;)d.unshift(d.pop())}`, arg: numberValue(-1), in: "abcd", want: "bcda"},
		{name: "swap wrap", src: `function(d,e){e=(e%d.length+d.length)%d.length;var f=d[0];d[0]=d[e];d[e]=f}`, arg: numberValue(-1), in: "abcd", want: "dbca"},
		{name: "swap plain", src: `function(d,e){var f=d[0];d[0]=d[e];d[e]=f}`, arg: numberValue(2), in: "abcd", want: "cbad"},
		{name: "nested splice", src: `function(d,e){e=(e%d.length+d.length)%d.length;d.splice(0,1,d.splice(e,1,d[0])[0])}`, arg: numberValue(6), in: "abcd", want: "cbad"},
		{name: "remove", src: `function(d,e){e=(e%d.length+d.length)%d.length;d.splice(e,1)}`, arg: numberValue(5), in: "abcd", want: "acd"},
		{name: "prepend", src: `function(d,e){d.splice(-e).reverse().forEach(function(f){d.unshift(f)})}`, arg: numberValue(1), in: "abcd", want: "dabc"},
		{name: "prepend negative", src: `function(d,e){d.splice(-e).reverse().forEach(function(f){d.unshift(f)})}`, arg: numberValue(-1), in: "abcd", want: "bcda"},
		{name: "prepend oversized", src: `function(d,e){d.splice(-e).reverse().forEach(function(f){d.unshift(f)})}`, arg: numberValue(9), in: "abcd", want: "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := classifyThrottleFunc(tt.src)
			if !ok {
				t.Fatalf("classifyThrottleFunc(%q) not recognized", tt.src)
			}
			arr := mk(tt.in)
			if err := fn.call(0, []jsValue{{kind: valArray, arr: arr}, tt.arg}); err != nil {
				t.Fatalf("call() error = %v", err)
			}
			if got := str(arr); got != tt.want {
				t.Fatalf("call() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThrottleFuncCall_Errors(t *testing.T) {
	swap, ok := classifyThrottleFunc(`function(d,e){var f=d[0];d[0]=d[e];d[e]=f}`)
	if !ok {
		t.Fatalf("swap not recognized")
	}
	arr := &jsArray{items: []jsValue{stringValue("a")}}
	err := swap.call(3, []jsValue{{kind: valArray, arr: arr}, numberValue(4)})
	var idxErr *ReplayIndexError
	if !errors.As(err, &idxErr) || idxErr.Step != 3 || idxErr.Index != 4 || idxErr.Length != 1 {
		t.Fatalf("out-of-range swap error = %#v", err)
	}

	remove, _ := classifyThrottleFunc(`function(d,e){e=(e%d.length+d.length)%d.length;d.splice(e,1)}`)
	if err := remove.call(0, []jsValue{{kind: valArray, arr: &jsArray{}}, numberValue(1)}); !errors.Is(err, ErrReplayIndex) {
		t.Fatalf("remove over empty error = %v, want ErrReplayIndex", err)
	}
	if err := remove.call(0, []jsValue{stringValue("x"), numberValue(1)}); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("call on string error = %v, want ErrUnsupportedOperation", err)
	}
}

func TestClassifyThrottleFunc_Unknown(t *testing.T) {
	for _, src := range []string{
		`function(d,e){d.sort()}`,
		`function(d){return d.map(String)}`,
		`not a function`,
	} {
		if _, ok := classifyThrottleFunc(src); ok {
			t.Fatalf("classifyThrottleFunc(%q) unexpectedly recognized", src)
		}
	}
}

func TestAlphabetCipher(t *testing.T) {
	fn, ok := classifyThrottleFunc(`function(d,e){for(var f=64,h=[];++f-h.length-32;){switch(f){case 58:f=96;continue;case 91:f=44;break;case 65:f=47;continue;case 46:f=153;case 123:f-=58;default:h.push(String.fromCharCode(f))}}d.forEach(function(l,m,n){this.push(n[m]=h[(h.indexOf(l)-h.indexOf(this[m])+m-32+f--)%h.length])},e.split(""))}`)
	if !ok || fn.op != opCipher {
		t.Fatalf("cipher not recognized")
	}
	const want = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-_"
	if fn.cipher.alphabet != want {
		t.Fatalf("alphabet = %q, want %q", fn.cipher.alphabet, want)
	}
	if fn.cipher.counter != 96 || fn.cipher.offset != 32 {
		t.Fatalf("counter=%d offset=%d", fn.cipher.counter, fn.cipher.offset)
	}
	err := fn.call(0, []jsValue{{kind: valArray, arr: &jsArray{items: []jsValue{stringValue("a")}}}, numberValue(1)})
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("non-string key error = %v, want ErrUnsupportedOperation", err)
	}
}
