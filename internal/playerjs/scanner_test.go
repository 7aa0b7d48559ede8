package playerjs

import (
	"reflect"
	"testing"
)

func TestFindClose(t *testing.T) {
	tests := []struct {
		name string
		src  string
		open int
		want int
	}{
		{name: "flat", src: `{a:1}`, open: 0, want: 4},
		{name: "nested", src: `f({a:[1,2]},3)`, open: 1, want: 13},
		{name: "brace in string", src: `{"}":'{'}`, open: 0, want: 8},
		{name: "brace in regex", src: `{x=/[}]\}/g;y}`, open: 0, want: 13},
		{name: "division is not regex", src: `(a/2,b/3)`, open: 0, want: 8},
		{name: "template hole", src: "{`${{}}}`}", open: 0, want: 9},
		{name: "comments", src: "{/* } */a//}\n}", open: 0, want: 13},
		{name: "regex after return", src: `{return /}/.test(a)}`, open: 0, want: 19},
		{name: "regex after typeof", src: `(typeof/)/)`, open: 0, want: 10},
		{name: "property named return", src: `{x=a.return/2}`, open: 0, want: 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findClose(tt.src, tt.open)
			if err != nil {
				t.Fatalf("findClose() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("findClose() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFindClose_Unterminated(t *testing.T) {
	for _, src := range []string{`{a:1`, `{"}`, `x`, "{`${}"} {
		if _, err := findClose(src, 0); err == nil {
			t.Fatalf("findClose(%q) expected error", src)
		}
	}
}

func TestSplitTopLevel(t *testing.T) {
	got, err := splitTopLevel(`"a,b",function(d,e){d.push(e)},/,/,[1,2],c`, ',')
	if err != nil {
		t.Fatalf("splitTopLevel() error = %v", err)
	}
	want := []string{`"a,b"`, `function(d,e){d.push(e)}`, `/,/`, `[1,2]`, `c`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitTopLevel() = %#v, want %#v", got, want)
	}
}

func TestSplitStatements(t *testing.T) {
	got, err := splitStatements(`;c[1](c[2],c[3]),c[4](c[5]);;c[6]()`)
	if err != nil {
		t.Fatalf("splitStatements() error = %v", err)
	}
	want := []string{`c[1](c[2],c[3])`, `c[4](c[5])`, `c[6]()`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitStatements() = %#v, want %#v", got, want)
	}
}

func TestCompactJS(t *testing.T) {
	got := compactJS("function ( d , e ) {\n  var f = d[0]; /* x */ d.push( \"a b\" ) // tail\n}")
	want := `function(d,e){var f=d[0];d.push("a b")}`
	if got != want {
		t.Fatalf("compactJS() = %q, want %q", got, want)
	}
	if got := compactJS(`x=/a b"/g`); got != `x=/a b"/g` {
		t.Fatalf("compactJS() regex = %q", got)
	}
}
