package selector

import (
	"errors"
	"testing"

	"github.com/famomatic/ytresolve/internal/formats"
	"github.com/famomatic/ytresolve/internal/itags"
	"github.com/famomatic/ytresolve/internal/stream"
)

func video(itag int, subtype, codec string, width, height, fps, bitrate int) formats.Record {
	return formats.Record{Itag: itag, Type: "video", Subtype: subtype, Codecs: []string{codec},
		Width: width, Height: height, FPS: fps, Bitrate: bitrate}
}

func audio(itag int, subtype, codec string, bitrate int) formats.Record {
	return formats.Record{Itag: itag, Type: "audio", Subtype: subtype, Codecs: []string{codec}, Bitrate: bitrate}
}

func muxed(itag int, width, height, bitrate int) formats.Record {
	return formats.Record{Itag: itag, Type: "video", Subtype: "mp4", Codecs: []string{"avc1", "mp4a"},
		Width: width, Height: height, FPS: 30, Bitrate: bitrate}
}

func query(recs ...formats.Record) *stream.Query {
	ds := make([]*stream.Descriptor, len(recs))
	for i, r := range recs {
		r.Index = i
		ds[i] = stream.NewDescriptor(r, itags.Lookup(r.Itag), nil)
	}
	return stream.NewQuery(ds)
}

func mustSelect(t *testing.T, q *stream.Query, expr string) []int {
	t.Helper()
	sel, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", expr, err)
	}
	got, err := Select(q, sel)
	if err != nil {
		t.Fatalf("Select(%q) error = %v", expr, err)
	}
	out := make([]int, len(got))
	for i, d := range got {
		out[i] = d.Itag()
	}
	return out
}

func TestSelect_ExtM4AMergeRecipe(t *testing.T) {
	q := query(
		video(137, "mp4", "avc1", 1920, 1080, 30, 4_000_000),
		audio(140, "mp4", "mp4a", 128_000),
		audio(251, "webm", "opus", 160_000),
	)
	got := mustSelect(t, q, "bestvideo[ext=mp4]+bestaudio[ext=m4a]")
	if len(got) != 2 || got[0] != 137 || got[1] != 140 {
		t.Fatalf("selected itags = %v, want [137 140]", got)
	}
}

func TestSelect_FallbackToBestExtMP4(t *testing.T) {
	q := query(
		video(137, "mp4", "avc1", 1920, 1080, 30, 4_000_000),
		audio(251, "webm", "opus", 160_000),
		muxed(22, 1280, 720, 2_000_000),
	)
	got := mustSelect(t, q, "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best")
	if len(got) != 1 || got[0] != 22 {
		t.Fatalf("selected itags = %v, want [22]", got)
	}
}

func TestSelect_WidthFilter(t *testing.T) {
	q := query(
		video(136, "mp4", "avc1", 1280, 720, 30, 2_000_000),
		video(137, "mp4", "avc1", 1920, 1080, 30, 4_000_000),
	)
	if got := mustSelect(t, q, "bestvideo[width>=1920]"); len(got) != 1 || got[0] != 137 {
		t.Fatalf("selected itags = %v, want [137]", got)
	}
}

func TestSelect_WorstAliases(t *testing.T) {
	q := query(
		video(136, "mp4", "avc1", 1280, 720, 30, 2_000_000),
		video(137, "mp4", "avc1", 1920, 1080, 30, 4_000_000),
		audio(140, "mp4", "mp4a", 128_000),
		audio(251, "webm", "opus", 160_000),
	)
	if got := mustSelect(t, q, "worstaudio"); len(got) != 1 || got[0] != 140 {
		t.Fatalf("worstaudio = %v, want [140]", got)
	}
	if got := mustSelect(t, q, "worstvideo"); len(got) != 1 || got[0] != 136 {
		t.Fatalf("worstvideo = %v, want [136]", got)
	}
}

func TestSelect_FPSNotEqualFilter(t *testing.T) {
	q := query(
		video(299, "mp4", "avc1", 1920, 1080, 60, 5_000_000),
		video(137, "mp4", "avc1", 1920, 1080, 30, 4_000_000),
	)
	if got := mustSelect(t, q, "bestvideo[fps!=60]"); len(got) != 1 || got[0] != 137 {
		t.Fatalf("selected itags = %v, want [137]", got)
	}
}

func TestSelect_ItagAndCodecFilters(t *testing.T) {
	q := query(
		video(248, "webm", "vp9", 1920, 1080, 30, 3_000_000),
		video(137, "mp4", "avc1.640028", 1920, 1080, 30, 4_000_000),
		audio(251, "webm", "opus", 160_000),
	)
	if got := mustSelect(t, q, "248"); len(got) != 1 || got[0] != 248 {
		t.Fatalf("itag selector = %v, want [248]", got)
	}
	if got := mustSelect(t, q, "bestvideo[vcodec=vp9]+bestaudio[acodec=opus]"); len(got) != 2 || got[0] != 248 || got[1] != 251 {
		t.Fatalf("codec selector = %v, want [248 251]", got)
	}
	if got := mustSelect(t, q, "bestvideo[vcodec!=avc1]"); len(got) != 1 || got[0] != 248 {
		t.Fatalf("codec exclusion = %v, want [248]", got)
	}
}

func TestSelect_NoMatch(t *testing.T) {
	q := query(audio(140, "mp4", "mp4a", 128_000))
	sel, err := Parse("bestvideo")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Select(q, sel); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("Select() error = %v, want ErrNoMatch", err)
	}
}

func TestSelect_DefaultPrefersMuxed(t *testing.T) {
	q := query(
		video(137, "mp4", "avc1", 1920, 1080, 30, 4_000_000),
		muxed(18, 640, 360, 500_000),
	)
	got, err := Select(q, nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 1 || got[0].Itag() != 18 {
		t.Fatalf("default selection = %v", got)
	}
}
