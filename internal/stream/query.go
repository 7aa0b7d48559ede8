package stream

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Query is an ordered, immutable collection of descriptors. Every
// filtering method returns a new Query and preserves order.
type Query struct {
	streams []*Descriptor
}

// NewQuery builds a collection and becomes the owner of every descriptor
// that has none yet.
func NewQuery(streams []*Descriptor) *Query {
	q := &Query{streams: append([]*Descriptor(nil), streams...)}
	for _, d := range q.streams {
		if d.owner == nil {
			d.owner = q
		}
	}
	return q
}

func (q *Query) derive(streams []*Descriptor) *Query {
	return &Query{streams: streams}
}

func (q *Query) Len() int { return len(q.streams) }

// All returns the descriptors in collection order.
func (q *Query) All() []*Descriptor {
	return append([]*Descriptor(nil), q.streams...)
}

// First returns the first descriptor, or nil.
func (q *Query) First() *Descriptor {
	if len(q.streams) == 0 {
		return nil
	}
	return q.streams[0]
}

// Last returns the last descriptor, or nil.
func (q *Query) Last() *Descriptor {
	if len(q.streams) == 0 {
		return nil
	}
	return q.streams[len(q.streams)-1]
}

// At returns the descriptor at i. Negative indexes count from the end.
func (q *Query) At(i int) *Descriptor {
	if i < 0 {
		i += len(q.streams)
	}
	if i < 0 || i >= len(q.streams) {
		return nil
	}
	return q.streams[i]
}

// Slice returns descriptors [i, j), clamped to the collection bounds.
func (q *Query) Slice(i, j int) *Query {
	n := len(q.streams)
	i = min(max(i, 0), n)
	j = min(max(j, i), n)
	return q.derive(append([]*Descriptor(nil), q.streams[i:j]...))
}

// Filter keeps the descriptors matching every predicate.
func (q *Query) Filter(preds ...Predicate) *Query {
	var out []*Descriptor
	for _, d := range q.streams {
		if matchAll(d, preds) {
			out = append(out, d)
		}
	}
	return q.derive(out)
}

func matchAll(d *Descriptor, preds []Predicate) bool {
	for _, p := range preds {
		if p != nil && !p(d) {
			return false
		}
	}
	return true
}

// Reversed returns the collection in reverse order.
func (q *Query) Reversed() *Query {
	out := make([]*Descriptor, len(q.streams))
	for i, d := range q.streams {
		out[len(out)-1-i] = d
	}
	return q.derive(out)
}

// OrderBy sorts ascending by attr, dropping descriptors that lack it.
// String attributes sort by their digits when every value carries some,
// so "720p" sorts after "360p".
func (q *Query) OrderBy(attr Attr) *Query {
	type keyed struct {
		d *Descriptor
		v attrValue
	}
	var items []keyed
	for _, d := range q.streams {
		if v, ok := attr.value(d); ok {
			items = append(items, keyed{d, v})
		}
	}

	numeric := true
	for i := range items {
		if items[i].v.isString {
			n, ok := digitsOf(items[i].v.str)
			if !ok {
				numeric = false
				break
			}
			items[i].v.num = n
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].v, items[j].v
		if a.isString && !numeric {
			return a.str < b.str
		}
		return a.num < b.num
	})

	out := make([]*Descriptor, len(items))
	for i, it := range items {
		out[i] = it.d
	}
	return q.derive(out)
}

// OrderByDesc is OrderBy followed by Reversed.
func (q *Query) OrderByDesc(attr Attr) *Query {
	return q.OrderBy(attr).Reversed()
}

func digitsOf(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetByItag returns the descriptor with itag, or nil.
func (q *Query) GetByItag(itag int) *Descriptor {
	for _, d := range q.streams {
		if d.Itag() == itag {
			return d
		}
	}
	return nil
}

// GetHighestResolution returns the highest resolution progressive mp4.
func (q *Query) GetHighestResolution() *Descriptor {
	return q.Filter(Progressive(), BySubtype("mp4")).OrderBy(AttrResolution).Last()
}

// GetLowestResolution returns the lowest resolution progressive mp4.
func (q *Query) GetLowestResolution() *Descriptor {
	return q.Filter(Progressive(), BySubtype("mp4")).OrderBy(AttrResolution).First()
}

// GetAudioOnly returns the audio-only stream of subtype with the highest
// bitrate. An empty subtype defaults to mp4.
func (q *Query) GetAudioOnly(subtype string) *Descriptor {
	if subtype == "" {
		subtype = "mp4"
	}
	return q.Filter(OnlyAudio(), BySubtype(subtype)).OrderBy(AttrABR).Last()
}

// GetVideoOnly returns the video-only stream of subtype with the highest
// resolution. An empty subtype defaults to mp4.
func (q *Query) GetVideoOnly(subtype string) *Descriptor {
	if subtype == "" {
		subtype = "mp4"
	}
	return q.Filter(OnlyVideo(), BySubtype(subtype)).OrderBy(AttrResolution).Last()
}

// SortByBitrate orders by bitrate, highest first.
func (q *Query) SortByBitrate() *Query {
	return q.OrderByDesc(AttrBitrate)
}

// SortByFilesizeApprox orders by estimated size, largest first.
func (q *Query) SortByFilesizeApprox() *Query {
	return q.OrderByDesc(AttrFilesizeApprox)
}

// SortByAudioSampleRate orders by audio sample rate, highest first.
func (q *Query) SortByAudioSampleRate() *Query {
	return q.OrderByDesc(AttrAudioSampleRate)
}
