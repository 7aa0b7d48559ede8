package selector

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/famomatic/ytresolve/internal/stream"
)

// ErrNoMatch is returned when no fallback of a selector can be satisfied.
var ErrNoMatch = errors.New("no stream matches the selector")

// Select chooses streams from q based on the selector. A nil selector picks
// the best single stream.
func Select(q *stream.Query, selector *Selector) ([]*stream.Descriptor, error) {
	streams := q.All()
	if selector == nil || len(selector.Fallbacks) == 0 {
		best := SelectBest(streams)
		if len(best) == 0 {
			return nil, ErrNoMatch
		}
		return best, nil
	}

	for _, group := range selector.Fallbacks {
		// A MergeGroup is a list of StreamSpecs (e.g. [video, audio])
		var selected []*stream.Descriptor
		failed := false

		for _, spec := range group {
			candidate, ok := pickBest(streams, spec)
			if !ok {
				failed = true
				break
			}
			selected = append(selected, candidate)
		}

		if !failed {
			return selected, nil
		}
	}

	return nil, ErrNoMatch
}

// SelectBest implements the default 'best' logic.
func SelectBest(streams []*stream.Descriptor) []*stream.Descriptor {
	// 1. Prefer streams with both audio and video
	var av []*stream.Descriptor
	for _, d := range streams {
		if d.IncludesAudio() && d.IncludesVideo() {
			av = append(av, d)
		}
	}

	if len(av) > 0 {
		sortStreams(av)
		return av[:1]
	}

	// 2. Fallback: return the best stream available
	if len(streams) > 0 {
		sorted := append([]*stream.Descriptor(nil), streams...)
		sortStreams(sorted)
		return sorted[:1]
	}

	return nil
}

func pickBest(streams []*stream.Descriptor, spec *StreamSpec) (*stream.Descriptor, bool) {
	var candidates []*stream.Descriptor
	for _, d := range streams {
		if matchesAll(d, spec.Filters) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sortStreams(candidates)

	for _, flt := range spec.Filters {
		if (flt.Type == "builtin" && flt.Value == "worst") || (flt.Type == "media" && flt.Op == "worst") {
			return candidates[len(candidates)-1], true
		}
	}
	return candidates[0], true
}

func matchesAll(d *stream.Descriptor, filters []FormatFilter) bool {
	for _, flt := range filters {
		if !matches(d, &flt) {
			return false
		}
	}
	return true
}

func matches(d *stream.Descriptor, filter *FormatFilter) bool {
	switch filter.Type {
	case "builtin":
		// best and worst refer to muxed streams.
		return d.IncludesAudio() && d.IncludesVideo()
	case "media":
		if filter.Value == "video" {
			return d.OnlyVideo()
		}
		if filter.Value == "audio" {
			return d.OnlyAudio()
		}
	case "ext":
		return matchesExt(d, strings.ToLower(filter.Value))
	case "res":
		return checkIntOp(height(d), filter)
	case "width":
		return checkIntOp(d.Width(), filter)
	case "fps":
		return checkIntOp(d.FPS(), filter)
	case "itag":
		return checkIntOp(d.Itag(), filter)
	case "vcodec":
		return checkCodec(d.VideoCodec(), filter)
	case "acodec":
		return checkCodec(d.AudioCodec(), filter)
	}
	return false
}

func matchesExt(d *stream.Descriptor, ext string) bool {
	if ext == "m4a" {
		return d.OnlyAudio() && (d.Subtype() == "mp4" || d.Profile().Container == "m4a")
	}
	return strings.EqualFold(d.Subtype(), ext)
}

func height(d *stream.Descriptor) int {
	if d.Height() > 0 {
		return d.Height()
	}
	return d.Profile().Height()
}

func checkIntOp(a int, filter *FormatFilter) bool {
	b, err := strconv.Atoi(filter.Value)
	if err != nil {
		return false
	}
	return checkOp(a, b, filter.Op)
}

func checkCodec(codec string, filter *FormatFilter) bool {
	hasPrefix := codec != "" && strings.HasPrefix(strings.ToLower(codec), strings.ToLower(filter.Value))
	if filter.Op == "!=" {
		return !hasPrefix
	}
	return hasPrefix
}

func checkOp(a, b int, op string) bool {
	switch op {
	case ":", "=":
		return a == b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	case "!=":
		return a != b
	}
	return false
}

func sortStreams(streams []*stream.Descriptor) {
	sort.SliceStable(streams, func(i, j int) bool {
		// Descending order
		resI := height(streams[i]) * streams[i].Width()
		resJ := height(streams[j]) * streams[j].Width()
		if resI != resJ {
			return resI > resJ
		}
		if streams[i].Bitrate() != streams[j].Bitrate() {
			return streams[i].Bitrate() > streams[j].Bitrate()
		}
		if streams[i].FPS() != streams[j].FPS() {
			return streams[i].FPS() > streams[j].FPS()
		}
		return streams[i].Itag() > streams[j].Itag()
	})
}
