package selector

import (
	"fmt"
	"regexp"
	"strings"
)

// Selector is a parsed format expression. Alternatives are separated by
// "/" and tried in order; each alternative joins stream specs with "+".
type Selector struct {
	Fallbacks []MergeGroup
}

// MergeGroup lists the streams picked together, e.g. bestvideo+bestaudio.
type MergeGroup []*StreamSpec

// StreamSpec holds every filter a single stream must satisfy.
type StreamSpec struct {
	Filters []FormatFilter
}

type FormatFilter struct {
	Type  string // builtin, media, ext, res, width, fps, itag, vcodec, acodec
	Value string
	Op    string // comparison for keyed filters, best or worst for media
}

var keywords = map[string]FormatFilter{
	"best":       {Type: "builtin", Value: "best"},
	"worst":      {Type: "builtin", Value: "worst"},
	"bestvideo":  {Type: "media", Value: "video", Op: "best"},
	"bv":         {Type: "media", Value: "video", Op: "best"},
	"worstvideo": {Type: "media", Value: "video", Op: "worst"},
	"wv":         {Type: "media", Value: "video", Op: "worst"},
	"bestaudio":  {Type: "media", Value: "audio", Op: "best"},
	"ba":         {Type: "media", Value: "audio", Op: "best"},
	"worstaudio": {Type: "media", Value: "audio", Op: "worst"},
	"wa":         {Type: "media", Value: "audio", Op: "worst"},
	"videoonly":  {Type: "media", Value: "video"},
	"audioonly":  {Type: "media", Value: "audio"},
	"mp4":        {Type: "ext", Value: "mp4"},
	"webm":       {Type: "ext", Value: "webm"},
	"m4a":        {Type: "ext", Value: "m4a"},
	"mp3":        {Type: "ext", Value: "mp3"},
}

// filterKeys maps a comparison key to its filter type.
var filterKeys = map[string]string{
	"ext":       "ext",
	"res":       "res",
	"height":    "res",
	"width":     "width",
	"fps":       "fps",
	"itag":      "itag",
	"format_id": "itag",
	"vcodec":    "vcodec",
	"acodec":    "acodec",
}

// Two-byte operators come first so "<=" is not read as "<".
var comparisonOps = []string{"<=", ">=", "!=", "=", "<", ">", ":"}

var (
	bareItag  = regexp.MustCompile(`^\d+$`)
	bracketed = regexp.MustCompile(`\[([^\]]+)\]`)
)

// Parse parses expressions such as "bestvideo[height<=720]+bestaudio/best".
func Parse(expr string) (*Selector, error) {
	sel := &Selector{}
	for _, alt := range strings.Split(expr, "/") {
		var group MergeGroup
		for _, part := range strings.Split(alt, "+") {
			spec, err := parseStreamSpec(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			group = append(group, spec)
		}
		sel.Fallbacks = append(sel.Fallbacks, group)
	}
	return sel, nil
}

func parseStreamSpec(s string) (*StreamSpec, error) {
	cut := strings.IndexByte(s, '[')
	if cut < 0 {
		cut = len(s)
	}
	head, brackets := s[:cut], s[cut:]

	spec := &StreamSpec{}
	if head != "" {
		f, err := parseHead(head)
		if err != nil {
			return nil, err
		}
		spec.Filters = append(spec.Filters, f)
	}
	for _, m := range bracketed.FindAllStringSubmatch(brackets, -1) {
		f, err := parseComparison(m[1])
		if err != nil {
			return nil, err
		}
		spec.Filters = append(spec.Filters, f)
	}
	return spec, nil
}

// parseHead reads the part before any brackets: a keyword, a bare itag or
// an unbracketed comparison such as "fps!=60".
func parseHead(s string) (FormatFilter, error) {
	s = strings.ToLower(s)
	if f, ok := keywords[s]; ok {
		return f, nil
	}
	if bareItag.MatchString(s) {
		return FormatFilter{Type: "itag", Value: s, Op: "="}, nil
	}
	if f, err := parseComparison(s); err == nil {
		return f, nil
	}
	return FormatFilter{}, fmt.Errorf("unknown selector: %s", s)
}

func parseComparison(s string) (FormatFilter, error) {
	for _, op := range comparisonOps {
		key, val, ok := strings.Cut(s, op)
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		typ, known := filterKeys[key]
		if !known {
			return FormatFilter{}, fmt.Errorf("unknown modifier key: %s", key)
		}
		if typ == "ext" {
			op = ""
		}
		return FormatFilter{Type: typ, Value: strings.TrimSpace(val), Op: op}, nil
	}
	return FormatFilter{}, fmt.Errorf("unknown modifier syntax: %s", s)
}
