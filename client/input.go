package client

import (
	"net/url"
	"regexp"
	"strings"
)

var youtubeIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

var videoPathPrefixes = []string{"/embed/", "/v/", "/e/", "/shorts/", "/live/"}

// ExtractVideoID accepts either a raw id or common YouTube URL shapes.
func ExtractVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", &InvalidInputDetailError{Input: input, Reason: "empty"}
	}
	if youtubeIDPattern.MatchString(s) {
		return s, nil
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", &InvalidInputDetailError{Input: input, Reason: "malformed_url"}
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "m.", "music."} {
		host = strings.TrimPrefix(host, prefix)
	}

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		id = u.Query().Get("v")
		for _, prefix := range videoPathPrefixes {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok && id == "" {
				id, _, _ = strings.Cut(rest, "/")
			}
		}
	default:
		return "", &InvalidInputDetailError{Input: input, Reason: "unsupported_host"}
	}
	if !youtubeIDPattern.MatchString(id) {
		return "", &InvalidInputDetailError{Input: input, Reason: "missing_video_id"}
	}
	return id, nil
}
