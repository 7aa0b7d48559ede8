package client

import (
	"errors"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	const id = "jNQXAC9IVRw"
	tests := []struct {
		name   string
		input  string
		want   string
		reason string
	}{
		{name: "bare id", input: "  " + id + " ", want: id},
		{name: "watch", input: "https://www.youtube.com/watch?v=" + id + "&list=PL1", want: id},
		{name: "no scheme", input: "m.youtube.com/watch?v=" + id, want: id},
		{name: "music", input: "https://music.youtube.com/watch?v=" + id, want: id},
		{name: "short link", input: "https://youtu.be/" + id + "?si=x", want: id},
		{name: "embed nocookie", input: "https://www.youtube-nocookie.com/embed/" + id + "/", want: id},
		{name: "e path", input: "https://www.youtube.com/e/" + id, want: id},
		{name: "shorts", input: "https://youtube.com/shorts/" + id, want: id},
		{name: "live", input: "https://www.youtube.com/live/" + id + "?feature=share", want: id},
		{name: "empty", input: "   ", reason: "empty"},
		{name: "other host", input: "https://vimeo.com/watch?v=" + id, reason: "unsupported_host"},
		{name: "feed page", input: "https://www.youtube.com/feed/trending", reason: "missing_video_id"},
		{name: "short id", input: "https://youtu.be/abc", reason: "missing_video_id"},
	}
	for _, tt := range tests {
		got, err := ExtractVideoID(tt.input)
		if tt.reason == "" {
			if err != nil || got != tt.want {
				t.Fatalf("%s: ExtractVideoID(%q) = %q, %v; want %q", tt.name, tt.input, got, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: error = %v, want ErrInvalidInput", tt.name, err)
		}
		var detail *InvalidInputDetailError
		if !errors.As(err, &detail) || detail.Reason != tt.reason {
			t.Fatalf("%s: error = %v, want reason %q", tt.name, err, tt.reason)
		}
	}
}
