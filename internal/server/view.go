package server

import (
	"github.com/famomatic/ytresolve/client"
)

// StreamView is the JSON shape of one resolved stream.
type StreamView struct {
	Itag           int      `json:"itag"`
	URL            string   `json:"url"`
	MimeType       string   `json:"mime_type"`
	Codecs         []string `json:"codecs,omitempty"`
	Resolution     string   `json:"resolution,omitempty"`
	FPS            int      `json:"fps,omitempty"`
	ABR            string   `json:"abr,omitempty"`
	Bitrate        int      `json:"bitrate,omitempty"`
	Width          int      `json:"width,omitempty"`
	Height         int      `json:"height,omitempty"`
	Progressive    bool     `json:"progressive"`
	IncludesAudio  bool     `json:"includes_audio"`
	IncludesVideo  bool     `json:"includes_video"`
	IsLive         bool     `json:"is_live,omitempty"`
	IsHDR          bool     `json:"is_hdr,omitempty"`
	IsOTF          bool     `json:"is_otf,omitempty"`
	FilesizeApprox int64    `json:"filesize_approx,omitempty"`
	Filesize       int64    `json:"filesize,omitempty"`
	FilesizeError  string   `json:"filesize_error,omitempty"`
}

// FailureView is the JSON shape of a record left out of a result.
type FailureView struct {
	Index    int    `json:"index"`
	Itag     int    `json:"itag"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// ResolveView is the JSON shape of a resolution.
type ResolveView struct {
	SessionID          string        `json:"session_id"`
	VideoID            string        `json:"video_id,omitempty"`
	PlayerURL          string        `json:"player_url,omitempty"`
	SignatureTimestamp int           `json:"signature_timestamp,omitempty"`
	Refreshed          bool          `json:"refreshed,omitempty"`
	DASHManifestURL    string        `json:"dash_manifest_url,omitempty"`
	HLSManifestURL     string        `json:"hls_manifest_url,omitempty"`
	ElapsedMS          int64         `json:"elapsed_ms"`
	Streams            []StreamView  `json:"streams"`
	Failures           []FailureView `json:"failures,omitempty"`
}

// NewStreamView converts s. A non-nil size is attached as the probed size.
func NewStreamView(s *client.Stream, size *client.SizeResult) StreamView {
	v := StreamView{
		Itag:           s.Itag(),
		URL:            s.URL(),
		MimeType:       s.MimeType(),
		Codecs:         s.Codecs(),
		Resolution:     s.Resolution(),
		FPS:            s.FPS(),
		ABR:            s.ABR(),
		Bitrate:        s.Bitrate(),
		Width:          s.Width(),
		Height:         s.Height(),
		Progressive:    s.IsProgressive(),
		IncludesAudio:  s.IncludesAudio(),
		IncludesVideo:  s.IncludesVideo(),
		IsLive:         s.IsLive(),
		IsHDR:          s.IsHDR(),
		IsOTF:          s.IsOTF(),
		FilesizeApprox: s.FilesizeApprox(),
	}
	if size != nil {
		if size.Err != nil {
			v.FilesizeError = size.Err.Error()
		} else {
			v.Filesize = size.Size
		}
	}
	return v
}

// NewResolveView converts res. streams may be a subset of res.Streams;
// sizes, when present, are parallel to streams.
func NewResolveView(res *client.Result, streams []*client.Stream, sizes []client.SizeResult) ResolveView {
	v := ResolveView{
		SessionID:          res.SessionID,
		VideoID:            res.VideoID,
		PlayerURL:          res.PlayerURL,
		SignatureTimestamp: res.SignatureTimestamp,
		Refreshed:          res.Refreshed,
		DASHManifestURL:    res.DASHManifestURL,
		HLSManifestURL:     res.HLSManifestURL,
		ElapsedMS:          res.Elapsed.Milliseconds(),
		Streams:            make([]StreamView, 0, len(streams)),
	}
	for i, s := range streams {
		var size *client.SizeResult
		if i < len(sizes) {
			size = &sizes[i]
		}
		v.Streams = append(v.Streams, NewStreamView(s, size))
	}
	for i := range res.Failures {
		f := &res.Failures[i]
		v.Failures = append(v.Failures, FailureView{
			Index:    f.Index,
			Itag:     f.Itag,
			Category: string(client.ClassifyError(f)),
			Error:    f.Err.Error(),
		})
	}
	return v
}
