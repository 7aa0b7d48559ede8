package innertube

import (
	"errors"
	"testing"
)

func TestDecodePlayerResponse(t *testing.T) {
	resp, err := DecodePlayerResponse([]byte(`{
		"playabilityStatus": {"status": "OK", "liveStreamability": {"liveStreamabilityRenderer": {"videoId": "x"}}},
		"videoDetails": {"videoId": "jNQXAC9IVRw", "isLive": true},
		"streamingData": {"formats": [{"itag": 18, "url": "https://media.example/18"}], "hlsManifestUrl": "https://m.example/hls"}
	}`))
	if err != nil {
		t.Fatalf("DecodePlayerResponse() error = %v", err)
	}
	if !resp.PlayabilityStatus.IsOK() || !resp.PlayabilityStatus.IsLive() || !resp.VideoDetails.IsLive {
		t.Fatalf("status = %+v details = %+v", resp.PlayabilityStatus, resp.VideoDetails)
	}
	if resp.StreamingData == nil || len(resp.StreamingData.Formats) != 1 || resp.StreamingData.AdaptiveFormats != nil {
		t.Fatalf("streamingData = %+v", resp.StreamingData)
	}
	if resp.StreamingData.HlsManifestURL != "https://m.example/hls" {
		t.Fatalf("HlsManifestURL = %q", resp.StreamingData.HlsManifestURL)
	}
}

func TestDecodePlayerResponse_BareStreamingData(t *testing.T) {
	resp, err := DecodePlayerResponse([]byte(`{"adaptiveFormats": [{"itag": 140}]}`))
	if err != nil {
		t.Fatalf("DecodePlayerResponse() error = %v", err)
	}
	if resp.StreamingData == nil || len(resp.StreamingData.AdaptiveFormats) != 1 || resp.StreamingData.AdaptiveFormats[0].Itag != 140 {
		t.Fatalf("streamingData = %+v", resp.StreamingData)
	}
}

func TestDecodePlayerResponse_Errors(t *testing.T) {
	if _, err := DecodePlayerResponse([]byte("  ")); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("empty body error = %v", err)
	}
	if _, err := DecodePlayerResponse([]byte("[1,2]")); err == nil {
		t.Fatalf("expected an error for a non-object body")
	}
	resp, err := DecodePlayerResponse([]byte(`{"playabilityStatus": {"status": "ERROR"}}`))
	if err != nil {
		t.Fatalf("DecodePlayerResponse() error = %v", err)
	}
	if resp.StreamingData != nil {
		t.Fatalf("StreamingData = %+v, want nil", resp.StreamingData)
	}
}
