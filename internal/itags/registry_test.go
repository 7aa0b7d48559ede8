package itags

import "testing"

func TestLookup_KnownProfiles(t *testing.T) {
	tests := []struct {
		itag      int
		container string
		res       string
		abr       string
		dash      bool
		live      bool
		threeD    bool
		hdr       bool
		fps       int
	}{
		{itag: 18, container: "mp4", res: "360p", abr: "96kbps", fps: 30},
		{itag: 137, container: "mp4", res: "1080p", dash: true, fps: 30},
		{itag: 140, container: "m4a", abr: "128kbps", dash: true},
		{itag: 251, container: "webm", abr: "160kbps", dash: true},
		{itag: 299, container: "mp4", res: "1080p", dash: true, fps: 60},
		{itag: 85, container: "mp4", res: "1080p", abr: "192kbps", threeD: true, fps: 30},
		{itag: 93, container: "ts", res: "360p", abr: "128kbps", live: true, fps: 30},
		{itag: 335, container: "webm", res: "1080p", dash: true, hdr: true, fps: 30},
	}
	for _, tt := range tests {
		p := Lookup(tt.itag)
		if !p.Known {
			t.Fatalf("Lookup(%d).Known = false", tt.itag)
		}
		if p.Container != tt.container || p.Resolution != tt.res || p.ABR != tt.abr {
			t.Fatalf("Lookup(%d) = %+v", tt.itag, p)
		}
		if p.IsDASH != tt.dash || p.IsLive != tt.live || p.Is3D != tt.threeD || p.IsHDR != tt.hdr {
			t.Fatalf("Lookup(%d) flags = %+v", tt.itag, p)
		}
		if p.FPS != tt.fps {
			t.Fatalf("Lookup(%d).FPS = %d, want %d", tt.itag, p.FPS, tt.fps)
		}
	}
}

func TestLookup_UnknownNeverFails(t *testing.T) {
	for _, itag := range []int{0, -1, 9999, 123456} {
		p := Lookup(itag)
		if p.Known || p.IsDASH || p.IsLive || p.Is3D || p.IsHDR {
			t.Fatalf("Lookup(%d) = %+v, want empty profile", itag, p)
		}
		if p.Itag != itag || p.Resolution != "" || p.ABR != "" || p.Container != "" {
			t.Fatalf("Lookup(%d) = %+v, want empty profile", itag, p)
		}
		if Known(itag) {
			t.Fatalf("Known(%d) = true", itag)
		}
	}
}

func TestProfileHeight(t *testing.T) {
	if got := Lookup(22).Height(); got != 720 {
		t.Fatalf("Height() = %d, want 720", got)
	}
	if got := Lookup(140).Height(); got != 0 {
		t.Fatalf("audio Height() = %d, want 0", got)
	}
	if !Lookup(18).HasAudio() || !Lookup(18).HasVideo() {
		t.Fatalf("itag 18 should carry audio and video")
	}
	if Lookup(140).HasVideo() {
		t.Fatalf("itag 140 should not carry video")
	}
}
