package itags

import (
	"strconv"
	"strings"
)

// Profile is the static description of a format identifier.
type Profile struct {
	Itag       int
	Container  string
	VideoCodec string
	AudioCodec string
	Resolution string
	ABR        string
	FPS        int
	IsDASH     bool
	IsLive     bool
	Is3D       bool
	IsHDR      bool
	Known      bool
}

// Height returns the numeric part of Resolution, or 0.
func (p Profile) Height() int {
	n, err := strconv.Atoi(strings.TrimSuffix(p.Resolution, "p"))
	if err != nil {
		return 0
	}
	return n
}

// HasVideo reports whether the profile describes a stream carrying video.
func (p Profile) HasVideo() bool {
	return p.Resolution != ""
}

// HasAudio reports whether the profile describes a stream carrying audio.
func (p Profile) HasAudio() bool {
	return p.ABR != "" || p.AudioCodec != ""
}

type entry struct {
	container string
	vcodec    string
	acodec    string
	res       string
	abr       string
}

var progressive = map[int]entry{
	5:   {"flv", "h263", "mp3", "240p", "64kbps"},
	6:   {"flv", "h263", "mp3", "270p", "64kbps"},
	13:  {"3gp", "mp4v", "aac", "144p", ""},
	17:  {"3gp", "mp4v", "aac", "144p", "24kbps"},
	18:  {"mp4", "h264", "aac", "360p", "96kbps"},
	22:  {"mp4", "h264", "aac", "720p", "192kbps"},
	34:  {"flv", "h264", "aac", "360p", "128kbps"},
	35:  {"flv", "h264", "aac", "480p", "128kbps"},
	36:  {"3gp", "mp4v", "aac", "240p", ""},
	37:  {"mp4", "h264", "aac", "1080p", "192kbps"},
	38:  {"mp4", "h264", "aac", "3072p", "192kbps"},
	43:  {"webm", "vp8", "vorbis", "360p", "128kbps"},
	44:  {"webm", "vp8", "vorbis", "480p", "128kbps"},
	45:  {"webm", "vp8", "vorbis", "720p", "192kbps"},
	46:  {"webm", "vp8", "vorbis", "1080p", "192kbps"},
	59:  {"mp4", "h264", "aac", "480p", "128kbps"},
	78:  {"mp4", "h264", "aac", "480p", "128kbps"},
	82:  {"mp4", "h264", "aac", "360p", "128kbps"},
	83:  {"mp4", "h264", "aac", "480p", "128kbps"},
	84:  {"mp4", "h264", "aac", "720p", "192kbps"},
	85:  {"mp4", "h264", "aac", "1080p", "192kbps"},
	91:  {"ts", "h264", "aac", "144p", "48kbps"},
	92:  {"ts", "h264", "aac", "240p", "48kbps"},
	93:  {"ts", "h264", "aac", "360p", "128kbps"},
	94:  {"ts", "h264", "aac", "480p", "128kbps"},
	95:  {"ts", "h264", "aac", "720p", "256kbps"},
	96:  {"ts", "h264", "aac", "1080p", "256kbps"},
	100: {"webm", "vp8", "vorbis", "360p", "128kbps"},
	101: {"webm", "vp8", "vorbis", "480p", "192kbps"},
	102: {"webm", "vp8", "vorbis", "720p", "192kbps"},
	132: {"ts", "h264", "aac", "240p", "48kbps"},
	151: {"ts", "h264", "aac", "720p", "24kbps"},
	300: {"ts", "h264", "aac", "720p", "128kbps"},
	301: {"ts", "h264", "aac", "1080p", "128kbps"},
}

var dashVideo = map[int]entry{
	133: {"mp4", "h264", "", "240p", ""},
	134: {"mp4", "h264", "", "360p", ""},
	135: {"mp4", "h264", "", "480p", ""},
	136: {"mp4", "h264", "", "720p", ""},
	137: {"mp4", "h264", "", "1080p", ""},
	138: {"mp4", "h264", "", "2160p", ""},
	160: {"mp4", "h264", "", "144p", ""},
	167: {"webm", "vp8", "", "360p", ""},
	168: {"webm", "vp8", "", "480p", ""},
	169: {"webm", "vp8", "", "720p", ""},
	170: {"webm", "vp8", "", "1080p", ""},
	212: {"mp4", "h264", "", "480p", ""},
	218: {"webm", "vp8", "", "480p", ""},
	219: {"webm", "vp8", "", "480p", ""},
	242: {"webm", "vp9", "", "240p", ""},
	243: {"webm", "vp9", "", "360p", ""},
	244: {"webm", "vp9", "", "480p", ""},
	245: {"webm", "vp9", "", "480p", ""},
	246: {"webm", "vp9", "", "480p", ""},
	247: {"webm", "vp9", "", "720p", ""},
	248: {"webm", "vp9", "", "1080p", ""},
	264: {"mp4", "h264", "", "1440p", ""},
	266: {"mp4", "h264", "", "2160p", ""},
	271: {"webm", "vp9", "", "1440p", ""},
	272: {"webm", "vp9", "", "4320p", ""},
	278: {"webm", "vp9", "", "144p", ""},
	298: {"mp4", "h264", "", "720p", ""},
	299: {"mp4", "h264", "", "1080p", ""},
	302: {"webm", "vp9", "", "720p", ""},
	303: {"webm", "vp9", "", "1080p", ""},
	308: {"webm", "vp9", "", "1440p", ""},
	313: {"webm", "vp9", "", "2160p", ""},
	315: {"webm", "vp9", "", "2160p", ""},
	330: {"webm", "vp9.2", "", "144p", ""},
	331: {"webm", "vp9.2", "", "240p", ""},
	332: {"webm", "vp9.2", "", "360p", ""},
	333: {"webm", "vp9.2", "", "480p", ""},
	334: {"webm", "vp9.2", "", "720p", ""},
	335: {"webm", "vp9.2", "", "1080p", ""},
	336: {"webm", "vp9.2", "", "1440p", ""},
	337: {"webm", "vp9.2", "", "2160p", ""},
	394: {"mp4", "av01", "", "144p", ""},
	395: {"mp4", "av01", "", "240p", ""},
	396: {"mp4", "av01", "", "360p", ""},
	397: {"mp4", "av01", "", "480p", ""},
	398: {"mp4", "av01", "", "720p", ""},
	399: {"mp4", "av01", "", "1080p", ""},
	400: {"mp4", "av01", "", "1440p", ""},
	401: {"mp4", "av01", "", "2160p", ""},
	402: {"mp4", "av01", "", "4320p", ""},
	571: {"mp4", "av01", "", "4320p", ""},
	694: {"mp4", "av01", "", "144p", ""},
	695: {"mp4", "av01", "", "240p", ""},
	696: {"mp4", "av01", "", "360p", ""},
	697: {"mp4", "av01", "", "480p", ""},
	698: {"mp4", "av01", "", "720p", ""},
	699: {"mp4", "av01", "", "1080p", ""},
	700: {"mp4", "av01", "", "1440p", ""},
	701: {"mp4", "av01", "", "2160p", ""},
	702: {"mp4", "av01", "", "4320p", ""},
}

var dashAudio = map[int]entry{
	139: {"m4a", "", "aac", "", "48kbps"},
	140: {"m4a", "", "aac", "", "128kbps"},
	141: {"m4a", "", "aac", "", "256kbps"},
	171: {"webm", "", "vorbis", "", "128kbps"},
	172: {"webm", "", "vorbis", "", "256kbps"},
	249: {"webm", "", "opus", "", "50kbps"},
	250: {"webm", "", "opus", "", "70kbps"},
	251: {"webm", "", "opus", "", "160kbps"},
	256: {"m4a", "", "aac", "", "192kbps"},
	258: {"m4a", "", "aac", "", "384kbps"},
	325: {"m4a", "", "dtse", "", ""},
	328: {"m4a", "", "ec-3", "", ""},
}

var (
	fps60  = setOf(298, 299, 300, 301, 302, 303, 308, 315, 694, 695, 696, 697, 698, 699, 700, 701, 702)
	threeD = setOf(82, 83, 84, 85, 100, 101, 102)
	live   = setOf(91, 92, 93, 94, 95, 96, 132, 151, 300, 301)
	hdr    = setOf(330, 331, 332, 333, 334, 335, 336, 337)
)

func setOf(ids ...int) map[int]struct{} {
	out := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// Lookup returns the profile for itag. Unknown identifiers yield a profile
// with every field zero except Itag; it never fails.
func Lookup(itag int) Profile {
	p := Profile{Itag: itag}
	var (
		e  entry
		ok bool
	)
	if e, ok = progressive[itag]; !ok {
		if e, ok = dashVideo[itag]; ok {
			p.IsDASH = true
		} else if e, ok = dashAudio[itag]; ok {
			p.IsDASH = true
		}
	}
	if !ok {
		return p
	}
	p.Known = true
	p.Container = e.container
	p.VideoCodec = e.vcodec
	p.AudioCodec = e.acodec
	p.Resolution = e.res
	p.ABR = e.abr
	if p.Resolution != "" {
		p.FPS = 30
		if _, hi := fps60[itag]; hi {
			p.FPS = 60
		}
	}
	_, p.Is3D = threeD[itag]
	_, p.IsLive = live[itag]
	_, p.IsHDR = hdr[itag]
	return p
}

// Known reports whether itag has a registry entry.
func Known(itag int) bool {
	return Lookup(itag).Known
}
