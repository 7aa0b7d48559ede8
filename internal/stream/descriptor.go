package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/famomatic/ytresolve/internal/formats"
	"github.com/famomatic/ytresolve/internal/itags"
	"github.com/famomatic/ytresolve/internal/transport"
)

// Prober learns the byte size of a stream URL.
type Prober interface {
	ContentLength(ctx context.Context, rawURL string) (int64, error)
	SegmentedLength(ctx context.Context, rawURL string) (int64, error)
}

// Descriptor is a resolved format record joined with its static profile.
// Only the probed file size changes after construction.
type Descriptor struct {
	rec     formats.Record
	profile itags.Profile
	query   url.Values
	owner   *Query
	prober  Prober

	mu    sync.Mutex
	size  int64
	sized bool
}

func NewDescriptor(rec formats.Record, profile itags.Profile, prober Prober) *Descriptor {
	d := &Descriptor{rec: rec, profile: profile, prober: prober}
	d.rec.Codecs = append([]string(nil), rec.Codecs...)
	if u, err := url.Parse(rec.URL); err == nil {
		d.query = u.Query()
	} else {
		d.query = url.Values{}
	}
	return d
}

// Owner returns the collection the descriptor was created into.
func (d *Descriptor) Owner() *Query { return d.owner }

// Record returns a copy of the underlying record.
func (d *Descriptor) Record() formats.Record {
	rec := d.rec
	rec.Codecs = append([]string(nil), d.rec.Codecs...)
	return rec
}

func (d *Descriptor) Profile() itags.Profile { return d.profile }

func (d *Descriptor) Index() int           { return d.rec.Index }
func (d *Descriptor) Itag() int            { return d.rec.Itag }
func (d *Descriptor) URL() string          { return d.rec.URL }
func (d *Descriptor) MimeType() string     { return d.rec.MimeType }
func (d *Descriptor) Type() string         { return d.rec.Type }
func (d *Descriptor) Subtype() string      { return d.rec.Subtype }
func (d *Descriptor) Codecs() []string     { return append([]string(nil), d.rec.Codecs...) }
func (d *Descriptor) Bitrate() int         { return d.rec.Bitrate }
func (d *Descriptor) Width() int           { return d.rec.Width }
func (d *Descriptor) Height() int          { return d.rec.Height }
func (d *Descriptor) QualityLabel() string { return d.rec.QualityLabel }
func (d *Descriptor) AudioSampleRate() int { return d.rec.AudioSampleRate }
func (d *Descriptor) AudioChannels() int   { return d.rec.AudioChannels }
func (d *Descriptor) IsOTF() bool          { return d.rec.IsOTF }
func (d *Descriptor) IsDASH() bool         { return d.profile.IsDASH }
func (d *Descriptor) Is3D() bool           { return d.profile.Is3D }

func (d *Descriptor) IsLive() bool {
	return d.rec.IsLive || d.profile.IsLive
}

func (d *Descriptor) IsHDR() bool {
	if d.profile.IsHDR {
		return true
	}
	if c := d.rec.Color; c != nil {
		switch c.TransferCharacteristics {
		case "COLOR_TRANSFER_CHARACTERISTICS_SMPTEST2084", "COLOR_TRANSFER_CHARACTERISTICS_ARIB_STD_B67":
			return true
		}
	}
	return false
}

// AudioTrack returns the record's audio track, or nil.
func (d *Descriptor) AudioTrack() *formats.AudioTrack {
	if d.rec.AudioTrack == nil {
		return nil
	}
	t := *d.rec.AudioTrack
	return &t
}

// IsAdaptive reports whether the stream carries a single track. Muxed
// streams list one codec per track.
func (d *Descriptor) IsAdaptive() bool {
	return len(d.rec.Codecs)%2 == 1
}

func (d *Descriptor) IsProgressive() bool {
	return !d.IsAdaptive()
}

func (d *Descriptor) IncludesAudio() bool {
	return d.IsProgressive() || d.rec.Type == "audio"
}

func (d *Descriptor) IncludesVideo() bool {
	return d.IsProgressive() || d.rec.Type == "video"
}

func (d *Descriptor) OnlyAudio() bool {
	return d.IncludesAudio() && !d.IncludesVideo()
}

func (d *Descriptor) OnlyVideo() bool {
	return d.IncludesVideo() && !d.IncludesAudio()
}

func (d *Descriptor) VideoCodec() string {
	video, _ := d.splitCodecs()
	return video
}

func (d *Descriptor) AudioCodec() string {
	_, audio := d.splitCodecs()
	return audio
}

func (d *Descriptor) splitCodecs() (video, audio string) {
	codecs := d.rec.Codecs
	switch {
	case !d.IsAdaptive():
		if len(codecs) >= 2 {
			return codecs[0], codecs[1]
		}
	case d.rec.Type == "video":
		return codecs[0], ""
	case d.rec.Type == "audio":
		return "", codecs[0]
	}
	return "", ""
}

// Resolution is the profile resolution, else derived from the height.
func (d *Descriptor) Resolution() string {
	if !d.IncludesVideo() {
		return ""
	}
	if d.profile.Resolution != "" {
		return d.profile.Resolution
	}
	if d.rec.Height > 0 {
		return strconv.Itoa(d.rec.Height) + "p"
	}
	return ""
}

func (d *Descriptor) FPS() int {
	if d.rec.FPS > 0 {
		return d.rec.FPS
	}
	return d.profile.FPS
}

// ABR is the nominal audio bitrate label such as "128kbps".
func (d *Descriptor) ABR() string {
	if !d.IncludesAudio() {
		return ""
	}
	if d.profile.ABR != "" {
		return d.profile.ABR
	}
	if d.OnlyAudio() && d.rec.Bitrate > 0 {
		return strconv.Itoa(d.rec.Bitrate/1000) + "kbps"
	}
	return ""
}

// FilesizeApprox estimates the size from duration and bitrate. It is 0 when
// either is unknown.
func (d *Descriptor) FilesizeApprox() int64 {
	if d.rec.ApproxDurationMs <= 0 || d.rec.Bitrate <= 0 {
		return 0
	}
	return d.rec.ApproxDurationMs * int64(d.rec.Bitrate) / 8000
}

// Expiration is the URL expiry time, zero when absent.
func (d *Descriptor) Expiration() time.Time {
	n, err := strconv.ParseInt(d.query.Get("expire"), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

func (d *Descriptor) IP() string     { return d.query.Get("ip") }
func (d *Descriptor) Source() string { return d.query.Get("source") }
func (d *Descriptor) LMT() string    { return d.query.Get("lmt") }

func (d *Descriptor) RequireSSL() bool { return d.query.Get("requiressl") == "yes" }
func (d *Descriptor) KeepAlive() bool  { return d.query.Get("keepalive") == "yes" }
func (d *Descriptor) RateBypass() bool { return d.query.Get("ratebypass") == "yes" }

// URLDuration is the "dur" URL parameter in seconds.
func (d *Descriptor) URLDuration() float64 {
	f, err := strconv.ParseFloat(d.query.Get("dur"), 64)
	if err != nil {
		return 0
	}
	return f
}

// AITags lists the itags announced by the URL "aitags" parameter.
func (d *Descriptor) AITags() []int {
	raw := d.query.Get("aitags")
	if raw == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Filesize returns the byte size of the stream. A declared length is used
// as is; otherwise the URL is probed with HEAD, falling back to summing
// segment sizes when HEAD is rejected or carries no length. Only a
// successful probe is remembered.
func (d *Descriptor) Filesize(ctx context.Context) (int64, error) {
	if d.IsLive() {
		return 0, &DownloadingLiveNotSupportedError{Itag: d.rec.Itag}
	}
	if d.rec.ContentLength > 0 {
		return d.rec.ContentLength, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sized {
		return d.size, nil
	}
	if d.prober == nil {
		return 0, ErrNoProber
	}
	n, err := d.prober.ContentLength(ctx, d.rec.URL)
	if errors.Is(err, transport.ErrRejected) || errors.Is(err, transport.ErrUnknownLength) {
		n, err = d.prober.SegmentedLength(ctx, d.rec.URL)
	}
	if err != nil {
		return 0, fmt.Errorf("probe size of itag %d: %w", d.rec.Itag, err)
	}
	d.size, d.sized = n, true
	return n, nil
}

func (d *Descriptor) String() string {
	parts := []string{fmt.Sprintf("itag=%q", strconv.Itoa(d.rec.Itag)), fmt.Sprintf("mime_type=%q", d.rec.MimeType)}
	if d.IncludesVideo() {
		parts = append(parts, fmt.Sprintf("res=%q", d.Resolution()), fmt.Sprintf("fps=\"%dfps\"", d.FPS()))
		if d.IsAdaptive() {
			parts = append(parts, fmt.Sprintf("vcodec=%q", d.VideoCodec()))
		} else {
			parts = append(parts, fmt.Sprintf("vcodec=%q", d.VideoCodec()), fmt.Sprintf("acodec=%q", d.AudioCodec()))
		}
	} else {
		parts = append(parts, fmt.Sprintf("abr=%q", d.ABR()), fmt.Sprintf("acodec=%q", d.AudioCodec()))
	}
	parts = append(parts, fmt.Sprintf("progressive=%q", strconv.FormatBool(d.IsProgressive())), fmt.Sprintf("type=%q", d.rec.Type))
	return "<Stream: " + strings.Join(parts, " ") + ">"
}
