package stream

import "strings"

// Predicate selects descriptors in Query.Filter.
type Predicate func(*Descriptor) bool

// Custom wraps an arbitrary function as a Predicate.
func Custom(fn func(*Descriptor) bool) Predicate { return fn }

func ByResolution(res string) Predicate {
	return func(d *Descriptor) bool { return d.Resolution() == res }
}

func ByFPS(fps int) Predicate {
	return func(d *Descriptor) bool { return d.FPS() == fps }
}

func ByMimeType(mimeType string) Predicate {
	return func(d *Descriptor) bool { return strings.EqualFold(d.MimeType(), mimeType) }
}

func ByType(typ string) Predicate {
	return func(d *Descriptor) bool { return d.Type() == typ }
}

func BySubtype(subtype string) Predicate {
	return func(d *Descriptor) bool { return d.Subtype() == subtype }
}

func ByABR(abr string) Predicate {
	return func(d *Descriptor) bool { return d.ABR() == abr }
}

// ByVideoCodec matches codecs by prefix, so "avc1" matches "avc1.4d401e".
func ByVideoCodec(codec string) Predicate {
	return func(d *Descriptor) bool {
		vc := d.VideoCodec()
		return vc != "" && strings.HasPrefix(vc, codec)
	}
}

func ByAudioCodec(codec string) Predicate {
	return func(d *Descriptor) bool {
		ac := d.AudioCodec()
		return ac != "" && strings.HasPrefix(ac, codec)
	}
}

func OnlyAudio() Predicate     { return (*Descriptor).OnlyAudio }
func OnlyVideo() Predicate     { return (*Descriptor).OnlyVideo }
func IncludesAudio() Predicate { return (*Descriptor).IncludesAudio }
func IncludesVideo() Predicate { return (*Descriptor).IncludesVideo }
func Progressive() Predicate   { return (*Descriptor).IsProgressive }
func Adaptive() Predicate      { return (*Descriptor).IsAdaptive }
func DASH() Predicate          { return (*Descriptor).IsDASH }
func HDR() Predicate           { return (*Descriptor).IsHDR }
func ThreeD() Predicate        { return (*Descriptor).Is3D }
func OTF() Predicate           { return (*Descriptor).IsOTF }

func HasAudioTrack() Predicate {
	return func(d *Descriptor) bool { return d.rec.AudioTrack != nil }
}

func ByAudioTrackID(id string) Predicate {
	return func(d *Descriptor) bool { return d.rec.AudioTrack != nil && d.rec.AudioTrack.ID == id }
}

// ByAudioTrackName matches the display name case-insensitively.
func ByAudioTrackName(name string) Predicate {
	return func(d *Descriptor) bool {
		return d.rec.AudioTrack != nil && strings.EqualFold(d.rec.AudioTrack.DisplayName, name)
	}
}

// MaxFilesizeApprox keeps streams whose estimated size is known and at most
// limit bytes.
func MaxFilesizeApprox(limit int64) Predicate {
	return func(d *Descriptor) bool {
		n := d.FilesizeApprox()
		return n > 0 && n <= limit
	}
}
