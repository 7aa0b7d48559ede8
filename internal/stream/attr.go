package stream

import "fmt"

// Attr names a descriptor attribute usable with OrderBy.
type Attr string

const (
	AttrItag            Attr = "itag"
	AttrResolution      Attr = "resolution"
	AttrFPS             Attr = "fps"
	AttrABR             Attr = "abr"
	AttrBitrate         Attr = "bitrate"
	AttrWidth           Attr = "width"
	AttrHeight          Attr = "height"
	AttrMimeType        Attr = "mime_type"
	AttrType            Attr = "type"
	AttrSubtype         Attr = "subtype"
	AttrVideoCodec      Attr = "video_codec"
	AttrAudioCodec      Attr = "audio_codec"
	AttrAudioSampleRate Attr = "audio_sample_rate"
	AttrFilesizeApprox  Attr = "filesize_approx"
	AttrQualityLabel    Attr = "quality_label"
)

var attrs = map[Attr]func(*Descriptor) attrValue{
	AttrItag:            func(d *Descriptor) attrValue { return numAttr(int64(d.Itag())) },
	AttrResolution:      func(d *Descriptor) attrValue { return strAttr(d.Resolution()) },
	AttrFPS:             func(d *Descriptor) attrValue { return numAttr(int64(d.FPS())) },
	AttrABR:             func(d *Descriptor) attrValue { return strAttr(d.ABR()) },
	AttrBitrate:         func(d *Descriptor) attrValue { return numAttr(int64(d.Bitrate())) },
	AttrWidth:           func(d *Descriptor) attrValue { return numAttr(int64(d.Width())) },
	AttrHeight:          func(d *Descriptor) attrValue { return numAttr(int64(d.Height())) },
	AttrMimeType:        func(d *Descriptor) attrValue { return strAttr(d.MimeType()) },
	AttrType:            func(d *Descriptor) attrValue { return strAttr(d.Type()) },
	AttrSubtype:         func(d *Descriptor) attrValue { return strAttr(d.Subtype()) },
	AttrVideoCodec:      func(d *Descriptor) attrValue { return strAttr(d.VideoCodec()) },
	AttrAudioCodec:      func(d *Descriptor) attrValue { return strAttr(d.AudioCodec()) },
	AttrAudioSampleRate: func(d *Descriptor) attrValue { return numAttr(int64(d.AudioSampleRate())) },
	AttrFilesizeApprox:  func(d *Descriptor) attrValue { return numAttr(d.FilesizeApprox()) },
	AttrQualityLabel:    func(d *Descriptor) attrValue { return strAttr(d.QualityLabel()) },
}

// ParseAttr validates an attribute name.
func ParseAttr(name string) (Attr, error) {
	a := Attr(name)
	if _, ok := attrs[a]; !ok {
		return "", fmt.Errorf("unknown stream attribute %q", name)
	}
	return a, nil
}

type attrValue struct {
	isString bool
	str      string
	num      int64
}

func strAttr(s string) attrValue { return attrValue{isString: true, str: s} }
func numAttr(n int64) attrValue  { return attrValue{num: n} }

// value reports the attribute of d. Zero values count as absent.
func (a Attr) value(d *Descriptor) (attrValue, bool) {
	get, ok := attrs[a]
	if !ok {
		return attrValue{}, false
	}
	v := get(d)
	if v.isString {
		return v, v.str != ""
	}
	return v, v.num != 0
}
