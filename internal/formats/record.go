package formats

import (
	"net/url"
	"strings"
)

const (
	otfStreamType         = "FORMAT_STREAM_TYPE_OTF"
	defaultSignatureParam = "signature"
	throttleParam         = "n"
)

// CipherInput is the signature material split out of a packed cipher string.
type CipherInput struct {
	URL            string
	Signature      string
	SignatureParam string
	N              string
}

type ColorInfo struct {
	Primaries               string
	TransferCharacteristics string
	MatrixCoefficients      string
}

type AudioTrack struct {
	ID          string
	DisplayName string
	IsDefault   bool
}

// Record is one normalized entry of the format list.
type Record struct {
	Index            int
	Itag             int
	MimeType         string
	Codecs           []string
	Type             string
	Subtype          string
	Bitrate          int
	AverageBitrate   int
	ContentLength    int64
	Width            int
	Height           int
	FPS              int
	Quality          string
	QualityLabel     string
	ProjectionType   string
	AudioQuality     string
	AudioSampleRate  int
	AudioChannels    int
	LoudnessDB       float64
	ApproxDurationMs int64
	LastModified     string
	Color            *ColorInfo
	AudioTrack       *AudioTrack

	// URL is the direct URL, or the resolved URL once signature and
	// throttling values have been applied.
	URL    string
	Cipher *CipherInput

	Progressive bool
	IsOTF       bool
	IsLive      bool

	// Err is set when the record could not be normalized.
	Err error
}

// NeedsSignature reports whether a ciphered signature must be recomputed.
func (r *Record) NeedsSignature() bool {
	return r.Cipher != nil && r.Cipher.Signature != ""
}

// ThrottleValue returns the raw "n" value carried by the record, if any.
func (r *Record) ThrottleValue() string {
	if r.Cipher != nil {
		return r.Cipher.N
	}
	return queryValue(r.URL, throttleParam)
}

// IsPresigned reports whether a direct URL already carries a signature.
func IsPresigned(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	q := u.Query()
	return q.Has("signature") || q.Has("sig") || q.Has("lsig")
}

// Resolve writes the computed signature and throttling value into the
// record URL. Empty arguments leave the corresponding parameter untouched.
func (r *Record) Resolve(signature, n string) error {
	base := r.URL
	param := ""
	if r.Cipher != nil {
		base = r.Cipher.URL
		param = r.Cipher.SignatureParam
	}
	u, err := url.Parse(base)
	if err != nil {
		return err
	}
	q := u.Query()
	if signature != "" && param != "" {
		q.Set(param, signature)
	}
	if n != "" && q.Get(throttleParam) != "" {
		q.Set(throttleParam, n)
	}
	u.RawQuery = q.Encode()
	r.URL = u.String()
	r.Cipher = nil
	return nil
}

func queryValue(rawURL, key string) string {
	if strings.TrimSpace(rawURL) == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
