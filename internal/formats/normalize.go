package formats

import (
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/famomatic/ytresolve/internal/innertube"
)

var (
	// ErrManifestShape indicates the streaming data no longer has the
	// expected format arrays.
	ErrManifestShape = errors.New("unexpected manifest shape")
	// ErrMissingURL indicates a record with neither a url nor a cipher.
	ErrMissingURL = errors.New("format has no url or cipher")
	// ErrMalformedCipher indicates a cipher string that could not be split.
	ErrMalformedCipher = errors.New("malformed signature cipher")
)

// ManifestShapeError describes why a streaming data object was rejected.
type ManifestShapeError struct {
	Reason string
}

func (e *ManifestShapeError) Error() string {
	return fmt.Sprintf("manifest shape: %s", e.Reason)
}

func (e *ManifestShapeError) Unwrap() error {
	return ErrManifestShape
}

// RecordError ties a normalization problem to one record.
type RecordError struct {
	Itag int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("format itag=%d: %v", e.Itag, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// NormalizeResponse normalizes the streaming data of a player response and
// marks every record live when the response describes a live broadcast.
func NormalizeResponse(resp *innertube.PlayerResponse) ([]Record, error) {
	if resp == nil {
		return nil, &ManifestShapeError{Reason: "player response is nil"}
	}
	records, err := Normalize(resp.StreamingData)
	if err != nil {
		return nil, err
	}
	if resp.PlayabilityStatus.IsLive() || resp.VideoDetails.IsLive {
		for i := range records {
			records[i].IsLive = true
		}
	}
	return records, nil
}

// Normalize merges formats and adaptiveFormats into one ordered list:
// progressive entries first, then adaptive ones, each in source order.
func Normalize(sd *innertube.StreamingData) ([]Record, error) {
	if sd == nil {
		return nil, &ManifestShapeError{Reason: "streamingData is missing"}
	}
	if sd.Formats == nil && sd.AdaptiveFormats == nil {
		return nil, &ManifestShapeError{Reason: "neither formats nor adaptiveFormats present"}
	}

	records := make([]Record, 0, len(sd.Formats)+len(sd.AdaptiveFormats))
	extract := func(raw []innertube.Format, progressive bool) {
		for _, f := range raw {
			rec := toRecord(f)
			rec.Index = len(records)
			rec.Progressive = progressive
			records = append(records, rec)
		}
	}
	extract(sd.Formats, true)
	extract(sd.AdaptiveFormats, false)
	return records, nil
}

func toRecord(f innertube.Format) Record {
	rec := Record{
		Itag:           f.Itag,
		Bitrate:        f.Bitrate,
		AverageBitrate: f.AverageBitrate,
		Width:          f.Width,
		Height:         f.Height,
		FPS:            f.FPS,
		Quality:        f.Quality,
		QualityLabel:   f.QualityLabel,
		ProjectionType: f.ProjectionType,
		AudioQuality:   f.AudioQuality,
		AudioChannels:  f.AudioChannels,
		LoudnessDB:     f.LoudnessDb,
		LastModified:   f.LastModified,
		IsOTF:          f.Type == otfStreamType,
	}
	rec.MimeType, rec.Codecs = parseMimeType(f.MimeType)
	if typ, sub, ok := strings.Cut(rec.MimeType, "/"); ok {
		rec.Type, rec.Subtype = typ, sub
	}
	rec.AudioSampleRate, _ = strconv.Atoi(strings.TrimSpace(f.AudioSampleRate))
	rec.ApproxDurationMs, _ = strconv.ParseInt(strings.TrimSpace(f.ApproxDurationMs), 10, 64)
	rec.ContentLength, _ = strconv.ParseInt(strings.TrimSpace(f.ContentLength), 10, 64)
	if f.ColorInfo != nil {
		rec.Color = &ColorInfo{
			Primaries:               f.ColorInfo.Primaries,
			TransferCharacteristics: f.ColorInfo.TransferCharacteristics,
			MatrixCoefficients:      f.ColorInfo.MatrixCoefficients,
		}
	}
	if f.AudioTrack != nil {
		rec.AudioTrack = &AudioTrack{
			ID:          f.AudioTrack.ID,
			DisplayName: f.AudioTrack.DisplayName,
			IsDefault:   f.AudioTrack.AudioIsDefault,
		}
	}

	if f.URL != "" {
		rec.URL = f.URL
		rec.IsLive = queryValue(f.URL, "live") == "1"
		return rec
	}

	packed := f.SignatureCipher
	if packed == "" {
		packed = f.Cipher
	}
	if strings.TrimSpace(packed) == "" {
		rec.Err = &RecordError{Itag: f.Itag, Err: ErrMissingURL}
		return rec
	}
	cipher, err := ParseCipher(packed)
	if err != nil {
		rec.Err = &RecordError{Itag: f.Itag, Err: err}
		return rec
	}
	rec.Cipher = cipher
	rec.IsLive = queryValue(cipher.URL, "live") == "1"
	return rec
}

// ParseCipher splits a packed signatureCipher query string.
func ParseCipher(packed string) (*CipherInput, error) {
	q, err := url.ParseQuery(packed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCipher, err)
	}
	rawURL := q.Get("url")
	if rawURL == "" {
		return nil, fmt.Errorf("%w: url component missing", ErrMalformedCipher)
	}
	param := q.Get("sp")
	if param == "" {
		param = defaultSignatureParam
	}
	return &CipherInput{
		URL:            rawURL,
		Signature:      q.Get("s"),
		SignatureParam: param,
		N:              queryValue(rawURL, throttleParam),
	}, nil
}

// parseMimeType splits `video/webm; codecs="vp8, vorbis"` into the media
// type and its codec list.
func parseMimeType(raw string) (string, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	mediaType, params, err := mime.ParseMediaType(raw)
	if err != nil {
		mediaType, _, _ = strings.Cut(raw, ";")
		return strings.ToLower(strings.TrimSpace(mediaType)), nil
	}
	var codecs []string
	for _, c := range strings.Split(params["codecs"], ",") {
		if c = strings.TrimSpace(c); c != "" {
			codecs = append(codecs, c)
		}
	}
	return mediaType, codecs
}
