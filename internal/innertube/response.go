package innertube

// PlayerResponse is the top-level response from the /player endpoint.
type PlayerResponse struct {
	PlayabilityStatus PlayabilityStatus `json:"playabilityStatus"`
	StreamingData     *StreamingData    `json:"streamingData"`
	VideoDetails      VideoDetails      `json:"videoDetails"`
}

type PlayabilityStatus struct {
	Status            string             `json:"status"`
	Reason            string             `json:"reason"`
	PlayableInEmbed   bool               `json:"playableInEmbed"`
	LiveStreamability *LiveStreamability `json:"liveStreamability"`
}

func (p *PlayabilityStatus) IsOK() bool {
	return p.Status == "OK"
}

func (p *PlayabilityStatus) IsLive() bool {
	return p.LiveStreamability != nil
}

type LiveStreamability struct {
	LiveStreamabilityRenderer LiveStreamabilityRenderer `json:"liveStreamabilityRenderer"`
}

type LiveStreamabilityRenderer struct {
	VideoId     string `json:"videoId"`
	PollDelayMs string `json:"pollDelayMs"`
}

// StreamingData holds both format arrays. A nil slice means the field was
// absent (or null) in the response; an empty slice means it was present.
type StreamingData struct {
	ExpiresInSeconds string   `json:"expiresInSeconds"`
	Formats          []Format `json:"formats"`
	AdaptiveFormats  []Format `json:"adaptiveFormats"`
	DashManifestURL  string   `json:"dashManifestUrl"`
	HlsManifestURL   string   `json:"hlsManifestUrl"`
}

type Format struct {
	Itag              int         `json:"itag"`
	URL               string      `json:"url"`
	MimeType          string      `json:"mimeType"`
	Bitrate           int         `json:"bitrate"`
	Width             int         `json:"width"`
	Height            int         `json:"height"`
	FPS               int         `json:"fps"`
	InitRange         *Range      `json:"initRange"`
	IndexRange        *Range      `json:"indexRange"`
	LastModified      string      `json:"lastModified"`
	ContentLength     string      `json:"contentLength"`
	Quality           string      `json:"quality"`
	QualityLabel      string      `json:"qualityLabel"`
	ProjectionType    string      `json:"projectionType"`
	AverageBitrate    int         `json:"averageBitrate"`
	AudioQuality      string      `json:"audioQuality"`
	ApproxDurationMs  string      `json:"approxDurationMs"`
	AudioSampleRate   string      `json:"audioSampleRate"`
	AudioChannels     int         `json:"audioChannels"`
	LoudnessDb        float64     `json:"loudnessDb"`
	Type              string      `json:"type"`
	TargetDurationSec float64     `json:"targetDurationSec"`
	ColorInfo         *ColorInfo  `json:"colorInfo"`
	AudioTrack        *AudioTrack `json:"audioTrack"`
	SignatureCipher   string      `json:"signatureCipher"`
	Cipher            string      `json:"cipher"` // Legacy
}

type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ColorInfo struct {
	Primaries               string `json:"primaries"`
	TransferCharacteristics string `json:"transferCharacteristics"`
	MatrixCoefficients      string `json:"matrixCoefficients"`
}

type AudioTrack struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	AudioIsDefault bool   `json:"audioIsDefault"`
}

type VideoDetails struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	LengthSeconds string `json:"lengthSeconds"`
	Author        string `json:"author"`
	IsLiveContent bool   `json:"isLiveContent"`
	IsLive        bool   `json:"isLive"`
}
