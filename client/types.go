package client

import (
	"time"

	"github.com/famomatic/ytresolve/internal/stream"
)

// Stream is one resolved, directly fetchable stream.
type Stream = stream.Descriptor

// StreamQuery is an ordered, chainable collection of streams.
type StreamQuery = stream.Query

// Predicate selects streams in StreamQuery.Filter.
type Predicate = stream.Predicate

// ResolveRequest is the input of Client.Resolve.
type ResolveRequest struct {
	// PlayerResponse is the raw player response JSON, or a bare
	// streamingData object.
	PlayerResponse []byte
	// PlayerURL locates the player asset. When empty and VideoID is set, it
	// is recovered from the watch page if any record needs replay.
	PlayerURL string
	VideoID   string
}

// Result is a resolved manifest. Streams keep the order of the player
// response: progressive formats first, then adaptive ones.
type Result struct {
	SessionID          string
	VideoID            string
	PlayerURL          string
	Streams            *StreamQuery
	Failures           []RecordError
	SignatureTimestamp int

	// DASHManifestURL and HLSManifestURL carry the resolved "n" value when
	// the response lists them.
	DASHManifestURL string
	HLSManifestURL  string

	// Refreshed is set when the asset was fetched again after a replay
	// index failure.
	Refreshed bool
	Elapsed   time.Duration
}

// SizeResult is the outcome of sizing one stream.
type SizeResult struct {
	Itag int
	Size int64
	Err  error
}
