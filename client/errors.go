package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/famomatic/ytresolve/internal/formats"
	"github.com/famomatic/ytresolve/internal/playerjs"
	"github.com/famomatic/ytresolve/internal/stream"
	"github.com/famomatic/ytresolve/internal/transport"
)

var (
	// ErrInvalidInput indicates malformed input (not a video ID/url, or an
	// undecodable player response).
	ErrInvalidInput = errors.New("invalid input")
	// ErrPlayerURLRequired indicates ciphered formats but no way to locate
	// the player asset.
	ErrPlayerURLRequired = errors.New("player url required")
	// ErrManifestShape indicates the streaming data schema changed.
	ErrManifestShape = formats.ErrManifestShape
	// ErrProgramNotFound indicates the player asset no longer matches the
	// known discovery patterns.
	ErrProgramNotFound = playerjs.ErrProgramNotFound
	// ErrUnsupportedOperation indicates a transform step the replay engine
	// does not model.
	ErrUnsupportedOperation = playerjs.ErrUnsupportedOperation
	// ErrReplayIndex indicates a program and input that do not fit together,
	// usually a stale asset.
	ErrReplayIndex = playerjs.ErrReplayIndex
	// ErrPlayerURLNotFound indicates a watch page without a player asset URL.
	ErrPlayerURLNotFound = playerjs.ErrPlayerURLNotFound
	// ErrDownloadingLiveNotSupported indicates a size request on a live stream.
	ErrDownloadingLiveNotSupported = stream.ErrDownloadingLiveNotSupported
)

type (
	ManifestShapeError               = formats.ManifestShapeError
	ProgramNotFoundError             = playerjs.ProgramNotFoundError
	UnsupportedOperationError        = playerjs.UnsupportedOperationError
	ReplayIndexError                 = playerjs.ReplayIndexError
	DownloadingLiveNotSupportedError = stream.DownloadingLiveNotSupportedError
)

// InvalidInputDetailError explains why an input was rejected.
type InvalidInputDetailError struct {
	Input  string
	Reason string
}

func (e *InvalidInputDetailError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

func (e *InvalidInputDetailError) Unwrap() error {
	return ErrInvalidInput
}

// RecordError reports a format record left out of a result.
type RecordError struct {
	Index int
	Itag  int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("format #%d itag=%d: %v", e.Index, e.Itag, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

type ErrorCategory string

const (
	ErrorCategoryNone                        ErrorCategory = ""
	ErrorCategoryInvalidInput                ErrorCategory = "invalid_input"
	ErrorCategoryManifestShape               ErrorCategory = "manifest_shape"
	ErrorCategoryProgramNotFound             ErrorCategory = "program_not_found"
	ErrorCategoryUnsupportedOperation        ErrorCategory = "unsupported_operation"
	ErrorCategoryReplayIndex                 ErrorCategory = "replay_index"
	ErrorCategoryPlayerURL                   ErrorCategory = "player_url"
	ErrorCategoryDownloadingLiveNotSupported ErrorCategory = "live_not_supported"
	ErrorCategoryMalformedRecord             ErrorCategory = "malformed_record"
	ErrorCategoryNetwork                     ErrorCategory = "network"
	ErrorCategoryCanceled                    ErrorCategory = "canceled"
	ErrorCategoryUnknown                     ErrorCategory = "unknown"
)

// ClassifyError maps an error returned by this package to a stable category.
func ClassifyError(err error) ErrorCategory {
	var statusErr *transport.StatusError
	switch {
	case err == nil:
		return ErrorCategoryNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryCanceled
	case errors.Is(err, ErrInvalidInput):
		return ErrorCategoryInvalidInput
	case errors.Is(err, ErrManifestShape):
		return ErrorCategoryManifestShape
	case errors.Is(err, ErrProgramNotFound):
		return ErrorCategoryProgramNotFound
	case errors.Is(err, ErrUnsupportedOperation):
		return ErrorCategoryUnsupportedOperation
	case errors.Is(err, ErrReplayIndex):
		return ErrorCategoryReplayIndex
	case errors.Is(err, ErrPlayerURLNotFound), errors.Is(err, ErrPlayerURLRequired):
		return ErrorCategoryPlayerURL
	case errors.Is(err, ErrDownloadingLiveNotSupported):
		return ErrorCategoryDownloadingLiveNotSupported
	case errors.Is(err, formats.ErrMissingURL), errors.Is(err, formats.ErrMalformedCipher):
		return ErrorCategoryMalformedRecord
	case errors.As(err, &statusErr), errors.Is(err, transport.ErrSegmentCountNotFound), errors.Is(err, transport.ErrUnknownLength):
		return ErrorCategoryNetwork
	}
	return ErrorCategoryUnknown
}
