package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/famomatic/ytresolve/internal/formats"
	"github.com/famomatic/ytresolve/internal/playerjs"
	"github.com/famomatic/ytresolve/internal/stream"
	"github.com/famomatic/ytresolve/internal/transport"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{name: "nil", err: nil, want: ErrorCategoryNone},
		{name: "invalid input", err: &InvalidInputDetailError{Reason: "empty"}, want: ErrorCategoryInvalidInput},
		{name: "manifest shape", err: &formats.ManifestShapeError{Reason: "x"}, want: ErrorCategoryManifestShape},
		{name: "program not found", err: fmt.Errorf("load: %w", &playerjs.ProgramNotFoundError{Program: playerjs.ProgramThrottle}), want: ErrorCategoryProgramNotFound},
		{name: "unsupported", err: &playerjs.UnsupportedOperationError{Program: playerjs.ProgramSignature, Shape: "a.b()"}, want: ErrorCategoryUnsupportedOperation},
		{name: "replay index", err: &RecordError{Err: &playerjs.ReplayIndexError{Program: playerjs.ProgramSignature}}, want: ErrorCategoryReplayIndex},
		{name: "player url", err: ErrPlayerURLNotFound, want: ErrorCategoryPlayerURL},
		{name: "player url required", err: ErrPlayerURLRequired, want: ErrorCategoryPlayerURL},
		{name: "live", err: &stream.DownloadingLiveNotSupportedError{Itag: 95}, want: ErrorCategoryDownloadingLiveNotSupported},
		{name: "malformed record", err: &formats.RecordError{Err: formats.ErrMissingURL}, want: ErrorCategoryMalformedRecord},
		{name: "network", err: fmt.Errorf("probe: %w", &transport.StatusError{Method: "HEAD", StatusCode: 503}), want: ErrorCategoryNetwork},
		{name: "canceled", err: context.Canceled, want: ErrorCategoryCanceled},
		{name: "unknown", err: errors.New("boom"), want: ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		got := ClassifyError(tt.err)
		if got != tt.want {
			t.Fatalf("%s: ClassifyError()=%q want=%q", tt.name, got, tt.want)
		}
	}
}
