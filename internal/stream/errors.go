package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrDownloadingLiveNotSupported is returned when byte-level information
	// is requested for a live stream.
	ErrDownloadingLiveNotSupported = errors.New("downloading live streams is not supported")
	// ErrNoProber is returned when a size is undeclared and no prober was
	// attached to the descriptor.
	ErrNoProber = errors.New("no size prober configured")
)

type DownloadingLiveNotSupportedError struct {
	Itag int
}

func (e *DownloadingLiveNotSupportedError) Error() string {
	return fmt.Sprintf("itag %d: %v", e.Itag, ErrDownloadingLiveNotSupported)
}

func (e *DownloadingLiveNotSupportedError) Unwrap() error {
	return ErrDownloadingLiveNotSupported
}
