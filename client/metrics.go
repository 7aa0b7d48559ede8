package client

import "time"

// Metrics receives resolution measurements. *metrics.Metrics from the
// server binary implements it.
type Metrics interface {
	ObserveDiscovery(hit bool, elapsed time.Duration, err error)
	ObserveResolve(streams int, elapsed time.Duration)
	ObserveRecordFailure(category string)
	ObserveProbe(err error)
}

type nopMetrics struct{}

func (nopMetrics) ObserveDiscovery(bool, time.Duration, error) {}
func (nopMetrics) ObserveResolve(int, time.Duration)           {}
func (nopMetrics) ObserveRecordFailure(string)                 {}
func (nopMetrics) ObserveProbe(error)                          {}
