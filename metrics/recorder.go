// Package metrics records wiki activity. Components take a Recorder and
// default to NoopRecorder, so metrics are only collected when a real
// implementation is injected.
package metrics

import "time"

// Recorder receives wiki events.
type Recorder interface {
	EntrySaved(created bool)
	DuplicateRejected()
	ExportFinished(d time.Duration, pages int, warnings int, err error)
}

// NoopRecorder discards every event.
type NoopRecorder struct{}

func (NoopRecorder) EntrySaved(bool)                               {}
func (NoopRecorder) DuplicateRejected()                            {}
func (NoopRecorder) ExportFinished(time.Duration, int, int, error) {}
