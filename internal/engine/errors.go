package engine

import (
	"errors"
	"fmt"
)

// ErrSessionUnavailable means no valid player credential exists for the
// owner right now. Expected during onboarding or after consent expires;
// the schedule is simply retried on the next tick.
var ErrSessionUnavailable = errors.New("player session unavailable")

// ErrDeviceNotFound is returned by the player API when the target device
// is unknown or offline. A volume call failing this way aborts the whole
// start attempt, since the start call would fail the same way.
var ErrDeviceNotFound = errors.New("playback device not found")

// ErrNonexistentTime marks a wall-clock value that falls inside a
// spring-forward gap for the schedule's timezone.
var ErrNonexistentTime = errors.New("local time does not exist")

// ErrAmbiguousTime marks a wall-clock value repeated by a fall-back
// transition. The calculator skips such candidates rather than guessing
// which of the two instants was meant.
var ErrAmbiguousTime = errors.New("local time is ambiguous")

// DataError marks a structurally invalid schedule record. The record is
// skipped for the tick and logged; it never aborts evaluation of other
// schedules.
type DataError struct {
	ScheduleID int
	Reason     string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("schedule %d: %s", e.ScheduleID, e.Reason)
}
