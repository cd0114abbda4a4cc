package service

import "time"

// LogFilter narrows an event history query. Zero fields do not filter.
type LogFilter struct {
	From  time.Time // inclusive
	To    time.Time // inclusive
	Type  string    // one of the models.Event* types, any case
	Login string    // user the event is attributed to
}

// Valve numbers accepted by Control.SetValve.
const (
	Valve1 = 1
	Valve2 = 2
)
