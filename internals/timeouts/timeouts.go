package timeouts

import "time"

const (
	Probe         = 300 * time.Millisecond
	PollInterval  = 3 * time.Second
	SecondShort   = 2 * time.Second
	SecondDefault = 10 * time.Second
	// AIDefault bounds one collaborator round trip when config leaves the
	// timeout unset.
	AIDefault = 2 * time.Minute
)
