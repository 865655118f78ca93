package capture

import "sync/atomic"

// Flag is a simple atomic boolean, named for its use as the running/shutdown
// signal shared between a session's capture and watchdog goroutines.
type Flag struct {
	v atomic.Bool
}

func (f *Flag) Set(val bool) { f.v.Store(val) }
func (f *Flag) Get() bool    { return f.v.Load() }
