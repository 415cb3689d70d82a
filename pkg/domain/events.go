package domain

import "time"

// Event names published on the event bus for every sample.
const (
	EventStart = "start"
	EventStop  = "stop"
)

// SampleEvent describes a lifecycle transition for hooks.
type SampleEvent struct {
	Key       string
	State     State
	StartedAt time.Duration
	StoppedAt time.Duration
	Delta     time.Duration
	Offset    time.Duration
	Root      bool
}

// LifecycleHooks defines callbacks for tracker observability.
// Hooks run after the tracker lock is released, in the order transitions happened.
type LifecycleHooks struct {
	OnStart      func(SampleEvent)
	OnStop       func(SampleEvent)
	OnReportable func(SampleEvent)
	OnError      func(error)
}
