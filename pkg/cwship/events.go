package cwship

import "time"

// EventHandler receives notifications about shipper operations.
// Methods are called synchronously from the flush loop and should return
// quickly. Embed BaseEventHandler to implement only some of them.
type EventHandler interface {
	// OnStateChange is called after every lifecycle transition.
	OnStateChange(event StateChangeEvent)

	// OnFlush is called after every flush cycle that had records.
	OnFlush(event FlushEvent)

	// OnDeliveryError is called once per stream that failed in a cycle.
	OnDeliveryError(event DeliveryErrorEvent)
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// FlushEvent summarizes one flush cycle.
type FlushEvent struct {
	// Reason is what started the cycle: timer, threshold, explicit or shutdown
	Reason string

	// Streams is the number of streams that had records
	Streams int

	// Delivered is the number of records accepted by the service
	Delivered int

	// Dropped is the number of records discarded after failures
	Dropped int

	// Failed is true when at least one stream was not fully delivered
	Failed bool

	// Duration is how long delivery took
	Duration time.Duration
}

// DeliveryErrorEvent describes a stream that could not be fully delivered.
type DeliveryErrorEvent struct {
	Stream    string
	Error     error
	Records   int
	Delivered int
	Restored  int
	Dropped   int

	// Skipped is true when an earlier failure aborted the cycle
	Skipped bool
}

// BaseEventHandler implements EventHandler with no-ops.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(StateChangeEvent) {}

// OnFlush does nothing.
func (BaseEventHandler) OnFlush(FlushEvent) {}

// OnDeliveryError does nothing.
func (BaseEventHandler) OnDeliveryError(DeliveryErrorEvent) {}
