package reactor

import "github.com/riftio/reactorhttp/internal/wake"

// pendingWakeCapacity bounds the MPSC queue of keys awaiting write-interest
// arming. Sized generously since a Push failure due to a full queue would
// silently drop a wake request. Every tryWrite that leaves bytes queued
// pushes its key, so one key can appear several times in one drain cycle.
const pendingWakeCapacity = 4096

// newPendingWakeQueue constructs the MPSC FIFO described by spec §4.E.
func newPendingWakeQueue() *wake.Queue[*selectionKey] {
	return wake.New[*selectionKey](pendingWakeCapacity)
}
