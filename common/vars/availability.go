package vars

import (
	"event-registration/model"
	"sync/atomic"
	"unsafe"
)

// availabilityPtr holds a pointer to the current per-event availability map.
// This approach allows for lock-free reads with atomic updates.
var availabilityPtr unsafe.Pointer

// GetAvailability returns the current ticket availability for an event.
// This operation is lock-free and safe for concurrent access.
func GetAvailability(eventID string) []model.TicketAvailability {
	ptr := atomic.LoadPointer(&availabilityPtr)
	if ptr == nil {
		return nil
	}
	m := *(*map[string][]model.TicketAvailability)(ptr)
	return m[eventID]
}

// SetAvailability atomically replaces the full availability snapshot.
// It copies the input so later mutation by the caller cannot be observed.
// Pass nil or an empty map to clear the snapshot.
func SetAvailability(snapshot map[string][]model.TicketAvailability) {
	var ptr unsafe.Pointer

	if len(snapshot) > 0 {
		snapshotCopy := make(map[string][]model.TicketAvailability, len(snapshot))
		for eventID, tickets := range snapshot {
			ticketsCopy := make([]model.TicketAvailability, len(tickets))
			copy(ticketsCopy, tickets)
			snapshotCopy[eventID] = ticketsCopy
		}
		ptr = unsafe.Pointer(&snapshotCopy)
	}

	atomic.StorePointer(&availabilityPtr, ptr)
}

func init() {
	atomic.StorePointer(&availabilityPtr, nil)
}
