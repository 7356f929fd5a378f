// Package orders holds order-domain rules shared by handlers: the
// delivery-status transition table and order id generation.
package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"bluemedix-system/internal/database/models"
)

// transitions is the forward path pending -> accepted -> dispatched ->
// delivered. Cancellation is allowed from any non-terminal state.
// delivered and cancelled are terminal.
var transitions = map[string][]string{
	models.DeliveryPending:    {models.DeliveryAccepted, models.DeliveryCancelled},
	models.DeliveryAccepted:   {models.DeliveryDispatched, models.DeliveryCancelled},
	models.DeliveryDispatched: {models.DeliveryDelivered, models.DeliveryCancelled},
	models.DeliveryDelivered:  {},
	models.DeliveryCancelled:  {},
}

func ValidStatus(status string) bool {
	_, ok := transitions[status]
	return ok
}

// CanTransition reports whether an order may move from one delivery status
// to another. A same-status write is allowed and treated as a no-op by
// callers.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewOrderID generates a human-readable order identifier. The random
// suffix makes collisions practically impossible; a unique index on the
// column backstops the remainder.
func NewOrderID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the host is broken; fall back to time.
		return fmt.Sprintf("BM-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("BM-%d-%s", time.Now().Unix(), hex.EncodeToString(buf))
}
