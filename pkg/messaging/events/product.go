// Package events contains the payloads published on the message bus.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/procurehub/pkg/messaging"
)

// ProductChanged announces an inventory change. Tier is "remote" when the catalog
// confirmed the change and "local" when only the in-memory collection has it.
type ProductChanged struct {
	Action      string    `json:"action"`
	Tier        string    `json:"tier"`
	Kind        string    `json:"kind"`
	ProductID   string    `json:"product_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e ProductChanged) Subject() string {
	return messaging.ProductSubject(e.Action)
}

func (e ProductChanged) Payload() ([]byte, error) {
	return json.Marshal(e)
}
