package ws

import (
	"encoding/json"

	"sidecrew/internal/domain/event"
)

// Publish fans a lifecycle event out to its recipients' topics. It never
// blocks; when the hub is saturated the event is dropped and logged.
func (h *Hub) Publish(ev event.Event) {
	if h == nil || len(ev.Recipients) == 0 {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("ws marshal event failed", "type", ev.Type, "error", err)
		return
	}

	seen := make(map[string]struct{}, len(ev.Recipients))
	for _, r := range ev.Recipients {
		topic := r.Topic()
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		h.send(topic, b)
	}
}
