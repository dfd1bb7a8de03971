package httpapi

import (
	"encoding/json"
	"net/http"
)

// healthzSubscription reports one subscription's delivery counters.
type healthzSubscription struct {
	SubscriptionID string `json:"subscription_id"`
	Delivered      uint64 `json:"delivered"`
	Dropped        uint64 `json:"dropped"`
	QueueDepth     int    `json:"queue_depth"`
	QueueHighWater int    `json:"queue_high_water"`
}

type healthzBody struct {
	Status        string                 `json:"status"`
	Subscriptions []healthzSubscription  `json:"subscriptions"`
}

// serveHealthz reports liveness and, per reserved subscription, its
// dispatcher delivery counters (zero-valued for a subscription not
// currently streaming). Mounted directly on the chi router rather than as
// a huma operation: liveness checks should not depend on the OpenAPI
// pipeline being healthy.
func (x *Operations) serveHealthz(w http.ResponseWriter, r *http.Request) {
	x.mu.RLock()
	ids := make([]string, 0, len(x.subs))
	for id := range x.subs {
		ids = append(ids, id)
	}
	x.mu.RUnlock()

	body := healthzBody{Status: "ok"}
	for _, id := range ids {
		entry := healthzSubscription{SubscriptionID: id}
		if sub, ok := x.core.Dispatcher.Get(id); ok {
			counters := sub.Counters()
			entry.Delivered = counters.Delivered
			entry.Dropped = counters.Dropped
			entry.QueueDepth = counters.QueueDepth
			entry.QueueHighWater = counters.QueueHighWater
		}
		body.Subscriptions = append(body.Subscriptions, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
