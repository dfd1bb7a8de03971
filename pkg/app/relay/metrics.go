package relay

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"aether.dev/pkg/protocol/dispatcher"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/log"
)

// MetricsHandler serves the relay's process and subscription metrics in
// Prometheus text exposition format, replacing the teacher's
// payment/trial-subscription metrics (not applicable to this relay) with
// resource and per-subscription queue-depth gauges.
func (s *Server) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	var delivered, dropped uint64
	var queueDepth, queueHighWater, subCount int
	s.Core.Dispatcher.Range(
		func(id string, sub *dispatcher.Subscription) bool {
			c := sub.Counters()
			delivered += c.Delivered
			dropped += c.Dropped
			queueDepth += c.QueueDepth
			if c.QueueHighWater > queueHighWater {
				queueHighWater = c.QueueHighWater
			}
			subCount++
			return true
		},
	)

	var eventCount uint64
	if n, err := s.Store.EventCount(); err == nil {
		eventCount = n
	}

	fmt.Fprintf(
		w, `# HELP aether_subscriptions_active Number of active subscriptions.
# TYPE aether_subscriptions_active gauge
aether_subscriptions_active %d

# HELP aether_subscription_queue_depth_total Sum of queued-but-undelivered events across all subscriptions.
# TYPE aether_subscription_queue_depth_total gauge
aether_subscription_queue_depth_total %d

# HELP aether_subscription_queue_high_water Largest per-subscription queue depth observed.
# TYPE aether_subscription_queue_high_water gauge
aether_subscription_queue_high_water %d

# HELP aether_events_delivered_total Total events delivered to subscriptions.
# TYPE aether_events_delivered_total counter
aether_events_delivered_total %d

# HELP aether_events_dropped_total Total events dropped from full subscription queues.
# TYPE aether_events_dropped_total counter
aether_events_dropped_total %d

# HELP aether_events_stored_total Total events currently in the store.
# TYPE aether_events_stored_total gauge
aether_events_stored_total %d

# HELP aether_goroutines Number of running goroutines.
# TYPE aether_goroutines gauge
aether_goroutines %d
`,
		subCount, queueDepth, queueHighWater, delivered, dropped, eventCount,
		runtime.NumGoroutine(),
	)
}

// MonitorResources periodically logs goroutine and store-size metrics
// until ctx is canceled, in the teacher's resource-logging idiom.
func (s *Server) MonitorResources(ctx context.T) {
	tick := time.NewTicker(15 * time.Minute)
	defer tick.Stop()
	log.I.Ln("relay: resource monitor running", os.Args[0], os.Getpid())
	for {
		select {
		case <-ctx.Done():
			log.D.Ln("relay: stopping resource monitor")
			return
		case <-tick.C:
			n, err := s.Store.EventCount()
			log.D.F(
				"relay: goroutines=%d subscriptions=%d events=%d (err=%v)",
				runtime.NumGoroutine(), s.Core.Dispatcher.Count(), n, err,
			)
		}
	}
}
