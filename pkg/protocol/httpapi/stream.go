package httpapi

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/log"
)

// StreamEvent is one SSE "event" message: a matched event tagged with the
// subscription that produced it.
type StreamEvent struct {
	SubscriptionID string   `json:"subscription_id"`
	Event          *event.E `json:"event"`
}

// StreamInput selects which reserved filter to stream.
type StreamInput struct {
	SubscriptionID string `query:"subscription_id" required:"true"`
}

// sseSender adapts an sse.Sender into dispatcher.Sender so the dispatcher
// can deliver straight to the SSE stream.
type sseSender struct {
	subID string
	send  sse.Sender
}

func (s *sseSender) Deliver(subID string, ev *event.E) error {
	return s.send.Data(StreamEvent{SubscriptionID: subID, Event: ev})
}

// RegisterStream registers GET /v1/stream, which makes a previously
// reserved subscription live: it replays the matching stored events, then
// streams live matches until the client disconnects. Deleting the
// subscription stops further deliveries, but the SSE connection stays
// open until the client closes it.
func (x *Operations) RegisterStream(api huma.API) {
	name := "Stream"
	description := "Stream a reserved subscription's matching events over Server-Sent Events. Register the filter first with POST /v1/subscriptions."
	path := x.path + "/stream"
	scopes := []string{"read"}
	sse.Register(
		api, huma.Operation{
			OperationID: name,
			Summary:     name,
			Path:        path,
			Method:      http.MethodGet,
			Tags:        []string{"subscriptions"},
			Description: helpers.GenerateDescription(description, scopes),
		},
		map[string]any{
			"eose":  "",
			"event": &StreamEvent{},
		},
		func(ctx context.T, input *StreamInput, send sse.Sender) {
			x.mu.RLock()
			f, ok := x.subs[input.SubscriptionID]
			x.mu.RUnlock()
			if !ok {
				log.D.F("httpapi: stream requested for unknown subscription %s", input.SubscriptionID)
				return
			}

			sender := &sseSender{subID: input.SubscriptionID, send: send}
			backfill, err := x.core.Subscribe(ctx, input.SubscriptionID, f, sender)
			if chk.E(err) {
				return
			}
			defer x.core.Unsubscribe(input.SubscriptionID)

			for _, ev := range backfill {
				if err := send.Data(StreamEvent{SubscriptionID: input.SubscriptionID, Event: ev}); chk.E(err) {
					return
				}
			}
			// end-of-stored-events marker: a distinct "eose" SSE event,
			// consistent with the other surfaces' own idiomatic markers
			// (NIP-01: EOSE array; Native: ACK{reason:"eose"}).
			if err := send.Data(input.SubscriptionID); chk.E(err) {
				return
			}

			<-ctx.Done()
		},
	)
}
