package httpapi

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/utils/context"
)

// CreateSubscriptionInput carries the filter for a new subscription.
type CreateSubscriptionInput struct {
	Body map[string]any
}

// CreateSubscriptionOutput returns the subscription's identifier.
type CreateSubscriptionOutput struct {
	Body struct {
		SubscriptionID string `json:"subscription_id"`
	}
}

// RegisterCreateSubscription registers POST /v1/subscriptions. Creating a
// subscription only reserves its filter; it becomes live against the
// dispatcher once a client opens GET /v1/stream with the returned id.
func (x *Operations) RegisterCreateSubscription(api huma.API) {
	name := "CreateSubscription"
	description := "Register a filter for later streaming over GET /v1/stream."
	path := x.path + "/subscriptions"
	scopes := []string{"read"}
	huma.Register(
		api, huma.Operation{
			OperationID: name,
			Summary:     name,
			Path:        path,
			Method:      http.MethodPost,
			Tags:        []string{"subscriptions"},
			Description: helpers.GenerateDescription(description, scopes),
		}, func(ctx context.T, input *CreateSubscriptionInput) (output *CreateSubscriptionOutput, err error) {
			id := newSubscriptionID()
			f := filter.Normalize(input.Body)
			x.mu.Lock()
			x.subs[id] = f
			x.mu.Unlock()
			output = &CreateSubscriptionOutput{}
			output.Body.SubscriptionID = id
			return output, nil
		},
	)
}

// DeleteSubscriptionInput identifies the subscription to tear down.
type DeleteSubscriptionInput struct {
	ID string `path:"id"`
}

// RegisterDeleteSubscription registers DELETE /v1/subscriptions/{id}.
func (x *Operations) RegisterDeleteSubscription(api huma.API) {
	name := "DeleteSubscription"
	description := "Remove a subscription's reserved filter and stop deliveries to its live stream, if any. The stream connection stays open until the client closes it."
	path := x.path + "/subscriptions/{id}"
	scopes := []string{"read"}
	huma.Register(
		api, huma.Operation{
			OperationID: name,
			Summary:     name,
			Path:        path,
			Method:      http.MethodDelete,
			Tags:        []string{"subscriptions"},
			Description: helpers.GenerateDescription(description, scopes),
			DefaultStatus: http.StatusNoContent,
		}, func(ctx context.T, input *DeleteSubscriptionInput) (output *struct{}, err error) {
			x.mu.Lock()
			delete(x.subs, input.ID)
			x.mu.Unlock()
			x.core.Unsubscribe(input.ID)
			return nil, nil
		},
	)
}
