package httpapi

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/hex"
	"aether.dev/pkg/utils/context"
)

// SubmitEventInput carries one event to publish.
type SubmitEventInput struct {
	Body *event.E
}

// SubmitEventOutput reports the outcome of a submission.
type SubmitEventOutput struct {
	Body struct {
		EventID string `json:"event_id"`
		Status  string `json:"status"`
		Reason  string `json:"reason,omitempty"`
	}
}

// RegisterSubmitEvent registers POST /v1/events.
func (x *Operations) RegisterSubmitEvent(api huma.API) {
	name := "SubmitEvent"
	description := "Submit one event for validation, persistence, and fan-out to matching subscriptions."
	path := x.path + "/events"
	scopes := []string{"write"}
	huma.Register(
		api, huma.Operation{
			OperationID:   name,
			Summary:       name,
			Path:          path,
			Method:        http.MethodPost,
			Tags:          []string{"events"},
			Description:   helpers.GenerateDescription(description, scopes),
			DefaultStatus: http.StatusAccepted,
		}, func(ctx context.T, input *SubmitEventInput) (output *SubmitEventOutput, err error) {
			if input.Body == nil {
				return nil, huma.Error400BadRequest("missing event body")
			}
			// the stateless REST surface carries no session identity, so
			// it can never satisfy the protected-publish tag check.
			result := x.core.Publish(ctx, input.Body, nil)
			output = &SubmitEventOutput{}
			output.Body.EventID = hex.Enc(input.Body.Id)
			if !result.Accepted {
				output.Body.Status = "rejected"
				output.Body.Reason = result.Reason
				return nil, huma.Error422UnprocessableEntity(result.Code + ": " + result.Reason)
			}
			output.Body.Status = "accepted"
			return output, nil
		},
	)
}
