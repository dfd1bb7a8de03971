// Package httpapi is the HTTP adapter: a huma v2 operation set mounted on
// a chi router, covering event submission, subscription lifecycle, the
// Server-Sent Events stream, liveness, and a JSON WebSocket mirror of the
// native surface. Unlike the native and NIP-01 gateways, a subscription's
// filter and its delivery transport are registered in two separate calls
// (POST /v1/subscriptions, then GET /v1/stream) because an HTTP client
// cannot hold a dispatcher.Sender open until it opens the SSE connection.
package httpapi

import (
	"crypto/rand"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"aether.dev/pkg/core"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/encoders/hex"
)

// Operations groups the HTTP adapter's handlers with the core engine and
// the registry of filters awaiting an SSE stream.
type Operations struct {
	core *core.Core
	path string

	mu   sync.RWMutex
	subs map[string]*filter.F
}

// New mounts the HTTP adapter's routes on router under path (e.g. "/v1")
// and returns the huma API, so the caller can serve its generated OpenAPI
// document alongside the routes.
func New(c *core.Core, path string, router chi.Router) huma.API {
	api := humachi.New(router, &humachi.HumaConfig{
		OpenAPI: humachi.DefaultOpenAPIConfig(),
	})
	ops := &Operations{core: c, path: path, subs: map[string]*filter.F{}}
	huma.AutoRegister(api, ops)
	router.Get(path+"/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(r.Context(), w, r, c)
	})
	router.Get("/healthz", ops.serveHealthz)
	return api
}

// newSubscriptionID generates a random, URL-safe subscription identifier.
func newSubscriptionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.Enc(b)
}
