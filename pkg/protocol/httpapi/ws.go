package httpapi

import (
	"net/http"
	"time"

	"github.com/coder/websocket"

	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/core"
	"aether.dev/pkg/protocol/gateway"
	"aether.dev/pkg/protocol/session"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/iptracker"
	"aether.dev/pkg/utils/log"
)

// wsWriter adapts a coder/websocket connection to gateway.FrameWriter.
// This is the mirror's only difference from the native surface: the same
// Codec/Session protocol, carried over coder/websocket instead of
// fasthttp/websocket.
type wsWriter struct{ conn *websocket.Conn }

func (w *wsWriter) WriteFrame(b []byte, binary bool) error {
	typ := websocket.MessageText
	if binary {
		typ = websocket.MessageBinary
	}
	return w.conn.Write(context.Bg(), typ, b)
}

// ServeWS upgrades r to a plain WebSocket connection and runs the native
// Codec/Session protocol over it, mirroring the native gateway's semantics
// in JSON over the HTTP adapter's transport.
func ServeWS(ctx context.T, w http.ResponseWriter, r *http.Request, c *core.Core) {
	if remote := helpers.GetRemoteFromReq(r); remote != "" && iptracker.Global.IsBlocked(remote) {
		http.Error(w, "too many failed attempts from this address", http.StatusTooManyRequests)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.E.F("httpapi: failed to accept /v1/ws: %v", err)
		return
	}
	defer conn.CloseNow()

	remote := helpers.GetRemoteFromReq(r)
	gwConn := gateway.NewConn(remote, &wsWriter{conn: conn}, c)
	defer gwConn.Close()

	ctx, cancel := context.Cancel(ctx)
	defer cancel()

	helloDeadline := time.AfterFunc(session.HelloTimeout, func() {
		if !gwConn.Session.IsActive() {
			_ = conn.Close(websocket.StatusPolicyViolation, "hello timeout")
		}
	})
	defer helloDeadline.Stop()

	for {
		_, data, rErr := conn.Read(ctx)
		if rErr != nil {
			return
		}
		gwConn.HandleFrame(ctx, data)
		if gwConn.ShouldClose() {
			return
		}
	}
}
