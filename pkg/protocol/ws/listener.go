// Package ws is the native gateway: the Codec/Session handshake carried
// over a WebSocket connection, one message per frame (WebSocket already
// frames messages, so the 4-byte length prefix the data model specifies
// for raw stream transports is not needed on top of it).
package ws

import (
	"net/http"
	"sync"

	"github.com/fasthttp/websocket"

	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/utils/atomic"
)

// Upgrader is a preconfigured instance of websocket.Upgrader. Origin
// checking is left permissive here, matching the teacher's default; a
// reverse proxy in front of the relay is expected to enforce origin
// policy where one is wanted.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Listener wraps one upgraded WebSocket connection with the write-mutex
// and remote-address bookkeeping the teacher's connection listeners use.
type Listener struct {
	mutex  sync.Mutex
	Conn   *websocket.Conn
	remote *atomic.String
}

// NewListener wraps an upgraded connection, recovering the real client
// address from proxy headers when present.
func NewListener(conn *websocket.Conn, r *http.Request) *Listener {
	remote := helpers.GetRemoteFromReq(r)
	if remote == "" {
		remote = conn.NetConn().RemoteAddr().String()
	}
	return &Listener{Conn: conn, remote: atomic.NewString(remote)}
}

// RealRemote returns the client's best-known address.
func (l *Listener) RealRemote() string { return l.remote.Load() }

// WriteFrame implements gateway.FrameWriter: one WS message per frame, the
// message type matching the frame's encoded format (binary for the
// msgpack envelope, text for the raw JSON object).
func (l *Listener) WriteFrame(b []byte, binary bool) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if binary {
		return l.Conn.WriteMessage(websocket.BinaryMessage, b)
	}
	return l.Conn.WriteMessage(websocket.TextMessage, b)
}

// Close closes the underlying connection.
func (l *Listener) Close() error { return l.Conn.Close() }
