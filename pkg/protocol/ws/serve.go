package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/fasthttp/websocket"

	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/core"
	"aether.dev/pkg/protocol/gateway"
	"aether.dev/pkg/protocol/session"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/iptracker"
	"aether.dev/pkg/utils/log"
	"aether.dev/pkg/utils/units"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait / 2
	maxMessageSize = 1 * units.Mb
)

// Serve upgrades r to a WebSocket connection and runs the native
// Codec/Session protocol over it until the connection closes or ctx is
// canceled.
func Serve(ctx context.T, w http.ResponseWriter, r *http.Request, c *core.Core) {
	if remote := helpers.GetRemoteFromReq(r); remote != "" && iptracker.Global.IsBlocked(remote) {
		http.Error(w, "too many failed attempts from this address", http.StatusTooManyRequests)
		return
	}
	conn, err := Upgrader.Upgrade(w, r, nil)
	if chk.E(err) {
		log.E.F("ws: failed to upgrade: %v", err)
		return
	}
	listener := NewListener(conn, r)
	gwConn := gateway.NewConn(listener.RealRemote(), listener, c)

	ctx, cancel := context.Cancel(ctx)
	defer func() {
		cancel()
		gwConn.Close()
		listener.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	chk.E(conn.SetReadDeadline(time.Now().Add(pongWait)))
	conn.SetPongHandler(func(string) error {
		chk.E(conn.SetReadDeadline(time.Now().Add(pongWait)))
		return nil
	})

	go pinger(ctx, listener, cancel)

	helloDeadline := time.AfterFunc(session.HelloTimeout, func() {
		if !gwConn.Session.IsActive() {
			listener.Close()
		}
	})
	defer helloDeadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, message, rErr := conn.ReadMessage()
		if rErr != nil {
			if !strings.Contains(rErr.Error(), "use of closed network connection") {
				log.D.F("ws: read error from %s: %v", listener.RealRemote(), rErr)
			}
			return
		}
		gwConn.HandleFrame(ctx, message)
		if gwConn.ShouldClose() {
			return
		}
	}
}

func pinger(ctx context.T, l *Listener, cancel context.F) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				cancel()
				return
			}
		}
	}
}
