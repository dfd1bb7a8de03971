package nip01

import (
	"net/http"

	"github.com/coder/websocket"

	"aether.dev/pkg/app/relay/helpers"
	"aether.dev/pkg/core"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/iptracker"
	"aether.dev/pkg/utils/log"
)

// MaxMessageSize bounds one inbound NIP-01 frame.
const MaxMessageSize = 1 << 20

// sender adapts a coder/websocket connection to FrameSender.
type sender struct{ conn *websocket.Conn }

func (s *sender) SendText(b []byte) error {
	return s.conn.Write(context.Bg(), websocket.MessageText, b)
}

// Serve upgrades r to a plain WebSocket connection and runs the NIP-01
// text protocol over it until the connection closes or ctx is canceled.
func Serve(ctx context.T, w http.ResponseWriter, r *http.Request, c *core.Core) {
	if remote := helpers.GetRemoteFromReq(r); remote != "" && iptracker.Global.IsBlocked(remote) {
		http.Error(w, "too many failed attempts from this address", http.StatusTooManyRequests)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.E.F("nip01: failed to accept: %v", err)
		return
	}
	conn.SetReadLimit(MaxMessageSize)
	remote := helpers.GetRemoteFromReq(r)

	gwConn := NewConn(remote, &sender{conn: conn}, c)
	defer gwConn.Close()
	defer conn.CloseNow()

	for {
		typ, data, rErr := conn.Read(ctx)
		if rErr != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		gwConn.HandleMessage(ctx, data)
		if gwConn.ShouldClose() {
			return
		}
	}
}
