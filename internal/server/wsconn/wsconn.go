// Package wsconn adapts a websocket connection to the analyzer's stream
// transport. Each text or binary frame from the peer carries one position
// descriptor; each outgoing message is one JSON text frame.
package wsconn

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/macbase/macbase"
)

// DefaultWriteTimeout bounds a write when the context has no deadline.
const DefaultWriteTimeout = 10 * time.Second

// Compile-time check that Conn implements macbase.StreamConn.
var _ macbase.StreamConn = (*Conn)(nil)

// Conn is a macbase.StreamConn over a websocket. ReadPosition and
// WriteMessage may be called from different goroutines.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	closeOnce sync.Once
}

// New wraps ws.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, writeTimeout: DefaultWriteTimeout}
}

// ReadPosition returns the next frame as text. A close frame or a dropped
// connection after a close handshake is reported as io.EOF. When ctx ends
// the pending read is interrupted and ctx.Err() is returned.
func (c *Conn) ReadPosition(ctx context.Context) (string, error) {
	stop := context.AfterFunc(ctx, func() {
		c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if websocket.IsCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived,
		) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", io.EOF
		}
		return "", err
	}
	return string(data), nil
}

// WriteMessage sends msg as a JSON text frame.
func (c *Conn) WriteMessage(ctx context.Context, msg *macbase.StreamMessage) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteJSON(msg)
}

// Close sends a normal close frame and closes the connection. It is safe to
// call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		frame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.ws.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}
