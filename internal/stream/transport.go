package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Close codes used on the transport. CloseNormal marks a deliberate
// client-side stop and must never be treated as a failure requiring
// reconnect.
const (
	CloseNormal    = websocket.CloseNormalClosure
	CloseGoingAway = websocket.CloseGoingAway
)

// Transport opens duplex framed connections to a provider endpoint.
// Implementations must honor ctx cancellation during dialing.
type Transport interface {
	Dial(ctx context.Context, endpoint string, header http.Header) (Conn, error)
}

// Conn is one live framed connection
type Conn interface {
	// ReadFrame blocks until the next frame arrives or the connection
	// is closed, in which case it returns an error.
	ReadFrame() ([]byte, error)
	// WriteFrame sends one frame, JSON-encoded
	WriteFrame(v any) error
	// Close closes the connection with the given close code
	Close(code int, reason string) error
}

// WebsocketTransport implements Transport over websockets
type WebsocketTransport struct {
	dialer *websocket.Dialer
}

// NewWebsocketTransport creates a websocket transport
func NewWebsocketTransport() *WebsocketTransport {
	return &WebsocketTransport{
		dialer: &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			EnableCompression: true,
		},
	}
}

// Dial opens a websocket connection to the endpoint
func (t *WebsocketTransport) Dial(ctx context.Context, endpoint string, header http.Header) (Conn, error) {
	ws, resp, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return &wsConn{ws: ws}, nil
}

// wsConn wraps *websocket.Conn to implement Conn
type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *wsConn) WriteFrame(v any) error {
	return c.ws.WriteJSON(v)
}

func (c *wsConn) Close(code int, reason string) error {
	// Best effort close handshake; the underlying close matters more
	// than the control frame reaching the peer.
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	return c.ws.Close()
}
