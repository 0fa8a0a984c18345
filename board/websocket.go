package board

import (
	"canvas/protocol"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

type websocketConnection struct {
	socket *websocket.Conn
}

func (wc *websocketConnection) Write(f protocol.Frame) error {
	messageType := websocket.TextMessage
	if f.Binary {
		messageType = websocket.BinaryMessage
	}
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.socket.WriteMessage(messageType, f.Data)
}

func (wc *websocketConnection) Ping() error {
	return wc.socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (wc *websocketConnection) Read() (protocol.Frame, error) {
	mt, p, err := wc.socket.ReadMessage()
	if err != nil {
		return protocol.Frame{}, err
	}
	return protocol.Frame{Binary: mt == websocket.BinaryMessage, Data: p}, nil
}

func (wc *websocketConnection) Close(reason string) {
	wc.socket.SetWriteDeadline(time.Now().Add(writeWait))
	wc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	wc.socket.Close()
}

// NewWebsocketConnection wraps conn. Every pong pushes the read deadline out by readWait.
func NewWebsocketConnection(conn *websocket.Conn, readWait time.Duration) *websocketConnection {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})
	return &websocketConnection{conn}
}
