package board

import (
	"canvas/protocol"
	"time"
)

// Socket is the transport under one connection. Read must return an error once the socket
// is closed so the read loop can exit.
type Socket interface {
	Read() (protocol.Frame, error)
	Write(f protocol.Frame) error
	Ping() error
	Close(reason string)
}

// Peer is a room's handle on a connection. Send is for packets that must arrive; a failure
// means the connection is going away. SendVolatile may drop.
type Peer interface {
	Id() string
	Send(f protocol.Frame) error
	SendVolatile(f protocol.Frame) bool
}

// MessageHandler consumes decoded messages for one connection.
type MessageHandler interface {
	Handle(msg protocol.Message) error
	Disconnect()
}

type UniqueIdGenerator interface {
	Generate() string
}

// PeriodicTickerChannelCreator returns a ticking channel and a function releasing it.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) (<-chan time.Time, func())
}
