package board

import (
	"canvas/protocol"
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type ConnOptions struct {
	OutboxSize   int
	LiveRate     float64
	LiveBurst    int
	PingInterval time.Duration
}

func DefaultConnOptions() ConnOptions {
	return ConnOptions{
		OutboxSize:   256,
		LiveRate:     120,
		LiveBurst:    240,
		PingInterval: 30 * time.Second,
	}
}

// Conn is one client connection. The read loop feeds a MessageHandler; the write loop
// drains the outbox. Cancelling the context stops both.
type Conn struct {
	id          string
	outbox      chan protocol.Frame
	rateLimiter *rate.Limiter
	ctx         context.Context
	cancelCtx   context.CancelFunc
}

func NewConn(id string, opts ConnOptions) *Conn {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = DefaultConnOptions().OutboxSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		id:          id,
		outbox:      make(chan protocol.Frame, opts.OutboxSize),
		rateLimiter: rate.NewLimiter(rate.Limit(opts.LiveRate), opts.LiveBurst),
		ctx:         ctx,
		cancelCtx:   cancel,
	}
}

func (c *Conn) Id() string {
	return c.id
}

func (c *Conn) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Send queues a frame that must be delivered. If the outbox is full the connection is
// cancelled and ErrSendBufferFull returned.
func (c *Conn) Send(f protocol.Frame) error {
	if c.ctx.Err() != nil {
		return ErrConnClosed
	}
	select {
	case c.outbox <- f:
		return nil
	default:
		c.cancelCtx()
		return ErrSendBufferFull
	}
}

// SendVolatile queues a frame unless the outbox is half full, keeping the rest of the
// buffer for frames that must be delivered.
func (c *Conn) SendVolatile(f protocol.Frame) bool {
	if c.ctx.Err() != nil || len(c.outbox) >= cap(c.outbox)/2 {
		return false
	}
	select {
	case c.outbox <- f:
		return true
	default:
		return false
	}
}

func decodeFrame(f protocol.Frame) (protocol.Message, error) {
	if f.Binary {
		return protocol.DecodeBinary(f.Data)
	}
	return protocol.DecodeText(f.Data)
}

func bestEffort(msg protocol.Message) bool {
	switch msg.(type) {
	case protocol.LiveSegment, protocol.CursorMove:
		return true
	}
	return false
}

// ReadPump reads until the socket fails or the connection is cancelled, then runs the
// handler's disconnect path.
func (c *Conn) ReadPump(socket Socket, handler MessageHandler) {
	defer func() {
		c.cancelCtx()
		handler.Disconnect()
	}()

	for {
		frame, err := socket.Read()
		if err != nil {
			log.Debug().Err(err).Str("conn", c.id).Msg("read failed")
			return
		}
		if c.ctx.Err() != nil {
			return
		}

		msg, err := decodeFrame(frame)
		if err != nil {
			log.Debug().Err(err).Str("conn", c.id).Bool("binary", frame.Binary).Msg("dropping malformed message")
			continue
		}
		if bestEffort(msg) && !c.rateLimiter.Allow() {
			continue
		}
		if err := handler.Handle(msg); err != nil {
			log.Debug().Err(err).Str("conn", c.id).Str("room", msg.Room()).Msgf("ignored %T", msg)
		}
	}
}

// WritePump writes queued frames and pings until the connection is cancelled or a write
// fails. It owns closing the socket.
func (c *Conn) WritePump(socket Socket, pings <-chan time.Time) {
	defer socket.Close("")

	for {
		select {
		case <-c.ctx.Done():
			return
		case f := <-c.outbox:
			if err := socket.Write(f); err != nil {
				log.Debug().Err(err).Str("conn", c.id).Msg("write failed")
				c.cancelCtx()
				return
			}
		case <-pings:
			if err := socket.Ping(); err != nil {
				log.Debug().Err(err).Str("conn", c.id).Msg("ping failed")
				c.cancelCtx()
				return
			}
		}
	}
}
