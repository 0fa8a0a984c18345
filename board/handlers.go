package board

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type BoardHandler struct {
	registry *Registry
	ids      UniqueIdGenerator
	tickers  PeriodicTickerChannelCreator
	opts     ConnOptions
	upgrader websocket.Upgrader
}

func NewBoardHandler(registry *Registry, ids UniqueIdGenerator, tickers PeriodicTickerChannelCreator, opts ConnOptions) *BoardHandler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultConnOptions().PingInterval
	}
	return &BoardHandler{
		registry: registry,
		ids:      ids,
		tickers:  tickers,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the origin allow-list is enforced by the engine middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *BoardHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}
	h.Attach(NewWebsocketConnection(conn, 2*h.opts.PingInterval))
}

// Attach starts serving a connected socket and returns the connection it created.
func (h *BoardHandler) Attach(socket Socket) *Conn {
	c := NewConn(h.ids.Generate(), h.opts)
	session := NewSession(c, h.registry)
	pings, stop := h.tickers.Create(h.opts.PingInterval)

	go func() {
		defer stop()
		c.WritePump(socket, pings)
	}()
	go c.ReadPump(socket, session)

	log.Info().Str("conn", c.Id()).Msg("connection opened")
	return c
}

func (h *BoardHandler) RoomStatsHandler(ctx *gin.Context) {
	room, ok := h.registry.Lookup(ctx.Param("roomid"))
	if !ok {
		ctx.String(http.StatusNotFound, ErrRoomNotFound.Error())
		return
	}
	ctx.JSON(http.StatusOK, room.Stats())
}
