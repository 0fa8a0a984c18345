package main

import (
	"canvas/board"
	"canvas/config"
	"canvas/logger"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func RegisterBoardRoutes(r *gin.Engine, h *board.BoardHandler) {
	r.GET("/ws", h.WebsocketHandler)
	r.GET("/rooms/:roomid", h.RoomStatsHandler)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Setup(false, true)
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Setup(cfg.Debug, cfg.LogPretty)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := board.NewRegistry(board.RoomOptions{
		HistoryCap:       cfg.HistoryCap,
		BroadcastCommits: cfg.BroadcastCommits,
		Ids:              board.NewIdGen(),
	})
	tickerGen := board.NewTickerGen()
	boardHandler := board.NewBoardHandler(registry, board.NewIdGen(), tickerGen, board.ConnOptions{
		OutboxSize:   cfg.OutboxSize,
		LiveRate:     cfg.LiveRate,
		LiveBurst:    cfg.LiveBurst,
		PingInterval: cfg.PingInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	go registry.RunJanitor(ctx, tickerGen, cfg.RoomIdleTTL)

	r := CreateServer(cfg.AllowedOrigins)
	RegisterBoardRoutes(r, boardHandler)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Strs("origins", cfg.AllowedOrigins).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("SIGTERM or SIGINT received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("shutting down now")
}
