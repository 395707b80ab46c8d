package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cybermeetgo/internal/chatarchive"
	"cybermeetgo/internal/config"
	"cybermeetgo/internal/database/db_client"
	"cybermeetgo/internal/http/http_server"
	"cybermeetgo/internal/redis/redis_client"
	"cybermeetgo/internal/services/auth"
	"cybermeetgo/internal/services/room"
	"cybermeetgo/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()
	Log.Debug("Redis client created successfully")

	// 4. Postgres db client + schema
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()
	if err := db_client.EnsureSchema(ctx, pgDb); err != nil {
		Log.Fatal("pg-schema", zap.Error(err))
	}

	// 5. Collaborator services: identity + durable rooms
	authService := auth.NewAuthService(pgDb, cfg.JwtSecret, cfg.JwtTTL)
	roomService := room.NewRoomService(pgDb)

	// 6. Background: chat stream ➜ Postgres archiver
	archiver := chatarchive.New(redisClient)
	chatarchive.Run(ctx, redisClient, pgDb)

	// 7. Signaling gateway (registry + relay + presence)
	wsSrv := ws.NewWsServer(authService, roomService, archiver)

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, authService, roomService)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

}
