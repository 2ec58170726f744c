package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"geoclash/config"
	"geoclash/handler"
	"geoclash/service"
	"geoclash/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting GeoClash battle service")

	cfg := config.Load()

	// Battles and locations live in Redis; fall back to in-memory stores
	// so the service still runs without one.
	var battleStore storage.BattleStore
	var locationStore storage.LocationStore
	redisClient, err := storage.RedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory stores", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		battleStore = storage.NewMemoryBattleStore()
		locationStore = storage.NewMemoryLocationStore()
	} else {
		defer redisClient.Close()
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
		battleStore = storage.NewRedisBattleStore(redisClient, logger)
		locationStore = storage.NewRedisLocationStore(redisClient, logger)
	}

	// Users and characters are durable state and go to SQLite.
	db, err := storage.OpenSQLite(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer db.Close()

	userStore := storage.NewSQLiteUserStore(db, logger)
	characterStore := storage.NewSQLiteCharacterStore(db, logger)

	rankingService := service.NewRankingService(userStore, logger)
	locationService := service.NewLocationService(locationStore, logger, cfg.BattleRangeKm, cfg.SafeRadiusKm)
	battleService := service.NewBattleService(battleStore, characterStore, service.NewCombatResolver(nil), rankingService, logger)
	matchmakingService := service.NewMatchmakingService(locationService, battleService, characterStore, logger, cfg.InvitationTTL)
	characterService := service.NewCharacterService(characterStore, logger)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	handler.NewBattleHandler(battleService, logger).Register(api)
	handler.NewMatchmakingHandler(matchmakingService, logger).Register(api)
	handler.NewLocationHandler(locationService, logger).Register(api)
	handler.NewRankingHandler(rankingService, logger).Register(api)
	handler.NewCharacterHandler(characterService, logger).Register(api)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	srv := &http.Server{
		Addr:         cfg.ServerPort,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Invitation expiry runs in the background until shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go matchmakingService.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
