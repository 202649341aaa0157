package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"glasspro-backend/config"
	"glasspro-backend/controllers"
	"glasspro-backend/routes"
	"glasspro-backend/services"
	"glasspro-backend/store"
	"glasspro-backend/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Info("No .env file found")
	}

	cfg, err := config.Load("")
	if err != nil {
		utils.Logger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger("glasspro", cfg.LogLevel)

	backend, err := openBackend(cfg)
	if err != nil {
		utils.Logger.Fatalf("Failed to open record store: %v", err)
	}
	notifier, err := openNotifier(cfg)
	if err != nil {
		utils.Logger.Fatalf("Failed to connect to redis: %v", err)
	}
	live := store.NewLive(backend, notifier)
	defer live.Close()

	archiver := services.NewArchiveService(live, cfg.ArchiveSchedule, cfg.ArchiveAfterDays)
	if err := archiver.StartScheduler(); err != nil {
		utils.Logger.Fatalf("Failed to start archive scheduler: %v", err)
	}
	defer archiver.Stop()

	var sender services.MessageSender
	if cfg.SMSEnabled() {
		sender = services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	} else {
		utils.Logger.Warn("Twilio not configured; work order SMS is disabled")
	}

	handler := controllers.NewHandler(live, services.NewNotificationService(sender), cfg.JWTSecret, cfg.JWTExpiry())
	r := routes.SetupRouter(handler, cfg.AllowedOrigins, cfg.JWTSecret)
	printRoutes(r)

	srv, stopStreams := newServer(":"+cfg.Port, r)
	go func() {
		utils.Logger.Infof("Listening on :%s (store=%s)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info("Shutting down...")

	if err := shutdown(srv, stopStreams, 10*time.Second); err != nil {
		utils.Logger.WithError(err).Error("Forced shutdown")
	}
}

// newServer gives every request a context derived from one base context.
// Cancelling it ends open event streams, which would otherwise keep their
// connections busy through Shutdown.
func newServer(addr string, handler http.Handler) (*http.Server, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	return &http.Server{
		Addr:        addr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return base },
	}, cancel
}

func shutdown(srv *http.Server, stopStreams context.CancelFunc, timeout time.Duration) error {
	stopStreams()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func openBackend(cfg config.Config) (store.RecordStore, error) {
	if cfg.StoreDriver != config.StorePostgres {
		utils.Logger.Warn("Using the in-memory record store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}
	db, err := config.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	gs, err := store.NewGormStore(db)
	if err != nil {
		return nil, err
	}
	return gs, nil
}

// openNotifier fans changes out through Redis when configured so that every
// API instance sees every write; otherwise changes stay in this process.
func openNotifier(cfg config.Config) (store.Notifier, error) {
	if cfg.RedisAddr == "" {
		return store.NewLocalNotifier(), nil
	}
	n, err := store.NewRedisNotifier(store.RedisNotifierConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Prefix:   "glasspro",
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.Ping(ctx); err != nil {
		_ = n.Close()
		return nil, err
	}
	return n, nil
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
