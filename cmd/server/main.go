package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"whatsapp-agent/internal/account"
	"whatsapp-agent/internal/agent"
	"whatsapp-agent/internal/api"
	"whatsapp-agent/internal/config"
	"whatsapp-agent/internal/conversation"
	"whatsapp-agent/internal/db"
	"whatsapp-agent/internal/watcher"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Session state lives in sqlite so a restart keeps the signed-in user
	database, err := db.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migrated successfully")

	events := api.NewEvents()
	runtime := agent.NewRuntime(conversation.WithEventSink(events))

	store := account.NewStore(database, cfg.Users, cfg.DemoPassword, cfg.Accounts)
	store.OnCurrentChange(runtime.ApplyAccount)
	if err := store.Restore(); err != nil {
		log.Printf("Warning: Failed to restore session: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idleWatcher := watcher.NewIdleWatcher(runtime.Directory(), cfg.IdleTimeout, cfg.IdleCheckInterval)
	idleWatcher.Start(ctx)

	router := api.NewRouter(runtime, store, events, cfg.StaticDir)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Server is shutting down...")

		idleWatcher.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		close(done)
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Static files served from: %s", cfg.StaticDir)
	if idleWatcher.Enabled() {
		log.Printf("Idle conversations end after %v", cfg.IdleTimeout)
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}

	<-done
	log.Println("Server stopped gracefully")
}
