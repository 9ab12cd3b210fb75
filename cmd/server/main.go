package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lector-reader/internal/config"
	"lector-reader/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to wire dependencies: %v", err)
	}

	authMiddleware := handler.NewAuthMiddleware(container.AuthService, container.Logger)

	router := handler.NewRouter(handler.Handlers{
		Auth:        handler.NewAuthHandler(container.AuthService, container.AccountRepository, container.Logger),
		Admin:       handler.NewAdminHandler(container.AdminAccountRepository, container.AuthService, container.Config.GetAdminSecret(), container.Logger),
		Entitlement: handler.NewEntitlementHandler(container.EntitlementService, container.Logger),
		Session:     handler.NewSessionHandler(container.SessionService, container.Logger),
		Progress:    handler.NewProgressHandler(container.ProgressService, container.Logger),
		Dashboard:   handler.NewDashboardHandler(container.DashboardService, container.Logger),
		Annotation:  handler.NewAnnotationHandler(container.AnnotationService, container.Logger),
	}, authMiddleware.Middleware, container.Config.GetAllowedOrigins())

	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Server shutdown failed", err)
	}

	container.Logger.Info("Server exited")
}
