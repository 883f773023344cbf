package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"shopkeep/m/internal/api"
	"shopkeep/m/internal/config"
	"shopkeep/m/internal/database"
	"shopkeep/m/internal/inventory"
	"shopkeep/m/internal/logger"
	"shopkeep/m/internal/migrations"
	"shopkeep/m/internal/seed"
	"shopkeep/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	appLogger, err := logger.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		appLogger.Fatal("invalid database driver", zap.Error(err))
	}
	db, err := database.Connect(dialect, cfg.DatabaseDSN, cfg.DBMaxOpenConns)
	if err != nil {
		appLogger.Fatal("failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Run(db, dialect); err != nil {
		appLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	st := store.New(db, dialect)
	svc := inventory.NewService(st, appLogger)

	if err := seed.Roles(ctx, st, cfg.AdminEmail, cfg.AdminPassword, appLogger); err != nil {
		appLogger.Fatal("failed to seed roles", zap.Error(err))
	}
	if cfg.SeedProducts != "" {
		if _, err := seed.LoadProducts(ctx, svc, cfg.SeedProducts, appLogger); err != nil {
			appLogger.Warn("unable to load product catalog", zap.Error(err))
		}
	}

	handler := api.New(svc, st, api.Options{
		Secret:      cfg.Secret,
		TokenTTL:    time.Duration(cfg.TokenTTLHours) * time.Hour,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      appLogger,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("shopkeep server starting", zap.String("port", cfg.HTTPPort), zap.String("driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("server error", zap.Error(err))
		}
	}()

	var grpcServer *grpc.Server
	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	if cfg.GRPCPort != "" {
		grpcServer = startGRPC(healthCtx, cfg.GRPCPort, st, appLogger)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	stopHealth()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	appLogger.Info("server stopped")
}

// startGRPC serves the standard health service and reflection. Health
// reports SERVING while the database answers pings, until ctx is cancelled.
func startGRPC(ctx context.Context, port string, st *store.Store, appLogger *zap.Logger) *grpc.Server {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", port), zap.Error(err))
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go watchHealth(ctx, st, healthServer, 10*time.Second)

	go func() {
		appLogger.Info("grpc health server starting", zap.String("port", port))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()
	return grpcServer
}

type pinger interface {
	Ping(ctx context.Context) error
}

// watchHealth publishes the database's reachability on hs every interval
// and marks every service NOT_SERVING once ctx is done.
func watchHealth(ctx context.Context, db pinger, hs *health.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := db.Ping(pingCtx); err != nil {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
		cancel()
		hs.SetServingStatus("", status)
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
		}
	}
}
