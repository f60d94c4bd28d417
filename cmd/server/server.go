package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gopkg.in/natefinch/lumberjack.v2"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	"github.com/calistree/progression-api/internal/auth"
	"github.com/calistree/progression-api/internal/catalog"
	"github.com/calistree/progression-api/internal/config"
	"github.com/calistree/progression-api/internal/notify"
	"github.com/calistree/progression-api/internal/redis"
	"github.com/calistree/progression-api/internal/repositories/queststate"
	"github.com/calistree/progression-api/internal/repositories/unlocks"
	"github.com/calistree/progression-api/internal/session"
)

var (
	grpcPort int
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the progression server",
	Long:  `Start the progression server: loads the skill and quest catalog, connects the Redis document store, and serves the gRPC health surface.`,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().IntVar(&grpcPort, "port", 0, "gRPC server port (overrides GRPC_PORT)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if grpcPort != 0 {
		cfg.GRPCPort = grpcPort
	}

	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, gracefully stopping")
		cancel()
	}()

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	slog.Info("Catalog loaded",
		"trees", len(cat.Trees()),
		"skills", cat.TotalSkills(),
		"quest_templates", len(cat.QuestTemplates()),
	)

	client, err := redis.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}

	unlockRepo, err := unlocks.NewRedisRepository(&unlocks.Config{Client: client})
	if err != nil {
		return fmt.Errorf("failed to create unlock repository: %w", err)
	}
	questRepo, err := queststate.NewRedisRepository(&queststate.Config{Client: client})
	if err != nil {
		return fmt.Errorf("failed to create quest repository: %w", err)
	}

	var authSvc auth.Service = auth.Anonymous{}
	if cfg.UserID != "" {
		authSvc = auth.NewStatic(cfg.UserID)
	}

	manager, err := session.NewManager(&session.Config{
		Auth:       authSvc,
		Catalog:    cat,
		UnlockRepo: unlockRepo,
		QuestRepo:  questRepo,
		Hub:        notify.NewHub(),
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	// Preload the configured user so startup fails loudly on a broken
	// store instead of on the first request
	if cfg.UserID != "" {
		sess, err := manager.Open(ctx)
		if err != nil {
			return fmt.Errorf("failed to open session for %s: %w", cfg.UserID, err)
		}
		slog.Info("Session preloaded",
			"user_id", sess.UserID,
			"global_level", sess.Skills.GlobalLevel(),
		)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
		),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("gRPC server starting", "port", cfg.GRPCPort)
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down gRPC server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-shutdownCtx.Done():
			slog.Warn("Graceful shutdown timeout exceeded, forcing stop")
			srv.Stop()
		case <-stopped:
			slog.Info("Server stopped gracefully")
		}

		// Drain pending fire-and-forget writes before exiting
		manager.CloseAll()

		return nil
	case err := <-errChan:
		manager.CloseAll()
		return err
	}
}

func setupLogging(cfg *config.Config) {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			Compress:   true,
		}
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}

func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	switch level {
	case grpc_logging.LevelDebug:
		slog.DebugContext(ctx, msg, fields...)
	case grpc_logging.LevelWarn:
		slog.WarnContext(ctx, msg, fields...)
	case grpc_logging.LevelError:
		slog.ErrorContext(ctx, msg, fields...)
	default:
		slog.InfoContext(ctx, msg, fields...)
	}
}
