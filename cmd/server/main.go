package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"personal-calendar/internal/account"
	"personal-calendar/internal/archive"
	"personal-calendar/internal/config"
	"personal-calendar/internal/handler"
	"personal-calendar/internal/logger"
	"personal-calendar/internal/mail"
	"personal-calendar/internal/middleware"
	"personal-calendar/internal/reminder"
	"personal-calendar/internal/store"
	"personal-calendar/internal/tasksplit"
	"personal-calendar/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	dsn := cfg.SQLitePath
	if cfg.DBDriver == "postgres" {
		dsn = cfg.DatabaseURL
	}
	repo, err := store.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return err
	}
	defer repo.Close()
	log.Info("store ready", zap.String("driver", cfg.DBDriver))

	accounts := account.New(repo, log)

	scanner, err := reminder.New(repo, mail.New(cfg.SMTP, log), log, cfg.ReminderSchedule)
	if err != nil {
		return err
	}

	splitter, err := tasksplit.New(cfg.LLM, log)
	if err != nil {
		return err
	}

	var arc archive.Archiver
	if s3, err := archive.New(ctx, cfg.S3, log); err != nil {
		return err
	} else if s3 != nil {
		arc = s3
		log.Info("export archive enabled", zap.String("bucket", cfg.S3.Bucket))
	}

	rl := middleware.NewRateLimiter(ctx, 5, 10)

	// grpc
	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rl),
			middleware.Auth(cfg.SessionSecret),
		),
	)
	handler.Register(grpcSrv, handler.New(accounts, repo, splitter, cfg.SessionSecret, cfg.SessionTTL, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	// web
	site, err := web.New(web.Deps{
		Accounts: accounts,
		Events:   repo,
		Splitter: splitter,
		Archive:  arc,
		Limiter:  rl,
		Secret:   cfg.SessionSecret,
		TTL:      cfg.SessionTTL,
		Log:      log,
	})
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           site.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scanner.Run(ctx)
		return nil
	})
	g.Go(func() error {
		log.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		grpcSrv.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
