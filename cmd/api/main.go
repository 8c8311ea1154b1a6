package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"stayvista.app/internal/auth"
	"stayvista.app/internal/booking"
	"stayvista.app/internal/config"
	"stayvista.app/internal/httpapi"
	"stayvista.app/internal/media"
	"stayvista.app/internal/obs"
	"stayvista.app/internal/payments"
	"stayvista.app/internal/ratelimit"
	"stayvista.app/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := obs.NewLogger(os.Stdout, cfg.LogLevel).With(
		slog.String("service", "stayvista-api"),
		slog.String("version", version),
	)
	obs.SetLogger(logger)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := obs.Logger()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var traceOut io.Writer
	if cfg.TraceStdout {
		traceOut = os.Stdout
	}
	shutdownTracing, err := obs.SetupTracing("stayvista-api", version, traceOut)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	store, ready, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	codec, err := auth.NewCodec([]byte(cfg.AuthSecret), auth.WithLifetime(cfg.TokenTTL))
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	limiter, closeLimiter := newLimiter(gctx, g, cfg)
	defer closeLimiter()

	proxies, err := cfg.Proxies()
	if err != nil {
		return err
	}
	opts := httpapi.Options{
		Version:         version,
		Production:      cfg.Production(),
		ForbiddenStatus: cfg.ForbiddenStatus,
		CORSOrigins:     cfg.CORSOrigins,
		TrustedProxies:  proxies,
		Ready:           ready,
		Limiter:         limiter,
	}
	if cfg.StripeKey != "" {
		gw, err := payments.NewStripe(cfg.StripeKey, payments.WithCurrency(cfg.PaymentCurrency))
		if err != nil {
			return err
		}
		opts.Payments = gw
	} else {
		logger.Warn("payments disabled: no stripe key configured")
	}
	if cfg.S3Bucket != "" {
		up, err := media.NewUploader(ctx, media.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return err
		}
		opts.Uploads = up
	}

	api := httpapi.New(codec, store, opts)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		logger.Info("http_listening", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http listen: %w", err)
		}
		return nil
	})

	if cfg.GRPCAddr != "" {
		health := httpapi.NewGRPCServer(ready, version)
		gsrv := health.NewServer()
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		g.Go(func() error {
			logger.Info("grpc_listening", slog.String("addr", cfg.GRPCAddr))
			return gsrv.Serve(lis)
		})
		g.Go(func() error {
			health.Run(gctx, 10*time.Second)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			gsrv.GracefulStop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting_down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	logger.Info("stopped")
	return err
}

type readiness interface {
	Check(ctx context.Context) error
}

// openStore connects to PostgreSQL and applies migrations when a DSN is set;
// otherwise it falls back to the in-memory store.
func openStore(ctx context.Context, cfg config.Config) (booking.Store, readiness, func(), error) {
	if cfg.PGDSN == "" {
		obs.Logger().Warn("no database configured, using in-memory store")
		return booking.NewInMemory(), httpapi.ReadyProbe{}, func() {}, nil
	}
	st, err := pg.Open(cfg.PGDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pg.MigrateUp(mctx, st.DB()); err != nil {
		_ = st.Close()
		return nil, nil, nil, err
	}
	return st, httpapi.ReadyProbe{DB: st}, func() { _ = st.Close() }, nil
}

// newLimiter shares token-issuance budgets through Redis when configured.
func newLimiter(ctx context.Context, g *errgroup.Group, cfg config.Config) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return ratelimit.NewRedis(client, cfg.RateBurst, time.Second), func() { _ = client.Close() }
	}
	local := ratelimit.NewLocal(cfg.RatePerSec, cfg.RateBurst)
	g.Go(func() error {
		local.Run(ctx, time.Minute)
		return nil
	})
	return local, func() {}
}
