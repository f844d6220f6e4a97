package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/libs/grpcx"
	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/slotbook/libs/otel"
	"github.com/md-rashed-zaman/slotbook/libs/runtime"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/consumer"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/grpcserver"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/handlers"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/inbox"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/outbox"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/slotcache"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/store"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	service := config.String("SERVICE_NAME", "slot-service")
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))
	if err := run(service, logger); err != nil {
		logger.Error("slot-service exited", "err", err)
		os.Exit(1)
	}
}

func run(service string, logger *slog.Logger) error {
	port, err := config.Port("PORT", "8080")
	if err != nil {
		return err
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		return err
	}
	loc, err := config.Location("TIMEZONE", "UTC")
	if err != nil {
		return err
	}
	cacheTTL, err := config.Duration("SLOT_CACHE_TTL", time.Minute)
	if err != nil {
		return err
	}
	ratePerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return err
	}
	brokers := config.String("KAFKA_BROKERS", "")

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var (
		catalog   store.Catalog
		pool      *db.Pool
		readiness []runtime.ReadyCheck
	)
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		pool, err = db.Open(ctx, dbURL, db.PoolConfig{})
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migrations.Up(ctx, pool); err != nil {
			return err
		}
		catalog = store.NewPostgres(pool, outbox.NewRepository())
		readiness = append(readiness, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory catalog")
		catalog = store.NewMemory()
	}

	var (
		rdb         *redis.Client
		cacheClient slotcache.Redis
	)
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
		})
		defer rdb.Close()
		cacheClient = rdb
		readiness = append(readiness, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	readiness = append(readiness, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})

	finder := slotcache.New(catalog, cacheClient, logger, slotcache.Config{TTL: cacheTTL, Prefix: service})
	validator := booking.NewValidator(catalog, logger, loc, booking.WithInvalidator(finder))

	mux := runtime.NewBaseMux(readiness...)
	handlers.NewSlotHandler(finder, validator, catalog, logger).Register(mux)

	var limit httpx.Middleware
	if rdb != nil {
		limit = httpx.NewRedisRateLimiter(rdb, ratePerMinute, time.Minute, service+":rl").Middleware(logger, true)
	} else {
		limit = httpx.NewRateLimiter(ratePerMinute).Middleware()
	}
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(config.List("CORS_ALLOWED_ORIGINS"), http.MethodGet, http.MethodPost),
		limit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(httpHandler, service),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(grpcx.UnaryServerLogInterceptor(logger))
	grpcserver.Register(grpcSrv, grpcserver.New(finder, validator, logger))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus(grpcserver.ServiceName, healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", ":"+grpcPort)
		if err != nil {
			return err
		}
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})

	if pool != nil {
		publisher := outbox.NewPublisher(pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		g.Go(func() error {
			publisher.Run(gctx)
			return nil
		})

		eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   config.String("KAFKA_CONSUME_TOPIC", outbox.EventServiceChanged),
		}, consumer.CatalogChanged(finder))
		g.Go(func() error {
			eventConsumer.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		healthSrv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "err", err)
		}
		grpcSrv.GracefulStop()
		logger.Info("servers stopped")
		return nil
	})

	return g.Wait()
}
