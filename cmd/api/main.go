package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/app"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/cache"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/clock"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/config"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/events"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/logging"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/metrics"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/payment"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/storage/memory"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/storage/postgres"
	transporthttp "github.com/AndrewGardhouse/ticketbeast-tdd/internal/transport/http"
	"github.com/AndrewGardhouse/ticketbeast-tdd/migrations"
)

const startupTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(logrus.StandardLogger())
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("api stopped")
	}
}

// storage groups the repositories a backend provides.
type storage struct {
	inventory app.InventoryRepository
	concerts  app.ConcertRepository
	pinger    transporthttp.Pinger
	close     func()
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		rdb       *redis.Client
		publisher message.Publisher
	)
	wmLogger := events.NewWatermillLogger(log.WithField("component", "events"))
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: rdb,
		}, wmLogger)
		if err != nil {
			return fmt.Errorf("redis stream publisher: %w", err)
		}
	} else {
		log.Warn("REDIS_ADDR not set, order events stay in process and listings are not cached")
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}
	defer publisher.Close()

	bus, err := events.NewEventBus(publisher, wmLogger)
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}

	orderEvents := events.NewPublisher(bus)
	clk := clock.NewSystem()
	inventory := app.NewInventory(store.inventory, clk,
		app.WithInventoryLogger(log.WithField("component", "inventory")),
		app.WithInventoryMetrics(m),
		app.WithInventoryEvents(orderEvents),
	)

	concertOpts := []app.ConcertServiceOption{app.WithConcertLogger(log.WithField("component", "concerts"))}
	if rdb != nil {
		concertOpts = append(concertOpts, app.WithListingCache(cache.NewListingCache(rdb, cfg.ListingCacheTTL)))
	}
	concerts := app.NewConcertService(store.concerts, inventory, clk, concertOpts...)

	checkout := app.NewCheckoutService(concerts, inventory, newGateway(cfg, log),
		app.WithOrderEvents(orderEvents),
		app.WithCheckoutMetrics(m),
		app.WithCheckoutLogger(log.WithField("component", "checkout")),
	)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: transporthttp.NewRouter(transporthttp.Dependencies{
			Checkout:    checkout,
			Concerts:    concerts,
			Inventory:   inventory,
			Storage:     store.pinger,
			Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			CORSOrigins: cfg.CORSOrigins,
			Logger:      log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": server.Addr, "storage": cfg.Storage}).Info("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, log *logrus.Logger) (storage, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return storage{inventory: store, concerts: store, pinger: store, close: func() {}}, nil
	}

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return storage{}, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(startupCtx); err != nil {
		pool.Close()
		return storage{}, fmt.Errorf("db ping: %w", err)
	}
	if err := migrations.Apply(startupCtx, pool, log.WithField("component", "migrations")); err != nil {
		pool.Close()
		return storage{}, fmt.Errorf("apply migrations: %w", err)
	}

	concerts := postgres.NewConcertRepository(pool)
	return storage{
		inventory: postgres.NewInventoryRepository(pool),
		concerts:  concerts,
		pinger:    concerts,
		close:     pool.Close,
	}, nil
}

func newGateway(cfg config.Config, log *logrus.Logger) app.PaymentGateway {
	if cfg.PaymentGateway == config.PaymentGatewayHTTP {
		return payment.NewHTTPGateway(cfg.PaymentsURL,
			payment.WithGatewayLogger(log.WithField("component", "payments")),
		)
	}
	log.Warn("using the fake payment gateway, only the test token is accepted")
	return payment.NewFakeGateway()
}
