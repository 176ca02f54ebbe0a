package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/storefront/internal/cfg"
	v1Http "github.com/DRSN-tech/storefront/internal/delivery/v1/http"
	"github.com/DRSN-tech/storefront/internal/infrastructure/kafka"
	"github.com/DRSN-tech/storefront/internal/infrastructure/notification"
	"github.com/DRSN-tech/storefront/internal/infrastructure/payment"
	"github.com/DRSN-tech/storefront/internal/metrics"
	"github.com/DRSN-tech/storefront/internal/repository/memory"
	s3Repo "github.com/DRSN-tech/storefront/internal/repository/minio"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/repository/redis"
	redisConv "github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/closer"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/postgres"
	"github.com/DRSN-tech/storefront/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	shutdownTimeout   = 10 * time.Second
	startupTimeout    = 10 * time.Second
	kafkaTopicTimeout = 10 * time.Second
	throttleScope     = "checkout"
)

// App — собранное приложение: HTTP-сервер и фоновые воркеры.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv      *v1Http.Server
	outboxWorker *kafka.OutboxWorker
	workerCancel context.CancelFunc
}

// NewApp подключает хранилища и брокер, собирает юзкейсы и роутер.
// При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, log logger.Logger) (_ *App, err error) {
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(2*time.Second, log),
	}
	defer func() {
		if err != nil {
			_ = a.closer.Close(context.Background())
		}
	}()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// === PostgreSQL ===
	db, err := initPGDB(ctx, log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.AddFunc("postgres", db.Close)

	tm := tr.NewManager(db.Pool)
	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverter{})
	orderRepo := pgdb.NewOrderRepo(db.Pool, pgdbConv.OrderConverter{})
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverter{})

	// === Redis: кэш каталога и ограничитель оформления ===
	redisClient := clients.NewRedisClient(cfg.Redis)
	if err := redisClient.Ping(ctx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("redis", redisClient.Close)

	catalogCache := redis.NewCatalogCacheRepo(redisClient, redisConv.CatalogConverter{}, cfg.Redis, log)

	var throttle usecase.RateLimiter
	switch cfg.Checkout.ThrottleBackend {
	case config.ThrottleBackendMemory:
		throttle = memory.NewRateLimiter(cfg.Checkout.ThrottleInterval)
	default:
		throttle = redis.NewRateLimiterRepo(redisClient, throttleScope, cfg.Checkout.ThrottleInterval, log)
	}
	log.Infof("checkout throttle: backend=%s interval=%s", cfg.Checkout.ThrottleBackend, cfg.Checkout.ThrottleInterval)

	// === MinIO ===
	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		log.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(ctx, minioClient, cfg.Minio.BucketName); err != nil {
		log.Errorf(err, "failed to initialize MinIO bucket")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)

	// === Kafka и outbox ===
	producer := kafka.NewProducer(log, cfg.Kafka)
	if err := producer.EnsureTopic(kafkaTopicTimeout); err != nil {
		log.Errorf(err, "failed to ensure kafka topic %s", cfg.Kafka.Topic)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })

	a.outboxWorker = kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	notifier := notification.NewOutboxNotifier(outboxRepo, cfg.Notification, log)
	a.closer.Add("notifier", notifier.Wait)

	// === Метрики ===
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// === Юзкейсы ===
	gateway := payment.NewGateway(cfg.Payment, log)

	checkoutUC := usecase.NewCheckoutUC(tm, productRepo, orderRepo, gateway, notifier, m, cfg.Payment.Currency, log)
	paymentUC := usecase.NewPaymentUC(tm, orderRepo, productRepo, gateway, notifier, m, log)
	orderUC := usecase.NewOrderUC(tm, orderRepo, m, log)
	cartUC := usecase.NewCartUC(productRepo, log)
	productUC := usecase.NewProductUC(tm, productRepo, catalogCache, imageRepo, log, cfg.Minio.PublicURL)
	authUC := usecase.NewAuthUC(cfg.Admin.PasswordHash, cfg.Admin.JWTSecret, cfg.Admin.TokenTTL, log)

	// === HTTP ===
	r := chi.NewRouter()
	router := v1Http.NewRouter(r, cfg.Http.SwaggerURL, log)
	router.Init(&v1Http.Deps{
		CheckoutUC: checkoutUC,
		PaymentUC:  paymentUC,
		OrderUC:    orderUC,
		CartUC:     cartUC,
		ProductUC:  productUC,
		AuthUC:     authUC,
		Throttle:   throttle,
		Metrics:    m,
		Gatherer:   registry,
		DB:         db,
	})

	a.httpSrv = v1Http.NewServer(r, cfg.Http)

	return a, nil
}

// Run запускает воркер outbox и HTTP-сервер и блокируется до сигнала или фатальной ошибки.
func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.workerCancel = workerCancel
	a.outboxWorker.Start(workerCtx)
	a.closer.AddFunc("outbox worker", func() {
		a.workerCancel()
		a.outboxWorker.Stop()
	})

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	// closer закрывает в обратном порядке: HTTP-сервер останавливается первым
	a.closer.Add("http server", a.httpSrv.Stop)

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("received %s, stopping gracefully...", sig)
	}

	// === Graceful shutdown ===
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(ctx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
	}

	a.logger.Infof("Application shutdown complete")
	_ = a.logger.Sync()

	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
