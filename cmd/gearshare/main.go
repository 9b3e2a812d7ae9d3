package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"gearshare/internal/app/commands"
	availabilityapp "gearshare/internal/app/handlers/availability"
	billingapp "gearshare/internal/app/handlers/billing"
	rentalapp "gearshare/internal/app/handlers/rentals"
	"gearshare/internal/app/middleware"
	appoutbox "gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainpricing "gearshare/internal/domain/pricing"
	domainproduct "gearshare/internal/domain/product"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/infra/broker/kafka"
	"gearshare/internal/infra/config"
	mongodb "gearshare/internal/infra/db/mongo"
	ginserver "gearshare/internal/infra/http/gin"
	"gearshare/internal/infra/obs"
	infraoutbox "gearshare/internal/infra/outbox"
	"gearshare/internal/infra/storage/memory"
	redisstore "gearshare/internal/infra/storage/redis"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := getenv("PRODUCT_FIXTURES", "")
	if fixturesPath == "" {
		fixturesPath = filepath.Join("data", "products.json")
	}
	if err := app.loadProductFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("product fixtures load failed", "error", err, "path", fixturesPath)
	}

	for _, worker := range app.workers {
		w := worker
		go func() {
			if err := w(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "error", err)
				stop()
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	products domainproduct.Repository
	workers  []func(context.Context) error
	closers  []func(context.Context) error
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{ready: func() error { return nil }}

	var (
		factory     uow.UoWFactory
		outboxStore appoutbox.Outbox
		locks       policies.ProductLocker = memory.NewProductLocks()
		idemStore   middleware.IdempotencyStore
		mongoDB     *mongodb.Client
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		mongoDB = client
		app.closers = append(app.closers, client.Close)
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		productsRepo := mongodb.NewProductRepository(client.DB)
		app.products = productsRepo
		factory = mongodb.Factory{
			DB:           client.DB,
			ProductsRepo: productsRepo,
			RentalsRepo:  mongodb.NewRentalRepository(client.DB),
			PaymentsRepo: mongodb.NewPaymentRepository(client.DB),
			AttemptsRepo: mongodb.NewAttemptRepository(client.DB),
			InvoicesRepo: mongodb.NewInvoiceRepository(client.DB),
			ReturnsRepo:  mongodb.NewReturnRepository(client.DB),
		}
		durableOutbox := infraoutbox.NewStore(client.DB)
		outboxStore = durableOutbox

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
			worker := &infraoutbox.Worker{
				Store:       durableOutbox,
				Producer:    producer,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			app.workers = append(app.workers, worker.Run)
		}
	case "memory":
		app.products = memory.NewProductRepository()
		memOutbox := memory.NewOutbox()
		factory = memory.Factory{
			ProductsRepo: app.products,
			RentalsRepo:  memory.NewRentalRepository(),
			PaymentsRepo: memory.NewPaymentRepository(),
			AttemptsRepo: memory.NewAttemptRepository(),
			InvoicesRepo: memory.NewInvoiceRepository(),
			ReturnsRepo:  memory.NewReturnRepository(),
			OutboxStore:  memOutbox,
		}
		outboxStore = memOutbox
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.StorageMode)
	}

	switch cfg.IdempotencyBackend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		idemStore = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	case "mongo":
		idemStore = mongodb.NewIdempotencyStore(mongoDB.DB, cfg.IdempotencyTTL)
	default:
		idemStore = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()

	createHandler := &rentalapp.CreateRequestHandler{UoWFactory: factory, Locks: locks, Outbox: outboxStore, Encoder: encoder}
	commands.RegisterHandler(commandBus, rentalapp.CreateRequestCommand{}.Key(), createHandler)

	statusHandler := &rentalapp.UpdateStatusHandler{UoWFactory: factory, Outbox: outboxStore, Encoder: encoder}
	commands.RegisterHandler(commandBus, rentalapp.UpdateStatusCommand{}.Key(), statusHandler)

	deleteHandler := &rentalapp.DeleteRequestHandler{UoWFactory: factory}
	commands.RegisterHandler(commandBus, rentalapp.DeleteRequestCommand{}.Key(), deleteHandler)

	paymentStartHandler := &rentalapp.StartPaymentHandler{UoWFactory: factory, Locks: locks, AttemptTTL: cfg.PaymentAttemptTTL}
	commands.RegisterHandler(commandBus, rentalapp.StartPaymentCommand{}.Key(), paymentStartHandler)

	paymentEventHandler := &billingapp.PaymentEventHandler{UoWFactory: factory, Locks: locks, Outbox: outboxStore, Encoder: encoder, Logger: logger}
	commands.RegisterHandler(commandBus, billingapp.PaymentEventCommand{}.Key(), paymentEventHandler)

	returnHandler := &billingapp.InitiateReturnHandler{UoWFactory: factory}
	commands.RegisterHandler(commandBus, billingapp.InitiateReturnCommand{}.Key(), returnHandler)

	damageHandler := &billingapp.ApplyDamageHandler{UoWFactory: factory, Outbox: outboxStore, Encoder: encoder}
	commands.RegisterHandler(commandBus, billingapp.ApplyDamageCommand{}.Key(), damageHandler)

	queryBus := queries.NewInMemoryBus()
	checkHandler := &availabilityapp.CheckHandler{UoWFactory: factory}
	queries.RegisterHandler(queryBus, availabilityapp.CheckQuery{}.Key(), checkHandler)

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idemStore, nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, nil,
			&kafka.PaymentEventsHandler{Bus: commandBusWithMiddleware, Logger: logger}, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
		topic := cfg.KafkaTopicPrefix + cfg.PaymentEventsTopic
		app.workers = append(app.workers, func(ctx context.Context) error {
			return consumer.Run(ctx, []string{topic})
		})
	}

	app.handlers = ginserver.Handlers{
		Rental:         ginserver.RentalHandler{Commands: commandBusWithMiddleware},
		Availability:   ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
		PaymentWebhook: ginserver.PaymentWebhookHandler{Commands: commandBusWithMiddleware},
		Return:         ginserver.ReturnHandler{Commands: commandBusWithMiddleware},
	}
	return app, nil
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

type productFixture struct {
	ID                string `json:"id"`
	Owner             string `json:"owner"`
	Title             string `json:"title"`
	BaseUnit          string `json:"base_unit"`
	PricePerUnitCents int64  `json:"price_per_unit_cents"`
	Currency          string `json:"currency"`
}

func (a *application) loadProductFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("product fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []productFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		currency := strings.ToUpper(strings.TrimSpace(fx.Currency))
		if currency == "" {
			currency = "USD"
		}
		prod, err := domainproduct.New(domainproduct.CreateParams{
			ID:           domainproduct.ProductID(fx.ID),
			Owner:        domainproduct.OwnerID(fx.Owner),
			Title:        fx.Title,
			BaseUnit:     domainpricing.PeriodUnit(fx.BaseUnit),
			PricePerUnit: money.Money{Amount: fx.PricePerUnitCents, Currency: currency},
			Now:          now,
		})
		if err != nil {
			logger.Error("fixture invalid", "product_id", fx.ID, "error", err)
			continue
		}
		if err := a.products.Save(ctx, prod); err != nil {
			logger.Error("cannot store fixture product", "product_id", fx.ID, "error", err)
			continue
		}
		logger.Info("product fixture imported", "product_id", prod.ID)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
