package bootstrap

import (
	"context"
	"log"

	"booking-settlement-be/internal/config"
	"booking-settlement-be/internal/controller"
	"booking-settlement-be/internal/handler"
	"booking-settlement-be/internal/pkg/logger"
	"booking-settlement-be/internal/pkg/mailer"
	"booking-settlement-be/internal/pkg/serverutils"
	"booking-settlement-be/internal/repository/memory"
	"booking-settlement-be/internal/repository/unitofwork"
	"booking-settlement-be/internal/service"
	"booking-settlement-be/internal/websocket"
	adminEvents "booking-settlement-be/pkg/admin/events"
	"booking-settlement-be/pkg/admin/refund"
	"booking-settlement-be/pkg/events"
	"booking-settlement-be/pkg/gateway"
	"booking-settlement-be/pkg/ledger"
	"booking-settlement-be/pkg/lock"
	settlement "booking-settlement-be/pkg/refund"

	pktNats "booking-settlement-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	BookingController controller.IBookingController
	AdminController   controller.IAdminController
	PaymentController controller.IPaymentController
	DeskHandler       *handler.DeskHandler

	// Background Services (Exposed for main.go to run)
	NotificationConsumer service.INotificationConsumer
	DeskFeed             *service.DeskFeedService
	WebSocketHub         *websocket.Hub

	// Exposed for tests and tooling
	UowFactory unitofwork.RepositoryFactory
	Settlement service.ISettlementService

	jwtSecret string
	closers   []func()
}

// NewContainer wires the application. A nil db selects the in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database configured, using the in-memory store")
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	}
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	journal := logger.NewIsolatedLogger(cfg.App.ReconciliationLogPath)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	c := &Container{
		UowFactory: uowFactory,
		jwtSecret:  cfg.Auth.JWTSecret,
	}

	// 2. Infrastructure
	// NATS
	var (
		natsPub *pktNats.Publisher
		natsSub *pktNats.Subscriber
		err     error
	)
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			rdb = nil
		}
	}

	watermillLogger := watermill.NewStdLogger(false, false)

	// 3. Event Bus
	// NATS fans settlement events out across instances; without it they stay
	// in-process on a watermill go channel.
	localBus := events.NewChannelBus(watermillLogger)
	c.closers = append(c.closers, func() { _ = localBus.Close() })
	var bus events.Bus = localBus
	if natsPub != nil {
		bus = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub != nil {
		c.closers = append(c.closers, natsSub.Close)
	}
	publisher := adminEvents.NewBusPublisher(bus, sysLogger)

	// Notification queue
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// Booking lock
	var locker lock.Locker
	if rdb != nil {
		locker = lock.NewRedisLocker(rdb, cfg.Settlement.LockTTL)
	} else {
		locker = lock.NewKeyedLocker()
	}

	// Payment gateway
	var gw gateway.Gateway
	if cfg.Payment.MidtransServerKey != "" {
		gw = gateway.NewRetryingGateway(
			gateway.NewMidtransGateway(cfg.Payment.MidtransServerKey, cfg.Payment.MidtransProduction),
			cfg.Payment.MaxAttempts,
			cfg.Payment.RetryBaseDelay,
		)
	} else {
		log.Printf("[WARN] MIDTRANS_SERVER_KEY not set, refunds go to the gateway simulator")
		gw = gateway.NewSimulator()
	}

	// 4. Services
	calculator := settlement.NewCalculator()
	calculator.ProcessingFeeBps = cfg.Settlement.ProcessingFeeBps
	calculator.ProcessingFeeCap = cfg.Settlement.ProcessingFeeCap
	calculator.DeadlineOffset = cfg.Settlement.DeadlineOffset

	reconciler := service.NewReconciliationService(uowFactory, journal, sysLogger, publisher)
	dispatcher := service.NewNotificationDispatcher(pubSub, service.NotificationTopic)

	settlementService := service.NewSettlementService(service.SettlementDependencies{
		UowFactory:     uowFactory,
		Locker:         locker,
		Calculator:     calculator,
		Policy:         settlement.NewPolicy(),
		Gateway:        gw,
		Ledger:         ledger.NewCommissionLedger(uowFactory),
		Notifier:       dispatcher,
		Publisher:      publisher,
		Reconciler:     reconciler,
		Logger:         sysLogger,
		GatewayTimeout: cfg.Payment.GatewayTimeout,
	})
	c.Settlement = settlementService

	refundProcessor := refund.NewProcessor(sysLogger, publisher, settlementService, dispatcher)
	adminService := service.NewAdminService(uowFactory, sysLogger, journal, refundProcessor, reconciler)
	webhookService := service.NewRefundWebhookService(uowFactory, cfg.Payment.MidtransServerKey, publisher, sysLogger)

	c.NotificationConsumer = service.NewNotificationConsumer(pubSub, service.NotificationTopic, emailService, reconciler, sysLogger)

	// 5. Operator desk
	wsLogger := logger.NewIsolatedLogger("logs/desk.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	c.DeskFeed = service.NewDeskFeedService(natsSub, localBus, c.WebSocketHub, emailService, cfg.Settlement.AdminEmail, sysLogger)
	c.DeskHandler = handler.NewDeskHandler(c.WebSocketHub, cfg.Auth.JWTSecret, wsLogger)

	// 6. Controllers
	c.BookingController = controller.NewBookingController(settlementService, memory.NewReplayRepository(cfg.Settlement.IdempotencyTTL))
	c.AdminController = controller.NewAdminController(adminService)
	c.PaymentController = controller.NewPaymentController(webhookService, sysLogger)

	return c
}

// Auth returns the bearer-token middleware shared by protected routes.
func (c *Container) Auth() fiber.Handler {
	return serverutils.JwtMiddleware(c.jwtSecret)
}

// Start runs the background workers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)

	if err := c.NotificationConsumer.Consume(ctx); err != nil {
		return err
	}
	return c.DeskFeed.Start(ctx)
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
