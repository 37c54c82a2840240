package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-recipe-be/internal/config"
	"ai-recipe-be/internal/controller"
	"ai-recipe-be/internal/pkg/guard"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/pkg/mailer"
	"ai-recipe-be/internal/pkg/metrics"
	"ai-recipe-be/internal/pkg/serverutils"
	"ai-recipe-be/internal/repository/memory"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/internal/service"
	"ai-recipe-be/internal/websocket"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/catalog"
	"ai-recipe-be/pkg/events"
	"ai-recipe-be/pkg/llm/factory"
	pktNats "ai-recipe-be/pkg/nats"
	"ai-recipe-be/pkg/payment"
	"ai-recipe-be/pkg/payment/midtrans"
	"ai-recipe-be/pkg/payment/stripe"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	authRequestsPerMinute = 30
	oauthStateTTL         = 10 * time.Minute
)

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	OAuthController        controller.IOAuthController
	UserController         controller.IUserController
	SubscriptionController controller.ISubscriptionController
	WebhookController      controller.IWebhookController
	RecipeController       controller.IRecipeController
	CartController         controller.ICartController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	WebSocketHub *websocket.Hub
	Metrics      *metrics.Recorder
	Logger       logger.ILogger
	JwtSecret    string

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	recorder := metrics.NewRecorder()
	evaluator := access.NewEvaluator(time.Now)
	c := &Container{Metrics: recorder, Logger: sysLogger, JwtSecret: cfg.App.JwtSecret}

	if cfg.App.JwtSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET is not set")
	}

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Email outbox (in-process queue)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	outbox := service.NewEmailOutbox(pubSub)

	// 3. Redis (optional). Without it the limiter and checkout lock are per-process.
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-memory guards", err)
			_ = rdb.Close()
			rdb = nil
		} else {
			c.closers = append(c.closers, func() { _ = rdb.Close() })
		}
	}

	var (
		loginLimiter guard.Limiter
		locker       guard.Locker
	)
	if rdb != nil {
		loginLimiter = guard.NewRedisLimiter(rdb, "login", cfg.RateLimit.AuthAttempts, cfg.RateLimit.AuthWindow)
		locker = guard.NewRedisLocker(rdb, "lock")
	} else {
		loginLimiter = guard.NewMemoryLimiter(cfg.RateLimit.AuthAttempts, cfg.RateLimit.AuthWindow)
		locker = guard.NewMemoryLocker()
	}

	// 4. Event bus: JetStream when configured, in-process otherwise.
	var (
		publisher  events.Publisher
		subscriber events.Subscriber
	)
	if cfg.App.NatsURL != "" {
		natsPub, pubErr := pktNats.NewPublisher(cfg.App.NatsURL)
		natsSub, subErr := pktNats.NewSubscriber(cfg.App.NatsURL)
		if pubErr == nil && subErr == nil {
			publisher, subscriber = natsPub, natsSub
			c.closers = append(c.closers, natsSub.Close, natsPub.Close)
		} else {
			log.Printf("[WARN] Failed to connect to NATS (pub: %v, sub: %v). Using local event bus", pubErr, subErr)
			if natsPub != nil {
				natsPub.Close()
			}
			if natsSub != nil {
				natsSub.Close()
			}
		}
	}
	if publisher == nil {
		bus := events.NewLocalBus()
		publisher, subscriber = bus, bus
	}

	// 5. Payment providers. Both are registered so webhooks for either verify;
	// PAYMENT_PROVIDER picks the one used for new checkouts.
	gateways := payment.NewRegistry(cfg.Payment.Provider,
		stripe.NewGateway(stripe.Config{
			SecretKey:     cfg.Payment.StripeSecretKey,
			WebhookSecret: cfg.Payment.StripeWebhookSecret,
			Timeout:       cfg.Payment.Timeout,
		}, nil),
		midtrans.NewGateway(midtrans.Config{
			ServerKey:    cfg.Payment.MidtransServerKey,
			IsProduction: cfg.Payment.MidtransProduction,
			Timeout:      cfg.Payment.Timeout,
		}),
	)

	// 6. AI + catalog collaborators
	llmBaseURL := cfg.Ai.OllamaBaseURL
	if cfg.Ai.LLMProvider == "openai" {
		llmBaseURL = cfg.Ai.OpenAIBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  llmBaseURL,
		APIKey:   cfg.Ai.OpenAIAPIKey,
		Timeout:  cfg.Ai.RequestTimeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	catalogClient := catalog.NewClient(catalog.Config{
		BaseURL:    cfg.Catalog.BaseURL,
		APIKey:     cfg.Catalog.APIKey,
		Limit:      cfg.Catalog.ResultLimit,
		CacheTTL:   cfg.Catalog.CacheTTL,
		RatePerSec: cfg.Catalog.RatePerSec,
	})

	// 7. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 8. Services
	authCfg := service.NewAuthConfig(cfg)
	accessGuard := service.NewAccessGuard(uowFactory, evaluator, recorder)

	authService := service.NewAuthService(uowFactory, outbox, publisher, loginLimiter, evaluator, sysLogger, authCfg)
	oauthService := service.NewOAuthService(uowFactory, memory.NewOAuthStateRepository(oauthStateTTL), cfg.OAuth, evaluator, publisher, sysLogger, authCfg)
	userService := service.NewUserService(uowFactory, evaluator)

	reconciler := service.NewPaymentReconciler(uowFactory, gateways, evaluator, publisher, recorder, sysLogger, cfg.Subscription, cfg.Payment.Timeout)
	checkoutService := service.NewCheckoutService(uowFactory, gateways, reconciler, evaluator, locker, publisher, recorder, sysLogger, cfg.Subscription, cfg.Payment.Timeout)
	subscriptionService := service.NewSubscriptionService(uowFactory, evaluator, publisher, recorder, sysLogger, cfg.Subscription)

	recipeService := service.NewRecipeService(uowFactory, accessGuard, llmProvider, evaluator, sysLogger)
	cartService := service.NewCartService(uowFactory, accessGuard, catalogClient, evaluator, sysLogger)

	c.ConsumerService = service.NewConsumerService(pubSub, mailer.Topic, emailService, sysLogger)
	c.NotificationService = service.NewNotificationService(uowFactory, subscriber, outbox, c.WebSocketHub, wsLogger)

	// 9. Controllers
	jwt := serverutils.JwtMiddleware(cfg.App.JwtSecret)
	c.AuthController = controller.NewAuthController(authService, authRequestsPerMinute)
	c.OAuthController = controller.NewOAuthController(oauthService, cfg.App.ClientURL)
	c.UserController = controller.NewUserController(userService, jwt)
	c.SubscriptionController = controller.NewSubscriptionController(checkoutService, reconciler, subscriptionService, jwt)
	c.WebhookController = controller.NewWebhookController(reconciler)
	c.RecipeController = controller.NewRecipeController(recipeService, jwt)
	c.CartController = controller.NewCartController(cartService, jwt)

	return c
}

// Start runs the background workers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) {
	go c.WebSocketHub.Run(ctx)

	go func() {
		if err := c.ConsumerService.Consume(ctx); err != nil {
			c.Logger.Error("Bootstrap", "Email consumer stopped", map[string]interface{}{"error": err.Error()})
		}
	}()

	if err := c.NotificationService.Start(ctx); err != nil {
		c.Logger.Warn("Bootstrap", "Notifications disabled", map[string]interface{}{"error": err.Error()})
	}
}

// Close releases broker and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
