package bootstrap

import (
	"context"
	"log"
	"strings"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/controller"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/mailer"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/repository/cache"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/internal/service"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/llm/factory"
	"ai-chatbot-be/pkg/metrics"
	pktNats "ai-chatbot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const eventTopic = "domain-events"

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	ChatbotController controller.IChatbotController
	PlanController    controller.IPlanController
	PaymentController controller.IPaymentController
	AdminController   controller.IAdminController
	OAuthController   controller.IOAuthController

	JwtMiddleware fiber.Handler
	Logger        logger.ILogger
	Registry      *prometheus.Registry

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	llmLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
	} else {
		log.Printf("[WARN] SMTP_HOST not set, limit notices will not be emailed")
		emailService = mailer.NewNopEmailService()
	}

	c := &Container{Logger: sysLogger, Registry: registry}

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	bus := events.NewBus(pubSub, eventTopic)

	var forwarder events.Publisher = events.NopPublisher{}
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, cfg.Telemetry.EventStreamName, cfg.Telemetry.EventSubjectRoot)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Caches
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
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	configCache := cache.NewGlobalConfigCache(rdb, cfg.Telemetry.ConfigCacheTTL)
	modelCache := memory.NewModelCache(cfg.Telemetry.ModelCacheTTL)

	// 4. LLM Providers
	providers, skipped := factory.NewRegistryFromSettings(factory.Settings{
		DefaultModel:       cfg.Ai.DefaultModel,
		OllamaBaseURL:      cfg.Ai.OllamaBaseURL,
		OpenAIAPIKey:       cfg.Ai.OpenAIAPIKey,
		OpenAIBaseURL:      cfg.Ai.OpenAIBaseURL,
		HuggingFaceAPIKey:  cfg.Ai.HuggingFaceAPIKey,
		HuggingFaceBaseURL: cfg.Ai.HuggingFaceBaseURL,
		Timeout:            cfg.Ai.RequestTimeout,
	})
	for name, err := range skipped {
		llmLogger.Warn("LLM", "Provider not registered", map[string]interface{}{
			"provider": name,
			"reason":   err.Error(),
		})
	}
	llmLogger.Info("LLM", "Providers registered", map[string]interface{}{
		"providers": strings.Join(providers.Names(), ","),
	})

	// 5. Services
	entitlementService := service.NewEntitlementService(uowFactory, bus, m, sysLogger)
	modelService := service.NewAiModelService(uowFactory, modelCache, sysLogger)
	globalConfigService := service.NewGlobalConfigService(uowFactory, configCache, sysLogger)
	planService := service.NewPlanService(uowFactory, entitlementService)
	chatbotService := service.NewChatbotService(uowFactory, entitlementService, bus, sysLogger)
	chatService := service.NewChatService(
		uowFactory,
		entitlementService,
		modelService,
		globalConfigService,
		providers,
		bus,
		m,
		llmLogger,
	)

	var snapClient service.SnapClient
	if cfg.Payment.MidtransServerKey != "" {
		snapClient = service.NewSnapClient(cfg.Payment.MidtransServerKey, cfg.Payment.MidtransIsProd)
	}
	paymentService := service.NewPaymentService(
		uowFactory,
		entitlementService,
		snapClient,
		cfg.Payment.MidtransServerKey,
		cfg.App.ClientURL,
		bus,
		sysLogger,
	)
	oauthService := service.NewOAuthService(uowFactory, entitlementService, cfg.Auth, sysLogger)

	c.ConsumerService = service.NewConsumerService(
		pubSub,
		bus.Topic(),
		uowFactory,
		forwarder,
		emailService,
		cfg.App.ClientURL+"/pricing",
		m,
		sysLogger,
	)

	// 6. Controllers
	publicLimiter := serverutils.NewRateLimiter(serverutils.RateLimitConfig{
		PerMinute: cfg.RateLimit.PublicChatPerMinute,
		Burst:     cfg.RateLimit.PublicChatBurst,
	})

	c.JwtMiddleware = serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)
	c.ChatController = controller.NewChatController(chatService, publicLimiter, sysLogger)
	c.ChatbotController = controller.NewChatbotController(chatbotService)
	c.PlanController = controller.NewPlanController(planService)
	c.PaymentController = controller.NewPaymentController(paymentService, sysLogger)
	c.AdminController = controller.NewAdminController(modelService, globalConfigService, planService)
	c.OAuthController = controller.NewOAuthController(oauthService, cfg.App.ClientURL, cfg.IsProduction(), sysLogger)

	return c
}

// Close releases the bus, NATS and Redis connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
