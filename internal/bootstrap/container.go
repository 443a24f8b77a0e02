package bootstrap

import (
	"context"
	"log"
	"time"

	"multisite-be/internal/config"
	"multisite-be/internal/controller"
	"multisite-be/internal/pkg/logger"
	"multisite-be/internal/pkg/serverutils"
	"multisite-be/internal/repository/unitofwork"
	"multisite-be/internal/service"
	"multisite-be/internal/websocket"
	"multisite-be/pkg/multisite"

	pktNats "multisite-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SiteTreeController controller.ISiteTreeController
	ContentController  controller.IContentController
	JwtMiddleware      fiber.Handler

	// Services (exposed for main.go and the seed command)
	SiteTreeService service.ISiteTreeService
	ConsumerService service.IConsumerService
	Logger          logger.ILogger

	// Live site change feed
	WebSocketHub *websocket.Hub

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	var forwarders []service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarders = append(forwarders, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// Redis
	rdb := newRedisClient(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSockets
	c.WebSocketHub = websocket.NewHub(rdb, sysLogger)
	forwarders = append(forwarders, c.WebSocketHub)

	// 3. Multisite core
	directory := service.NewSiteDirectory(uowFactory, cfg.Multisite.DefaultSiteID, rdb, sysLogger)
	guard := multisite.NewBootstrapGuard(multisite.BootstrapConfig{
		Enabled:       cfg.Multisite.FixtureMode,
		DefaultSiteID: cfg.Multisite.DefaultSiteID,
		Title:         cfg.Multisite.DefaultSiteTitle,
	}, directory, sysLogger)
	engine := multisite.NewEngine(directory, guard, sysLogger)
	homePolicy := multisite.NewHomePolicy(cfg.Multisite.HomeSegment)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventTopic, uowFactory, forwarders, sysLogger)
	c.SiteTreeService = service.NewSiteTreeService(
		uowFactory,
		engine,
		directory,
		homePolicy,
		publisherService,
		cfg.App.BaseURL,
		cfg.Multisite.DefaultSiteID,
		sysLogger,
	)

	// 5. Controllers
	c.SiteTreeController = controller.NewSiteTreeController(c.SiteTreeService)
	c.ContentController = controller.NewContentController(c.SiteTreeService, directory, homePolicy)
	c.JwtMiddleware = serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)

	return c
}

// Close releases the connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newRedisClient(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: redisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Host cache stays in process", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
