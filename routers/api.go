package routers

import (
	"context"
	"time"

	"ormperfapi/config"
	"ormperfapi/controllers"
	"ormperfapi/events"
	"ormperfapi/middlewares"
	"ormperfapi/store"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

const fixedPolicy = "fixed"

func Route(api *controllers.API, cfg *config.Config, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middlewares.RequestID(),
		middlewares.RequestLogger(logger),
		middlewares.Recovery(logger),
		middlewares.ErrorHandler(logger),
		middlewares.CORS(),
	)

	fixed := middlewares.NewRateLimiter(middlewares.Policy{
		Name:   fixedPolicy,
		Permit: cfg.RateLimitPermit,
		Window: cfg.RateLimitWindow,
	}, logger).Handler()

	router.GET("/products", fixed, api.GetProductSummaries)

	products := router.Group("/api/products")
	{
		products.GET("", fixed, api.GetProducts)
		products.GET("/:id", api.GetProduct)
		products.POST("", api.CreateProduct)
		products.PUT("/:id", api.UpdateProduct)
		products.DELETE("/:id", api.DeleteProduct)
	}

	performance := router.Group("/api/performance")
	{
		performance.GET("/longquery", api.LongQuery)
		performance.GET("/comparequeries", api.CompareQueries)
		performance.GET("/compareloading", api.CompareLoading)
	}

	router.GET("/api/categories", api.GetCategories)
	router.POST("/api/orders", api.CreateOrder)

	return router
}

// NewAPI opens the store, runs migrations and subscribes the order event
// sinks. The returned func releases the connections.
func NewAPI(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*controllers.API, func(), error) {
	db, err := store.Open(cfg.DBConnectionString, store.Options{
		Logger:      logger,
		LogSQL:      cfg.LogSQL,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, nil, err
	}

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := db.Migrate(migrateCtx); err != nil {
		db.Close()
		return nil, nil, err
	}

	api := controllers.NewAPI()
	api.Store = db
	api.Log = logger
	api.LongQueryDelay = cfg.LongQueryDelay
	api.Events = events.NewNotifier(logger)
	api.Events.SetTimeout(cfg.OrderEventsTimeout)
	api.Events.Subscribe(orderLogger(logger))

	if mailer := orderMailer(cfg); mailer != nil {
		api.Events.Subscribe(mailer)
	}

	var rdb *redis.Client
	if addr := cfg.RedisAddr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   cfg.RedisDB,
		})
		api.Events.Subscribe(events.NewRedisPublisher(rdb, cfg.OrderEventsChannel))
	}

	cleanup := func() {
		if rdb != nil {
			rdb.Close()
		}
		db.Close()
	}
	return api, cleanup, nil
}

func orderLogger(logger zerolog.Logger) events.Subscriber {
	return events.SubscriberFunc(func(ctx context.Context, e events.OrderCreated) error {
		logger.Info().Int("order_id", e.OrderID).Ints("product_ids", e.ProductIDs).Msg("order created")
		return nil
	})
}

// orderMailer is nil unless both SMTP_HOST and ORDER_NOTIFY_TO are set.
func orderMailer(cfg *config.Config) *events.EmailNotifier {
	to := cfg.OrderNotifyRecipients()
	if len(to) == 0 {
		return nil
	}
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return events.NewEmailNotifier(dialer, cfg.SMTPFrom, to)
}
