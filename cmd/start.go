package cmd

import (
	"time"

	"admin-backend/core/apperr"
	"admin-backend/core/cache"
	"admin-backend/core/config"
	"admin-backend/core/loader"
	"admin-backend/core/logger"
	"admin-backend/core/metrics"
	"admin-backend/core/middleware/nocache"
	"admin-backend/core/middleware/requestid"
	"admin-backend/core/ratelimit"
	"admin-backend/core/storage"
	"admin-backend/feature/auth"
	"admin-backend/feature/health"
	"admin-backend/feature/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "admin-backend/docs/swagger"
)

// @title Admin Backend API
// @version 1.0
// @description HTTP API of the admin console.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name admin_session

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the admin backend server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logg, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logg.Sync()

		ctx := cmd.Context()
		db, err := connectDatabase(ctx, cfg, logg)
		if err != nil {
			return err
		}

		m := metrics.New()
		c := newCache(ctx, cfg, logg, m)
		defer c.Backend().Close()
		store := newStorage(ctx, cfg, logg)

		app, err := newApp(cfg, logg, db, c, store, m)
		if err != nil {
			return err
		}

		listenErr := make(chan error, 1)
		go func() {
			logg.Info("Starting server",
				zap.String("port", cfg.Server.Port),
				zap.String("environment", cfg.Server.Environment))
			listenErr <- app.Listen(":" + cfg.Server.Port)
		}()

		select {
		case err := <-listenErr:
			return err
		case <-ctx.Done():
		}
		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	},
}

// newApp wires middleware and features in their fixed order:
// request ID, access log, metrics, no-cache on /api, rate limit, routes.
func newApp(cfg *config.Config, logg *zap.Logger, db *gorm.DB, c *cache.Cache, store storage.Client, m *metrics.Metrics) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          apperr.ErrorHandler(logg),
		BodyLimit:             cfg.Server.BodyLimitMB << 20,
		ReadTimeout:           cfg.Server.RequestTimeout(),
		WriteTimeout:          cfg.Server.RequestTimeout(),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.Server.IsProduction()}))
	app.Use(requestid.New())
	app.Use(accessLog(logg))
	app.Use(m.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, " + requestid.HeaderName,
		ExposeHeaders: requestid.HeaderName + ", " + ratelimit.HeaderLimit + ", " +
			ratelimit.HeaderRemaining + ", " + ratelimit.HeaderReset + ", " + fiber.HeaderRetryAfter,
	}))
	app.Use("/api", nocache.New())

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewLimiter(c.Namespace("ratelimit"), cfg.RateLimit.Max, cfg.RateLimit.Window())
		app.Use(ratelimit.Middleware(limiter, cfg.RateLimit, logg, m))
	}

	app.Get("/metrics", m.Handler())
	app.Get("/swagger/*", swagger.HandlerDefault)

	authSvc := auth.NewService(db, c, cfg.Auth, cfg.Retry, logg)

	mgr := loader.NewManager(logg)
	mgr.Register(health.NewFeature(db, c.Backend(), store, cfg.Storage.Bucket, 2*time.Second, logg))
	mgr.Register(auth.NewFeature(authSvc, logg, cfg.RateLimit.TrustProxy))
	mgr.Register(users.NewFeature(db, authSvc, c, store, cfg.Storage.Bucket, cfg.Retry, logg))

	if err := mgr.LoadAll(app); err != nil {
		return nil, err
	}
	return app, nil
}

// accessLog logs every request once it has been handled.
func accessLog(logg *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = apperr.KindOf(err).Status()
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		logger.WithRequestID(logg, c).Info("Request handled",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		)
		return err
	}
}

func init() {
	RootCmd.AddCommand(startCmd)
}
