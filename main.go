package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/meinhoongagan/groomly/booking"
	"github.com/meinhoongagan/groomly/config"
	"github.com/meinhoongagan/groomly/controllers"
	"github.com/meinhoongagan/groomly/cron"
	"github.com/meinhoongagan/groomly/db"
	"github.com/meinhoongagan/groomly/events"
	"github.com/meinhoongagan/groomly/lifecycle"
	"github.com/meinhoongagan/groomly/logger"
	"github.com/meinhoongagan/groomly/middleware"
	"github.com/meinhoongagan/groomly/rating"
	"github.com/meinhoongagan/groomly/redis"
	"github.com/meinhoongagan/groomly/repository"
	"github.com/meinhoongagan/groomly/routes"
	"github.com/meinhoongagan/groomly/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("groomly", false).Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logger.New("groomly", cfg.Environment != "production")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	defer db.Close(gdb)
	if cfg.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			log.Error("migration failed", "err", err)
			os.Exit(1)
		}
		log.Info("database migrated")
	}

	store := repository.NewDB(gdb)
	users := repository.NewUserRepository(store)
	services := repository.NewServiceRepository(store)
	appointments := repository.NewAppointmentRepository(store)
	reviews := repository.NewReviewRepository(store)
	audit := repository.NewAuditRepository(store)
	profiles := repository.NewProfileRepository(store)

	rdb, err := redis.Connect(ctx, cfg.RedisAddr, log)
	if err != nil {
		log.Error("redis unavailable", "err", err)
		os.Exit(1)
	}
	var (
		limiter     middleware.Limiter
		ratingCache rating.Cache
		cacheReader controllers.RatingCache
	)
	if rdb != nil {
		defer rdb.Close()
		limiter = redis.NewRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "groomly:ratelimit")
		rc := redis.NewRatingCache(rdb, 24*time.Hour)
		ratingCache, cacheReader = rc, rc
	} else {
		log.Warn("REDIS_ADDR not set; rate limiting and rating cache disabled")
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers, log)
	if kp, ok := publisher.(*events.KafkaPublisher); ok {
		defer kp.Close()
	}

	aggregator := rating.NewAggregator(rating.Store{
		Appointments: appointments,
		Reviews:      reviews,
		Providers:    users,
	}, ratingCache, publisher, log)
	validator := booking.NewValidator(store, services, profiles, appointments, audit, publisher, cfg.Location, log)
	sweeper := lifecycle.NewSweeper(appointments, publisher, log)

	uploader, err := utils.NewUploader(utils.CloudinaryConfig{
		CloudName:    cfg.CloudinaryCloudName,
		APIKey:       cfg.CloudinaryAPIKey,
		APISecret:    cfg.CloudinaryAPISecret,
		UploadPreset: cfg.CloudinaryUploadPreset,
	})
	if err != nil {
		log.Error("cloudinary setup failed", "err", err)
		os.Exit(1)
	}
	var images controllers.ImageStore
	if uploader != nil {
		images = uploader
	}
	mailer := utils.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass, log)

	h := controllers.New(controllers.Deps{
		JWTSecret:    cfg.JWTSecret,
		Location:     cfg.Location,
		Log:          log,
		DB:           store,
		Users:        users,
		Services:     services,
		Appointments: appointments,
		Reviews:      reviews,
		Audit:        audit,
		Profiles:     profiles,
		Booking:      validator,
		Ratings:      aggregator,
		RatingCache:  cacheReader,
		Sweeper:      sweeper,
		Images:       images,
		Mailer:       mailer,
	})

	app := fiber.New(fiber.Config{
		AppName:   "groomly",
		BodyLimit: 6 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.AccessLog(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Origins(),
	}))

	routes.Setup(app, h, routes.Guards{
		Auth: middleware.Protected(cfg.JWTSecret),
		Limit: func(scope string) fiber.Handler {
			return middleware.RateLimit(limiter, scope, log)
		},
	})

	scheduler := cron.NewScheduler(sweeper, aggregator, appointments, mailer, cfg.Location, log)
	if err := scheduler.Register(cron.Schedules{
		Sweep:         cfg.SweepSchedule,
		RatingRefresh: cfg.RatingRefreshSchedule,
		Reminder:      cfg.ReminderSchedule,
	}); err != nil {
		log.Error("cron setup failed", "err", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()
	log.Info("server started", "port", cfg.Port, "env", cfg.Environment)

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
}
