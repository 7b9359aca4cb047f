package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/equipnfc/equipment-manager/internal/config"
	"github.com/equipnfc/equipment-manager/internal/database"
	"github.com/equipnfc/equipment-manager/internal/handler"
	"github.com/equipnfc/equipment-manager/internal/middleware"
	"github.com/equipnfc/equipment-manager/internal/queue"
	"github.com/equipnfc/equipment-manager/internal/repository"
	"github.com/equipnfc/equipment-manager/internal/router"
	"github.com/equipnfc/equipment-manager/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the limiter and cache pass through
	// and reset tokens cannot be issued.
	rdb := config.NewRedisClient()

	// repositories
	users := repository.NewUserRepo(db)
	equipments := repository.NewEquipmentRepo(db)
	tags := repository.NewTagRepo(db)
	events := repository.NewEventRepo(db)

	// activity fan-out over RabbitMQ; nil publisher disables it
	var pub service.ActivityPublisher
	if queue.BrokerConfigured() {
		pub = queue.NewPublisher()
		go func() {
			if err := queue.StartActivityConsumer(); err != nil {
				log.Printf("activity consumer stopped: %v", err)
			}
		}()
	}

	// services
	authSvc := service.NewAuthService(cfg, users)
	equipSvc := service.NewEquipmentService(equipments, tags, events, pub)
	var resetStore service.ResetStore
	if rdb != nil {
		resetStore = service.NewRedisResetStore(rdb)
	}
	resetSvc := service.NewPasswordResetService(cfg, users, resetStore,
		&service.LogEmailSender{Enabled: cfg.EmailEnabled, From: cfg.EmailFrom})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Deps{
		Auth:       handler.NewAuthHandler(authSvc, resetSvc),
		Equipments: handler.NewEquipmentHandler(equipSvc),
		JWTSecret:  cfg.JWTSecret,
		Users:      users,
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:      middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
