package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/resort-reservation/internal/config"
	"github.com/iliyamo/resort-reservation/internal/database"
	"github.com/iliyamo/resort-reservation/internal/handler"
	"github.com/iliyamo/resort-reservation/internal/jobs"
	"github.com/iliyamo/resort-reservation/internal/logging"
	"github.com/iliyamo/resort-reservation/internal/queue"
	"github.com/iliyamo/resort-reservation/internal/router"
	"github.com/iliyamo/resort-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}

	bookingCfg := config.LoadBookingConfig()
	booking := service.NewBookingService(service.BookingOptions{
		Store:        service.NewSQLStore(db),
		Publisher:    service.NewQueuePublisher(cfg.RabbitURL, log),
		Logger:       log.WithField("component", "booking"),
		DeletePolicy: service.DeletePolicy(bookingCfg.DeletePolicy),
	})
	catalog := service.NewCatalog(db, cfg.BcryptCost, log.WithField("component", "catalog"))

	e := router.New(log)
	router.RegisterRoutes(e, db, router.Handlers{
		Reservations: handler.NewReservationHandler(booking, catalog),
		Rooms:        handler.NewRoomHandler(catalog, booking),
		RoomTypes:    handler.NewRoomTypeHandler(catalog),
		Services:     handler.NewHotelServiceHandler(catalog),
		Guests:       handler.NewGuestHandler(catalog),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Log:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := jobs.NewScheduler(log)
	if _, err := jobs.RegisterReconciler(sched, bookingCfg.ReconcileCron, booking, log); err != nil {
		log.WithError(err).Fatal("cron setup failed")
	}
	sched.Start()

	consumer := queue.NewConsumer(cfg.RabbitURL, log.WithField("component", "consumer"))
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("reservation consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	<-sched.Stop().Done()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
