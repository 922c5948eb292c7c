package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"learnhub/config"
	"learnhub/database"
	"learnhub/gateway"
	"learnhub/logger"
	"learnhub/routers"
	"learnhub/services"
	"learnhub/utils"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	db := database.ConnectDb(cfg)

	var intents gateway.IntentRegistry = gateway.NewGormIntentRegistry(db)
	if cfg.RedisAddr != "" {
		redisIntents, err := gateway.NewRedisIntentRegistry(context.Background(), cfg.RedisAddr)
		if err != nil {
			appLog.Warn("redis unavailable, keeping intents in the database", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer redisIntents.Close()
			intents = redisIntents
		}
	}

	var mailer services.Mailer = utils.NewLogMailer(appLog)
	if cfg.SendgridApiKey != "" {
		mailer = utils.NewSendgridMailer(cfg.SendgridApiKey, cfg.EmailSender, appLog)
	}

	gw := gateway.NewRazorpay(cfg.RazorpayApiURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.PaymentTimeout)
	outbox := services.NewOutboxDispatcher(db, mailer, appLog)
	reconciler := services.NewReconciler(db, outbox, appLog)

	app := routers.NewApp(routers.Services{
		Users:   services.NewUserService(db, appLog),
		Catalog: services.NewCatalog(db),
		Enrollments: services.NewEnrollmentService(db, gw, intents, outbox, appLog, services.EnrollmentOptions{
			Currency:       cfg.PaymentCurrency,
			IntentTTL:      cfg.IntentTTL,
			GatewayTimeout: cfg.PaymentTimeout,
			AllowMock:      cfg.MockPaymentsEnabled(),
		}),
		Progress:   services.NewProgressService(db, appLog),
		Ratings:    services.NewRatingService(db, appLog),
		Analytics:  services.NewAnalyticsService(db),
		Reconciler: reconciler,
	}, routers.Options{AccessLog: true})

	scheduler := utils.NewReconcileScheduler(reconciler, appLog)
	if err := scheduler.Start(cfg.ReconcileCron); err != nil {
		appLog.Fatal("invalid RECONCILE_CRON", "spec", cfg.ReconcileCron, "error", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		appLog.Info("shutting down")
		scheduler.Stop()
		_ = app.Shutdown()
	}()

	appLog.Info("server is running", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
