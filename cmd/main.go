package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fleet-compliance-monitor/internal/config"
	"fleet-compliance-monitor/internal/delivery/http/handler"
	"fleet-compliance-monitor/internal/infrastructure/database/postgres"
	"fleet-compliance-monitor/internal/ingestion"
	"fleet-compliance-monitor/internal/logger"
	"fleet-compliance-monitor/internal/notifier"
	"fleet-compliance-monitor/internal/routes"
	"fleet-compliance-monitor/internal/scheduler"
	checkinUC "fleet-compliance-monitor/internal/usecase/checkin"
	complianceUC "fleet-compliance-monitor/internal/usecase/compliance"
	driverUC "fleet-compliance-monitor/internal/usecase/driver"
	groupUC "fleet-compliance-monitor/internal/usecase/group"
	streakUC "fleet-compliance-monitor/internal/usecase/streak"
	"fleet-compliance-monitor/pkg/mqtt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.MQTT.Broker == "" {
		logger.Fatal("MQTT broker is missing. Please set MQTT_BROKER environment variable.")
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	groupRepo := postgres.NewGroupRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	checkinRepo := postgres.NewCheckinRepository(db)
	complianceRepo := postgres.NewComplianceRepository(db)

	mqttClient := mqtt.NewClient(&mqtt.Config{
		Broker:               cfg.MQTT.Broker,
		ClientID:             cfg.MQTT.ClientID,
		Username:             cfg.MQTT.Username,
		Password:             cfg.MQTT.Password,
		CleanSession:         false,
		KeepAlive:            30,
		ConnectTimeout:       10,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
	}, zap.L())
	if err := mqttClient.Connect(); err != nil {
		logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}
	defer mqttClient.Disconnect()

	notify := notifier.NewMQTTNotifier(mqttClient, &cfg.MQTT, zap.L())

	streakSvc := streakUC.NewService(driverRepo, zap.L())
	checkinSvc := checkinUC.NewService(checkinRepo, driverRepo, groupRepo, streakSvc, notify, zap.L())
	complianceSvc := complianceUC.NewService(complianceRepo, checkinRepo, driverRepo, notify, complianceUC.Thresholds{
		DriverAlert:   cfg.Schedule.DriverAlertThreshold,
		DispatchAlert: cfg.Schedule.DispatchAlertThreshold,
		CongratsPass:  cfg.Schedule.CongratsPassThreshold,
		AlertCooldown: cfg.Schedule.AlertCooldown,
		ReportWindow:  cfg.Schedule.ComplianceWindow,
	}, zap.L())
	checkinSvc.SetPassHandler(complianceSvc)

	sched := scheduler.New(groupRepo, driverRepo, checkinSvc, complianceSvc, streakSvc, notify, cfg.Schedule, zap.L())
	checkinSvc.SetFollowupCanceler(sched)

	groupSvc := groupUC.NewService(groupRepo, sched, zap.L())
	driverSvc := driverUC.NewService(driverRepo, groupRepo, zap.L())

	rootCtx, stopIngestion := context.WithCancel(context.Background())
	consumer := ingestion.NewConsumer(mqttClient, checkinSvc, driverRepo, &cfg.MQTT, cfg.Schedule.MediaDebounceWindow, zap.L())
	if err := consumer.Start(rootCtx); err != nil {
		logger.Fatal("Failed to start ingestion", zap.Error(err))
	}

	if err := sched.Start(rootCtx); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	dashboardHandler := handler.NewDashboardHandler(
		handler.NewDashboardService(groupSvc, checkinSvc, complianceSvc),
	)
	commandHandler := handler.NewCommandHandler(groupSvc, driverSvc, checkinSvc, complianceSvc, sched)

	router := routes.SetupRouter(cfg, db, dashboardHandler, commandHandler)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	sched.Stop()
	stopIngestion()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}
