// Command agent runs a headless tracking client for one beacon: it loads the
// owner's device record, subscribes to the owner's MQTT location topic, and
// publishes every sample to the device store until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"beacon-tracker/internal/config"
	"beacon-tracker/internal/infrastructure/database/postgres"
	"beacon-tracker/internal/location"
	"beacon-tracker/internal/logger"
	"beacon-tracker/internal/realtime"
	"beacon-tracker/internal/tracker"
	pkgmqtt "beacon-tracker/pkg/mqtt"
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

	ownerID, err := uuid.Parse(viper.GetString("BEACON_OWNER_ID"))
	if err != nil {
		logger.Fatal("BEACON_OWNER_ID must be a valid UUID", zap.Error(err))
	}
	if cfg.MQTT.Broker == "" {
		logger.Fatal("MQTT_BROKER is required for the tracking agent")
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

	mqttClient := pkgmqtt.NewClient(&pkgmqtt.Config{
		Broker:               cfg.MQTT.Broker,
		ClientID:             cfg.MQTT.ClientID,
		Username:             cfg.MQTT.Username,
		Password:             cfg.MQTT.Password,
		CleanSession:         true,
		KeepAlive:            cfg.MQTT.KeepAlive,
		ConnectTimeout:       cfg.MQTT.ConnectTimeout,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
	})
	if err := mqttClient.Connect(); err != nil {
		logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
	}
	defer mqttClient.Disconnect()

	topic := fmt.Sprintf("%s/%s/location", cfg.MQTT.TopicPrefix, ownerID)
	source := location.NewMQTTSource(mqttClient, topic, byte(cfg.MQTT.QoS))

	hub := realtime.NewHub()
	defer hub.Close()
	deviceRepo := realtime.NewNotifyingRepository(postgres.NewDeviceRepository(db), hub)

	ctrl := tracker.New(deviceRepo, hub, source, location.Options{
		Timeout:      cfg.MQTT.SampleTimeout,
		MaxSampleAge: cfg.MQTT.MaxSampleAge,
	})
	defer ctrl.Teardown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ctrl.Initialize(ctx, ownerID); err != nil {
		cancel()
		logger.Fatal("Failed to initialize tracking", zap.Error(err))
	}
	cancel()

	if !ctrl.LocalDevice().Saved() {
		logger.Fatal("No device registered for this owner; save one through the API first",
			zap.String("owner_id", ownerID.String()))
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), cfg.MQTT.SampleTimeout+5*time.Second)
	err = ctrl.StartTracking(startCtx)
	startCancel()
	if err != nil {
		logger.Fatal("Failed to start tracking", zap.Error(err))
	}

	logger.Info("Tracking started",
		zap.String("owner_id", ownerID.String()),
		zap.String("topic", topic),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctrl.StopTracking()
	logger.Info("Tracking stopped")
}
