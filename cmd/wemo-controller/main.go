// wemo-controller - unified smart home control plane
//
// This is the main entry point for the controller. It bridges two
// device families behind one HTTP API:
//   - WeMo smart plugs and switches, discovered and controlled
//     directly on the LAN (UPnP)
//   - Govee plugs and sensors, reached through the vendor's cloud
//     Platform API, with asynchronous events arriving over MQTT
//
// State changes from either family are rebroadcast to Server-Sent
// Events and WebSocket subscribers so dashboards update live.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/phillipkujawa/wemo-controller/internal/api"
	"github.com/phillipkujawa/wemo-controller/internal/events"
	"github.com/phillipkujawa/wemo-controller/internal/govee"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/config"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/influxdb"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/logging"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/mqtt"
	"github.com/phillipkujawa/wemo-controller/internal/wemo"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting wemo-controller",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Event broadcaster feeds every push surface: SSE, WebSocket and
	// the optional telemetry recorder.
	broadcaster := events.NewBroadcaster(cfg.Events.BufferSize)
	broadcaster.SetLogger(log.With("component", "events"))

	// WeMo (LAN) device family
	wemoClient := wemo.NewClient(time.Duration(cfg.WeMo.ControlTimeout) * time.Second)
	wemoClient.SetLogger(log.With("component", "wemo"))
	wemoService := wemo.NewService(wemoClient, broadcaster, time.Duration(cfg.WeMo.DiscoveryWindow)*time.Second)
	wemoService.SetLogger(log.With("component", "wemo"))

	// Govee (cloud) device family
	goveeClient := govee.NewClient(cfg.Govee.BaseURL, cfg.Govee.APIKey, time.Duration(cfg.Govee.Timeout)*time.Second)
	goveeClient.SetLogger(log.With("component", "govee"))
	goveeService := govee.NewService(goveeClient, broadcaster)
	goveeService.SetLogger(log.With("component", "govee"))
	if cfg.Govee.APIKey == "" {
		log.Warn("no Govee API key configured; cloud endpoints will return errors")
	}

	// Optional telemetry sink
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		recorder := influxdb.NewRecorder(influxClient, broadcaster.Subscribe(), log.With("component", "telemetry"))
		go recorder.Run(ctx)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Optional inbound event feed from the vendor broker
	var mqttClient *mqtt.Client
	if cfg.Govee.MQTT.Enabled && cfg.Govee.APIKey != "" {
		mqttClient, err = startEventFeed(cfg, broadcaster, log)
		if err != nil {
			// The feed is a live-update nicety; control still works
			// through REST, so a broker outage must not stop boot.
			log.Warn("event feed unavailable, continuing without it", "error", err)
			mqttClient = nil
		} else {
			defer func() {
				log.Info("disconnecting from event feed")
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing event feed", "error", closeErr)
				}
			}()
		}
	} else {
		log.Info("event feed disabled")
	}

	// Best-effort startup discovery so /devices is populated on boot.
	if cfg.WeMo.DiscoverOnStartup {
		go func() {
			if _, err := wemoService.Discover(ctx); err != nil {
				log.Warn("startup discovery failed", "error", err)
			}
		}()
	}

	// HTTP API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		Events:      cfg.Events,
		Logger:      log.With("component", "api"),
		Wemo:        wemoService,
		Govee:       goveeService,
		Broadcaster: broadcaster,
		MQTT:        mqttClient,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. Event feed (if enabled)
	// 3. InfluxDB (if enabled)

	log.Info("wemo-controller stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses WEMOCTL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WEMOCTL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// startEventFeed connects to the vendor broker and attaches the event
// feed so device notifications are rebroadcast to push subscribers.
func startEventFeed(cfg *config.Config, broadcaster *events.Broadcaster, log *logging.Logger) (*mqtt.Client, error) {
	feedLog := log.With("component", "feed")

	client, err := mqtt.Connect(mqtt.Config{
		Host:     cfg.Govee.MQTT.Host,
		Port:     cfg.Govee.MQTT.Port,
		TLS:      cfg.Govee.MQTT.TLS,
		ClientID: "wemo-controller-" + uuid.NewString(),
		Username: cfg.Govee.APIKey,
		Password: cfg.Govee.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to event broker: %w", err)
	}
	client.SetLogger(feedLog)
	client.SetOnConnect(func() {
		feedLog.Info("event broker connected")
	})
	client.SetOnDisconnect(func(err error) {
		feedLog.Warn("event broker disconnected", "error", err)
	})

	feed := govee.NewFeed(broadcaster, feedLog)
	if err := feed.Attach(client, cfg.Govee.APIKey); err != nil {
		_ = client.Close()
		return nil, err
	}

	feedLog.Info("event feed started",
		"broker", fmt.Sprintf("%s:%d", cfg.Govee.MQTT.Host, cfg.Govee.MQTT.Port),
	)
	return client, nil
}
