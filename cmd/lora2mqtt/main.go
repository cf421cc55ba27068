// lora2mqtt - LoRa to MQTT gateway
//
// This is the main entry point for the lora2mqtt gateway. It bridges a
// LoRa sensor/actuator network to an MQTT broker, announcing entities
// for Home Assistant auto-discovery and publishing aggregated state.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ovenystas/lora2mqtt/migrations"

	"github.com/ovenystas/lora2mqtt/internal/bridges/lora"
	"github.com/ovenystas/lora2mqtt/internal/infrastructure/config"
	"github.com/ovenystas/lora2mqtt/internal/infrastructure/database"
	"github.com/ovenystas/lora2mqtt/internal/infrastructure/influxdb"
	"github.com/ovenystas/lora2mqtt/internal/infrastructure/logging"
	"github.com/ovenystas/lora2mqtt/internal/infrastructure/mqtt"
	"github.com/ovenystas/lora2mqtt/internal/journal"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	configPath := flag.String("config", getConfigPath(), "path to config.yaml")
	flag.Parse()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting lora2mqtt gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", *configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Device registry is required: without it no sender can be validated
	registry, err := lora.LoadRegistry(cfg.Devices.Path)
	if err != nil {
		return fmt.Errorf("loading device registry: %w", err)
	}
	log.Info("device registry loaded", "path", cfg.Devices.Path, "devices", registry.Len())

	// Catalog loads best-effort: a missing or corrupt snapshot starts empty
	catalog := lora.NewCatalog(cfg.Catalog.Path)
	if loadErr := catalog.Load(); loadErr != nil {
		log.Warn("catalog snapshot unavailable, starting with empty catalog",
			"path", cfg.Catalog.Path,
			"error", loadErr,
		)
	} else {
		log.Info("catalog loaded", "path", cfg.Catalog.Path, "entities", catalog.Len())
	}

	// Frame journal (optional)
	var frameJournal *journal.Repository
	if cfg.Database.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database ready", "path", cfg.Database.Path)

		frameJournal = journal.NewRepository(db.DB)
	}

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.BaseTopic())
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
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
			log.Warn("InfluxDB write failed", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Connect to the radio daemon
	radio, err := lora.ConnectRadio(ctx, lora.RadioConfig{
		Connection:     cfg.Radio.Connection,
		ThisAddress:    uint8(cfg.Radio.ThisAddress), // #nosec G115 -- validated by config
		ConnectTimeout: cfg.GetConnectTimeout(),
		AckTimeout:     cfg.GetAckTimeout(),
	})
	if err != nil {
		return fmt.Errorf("connecting to radio daemon: %w", err)
	}
	defer func() {
		log.Info("closing radio connection")
		if closeErr := radio.Close(); closeErr != nil {
			log.Error("error closing radio", "error", closeErr)
		}
	}()
	radio.SetLogger(log)
	log.Info("radio connected", "connection", cfg.Radio.Connection, "address", cfg.Radio.ThisAddress)

	// Wire the bridge
	bridge := lora.NewBridge(lora.BridgeConfig{
		BaseTopic:       cfg.BaseTopic(),
		DiscoveryPrefix: cfg.DiscoveryPrefix(),
		QoS:             byte(cfg.MQTT.QoS), // #nosec G115 -- validated by config
	}, radio, mqttClient, catalog, registry)
	bridge.SetLogger(log)
	if frameJournal != nil {
		bridge.SetRecorder(frameJournal)
	}
	if influxClient != nil {
		bridge.SetTelemetry(influxClient)
	}
	bridge.Start()

	// Announce the persisted catalog so listeners are current from boot
	bridge.AnnounceAll()

	// Best-effort hello to the network; nodes answer with ping responses
	if pingErr := bridge.SendPing(ctx, int(lora.BroadcastAddress)); pingErr != nil {
		log.Warn("startup ping failed", "error", pingErr)
	}

	log.Info("initialisation complete, gateway running")

	<-ctx.Done()
	log.Info("shutdown signal received")

	return nil
}

// getConfigPath returns the configuration file path from the
// environment or the default.
func getConfigPath() string {
	if path := os.Getenv("LORA2MQTT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
