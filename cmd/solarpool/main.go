// Solar Pool Core - credential and session core of the solar pool heater
// controller.
//
// It serves the local admin API: first-boot provisioning, login with a
// single idle-expiring session, relay and Wi-Fi control, firmware upload,
// and factory reset. Credentials live in the SQLite-backed NVS store;
// security events go to the audit log and, when enabled, MQTT and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/solarpool-core/migrations"

	"github.com/nerrad567/solarpool-core/internal/api"
	"github.com/nerrad567/solarpool-core/internal/audit"
	"github.com/nerrad567/solarpool-core/internal/auth"
	"github.com/nerrad567/solarpool-core/internal/controller"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/config"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/database"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/logging"
	"github.com/nerrad567/solarpool-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/solarpool-core/internal/nvs"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Configuration file lookup.
const (
	configEnvVar      = "SOLARPOOL_CONFIG"
	defaultConfigPath = "configs/config.yaml"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// It returns when ctx is cancelled or a reboot is requested through the
// API. A process supervisor is expected to restart the binary after a
// reboot request.
func run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	log := logging.Default()
	log.Info("starting Solar Pool Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if configPath == "" {
		log.Warn("config file not found, using defaults", "path", defaultConfigPath)
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.FromConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Credential store
	ns, err := nvs.NewPartition(db).Open(auth.NVSNamespace)
	if err != nil {
		return fmt.Errorf("opening credential namespace: %w", err)
	}
	store := auth.NewStore(ctx, auth.NewGateway(ns), auth.StoreOptions{
		IdleTimeout: cfg.GetSessionIdleTimeout(),
		Logger:      log.Logger,
	})
	log.Info("credential store loaded", "provisioned", store.Status().Provisioned)

	state := controller.New(nil)
	state.SetLogger(log)

	// Audit log
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(audit.RecorderOptions{Logger: log.Logger},
		auditRepo,
		audit.NewLogSink(log),
	)

	deps := api.Deps{
		Config:     cfg.API,
		Firmware:   cfg.Firmware,
		Logger:     log,
		Auth:       store,
		Controller: state,
		Audit:      recorder,
		AuditLog:   auditRepo,
		DB:         db,
		OnReboot:   stop,
		Version:    version,
	}

	// MQTT (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			log.Warn("MQTT unavailable, continuing without it", "error", mqttErr)
		} else {
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			mqttClient.SetLogger(log)
			recorder.AddSink(audit.NewMQTTSink(mqttClient, mqtt.Topics{}.SystemSecurity(), mqttClient.QoS()))
			deps.Publisher = mqttClient
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, cfg.Device.ID)
		if influxErr != nil {
			log.Warn("InfluxDB unavailable, continuing without it", "error", influxErr)
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			recorder.AddSink(audit.NewInfluxSink(influxClient))
			deps.RelayWriter = influxClient
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	recorder.Start(ctx)
	defer recorder.Stop()

	if err := healthCheck(ctx, db); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	server, err := api.New(deps)
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

	log.Info("shutdown requested, cleaning up")

	// Deferred Close() calls run in reverse order: API server, audit
	// recorder, InfluxDB, MQTT, database.

	log.Info("Solar Pool Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SOLARPOOL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig loads the configuration file. A missing file at the default
// path yields the built-in defaults and an empty path; a missing file named
// by SOLARPOOL_CONFIG is an error.
func loadConfig() (*config.Config, string, error) {
	path := getConfigPath()
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if errors.Is(err, fs.ErrNotExist) && os.Getenv(configEnvVar) == "" {
		cfg = config.Default()
		if vErr := cfg.Validate(); vErr != nil {
			return nil, "", vErr
		}
		return cfg, "", nil
	}
	return nil, "", err
}

// healthCheck verifies the required infrastructure is healthy. MQTT and
// InfluxDB are optional and not checked here.
func healthCheck(ctx context.Context, db *database.DB) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}
