// Retimer Core - device class registry daemon
//
// This is the main entry point for the retimer registry service. It
// allocates stable small-integer identifiers for retimer devices,
// exposes them over HTTP and WebSocket, persists an audit trail, and
// optionally announces lifecycle transitions over MQTT and records
// occupancy in InfluxDB.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/georgejguo/retimer-core/internal/api"
	"github.com/georgejguo/retimer-core/internal/audit"
	"github.com/georgejguo/retimer-core/internal/devtree"
	"github.com/georgejguo/retimer-core/internal/infrastructure/config"
	"github.com/georgejguo/retimer-core/internal/infrastructure/database"
	"github.com/georgejguo/retimer-core/internal/infrastructure/influxdb"
	"github.com/georgejguo/retimer-core/internal/infrastructure/logging"
	"github.com/georgejguo/retimer-core/internal/infrastructure/mqtt"
	"github.com/georgejguo/retimer-core/internal/retimer"
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
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup wiring: each component adds a branch
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting retimer core",
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

	// Open database for the audit trail
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
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

	if schemaErr := db.EnsureSchema(ctx); schemaErr != nil {
		return fmt.Errorf("ensuring database schema: %w", schemaErr)
	}

	// Load the device tree (label source). A missing tree is not fatal:
	// labels fall back to "unknown".
	var source retimer.PropertySource
	tree, treeErr := devtree.Load(cfg.DeviceTree.Path)
	if treeErr != nil {
		log.Warn("device tree unavailable, labels will read as unknown",
			"path", cfg.DeviceTree.Path,
			"error", treeErr,
		)
	} else {
		source = tree
		log.Info("device tree loaded", "path", cfg.DeviceTree.Path, "nodes", tree.NodeCount())
	}

	// Initialise the registry and its event fan-out
	registry := retimer.NewRegistry(source, cfg.Allocator.MaxDevices)
	registry.SetLogger(log)

	auditRepo := audit.NewSQLiteRepository(db.DB)
	registry.AddSink(audit.NewRecorder(auditRepo, "core", log.Logger))

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
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

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		registry.AddSink(&mqttAnnouncer{client: mqttClient, logger: log, qos: byte(cfg.MQTT.QoS)})
	} else {
		log.Info("MQTT disabled")
	}

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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		registry.AddSink(&influxRecorder{client: influxClient, capacity: registry.Capacity()})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the API server; its hub broadcasts lifecycle events
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log,
		Registry: registry,
		Audit:    auditRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	registry.AddSink(server.Hub())

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	// Register configured parents
	for _, p := range cfg.Parents {
		h, regErr := registry.Register(&retimer.Parent{Name: p.Name, Node: p.Node})
		if regErr != nil {
			return fmt.Errorf("registering parent %q: %w", p.Name, regErr)
		}
		log.Info("retimer registered", "handle", h.Name(), "parent", p.Name, "node", p.Node)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Detach everything so sinks record a clean shutdown before the
	// deferred Close() calls tear the infrastructure down.
	for _, h := range registry.Handles() {
		registry.Unregister(h)
	}

	log.Info("retimer core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses the RETIMER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RETIMER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// The MQTT and InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// mqttAnnouncer publishes registry lifecycle events to the broker.
// Implements retimer.Sink. Publish failures are logged, never propagated.
type mqttAnnouncer struct {
	client *mqtt.Client
	logger *logging.Logger
	qos    byte
}

func (a *mqttAnnouncer) HandleEvent(e retimer.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		a.logger.Error("failed to marshal lifecycle event", "error", err)
		return
	}

	topics := mqtt.Topics{}
	if err := a.client.Publish(topics.Event(e.Name), payload, a.qos, false); err != nil {
		a.logger.Warn("failed to announce lifecycle event",
			"handle", e.Name,
			"error", err,
		)
	}

	// Retained occupancy so late subscribers see the current count.
	occupancy := strconv.Itoa(e.Live)
	if err := a.client.PublishRetained(topics.Occupancy(), []byte(occupancy)); err != nil {
		a.logger.Warn("failed to publish occupancy", "error", err)
	}
}

// influxRecorder writes lifecycle transitions and occupancy to InfluxDB.
// Implements retimer.Sink. Writes are batched and non-blocking.
type influxRecorder struct {
	client   *influxdb.Client
	capacity int
}

func (r *influxRecorder) HandleEvent(e retimer.Event) {
	r.client.WriteLifecycle(string(e.Type), e.Name, e.ParentNode)
	r.client.WriteOccupancy(e.Live, r.capacity)
}
