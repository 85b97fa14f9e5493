// Command crossregiond runs the cross-region replication core as a daemon:
// it bootstraps the region registry, starts the health monitor and the
// replication processor, and serves Prometheus metrics.
//
// Usage:
//
//	crossregiond -metrics-addr :9090
//	crossregiond -config regions.json -db postgres -dsn "postgres://..."
//
// With no -config flag a four-region demo topology is used. With no -db
// flag replicated records are kept in memory.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/failover"
	"github.com/meshgrid/crossregion/lifecycle"
	"github.com/meshgrid/crossregion/metrics"
	"github.com/meshgrid/crossregion/monitor"
	"github.com/meshgrid/crossregion/pkg/version"
	"github.com/meshgrid/crossregion/registry"
	"github.com/meshgrid/crossregion/replication"
	"github.com/meshgrid/crossregion/store"
	memorystore "github.com/meshgrid/crossregion/store/memory"
	sqlstore "github.com/meshgrid/crossregion/store/sql"
)

// regionFile is the on-disk region topology format.
type regionFile struct {
	Cluster string `json:"cluster"`
	Regions []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Location  string `json:"location"`
		Endpoint  string `json:"endpoint"`
		LatencyMS int64  `json:"latency_ms"`
		Role      string `json:"role"`
	} `json:"regions"`
}

func main() {
	var (
		configPath    = flag.String("config", "", "Path to region topology JSON (default: built-in demo topology)")
		metricsAddr   = flag.String("metrics-addr", ":9090", "Listen address for the Prometheus metrics endpoint")
		dbDriver      = flag.String("db", "", "Record store database driver: postgres, mysql, or sqlite (default: in-memory)")
		dbDSN         = flag.String("dsn", "", "Database connection string for -db")
		probeInterval = flag.Duration("probe-interval", 5*time.Second, "Health probe interval")
		probeTimeout  = flag.Duration("probe-timeout", 3*time.Second, "Per-probe timeout")
	)
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Info().Str("version", version.Version).Msg("starting crossregiond")

	cluster := "default"
	configs := demoRegions()
	if *configPath != "" {
		var err error
		cluster, configs, err = loadRegions(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load region topology")
		}
	}

	reg, err := registry.New(configs, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap region registry")
	}

	recordStore, closeStore, err := openStore(*dbDriver, *dbDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open record store")
	}
	defer closeStore()

	collector := metrics.NewCollector(cluster)

	coordinator := failover.New(failover.Config{
		Registry: reg,
		Logger:   logger,
		Metrics:  collector,
	})

	mon := monitor.New(monitor.Config{
		Registry: reg,
		Probe:    monitor.NewHTTPProbe(*probeTimeout),
		Failover: coordinator,
		Interval: *probeInterval,
		Logger:   logger,
		Metrics:  collector,
	})

	processor := replication.New(replication.Config{
		Registry: reg,
		Store:    recordStore,
		Logger:   logger,
		Metrics:  collector,
	})

	manager := lifecycle.New(lifecycle.Config{
		Monitor:   mon,
		Processor: processor,
		Logger:    logger,
	})

	metricsServer := metrics.NewServer(*metricsAddr, logger)
	metricsServer.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start background loops")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("received shutdown signal, stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("background loops did not stop cleanly")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("metrics server did not stop cleanly")
	}

	logger.Info().Msg("crossregiond stopped")
}

// loadRegions reads a region topology file. Latencies are given in
// milliseconds; roles default to secondary when omitted.
func loadRegions(path string) (string, []crossregion.RegionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read topology: %w", err)
	}

	var file regionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", nil, fmt.Errorf("parse topology: %w", err)
	}

	cluster := file.Cluster
	if cluster == "" {
		cluster = "default"
	}

	configs := make([]crossregion.RegionConfig, 0, len(file.Regions))
	for _, r := range file.Regions {
		configs = append(configs, crossregion.RegionConfig{
			ID:              r.ID,
			Name:            r.Name,
			Location:        r.Location,
			Endpoint:        r.Endpoint,
			BaselineLatency: time.Duration(r.LatencyMS) * time.Millisecond,
			Role:            crossregion.RegionRole(r.Role),
		})
	}
	return cluster, configs, nil
}

// demoRegions is the built-in four-region topology used when no config
// file is given.
func demoRegions() []crossregion.RegionConfig {
	return []crossregion.RegionConfig{
		{ID: "us-east-1", Name: "US East", Location: "Virginia", Endpoint: "http://localhost:8081", BaselineLatency: 20 * time.Millisecond, Role: crossregion.RolePrimary},
		{ID: "us-west-2", Name: "US West", Location: "Oregon", Endpoint: "http://localhost:8082", BaselineLatency: 65 * time.Millisecond},
		{ID: "eu-west-1", Name: "EU West", Location: "Ireland", Endpoint: "http://localhost:8083", BaselineLatency: 120 * time.Millisecond},
		{ID: "ap-south-1", Name: "AP South", Location: "Mumbai", Endpoint: "http://localhost:8084", BaselineLatency: 180 * time.Millisecond},
	}
}

// openStore opens the record store for the given driver. An empty driver
// selects the in-memory store.
func openStore(driver, dsn string) (store.RecordStore, func(), error) {
	if driver == "" {
		return memorystore.New(), func() {}, nil
	}

	var dialect sqlstore.Dialect
	switch driver {
	case "postgres":
		dialect = sqlstore.DialectPostgres
	case "mysql":
		dialect = sqlstore.DialectMySQL
	case "sqlite":
		driver = "sqlite3"
		dialect = sqlstore.DialectSQLite
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	return sqlstore.New(db, dialect), func() { db.Close() }, nil
}
