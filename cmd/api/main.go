package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ironhive/provisiond/internal/api"
	"github.com/ironhive/provisiond/internal/api/debug"
	app "github.com/ironhive/provisiond/internal/app/provisioning"
	"github.com/ironhive/provisiond/internal/config"
	"github.com/ironhive/provisiond/internal/config/fileloader"
	"github.com/ironhive/provisiond/internal/domain/events"
	"github.com/ironhive/provisiond/internal/infra/cluster/kubernetes"
	"github.com/ironhive/provisiond/internal/infra/eventbus/kafka"
	provStore "github.com/ironhive/provisiond/internal/infra/storage/provisioning/postgres"
	"github.com/ironhive/provisiond/pkg/common/logger"
	"github.com/ironhive/provisiond/pkg/common/otel"
)

const serviceType = "api"

func main() {
	// Set the correct number of threads for the service
	_, _ = maxprocs.Set()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}

			// Add any error-specific attributes.
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			// Output the error event with valid JSON details.
			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n",
				r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("PROVISIOND-API-%s", hostname)
	metadata := map[string]string{
		"service":   svcName,
		"hostname":  hostname,
		"pod":       os.Getenv("POD_NAME"),
		"namespace": os.Getenv("POD_NAMESPACE"),
		"app":       serviceType,
	}

	// TODO: Use env var to set log level.
	logg := logger.NewWithMetadata(os.Stdout, logger.LevelDebug, svcName, traceIDFn, logEvents, metadata)

	ctx := context.Background()

	if err := run(ctx, logg, hostname); err != nil {
		logg.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, hostname string) error {
	// -------------------------------------------------------------------------
	// GOMAXPROCS
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration
	cfg, err := config.LoadSettings(os.Getenv("PROVISIOND_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// -------------------------------------------------------------------------
	// Database Support
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("parsing db config: %w", err)
	}
	poolCfg.MinConns = 5
	poolCfg.MaxConns = 25
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("creating db pool: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(ctx, pool); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support
	log.Info(ctx, "startup", "status", "initializing tracing support")

	excludedRoutes := map[string]struct{}{}
	if cfg.Telemetry.ExcludeHealth {
		excludedRoutes["/v1/health"] = struct{}{}
		excludedRoutes["/v1/readiness"] = struct{}{}
	}

	traceProvider, teardown, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		ExporterEndpoint: cfg.Telemetry.Host,
		ExcludedRoutes:   excludedRoutes,
		Probability:      cfg.Telemetry.Probability,
		ResourceAttributes: map[string]string{
			"library.language": "go",
			"k8s.pod.name":     os.Getenv("POD_NAME"),
			"k8s.namespace":    os.Getenv("POD_NAMESPACE"),
			"k8s.container.id": hostname,
		},
		InsecureExporter: true, // TODO: Come back to setup TLS
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer teardown(ctx)

	tracer := traceProvider.Tracer(cfg.Telemetry.ServiceName)

	// -------------------------------------------------------------------------
	// Start Debug Service

	go func() {
		log.Info(ctx, "startup", "status", "debug router started", "host", cfg.API.DebugHost)

		if err := http.ListenAndServe(cfg.API.DebugHost, debug.Mux()); err != nil {
			log.Error(ctx, "shutdown", "status", "debug router closed", "host", cfg.API.DebugHost, "msg", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Event Bus Support
	log.Info(ctx, "startup", "status", "initializing event bus")

	mp, err := otel.NewMeterProvider(cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("creating meter provider: %w", err)
	}

	metricCollector, err := api.NewAPIMetrics(mp)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}

	bus, err := kafka.ConnectWithRetry(&kafka.Config{
		Brokers:           strings.Split(cfg.Kafka.Brokers, ","),
		HostStateTopic:    cfg.Kafka.HostStateTopic,
		ClusterStateTopic: cfg.Kafka.ClusterStateTopic,
		LifecycleTopic:    cfg.Kafka.LifecycleTopic,
		GroupID:           cfg.Kafka.GroupID,
		ClientID:          cfg.Kafka.ClientID,
		ServiceType:       serviceType,
	}, log, metricCollector, tracer)
	if err != nil {
		return fmt.Errorf("connecting event bus: %w", err)
	}

	publisher := kafka.NewDomainEventPublisher(bus, events.NewDomainEventTranslator())

	// -------------------------------------------------------------------------
	// Catalog Support
	catalog, err := fileloader.NewFileLoader(cfg.Catalog.Path).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	// -------------------------------------------------------------------------
	// Leader Election Support

	if cfg.Leader.Enabled {
		coord, err := kubernetes.NewCoordinator(hostname, &kubernetes.K8sConfig{
			Name:         serviceType,
			Namespace:    cfg.Leader.Namespace,
			LeaderLockID: cfg.Leader.LeaderLockID,
			Identity:     cfg.Leader.Identity,
		}, log, tracer)
		if err != nil {
			return fmt.Errorf("creating coordinator: %w", err)
		}
		defer coord.Stop()

		coord.OnLeadershipChange(func(isLeader bool) {
			log.Info(ctx, "leadership changed", "is_leader", isLeader)
		})

		go func() {
			if err := coord.Start(ctx); err != nil {
				log.Error(ctx, "coordinator stopped", "error", err)
			}
		}()
	}

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing API support")

	store := provStore.NewStore(pool, tracer)
	svc := app.NewService(store, publisher, catalog, log, tracer, metricCollector)
	server := api.NewServer(cfg, svc, log, tracer, metricCollector)

	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// TODO: consider moving this to an init container.
// runMigrations uses golang-migrate to apply all up migrations from "db/migrations".
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("could not acquire connection: %w", err)
	}
	defer conn.Release()

	db := stdlib.OpenDBFromPool(pool)

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("could not create pgx driver: %w", err)
	}

	const migrationsPath = "file://db/migrations"
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}
