package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/api"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/config"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/db"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/localstore"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/messaging"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/notify"
	outboxinfra "github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/outbox"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/infrastructure/scheduler"
	"github.com/RodolfoDevApp/eventshop-pos-sync-go/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	log.Printf("Starting pos sync on port %s (device %s, queue backend %s)", cfg.HttpPort, cfg.DeviceID, cfg.QueueBackend)

	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	medium, closeMedium, err := openMedium(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open local queue: %v", err)
	}
	defer closeMedium()

	// El store remoto puede no estar disponible al arrancar; el till sigue offline.
	dbConn, err := sql.Open("pgx", cfg.PgDsn)
	if err != nil {
		log.Fatalf("failed to open postgres: %v", err)
	}
	defer dbConn.Close()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Printf("postgres not reachable at startup, writes will be queued: %v", err)
	} else if cfg.PgEnsureSchema {
		// solo desarrollo; en producción el esquema es del store central
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			log.Fatalf("failed to apply schema: %v", err)
		}
		log.Printf("POS schema ensured")
	}

	callTimeout := time.Duration(cfg.RemoteCallTimeoutMs) * time.Millisecond

	// Local queue + conflict log
	queues := application.NewQueues(medium, application.DefaultStorageBackoff, callTimeout)
	conflicts := application.NewConflictLog(medium, application.DefaultStorageBackoff, callTimeout)

	// Notification sinks
	hub := notify.NewHub(logger)
	defer hub.Close()
	sinks := notify.Fanout{notify.NewLogNotifier(logger), hub}

	// Outbox -> pos.sync.events
	var outboxScheduler *outboxinfra.Scheduler
	if cfg.RabbitEnabled {
		outboxRepo := localstore.NewOutboxRepository(medium)
		outboxWriter := application.NewOutboxWriter(outboxRepo, application.DefaultStorageBackoff, callTimeout)
		sinks = append(sinks, notify.NewOutboxNotifier(outboxWriter, cfg.DeviceID))

		notificationBus := messaging.NewNotificationBus(cfg.RabbitUri, cfg.DeviceID)
		dispatcher := outboxinfra.NewDispatcher(
			outboxRepo,
			notificationBus,
			cfg.OutboxMaxRetry,
			cfg.OutboxBatchSize,
		)
		outboxScheduler = outboxinfra.NewScheduler(dispatcher, cfg.OutboxIntervalSec)
		outboxScheduler.Start(ctx)
	}

	// Sync engine + monitor
	state := domain.NewSyncState(cfg.InitialOnline)
	remote := db.NewPgRemoteStore(dbConn)
	engine := application.NewSyncEngine(queues, conflicts, remote, sinks, state, callTimeout, logger)
	monitor := application.NewConnectivityMonitor(state, logger)
	writer := application.NewOfflineWriter(queues, engine, state, monitor, logger)
	resolver := application.NewConflictResolver(conflicts, queues.StockUpdates(), engine, logger)

	runner := scheduler.NewSyncRunner(engine, monitor.Triggers(), monitor, cfg.SyncRetryIntervalSec, logger)
	runner.Start(ctx)

	// Lo que quedó en cola de la sesión anterior
	if !state.IsOffline() {
		monitor.RequestPass()
	}

	// Suscripciones
	if cfg.RabbitEnabled {
		deviceBus := messaging.NewDeviceEventBus(cfg.RabbitUri, cfg.DeviceID)
		connectivityHandler := application.NewConnectivityChangedHandler(monitor, cfg.DeviceID)
		if err := messaging.RegisterConnectivitySubscriptions(ctx, deviceBus, connectivityHandler); err != nil {
			log.Printf("connectivity events unavailable, relying on HTTP pushes: %v", err)
		}
	}

	// HTTP API
	apiServer := api.NewServer(api.Deps{
		State:         state,
		Queues:        queues,
		Conflicts:     conflicts,
		Engine:        engine,
		Monitor:       monitor,
		Writer:        writer,
		Resolver:      resolver,
		Notifications: hub,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.HttpPort,
		Handler:           apiServer.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening on :%s", cfg.HttpPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// Esperar señal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Shutting down pos sync, signal: %s", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	cancel()
	select {
	case <-runner.Done():
	case <-shutdownCtx.Done():
		log.Printf("sync runner did not stop in time")
	}

	// una pasada lanzada por HTTP no depende del runner
	passDone := make(chan struct{})
	go func() {
		engine.Wait()
		close(passDone)
	}()
	select {
	case <-passDone:
	case <-shutdownCtx.Done():
		log.Printf("sync pass did not finish in time")
	}
	if outboxScheduler != nil {
		<-outboxScheduler.Done()
	}
}

func openMedium(ctx context.Context, cfg config.Config) (domain.QueueMedium, func(), error) {
	switch cfg.QueueBackend {
	case "redis":
		m, err := localstore.NewRedisMedium(cfg.RedisUrl, "pos-sync:"+cfg.DeviceID)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	case "memory":
		log.Printf("WARNING: memory queue backend, pending writes are lost on restart")
		return localstore.NewMemoryMedium(), func() {}, nil
	default:
		m, err := localstore.OpenSqliteMedium(ctx, cfg.QueueDbPath)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	}
}
