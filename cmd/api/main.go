package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos-edge-sync/internal/cache"
	"pos-edge-sync/internal/config"
	"pos-edge-sync/internal/connectivity"
	"pos-edge-sync/internal/gateway"
	"pos-edge-sync/internal/handler"
	"pos-edge-sync/internal/router"
	"pos-edge-sync/internal/service"
	"pos-edge-sync/internal/store"
	possync "pos-edge-sync/internal/sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting POS edge sync daemon...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize local store based on config. Persistence failure is not
	// fatal: the daemon degrades to the in-memory backend so the catalog
	// read path stays usable, but checkout durability is reduced to the
	// process lifetime.
	var localStore store.Store
	switch cfg.Store.Type {
	case "mysql":
		mysqlDB, err := sql.Open("mysql", cfg.Store.MySQLDSN())
		if err == nil {
			err = mysqlDB.Ping()
		}
		if err != nil {
			log.Printf("Warning: MySQL store unavailable, falling back to memory: %v", err)
			localStore = store.NewMemoryStore()
		} else {
			mysqlStore, err := store.NewMySQLStore(mysqlDB)
			if err != nil {
				log.Printf("Warning: MySQL store init failed, falling back to memory: %v", err)
				mysqlDB.Close()
				localStore = store.NewMemoryStore()
			} else {
				localStore = mysqlStore
				log.Println("MySQL store initialized")
			}
		}
	case "memory":
		localStore = store.NewMemoryStore()
		log.Println("Memory store initialized (no durability across restarts)")
	default: // sqlite
		sqliteStore, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Printf("Warning: SQLite store unavailable, falling back to memory: %v", err)
			localStore = store.NewMemoryStore()
		} else {
			localStore = sqliteStore
			log.Println("SQLite store initialized")
		}
	}
	defer localStore.Close()

	// Initialize catalog cache (optional)
	var catalogCache cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed, catalog cache disabled: %v", err)
		} else {
			catalogCache = cache.NewRedisCache(redisClient, "")
			log.Println("Redis catalog cache initialized")
		}
		cancel()
	default: // memory
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		catalogCache = memCache
		log.Println("Memory catalog cache initialized")
	}

	// Remote gateway to the system of record
	remote := gateway.NewHTTPGateway(cfg.Remote.BaseURL, cfg.Remote.Timeout)

	// Connectivity monitor: starts offline until a probe proves otherwise
	monitor := connectivity.NewMonitor(remote.Ping, cfg.Sync.ProbeInterval)
	monitor.Start()
	defer monitor.Stop()

	// Sync core
	events := possync.NewBroadcaster()
	reconciler := possync.NewReconciler(localStore, remote, monitor, events)

	scheduler := service.NewSyncScheduler(reconciler, service.SchedulerConfig{
		Interval: cfg.Sync.Interval,
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Wake a drain on every connectivity transition to online, and mirror
	// transitions onto the UI event stream.
	statusCh, cancelStatusSub := monitor.Subscribe()
	defer cancelStatusSub()
	go func() {
		for status := range statusCh {
			events.Publish(possync.Event{
				Type:   possync.EventConnectivity,
				Online: status == connectivity.Online,
			})
			if status == connectivity.Online {
				scheduler.Wake()
			}
		}
	}()

	// Best-effort wake-signal registration with the remote. Failure only
	// costs sync latency; the periodic timer remains the backstop.
	if cfg.Remote.WebhookURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
		if err := remote.RegisterSyncWebhook(ctx, cfg.Remote.WebhookURL); err != nil {
			log.Printf("Warning: sync webhook registration failed (timer fallback active): %v", err)
		}
		cancel()
	}

	// Initialize services
	catalogService := service.NewCatalogService(localStore, remote, monitor, catalogCache, cfg.Cache.TTL)
	cartService := service.NewCartService(localStore, reconciler)
	settingsService := service.NewSettingsService(localStore)

	// Seed a usable catalog before the first successful remote refresh.
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		catalogService.SeedIfEmpty(ctx)
		cancel()
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	productHandler := handler.NewProductHandler(catalogService)
	cartHandler := handler.NewCartHandler(cartService)
	saleHandler := handler.NewSaleHandler(cartService, reconciler)
	syncHandler := handler.NewSyncHandler(reconciler, scheduler, monitor, events)
	settingsHandler := handler.NewSettingsHandler(settingsService)

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		ProductHandler:  productHandler,
		CartHandler:     cartHandler,
		SaleHandler:     saleHandler,
		SyncHandler:     syncHandler,
		SettingsHandler: settingsHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
