package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"last-mile-service/internal/adapters/cache"
	"last-mile-service/internal/adapters/distance"
	"last-mile-service/internal/adapters/receipt"
	"last-mile-service/internal/adapters/store"
	"last-mile-service/internal/api"
	"last-mile-service/internal/config"
	"last-mile-service/internal/domain"
	"last-mile-service/internal/platform/db"
	"last-mile-service/internal/platform/obs"
	"last-mile-service/internal/ports"
	"last-mile-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or the remote HTTP store, the
// distance matrix provider, the local SQLite cache) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := obs.Setup(cfg.LogFile, cfg.Debug)

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Fatal(err)
	}
	defaultPrice := cfg.DefaultUnitPrice
	if catalog.DefaultUnitPrice > 0 {
		defaultPrice = catalog.DefaultUnitPrice
	}

	// The local SQLite database backs both the snapshot cache and the
	// completion outbox; the service cannot run offline without it.
	localDB, err := db.OpenSqlite(cfg.CachePath)
	if err != nil {
		logger.Fatal(err)
	}
	defer localDB.Close()

	if err := cache.InitLocalSchema(localDB); err != nil {
		logger.Fatal(err)
	}

	var snapshots ports.SnapshotCache = cache.NewSqliteSnapshotCache(localDB)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, using sqlite snapshot cache")
		} else {
			snapshots = cache.NewRedisSnapshotCache(client)
			logger.WithField("addr", cfg.RedisAddr).Info("redis snapshot cache enabled")
		}
	}
	outbox := cache.NewSqliteOutbox(localDB)

	orderStore, demoMode, err := buildOrderStore(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	if demoMode {
		logger.Warn("no order store configured, running in demo mode")
	}

	var provider ports.DistanceMatrixProvider
	if strings.TrimSpace(cfg.MatrixAPIKey) != "" {
		provider, err = distance.NewMatrixProvider(cfg.MatrixAPIKey, cfg.MatrixBaseURL)
		if err != nil {
			logger.Fatal(err)
		}
	} else {
		logger.Warn("MATRIX_API_KEY not set, distances will be haversine estimates")
	}

	var waypoint *domain.Coordinates
	if cfg.WaypointEnabled {
		wp := cfg.Waypoint
		waypoint = &wp
	} else {
		logger.Warn("security waypoint disabled, routes go straight to deliveries")
	}
	optimizer := &services.Optimizer{
		Store:        orderStore,
		Provider:     provider,
		Fallback:     distance.NewHaversineProvider(),
		Cache:        snapshots,
		Depot:        cfg.Depot,
		DepotName:    cfg.DepotName,
		Waypoint:     waypoint,
		WaypointName: cfg.WaypointName,
	}

	refresher := &services.Refresher{Store: orderStore, Cache: snapshots}

	controller := &services.SessionController{
		Store:            orderStore,
		Refresh:          refresher,
		Outbox:           outbox,
		Renderer:         receipt.NewXlsxRenderer(cfg.ReceiptDir),
		Sharer:           receipt.NewWhatsAppSharer(""),
		DefaultUnitPrice: defaultPrice,
		ListPrice:        catalog.ListPrice,
		WriteTimeout:     5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flusher := &services.Flusher{
		Store:    orderStore,
		Outbox:   outbox,
		Interval: cfg.FlushInterval,
	}
	go flusher.Run(ctx)

	router := api.NewRouter(api.Deps{
		Refresher:        refresher,
		Optimizer:        optimizer,
		Controller:       controller,
		Store:            orderStore,
		Sharer:           receipt.NewWhatsAppSharer(""),
		DefaultUnitPrice: defaultPrice,
	})

	logger.WithField("addr", ":"+cfg.Port).Info("server listening")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}

// buildOrderStore selects the live store backend. DATABASE_URL wins,
// then STORE_BASE_URL; with neither the service runs on demo orders.
func buildOrderStore(cfg *config.Config) (ports.OrderStore, bool, error) {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, false, err
		}
		return store.NewPgOrderStore(pg), false, nil
	}

	if strings.TrimSpace(cfg.StoreBaseURL) != "" {
		s, err := store.NewHTTPOrderStore(cfg.StoreBaseURL)
		if err != nil {
			return nil, false, err
		}
		return s, false, nil
	}

	return nil, true, nil
}
