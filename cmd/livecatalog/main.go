package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.etcd.io/bbolt"

	"github.com/voyagen/livecatalog/internal/auth"
	"github.com/voyagen/livecatalog/internal/cache"
	"github.com/voyagen/livecatalog/internal/catalog"
	"github.com/voyagen/livecatalog/internal/config"
	"github.com/voyagen/livecatalog/internal/fetcher"
	"github.com/voyagen/livecatalog/internal/server"
	"github.com/voyagen/livecatalog/internal/service"
	"github.com/voyagen/livecatalog/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use environment")
	mintSubject := flag.String("mint-token", "", "Print an admin token for this subject and exit (needs ADMIN_JWT_SECRET)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of a token printed by -mint-token")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if *mintSubject != "" {
		if err := mintToken(os.Stdout, cfg, *mintSubject, *tokenTTL); err != nil {
			fmt.Fprintf(os.Stderr, "mint-token: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()

	// Connect to Redis if REDIS_URL is configured. It backs the job queue and
	// the refresh lock whatever the primary store is.
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "redis ping: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "redis connected")
	} else {
		fmt.Fprintln(os.Stderr, "redis disabled (REDIS_URL not set)")
	}

	appStore, closer, err := openStore(ctx, cfg, rds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	live := service.NewLive(appStore, fetcher.NewClient(cfg.Timeout))
	cat := catalog.New(appStore, catalog.FileSeed{Path: cfg.SourcesFile}, live)

	var authz auth.Authorizer
	if cfg.JWTSecret != "" {
		authz = auth.JWT{Secret: []byte(cfg.JWTSecret)}
	} else {
		authz = auth.BearerPresence{}
		fmt.Fprintln(os.Stderr, "WARNING: ADMIN_JWT_SECRET not set; admin API accepts any bearer token")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if rds != nil {
		go runRefreshWorker(ctx, rds, cat, live)
	}
	if cfg.RefreshInterval > 0 {
		go runScheduledRefresh(ctx, cfg.RefreshInterval, rds, cat, live)
	}

	srv := server.New(server.Deps{Catalog: cat, Live: live, Auth: authz, Queue: rds}, cfg)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var noopCloser = closerFunc(func() error { return nil })

// openStore picks the persistence backend: Postgres (fronted by Redis when
// available), then a bbolt file, then Redis alone, then memory.
func openStore(ctx context.Context, cfg *config.Config, rds *cache.Redis) (store.Store, io.Closer, error) {
	switch {
	case cfg.DatabaseURL != "":
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		closer := closerFunc(func() error { pg.Close(); return nil })
		if rds == nil {
			fmt.Fprintln(os.Stderr, "store: postgres")
			return pg, closer, nil
		}
		cs := store.NewCachedStore(pg, rds)
		// Read-through entries may predate the last run's writes.
		if err := cs.Purge(ctx); err != nil {
			log.Printf("store: purge read-through cache: %v", err)
		}
		fmt.Fprintln(os.Stderr, "store: postgres (redis read-through)")
		return cs, closer, nil

	case cfg.BoltPath != "":
		db, err := bbolt.Open(cfg.BoltPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt %s: %w", cfg.BoltPath, err)
		}
		b, err := store.NewBolt(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		fmt.Fprintf(os.Stderr, "store: bolt (%s)\n", cfg.BoltPath)
		return b, db, nil

	case rds != nil:
		fmt.Fprintln(os.Stderr, "store: redis")
		return store.NewRedisStore(rds), noopCloser, nil

	default:
		fmt.Fprintln(os.Stderr, "store: memory (state is lost on restart)")
		return store.NewMemory(), noopCloser, nil
	}
}
