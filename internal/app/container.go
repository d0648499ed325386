package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sidecrew/internal/config"
	"sidecrew/internal/database"
	"sidecrew/internal/database/migration"
	dbpostgres "sidecrew/internal/database/postgres"
	"sidecrew/internal/infrastructure/blob"
	"sidecrew/internal/infrastructure/cache"
	"sidecrew/internal/pkg/jwt"
	"sidecrew/internal/pkg/logger"
	"sidecrew/internal/repository"
	"sidecrew/internal/repository/memory"
	"sidecrew/internal/usecase/admin"
	"sidecrew/internal/usecase/auth"
	"sidecrew/internal/usecase/board"
	"sidecrew/internal/usecase/lifecycle"
	"sidecrew/internal/usecase/nearby"
	"sidecrew/internal/usecase/profile"
	"sidecrew/internal/ws"
)

// Container owns every long-lived dependency of the server.
type Container struct {
	Config config.Config
	Log    *logger.Logger

	DB    database.DB
	Store repository.Store
	Cache *cache.Redis
	Blobs blob.Store
	Hub   *ws.Hub

	Nearby    *nearby.Service
	Lifecycle *lifecycle.Service
	Auth      *auth.Service
	Boards    *board.Service
	Admin     *admin.Service
	Profiles  *profile.Service

	stopHub context.CancelFunc
}

func NewContainer(ctx context.Context, cfg config.Config, log *logger.Logger) (*Container, error) {
	log = logger.OrNop(log)
	c := &Container{Config: cfg, Log: log}

	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	c.Store = store

	blobs, err := blob.New(ctx, cfg.Blob, log)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}
	c.Blobs = blobs

	c.Cache = cache.NewRedis(cfg.Redis, log)

	hubCtx, stop := context.WithCancel(context.Background())
	c.Hub = ws.NewHub(log)
	c.stopHub = stop
	go c.Hub.Run(hubCtx)

	c.Nearby = nearby.NewService(store.Repos().Accounts, c.Cache, cfg.Redis.CacheTTL, log)
	c.Lifecycle = lifecycle.NewService(store, c.Hub, c.Nearby, log)
	c.Auth = auth.NewService(
		store.Repos().Accounts,
		jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiresIn, cfg.JWT.RefreshExpiresIn),
		cfg.Admin,
		log,
	)
	c.Boards = board.NewService(store, log)
	c.Admin = admin.NewService(store, c.Lifecycle, c.Nearby, log)
	c.Profiles = profile.NewService(store, c.Admin, c.Nearby, log)

	return c, nil
}

func (c *Container) openStore(ctx context.Context) (repository.Store, error) {
	if c.Config.App.StoreBackend == config.StoreBackendMemory {
		c.Log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := dbpostgres.Connect(connectCtx, c.Config.Database, c.Log)
	if err != nil {
		return nil, err
	}
	c.DB = db

	runner := migration.Runner{Dir: c.Config.App.MigrationsDir, Log: c.Log}
	if err := runner.Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := migration.Verify(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return repository.NewPostgresStore(db), nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.stopHub != nil {
		c.stopHub()
	}
	if c.Blobs != nil {
		errs = append(errs, c.Blobs.Close())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
