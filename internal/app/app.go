package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/poofware/liszt-service/internal/config"
	"github.com/poofware/liszt-service/internal/constants"
	"github.com/poofware/liszt-service/internal/repositories"
	"github.com/poofware/liszt-service/internal/services"
	"github.com/poofware/liszt-service/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App holds the config, the record store and the services built on it.
type App struct {
	Config *config.Config
	Repos  *repositories.Repositories

	BuildingService services.BuildingService
	UnitService     services.UnitService
	ResidentService services.ResidentService
}

// NewApp opens the configured record store and wires the services over it.
func NewApp(cfg *config.Config) (*App, error) {
	utils.Logger.Infof("Initializing %s App with %s store", cfg.AppName, cfg.StoreBackend)

	repos, err := openRepositories(cfg)
	if err != nil {
		return nil, err
	}
	return NewAppWithRepositories(cfg, repos), nil
}

// NewAppWithRepositories wires the services over an already opened store.
func NewAppWithRepositories(cfg *config.Config, repos *repositories.Repositories) *App {
	return &App{
		Config:          cfg,
		Repos:           repos,
		BuildingService: services.NewBuildingService(repos.Buildings),
		UnitService:     services.NewUnitService(repos.Units, repos.Residents),
		ResidentService: services.NewResidentService(repos.Residents, repos.Units),
	}
}

// Ping reports whether the record store is reachable.
func (a *App) Ping(ctx context.Context) error {
	return a.Repos.Ping(ctx)
}

func (a *App) Close() {
	if a.Repos == nil {
		return
	}
	if err := a.Repos.Close(); err != nil {
		utils.Logger.WithError(err).Error("Failed to close record store")
		return
	}
	utils.Logger.Info("Record store closed.")
}

func tablesFor(cfg *config.Config) repositories.Tables {
	return repositories.Tables{
		Buildings:       cfg.BuildingsTable,
		Units:           cfg.UnitsTable,
		UnitsByBuilding: cfg.UnitsGSI,
		Residents:       cfg.ResidentsTable,
	}
}

func openRepositories(cfg *config.Config) (*repositories.Repositories, error) {
	tables := tablesFor(cfg)

	switch cfg.StoreBackend {
	case constants.StoreBackendDynamoDB:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		client, err := repositories.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, fmt.Errorf("create dynamodb client: %w", err)
		}
		return repositories.NewDynamoRepositories(client, tables), nil

	case constants.StoreBackendPostgres:
		pool, err := connectWithRetry(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		return repositories.NewPostgresRepositories(pool, tables), nil

	case constants.StoreBackendBolt:
		return repositories.OpenBoltRepositories(cfg.BoltPath, tables)

	case constants.StoreBackendMemory:
		utils.Logger.Warn("Using in-memory record store; data is lost on restart")
		return repositories.NewMemoryRepositories(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func connectWithRetry(databaseURL string) (*pgxpool.Pool, error) {
	var (
		pool    *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		pool, err = newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("Successfully connected to database on attempt %d", i)
			return pool, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed to connect to database on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		if i == maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// newDBPool closes idle sockets before an upstream proxy does and keeps the
// rest warm with a periodic health check.
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	return pgxpool.ConnectConfig(ctx, cfg)
}
