package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poofware/liszt-service/internal/config"
	"github.com/poofware/liszt-service/internal/constants"
	"github.com/poofware/liszt-service/internal/repositories"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		AppName:        "liszt-service",
		Env:            "dev",
		AppPort:        "8080",
		AppUrl:         "http://localhost:8080",
		StoreBackend:   backend,
		BuildingsTable: constants.DefaultBuildingsTable,
		UnitsTable:     constants.DefaultUnitsTable,
		UnitsGSI:       constants.DefaultUnitsGSI,
		ResidentsTable: constants.DefaultResidentsTable,
	}
}

func TestNewAppMemory(t *testing.T) {
	a, err := NewApp(testConfig(constants.StoreBackendMemory))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Ping(context.Background()))
	require.NotNil(t, a.BuildingService)
	require.NotNil(t, a.UnitService)
	require.NotNil(t, a.ResidentService)
}

func TestNewAppBolt(t *testing.T) {
	cfg := testConfig(constants.StoreBackendBolt)
	cfg.BoltPath = t.TempDir() + "/liszt.db"

	a, err := NewApp(cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Ping(context.Background()))
}

func TestNewAppUnknownBackend(t *testing.T) {
	_, err := NewApp(testConfig("cassandra"))
	require.Error(t, err)
}

func TestSeedSampleResidencyIsIdempotent(t *testing.T) {
	a := NewAppWithRepositories(testConfig(constants.StoreBackendMemory), repositories.NewMemoryRepositories())
	ctx := context.Background()

	require.NoError(t, a.SeedSampleResidency(ctx))
	require.NoError(t, a.SeedSampleResidency(ctx))

	buildings, err := a.BuildingService.List(ctx)
	require.NoError(t, err)
	require.Len(t, buildings, 1)
	require.Equal(t, constants.SeedBuildingID, buildings[0].BuildingID)

	units, err := a.UnitService.ListByBuilding(ctx, constants.SeedBuildingID)
	require.NoError(t, err)
	require.Len(t, units, 1)

	residents, err := a.UnitService.ListResidents(ctx, constants.SeedUnitID)
	require.NoError(t, err)
	require.Len(t, residents, 1)
	require.Equal(t, constants.SeedResidentID, residents[0].ResidentID)
}
