package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/poofware/liszt-service/internal/models"
)

func openTestBolt(t *testing.T, path string) *Repositories {
	t.Helper()
	repos, err := OpenBoltRepositories(path, testTables)
	require.NoError(t, err)
	return repos
}

func TestBoltRepositories(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) *Repositories {
		repos := openTestBolt(t, filepath.Join(t.TempDir(), "liszt.db"))
		t.Cleanup(func() { _ = repos.Close() })
		return repos
	})
}

func TestBoltRepositoriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "liszt.db")
	ctx := context.Background()

	repos := openTestBolt(t, path)
	u := &models.Unit{UnitID: uuid.NewString(), Name: "4B", BuildingID: uuid.NewString(), Residents: []string{}}
	require.NoError(t, repos.Units.Create(ctx, u))
	require.NoError(t, repos.Units.AddResident(ctx, u.UnitID, "r-1", 7))
	require.NoError(t, repos.Close())

	repos = openTestBolt(t, path)
	defer repos.Close()

	units, err := repos.Units.ListByBuildingID(ctx, u.BuildingID)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, []string{"r-1"}, units[0].Residents)
	require.Equal(t, int64(7), units[0].UpdatedAt)
}

func TestBoltPingAfterClose(t *testing.T) {
	repos := openTestBolt(t, filepath.Join(t.TempDir(), "liszt.db"))
	require.NoError(t, repos.Close())
	require.Error(t, repos.Ping(context.Background()))
}
