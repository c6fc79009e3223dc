package repositories

import (
	"context"
	"errors"

	"github.com/poofware/liszt-service/internal/models"
)

// ErrConditionFailed is returned by conditional writes whose existence
// precondition did not hold. Nothing is written in that case.
var ErrConditionFailed = errors.New("condition_failed")

/* ───────────── public interfaces ───────────── */

// Reads return (nil, nil) when the record does not exist.

type BuildingRepository interface {
	List(ctx context.Context) ([]*models.Building, error)
	GetByID(ctx context.Context, id string) (*models.Building, error)
	Create(ctx context.Context, b *models.Building) error
	Delete(ctx context.Context, id string) error
}

type UnitRepository interface {
	ListByBuildingID(ctx context.Context, buildingID string) ([]*models.Unit, error)
	GetByID(ctx context.Context, id string) (*models.Unit, error)
	Create(ctx context.Context, u *models.Unit) error
	Delete(ctx context.Context, id string) error

	// AddResident set-adds residentID and stamps updatedAt, only if the unit
	// exists. RemoveResident is the set-difference counterpart.
	AddResident(ctx context.Context, unitID, residentID string, updatedAt int64) error
	RemoveResident(ctx context.Context, unitID, residentID string, updatedAt int64) error
}

type ResidentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Resident, error)
	// GetMany resolves ids in one batch read. Unknown ids are skipped and the
	// result keeps the order of ids.
	GetMany(ctx context.Context, ids []string) ([]*models.Resident, error)
	Create(ctx context.Context, r *models.Resident) error
	Delete(ctx context.Context, id string) error
}

// Tables names the three collections and the units-by-building index.
type Tables struct {
	Buildings       string
	Units           string
	UnitsByBuilding string
	Residents       string
}

// Repositories is the record store handle injected into the services.
type Repositories struct {
	Buildings BuildingRepository
	Units     UnitRepository
	Residents ResidentRepository

	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks that the backing store is reachable.
func (r *Repositories) Ping(ctx context.Context) error {
	if r.ping == nil {
		return nil
	}
	return r.ping(ctx)
}

// Close releases the backing store.
func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

/* ---------- internals shared by backends ---------- */

// orderResidents lays found out in the order of ids, dropping ids that were
// not found.
func orderResidents(ids []string, found map[string]*models.Resident) []*models.Resident {
	out := make([]*models.Resident, 0, len(found))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if r, ok := found[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func nonNil(set []string) []string {
	if set == nil {
		return []string{}
	}
	return set
}
