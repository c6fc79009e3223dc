package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/poofware/liszt-service/internal/models"
)

// memStore keeps every collection behind one lock, so a conditional update
// is atomic with respect to any other call.
type memStore struct {
	mu        sync.RWMutex
	buildings map[string]models.Building
	units     map[string]models.Unit
	residents map[string]models.Resident
}

// NewMemoryRepositories returns a process-local store. Records are copied in
// and out so callers never share memory with the store.
func NewMemoryRepositories() *Repositories {
	s := &memStore{
		buildings: make(map[string]models.Building),
		units:     make(map[string]models.Unit),
		residents: make(map[string]models.Resident),
	}
	return &Repositories{
		Buildings: &memBuildingRepo{s},
		Units:     &memUnitRepo{s},
		Residents: &memResidentRepo{s},
	}
}

func copyUnit(u models.Unit) *models.Unit {
	u.Residents = append([]string{}, u.Residents...)
	return &u
}

/* ---------- buildings ---------- */

type memBuildingRepo struct{ s *memStore }

func (r *memBuildingRepo) List(_ context.Context) ([]*models.Building, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Building, 0, len(r.s.buildings))
	for _, b := range r.s.buildings {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuildingID < out[j].BuildingID })
	return out, nil
}

func (r *memBuildingRepo) GetByID(_ context.Context, id string) (*models.Building, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.buildings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memBuildingRepo) Create(_ context.Context, b *models.Building) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.buildings[b.BuildingID] = *b
	return nil
}

func (r *memBuildingRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.buildings, id)
	return nil
}

/* ---------- units ---------- */

type memUnitRepo struct{ s *memStore }

func (r *memUnitRepo) ListByBuildingID(_ context.Context, buildingID string) ([]*models.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Unit, 0)
	for _, u := range r.s.units {
		if u.BuildingID == buildingID {
			out = append(out, copyUnit(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

func (r *memUnitRepo) GetByID(_ context.Context, id string) (*models.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.units[id]
	if !ok {
		return nil, nil
	}
	return copyUnit(u), nil
}

func (r *memUnitRepo) Create(_ context.Context, u *models.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.units[u.UnitID] = *copyUnit(*u)
	return nil
}

func (r *memUnitRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.units, id)
	return nil
}

func (r *memUnitRepo) AddResident(_ context.Context, unitID, residentID string, updatedAt int64) error {
	return r.mutate(unitID, updatedAt, func(u *models.Unit) { u.AddResident(residentID) })
}

func (r *memUnitRepo) RemoveResident(_ context.Context, unitID, residentID string, updatedAt int64) error {
	return r.mutate(unitID, updatedAt, func(u *models.Unit) { u.RemoveResident(residentID) })
}

func (r *memUnitRepo) mutate(unitID string, updatedAt int64, fn func(*models.Unit)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.units[unitID]
	if !ok {
		return ErrConditionFailed
	}
	next := copyUnit(u)
	fn(next)
	next.UpdatedAt = updatedAt
	r.s.units[unitID] = *next
	return nil
}

/* ---------- residents ---------- */

type memResidentRepo struct{ s *memStore }

func (r *memResidentRepo) GetByID(_ context.Context, id string) (*models.Resident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.residents[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *memResidentRepo) GetMany(_ context.Context, ids []string) ([]*models.Resident, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := make(map[string]*models.Resident, len(ids))
	for _, id := range ids {
		if res, ok := r.s.residents[id]; ok {
			res := res
			found[id] = &res
		}
	}
	return orderResidents(ids, found), nil
}

func (r *memResidentRepo) Create(_ context.Context, res *models.Resident) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.residents[res.ResidentID] = *res
	return nil
}

func (r *memResidentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.residents, id)
	return nil
}
