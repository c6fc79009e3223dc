package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/poofware/liszt-service/internal/models"
	"github.com/poofware/liszt-service/internal/utils"
)

// indexSep separates building id and unit id in index keys. Ids are UUIDs and
// never contain it.
const indexSep = '/'

type boltStore struct {
	db     *bolt.DB
	tables Tables
}

// OpenBoltRepositories opens (creating if needed) a bbolt file at path with
// one bucket per collection and one bucket for the units-by-building index.
func OpenBoltRepositories(path string, tables Tables) (*Repositories, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("unable to create directory for %s: %w", path, err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open boltdb file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{tables.Buildings, tables.Units, tables.UnitsByBuilding, tables.Residents} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	utils.Logger.WithField("path", path).Info("Bolt record store opened")

	s := &boltStore{db: db, tables: tables}
	return &Repositories{
		Buildings: &boltBuildingRepo{s},
		Units:     &boltUnitRepo{s},
		Residents: &boltResidentRepo{s},
		ping: func(context.Context) error {
			return db.View(func(*bolt.Tx) error { return nil })
		},
		close: db.Close,
	}, nil
}

func unitIndexKey(buildingID, unitID string) []byte {
	return []byte(buildingID + string(indexSep) + unitID)
}

func boltGet[T any](tx *bolt.Tx, bucket, id string) (*T, error) {
	raw := tx.Bucket([]byte(bucket)).Get([]byte(id))
	if raw == nil {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", bucket, id, err)
	}
	return &out, nil
}

func boltPut(tx *bolt.Tx, bucket, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(bucket)).Put([]byte(id), raw)
}

/* ---------- buildings ---------- */

type boltBuildingRepo struct{ s *boltStore }

func (r *boltBuildingRepo) List(_ context.Context) ([]*models.Building, error) {
	out := make([]*models.Building, 0)
	err := r.s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(r.s.tables.Buildings)).ForEach(func(k, v []byte) error {
			var b models.Building
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("decode building %s: %w", k, err)
			}
			out = append(out, &b)
			return nil
		})
	})
	return out, err
}

func (r *boltBuildingRepo) GetByID(_ context.Context, id string) (b *models.Building, err error) {
	err = r.s.db.View(func(tx *bolt.Tx) error {
		b, err = boltGet[models.Building](tx, r.s.tables.Buildings, id)
		return err
	})
	return b, err
}

func (r *boltBuildingRepo) Create(_ context.Context, b *models.Building) error {
	return r.s.db.Update(func(tx *bolt.Tx) error {
		return boltPut(tx, r.s.tables.Buildings, b.BuildingID, b)
	})
}

func (r *boltBuildingRepo) Delete(_ context.Context, id string) error {
	return r.s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(r.s.tables.Buildings)).Delete([]byte(id))
	})
}

/* ---------- units ---------- */

type boltUnitRepo struct{ s *boltStore }

func (r *boltUnitRepo) ListByBuildingID(_ context.Context, buildingID string) ([]*models.Unit, error) {
	out := make([]*models.Unit, 0)
	prefix := []byte(buildingID + string(indexSep))
	err := r.s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(r.s.tables.UnitsByBuilding)).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			unitID := string(k[len(prefix):])
			u, err := boltGet[models.Unit](tx, r.s.tables.Units, unitID)
			if err != nil {
				return err
			}
			if u == nil {
				continue
			}
			u.Residents = nonNil(u.Residents)
			out = append(out, u)
		}
		return nil
	})
	return out, err
}

func (r *boltUnitRepo) GetByID(_ context.Context, id string) (u *models.Unit, err error) {
	err = r.s.db.View(func(tx *bolt.Tx) error {
		u, err = boltGet[models.Unit](tx, r.s.tables.Units, id)
		return err
	})
	if u != nil {
		u.Residents = nonNil(u.Residents)
	}
	return u, err
}

func (r *boltUnitRepo) Create(_ context.Context, u *models.Unit) error {
	return r.s.db.Update(func(tx *bolt.Tx) error {
		// A put over an existing unit must not leave a stale index entry behind.
		prev, err := boltGet[models.Unit](tx, r.s.tables.Units, u.UnitID)
		if err != nil {
			return err
		}
		idx := tx.Bucket([]byte(r.s.tables.UnitsByBuilding))
		if prev != nil {
			if err := idx.Delete(unitIndexKey(prev.BuildingID, prev.UnitID)); err != nil {
				return err
			}
		}
		if err := boltPut(tx, r.s.tables.Units, u.UnitID, u); err != nil {
			return err
		}
		return idx.Put(unitIndexKey(u.BuildingID, u.UnitID), []byte{})
	})
}

func (r *boltUnitRepo) Delete(_ context.Context, id string) error {
	return r.s.db.Update(func(tx *bolt.Tx) error {
		prev, err := boltGet[models.Unit](tx, r.s.tables.Units, id)
		if err != nil || prev == nil {
			return err
		}
		if err := tx.Bucket([]byte(r.s.tables.UnitsByBuilding)).Delete(unitIndexKey(prev.BuildingID, id)); err != nil {
			return err
		}
		return tx.Bucket([]byte(r.s.tables.Units)).Delete([]byte(id))
	})
}

func (r *boltUnitRepo) AddResident(_ context.Context, unitID, residentID string, updatedAt int64) error {
	return r.mutate(unitID, updatedAt, func(u *models.Unit) { u.AddResident(residentID) })
}

func (r *boltUnitRepo) RemoveResident(_ context.Context, unitID, residentID string, updatedAt int64) error {
	return r.mutate(unitID, updatedAt, func(u *models.Unit) { u.RemoveResident(residentID) })
}

func (r *boltUnitRepo) mutate(unitID string, updatedAt int64, fn func(*models.Unit)) error {
	return r.s.db.Update(func(tx *bolt.Tx) error {
		u, err := boltGet[models.Unit](tx, r.s.tables.Units, unitID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrConditionFailed
		}
		fn(u)
		u.UpdatedAt = updatedAt
		return boltPut(tx, r.s.tables.Units, unitID, u)
	})
}

/* ---------- residents ---------- */

type boltResidentRepo struct{ s *boltStore }

func (r *boltResidentRepo) GetByID(_ context.Context, id string) (res *models.Resident, err error) {
	err = r.s.db.View(func(tx *bolt.Tx) error {
		res, err = boltGet[models.Resident](tx, r.s.tables.Residents, id)
		return err
	})
	return res, err
}

func (r *boltResidentRepo) GetMany(_ context.Context, ids []string) ([]*models.Resident, error) {
	found := make(map[string]*models.Resident, len(ids))
	err := r.s.db.View(func(tx *bolt.Tx) error {
		for _, id := range ids {
			res, err := boltGet[models.Resident](tx, r.s.tables.Residents, id)
			if err != nil {
				return err
			}
			if res != nil {
				found[id] = res
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orderResidents(ids, found), nil
}

func (r *boltResidentRepo) Create(_ context.Context, res *models.Resident) error {
	return r.s.db.Update(func(tx *bolt.Tx) error {
		return boltPut(tx, r.s.tables.Residents, res.ResidentID, res)
	})
}

func (r *boltResidentRepo) Delete(_ context.Context, id string) error {
	return r.s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(r.s.tables.Residents)).Delete([]byte(id))
	})
}
