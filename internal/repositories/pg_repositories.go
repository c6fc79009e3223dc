package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/poofware/liszt-service/internal/models"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresRepositories wires the three repositories over pool. Table names
// come from tables and are quoted, so names like "liszt-units-production"
// work unchanged.
func NewPostgresRepositories(pool *pgxpool.Pool, tables Tables) *Repositories {
	repos := newPostgresRepositories(pool, tables)
	repos.ping = pool.Ping
	repos.close = func() error {
		pool.Close()
		return nil
	}
	return repos
}

func newPostgresRepositories(db DB, tables Tables) *Repositories {
	return &Repositories{
		Buildings: &pgBuildingRepo{db: db, table: pgx.Identifier{tables.Buildings}.Sanitize()},
		Units:     &pgUnitRepo{db: db, table: pgx.Identifier{tables.Units}.Sanitize()},
		Residents: &pgResidentRepo{db: db, table: pgx.Identifier{tables.Residents}.Sanitize()},
	}
}

/* ---------- buildings ---------- */

type pgBuildingRepo struct {
	db    DB
	table string
}

func (r *pgBuildingRepo) List(ctx context.Context) ([]*models.Building, error) {
	rows, err := r.db.Query(ctx, r.baseSelect())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Building, 0)
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *pgBuildingRepo) GetByID(ctx context.Context, id string) (*models.Building, error) {
	row := r.db.QueryRow(ctx, r.baseSelect()+" WHERE building_id=$1", id)
	b, err := scanBuilding(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *pgBuildingRepo) Create(ctx context.Context, b *models.Building) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (building_id, name) VALUES ($1,$2)
		ON CONFLICT (building_id) DO UPDATE SET name=EXCLUDED.name
	`, r.table), b.BuildingID, b.Name)
	return err
}

func (r *pgBuildingRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE building_id=$1`, r.table), id)
	return err
}

func (r *pgBuildingRepo) baseSelect() string {
	return fmt.Sprintf(`SELECT building_id, name FROM %s`, r.table)
}

func scanBuilding(row pgx.Row) (*models.Building, error) {
	var b models.Building
	if err := row.Scan(&b.BuildingID, &b.Name); err != nil {
		return nil, err
	}
	return &b, nil
}

/* ---------- units ---------- */

type pgUnitRepo struct {
	db    DB
	table string
}

func (r *pgUnitRepo) ListByBuildingID(ctx context.Context, buildingID string) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, r.baseSelect()+" WHERE building_id=$1", buildingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Unit, 0)
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *pgUnitRepo) GetByID(ctx context.Context, id string) (*models.Unit, error) {
	row := r.db.QueryRow(ctx, r.baseSelect()+" WHERE unit_id=$1", id)
	u, err := scanUnit(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *pgUnitRepo) Create(ctx context.Context, u *models.Unit) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (unit_id, name, building_id, residents) VALUES ($1,$2,$3,$4)
		ON CONFLICT (unit_id) DO UPDATE
		SET name=EXCLUDED.name, building_id=EXCLUDED.building_id, residents=EXCLUDED.residents, updated_at=NULL
	`, r.table), u.UnitID, u.Name, u.BuildingID, nonNil(u.Residents))
	return err
}

func (r *pgUnitRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE unit_id=$1`, r.table), id)
	return err
}

func (r *pgUnitRepo) AddResident(ctx context.Context, unitID, residentID string, updatedAt int64) error {
	return r.updateMembership(ctx, `
		residents = CASE WHEN $2::text = ANY(residents) THEN residents
		                 ELSE array_append(residents, $2::text) END`,
		unitID, residentID, updatedAt)
}

func (r *pgUnitRepo) RemoveResident(ctx context.Context, unitID, residentID string, updatedAt int64) error {
	return r.updateMembership(ctx, `residents = array_remove(residents, $2::text)`,
		unitID, residentID, updatedAt)
}

// updateMembership runs a single UPDATE; the WHERE clause is the existence
// condition, so zero affected rows means the unit is missing.
func (r *pgUnitRepo) updateMembership(ctx context.Context, setResidents, unitID, residentID string, updatedAt int64) error {
	sql := fmt.Sprintf(`UPDATE %s SET %s, updated_at=$3 WHERE unit_id=$1`, r.table, setResidents)
	tag, err := r.db.Exec(ctx, sql, unitID, residentID, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (r *pgUnitRepo) baseSelect() string {
	return fmt.Sprintf(`
		SELECT unit_id, name, building_id, COALESCE(residents, '{}'), COALESCE(updated_at, 0)
		FROM %s`, r.table)
}

func scanUnit(row pgx.Row) (*models.Unit, error) {
	var u models.Unit
	if err := row.Scan(&u.UnitID, &u.Name, &u.BuildingID, &u.Residents, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Residents = nonNil(u.Residents)
	return &u, nil
}

/* ---------- residents ---------- */

type pgResidentRepo struct {
	db    DB
	table string
}

func (r *pgResidentRepo) GetByID(ctx context.Context, id string) (*models.Resident, error) {
	row := r.db.QueryRow(ctx, r.baseSelect()+" WHERE resident_id=$1", id)
	res, err := scanResident(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return res, err
}

func (r *pgResidentRepo) GetMany(ctx context.Context, ids []string) ([]*models.Resident, error) {
	if len(ids) == 0 {
		return []*models.Resident{}, nil
	}
	rows, err := r.db.Query(ctx, r.baseSelect()+" WHERE resident_id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]*models.Resident, len(ids))
	for rows.Next() {
		res, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		found[res.ResidentID] = res
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orderResidents(ids, found), nil
}

func (r *pgResidentRepo) Create(ctx context.Context, res *models.Resident) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (resident_id, name) VALUES ($1,$2)
		ON CONFLICT (resident_id) DO UPDATE SET name=EXCLUDED.name
	`, r.table), res.ResidentID, res.Name)
	return err
}

func (r *pgResidentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE resident_id=$1`, r.table), id)
	return err
}

func (r *pgResidentRepo) baseSelect() string {
	return fmt.Sprintf(`SELECT resident_id, name FROM %s`, r.table)
}

func scanResident(row pgx.Row) (*models.Resident, error) {
	var res models.Resident
	if err := row.Scan(&res.ResidentID, &res.Name); err != nil {
		return nil, err
	}
	return &res, nil
}
