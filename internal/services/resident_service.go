package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/poofware/liszt-service/internal/models"
	"github.com/poofware/liszt-service/internal/repositories"
	"github.com/poofware/liszt-service/internal/utils"
)

type ResidentService interface {
	GetByID(ctx context.Context, residentID string) (*models.Resident, error)
	Register(ctx context.Context, name string) (*models.Resident, error)
	Deregister(ctx context.Context, residentID string) error

	// MoveIn and MoveOut update the unit's resident set and stamp updated_at
	// in one conditional write. A missing unit fails with a 404 and writes
	// nothing. The resident itself is never looked up.
	MoveIn(ctx context.Context, residentID, unitID string) error
	MoveOut(ctx context.Context, residentID, unitID string) error
}

type residentService struct {
	residents repositories.ResidentRepository
	units     repositories.UnitRepository
	now       func() time.Time
}

func NewResidentService(residents repositories.ResidentRepository, units repositories.UnitRepository) ResidentService {
	return &residentService{residents: residents, units: units, now: time.Now}
}

// ------------------------------------------------------------------
// Records
// ------------------------------------------------------------------

func (s *residentService) GetByID(ctx context.Context, residentID string) (*models.Resident, error) {
	if err := requireParam("resident_id", residentID); err != nil {
		return nil, err
	}
	r, err := s.residents.GetByID(ctx, residentID)
	if err != nil {
		return nil, storeErr("could not read resident", err)
	}
	if r == nil {
		return nil, utils.NewNotFoundError("resident not found")
	}
	return r, nil
}

func (s *residentService) Register(ctx context.Context, name string) (*models.Resident, error) {
	if err := requireParam("name", name); err != nil {
		return nil, err
	}
	r := &models.Resident{ResidentID: newID(), Name: name}
	if err := s.residents.Create(ctx, r); err != nil {
		return nil, storeErr("could not register resident", err)
	}
	utils.Logger.WithField("resident_id", r.ResidentID).Info("Resident registered")
	return r, nil
}

// Deregister leaves the resident's id in any unit that still lists it.
func (s *residentService) Deregister(ctx context.Context, residentID string) error {
	if err := requireParam("resident_id", residentID); err != nil {
		return err
	}
	if err := s.residents.Delete(ctx, residentID); err != nil {
		return storeErr("could not deregister resident", err)
	}
	utils.Logger.WithField("resident_id", residentID).Info("Resident deregistered")
	return nil
}

// ------------------------------------------------------------------
// Membership
// ------------------------------------------------------------------

func (s *residentService) MoveIn(ctx context.Context, residentID, unitID string) error {
	return s.move(ctx, "move_in", residentID, unitID, s.units.AddResident)
}

func (s *residentService) MoveOut(ctx context.Context, residentID, unitID string) error {
	return s.move(ctx, "move_out", residentID, unitID, s.units.RemoveResident)
}

func (s *residentService) move(
	ctx context.Context,
	op, residentID, unitID string,
	write func(ctx context.Context, unitID, residentID string, updatedAt int64) error,
) error {
	if err := requireParam("resident_id", residentID); err != nil {
		return err
	}
	if err := requireParam("unit_id", unitID); err != nil {
		return err
	}

	err := write(ctx, unitID, residentID, s.now().Unix())
	if errors.Is(err, repositories.ErrConditionFailed) {
		return utils.NewConditionFailedError("unit not found", err)
	}
	if err != nil {
		return utils.NewStoreError("could not update unit", err)
	}
	utils.Logger.WithFields(logrus.Fields{
		"op":          op,
		"resident_id": residentID,
		"unit_id":     unitID,
	}).Info("Unit membership updated")
	return nil
}
