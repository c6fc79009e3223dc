package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/poofware/liszt-service/internal/models"
	"github.com/poofware/liszt-service/internal/repositories"
	"github.com/poofware/liszt-service/internal/utils"
)

type UnitService interface {
	ListByBuilding(ctx context.Context, buildingID string) ([]*models.Unit, error)
	Register(ctx context.Context, name, buildingID string) (*models.Unit, error)
	Deregister(ctx context.Context, unitID string) error
	// ListResidents resolves the unit's resident ids in one batch read.
	// Ids with no resident record are dropped.
	ListResidents(ctx context.Context, unitID string) ([]*models.Resident, error)
}

type unitService struct {
	units     repositories.UnitRepository
	residents repositories.ResidentRepository
}

func NewUnitService(units repositories.UnitRepository, residents repositories.ResidentRepository) UnitService {
	return &unitService{units: units, residents: residents}
}

func (s *unitService) ListByBuilding(ctx context.Context, buildingID string) ([]*models.Unit, error) {
	if err := requireParam("building_id", buildingID); err != nil {
		return nil, err
	}
	units, err := s.units.ListByBuildingID(ctx, buildingID)
	if err != nil {
		return nil, storeErr("could not list units", err)
	}
	if units == nil {
		units = []*models.Unit{}
	}
	return units, nil
}

// Register does not check that the building exists.
func (s *unitService) Register(ctx context.Context, name, buildingID string) (*models.Unit, error) {
	if err := requireParam("name", name); err != nil {
		return nil, err
	}
	if err := requireParam("building_id", buildingID); err != nil {
		return nil, err
	}
	u := &models.Unit{
		UnitID:     newID(),
		Name:       name,
		BuildingID: buildingID,
		Residents:  []string{},
	}
	if err := s.units.Create(ctx, u); err != nil {
		return nil, storeErr("could not register unit", err)
	}
	utils.Logger.WithFields(logrus.Fields{
		"unit_id":     u.UnitID,
		"building_id": u.BuildingID,
	}).Info("Unit registered")
	return u, nil
}

func (s *unitService) Deregister(ctx context.Context, unitID string) error {
	if err := requireParam("unit_id", unitID); err != nil {
		return err
	}
	if err := s.units.Delete(ctx, unitID); err != nil {
		return storeErr("could not deregister unit", err)
	}
	utils.Logger.WithField("unit_id", unitID).Info("Unit deregistered")
	return nil
}

func (s *unitService) ListResidents(ctx context.Context, unitID string) ([]*models.Resident, error) {
	if err := requireParam("unit_id", unitID); err != nil {
		return nil, err
	}
	u, err := s.units.GetByID(ctx, unitID)
	if err != nil {
		return nil, storeErr("could not read unit", err)
	}
	if u == nil {
		return nil, utils.NewNotFoundError("unit not found")
	}
	if len(u.Residents) == 0 {
		return []*models.Resident{}, nil
	}

	residents, err := s.residents.GetMany(ctx, u.Residents)
	if err != nil {
		return nil, storeErr("could not read residents", err)
	}
	if residents == nil {
		residents = []*models.Resident{}
	}
	return residents, nil
}
