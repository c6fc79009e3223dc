package services

import (
	"context"

	"github.com/poofware/liszt-service/internal/models"
	"github.com/poofware/liszt-service/internal/repositories"
	"github.com/poofware/liszt-service/internal/utils"
)

// ------------------------------------------------------------------
// Service
// ------------------------------------------------------------------

type BuildingService interface {
	List(ctx context.Context) ([]*models.Building, error)
	GetByID(ctx context.Context, buildingID string) (*models.Building, error)
	Register(ctx context.Context, name string) (*models.Building, error)
	Deregister(ctx context.Context, buildingID string) error
}

type buildingService struct {
	repo repositories.BuildingRepository
}

func NewBuildingService(repo repositories.BuildingRepository) BuildingService {
	return &buildingService{repo: repo}
}

// ------------------------------------------------------------------
// Public API
// ------------------------------------------------------------------

func (s *buildingService) List(ctx context.Context) ([]*models.Building, error) {
	buildings, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("could not list buildings", err)
	}
	if buildings == nil {
		buildings = []*models.Building{}
	}
	return buildings, nil
}

func (s *buildingService) GetByID(ctx context.Context, buildingID string) (*models.Building, error) {
	if err := requireParam("building_id", buildingID); err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, buildingID)
	if err != nil {
		return nil, storeErr("could not read building", err)
	}
	if b == nil {
		return nil, utils.NewNotFoundError("building not found")
	}
	return b, nil
}

func (s *buildingService) Register(ctx context.Context, name string) (*models.Building, error) {
	if err := requireParam("name", name); err != nil {
		return nil, err
	}
	b := &models.Building{BuildingID: newID(), Name: name}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, storeErr("could not register building", err)
	}
	utils.Logger.WithField("building_id", b.BuildingID).Info("Building registered")
	return b, nil
}

// Deregister is idempotent. Units of the building are left in place.
func (s *buildingService) Deregister(ctx context.Context, buildingID string) error {
	if err := requireParam("building_id", buildingID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, buildingID); err != nil {
		return storeErr("could not deregister building", err)
	}
	utils.Logger.WithField("building_id", buildingID).Info("Building deregistered")
	return nil
}
