package app

import (
	"context"
	"fmt"
	"time"

	"github.com/poofware/liszt-service/internal/constants"
	"github.com/poofware/liszt-service/internal/models"
	"github.com/poofware/liszt-service/internal/utils"
)

/* ------------------------------------------------------------------
   Seed a sample building, unit and resident (test/demo purposes only)
------------------------------------------------------------------ */

// SeedSampleResidency writes one building with one occupied unit. The fixed
// building id is the sentinel: when it already exists nothing is written.
func (a *App) SeedSampleResidency(ctx context.Context) error {
	existing, err := a.Repos.Buildings.GetByID(ctx, constants.SeedBuildingID)
	if err != nil {
		return fmt.Errorf("check seed building: %w", err)
	}
	if existing != nil {
		utils.Logger.Infof("Seed building already present (id=%s); skipping.", existing.BuildingID)
		return nil
	}

	building := &models.Building{BuildingID: constants.SeedBuildingID, Name: "Seed Court"}
	unit := &models.Unit{
		UnitID:     constants.SeedUnitID,
		Name:       "1A",
		BuildingID: constants.SeedBuildingID,
		Residents:  []string{},
	}
	resident := &models.Resident{ResidentID: constants.SeedResidentID, Name: "Seed Resident"}

	if err := a.Repos.Units.Create(ctx, unit); err != nil {
		return fmt.Errorf("insert seed unit: %w", err)
	}
	if err := a.Repos.Residents.Create(ctx, resident); err != nil {
		return fmt.Errorf("insert seed resident: %w", err)
	}
	if err := a.Repos.Units.AddResident(ctx, unit.UnitID, resident.ResidentID, time.Now().Unix()); err != nil {
		return fmt.Errorf("move seed resident in: %w", err)
	}
	// Written last so a half-finished seed is retried on the next boot.
	if err := a.Repos.Buildings.Create(ctx, building); err != nil {
		return fmt.Errorf("insert seed building: %w", err)
	}

	utils.Logger.Infof("Seeded building %s with unit %s and resident %s",
		building.BuildingID, unit.UnitID, resident.ResidentID)
	return nil
}
