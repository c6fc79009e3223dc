package controllers

import (
	"net/http"

	"github.com/poofware/liszt-service/internal/dtos"
	"github.com/poofware/liszt-service/internal/services"
	"github.com/poofware/liszt-service/internal/utils"
)

type BuildingController struct {
	buildings services.BuildingService
	units     services.UnitService
}

func NewBuildingController(b services.BuildingService, u services.UnitService) *BuildingController {
	return &BuildingController{buildings: b, units: u}
}

// -----------------------------------------------------------------------------
// GET /buildings
// -----------------------------------------------------------------------------
func (c *BuildingController) ListBuildingsHandler(w http.ResponseWriter, r *http.Request) {
	buildings, err := c.buildings.List(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, buildings)
}

// -----------------------------------------------------------------------------
// GET /buildings/by_id?building_id=
// -----------------------------------------------------------------------------
func (c *BuildingController) GetBuildingHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.BuildingIDQuery{BuildingID: r.URL.Query().Get("building_id")}
	if !validateRequest(w, &q) {
		return
	}

	b, err := c.buildings.GetByID(r.Context(), q.BuildingID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, b)
}

// -----------------------------------------------------------------------------
// POST /buildings/register
// -----------------------------------------------------------------------------
func (c *BuildingController) RegisterBuildingHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterBuildingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b, err := c.buildings.Register(r.Context(), req.Name)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, b)
}

// -----------------------------------------------------------------------------
// DELETE /buildings/deregister?building_id=
// -----------------------------------------------------------------------------
func (c *BuildingController) DeregisterBuildingHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.BuildingIDQuery{BuildingID: r.URL.Query().Get("building_id")}
	if !validateRequest(w, &q) {
		return
	}

	if err := c.buildings.Deregister(r.Context(), q.BuildingID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondEmpty(w, http.StatusOK)
}

// -----------------------------------------------------------------------------
// GET /buildings/units?building_id=
// -----------------------------------------------------------------------------
func (c *BuildingController) ListUnitsHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.BuildingIDQuery{BuildingID: r.URL.Query().Get("building_id")}
	if !validateRequest(w, &q) {
		return
	}

	units, err := c.units.ListByBuilding(r.Context(), q.BuildingID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, units)
}
