package controllers

import (
	"net/http"

	"github.com/poofware/liszt-service/internal/dtos"
	"github.com/poofware/liszt-service/internal/services"
	"github.com/poofware/liszt-service/internal/utils"
)

type UnitController struct {
	units services.UnitService
}

func NewUnitController(u services.UnitService) *UnitController {
	return &UnitController{units: u}
}

// -----------------------------------------------------------------------------
// POST /units/register
// -----------------------------------------------------------------------------
func (c *UnitController) RegisterUnitHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterUnitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := c.units.Register(r.Context(), req.Name, req.BuildingID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// -----------------------------------------------------------------------------
// DELETE /units/deregister?unit_id=
// -----------------------------------------------------------------------------
func (c *UnitController) DeregisterUnitHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.UnitIDQuery{UnitID: r.URL.Query().Get("unit_id")}
	if !validateRequest(w, &q) {
		return
	}

	if err := c.units.Deregister(r.Context(), q.UnitID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondEmpty(w, http.StatusOK)
}

// -----------------------------------------------------------------------------
// GET /units/residents?unit_id=
// -----------------------------------------------------------------------------
func (c *UnitController) ListResidentsHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.UnitIDQuery{UnitID: r.URL.Query().Get("unit_id")}
	if !validateRequest(w, &q) {
		return
	}

	residents, err := c.units.ListResidents(r.Context(), q.UnitID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, residents)
}
