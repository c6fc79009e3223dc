package controllers

import (
	"context"
	"net/http"

	"github.com/poofware/liszt-service/internal/dtos"
	"github.com/poofware/liszt-service/internal/services"
	"github.com/poofware/liszt-service/internal/utils"
)

type ResidentController struct {
	residents services.ResidentService
}

func NewResidentController(s services.ResidentService) *ResidentController {
	return &ResidentController{residents: s}
}

// -----------------------------------------------------------------------------
// GET /residents/by_id?resident_id=
// -----------------------------------------------------------------------------
func (c *ResidentController) GetResidentHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.ResidentIDQuery{ResidentID: r.URL.Query().Get("resident_id")}
	if !validateRequest(w, &q) {
		return
	}

	res, err := c.residents.GetByID(r.Context(), q.ResidentID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// POST /residents/register
// -----------------------------------------------------------------------------
func (c *ResidentController) RegisterResidentHandler(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterResidentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := c.residents.Register(r.Context(), req.Name)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// DELETE /residents/deregister?resident_id=
// -----------------------------------------------------------------------------
func (c *ResidentController) DeregisterResidentHandler(w http.ResponseWriter, r *http.Request) {
	q := dtos.ResidentIDQuery{ResidentID: r.URL.Query().Get("resident_id")}
	if !validateRequest(w, &q) {
		return
	}

	if err := c.residents.Deregister(r.Context(), q.ResidentID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondEmpty(w, http.StatusOK)
}

// -----------------------------------------------------------------------------
// POST /residents/move_in
// -----------------------------------------------------------------------------
func (c *ResidentController) MoveInHandler(w http.ResponseWriter, r *http.Request) {
	c.handleMove(w, r, c.residents.MoveIn)
}

// -----------------------------------------------------------------------------
// POST /residents/move_out
// -----------------------------------------------------------------------------
func (c *ResidentController) MoveOutHandler(w http.ResponseWriter, r *http.Request) {
	c.handleMove(w, r, c.residents.MoveOut)
}

// -----------------------------------------------------------------------------
// shared helper
// -----------------------------------------------------------------------------
func (c *ResidentController) handleMove(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, residentID, unitID string) error,
) {
	var req dtos.MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := fn(r.Context(), req.ResidentID, req.UnitID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondEmpty(w, http.StatusOK)
}
