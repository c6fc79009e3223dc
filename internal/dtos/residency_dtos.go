package dtos

// ----- Request bodies -----

type RegisterBuildingRequest struct {
	Name string `json:"name" validate:"required"`
}

type RegisterUnitRequest struct {
	Name       string `json:"name" validate:"required"`
	BuildingID string `json:"building_id" validate:"required"`
}

type RegisterResidentRequest struct {
	Name string `json:"name" validate:"required"`
}

// MoveRequest is the body of both move_in and move_out.
type MoveRequest struct {
	ResidentID string `json:"resident_id" validate:"required"`
	UnitID     string `json:"unit_id" validate:"required"`
}

// ----- Query parameters -----

// Query DTOs carry the json tag so validation errors name the parameter.

type BuildingIDQuery struct {
	BuildingID string `json:"building_id" validate:"required"`
}

type UnitIDQuery struct {
	UnitID string `json:"unit_id" validate:"required"`
}

type ResidentIDQuery struct {
	ResidentID string `json:"resident_id" validate:"required"`
}
