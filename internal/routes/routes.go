package routes

const (
	// Health
	Health = "/health"

	// Buildings
	Buildings          = "/buildings"
	BuildingByID       = "/buildings/by_id"
	BuildingRegister   = "/buildings/register"
	BuildingDeregister = "/buildings/deregister"
	BuildingUnits      = "/buildings/units"

	// Units
	UnitRegister   = "/units/register"
	UnitDeregister = "/units/deregister"
	UnitResidents  = "/units/residents"

	// Residents
	ResidentByID       = "/residents/by_id"
	ResidentRegister   = "/residents/register"
	ResidentDeregister = "/residents/deregister"
	ResidentMoveIn     = "/residents/move_in"
	ResidentMoveOut    = "/residents/move_out"
)
