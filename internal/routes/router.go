package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/poofware/liszt-service/internal/app"
	"github.com/poofware/liszt-service/internal/controllers"
)

// NewRouter builds the controllers over a and mounts every route.
func NewRouter(a *app.App) *mux.Router {
	healthCtrl := controllers.NewHealthController(a)
	buildingCtrl := controllers.NewBuildingController(a.BuildingService, a.UnitService)
	unitCtrl := controllers.NewUnitController(a.UnitService)
	residentCtrl := controllers.NewResidentController(a.ResidentService)

	router := mux.NewRouter()
	router.HandleFunc(Health, healthCtrl.HealthCheckHandler).Methods(http.MethodGet)

	router.HandleFunc(Buildings, buildingCtrl.ListBuildingsHandler).Methods(http.MethodGet)
	router.HandleFunc(BuildingByID, buildingCtrl.GetBuildingHandler).Methods(http.MethodGet)
	router.HandleFunc(BuildingRegister, buildingCtrl.RegisterBuildingHandler).Methods(http.MethodPost)
	router.HandleFunc(BuildingDeregister, buildingCtrl.DeregisterBuildingHandler).Methods(http.MethodDelete)
	router.HandleFunc(BuildingUnits, buildingCtrl.ListUnitsHandler).Methods(http.MethodGet)

	router.HandleFunc(UnitRegister, unitCtrl.RegisterUnitHandler).Methods(http.MethodPost)
	router.HandleFunc(UnitDeregister, unitCtrl.DeregisterUnitHandler).Methods(http.MethodDelete)
	router.HandleFunc(UnitResidents, unitCtrl.ListResidentsHandler).Methods(http.MethodGet)

	router.HandleFunc(ResidentByID, residentCtrl.GetResidentHandler).Methods(http.MethodGet)
	router.HandleFunc(ResidentRegister, residentCtrl.RegisterResidentHandler).Methods(http.MethodPost)
	router.HandleFunc(ResidentDeregister, residentCtrl.DeregisterResidentHandler).Methods(http.MethodDelete)
	router.HandleFunc(ResidentMoveIn, residentCtrl.MoveInHandler).Methods(http.MethodPost)
	router.HandleFunc(ResidentMoveOut, residentCtrl.MoveOutHandler).Methods(http.MethodPost)

	return router
}
