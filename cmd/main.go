package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/rs/cors"

	"github.com/poofware/liszt-service/internal/app"
	"github.com/poofware/liszt-service/internal/config"
	"github.com/poofware/liszt-service/internal/constants"
	"github.com/poofware/liszt-service/internal/routes"
	"github.com/poofware/liszt-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)

	// 1) Config
	cfg := config.LoadConfig()
	defer cfg.Close()

	// 2) Record store + services
	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize liszt-service:", err)
	}
	defer application.Close()

	if cfg.LDFlag_SeedDbWithTestData {
		if err := application.SeedSampleResidency(context.Background()); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		}
	}

	// 3) Router
	router := routes.NewRouter(application)

	// 4) CORS
	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, constants.CORSLowSecurityAllowedOriginLocalhost)
	}
	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("liszt-service failed to start:", err)
	}
}
