package constants

const (
	StoreBackendDynamoDB = "dynamodb"
	StoreBackendPostgres = "postgres"
	StoreBackendBolt     = "bolt"
	StoreBackendMemory   = "memory"

	DefaultStoreBackend = StoreBackendDynamoDB

	// Collection and index names, overridable through LISZT_* env vars.
	DefaultBuildingsTable = "liszt-buildings-production"
	DefaultUnitsTable     = "liszt-units-production"
	DefaultUnitsGSI       = "building_unit_gsi"
	DefaultResidentsTable = "liszt-residents-production"

	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// SeedBuildingID marks the sample data written when seeding is enabled.
	SeedBuildingID = "33333333-3333-3333-3333-333333333333"
	SeedUnitID     = "44444444-4444-4444-4444-444444444444"
	SeedResidentID = "55555555-5555-5555-5555-555555555555"
)
