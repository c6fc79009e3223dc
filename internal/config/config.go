package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/poofware/liszt-service/internal/constants"
	"github.com/poofware/liszt-service/internal/utils"
)

type Config struct {
	AppName string
	Env     string
	AppPort string
	AppUrl  string

	StoreBackend     string
	BuildingsTable   string
	UnitsTable       string
	UnitsGSI         string
	ResidentsTable   string
	AWSRegion        string
	DynamoDBEndpoint string
	DBUrl            string
	BoltPath         string

	LDSDKKey string

	// Feature-flag snapshots
	LDFlag_CORSHighSecurity   bool
	LDFlag_SeedDbWithTestData bool
}

const LDConnectionTimeout = 5 * time.Second

// build-time overrides, set with -ldflags
var (
	AppName             = "liszt-service"
	LDServerContextKey  = "liszt-service"
	LDServerContextKind = "service"
)

// LoadConfig reads the environment, then refreshes the flag snapshots from
// LaunchDarkly when LD_SDK_KEY is set. Any failure is fatal.
func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}

	if cfg.LDSDKKey != "" {
		if err := cfg.loadLaunchDarklyFlags(); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to load LaunchDarkly flags")
		}
	} else {
		utils.Logger.Debug("LD_SDK_KEY not set; using flag values from environment")
	}

	utils.Logger.Debugf("cors_high_security flag: %t", cfg.LDFlag_CORSHighSecurity)
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", cfg.LDFlag_SeedDbWithTestData)
	utils.Logger.Infof("Loaded config for %s (%s), store backend %s", cfg.AppName, cfg.Env, cfg.StoreBackend)
	return cfg
}

// FromEnv builds a Config from getenv without touching the network.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppName:          AppName,
		Env:              getenv("ENV"),
		AppPort:          getenv("APP_PORT"),
		AppUrl:           getenv("APP_URL_FROM_ANYWHERE"),
		StoreBackend:     withDefault(getenv("STORE_BACKEND"), constants.DefaultStoreBackend),
		BuildingsTable:   withDefault(getenv("LISZT_BUILDINGS_TABLE"), constants.DefaultBuildingsTable),
		UnitsTable:       withDefault(getenv("LISZT_UNITS_TABLE"), constants.DefaultUnitsTable),
		UnitsGSI:         withDefault(getenv("LISZT_UNITS_GSI"), constants.DefaultUnitsGSI),
		ResidentsTable:   withDefault(getenv("LISZT_RESIDENTS_TABLE"), constants.DefaultResidentsTable),
		AWSRegion:        getenv("AWS_REGION"),
		DynamoDBEndpoint: getenv("DYNAMODB_ENDPOINT"),
		DBUrl:            getenv("DB_URL"),
		BoltPath:         getenv("BOLT_PATH"),
		LDSDKKey:         getenv("LD_SDK_KEY"),
	}

	if cfg.Env == "" {
		return nil, fmt.Errorf("ENV env var is missing")
	}
	if cfg.AppPort == "" {
		return nil, fmt.Errorf("APP_PORT env var is missing")
	}
	if cfg.AppUrl == "" {
		return nil, fmt.Errorf("APP_URL_FROM_ANYWHERE env var is missing")
	}

	switch cfg.StoreBackend {
	case constants.StoreBackendDynamoDB, constants.StoreBackendMemory:
	case constants.StoreBackendPostgres:
		if cfg.DBUrl == "" {
			return nil, fmt.Errorf("DB_URL env var is required for the %s backend", cfg.StoreBackend)
		}
	case constants.StoreBackendBolt:
		if cfg.BoltPath == "" {
			return nil, fmt.Errorf("BOLT_PATH env var is required for the %s backend", cfg.StoreBackend)
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	var err error
	if cfg.LDFlag_CORSHighSecurity, err = boolEnv(getenv, "CORS_HIGH_SECURITY", true); err != nil {
		return nil, err
	}
	if cfg.LDFlag_SeedDbWithTestData, err = boolEnv(getenv, "SEED_DB_WITH_TEST_DATA", false); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadLaunchDarklyFlags() error {
	ldClient, err := ld.MakeClient(c.LDSDKKey, LDConnectionTimeout)
	if err != nil {
		return fmt.Errorf("create LaunchDarkly client: %w", err)
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		return fmt.Errorf("LaunchDarkly client failed to initialize")
	}

	ctx := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	corsHighSecurity, err := ldClient.BoolVariation("cors_high_security", ctx, c.LDFlag_CORSHighSecurity)
	if err != nil {
		return fmt.Errorf("cors_high_security flag: %w", err)
	}
	seed, err := ldClient.BoolVariation("seed_db_with_test_data", ctx, c.LDFlag_SeedDbWithTestData)
	if err != nil {
		return fmt.Errorf("seed_db_with_test_data flag: %w", err)
	}

	c.LDFlag_CORSHighSecurity = corsHighSecurity
	c.LDFlag_SeedDbWithTestData = seed
	return nil
}

func (c *Config) Close() {
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolEnv(getenv func(string) string, name string, def bool) (bool, error) {
	raw := getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s env var must be a boolean, got %q", name, raw)
	}
	return v, nil
}
