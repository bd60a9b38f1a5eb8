package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "PARCEL_SCANNER_CONFIG"
	databaseDSNEnv = "PARCEL_SCANNER_DATABASE_DSN"
	statePathEnv   = "PARCEL_SCANNER_STATE_DB_PATH"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig        `yaml:"logging"`
	Database      DatabaseConfig       `yaml:"database"`
	State         StateConfig          `yaml:"state"`
	Remote        RemoteConfig         `yaml:"remote"`
	Jurisdictions []JurisdictionConfig `yaml:"jurisdictions"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the Postgres lead store connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// StateConfig locates the local ingestion-state database.
type StateConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig tunes the property-record lookup client shared by all
// jurisdictions.
type RemoteConfig struct {
	TimeoutSeconds  int     `yaml:"timeoutSeconds"`
	MaxAttempts     int     `yaml:"maxAttempts"`
	BaseDelayMillis int     `yaml:"baseDelayMillis"`
	MaxDelayMillis  int     `yaml:"maxDelayMillis"`
	CallsPerSecond  float64 `yaml:"callsPerSecond"`
}

// JurisdictionConfig is the declarative schema document for one appraisal
// authority. Adding a jurisdiction means adding an entry here, not code.
type JurisdictionConfig struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Endpoint    string            `yaml:"endpoint"`
	Dialect     string            `yaml:"dialect"`
	Delimiter   string            `yaml:"delimiter"`
	Encoding    string            `yaml:"encoding"`
	ChunkSize   int               `yaml:"chunkSize"`
	Cities      []string          `yaml:"cities"`
	PostalCodes []string          `yaml:"postalCodes"`
	FieldMap    map[string]string `yaml:"fieldMap"`
	Filters     FilterConfig      `yaml:"filters"`
	// AffirmativeFlags lists the raw values the jurisdiction's explicit
	// new-construction flag may carry when set.
	AffirmativeFlags []string          `yaml:"affirmativeFlags"`
	QueryFields      QueryFieldsConfig `yaml:"queryFields"`
}

// FilterConfig holds the per-jurisdiction filter predicates.
type FilterConfig struct {
	AllowedClasses      []string `yaml:"allowedClasses"`
	MinImprovementValue float64  `yaml:"minImprovementValue"`
	RecencyYears        int      `yaml:"recencyYears"`
}

// QueryFieldsConfig names the wire fields used when querying the
// jurisdiction's record service.
type QueryFieldsConfig struct {
	Address string   `yaml:"address"`
	Returns []string `yaml:"returns"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Jurisdictions) == 0 {
		cfg.Jurisdictions = defaultConfig().Jurisdictions
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(statePathEnv); v != "" {
		c.State.Path = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}
	if override.State.Path != "" {
		base.State = override.State
	}
	if override.Remote.TimeoutSeconds != 0 {
		base.Remote.TimeoutSeconds = override.Remote.TimeoutSeconds
	}
	if override.Remote.MaxAttempts != 0 {
		base.Remote.MaxAttempts = override.Remote.MaxAttempts
	}
	if override.Remote.BaseDelayMillis != 0 {
		base.Remote.BaseDelayMillis = override.Remote.BaseDelayMillis
	}
	if override.Remote.MaxDelayMillis != 0 {
		base.Remote.MaxDelayMillis = override.Remote.MaxDelayMillis
	}
	if override.Remote.CallsPerSecond != 0 {
		base.Remote.CallsPerSecond = override.Remote.CallsPerSecond
	}
	if len(override.Jurisdictions) > 0 {
		base.Jurisdictions = override.Jurisdictions
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		State:    StateConfig{Path: "parcelscanner.db"},
		Remote: RemoteConfig{
			TimeoutSeconds:  30,
			MaxAttempts:     3,
			BaseDelayMillis: 500,
			MaxDelayMillis:  8000,
			CallsPerSecond:  1,
		},
		Jurisdictions: []JurisdictionConfig{
			{
				ID:        "tarrant",
				Name:      "Tarrant Appraisal District",
				Endpoint:  "https://esearch.tad.example.org/api/search?where={where}&fields={fields}",
				Dialect:   "json",
				Delimiter: "|",
				Encoding:  "utf-8",
				ChunkSize: 100000,
				Cities:    []string{"Fort Worth", "Arlington", "Keller"},
				PostalCodes: []string{
					"76102", "76104", "76107", "76109", "76110",
				},
				FieldMap: map[string]string{
					"Account_Num":       "account_number",
					"Owner_Name":        "owner_name",
					"Situs_Address":     "situs_address",
					"City":              "situs_city",
					"Situs_Zip":         "situs_zip",
					"Land_Value":        "land_value",
					"Improvement_Value": "improvement_value",
					"Prior_Improvement": "prior_improvement_value",
					"Year_Built":        "year_built",
					"New_Construction":  "new_construction",
					"Property_Class":    "property_class",
				},
				Filters: FilterConfig{
					AllowedClasses:      []string{"R", "RES", "A1"},
					MinImprovementValue: 100000,
					RecencyYears:        2,
				},
				AffirmativeFlags: []string{"Y", "YES", "TRUE", "1", "NEW"},
				QueryFields: QueryFieldsConfig{
					Address: "Situs_Address",
					Returns: []string{
						"Account_Num", "Owner_Name", "Situs_Address", "City",
						"Situs_Zip", "Land_Value", "Improvement_Value",
						"Year_Built", "Property_Class",
					},
				},
			},
		},
	}
}
