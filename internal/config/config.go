package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"deltaban/internal/engine"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the deltaban service.
type Config struct {
	Storage Storage       `yaml:"storage"`
	Server  Server        `yaml:"server"`
	Logging Logging       `yaml:"logging"`
	Penalty PenaltyConfig `yaml:"penalty"`
	BanList BanListConfig `yaml:"banlist"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PenaltyConfig holds the penalty formula constants. Zero values fall back to
// the exchange defaults so a config file may omit the section entirely.
type PenaltyConfig struct {
	Floor         float64 `yaml:"floor"`
	Cap           float64 `yaml:"cap"`
	Rate          float64 `yaml:"rate"`
	SurchargeRate float64 `yaml:"surcharge_rate"`
}

// BanListConfig locates the ban-period securities file.
type BanListConfig struct {
	Path string `yaml:"path"`
}

// Params converts the config section into engine penalty parameters,
// substituting defaults for unset fields.
func (p PenaltyConfig) Params() engine.PenaltyParams {
	params := engine.DefaultPenaltyParams()
	if p.Floor != 0 {
		params.Floor = p.Floor
	}
	if p.Cap != 0 {
		params.Cap = p.Cap
	}
	if p.Rate != 0 {
		params.Rate = p.Rate
	}
	if p.SurchargeRate != 0 {
		params.SurchargeRate = p.SurchargeRate
	}
	return params
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BANLIST_PATH"); v != "" {
		cfg.BanList.Path = v
	}

	if v, ok := envFloat("PENALTY_FLOOR"); ok {
		cfg.Penalty.Floor = v
	}
	if v, ok := envFloat("PENALTY_CAP"); ok {
		cfg.Penalty.Cap = v
	}
	if v, ok := envFloat("PENALTY_RATE"); ok {
		cfg.Penalty.Rate = v
	}
	if v, ok := envFloat("PENALTY_SURCHARGE_RATE"); ok {
		cfg.Penalty.SurchargeRate = v
	}
}

// envFloat reads a float from the environment; malformed values are ignored.
func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
