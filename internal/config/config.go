package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	INat     INatConfig     `yaml:"inat" mapstructure:"inat"`
	Sort     SortConfig     `yaml:"sort" mapstructure:"sort"`
	Manifest ManifestConfig `yaml:"manifest" mapstructure:"manifest"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// INatConfig holds iNaturalist API settings.
type INatConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TaxonID     int    `yaml:"taxon_id" mapstructure:"taxon_id"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the per-request timeout.
func (c INatConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SortConfig configures the sort run.
type SortConfig struct {
	InputDir  string  `yaml:"input_dir" mapstructure:"input_dir"`
	OutputDir string  `yaml:"output_dir" mapstructure:"output_dir"`
	DelaySecs float64 `yaml:"delay_secs" mapstructure:"delay_secs"`
	MinScore  float64 `yaml:"min_score" mapstructure:"min_score"`
}

// Delay returns the pause between classification requests.
func (c SortConfig) Delay() time.Duration {
	return time.Duration(c.DelaySecs * float64(time.Second))
}

// ManifestConfig selects the manifest backend.
type ManifestConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyTokenEnv is read when no token is configured under the FROGSORT prefix.
const legacyTokenEnv = "INAT_API_KEY"

// Credential resolves the iNaturalist token, preferring an explicit value,
// then configuration, then the INAT_API_KEY environment variable.
func (c *Config) Credential(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.INat.APIKey != "" {
		return c.INat.APIKey
	}
	return os.Getenv(legacyTokenEnv)
}

// CredentialHelp explains how to obtain and supply an iNaturalist token.
const CredentialHelp = `iNaturalist requires an account token.
  1. Sign up free at https://www.inaturalist.org
  2. Get your token at https://www.inaturalist.org/users/api_token
  3. Pass it with --api-key YOUR_TOKEN or set INAT_API_KEY`

// Validate checks that values are usable for a sort run.
func (c *Config) Validate() error {
	var problems []string

	if c.INat.BaseURL == "" {
		problems = append(problems, "inat.base_url is required")
	}
	if c.INat.TaxonID <= 0 {
		problems = append(problems, "inat.taxon_id must be positive")
	}
	if c.INat.TimeoutSecs <= 0 {
		problems = append(problems, "inat.timeout_secs must be positive")
	}
	if c.Sort.DelaySecs < 0 {
		problems = append(problems, "sort.delay_secs must not be negative")
	}
	if c.Sort.MinScore < 0 || c.Sort.MinScore > 1 {
		problems = append(problems, "sort.min_score must be between 0 and 1")
	}
	switch c.Manifest.Driver {
	case "json", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("manifest.driver %q must be json or sqlite", c.Manifest.Driver))
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FROGSORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("inat.api_key", "")
	v.SetDefault("inat.base_url", "https://api.inaturalist.org/v1")
	v.SetDefault("inat.taxon_id", 20979)
	v.SetDefault("inat.timeout_secs", 30)
	v.SetDefault("inat.user_agent", "FrogSorterBot/1.0 (discord frog photo organiser)")
	v.SetDefault("sort.input_dir", "")
	v.SetDefault("sort.output_dir", "")
	v.SetDefault("sort.delay_secs", 0.5)
	v.SetDefault("sort.min_score", 0.10)
	v.SetDefault("manifest.driver", "json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger. Logs go to stderr so that
// command output on stdout stays clean.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
