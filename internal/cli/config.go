package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/settee/internal/paths"
	"github.com/mesh-intelligence/settee/pkg/types"
	"github.com/mesh-intelligence/settee/pkg/validate"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "SETTEE"

	cfgKeyBackend    = "backend"
	cfgKeyRuleEngine = "rule_engine"
)

// settings is the content of config.yaml.
type settings struct {
	types.Config `yaml:",inline" mapstructure:",squash"`

	RuleEngine string       `yaml:"rule_engine,omitempty" mapstructure:"rule_engine"`
	Schemas    []schemaSpec `yaml:"schemas" mapstructure:"schemas"`
}

// schemaSpec declares one entity type.
type schemaSpec struct {
	Type       string            `yaml:"type" mapstructure:"type"`
	Properties []propertySpec    `yaml:"properties" mapstructure:"properties"`
	HasMany    []associationSpec `yaml:"has_many,omitempty" mapstructure:"has_many"`
	Rules      []validate.Rule   `yaml:"rules,omitempty" mapstructure:"rules"`
}

type propertySpec struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Kind    string `yaml:"kind,omitempty" mapstructure:"kind"`
	Default any    `yaml:"default,omitempty" mapstructure:"default"`
}

type associationSpec struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Type       string `yaml:"type" mapstructure:"type"`
	ForeignKey string `yaml:"foreign_key" mapstructure:"foreign_key"`
}

// defaultSettings is written to config.yaml on init.
func defaultSettings(dataDir string) settings {
	return settings{
		Config: types.Config{
			Backend: types.BackendSQLite,
			DataDir: dataDir,
			SQLite:  types.SQLiteConfig{SyncStrategy: types.SyncImmediate},
		},
		RuleEngine: string(validate.EngineExpr),
		Schemas:    []schemaSpec{},
	}
}

// loadSettings reads config.yaml from configDir through viper. Environment
// variables prefixed SETTEE_ override scalar keys (SETTEE_BACKEND,
// SETTEE_POSTGRES_DSN). A missing config.yaml is not an error.
func loadSettings(configDir string) (*settings, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyRuleEngine, string(validate.EngineExpr))
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("s3.bucket", "")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &s, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(configDir, dataDir string) error {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	s := defaultSettings(dataDir)
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# settee configuration\n# Declare entity types under schemas.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
