package connectivity

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config controls clustering and naming.
type Config struct {
	// Parallel sheet workers (default: GOMAXPROCS)
	Workers int `yaml:"workers" validate:"gte=1,lte=256"`

	// Coordinates closer than this many millimeters coincide (default: 0.0001)
	GridQuantum float64 `yaml:"grid_quantum" validate:"gt=0,lte=10"`

	// Policy among equal-priority drivers (default: creation-order)
	TieBreak string `yaml:"tie_break" validate:"oneof=creation-order position lexical"`

	// Prefix names in the root sheet with "/" (default: false)
	PrefixRootNames bool `yaml:"prefix_root_names"`

	// Prefix of auto-generated pin net names (default: "Net-")
	AutoNamePrefix string `yaml:"auto_name_prefix" validate:"required,max=32"`
}

// DefaultConfig returns a Config suitable for KiCad schematics.
func DefaultConfig() *Config {
	return &Config{
		Workers:         runtime.GOMAXPROCS(0),
		GridQuantum:     0.0001,
		TieBreak:        CreationOrder.Name(),
		PrefixRootNames: false,
		AutoNamePrefix:  "Net-",
	}
}

// Validate fills zero values with defaults and checks the field rules.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.GridQuantum == 0 {
		c.GridQuantum = def.GridQuantum
	}
	if c.TieBreak == "" {
		c.TieBreak = def.TieBreak
	}
	if c.AutoNamePrefix == "" {
		c.AutoNamePrefix = def.AutoNamePrefix
	}

	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// TieBreaker returns the configured policy.
func (c *Config) TieBreaker() (TieBreaker, error) {
	return TieBreakerByName(c.TieBreak)
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("connectivity: read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("connectivity: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("connectivity: config %s: %w", path, err)
	}
	return cfg, nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Report the first failing field
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("connectivity: %s: field is required", field)
		case "gt":
			return fmt.Errorf("connectivity: %s: must be greater than %s", field, e.Param())
		case "gte":
			return fmt.Errorf("connectivity: %s: must be at least %s", field, e.Param())
		case "lte", "max":
			return fmt.Errorf("connectivity: %s: must not exceed %s", field, e.Param())
		case "oneof":
			return fmt.Errorf("connectivity: %s: must be one of %s", field, e.Param())
		default:
			return fmt.Errorf("connectivity: %s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
