package source

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultDriver is used when Config.Driver is empty.
	DefaultDriver = "couch"
	// DefaultMaxDocs is used when Config.MaxDocs is zero.
	DefaultMaxDocs = 1000
)

var validate = validator.New()

// Config describes how to connect to a document store.
// Either URL or Host and Port must be set; URL takes precedence.
type Config struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url" validate:"omitempty,url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host" validate:"required_without=URL"`
	Port     int    `mapstructure:"port" validate:"required_without=URL,gte=0,lte=65535"`

	// MaxDocs is the maximum number of documents to load.
	// It is accepted for compatibility but not applied to results.
	MaxDocs int     `mapstructure:"max_docs" validate:"gte=0"`
	Options Options `mapstructure:"options"`
}

// WithDefaults returns a copy of the config with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.MaxDocs == 0 {
		c.MaxDocs = DefaultMaxDocs
	}
	return c
}

// Validate checks that the config has enough information to connect.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid source config: %w", err)
	}
	return nil
}
