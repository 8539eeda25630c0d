package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata, one instance is enough
var validate = validator.New()

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		return formatValidationError(err)
	}

	for _, region := range c.Regions {
		if _, ok := c.Stations[region]; !ok {
			return fmt.Errorf("no station configured for region %d", region)
		}
	}

	if c.StoreDriver == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH cannot be empty when STORE_DRIVER is sqlite")
	}

	if c.StoreDriver == "postgres" && c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST cannot be empty when STORE_DRIVER is postgres")
	}

	if c.CacheMode == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR cannot be empty when CACHE_MODE is redis")
	}

	for region := range c.Volume.Regions {
		err = validate.Struct(c.Volume.For(region))
		if err != nil {
			return fmt.Errorf("volume override for region %d: %w", region, formatValidationError(err))
		}
	}

	return nil
}

// formatValidationError turns validator errors into one readable message.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s failed %q (value: %v)", e.Namespace(), e.Tag(), e.Value()))
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
