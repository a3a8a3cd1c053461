package config

import (
	"errors"
	"fmt"
)

func nonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}

func (c *Config) Validate() error {
	return errors.Join(
		nonEmpty(c.JWT.AccessSecret, "JWT_SECRET"),
		nonEmpty(c.JWT.RefreshSecret, "JWT_REFRESH_SECRET"),
		nonEmpty(c.Midtrans.ServerKey, "MIDTRANS_SERVER_KEY"),
	)
}
