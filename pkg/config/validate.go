// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
)

// ValidateCore ensures critical configuration is present.
func (c *Config) ValidateCore() error {
	var missing []string

	if strings.TrimSpace(c.Server.Port) == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if strings.TrimSpace(c.JWT.RefreshSecret) == "" {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}
	if c.IsProduction() {
		if c.JWT.Secret == "change-this-secret" {
			missing = append(missing, "JWT_SECRET")
		}
		if c.JWT.RefreshSecret == "change-this-refresh-secret" {
			missing = append(missing, "JWT_REFRESH_SECRET")
		}
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		missing = append(missing, "LOGIN_RATE_LIMIT/LOGIN_RATE_WINDOW")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}
