// Package config loads service configuration from DRAGONLOST_* environment
// variables into env-tagged structs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target's env-tagged fields from the process environment.
// Fields keep their envDefault value when the variable is unset, so flags can
// layer on top of the parsed struct. target must be a non-nil struct pointer.
func ParseEnv(target any) error {
	if target == nil {
		return fmt.Errorf("parse env: target is required")
	}
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
