package config

import "github.com/caarlos0/env/v6"

// parseEnv overlays values from environment variables onto config. Variables
// that are not set leave the current values untouched.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
