// Package config loads application settings from defaults, an optional
// config.yaml, a .env file and SKILLSWAP_-prefixed environment variables,
// and validates them before the server starts.
package config
