// Package config loads, normalizes, and validates reelpipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YOUTUBE_API_KEY and TELEGRAM_BOT_TOKEN. Secrets may also live in .env files
// loaded through LoadEnvFiles before Load runs.
//
// Always obtain settings through this package so stage runners receive
// absolute paths, canonical log formats, and clear validation errors.
package config
