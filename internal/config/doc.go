// Package config loads, normalizes, and validates deepscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// DEEPSCAN_MODEL_DIR and DEEPSCAN_DEVICE. The Config type centralizes the
// detection policy, decoder binaries, and output directories so the CLI, the
// HTTP API, and the detection engine agree on one set of thresholds.
package config
