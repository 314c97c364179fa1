// Package main hosts the deepscan CLI entrypoint and command graph.
//
// The Cobra-based command tree runs detections on local files, prints
// forensic examinations, manages the run history, renders reports, checks
// the environment, and starts the HTTP API. It centralizes configuration
// resolution, logger setup, and engine construction so subcommands can focus
// on presentation.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first (usually internal/api workflows) and is surfaced here as a command or
// flag.
package main
