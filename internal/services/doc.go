// Package services defines shared utilities consumed by the analyzers, the CLI,
// and the HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, media types, and source paths for
//     logging.
//   - Structured error markers plus the Wrap helper, and the mapping from those
//     markers to HTTP status codes and error codes.
package services
