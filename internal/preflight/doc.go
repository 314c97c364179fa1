// Package preflight provides readiness checks for the filesystem paths and
// external binaries deepscan depends on.
//
// These checks run in two contexts:
//   - The CLI "deepscan check" command prints every result.
//   - The HTTP server runs RunAll at startup and logs failures as warnings.
//     A failed check never blocks startup: image analysis works without
//     ffmpeg, and missing checkpoints fall back to untrained weights.
//
// History checks are gated by the history toggle.
package preflight
