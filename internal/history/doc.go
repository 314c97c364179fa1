// Package history persists detection runs in a local SQLite database so
// earlier verdicts can be listed, reopened, and matched by content hash.
//
// The schema is versioned; a database written by a different schema version
// is rejected rather than migrated.
package history
