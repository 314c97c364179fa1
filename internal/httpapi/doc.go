// Package httpapi serves detection over HTTP with fiber.
//
// Routes:
//
//	GET  /api/health         liveness probe
//	GET  /api/info           version, device, and detector states
//	POST /api/upload         multipart "file", optional "media_type" and "forensics"
//	GET  /api/report/:name   download a generated report
//	GET  /api/history        recent runs, ?limit=N
//	GET  /api/history/:id    one stored run with its full summary
//
// Errors are returned as {"error": {"code", "message"}}.
package httpapi
