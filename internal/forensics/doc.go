// Package forensics implements the classical image and audio heuristics that
// accompany model predictions: compression blocking, noise residue, channel
// correlation, edge density, lighting balance, shadow clipping, spectral
// entropy, and file-level metadata.
//
// Every heuristic is a pure function of its input so callers can run them on
// already-decoded rasters. Analyzer ties them together for a file on disk.
package forensics
