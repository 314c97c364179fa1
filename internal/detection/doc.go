// Package detection turns a media file into an authenticity verdict.
//
// The Engine resolves the media type, hands the file to the image, video, or
// audio analyzer, and returns a Result the analyzer owned until return.
// Analyzer failures are recorded on the Result as metadata markers; only an
// unresolvable media type surfaces as an error. Consensus is a plain majority
// vote over every prediction with a mean confidence.
package detection
