// Package models owns the detection networks and the registry that loads them.
//
// Each kind pairs a fixed feature extractor with a two-layer perceptron and a
// two-class softmax. Weights start from a deterministic seed derived from the
// kind name and are replaced by a JSON checkpoint when one is present in the
// model directory. The registry is an explicit value owned by the detection
// engine; nothing in this package is global.
package models
