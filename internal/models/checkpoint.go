package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"deepscan/internal/services"
)

// CheckpointExt is the file extension of model checkpoints.
const CheckpointExt = ".json"

// CheckpointPath returns <dir>/<kind>.json.
func CheckpointPath(dir, kind string) string {
	return filepath.Join(dir, kind+CheckpointExt)
}

// checkpointFile is the on-disk layout. Weights are row-major [out][in];
// biases are [out]. The state may be written bare or under "state_dict".
type checkpointFile struct {
	Kind      string                     `json:"kind,omitempty"`
	StateDict map[string]json.RawMessage `json:"state_dict"`
}

// LoadCheckpoint replaces the network weights with the contents of path.
// The network is unchanged when the file is unreadable or any tensor has the
// wrong shape.
func (n *Network) LoadCheckpoint(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "models", "read checkpoint", filepath.Base(path), err)
	}
	state, err := parseState(data)
	if err != nil {
		return services.Wrap(services.ErrDecode, "models", "parse checkpoint", filepath.Base(path), err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	staged := make([]layer, 0, 3)
	for _, l := range n.layers() {
		loaded, err := l.fromState(state)
		if err != nil {
			return services.Wrap(services.ErrDecode, "models", "load state", n.kind, err)
		}
		staged = append(staged, loaded)
	}
	for i, l := range n.layers() {
		*l = staged[i]
	}
	return nil
}

// SaveCheckpoint writes the network weights to path wrapped in state_dict.
func SaveCheckpoint(path string, n *Network) error {
	n.mu.RLock()
	state := make(map[string]json.RawMessage)
	var encodeErr error
	for _, l := range n.layers() {
		weight, err := json.Marshal(denseRows(l.weight))
		if err != nil {
			encodeErr = err
			break
		}
		bias, err := json.Marshal(l.bias.RawVector().Data)
		if err != nil {
			encodeErr = err
			break
		}
		state[l.name+".weight"] = weight
		state[l.name+".bias"] = bias
	}
	n.mu.RUnlock()
	if encodeErr != nil {
		return fmt.Errorf("encode checkpoint: %w", encodeErr)
	}

	data, err := json.Marshal(checkpointFile{Kind: n.kind, StateDict: state})
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

func parseState(data []byte) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	if wrapped, ok := top["state_dict"]; ok && len(bytes.TrimSpace(wrapped)) > 0 && !bytes.Equal(bytes.TrimSpace(wrapped), []byte("null")) {
		var state map[string]json.RawMessage
		if err := json.Unmarshal(wrapped, &state); err != nil {
			return nil, fmt.Errorf("state_dict: %w", err)
		}
		return state, nil
	}
	delete(top, "kind")
	return top, nil
}

func (l *layer) fromState(state map[string]json.RawMessage) (layer, error) {
	rows, cols := l.weight.Dims()
	rawWeight, ok := state[l.name+".weight"]
	if !ok {
		return layer{}, fmt.Errorf("missing %s.weight", l.name)
	}
	rawBias, ok := state[l.name+".bias"]
	if !ok {
		return layer{}, fmt.Errorf("missing %s.bias", l.name)
	}
	var weight [][]float64
	if err := json.Unmarshal(rawWeight, &weight); err != nil {
		return layer{}, fmt.Errorf("%s.weight: %w", l.name, err)
	}
	var bias []float64
	if err := json.Unmarshal(rawBias, &bias); err != nil {
		return layer{}, fmt.Errorf("%s.bias: %w", l.name, err)
	}
	if len(weight) != rows {
		return layer{}, fmt.Errorf("%s.weight has %d rows, want %d", l.name, len(weight), rows)
	}
	flat := make([]float64, 0, rows*cols)
	for i, row := range weight {
		if len(row) != cols {
			return layer{}, fmt.Errorf("%s.weight row %d has %d columns, want %d", l.name, i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	if len(bias) != rows {
		return layer{}, fmt.Errorf("%s.bias has %d values, want %d", l.name, len(bias), rows)
	}
	return layer{name: l.name, weight: mat.NewDense(rows, cols, flat), bias: mat.NewVecDense(rows, bias)}, nil
}

func denseRows(m *mat.Dense) [][]float64 {
	rows, cols := m.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		mat.Row(out[i], i, m)
	}
	return out
}
