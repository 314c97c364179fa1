package models

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"deepscan/internal/logging"
)

// State describes where a registered model's weights came from.
type State string

const (
	StateUntrained  State = "untrained"
	StateLoaded     State = "loaded"
	StateRegistered State = "registered"
)

// Info describes one registry entry for listings.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Device      Device `json:"device"`
	State       State  `json:"state"`
	Checkpoint  string `json:"checkpoint,omitempty"`
	Parameters  int    `json:"parameters,omitempty"`
}

type entry struct {
	scorer     Scorer
	state      State
	checkpoint string
}

// Registry maps model names to scorers in registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
	device  Device
	logger  *slog.Logger
}

// NewRegistry returns an empty registry placing models on device.
func NewRegistry(device Device, logger *slog.Logger) *Registry {
	if device == "" {
		device = DeviceCPU
	}
	return &Registry{
		entries: make(map[string]*entry),
		device:  device,
		logger:  logging.NewComponentLogger(logger, "models"),
	}
}

// Register adds scorer under name, replacing any previous entry in place, and
// moves it to the registry device.
func (r *Registry) Register(name string, scorer Scorer) {
	r.register(name, scorer, StateRegistered, "")
}

func (r *Registry) register(name string, scorer Scorer, state State, checkpoint string) {
	r.mu.Lock()
	if p, ok := scorer.(Placeable); ok {
		p.SetDevice(r.device)
	}
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = &entry{scorer: scorer, state: state, checkpoint: checkpoint}
	device := r.device
	r.mu.Unlock()

	r.logger.Debug("model registered",
		logging.String("model", name),
		logging.String("device", device.String()),
		logging.String("state", string(state)),
	)
}

// Get returns the scorer registered under name.
func (r *Registry) Get(name string) (Scorer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.scorer, true
}

// List returns registered names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len reports how many models are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// SetDevice moves every registered model to d; later registrations follow.
func (r *Registry) SetDevice(d Device) {
	r.mu.Lock()
	r.device = d
	for _, e := range r.entries {
		if p, ok := e.scorer.(Placeable); ok {
			p.SetDevice(d)
		}
	}
	r.mu.Unlock()
	r.logger.Info("model device set", logging.String("device", d.String()))
}

// Device returns the device new registrations are placed on.
func (r *Registry) Device() Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.device
}

// Info describes every entry in registration order.
func (r *Registry) Info() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		e := r.entries[name]
		info := Info{Name: name, Device: r.device, State: e.state, Checkpoint: e.checkpoint}
		if n, ok := e.scorer.(*Network); ok {
			info.Description = n.Description()
			info.Parameters = n.Parameters()
			info.Device = n.Device()
		}
		out = append(out, info)
	}
	return out
}

// LoadAll builds every known kind and loads <dir>/<kind>.json over its
// untrained weights when present. A missing checkpoint is routine; an
// unreadable or mismatched one is logged and the untrained weights are kept.
// LoadAll never fails as a whole.
func (r *Registry) LoadAll(dir string) {
	loaded := 0
	for _, kind := range Kinds() {
		network, err := NewNetwork(kind)
		if err != nil {
			logging.WarnWithContext(r.logger, "model construction failed", "model_construct_failed",
				logging.String("model", kind),
				logging.Error(err),
				logging.String(logging.FieldImpact, "model unavailable for this run"),
			)
			continue
		}
		path := CheckpointPath(dir, kind)
		state := StateUntrained
		checkpoint := ""
		switch _, statErr := os.Stat(path); {
		case statErr == nil:
			if err := network.LoadCheckpoint(path); err != nil {
				logging.WarnWithContext(r.logger, "checkpoint load failed", "checkpoint_load_failed",
					logging.String("model", kind),
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "model runs with untrained weights"),
					logging.String(logging.FieldErrorHint, "regenerate the checkpoint or remove it from model_dir"),
				)
			} else {
				state = StateLoaded
				checkpoint = path
				loaded++
			}
		case errors.Is(statErr, fs.ErrNotExist):
			r.logger.Info("no checkpoint found",
				logging.String("model", kind),
				logging.String("path", path),
				logging.String(logging.FieldImpact, "model runs with untrained weights"),
			)
		default:
			logging.WarnWithContext(r.logger, "checkpoint stat failed", "checkpoint_stat_failed",
				logging.String("model", kind),
				logging.String("path", path),
				logging.Error(statErr),
				logging.String(logging.FieldImpact, "model runs with untrained weights"),
			)
		}
		r.register(kind, network, state, checkpoint)
	}
	r.logger.Info("models ready",
		logging.String(logging.FieldEventType, "models_loaded"),
		logging.Int("registered", r.Len()),
		logging.Int("checkpoints", loaded),
		logging.String("model_dir", dir),
	)
}
