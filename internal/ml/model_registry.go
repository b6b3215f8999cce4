package ml

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ModelInfo contains metadata about a registered model
type ModelInfo struct {
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Path       string    `json:"path,omitempty"`
	Hash       string    `json:"hash"`
	InputDim   int       `json:"input_dim"`
	Classes    int       `json:"classes"`
	LoadedAt   time.Time `json:"loaded_at"`
	UsageCount int64     `json:"usage_count"`
}

type registeredModel struct {
	info   ModelInfo
	scorer PreferenceScorer
	usage  atomic.Int64
}

// ModelRegistry keeps named preference models and routes scoring calls to
// the active one. It implements PreferenceScorer itself.
type ModelRegistry struct {
	models map[string]*registeredModel
	active string
	mutex  sync.RWMutex
	logger *logrus.Logger
}

func NewModelRegistry(logger *logrus.Logger) *ModelRegistry {
	return &ModelRegistry{
		models: make(map[string]*registeredModel),
		logger: logger,
	}
}

// Register adds or replaces a model. The first registered model becomes
// active.
func (mr *ModelRegistry) Register(info ModelInfo, scorer PreferenceScorer) error {
	if info.Name == "" {
		return fmt.Errorf("%w: model name cannot be empty", ErrInvalidModel)
	}
	if scorer == nil {
		return fmt.Errorf("%w: model %s has no scorer", ErrInvalidModel, info.Name)
	}
	if info.LoadedAt.IsZero() {
		info.LoadedAt = time.Now()
	}

	mr.mutex.Lock()
	defer mr.mutex.Unlock()

	mr.models[info.Name] = &registeredModel{info: info, scorer: scorer}
	if mr.active == "" {
		mr.active = info.Name
	}

	mr.logger.WithFields(logrus.Fields{
		"model_name":    info.Name,
		"model_version": info.Version,
		"model_hash":    info.Hash,
		"active":        mr.active == info.Name,
	}).Info("Preference model registered")

	return nil
}

// LoadFile reads a JSON model file, validates it and registers the
// resulting network.
func (mr *ModelRegistry) LoadFile(path string) (*ModelInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	info, err := mr.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	info.Path = path

	mr.mutex.Lock()
	mr.models[info.Name].info.Path = path
	mr.mutex.Unlock()

	return info, nil
}

// Load validates and registers a model from raw JSON.
func (mr *ModelRegistry) Load(data []byte) (*ModelInfo, error) {
	if err := validateModelDocument(data); err != nil {
		return nil, err
	}

	var spec NetworkSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	scorer, err := NewNetworkScorer(spec)
	if err != nil {
		return nil, err
	}

	info := ModelInfo{
		Name:     spec.Name,
		Version:  spec.Version,
		Hash:     GenerateModelHash(data),
		InputDim: spec.InputDim,
		Classes:  spec.Classes,
		LoadedAt: time.Now(),
	}
	if err := mr.Register(info, scorer); err != nil {
		return nil, err
	}
	return &info, nil
}

// Activate routes subsequent Score calls to the named model.
func (mr *ModelRegistry) Activate(name string) error {
	mr.mutex.Lock()
	defer mr.mutex.Unlock()

	if _, ok := mr.models[name]; !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	mr.active = name
	mr.logger.WithField("model_name", name).Info("Preference model activated")
	return nil
}

// ActiveModel returns metadata of the model Score currently uses.
func (mr *ModelRegistry) ActiveModel() (*ModelInfo, error) {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()

	if mr.active == "" {
		return nil, ErrNoActiveModel
	}
	return mr.infoLocked(mr.active), nil
}

// GetModelInfo returns information about a registered model
func (mr *ModelRegistry) GetModelInfo(name string) (*ModelInfo, error) {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()

	if _, ok := mr.models[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return mr.infoLocked(name), nil
}

// ListModels returns all registered models sorted by name
func (mr *ModelRegistry) ListModels() []ModelInfo {
	mr.mutex.RLock()
	defer mr.mutex.RUnlock()

	out := make([]ModelInfo, 0, len(mr.models))
	for name := range mr.models {
		out = append(out, *mr.infoLocked(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unload removes a model. Unloading the active model leaves the registry
// without one until Activate is called.
func (mr *ModelRegistry) Unload(name string) {
	mr.mutex.Lock()
	defer mr.mutex.Unlock()

	delete(mr.models, name)
	if mr.active == name {
		mr.active = ""
	}
	mr.logger.WithField("model_name", name).Info("Preference model unloaded")
}

// Score delegates to the active model.
func (mr *ModelRegistry) Score(ctx context.Context, vectors [][]float64) ([]float64, error) {
	mr.mutex.RLock()
	m, ok := mr.models[mr.active]
	mr.mutex.RUnlock()

	if !ok {
		return nil, ErrNoActiveModel
	}

	m.usage.Add(1)
	return m.scorer.Score(ctx, vectors)
}

func (mr *ModelRegistry) infoLocked(name string) *ModelInfo {
	m := mr.models[name]
	info := m.info
	info.UsageCount = m.usage.Load()
	return &info
}

// GenerateModelHash fingerprints model content for versioning
func GenerateModelHash(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)[:16]
}
