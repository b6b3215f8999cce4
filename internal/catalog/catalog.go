// Package catalog provides the recipe table that plans are ranked from.
package catalog

import (
	"context"
	"sync"

	"github.com/temcen/smartdiet/pkg/models"
)

// Catalog returns the full candidate table. Implementations return a fresh
// slice the caller may reorder.
type Catalog interface {
	Recipes(ctx context.Context) ([]models.Recipe, error)
}

// Static serves a fixed, in-memory recipe table.
type Static struct {
	mu      sync.RWMutex
	recipes []models.Recipe
}

func NewStatic(recipes []models.Recipe) *Static {
	s := &Static{}
	s.Replace(recipes)
	return s
}

func (s *Static) Recipes(_ context.Context) ([]models.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Recipe, len(s.recipes))
	copy(out, s.recipes)
	return out, nil
}

// Replace swaps the table atomically.
func (s *Static) Replace(recipes []models.Recipe) {
	cp := make([]models.Recipe, len(recipes))
	copy(cp, recipes)

	s.mu.Lock()
	s.recipes = cp
	s.mu.Unlock()
}

func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}
