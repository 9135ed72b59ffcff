package templatestore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewMemoryRepository creates a store seeded with templates.
func NewMemoryRepository(seed map[string]*Template) *MemoryRepository {
	r := &MemoryRepository{templates: make(map[string]*Template, len(seed))}
	for name, tpl := range seed {
		r.templates[name] = tpl.Clone()
	}
	return r
}

func (r *MemoryRepository) Get(ctx context.Context, name string) (*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	c := tpl.Clone()
	if c.Name == "" {
		c.Name = name
	}
	return c, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryRepository) Save(ctx context.Context, name string, tpl *Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := receiptformat.Validate(tpl); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = tpl.Clone()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.templates, name)
	return nil
}
