package templatestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// FileRepository keeps all templates in one JSON document mapping template
// names to template objects. Entries are kept undecoded so that a broken
// template only fails when it is requested.
type FileRepository struct {
	filePath string
	data     map[string]interface{}
	mu       sync.RWMutex
}

// NewFileRepository loads path. A missing file is an empty store; it is
// created on the first save.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		filePath: path,
		data:     make(map[string]interface{}),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the backing file.
func (r *FileRepository) Path() string {
	return r.filePath
}

// Reload re-reads the backing file, replacing the in-memory state.
func (r *FileRepository) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			r.data = make(map[string]interface{})
			return nil
		}
		return fmt.Errorf("failed to load templates: %w", err)
	}

	loaded := make(map[string]interface{})
	if len(data) > 0 {
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("failed to parse templates file: %w", err)
		}
	}
	r.data = loaded
	return nil
}

// Get decodes the named template.
func (r *FileRepository) Get(ctx context.Context, name string) (*Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	raw, ok := r.data[name]
	r.mu.RUnlock()
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	tpl, err := receiptformat.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	if tpl.Name == "" {
		tpl.Name = name
	}
	return tpl, nil
}

// List returns the stored names in sorted order.
func (r *FileRepository) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.data))
	for name := range r.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Save replaces the named template and rewrites the file.
func (r *FileRepository) Save(ctx context.Context, name string, tpl *Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	raw, err := toDocument(tpl)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[name] = raw
	return r.save()
}

// Delete removes the named template.
func (r *FileRepository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.data, name)
	return r.save()
}

func (r *FileRepository) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}

	// Write to a sibling file and rename so watchers never see a partial file.
	tmp := r.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write templates: %w", err)
	}
	return os.Rename(tmp, r.filePath)
}

// toDocument converts a template to the untyped form kept in the file.
func toDocument(tpl *Template) (interface{}, error) {
	if err := receiptformat.Validate(tpl); err != nil {
		return nil, err
	}
	data, err := tpl.ToJSON()
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
