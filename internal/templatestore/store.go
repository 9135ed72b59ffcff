// Package templatestore persists named receipt templates.
package templatestore

import (
	"context"
	"errors"
	"regexp"
)

var (
	// ErrNotFound is returned when no template has the requested name.
	ErrNotFound = errors.New("templatestore: template not found")
	// ErrInvalidName is returned for names outside [A-Za-z0-9_-].
	ErrInvalidName = errors.New("templatestore: invalid template name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether name can be used as a template name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Repository stores templates by name.
type Repository interface {
	Get(ctx context.Context, name string) (*Template, error)
	List(ctx context.Context) ([]string, error)
	Save(ctx context.Context, name string, tpl *Template) error
	Delete(ctx context.Context, name string) error
}
