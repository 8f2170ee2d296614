// Package usecase loads and validates the table of use-case templates.
//
// The table is read once at startup, either from the built-in definitions or
// from a YAML file, and is treated as immutable afterwards.
package usecase

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gridstack/internal/models"
)

// ErrNotFound is returned by Table.Get for an unknown use-case id.
var ErrNotFound = errors.New("use case not found")

// Table is an ordered, validated set of use-case templates.
type Table struct {
	version   int
	templates []models.UseCaseTemplate
	byID      map[string]int
}

// tableFile is the on-disk layout of a use-case table.
type tableFile struct {
	Version  int                      `yaml:"version"`
	UseCases []models.UseCaseTemplate `yaml:"use_cases"`
}

// Builtin returns the table compiled into the binary.
func Builtin() *Table {
	t, err := NewTable(TableVersion, builtin)
	if err != nil {
		panic(fmt.Sprintf("built-in use-case table is invalid: %v", err))
	}
	return t
}

// Load returns the table at path, or the built-in table when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	t, err := NewTable(f.Version, f.UseCases)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// NewTable validates templates and builds a table over a private copy.
func NewTable(version int, templates []models.UseCaseTemplate) (*Table, error) {
	if len(templates) == 0 {
		return nil, errors.New("use-case table is empty")
	}
	t := &Table{
		version:   version,
		templates: make([]models.UseCaseTemplate, 0, len(templates)),
		byID:      make(map[string]int, len(templates)),
	}
	for _, tpl := range templates {
		if err := Validate(tpl); err != nil {
			return nil, err
		}
		if _, dup := t.byID[tpl.ID]; dup {
			return nil, fmt.Errorf("duplicate use case id %q", tpl.ID)
		}
		t.byID[tpl.ID] = len(t.templates)
		t.templates = append(t.templates, tpl.Clone())
	}
	return t, nil
}

// Validate checks a single template: it needs an id and at least one
// category, category names must be unique and non-empty, and every category
// lists at least one type id.
func Validate(tpl models.UseCaseTemplate) error {
	if tpl.ID == "" {
		return errors.New("use case without id")
	}
	if len(tpl.Categories) == 0 {
		return fmt.Errorf("use case %q has no categories", tpl.ID)
	}
	seen := make(map[string]bool, len(tpl.Categories))
	for i, c := range tpl.Categories {
		if c.Name == "" {
			return fmt.Errorf("use case %q: category %d has no name", tpl.ID, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("use case %q: duplicate category name %q", tpl.ID, c.Name)
		}
		seen[c.Name] = true
		if len(c.ProductTypeIDs) == 0 {
			return fmt.Errorf("use case %q: category %q has no product type ids", tpl.ID, c.Name)
		}
	}
	return nil
}

// Version returns the table version.
func (t *Table) Version() int { return t.version }

// All returns copies of every template in table order.
func (t *Table) All() []models.UseCaseTemplate {
	out := make([]models.UseCaseTemplate, len(t.templates))
	for i, tpl := range t.templates {
		out[i] = tpl.Clone()
	}
	return out
}

// Get returns a copy of the template with the given id.
func (t *Table) Get(id string) (models.UseCaseTemplate, error) {
	i, ok := t.byID[id]
	if !ok {
		return models.UseCaseTemplate{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return t.templates[i].Clone(), nil
}
